package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zainiii163/tearence-backend-sub004/internal/db"
	"github.com/zainiii163/tearence-backend-sub004/internal/models"
)

const (
	ReferralsCollection     = "referrals"
	UserReferralsCollection = "user_referrals"
)

// IReferralRepository stores referral codes and their redemptions.
type IReferralRepository interface {
	FindByCode(ctx context.Context, code string) (*models.Referral, error)
	FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.Referral, error)
	// Create inserts a referral. Duplicate codes surface as a Mongo duplicate key error.
	Create(ctx context.Context, referral *models.Referral) error
	// IncrementUsage adds one use unless the code is inactive, expired or exhausted
	// (ErrReferralExhausted).
	IncrementUsage(ctx context.Context, id primitive.ObjectID) (*models.Referral, error)
	DecrementUsage(ctx context.Context, id primitive.ObjectID) error

	// CreateUserReferral returns ErrAlreadyReferred when the referred customer already has one.
	CreateUserReferral(ctx context.Context, ur *models.UserReferral) error
	// UpdateUserReferralStatus moves a user referral to status if it is currently in one of from.
	UpdateUserReferralStatus(ctx context.Context, id primitive.ObjectID, from []models.ReferralStatus, to models.ReferralStatus) (*models.UserReferral, error)
	FindUserReferralByReferred(ctx context.Context, referredID primitive.ObjectID) (*models.UserReferral, error)
	FindUserReferralsByReferrer(ctx context.Context, referrerID primitive.ObjectID, statuses ...models.ReferralStatus) ([]models.UserReferral, error)
	MarkReferredDiscountUsed(ctx context.Context, id primitive.ObjectID) error
	MarkReferrerDiscountUsed(ctx context.Context, id primitive.ObjectID) error
}

type referralRepository struct {
	db *mongo.Database
}

func NewReferralRepository(database *mongo.Database) IReferralRepository {
	return &referralRepository{db: database}
}

func (r *referralRepository) referrals() *mongo.Collection {
	return r.db.Collection(ReferralsCollection)
}

func (r *referralRepository) userReferrals() *mongo.Collection {
	return r.db.Collection(UserReferralsCollection)
}

func (r *referralRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.referrals().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "referral_code", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referrer_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create referral indexes: %w", err)
	}

	_, err = r.userReferrals().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "referred_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "referrer_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create user referral indexes: %w", err)
	}
	return nil
}

func (r *referralRepository) findReferral(ctx context.Context, filter bson.M) (*models.Referral, error) {
	var referral models.Referral
	err := r.referrals().FindOne(ctx, filter).Decode(&referral)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding referral: %w", err)
	}
	return &referral, nil
}

func (r *referralRepository) FindByCode(ctx context.Context, code string) (*models.Referral, error) {
	return r.findReferral(ctx, bson.M{"referral_code": code})
}

func (r *referralRepository) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.Referral, error) {
	return r.findReferral(ctx, bson.M{"referrer_id": referrerID})
}

func (r *referralRepository) Create(ctx context.Context, referral *models.Referral) error {
	now := time.Now().UTC()
	referral.GenIDIfEmpty()
	referral.CreatedAt = now
	referral.UpdatedAt = now

	if _, err := r.referrals().InsertOne(ctx, referral); err != nil {
		return fmt.Errorf("failed to insert referral %s: %w", referral.ReferralCode, err)
	}
	return nil
}

func (r *referralRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"_id":       id,
		"is_active": true,
		"$and": bson.A{
			bson.M{"$or": bson.A{
				bson.M{"max_uses": nil},
				bson.M{"$expr": bson.M{"$lt": bson.A{"$current_uses", "$max_uses"}}},
			}},
			bson.M{"$or": bson.A{
				bson.M{"expires_at": nil},
				bson.M{"expires_at": bson.M{"$gt": now}},
			}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"current_uses": 1},
		"$set": bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var referral models.Referral
	err := r.referrals().FindOneAndUpdate(ctx, filter, update, opts).Decode(&referral)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReferralExhausted
		}
		return nil, fmt.Errorf("failed to increment usage of referral %s: %w", id.Hex(), err)
	}
	return &referral, nil
}

func (r *referralRepository) DecrementUsage(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "current_uses": bson.M{"$gt": 0}}
	update := bson.M{
		"$inc": bson.M{"current_uses": -1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	result, err := r.referrals().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decrement usage of referral %s: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *referralRepository) CreateUserReferral(ctx context.Context, ur *models.UserReferral) error {
	now := time.Now().UTC()
	ur.GenIDIfEmpty()
	ur.CreatedAt = now
	ur.UpdatedAt = now

	if _, err := r.userReferrals().InsertOne(ctx, ur); err != nil {
		if db.IsMongoDuplicateKeyError(err) {
			return ErrAlreadyReferred
		}
		return fmt.Errorf("failed to insert user referral for customer %s: %w", ur.ReferredID.Hex(), err)
	}
	return nil
}

func (r *referralRepository) UpdateUserReferralStatus(ctx context.Context, id primitive.ObjectID, from []models.ReferralStatus, to models.ReferralStatus) (*models.UserReferral, error) {
	now := time.Now().UTC()
	set := bson.M{"status": to, "updated_at": now}
	switch to {
	case models.ReferralStatusRegistered:
		set["registered_at"] = now
	case models.ReferralStatusCompleted:
		set["completed_at"] = now
	}

	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var ur models.UserReferral
	err := r.userReferrals().FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&ur)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update status of user referral %s: %w", id.Hex(), err)
	}
	return &ur, nil
}

func (r *referralRepository) FindUserReferralByReferred(ctx context.Context, referredID primitive.ObjectID) (*models.UserReferral, error) {
	var ur models.UserReferral
	err := r.userReferrals().FindOne(ctx, bson.M{"referred_id": referredID}).Decode(&ur)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding user referral for customer %s: %w", referredID.Hex(), err)
	}
	return &ur, nil
}

func (r *referralRepository) FindUserReferralsByReferrer(ctx context.Context, referrerID primitive.ObjectID, statuses ...models.ReferralStatus) ([]models.UserReferral, error) {
	filter := bson.M{"referrer_id": referrerID}
	if len(statuses) > 0 {
		filter["status"] = bson.M{"$in": statuses}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.userReferrals().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query user referrals for referrer %s: %w", referrerID.Hex(), err)
	}
	defer cursor.Close(ctx)

	urs := []models.UserReferral{}
	if err := cursor.All(ctx, &urs); err != nil {
		return nil, fmt.Errorf("failed to decode user referrals: %w", err)
	}
	return urs, nil
}

func (r *referralRepository) MarkReferredDiscountUsed(ctx context.Context, id primitive.ObjectID) error {
	return r.markDiscountUsed(ctx, bson.M{"_id": id, "referred_discount_used": false}, "referred_discount_used", "referred_discount_used_at")
}

func (r *referralRepository) MarkReferrerDiscountUsed(ctx context.Context, id primitive.ObjectID) error {
	filter := bson.M{"_id": id, "referrer_discount_used": false, "status": models.ReferralStatusCompleted}
	return r.markDiscountUsed(ctx, filter, "referrer_discount_used", "referrer_discount_used_at")
}

// markDiscountUsed flips a one-time flag. The filter requires the flag to be
// false, so a second caller never matches.
func (r *referralRepository) markDiscountUsed(ctx context.Context, filter bson.M, flagField, atField string) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{flagField: true, atField: now, "updated_at": now}}

	result, err := r.userReferrals().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", flagField, err)
	}
	if result.MatchedCount == 0 {
		return ErrDiscountAlreadyUsed
	}
	return nil
}
