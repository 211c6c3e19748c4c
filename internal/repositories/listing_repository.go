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

const ListingsCollection = "listings"

// IListingRepository is the listing store used by moderation, cleanup and checkout.
type IListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	FindByHarmfulFlag(ctx context.Context, harmful bool) ([]models.Listing, error)
	FindOlderThan(ctx context.Context, cutoff time.Time) ([]models.Listing, error)
	// MarkAsHarmful flags and deactivates a listing that is not yet flagged.
	MarkAsHarmful(ctx context.Context, id primitive.ObjectID, reason string) error
	SetApprovalStatus(ctx context.Context, id primitive.ObjectID, status models.ApprovalStatus) (*models.Listing, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type listingRepository struct {
	db *mongo.Database
}

func NewListingRepository(database *mongo.Database) IListingRepository {
	return &listingRepository{db: database}
}

func (r *listingRepository) collection() *mongo.Collection {
	return r.db.Collection(ListingsCollection)
}

func (r *listingRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_harmful", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create listing indexes: %w", err)
	}
	return nil
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	if listing.ApprovalStatus == "" {
		listing.ApprovalStatus = models.ApprovalStatusPending
	}

	err := db.Try(func() error {
		listing.GenID()
		_, insertErr := r.collection().InsertOne(ctx, listing)
		return insertErr
	})
	if err != nil {
		return fmt.Errorf("failed to insert listing for customer %s: %w", listing.CustomerID.Hex(), err)
	}
	return nil
}

func (r *listingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	err := r.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding listing %s: %w", id.Hex(), err)
	}
	return &listing, nil
}

func (r *listingRepository) FindByHarmfulFlag(ctx context.Context, harmful bool) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"is_harmful": harmful}, opts)
}

func (r *listingRepository) FindOlderThan(ctx context.Context, cutoff time.Time) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return r.find(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}}, opts)
}

func (r *listingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Listing, error) {
	cursor, err := r.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer cursor.Close(ctx)

	listings := []models.Listing{}
	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

func (r *listingRepository) MarkAsHarmful(ctx context.Context, id primitive.ObjectID, reason string) error {
	now := time.Now().UTC()
	filter := bson.M{"_id": id, "is_harmful": false}
	update := bson.M{"$set": bson.M{
		"is_harmful":     true,
		"is_active":      false,
		"harmful_reason": reason,
		"flagged_at":     now,
		"updated_at":     now,
	}}

	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark listing %s as harmful: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		// Either gone or flagged by a concurrent run.
		count, countErr := r.collection().CountDocuments(ctx, bson.M{"_id": id})
		if countErr == nil && count == 0 {
			return ErrNotFound
		}
		return ErrAlreadyFlagged
	}
	return nil
}

func (r *listingRepository) SetApprovalStatus(ctx context.Context, id primitive.ObjectID, status models.ApprovalStatus) (*models.Listing, error) {
	update := bson.M{"$set": bson.M{
		"approval_status": status,
		"updated_at":      time.Now().UTC(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var listing models.Listing
	err := r.collection().FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update approval status of listing %s: %w", id.Hex(), err)
	}
	return &listing, nil
}

func (r *listingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id.Hex(), err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
