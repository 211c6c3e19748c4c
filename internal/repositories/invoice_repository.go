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
	"github.com/zainiii163/tearence-backend-sub004/internal/utils"
)

const (
	InvoicesCollection = "invoices"

	invoiceNumberSuffixLength = 6
)

// IInvoiceRepository stores checkout invoices.
type IInvoiceRepository interface {
	// Create inserts a pending invoice with a fresh invoice number.
	Create(ctx context.Context, invoice *models.Invoice) error
	// Issue records the priced result on a pending invoice. ErrNotFound means
	// the invoice is missing or no longer pending.
	Issue(ctx context.Context, id primitive.ObjectID, result *models.DiscountResult) (*models.Invoice, error)
	MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error
	FindByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error)
}

type invoiceRepository struct {
	db *mongo.Database
}

func NewInvoiceRepository(database *mongo.Database) IInvoiceRepository {
	return &invoiceRepository{db: database}
}

func (r *invoiceRepository) collection() *mongo.Collection {
	return r.db.Collection(InvoicesCollection)
}

func (r *invoiceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "invoice_number", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customer_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create invoice indexes: %w", err)
	}
	return nil
}

// newInvoiceNumber returns a readable number such as INV-20240131-7KQ2MX.
func newInvoiceNumber(now time.Time) (string, error) {
	suffix, err := utils.NewCode(invoiceNumberSuffixLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix), nil
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	now := time.Now().UTC()
	invoice.GenIDIfEmpty()
	invoice.Status = models.InvoiceStatusPending
	invoice.CreatedAt = now
	invoice.UpdatedAt = now

	err := db.Try(func() error {
		number, err := newInvoiceNumber(now)
		if err != nil {
			return err
		}
		invoice.InvoiceNumber = number
		_, err = r.collection().InsertOne(ctx, invoice)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert invoice for listing %s: %w", invoice.ListingID.Hex(), err)
	}
	return nil
}

func (r *invoiceRepository) Issue(ctx context.Context, id primitive.ObjectID, result *models.DiscountResult) (*models.Invoice, error) {
	now := time.Now().UTC()
	set := bson.M{
		"original_price":   result.OriginalPrice,
		"discount_amount":  result.DiscountAmount,
		"final_price":      result.FinalPrice,
		"discount_applied": result.DiscountApplied,
		"status":           models.InvoiceStatusIssued,
		"issued_at":        now,
		"updated_at":       now,
	}
	if result.DiscountSource != models.DiscountSourceNone {
		set["discount_source"] = result.DiscountSource
	}
	if result.UserReferralID != nil {
		set["user_referral_id"] = *result.UserReferralID
	}

	filter := bson.M{"_id": id, "status": models.InvoiceStatusPending}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var invoice models.Invoice
	err := r.collection().FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&invoice)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to issue invoice %s: %w", id.Hex(), err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	filter := bson.M{"_id": id, "status": models.InvoiceStatusPending}
	update := bson.M{"$set": bson.M{
		"status":         models.InvoiceStatusFailed,
		"failure_reason": reason,
		"updated_at":     time.Now().UTC(),
	}}
	result, err := r.collection().UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark invoice %s failed: %w", id.Hex(), err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *invoiceRepository) FindByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection().Find(ctx, bson.M{"customer_id": customerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices for customer %s: %w", customerID.Hex(), err)
	}
	defer cursor.Close(ctx)

	invoices := []models.Invoice{}
	if err := cursor.All(ctx, &invoices); err != nil {
		return nil, fmt.Errorf("failed to decode invoices: %w", err)
	}
	return invoices, nil
}
