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

	"github.com/zainiii163/tearence-backend-sub004/internal/models"
)

const CustomersCollection = "customers"

type ICustomerRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error)
	// Upsert sets the profile fields of the customer with customer.ID, creating
	// the document on first use, and returns the stored customer.
	Upsert(ctx context.Context, customer *models.Customer) (*models.Customer, error)
}

type customerRepository struct {
	db *mongo.Database
}

func NewCustomerRepository(database *mongo.Database) ICustomerRepository {
	return &customerRepository{db: database}
}

func (r *customerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Collection(CustomersCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&customer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding customer %s: %w", id.Hex(), err)
	}
	return &customer, nil
}

func (r *customerRepository) Upsert(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	now := time.Now().UTC()
	filter := bson.M{"_id": customer.ID}
	update := bson.M{
		"$set": bson.M{
			"name":       customer.Name,
			"email":      customer.Email,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Customer
	if err := r.db.Collection(CustomersCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return nil, fmt.Errorf("failed to upsert customer %s: %w", customer.ID.Hex(), err)
	}
	return &stored, nil
}
