package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
)

var ErrInvalidProfile = errors.New("invalid customer profile")

// ICustomerService manages the profile of the authenticated customer. The
// customer id comes from the JWT; the first profile update creates the record
// that listings and referrals require.
type ICustomerService interface {
	GetProfile(ctx context.Context, customerID primitive.ObjectID) (*models.Customer, error)
	UpdateProfile(ctx context.Context, customerID primitive.ObjectID, name, email string) (*models.Customer, error)
}

type customerService struct {
	customers repositories.ICustomerRepository
}

func NewCustomerService(customers repositories.ICustomerRepository) ICustomerService {
	return &customerService{customers: customers}
}

func (s *customerService) GetProfile(ctx context.Context, customerID primitive.ObjectID) (*models.Customer, error) {
	return s.customers.FindByID(ctx, customerID)
}

func (s *customerService) UpdateProfile(ctx context.Context, customerID primitive.ObjectID, name, email string) (*models.Customer, error) {
	if customerID.IsZero() {
		return nil, fmt.Errorf("%w: customer id is required", ErrInvalidProfile)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}

	customer, err := s.customers.Upsert(ctx, &models.Customer{
		Base:  models.Base{ID: customerID},
		Name:  name,
		Email: strings.ToLower(strings.TrimSpace(email)),
	})
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("customer profile saved", "customer_id", customerID.Hex())
	return customer, nil
}
