package services

import (
	"context"
	"fmt"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/models"
)

// --- Mocks ---

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByHarmfulFlag(ctx context.Context, harmful bool) ([]models.Listing, error) {
	args := m.Called(ctx, harmful)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) FindOlderThan(ctx context.Context, cutoff time.Time) ([]models.Listing, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) MarkAsHarmful(ctx context.Context, id primitive.ObjectID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockListingRepository) SetApprovalStatus(ctx context.Context, id primitive.ObjectID, status models.ApprovalStatus) (*models.Listing, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Upsert(ctx context.Context, customer *models.Customer) (*models.Customer, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) Create(ctx context.Context, invoice *models.Invoice) error {
	args := m.Called(ctx, invoice)
	if args.Error(0) == nil {
		invoice.GenIDIfEmpty()
		invoice.InvoiceNumber = "INV-TEST"
		invoice.Status = models.InvoiceStatusPending
	}
	return args.Error(0)
}

func (m *MockInvoiceRepository) Issue(ctx context.Context, id primitive.ObjectID, result *models.DiscountResult) (*models.Invoice, error) {
	args := m.Called(ctx, id, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *MockInvoiceRepository) FindByCustomer(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}

type MockReferralRepository struct {
	mock.Mock
}

func (m *MockReferralRepository) FindByCode(ctx context.Context, code string) (*models.Referral, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

func (m *MockReferralRepository) FindByReferrer(ctx context.Context, referrerID primitive.ObjectID) (*models.Referral, error) {
	args := m.Called(ctx, referrerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

func (m *MockReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	args := m.Called(ctx, referral)
	return args.Error(0)
}

func (m *MockReferralRepository) IncrementUsage(ctx context.Context, id primitive.ObjectID) (*models.Referral, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

func (m *MockReferralRepository) DecrementUsage(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReferralRepository) CreateUserReferral(ctx context.Context, ur *models.UserReferral) error {
	args := m.Called(ctx, ur)
	return args.Error(0)
}

func (m *MockReferralRepository) UpdateUserReferralStatus(ctx context.Context, id primitive.ObjectID, from []models.ReferralStatus, to models.ReferralStatus) (*models.UserReferral, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserReferral), args.Error(1)
}

func (m *MockReferralRepository) FindUserReferralByReferred(ctx context.Context, referredID primitive.ObjectID) (*models.UserReferral, error) {
	args := m.Called(ctx, referredID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserReferral), args.Error(1)
}

func (m *MockReferralRepository) FindUserReferralsByReferrer(ctx context.Context, referrerID primitive.ObjectID, statuses ...models.ReferralStatus) ([]models.UserReferral, error) {
	args := m.Called(ctx, referrerID, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserReferral), args.Error(1)
}

func (m *MockReferralRepository) MarkReferredDiscountUsed(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReferralRepository) MarkReferrerDiscountUsed(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReferralService struct {
	mock.Mock
}

func (m *MockReferralService) Register(ctx context.Context, customerID primitive.ObjectID, code string) (*models.UserReferral, error) {
	args := m.Called(ctx, customerID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserReferral), args.Error(1)
}

func (m *MockReferralService) CompleteReferral(ctx context.Context, customerID primitive.ObjectID) (*models.UserReferral, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserReferral), args.Error(1)
}

func (m *MockReferralService) ApplyDiscount(ctx context.Context, listing *models.Listing, originalPrice float64) (*models.DiscountResult, error) {
	args := m.Called(ctx, listing, originalPrice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DiscountResult), args.Error(1)
}

func (m *MockReferralService) GetAvailableDiscounts(ctx context.Context, customerID primitive.ObjectID) ([]models.AvailableDiscount, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AvailableDiscount), args.Error(1)
}

func (m *MockReferralService) GetReferralStats(ctx context.Context, customerID primitive.ObjectID) (*models.ReferralStats, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReferralStats), args.Error(1)
}

func (m *MockReferralService) GetOrCreateReferral(ctx context.Context, customerID primitive.ObjectID) (*models.Referral, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Referral), args.Error(1)
}

// fakeConfigService serves fixed values and falls back to the caller's default.
type fakeConfigService struct {
	values map[string]interface{}
}

func newFakeConfigService(values map[string]interface{}) *fakeConfigService {
	if values == nil {
		values = map[string]interface{}{}
	}
	return &fakeConfigService{values: values}
}

func (f *fakeConfigService) GetAllPublic(ctx context.Context) (map[string]interface{}, error) {
	return f.values, nil
}

func (f *fakeConfigService) Get(ctx context.Context, key string) (interface{}, error) {
	if v, ok := f.values[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("config key '%s' not found", key)
}

func (f *fakeConfigService) GetInt(ctx context.Context, key string, defaultValue int) int {
	if v, ok := f.values[key].(int); ok {
		return v
	}
	return defaultValue
}

func (f *fakeConfigService) GetFloat64(ctx context.Context, key string, defaultValue float64) float64 {
	if v, ok := f.values[key].(float64); ok {
		return v
	}
	return defaultValue
}

func (f *fakeConfigService) GetStringSlice(ctx context.Context, key string, defaultValue []string) []string {
	if v, ok := f.values[key].([]string); ok {
		return v
	}
	return defaultValue
}

func (f *fakeConfigService) Load(ctx context.Context) error { return nil }

func (f *fakeConfigService) SubscribeToChanges(ctx context.Context) error { return nil }

func (f *fakeConfigService) SetConfigValue(ctx context.Context, key string, value interface{}, isPublic bool) error {
	f.values[key] = value
	return nil
}
