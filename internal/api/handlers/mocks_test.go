package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/tasks"
)

// --- Mocks ---

// MockConfigService implements services.IConfigService
type MockConfigService struct {
	mock.Mock
}

func (m *MockConfigService) GetAllPublic(ctx context.Context) (map[string]interface{}, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]interface{}), args.Error(1)
}
func (m *MockConfigService) Get(ctx context.Context, key string) (interface{}, error) {
	args := m.Called(ctx, key)
	return args.Get(0), args.Error(1)
}
func (m *MockConfigService) GetInt(ctx context.Context, key string, defaultValue int) int {
	return defaultValue
}
func (m *MockConfigService) GetFloat64(ctx context.Context, key string, defaultValue float64) float64 {
	return defaultValue
}
func (m *MockConfigService) GetStringSlice(ctx context.Context, key string, defaultValue []string) []string {
	return defaultValue
}
func (m *MockConfigService) Load(ctx context.Context) error { return nil }
func (m *MockConfigService) SubscribeToChanges(ctx context.Context) error {
	return nil
}
func (m *MockConfigService) SetConfigValue(ctx context.Context, key string, value interface{}, isPublic bool) error {
	args := m.Called(ctx, key, value, isPublic)
	return args.Error(0)
}

// MockListingService implements services.IListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) CreateListing(ctx context.Context, customerID primitive.ObjectID, title, description string, listingType models.ListingType, price float64) (*models.Listing, error) {
	args := m.Called(ctx, customerID, title, description, listingType, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) Checkout(ctx context.Context, customerID, listingID primitive.ObjectID, price float64) (*models.Invoice, error) {
	args := m.Called(ctx, customerID, listingID, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}
func (m *MockListingService) FindInvoices(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invoice), args.Error(1)
}
func (m *MockListingService) SetApprovalStatus(ctx context.Context, listingID primitive.ObjectID, status models.ApprovalStatus) (*models.Listing, error) {
	args := m.Called(ctx, listingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

// MockReferralService implements services.IReferralService
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

// MockJobRunner implements handlers.IJobRunner
type MockJobRunner struct {
	mock.Mock
}

func (m *MockJobRunner) RunModeration(ctx context.Context, enforce bool) (*tasks.ModerationRun, error) {
	args := m.Called(ctx, enforce)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tasks.ModerationRun), args.Error(1)
}
func (m *MockJobRunner) RunCleanup(ctx context.Context, days int) (*tasks.CleanupRun, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tasks.CleanupRun), args.Error(1)
}

// MockReportStore implements storage.IReportStore
type MockReportStore struct {
	mock.Mock
}

func (m *MockReportStore) UploadReport(ctx context.Context, kind, runID string, report any) (string, error) {
	args := m.Called(ctx, kind, runID, report)
	return args.String(0), args.Error(1)
}
func (m *MockReportStore) PresignReportURL(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

// MockCustomerService implements services.ICustomerService
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) GetProfile(ctx context.Context, customerID primitive.ObjectID) (*models.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}
func (m *MockCustomerService) UpdateProfile(ctx context.Context, customerID primitive.ObjectID, name, email string) (*models.Customer, error) {
	args := m.Called(ctx, customerID, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}
