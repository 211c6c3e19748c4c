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

var (
	ErrInvalidListing        = errors.New("invalid listing")
	ErrInvalidApprovalStatus = errors.New("invalid approval status")
	ErrNotListingOwner       = errors.New("listing is not owned by this customer")
)

// IListingService defines the listing operations exposed over the API.
type IListingService interface {
	CreateListing(ctx context.Context, customerID primitive.ObjectID, title, description string, listingType models.ListingType, price float64) (*models.Listing, error)
	FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error)
	// Checkout prices a purchase of the customer's own listing, consuming a
	// referral discount if one applies, and returns the issued invoice.
	Checkout(ctx context.Context, customerID, listingID primitive.ObjectID, price float64) (*models.Invoice, error)
	FindInvoices(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error)
	SetApprovalStatus(ctx context.Context, listingID primitive.ObjectID, status models.ApprovalStatus) (*models.Listing, error)
}

type listingService struct {
	listings        repositories.IListingRepository
	customers       repositories.ICustomerRepository
	invoices        repositories.IInvoiceRepository
	referralService IReferralService
}

func NewListingService(listings repositories.IListingRepository, customers repositories.ICustomerRepository, invoices repositories.IInvoiceRepository, referralService IReferralService) IListingService {
	return &listingService{listings: listings, customers: customers, invoices: invoices, referralService: referralService}
}

// CreateListing stores a new active listing pending approval. Every creation
// completes the customer's open referral, if any; completed ones are left alone.
func (s *listingService) CreateListing(ctx context.Context, customerID primitive.ObjectID, title, description string, listingType models.ListingType, price float64) (*models.Listing, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidListing)
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	switch listingType {
	case "":
		listingType = models.ListingTypeAd
	case models.ListingTypeAd, models.ListingTypeJob, models.ListingTypeBook:
	default:
		return nil, fmt.Errorf("%w: unknown listing type %q", ErrInvalidListing, listingType)
	}

	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	listing := &models.Listing{
		CustomerID:     customerID,
		Title:          title,
		Description:    description,
		Type:           listingType,
		Price:          price,
		IsActive:       true,
		ApprovalStatus: models.ApprovalStatusPending,
	}
	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, err
	}

	if _, err := s.referralService.CompleteReferral(ctx, customerID); err != nil {
		logger.FromContext(ctx).Error("failed to complete referral", "customer_id", customerID.Hex(), "error", err)
	}
	return listing, nil
}

func (s *listingService) FindListingByID(ctx context.Context, listingID primitive.ObjectID) (*models.Listing, error) {
	return s.listings.FindByID(ctx, listingID)
}

// Checkout writes a pending invoice before the discount is consumed, so every
// consumed discount is traceable to a purchase even if issuing fails.
func (s *listingService) Checkout(ctx context.Context, customerID, listingID primitive.ObjectID, price float64) (*models.Invoice, error) {
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.CustomerID != customerID {
		return nil, ErrNotListingOwner
	}

	invoice := &models.Invoice{
		CustomerID:    customerID,
		ListingID:     listing.ID,
		ListingTitle:  listing.Title,
		OriginalPrice: price,
	}
	if err := s.invoices.Create(ctx, invoice); err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).With("invoice_id", invoice.ID.Hex(), "listing_id", listing.ID.Hex(), "customer_id", customerID.Hex())

	result, err := s.referralService.ApplyDiscount(ctx, listing, price)
	if err != nil {
		if markErr := s.invoices.MarkFailed(ctx, invoice.ID, err.Error()); markErr != nil {
			log.Error("failed to mark invoice failed", "error", markErr)
		}
		return nil, err
	}

	issued, err := s.invoices.Issue(ctx, invoice.ID, result)
	if err != nil {
		// The discount is spent; keep enough in the log to reconcile the pending invoice.
		userReferralID := ""
		if result.UserReferralID != nil {
			userReferralID = result.UserReferralID.Hex()
		}
		log.Error("failed to issue invoice after pricing",
			"final_price", result.FinalPrice, "discount_source", result.DiscountSource, "user_referral_id", userReferralID, "error", err)
		return nil, err
	}

	log.Info("invoice issued", "invoice_number", issued.InvoiceNumber, "final_price", issued.FinalPrice, "discount_source", issued.DiscountSource)
	return issued, nil
}

func (s *listingService) FindInvoices(ctx context.Context, customerID primitive.ObjectID) ([]models.Invoice, error) {
	return s.invoices.FindByCustomer(ctx, customerID)
}

func (s *listingService) SetApprovalStatus(ctx context.Context, listingID primitive.ObjectID, status models.ApprovalStatus) (*models.Listing, error) {
	if !status.Valid() {
		return nil, ErrInvalidApprovalStatus
	}
	listing, err := s.listings.SetApprovalStatus(ctx, listingID, status)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("listing approval status changed", "listing_id", listingID.Hex(), "status", status)
	return listing, nil
}
