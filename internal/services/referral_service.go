package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zainiii163/tearence-backend-sub004/internal/db"
	"github.com/zainiii163/tearence-backend-sub004/internal/logger"
	"github.com/zainiii163/tearence-backend-sub004/internal/models"
	"github.com/zainiii163/tearence-backend-sub004/internal/repositories"
	"github.com/zainiii163/tearence-backend-sub004/internal/utils"
)

const (
	DefaultReferredDiscountPercent = 20.0
	DefaultReferrerDiscountPercent = 10.0
)

var ErrInvalidPrice = errors.New("price must not be negative")

// IReferralService runs the referral discount engine. Ineligible requests
// yield nil results; errors are reserved for datastore failures.
type IReferralService interface {
	// Register redeems code for customerID. It returns nil when the customer
	// has no profile yet, and when the code is missing, unknown, invalid, the
	// customer's own, or the customer was already referred.
	Register(ctx context.Context, customerID primitive.ObjectID, code string) (*models.UserReferral, error)
	// CompleteReferral marks the customer's open referral completed, unlocking the referrer reward.
	CompleteReferral(ctx context.Context, customerID primitive.ObjectID) (*models.UserReferral, error)
	// ApplyDiscount prices a purchase for the listing owner and consumes at most one discount.
	ApplyDiscount(ctx context.Context, listing *models.Listing, originalPrice float64) (*models.DiscountResult, error)
	GetAvailableDiscounts(ctx context.Context, customerID primitive.ObjectID) ([]models.AvailableDiscount, error)
	GetReferralStats(ctx context.Context, customerID primitive.ObjectID) (*models.ReferralStats, error)
	// GetOrCreateReferral returns the customer's shareable code, issuing one on first use.
	GetOrCreateReferral(ctx context.Context, customerID primitive.ObjectID) (*models.Referral, error)
}

type referralService struct {
	referrals     repositories.IReferralRepository
	customers     repositories.ICustomerRepository
	configService IConfigService
	codeLength    int
	now           func() time.Time
}

func NewReferralService(referrals repositories.IReferralRepository, customers repositories.ICustomerRepository, configService IConfigService, codeLength int) IReferralService {
	if codeLength <= 0 {
		codeLength = 8
	}
	return &referralService{
		referrals:     referrals,
		customers:     customers,
		configService: configService,
		codeLength:    codeLength,
		now:           time.Now,
	}
}

func (s *referralService) Register(ctx context.Context, customerID primitive.ObjectID, code string) (*models.UserReferral, error) {
	log := logger.FromContext(ctx).With("customer_id", customerID.Hex())

	code = utils.CanonicalReferralCode(code)
	if code == "" {
		return nil, nil
	}

	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Info("referral ignored: unknown customer")
			return nil, nil
		}
		return nil, err
	}

	referral, err := s.findReferralByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Info("referral ignored: unknown code", "code", code)
			return nil, nil
		}
		return nil, err
	}
	if !referral.IsValid(s.now()) {
		log.Info("referral ignored: code no longer valid", "code", code)
		return nil, nil
	}
	if referral.ReferrerID == customerID {
		log.Info("referral ignored: self-referral", "code", code)
		return nil, nil
	}

	existing, err := s.referrals.FindUserReferralByReferred(ctx, customerID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		log.Info("referral ignored: customer already referred", "code", code)
		return nil, nil
	}

	if _, err := s.referrals.IncrementUsage(ctx, referral.ID); err != nil {
		if errors.Is(err, repositories.ErrReferralExhausted) {
			log.Info("referral ignored: code exhausted concurrently", "code", code)
			return nil, nil
		}
		return nil, err
	}

	ur := &models.UserReferral{
		ReferralID:           referral.ID,
		ReferrerID:           referral.ReferrerID,
		ReferredID:           customerID,
		Status:               models.ReferralStatusPending,
		ReferredDiscount:     s.configService.GetFloat64(ctx, ConfigKeyReferredDiscountPercent, DefaultReferredDiscountPercent),
		ReferredDiscountType: models.DiscountTypePercentage,
		ReferrerDiscount:     s.configService.GetFloat64(ctx, ConfigKeyReferrerDiscountPercent, DefaultReferrerDiscountPercent),
		ReferrerDiscountType: models.DiscountTypePercentage,
	}
	if err := s.referrals.CreateUserReferral(ctx, ur); err != nil {
		// Best-effort rollback of the usage taken above.
		if decErr := s.referrals.DecrementUsage(ctx, referral.ID); decErr != nil {
			log.Error("failed to revert referral usage", "referral_id", referral.ID.Hex(), "error", decErr)
		}
		if errors.Is(err, repositories.ErrAlreadyReferred) {
			log.Info("referral ignored: customer already referred", "code", code)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create user referral: %w", err)
	}

	// The record exists and the use is counted from here on; a failed status
	// change leaves it pending, which CompleteReferral still accepts.
	registered, err := s.referrals.UpdateUserReferralStatus(ctx, ur.ID,
		[]models.ReferralStatus{models.ReferralStatusPending}, models.ReferralStatusRegistered)
	if err != nil {
		return nil, fmt.Errorf("failed to mark user referral %s registered: %w", ur.ID.Hex(), err)
	}

	log.Info("referral registered", "code", code, "referrer_id", referral.ReferrerID.Hex())
	return registered, nil
}

func (s *referralService) CompleteReferral(ctx context.Context, customerID primitive.ObjectID) (*models.UserReferral, error) {
	ur, err := s.referrals.FindUserReferralByReferred(ctx, customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if ur.Status == models.ReferralStatusCompleted {
		return nil, nil
	}

	completed, err := s.referrals.UpdateUserReferralStatus(ctx, ur.ID,
		[]models.ReferralStatus{models.ReferralStatusPending, models.ReferralStatusRegistered}, models.ReferralStatusCompleted)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	logger.FromContext(ctx).Info("referral completed",
		"customer_id", customerID.Hex(), "referrer_id", completed.ReferrerID.Hex())
	return completed, nil
}

// findReferralByCode matches the code as typed first, then with confusable
// letters folded for generated codes read back by hand.
func (s *referralService) findReferralByCode(ctx context.Context, code string) (*models.Referral, error) {
	referral, err := s.referrals.FindByCode(ctx, code)
	if err == nil || !errors.Is(err, repositories.ErrNotFound) {
		return referral, err
	}
	folded := utils.NormalizeReferralCode(code)
	if folded == code {
		return nil, err
	}
	return s.referrals.FindByCode(ctx, folded)
}

func (s *referralService) ApplyDiscount(ctx context.Context, listing *models.Listing, originalPrice float64) (*models.DiscountResult, error) {
	if originalPrice < 0 {
		return nil, ErrInvalidPrice
	}
	price := decimal.NewFromFloat(originalPrice)
	customerID := listing.CustomerID

	// Welcome discount for the referred customer.
	ur, err := s.referrals.FindUserReferralByReferred(ctx, customerID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if ur != nil && !ur.ReferredDiscountUsed {
		amount := computeDiscount(ur.ReferredDiscountType, ur.ReferredDiscount, price)
		if amount.IsPositive() {
			err := s.referrals.MarkReferredDiscountUsed(ctx, ur.ID)
			if err == nil {
				return discountResult(price, amount, models.DiscountSourceWelcomeReferral, &ur.ID), nil
			}
			if !errors.Is(err, repositories.ErrDiscountAlreadyUsed) {
				return nil, err
			}
		}
	}

	// Referrer rewards from completed referrals, oldest first.
	completed, err := s.referrals.FindUserReferralsByReferrer(ctx, customerID, models.ReferralStatusCompleted)
	if err != nil {
		return nil, err
	}
	for _, reward := range completed {
		if reward.ReferrerDiscountUsed {
			continue
		}
		amount := computeDiscount(reward.ReferrerDiscountType, reward.ReferrerDiscount, price)
		if !amount.IsPositive() {
			continue
		}
		err := s.referrals.MarkReferrerDiscountUsed(ctx, reward.ID)
		if err == nil {
			return discountResult(price, amount, models.DiscountSourceReferrerReward, &reward.ID), nil
		}
		if !errors.Is(err, repositories.ErrDiscountAlreadyUsed) {
			return nil, err
		}
	}

	return discountResult(price, decimal.Zero, models.DiscountSourceNone, nil), nil
}

// computeDiscount returns the discount for price, rounded to cents and never above price.
func computeDiscount(discountType models.DiscountType, value float64, price decimal.Decimal) decimal.Decimal {
	v := decimal.NewFromFloat(value)
	if !v.IsPositive() || !price.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch discountType {
	case models.DiscountTypePercentage:
		amount = price.Mul(v).Div(decimal.NewFromInt(100)).Round(2)
	case models.DiscountTypeFixed:
		amount = v
	default:
		return decimal.Zero
	}
	return decimal.Min(amount, price)
}

func discountResult(price, amount decimal.Decimal, source models.DiscountSource, userReferralID *primitive.ObjectID) *models.DiscountResult {
	return &models.DiscountResult{
		OriginalPrice:   price.InexactFloat64(),
		DiscountAmount:  amount.InexactFloat64(),
		FinalPrice:      price.Sub(amount).InexactFloat64(),
		DiscountApplied: amount.IsPositive(),
		DiscountSource:  source,
		UserReferralID:  userReferralID,
	}
}

func (s *referralService) GetAvailableDiscounts(ctx context.Context, customerID primitive.ObjectID) ([]models.AvailableDiscount, error) {
	discounts := []models.AvailableDiscount{}

	ur, err := s.referrals.FindUserReferralByReferred(ctx, customerID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if ur != nil && !ur.ReferredDiscountUsed {
		discounts = append(discounts, models.AvailableDiscount{
			UserReferralID: ur.ID,
			Source:         models.DiscountSourceWelcomeReferral,
			Type:           ur.ReferredDiscountType,
			Amount:         ur.ReferredDiscount,
		})
	}

	completed, err := s.referrals.FindUserReferralsByReferrer(ctx, customerID, models.ReferralStatusCompleted)
	if err != nil {
		return nil, err
	}
	for _, reward := range completed {
		if reward.ReferrerDiscountUsed {
			continue
		}
		discounts = append(discounts, models.AvailableDiscount{
			UserReferralID: reward.ID,
			Source:         models.DiscountSourceReferrerReward,
			Type:           reward.ReferrerDiscountType,
			Amount:         reward.ReferrerDiscount,
		})
	}
	return discounts, nil
}

func (s *referralService) GetReferralStats(ctx context.Context, customerID primitive.ObjectID) (*models.ReferralStats, error) {
	stats := &models.ReferralStats{}

	referral, err := s.referrals.FindByReferrer(ctx, customerID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if referral != nil {
		stats.ReferralCode = referral.ReferralCode
		stats.CurrentUses = referral.CurrentUses
		stats.MaxUses = referral.MaxUses
	}

	urs, err := s.referrals.FindUserReferralsByReferrer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	stats.TotalReferrals = len(urs)
	for _, ur := range urs {
		switch ur.Status {
		case models.ReferralStatusCompleted:
			stats.CompletedReferrals++
			if !ur.ReferrerDiscountUsed {
				stats.AvailableRewards++
			}
		default:
			stats.PendingReferrals++
		}
		if ur.ReferrerDiscountUsed {
			stats.UsedRewards++
		}
	}

	own, err := s.referrals.FindUserReferralByReferred(ctx, customerID)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	stats.WasReferred = own != nil
	return stats, nil
}

func (s *referralService) GetOrCreateReferral(ctx context.Context, customerID primitive.ObjectID) (*models.Referral, error) {
	referral, err := s.referrals.FindByReferrer(ctx, customerID)
	if err == nil {
		return referral, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		return nil, err
	}

	referral = &models.Referral{
		ReferrerID: customerID,
		IsActive:   true,
	}
	if maxUses := s.configService.GetInt(ctx, ConfigKeyReferralDefaultMaxUses, 0); maxUses > 0 {
		referral.MaxUses = &maxUses
	}

	err = db.Try(func() error {
		code, genErr := utils.NewReferralCode(s.codeLength)
		if genErr != nil {
			return genErr
		}
		referral.ReferralCode = code
		return s.referrals.Create(ctx, referral)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue referral code for customer %s: %w", customerID.Hex(), err)
	}

	logger.FromContext(ctx).Info("referral code issued", "customer_id", customerID.Hex(), "code", referral.ReferralCode)
	return referral, nil
}
