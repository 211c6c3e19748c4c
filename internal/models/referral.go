package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ReferralStatus string

const (
	ReferralStatusPending    ReferralStatus = "pending"
	ReferralStatusRegistered ReferralStatus = "registered"
	ReferralStatusCompleted  ReferralStatus = "completed"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Referral is a shareable code owned by a referrer customer.
type Referral struct {
	Base         `bson:",inline"`
	ReferralCode string             `bson:"referral_code" json:"referral_code"`
	ReferrerID   primitive.ObjectID `bson:"referrer_id" json:"referrer_id"`
	CurrentUses  int                `bson:"current_uses" json:"current_uses"`
	MaxUses      *int               `bson:"max_uses,omitempty" json:"max_uses,omitempty"` // nil = unlimited
	ExpiresAt    *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// IsValid reports whether the code can still be redeemed at now.
func (r *Referral) IsValid(now time.Time) bool {
	if r == nil || !r.IsActive {
		return false
	}
	if r.ExpiresAt != nil && !now.Before(*r.ExpiresAt) {
		return false
	}
	if r.MaxUses != nil && r.CurrentUses >= *r.MaxUses {
		return false
	}
	return true
}

// UserReferral records one customer redeeming another customer's code.
// Each discount flag flips false -> true once and is never reset.
type UserReferral struct {
	Base                   `bson:",inline"`
	ReferralID             primitive.ObjectID `bson:"referral_id" json:"referral_id"`
	ReferrerID             primitive.ObjectID `bson:"referrer_id" json:"referrer_id"`
	ReferredID             primitive.ObjectID `bson:"referred_id" json:"referred_id"`
	Status                 ReferralStatus     `bson:"status" json:"status"`
	ReferredDiscount       float64            `bson:"referred_discount" json:"referred_discount"`
	ReferredDiscountType   DiscountType       `bson:"referred_discount_type" json:"referred_discount_type"`
	ReferredDiscountUsed   bool               `bson:"referred_discount_used" json:"referred_discount_used"`
	ReferredDiscountUsedAt *time.Time         `bson:"referred_discount_used_at,omitempty" json:"referred_discount_used_at,omitempty"`
	ReferrerDiscount       float64            `bson:"referrer_discount" json:"referrer_discount"`
	ReferrerDiscountType   DiscountType       `bson:"referrer_discount_type" json:"referrer_discount_type"`
	ReferrerDiscountUsed   bool               `bson:"referrer_discount_used" json:"referrer_discount_used"`
	ReferrerDiscountUsedAt *time.Time         `bson:"referrer_discount_used_at,omitempty" json:"referrer_discount_used_at,omitempty"`
	RegisteredAt           *time.Time         `bson:"registered_at,omitempty" json:"registered_at,omitempty"`
	CompletedAt            *time.Time         `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
	CreatedAt              time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at" json:"updated_at"`
}
