package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// DiscountSource identifies which one-time referral discount was applied.
type DiscountSource string

const (
	DiscountSourceNone            DiscountSource = ""
	DiscountSourceWelcomeReferral DiscountSource = "welcome_referral"
	DiscountSourceReferrerReward  DiscountSource = "referrer_reward"
)

// DiscountResult is the outcome of pricing a listing purchase.
type DiscountResult struct {
	OriginalPrice   float64        `json:"original_price"`
	DiscountAmount  float64        `json:"discount_amount"`
	FinalPrice      float64        `json:"final_price"`
	DiscountApplied bool           `json:"discount_applied"`
	DiscountSource  DiscountSource `json:"discount_source,omitempty"`
	// UserReferralID is the user referral whose discount was consumed.
	UserReferralID *primitive.ObjectID `json:"user_referral_id,omitempty"`
}

// AvailableDiscount is an unused one-time discount a customer can still redeem.
type AvailableDiscount struct {
	UserReferralID primitive.ObjectID `json:"user_referral_id"`
	Source         DiscountSource     `json:"source"`
	Type           DiscountType       `json:"type"`
	Amount         float64            `json:"amount"`
}

// ReferralStats summarises a customer's referral activity.
type ReferralStats struct {
	ReferralCode       string `json:"referral_code,omitempty"`
	CurrentUses        int    `json:"current_uses"`
	MaxUses            *int   `json:"max_uses,omitempty"`
	TotalReferrals     int    `json:"total_referrals"`
	PendingReferrals   int    `json:"pending_referrals"`
	CompletedReferrals int    `json:"completed_referrals"`
	AvailableRewards   int    `json:"available_rewards"`
	UsedRewards        int    `json:"used_rewards"`
	WasReferred        bool   `json:"was_referred"`
}
