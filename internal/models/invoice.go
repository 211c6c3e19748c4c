package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusIssued  InvoiceStatus = "issued"
	InvoiceStatusFailed  InvoiceStatus = "failed"
)

// Invoice records one listing checkout and the referral discount it consumed.
// It is written pending before any discount is taken, so a consumed discount
// always has a record pointing at it.
type Invoice struct {
	Base            `bson:",inline"`
	InvoiceNumber   string              `bson:"invoice_number" json:"invoice_number"`
	CustomerID      primitive.ObjectID  `bson:"customer_id" json:"customer_id"`
	ListingID       primitive.ObjectID  `bson:"listing_id" json:"listing_id"`
	ListingTitle    string              `bson:"listing_title" json:"listing_title"` // Denormalized for display
	OriginalPrice   float64             `bson:"original_price" json:"original_price"`
	DiscountAmount  float64             `bson:"discount_amount" json:"discount_amount"`
	FinalPrice      float64             `bson:"final_price" json:"final_price"`
	DiscountApplied bool                `bson:"discount_applied" json:"discount_applied"`
	DiscountSource  DiscountSource      `bson:"discount_source,omitempty" json:"discount_source,omitempty"`
	UserReferralID  *primitive.ObjectID `bson:"user_referral_id,omitempty" json:"user_referral_id,omitempty"`
	Status          InvoiceStatus       `bson:"status" json:"status"`
	FailureReason   string              `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	IssuedAt        *time.Time          `bson:"issued_at,omitempty" json:"issued_at,omitempty"`
	CreatedAt       time.Time           `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `bson:"updated_at" json:"updated_at"`
}
