package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListingType distinguishes the classified sections.
type ListingType string

const (
	ListingTypeAd   ListingType = "ad"
	ListingTypeJob  ListingType = "job"
	ListingTypeBook ListingType = "book"
)

// ApprovalStatus is the admin approval state of a listing.
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "pending"
	ApprovalStatusApproved ApprovalStatus = "approved"
	ApprovalStatusRejected ApprovalStatus = "rejected"
)

// Valid reports whether s is one of the known approval states.
func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalStatusPending, ApprovalStatusApproved, ApprovalStatusRejected:
		return true
	}
	return false
}

// Listing represents a classified listing owned by a customer.
type Listing struct {
	Base           `bson:",inline"`
	CustomerID     primitive.ObjectID `bson:"customer_id" json:"customer_id"`
	Title          string             `bson:"title" json:"title"`
	Description    string             `bson:"description" json:"description"`
	Type           ListingType        `bson:"listing_type" json:"listing_type"`
	Price          float64            `bson:"price" json:"price"`
	IsActive       bool               `bson:"is_active" json:"is_active"`
	IsHarmful      bool               `bson:"is_harmful" json:"is_harmful"`
	HarmfulReason  string             `bson:"harmful_reason,omitempty" json:"harmful_reason,omitempty"`
	FlaggedAt      *time.Time         `bson:"flagged_at,omitempty" json:"flagged_at,omitempty"`
	ApprovalStatus ApprovalStatus     `bson:"approval_status" json:"approval_status"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}
