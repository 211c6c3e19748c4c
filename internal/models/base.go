package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base is embedded inline by every stored document.
type Base struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
}

// GenIDIfEmpty assigns a fresh ObjectID unless one is already set.
func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.GenID()
	}
}

// GenID always assigns a fresh ObjectID. Used when retrying an insert after a key collision.
func (m *Base) GenID() {
	m.ID = primitive.NewObjectID()
}

func NewBase() Base {
	return Base{ID: primitive.NewObjectID()}
}
