package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Address is a saved shipping address in the addresses collection.
type Address struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone" json:"phone"`
	Street1    string             `bson:"street1" json:"street1"`
	Street2    string             `bson:"street2,omitempty" json:"street2,omitempty"`
	City       string             `bson:"city" json:"city"`
	State      string             `bson:"state" json:"state"`
	PostalCode string             `bson:"postal_code" json:"postal_code"`
	Country    string             `bson:"country" json:"country"` // ISO 3166-1 alpha-2
	Default    bool               `bson:"default" json:"default"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// AddressRequest is the payload for creating or updating an address.
type AddressRequest struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required,min=10,max=15"`
	Street1    string `json:"street1" binding:"required"`
	Street2    string `json:"street2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required,len=2"`
	Default    bool   `json:"default"`
}
