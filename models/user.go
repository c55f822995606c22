package models

import "time"

// User is a customer or restaurant owner, keyed internally by a uuid and
// externally by the identity provider subject.
type User struct {
	ID           string    `bson:"_id" json:"_id"`
	Auth0ID      string    `bson:"auth0Id" json:"auth0Id"`
	Email        string    `bson:"email" json:"email"`
	Name         string    `bson:"name,omitempty" json:"name,omitempty"`
	AddressLine1 string    `bson:"addressLine1,omitempty" json:"addressLine1,omitempty"`
	City         string    `bson:"city,omitempty" json:"city,omitempty"`
	Country      string    `bson:"country,omitempty" json:"country,omitempty"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CreateUserRequest is sent by the frontend after the first sign-in.
type CreateUserRequest struct {
	Auth0ID string `json:"auth0Id" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
}

type UpdateUserRequest struct {
	Name         string `json:"name" binding:"required"`
	AddressLine1 string `json:"addressLine1" binding:"required"`
	City         string `json:"city" binding:"required"`
	Country      string `json:"country" binding:"required"`
}
