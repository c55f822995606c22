package models

import "time"

type Restaurant struct {
	ID                    string    `bson:"_id" json:"_id"`
	UserID                string    `bson:"user" json:"user"`
	Name                  string    `bson:"name" json:"name"`
	City                  string    `bson:"city" json:"city"`
	Country               string    `bson:"country" json:"country"`
	Description           string    `bson:"description,omitempty" json:"description,omitempty"`
	DeliveryPrice         int64     `bson:"deliveryPrice" json:"deliveryPrice"`
	EstimatedDeliveryTime int       `bson:"estimatedDeliveryTime" json:"estimatedDeliveryTime"`
	Cuisines              []string  `bson:"cuisines" json:"cuisines"`
	ImageURL              string    `bson:"imageUrl" json:"imageUrl"`
	PublicID              string    `bson:"publicId,omitempty" json:"publicId,omitempty"`
	CreatedAt             time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasImage reports whether a hosted image is attached. Both references are
// always set and cleared together.
func (r *Restaurant) HasImage() bool {
	return r.PublicID != "" && r.ImageURL != ""
}

// MenuItem belongs to exactly one restaurant.
type MenuItem struct {
	ID           string `bson:"_id" json:"_id"`
	RestaurantID string `bson:"restaurantId" json:"restaurantId"`
	Name         string `bson:"name" json:"name"`
	Price        int64  `bson:"price" json:"price"`
}

// RestaurantWithMenu is the shape returned by the restaurant detail endpoints.
type RestaurantWithMenu struct {
	Restaurant *Restaurant `json:"restaurant"`
	MenuItems  []MenuItem  `json:"menuItems"`
}

// RestaurantInput carries the editable restaurant fields. Numeric fields are
// pointers so that a missing value is distinguishable from zero.
type RestaurantInput struct {
	Name                  string          `json:"name" form:"name" binding:"required"`
	City                  string          `json:"city" form:"city" binding:"required"`
	Country               string          `json:"country" form:"country" binding:"required"`
	Description           string          `json:"description" form:"description"`
	DeliveryPrice         *int64          `json:"deliveryPrice" form:"deliveryPrice" binding:"required,gte=0"`
	EstimatedDeliveryTime *int            `json:"estimatedDeliveryTime" form:"estimatedDeliveryTime" binding:"required,gte=0"`
	Cuisines              []string        `json:"cuisines" form:"cuisines" binding:"required,min=1,dive,required"`
	MenuItems             []MenuItemInput `json:"menuItems" form:"-" binding:"dive"`
}

type MenuItemInput struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name" binding:"required"`
	Price *int64 `json:"price" binding:"required,gte=0"`
}

// ImageUpload is an image received with a create or update request.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// SearchParams are the public search filters.
type SearchParams struct {
	City             string
	SearchQuery      string
	SelectedCuisines []string
	SortOption       string
	Page             int
}

type Pagination struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

type SearchResult struct {
	Data       []Restaurant `json:"data"`
	Pagination Pagination   `json:"pagination"`
}
