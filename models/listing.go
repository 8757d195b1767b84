package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Listing struct {
	gorm.Model

	OrganizationID uint         `gorm:"column:organization_id;index" json:"organization_id"`
	Organization   Organization `gorm:"foreignKey:OrganizationID;references:ID" json:"organization,omitempty"`

	Title        string `gorm:"column:title;size:255" json:"title"`
	Make         string `gorm:"column:make;size:100" json:"make,omitempty"`
	VehicleModel string `gorm:"column:vehicle_model;size:100" json:"vehicleModel,omitempty"`
	Year         int    `gorm:"column:year" json:"year,omitempty"`

	Status string `gorm:"column:status;size:32;default:'active'" json:"status"`

	// Rate tiers. Week and month rates are optional; pricing picks the best
	// matching tier for the booked duration.
	Currency      string   `gorm:"column:currency;size:3;default:'AED'" json:"currency"`
	PricePerDay   float64  `gorm:"column:price_per_day" json:"pricePerDay"`
	PricePerWeek  *float64 `gorm:"column:price_per_week" json:"pricePerWeek,omitempty"`
	PricePerMonth *float64 `gorm:"column:price_per_month" json:"pricePerMonth,omitempty"`

	SecurityDeposit float64 `gorm:"column:security_deposit" json:"securityDeposit"`
	InstantBook     bool    `gorm:"column:instant_book;default:false" json:"instantBook"`

	Timezone  string  `gorm:"column:timezone;size:64;default:'Asia/Dubai'" json:"timezone"`
	Latitude  float64 `gorm:"column:latitude" json:"latitude"`
	Longitude float64 `gorm:"column:longitude" json:"longitude"`

	DeliveryAvailable    bool     `gorm:"column:delivery_available;default:false" json:"deliveryAvailable"`
	DeliveryBaseFee      float64  `gorm:"column:delivery_base_fee" json:"deliveryBaseFee"`
	DeliveryPerKmFee     float64  `gorm:"column:delivery_per_km_fee" json:"deliveryPerKmFee"`
	DeliveryFreeRadiusKm *float64 `gorm:"column:delivery_free_radius_km" json:"deliveryFreeRadiusKm,omitempty"`

	Features datatypes.JSON `gorm:"column:features" json:"features,omitempty"`

	Addons []Addon `gorm:"foreignKey:ListingID" json:"addons,omitempty"`
}

// Addon is a listing extra (child seat, additional driver, ...). PerDay addons
// are priced per booked day, the rest are flat per booking.
type Addon struct {
	gorm.Model

	ListingID uint    `gorm:"column:listing_id;index" json:"listing_id"`
	Name      string  `gorm:"column:name;size:100" json:"name"`
	Price     float64 `gorm:"column:price" json:"price"`
	PerDay    bool    `gorm:"column:per_day;default:false" json:"perDay"`
}
