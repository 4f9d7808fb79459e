package model

import "time"

// RateKind selects how a product is billed.
type RateKind string

const (
	RateHourly RateKind = "hourly"
	RateDaily  RateKind = "daily"
)

// RateBasis is the single price a product is billed on. It is fixed when the
// product is defined, so a product can never carry two competing rates.
type RateBasis struct {
	Kind RateKind `json:"kind" bson:"kind" validate:"required,oneof=hourly daily"`
	Rate Money    `json:"rate" bson:"rate" validate:"positive_money"`
}

func HourlyRate(rate Money) RateBasis {
	return RateBasis{Kind: RateHourly, Rate: rate}
}

func DailyRate(rate Money) RateBasis {
	return RateBasis{Kind: RateDaily, Rate: rate}
}

type Product struct {
	ID          string    `json:"id" bson:"_id" validate:"required,uuid"`
	Name        string    `json:"name" bson:"name" validate:"required,min=2,max=200"`
	Description string    `json:"description,omitempty" bson:"description,omitempty" validate:"max=4000"`
	SKU         string    `json:"sku,omitempty" bson:"sku,omitempty" validate:"max=64"`
	ImageURL    string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	Category    string    `json:"category,omitempty" bson:"category,omitempty" validate:"max=100"`
	Rate        RateBasis `json:"rate_basis" bson:"rate_basis"`
	MinHours    *int64    `json:"min_hours,omitempty" bson:"min_hours,omitempty" validate:"omitempty,min=1"`
	MaxHours    *int64    `json:"max_hours,omitempty" bson:"max_hours,omitempty" validate:"omitempty,min=1"`
	Published   bool      `json:"published" bson:"published"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// ProductCreate is the administrative payload for defining a product.
// Exactly one of HourlyRate and DailyRate must be set.
type ProductCreate struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description,omitempty" validate:"max=4000"`
	SKU         string `json:"sku,omitempty" validate:"max=64"`
	ImageURL    string `json:"image_url,omitempty" validate:"omitempty,url"`
	Category    string `json:"category,omitempty" validate:"max=100"`
	HourlyRate  *Money `json:"hourly_rate,omitempty"`
	DailyRate   *Money `json:"daily_rate,omitempty"`
	MinHours    *int64 `json:"min_hours,omitempty" validate:"omitempty,min=1"`
	MaxHours    *int64 `json:"max_hours,omitempty" validate:"omitempty,min=1"`
	Published   bool   `json:"published"`
}

// ProductUpdate edits a product in place. Giving a rate moves the product to
// that rate basis, so at most one of HourlyRate and DailyRate may be set.
type ProductUpdate struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4000"`
	SKU         *string `json:"sku,omitempty" validate:"omitempty,max=64"`
	ImageURL    *string `json:"image_url,omitempty" validate:"omitempty,url"`
	Category    *string `json:"category,omitempty" validate:"omitempty,max=100"`
	HourlyRate  *Money  `json:"hourly_rate,omitempty"`
	DailyRate   *Money  `json:"daily_rate,omitempty"`
	MinHours    *int64  `json:"min_hours,omitempty" validate:"omitempty,min=1"`
	MaxHours    *int64  `json:"max_hours,omitempty" validate:"omitempty,min=1"`
	Published   *bool   `json:"published,omitempty"`
}

func (u *ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.SKU == nil && u.ImageURL == nil &&
		u.Category == nil && u.HourlyRate == nil && u.DailyRate == nil &&
		u.MinHours == nil && u.MaxHours == nil && u.Published == nil
}

type ProductFilter struct {
	PublishedOnly bool
	InStockOnly   bool
	Category      string
}
