package domain

import (
	"github.com/shopspring/decimal"
)

// ProductDetails is the read-only product record behind the hover tooltip.
// Price and CarbonFootprint are optional; the shop server may omit either.
type ProductDetails struct {
	ID              int64               `json:"id"`
	Name            string              `json:"name"`
	Description     string              `json:"description"`
	Price           decimal.NullDecimal `json:"price"`
	CarbonFootprint decimal.NullDecimal `json:"carbon_footprint"`
	Image           string              `json:"image,omitempty"`
}
