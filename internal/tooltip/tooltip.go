// Package tooltip builds the short product excerpt shown when a shopper
// hovers over a product card.
package tooltip

import (
	"context"

	"github.com/dukerupert/airkicks/internal/domain"
)

// Text used when a value is missing.
const (
	DefaultTitle   = "Details"
	NoDescription  = "No description."
	NotAvailable   = "N/A"
	NoPrice        = "£" + NotAvailable
	Unavailable    = "Details unavailable."
	summaryLength  = 100
	summaryEllipse = "..."
)

// Source returns the product record a tooltip is built from. Implemented by
// the shop client and the postgres product store.
type Source interface {
	ProductDetails(ctx context.Context, productID int64) (*domain.ProductDetails, error)
}

// Tooltip is the rendered excerpt.
type Tooltip struct {
	ProductID int64  `json:"product_id"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Price     string `json:"price"`
	Carbon    string `json:"carbon"`
	Image     string `json:"image,omitempty"`
}

// Build renders the excerpt for p.
//
// The summary is the first 100 characters of the description, always
// followed by "...". A zero price or footprint counts as missing: the
// price reads £N/A and the footprint N/A.
func Build(p *domain.ProductDetails) Tooltip {
	if p == nil {
		return Tooltip{Title: DefaultTitle, Summary: NoDescription, Price: NoPrice, Carbon: NotAvailable}
	}

	t := Tooltip{
		ProductID: p.ID,
		Title:     p.Name,
		Summary:   NoDescription,
		Price:     NoPrice,
		Carbon:    NotAvailable,
		Image:     p.Image,
	}
	if t.Title == "" {
		t.Title = DefaultTitle
	}
	if p.Description != "" {
		t.Summary = truncate(p.Description, summaryLength) + summaryEllipse
	}
	if p.Price.Valid && !p.Price.Decimal.IsZero() {
		t.Price = "£" + p.Price.Decimal.StringFixed(2)
	}
	if p.CarbonFootprint.Valid && !p.CarbonFootprint.Decimal.IsZero() {
		t.Carbon = p.CarbonFootprint.Decimal.String() + "kg CO₂"
	}
	return t
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
