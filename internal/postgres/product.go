// Package postgres holds the PostgreSQL-backed stores.
package postgres

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/airkicks/internal/domain"
)

// ProductStore reads product details from the catalogue replica.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore creates a product store on pool.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productDetailsQuery = `
SELECT id, name, COALESCE(description, ''), price::text, carbon_footprint::text, COALESCE(image, '')
FROM products
WHERE id = $1`

// ProductDetails returns the record behind a product's hover tooltip.
func (s *ProductStore) ProductDetails(ctx context.Context, productID int64) (*domain.ProductDetails, error) {
	const op = "product.details"

	var (
		p             domain.ProductDetails
		price, carbon *string
	)
	err := s.pool.QueryRow(ctx, productDetailsQuery, productID).Scan(
		&p.ID, &p.Name, &p.Description, &price, &carbon, &p.Image,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "product", strconv.FormatInt(productID, 10))
		}
		return nil, domain.Unavailable(err, op, "failed to load product details")
	}

	if p.Price, err = nullDecimal(price); err != nil {
		return nil, domain.Internal(err, op, "invalid product price")
	}
	if p.CarbonFootprint, err = nullDecimal(carbon); err != nil {
		return nil, domain.Internal(err, op, "invalid carbon footprint")
	}
	return &p, nil
}

// nullDecimal converts a NUMERIC scanned as text.
func nullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
