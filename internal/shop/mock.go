package shop

import (
	"context"
	"net/url"

	"github.com/dukerupert/airkicks/internal/domain"
)

// MockClient is a Client for tests. Unset funcs return zero values.
type MockClient struct {
	ProductDetailsFunc func(ctx context.Context, productID int64) (*domain.ProductDetails, error)
	AddToCartFunc      func(ctx context.Context, sess *Session, productID int64) (*domain.CartOutcome, error)
	UpdateCartItemFunc func(ctx context.Context, sess *Session, itemID int64, action domain.CartAction) (*domain.CartOutcome, error)
	RemoveCartItemFunc func(ctx context.Context, sess *Session, itemID int64) (*domain.CartOutcome, error)
	SubmitCheckoutFunc func(ctx context.Context, sess *Session, form url.Values) (*CheckoutReceipt, error)
}

var _ Client = (*MockClient)(nil)

func (m *MockClient) ProductDetails(ctx context.Context, productID int64) (*domain.ProductDetails, error) {
	if m.ProductDetailsFunc != nil {
		return m.ProductDetailsFunc(ctx, productID)
	}
	return nil, nil
}

func (m *MockClient) AddToCart(ctx context.Context, sess *Session, productID int64) (*domain.CartOutcome, error) {
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, sess, productID)
	}
	return &domain.CartOutcome{Status: domain.CartSuccess}, nil
}

func (m *MockClient) UpdateCartItem(ctx context.Context, sess *Session, itemID int64, action domain.CartAction) (*domain.CartOutcome, error) {
	if m.UpdateCartItemFunc != nil {
		return m.UpdateCartItemFunc(ctx, sess, itemID, action)
	}
	return &domain.CartOutcome{Status: domain.CartSuccess}, nil
}

func (m *MockClient) RemoveCartItem(ctx context.Context, sess *Session, itemID int64) (*domain.CartOutcome, error) {
	if m.RemoveCartItemFunc != nil {
		return m.RemoveCartItemFunc(ctx, sess, itemID)
	}
	return &domain.CartOutcome{Status: domain.CartSuccess}, nil
}

func (m *MockClient) SubmitCheckout(ctx context.Context, sess *Session, form url.Values) (*CheckoutReceipt, error) {
	if m.SubmitCheckoutFunc != nil {
		return m.SubmitCheckoutFunc(ctx, sess, form)
	}
	return &CheckoutReceipt{StatusCode: 303, Location: "/"}, nil
}
