package routes

import (
	"github.com/dukerupert/airkicks/internal/handler/storefront"
	"github.com/dukerupert/airkicks/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	// Product hover tooltip
	TooltipHandler *storefront.TooltipHandler

	// Cart mutations (proxied to the shop server)
	CartHandler *storefront.CartHandler

	// Checkout validation and submission
	CheckoutHandler *storefront.CheckoutHandler

	// Pending notices
	NoticeHandler *storefront.NoticeHandler

	// MutationMiddleware wraps the routes that change the shopper's cart or
	// submit a checkout, e.g. a stricter rate limiter.
	MutationMiddleware []router.Middleware
}
