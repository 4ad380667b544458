package routes

import (
	"github.com/dukerupert/airkicks/internal/router"
)

// RegisterStorefrontRoutes registers the endpoints the storefront page
// script calls.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Product tooltip
	r.Get("/products/{id}/tooltip", deps.TooltipHandler.ServeHTTP)

	// Notices
	r.Get("/notices", deps.NoticeHandler.List)
	r.Post("/notices/{id}/dismiss", deps.NoticeHandler.Dismiss)

	// Live checkout field validation
	r.Post("/checkout/validate", deps.CheckoutHandler.Validate)

	mutations := r.Group(deps.MutationMiddleware...)

	// Shopping cart
	mutations.Post("/cart/add/{productID}", deps.CartHandler.Add)
	mutations.Post("/cart/items/{itemID}/quantity", deps.CartHandler.UpdateQuantity)
	mutations.Post("/cart/items/{itemID}/remove", deps.CartHandler.Remove)

	// Checkout submission
	mutations.Post("/checkout", deps.CheckoutHandler.Submit)
}
