package storefront

import (
	"net/http"

	"github.com/dukerupert/airkicks/internal/domain"
	"github.com/dukerupert/airkicks/internal/handler"
	"github.com/dukerupert/airkicks/internal/middleware"
	"github.com/dukerupert/airkicks/internal/telemetry"
	"github.com/dukerupert/airkicks/internal/tooltip"
)

// TooltipHandler serves the product excerpt shown on hover.
type TooltipHandler struct {
	source   tooltip.Source
	renderer *handler.Renderer
	metrics  *telemetry.BusinessMetrics
}

// NewTooltipHandler creates a tooltip handler backed by source.
func NewTooltipHandler(source tooltip.Source, renderer *handler.Renderer, metrics *telemetry.BusinessMetrics) *TooltipHandler {
	return &TooltipHandler{
		source:   source,
		renderer: renderer,
		metrics:  metrics,
	}
}

// ServeHTTP handles GET /products/{id}/tooltip.
//
// A failed lookup still answers 200 with the "Details unavailable." fragment
// so the hover box never breaks.
func (h *TooltipHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "id")
	if !ok {
		handler.ErrorResponse(w, r, domain.Invalid("tooltip.get", "Invalid product id"))
		return
	}

	details, err := h.source.ProductDetails(r.Context(), productID)
	if err == nil && details == nil {
		err = domain.NotFound("tooltip.get", "product", r.PathValue("id"))
	}
	if err != nil {
		middleware.GetLogger(r.Context()).Warn().Err(err).Int64("product_id", productID).Msg("tooltip lookup failed")
		h.metrics.RecordTooltip(telemetry.OutcomeUnavailable)

		if handler.AcceptsJSON(r) {
			handler.WriteJSON(w, http.StatusOK, map[string]any{
				"product_id":  productID,
				"unavailable": true,
				"message":     tooltip.Unavailable,
			})
			return
		}
		h.renderer.RenderHTTP(w, http.StatusOK, "tooltip_unavailable", tooltip.Unavailable)
		return
	}

	h.metrics.RecordTooltip(telemetry.OutcomeSuccess)
	tip := tooltip.Build(details)
	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, tip)
		return
	}
	h.renderer.RenderHTTP(w, http.StatusOK, "tooltip", tip)
}
