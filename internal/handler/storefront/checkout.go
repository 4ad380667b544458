package storefront

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/airkicks/internal/checkout"
	"github.com/dukerupert/airkicks/internal/domain"
	"github.com/dukerupert/airkicks/internal/handler"
	"github.com/dukerupert/airkicks/internal/middleware"
	"github.com/dukerupert/airkicks/internal/notify"
	"github.com/dukerupert/airkicks/internal/shop"
	"github.com/dukerupert/airkicks/internal/telemetry"
)

const (
	MsgCorrectErrors      = "Please correct highlighted errors in the form"
	MsgCheckoutSuccessful = "Checkout successful!"
	MsgCheckoutFailed     = "Checkout could not be completed. Please try again."
)

// CheckoutHandler validates the payment fields before a checkout is allowed
// through to the shop server.
type CheckoutHandler struct {
	shop          shop.Client
	notices       *Notices
	renderer      *handler.Renderer
	metrics       *telemetry.BusinessMetrics
	sessionCookie string
}

// NewCheckoutHandler creates a checkout handler.
func NewCheckoutHandler(client shop.Client, notices *Notices, renderer *handler.Renderer, metrics *telemetry.BusinessMetrics, sessionCookie string) *CheckoutHandler {
	return &CheckoutHandler{
		shop:          client,
		notices:       notices,
		renderer:      renderer,
		metrics:       metrics,
		sessionCookie: sessionCookie,
	}
}

// fieldError is one failing field, in display order, for the error fragment.
type fieldError struct {
	Field   string
	Message string
}

type checkoutErrorsData struct {
	Notice notify.Notice
	Errors []fieldError
}

// Validate handles POST /checkout/validate. It reports every field's message
// for the live per-field display and never posts a notice.
func (h *CheckoutHandler) Validate(w http.ResponseWriter, r *http.Request) {
	fields, err := readFields(r)
	if err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("checkout.validate", "Invalid checkout form"))
		return
	}
	handler.WriteJSON(w, http.StatusOK, checkout.Validate(fields))
}

// Submit handles POST /checkout. An invalid form is stopped here and never
// reaches the shop server.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		handler.ErrorResponse(w, r, domain.Invalid("checkout.submit", "Invalid form data"))
		return
	}

	fields := checkout.FromForm(r.PostForm)
	res := checkout.Validate(fields)
	h.metrics.RecordCheckoutValidation(res.Valid, res.FailedFields())

	if !res.Valid {
		h.invalid(w, r, res)
		return
	}

	sess := shop.SessionFrom(r, h.sessionCookie)
	receipt, err := h.shop.SubmitCheckout(r.Context(), sess, fields.Normalized().Merge(r.PostForm))
	h.metrics.RecordCheckoutSubmitted(err)
	sess.Relay(w)
	if err != nil {
		middleware.GetLogger(r.Context()).Error().Err(err).Msg("checkout submission failed")
		message := shop.ShopMessage(err)
		if message == "" {
			message = MsgCheckoutFailed
		}
		notice := h.notices.Post(r, notify.LevelError, message)
		if handler.AcceptsJSON(r) {
			handler.WriteJSON(w, failureStatus(err), Response{
				Status:  statusError,
				Message: message,
				Notice:  &notice,
				Refresh: Refresh{Kind: RefreshNone},
				Restore: true,
			})
			return
		}
		handler.ErrorResponse(w, r, err)
		return
	}

	if receipt.Redirected() {
		// e.g. the shop sends an empty cart back to /cart
		if handler.AcceptsJSON(r) {
			handler.WriteJSON(w, http.StatusOK, Response{
				Status:  "redirect",
				Refresh: Refresh{Kind: RefreshRedirect, Location: receipt.Location},
			})
			return
		}
		http.Redirect(w, r, receipt.Location, http.StatusSeeOther)
		return
	}

	notice := h.notices.Post(r, notify.LevelSuccess, MsgCheckoutSuccessful)
	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusOK, Response{
			Status:  string(domain.CartSuccess),
			Message: MsgCheckoutSuccessful,
			Notice:  &notice,
			Refresh: Refresh{Kind: RefreshNone},
		})
		return
	}

	if receipt.ContentType != "" {
		w.Header().Set("Content-Type", receipt.ContentType)
	}
	w.WriteHeader(receipt.StatusCode)
	_, _ = w.Write(receipt.Body)
}

func (h *CheckoutHandler) invalid(w http.ResponseWriter, r *http.Request, res checkout.Result) {
	notice := h.notices.Post(r, notify.LevelError, MsgCorrectErrors)

	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, http.StatusUnprocessableEntity, Response{
			Status:   statusError,
			Message:  MsgCorrectErrors,
			Notice:   &notice,
			Refresh:  Refresh{Kind: RefreshNone},
			Messages: res.Messages,
		})
		return
	}

	if !wantsHTML(r) {
		handler.ValidationErrorResponse(w, r, res.Err())
		return
	}

	data := checkoutErrorsData{Notice: notice}
	for _, field := range res.FailedFields() {
		data.Errors = append(data.Errors, fieldError{Field: field, Message: res.Messages[field]})
	}
	h.renderer.RenderHTTP(w, http.StatusUnprocessableEntity, "checkout_errors", data)
}

// wantsHTML reports whether a non-script client can take the HTML error
// fragment. Browsers send text/html or */*; a missing Accept header counts.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html") || strings.Contains(accept, "*/*")
}

// readFields accepts the checkout fields as a form or a JSON object.
func readFields(r *http.Request) (checkout.Fields, error) {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var f checkout.Fields
		err := json.NewDecoder(r.Body).Decode(&f)
		return f, err
	}
	if err := r.ParseForm(); err != nil {
		return checkout.Fields{}, err
	}
	return checkout.FromForm(r.PostForm), nil
}
