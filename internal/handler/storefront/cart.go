package storefront

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dukerupert/airkicks/internal/domain"
	"github.com/dukerupert/airkicks/internal/middleware"
	"github.com/dukerupert/airkicks/internal/notify"
	"github.com/dukerupert/airkicks/internal/shop"
	"github.com/dukerupert/airkicks/internal/telemetry"
)

// Messages shown to the shopper for cart actions.
const (
	MsgProductIDMissing    = "Error Product ID missing"
	MsgCartItemIDMissing   = "Error Cart Item ID missing for removal"
	MsgQuantityInputMissed = "Quantity control ID or action missing"

	MsgAddRejected    = "Could not add item"
	MsgAddFailed      = "Error adding item"
	MsgUpdateRejected = "Could not update quantity"
	MsgUpdateFailed   = "Error updating quantity"
	MsgRemoveFailed   = "Error removing item"

	MsgCartUpdated = "Cart updated!"
	MsgItemRemoved = "Item removed!"
)

// Cart action labels used in logs and metrics.
const (
	actionAdd    = "add"
	actionRemove = "remove"
)

// addRedirectDelay gives the shopper time to read the "added" notice.
const addRedirectDelay = 1000

// CartHandler proxies cart mutations to the shop server and turns each
// outcome into a notice plus a page refresh policy.
type CartHandler struct {
	shop          shop.Client
	notices       *Notices
	metrics       *telemetry.BusinessMetrics
	sessionCookie string
}

// NewCartHandler creates a cart handler. sessionCookie names the storefront's
// own cookie, which is not forwarded to the shop.
func NewCartHandler(client shop.Client, notices *Notices, metrics *telemetry.BusinessMetrics, sessionCookie string) *CartHandler {
	return &CartHandler{
		shop:          client,
		notices:       notices,
		metrics:       metrics,
		sessionCookie: sessionCookie,
	}
}

// Add handles POST /cart/add/{productID}
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(r, "productID")
	if !ok {
		h.reject(w, r, MsgProductIDMissing)
		return
	}

	sess := shop.SessionFrom(r, h.sessionCookie)
	out, err := h.shop.AddToCart(r.Context(), sess, productID)
	sess.Relay(w)
	if err != nil {
		middleware.GetLogger(r.Context()).Warn().Err(err).Int64("product_id", productID).Msg("add to cart failed")
		h.fail(w, r, actionAdd, err, failureMessage(err, func(*shop.Failure) string { return MsgAddRejected }, MsgAddFailed))
		return
	}

	message := out.Message
	if message == "" {
		name := out.ProductName
		if name == "" {
			name = "Item"
		}
		message = name + " added to cart!"
	}

	h.metrics.RecordCartAction(actionAdd, telemetry.OutcomeSuccess)
	notice := h.notices.Post(r, notify.LevelSuccess, message)
	writeResponse(w, r, http.StatusOK, Response{
		Status:      string(out.Status),
		Message:     message,
		Notice:      &notice,
		Refresh:     Refresh{Kind: RefreshRedirect, Location: "/cart", AfterMS: addRedirectDelay},
		ProductName: out.ProductName,
		Quantity:    out.Quantity,
	})
}

// UpdateQuantity handles POST /cart/items/{itemID}/quantity. The action
// ("increase" or "decrease") comes from the form or a JSON body.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "itemID")
	raw := readAction(r)
	if !ok || raw == "" {
		writeResponse(w, r, http.StatusBadRequest, Response{
			Status:  statusError,
			Message: MsgQuantityInputMissed,
			Refresh: Refresh{Kind: RefreshNone},
			Restore: true,
		})
		return
	}

	action, ok := domain.ParseCartAction(raw)
	if !ok {
		err := domain.Invalid("cart.update", fmt.Sprintf("Unknown cart action %q", raw))
		h.fail(w, r, "unknown", err, domain.ErrorMessage(err))
		return
	}

	sess := shop.SessionFrom(r, h.sessionCookie)
	out, err := h.shop.UpdateCartItem(r.Context(), sess, itemID, action)
	sess.Relay(w)
	if err != nil {
		middleware.GetLogger(r.Context()).Warn().Err(err).Int64("item_id", itemID).Str("action", raw).Msg("cart quantity update failed")
		h.fail(w, r, string(action), err, failureMessage(err, func(*shop.Failure) string { return MsgUpdateRejected }, MsgUpdateFailed))
		return
	}

	message := out.Message
	if message == "" {
		message = MsgCartUpdated
	}

	outcome := telemetry.OutcomeSuccess
	if out.Status == domain.CartRemoved {
		outcome = telemetry.OutcomeRemoved
	}
	h.metrics.RecordCartAction(string(action), outcome)

	resp := Response{
		Status:      string(out.Status),
		Message:     message,
		Refresh:     Refresh{Kind: RefreshReload},
		NewQuantity: out.NewQuantity,
	}
	if out.ItemTotal.Valid {
		total := out.ItemTotal.Decimal
		resp.ItemTotal = &total
	}
	notice := h.notices.Post(r, notify.LevelSuccess, message)
	resp.Notice = &notice
	writeResponse(w, r, http.StatusOK, resp)
}

// Remove handles POST /cart/items/{itemID}/remove
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(r, "itemID")
	if !ok {
		h.reject(w, r, MsgCartItemIDMissing)
		return
	}

	sess := shop.SessionFrom(r, h.sessionCookie)
	out, err := h.shop.RemoveCartItem(r.Context(), sess, itemID)
	sess.Relay(w)
	if err != nil {
		middleware.GetLogger(r.Context()).Warn().Err(err).Int64("item_id", itemID).Msg("remove from cart failed")
		rejected := func(f *shop.Failure) string {
			return fmt.Sprintf("Could not remove Server status %d", f.StatusCode)
		}
		h.fail(w, r, actionRemove, err, failureMessage(err, rejected, MsgRemoveFailed))
		return
	}

	message := out.Message
	if message == "" {
		message = MsgItemRemoved
	}

	h.metrics.RecordCartAction(actionRemove, telemetry.OutcomeSuccess)
	notice := h.notices.Post(r, notify.LevelSuccess, message)
	writeResponse(w, r, http.StatusOK, Response{
		Status:  string(out.Status),
		Message: message,
		Notice:  &notice,
		Refresh: Refresh{Kind: RefreshRedirect, Location: "/cart"},
	})
}

// reject answers a request that never reached the shop.
func (h *CartHandler) reject(w http.ResponseWriter, r *http.Request, message string) {
	notice := h.notices.Post(r, notify.LevelError, message)
	writeResponse(w, r, http.StatusBadRequest, Response{
		Status:  statusError,
		Message: message,
		Notice:  &notice,
		Refresh: Refresh{Kind: RefreshNone},
		Restore: true,
	})
}

// fail posts an error notice and tells the page to restore the control.
func (h *CartHandler) fail(w http.ResponseWriter, r *http.Request, action string, err error, message string) {
	h.metrics.RecordCartAction(action, telemetry.OutcomeFailed)
	notice := h.notices.Post(r, notify.LevelError, message)
	writeResponse(w, r, failureStatus(err), Response{
		Status:  statusError,
		Message: message,
		Notice:  &notice,
		Refresh: Refresh{Kind: RefreshNone},
		Restore: true,
	})
}

func readAction(r *http.Request) string {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return ""
		}
		return strings.TrimSpace(body.Action)
	}
	return strings.TrimSpace(r.FormValue("action"))
}
