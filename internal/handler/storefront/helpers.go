// Package storefront holds the HTTP handlers the storefront page script
// talks to: checkout validation and submission, cart mutations, product
// tooltips and pending notices.
package storefront

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dukerupert/airkicks/internal/domain"
	"github.com/dukerupert/airkicks/internal/handler"
	"github.com/dukerupert/airkicks/internal/middleware"
	"github.com/dukerupert/airkicks/internal/notify"
	"github.com/dukerupert/airkicks/internal/shop"
	"github.com/dukerupert/airkicks/internal/telemetry"
)

// Refresh kinds tell the page script what to do once a notice is shown.
const (
	RefreshNone     = "none"
	RefreshReload   = "reload"
	RefreshRedirect = "redirect"
)

const statusError = "error"

// Refresh is the page refresh policy that follows an action.
type Refresh struct {
	Kind     string `json:"kind"`
	Location string `json:"location,omitempty"`
	AfterMS  int64  `json:"after_ms,omitempty"`
}

// Response is the envelope returned to the page script for cart and
// checkout actions.
type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Notice  *notify.Notice `json:"notice,omitempty"`
	Refresh Refresh        `json:"refresh"`

	// Restore asks the page to re-enable the control that triggered the action.
	Restore bool `json:"restore,omitempty"`

	ProductName string           `json:"product_name,omitempty"`
	Quantity    int              `json:"quantity,omitempty"`
	NewQuantity int              `json:"new_quantity,omitempty"`
	ItemTotal   *decimal.Decimal `json:"item_total_price,omitempty"`

	// Messages holds per-field checkout messages.
	Messages map[string]string `json:"messages,omitempty"`
}

// Notices posts notices to the shopper making the current request.
type Notices struct {
	notifier notify.Notifier
	duration time.Duration
	metrics  *telemetry.BusinessMetrics
}

// NewNotices creates a notice poster. A zero duration uses notify.DefaultDuration.
func NewNotices(notifier notify.Notifier, duration time.Duration, metrics *telemetry.BusinessMetrics) *Notices {
	return &Notices{notifier: notifier, duration: duration, metrics: metrics}
}

// Post stamps a notice and delivers it to the request's session. Delivery
// failures are logged; the notice is returned either way so it can also be
// shown inline.
func (n *Notices) Post(r *http.Request, level notify.Level, message string) notify.Notice {
	notice := notify.New(level, message)
	if n.duration > 0 {
		notice.Duration = n.duration
	}
	notice = notice.Stamped()

	n.metrics.RecordNotice(string(notice.Level))

	sessionID := middleware.GetSessionID(r.Context())
	if sessionID == "" || n.notifier == nil {
		return notice
	}
	if err := n.notifier.Notify(r.Context(), sessionID, notice); err != nil {
		middleware.GetLogger(r.Context()).Warn().Err(err).
			Str("notice_id", notice.ID).
			Msg("failed to deliver notice")
	}
	return notice
}

// writeResponse answers the page script with JSON. Plain form posts (no
// script) are redirected instead; the notice is picked up from /notices on
// the next page.
func writeResponse(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	if handler.AcceptsJSON(r) {
		handler.WriteJSON(w, status, resp)
		return
	}

	location := resp.Refresh.Location
	if resp.Refresh.Kind != RefreshRedirect || location == "" {
		location = backTo(r, "/cart")
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// backTo returns the local path of the Referer, or fallback. A path that
// would read as protocol-relative ("//host/...") is never echoed.
func backTo(r *http.Request, fallback string) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || !strings.HasPrefix(ref.Path, "/") {
		return fallback
	}
	uri := ref.RequestURI()
	if strings.HasPrefix(uri, "//") || strings.HasPrefix(uri, "/\\") {
		return fallback
	}
	return uri
}

// failureStatus maps a failed call onto the HTTP status returned to the page.
func failureStatus(err error) int {
	return handler.ErrorCodeToHTTPStatus(domain.ErrorCode(err))
}

// failureMessage picks the text shown for a failed shop call: the shop's own
// message, then the rejection text, then the generic fallback.
func failureMessage(err error, rejected func(*shop.Failure) string, fallback string) string {
	if msg := shop.ShopMessage(err); msg != "" {
		return msg
	}
	var f *shop.Failure
	if errors.As(err, &f) && f.Reason == shop.ReasonRejected && rejected != nil {
		return rejected(f)
	}
	return fallback
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
