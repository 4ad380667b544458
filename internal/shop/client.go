// Package shop is the storefront's client for the shop server: product
// details for the hover tooltip, cart mutations, and checkout forwarding.
//
// Every call is a single request/response. There are no retries and no
// deduplication; a failed call is reported as a *Failure and the caller
// decides what the shopper sees.
package shop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/airkicks/internal/domain"
)

// Operation names, used for logging and latency metrics.
const (
	OpProductDetails = "product_details"
	OpAddToCart      = "add_to_cart"
	OpUpdateCartItem = "update_cart_item"
	OpRemoveCartItem = "remove_cart_item"
	OpSubmitCheckout = "submit_checkout"
)

// maxBodyBytes caps how much of a shop response is read.
const maxBodyBytes = 1 << 20

// DefaultCheckoutRejection is the flash the shop server shows when it
// re-renders the checkout form after its own checks fail. It answers 200 in
// that case.
const DefaultCheckoutRejection = "Correct form errors."

// Client is the shop server contract the storefront depends on.
type Client interface {
	// ProductDetails returns the product record shown in the hover tooltip.
	ProductDetails(ctx context.Context, productID int64) (*domain.ProductDetails, error)

	// AddToCart adds one unit of a product, or bumps its quantity if already in the cart.
	AddToCart(ctx context.Context, sess *Session, productID int64) (*domain.CartOutcome, error)

	// UpdateCartItem increases or decreases a line item. Decreasing the last
	// unit removes the line and yields domain.CartRemoved.
	UpdateCartItem(ctx context.Context, sess *Session, itemID int64, action domain.CartAction) (*domain.CartOutcome, error)

	// RemoveCartItem deletes a line item.
	RemoveCartItem(ctx context.Context, sess *Session, itemID int64) (*domain.CartOutcome, error)

	// SubmitCheckout forwards an already validated checkout form.
	SubmitCheckout(ctx context.Context, sess *Session, form url.Values) (*CheckoutReceipt, error)
}

// CheckoutReceipt is the shop's response to a forwarded checkout, relayed to
// the browser as-is.
type CheckoutReceipt struct {
	StatusCode  int
	ContentType string
	Location    string
	Body        []byte
}

// Redirected reports whether the shop answered with a redirect.
func (r *CheckoutReceipt) Redirected() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400 && r.Location != ""
}

// Config configures an HTTPClient.
type Config struct {
	// BaseURL of the shop server, e.g. "http://localhost:5000".
	BaseURL string

	// Timeout per request. Default 10s. Ignored when HTTPClient is set.
	Timeout time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client

	Logger zerolog.Logger

	// Observe is called after every call with its latency and result.
	Observe func(op string, took time.Duration, err error)

	// CheckoutRejection marks a 2xx checkout page that is the re-rendered
	// form rather than a receipt. Default DefaultCheckoutRejection.
	CheckoutRejection string
}

// HTTPClient implements Client over the shop server's JSON endpoints.
type HTTPClient struct {
	base      *url.URL
	http      *http.Client
	logger    zerolog.Logger
	observe   func(op string, took time.Duration, err error)
	rejection []byte
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a shop client.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("shop base URL is required")
	}
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid shop base URL %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	// Redirects (empty cart, post-checkout) are relayed to the browser, not followed.
	noFollow := *hc
	noFollow.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	observe := cfg.Observe
	if observe == nil {
		observe = func(string, time.Duration, error) {}
	}

	rejection := cfg.CheckoutRejection
	if rejection == "" {
		rejection = DefaultCheckoutRejection
	}

	return &HTTPClient{
		base:      base,
		http:      &noFollow,
		logger:    cfg.Logger.With().Str("component", "shop").Logger(),
		observe:   observe,
		rejection: []byte(rejection),
	}, nil
}

// mutationResponse is the union of the cart endpoints' JSON bodies.
type mutationResponse struct {
	Status         string              `json:"status"`
	Message        string              `json:"message"`
	Quantity       int                 `json:"quantity"`
	ProductName    string              `json:"product_name"`
	NewQuantity    int                 `json:"new_quantity"`
	ItemTotalPrice decimal.NullDecimal `json:"item_total_price"`
}

func (c *HTTPClient) ProductDetails(ctx context.Context, productID int64) (_ *domain.ProductDetails, err error) {
	defer c.track(OpProductDetails, time.Now(), &err)

	resp, body, err := c.do(ctx, OpProductDetails, http.MethodGet, fmt.Sprintf("/product/%d/details_ajax", productID), nil, "", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Failure{Op: OpProductDetails, Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	var details domain.ProductDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, &Failure{Op: OpProductDetails, Reason: ReasonDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return &details, nil
}

func (c *HTTPClient) AddToCart(ctx context.Context, sess *Session, productID int64) (_ *domain.CartOutcome, err error) {
	defer c.track(OpAddToCart, time.Now(), &err)

	return c.mutate(ctx, OpAddToCart, fmt.Sprintf("/add_to_cart/%d", productID), nil, "", sess, false,
		func(s domain.CartStatus) bool { return s == domain.CartSuccess })
}

func (c *HTTPClient) UpdateCartItem(ctx context.Context, sess *Session, itemID int64, action domain.CartAction) (_ *domain.CartOutcome, err error) {
	defer c.track(OpUpdateCartItem, time.Now(), &err)

	if _, ok := domain.ParseCartAction(string(action)); !ok {
		return nil, &Failure{Op: OpUpdateCartItem, Reason: ReasonInvalid, Message: fmt.Sprintf("Unknown cart action %q", action)}
	}
	payload, err := json.Marshal(map[string]string{"action": string(action)})
	if err != nil {
		return nil, &Failure{Op: OpUpdateCartItem, Reason: ReasonInvalid, Err: err}
	}

	return c.mutate(ctx, OpUpdateCartItem, fmt.Sprintf("/update_cart_item/%d", itemID), payload, "application/json", sess, false,
		domain.CartStatus.Succeeded)
}

func (c *HTTPClient) RemoveCartItem(ctx context.Context, sess *Session, itemID int64) (_ *domain.CartOutcome, err error) {
	defer c.track(OpRemoveCartItem, time.Now(), &err)

	return c.mutate(ctx, OpRemoveCartItem, fmt.Sprintf("/remove_from_cart/%d", itemID), nil, "", sess, true,
		func(s domain.CartStatus) bool { return s == domain.CartSuccess })
}

func (c *HTTPClient) SubmitCheckout(ctx context.Context, sess *Session, form url.Values) (_ *CheckoutReceipt, err error) {
	defer c.track(OpSubmitCheckout, time.Now(), &err)

	resp, body, err := c.do(ctx, OpSubmitCheckout, http.MethodPost, "/checkout",
		[]byte(form.Encode()), "application/x-www-form-urlencoded", sess)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &Failure{Op: OpSubmitCheckout, Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	receipt := &CheckoutReceipt{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Location:    resp.Header.Get("Location"),
		Body:        body,
	}
	if receipt.Redirected() {
		return receipt, nil
	}
	if err := c.checkoutAccepted(receipt); err != nil {
		return nil, err
	}
	return receipt, nil
}

// checkoutAccepted decides whether a non-redirect checkout answer is a
// receipt. A JSON answer must carry the success tag; an HTML answer must not
// be the re-rendered form.
func (c *HTTPClient) checkoutAccepted(receipt *CheckoutReceipt) error {
	if receipt.StatusCode < 200 || receipt.StatusCode > 299 {
		return &Failure{Op: OpSubmitCheckout, Reason: ReasonStatus, StatusCode: receipt.StatusCode}
	}

	if strings.HasPrefix(receipt.ContentType, "application/json") {
		var data mutationResponse
		if err := json.Unmarshal(receipt.Body, &data); err != nil {
			return &Failure{Op: OpSubmitCheckout, Reason: ReasonDecode, StatusCode: receipt.StatusCode, Err: err}
		}
		if domain.CartStatus(data.Status) != domain.CartSuccess {
			return &Failure{Op: OpSubmitCheckout, Reason: ReasonRejected, Message: data.Message, StatusCode: receipt.StatusCode}
		}
		return nil
	}

	if bytes.Contains(receipt.Body, c.rejection) {
		return &Failure{Op: OpSubmitCheckout, Reason: ReasonRejected, Message: string(c.rejection), StatusCode: receipt.StatusCode}
	}
	return nil
}

// mutate performs a cart mutation and interprets its status tag. When
// requireOK is set the HTTP status must also be 2xx for the call to succeed.
func (c *HTTPClient) mutate(
	ctx context.Context,
	op, path string,
	payload []byte,
	contentType string,
	sess *Session,
	requireOK bool,
	accepted func(domain.CartStatus) bool,
) (*domain.CartOutcome, error) {
	resp, body, err := c.do(ctx, op, http.MethodPost, path, payload, contentType, sess)
	if err != nil {
		return nil, err
	}
	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299

	var data mutationResponse
	if err := json.Unmarshal(body, &data); err != nil {
		if ok {
			return nil, &Failure{Op: op, Reason: ReasonDecode, StatusCode: resp.StatusCode, Err: err}
		}
		return nil, &Failure{Op: op, Reason: ReasonStatus, StatusCode: resp.StatusCode}
	}

	status := domain.CartStatus(data.Status)
	if !accepted(status) || (requireOK && !ok) {
		return nil, &Failure{Op: op, Reason: ReasonRejected, Message: data.Message, StatusCode: resp.StatusCode}
	}

	return &domain.CartOutcome{
		Status:      status,
		Message:     data.Message,
		ProductName: data.ProductName,
		Quantity:    data.Quantity,
		NewQuantity: data.NewQuantity,
		ItemTotal:   data.ItemTotalPrice,
	}, nil
}

// do sends one request and reads the (bounded) body.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, payload []byte, contentType string, sess *Session) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, nil, &Failure{Op: op, Reason: ReasonInvalid, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	sess.apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &Failure{Op: op, Reason: ReasonTransport, Err: err}
	}
	defer resp.Body.Close()

	sess.collect(resp)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, &Failure{Op: op, Reason: ReasonTransport, StatusCode: resp.StatusCode, Err: err}
	}
	return resp, body, nil
}

func (c *HTTPClient) track(op string, start time.Time, errp *error) {
	took := time.Since(start)
	err := *errp
	c.observe(op, took, err)

	if err != nil {
		c.logger.Warn().Err(err).Str("op", op).Dur("took", took).Msg("shop call failed")
		return
	}
	c.logger.Debug().Str("op", op).Dur("took", took).Msg("shop call")
}
