package shop

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/airkicks/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestNewHTTPClient_RequiresBaseURL(t *testing.T) {
	_, err := NewHTTPClient(Config{})
	assert.Error(t, err)

	_, err = NewHTTPClient(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestProductDetails(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/product/3/details_ajax", r.URL.Path)
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		writeJSON(w, http.StatusOK, map[string]any{
			"name":             "Air Jordan 4 Retro 'Bred'",
			"description":      "Iconic colourway.",
			"price":            225.0,
			"carbon_footprint": nil,
			"image":            "images/jordan4.png",
		})
	})

	d, err := c.ProductDetails(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Air Jordan 4 Retro 'Bred'", d.Name)
	require.True(t, d.Price.Valid)
	assert.Equal(t, "225.00", d.Price.Decimal.StringFixed(2))
	assert.False(t, d.CarbonFootprint.Valid)
}

func TestProductDetails_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantReason Reason
		wantCode   string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.NotFound(w, r)
			},
			wantReason: ReasonStatus,
			wantCode:   domain.ENOTFOUND,
		},
		{
			name: "session not accepted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			wantReason: ReasonStatus,
			wantCode:   domain.EUNAUTHORIZED,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantReason: ReasonStatus,
			wantCode:   domain.EUNAVAILABLE,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, "<html>oops</html>")
			},
			wantReason: ReasonDecode,
			wantCode:   domain.EUNAVAILABLE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			_, err := c.ProductDetails(context.Background(), 1)

			var f *Failure
			require.ErrorAs(t, err, &f)
			assert.Equal(t, tt.wantReason, f.Reason)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
		})
	}
}

func TestProductDetails_Transport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewHTTPClient(Config{BaseURL: base, Logger: zerolog.Nop()})
	require.NoError(t, err)

	_, err = c.ProductDetails(context.Background(), 1)
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonTransport, f.Reason)
	assert.Equal(t, "The shop is not responding. Please try again.", domain.ErrorMessage(err))
}

func TestAddToCart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/add_to_cart/2", r.URL.Path)

		cookie, err := r.Cookie("session")
		require.NoError(t, err)
		assert.Equal(t, "cart-abc", cookie.Value)

		http.SetCookie(w, &http.Cookie{Name: "session", Value: "cart-def", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{
			"status":       "success",
			"message":      "Air Jordan 11 Retro 'Concord' added to cart!",
			"quantity":     2,
			"product_name": "Air Jordan 11 Retro 'Concord'",
		})
	})

	sess := &Session{Cookies: []*http.Cookie{{Name: "session", Value: "cart-abc"}}}
	out, err := c.AddToCart(context.Background(), sess, 2)

	require.NoError(t, err)
	assert.Equal(t, domain.CartSuccess, out.Status)
	assert.Equal(t, 2, out.Quantity)
	assert.Equal(t, "Air Jordan 11 Retro 'Concord'", out.ProductName)

	returned := sess.Returned()
	require.Len(t, returned, 1)
	assert.Equal(t, "cart-def", returned[0].Value)
}

func TestAddToCart_Rejected(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": "error", "message": "Product not found."})
	})

	_, err := c.AddToCart(context.Background(), nil, 99)

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonRejected, f.Reason)
	assert.Equal(t, "Product not found.", ShopMessage(err))
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestUpdateCartItem(t *testing.T) {
	tests := []struct {
		name       string
		action     domain.CartAction
		status     int
		body       string
		wantStatus domain.CartStatus
		wantReason Reason
	}{
		{
			name:       "increase",
			action:     domain.ActionIncrease,
			status:     http.StatusOK,
			body:       `{"status":"success","new_quantity":3,"item_total_price":540.0}`,
			wantStatus: domain.CartSuccess,
		},
		{
			name:       "decrease last unit removes",
			action:     domain.ActionDecrease,
			status:     http.StatusOK,
			body:       `{"status":"removed","message":"Item removed from cart."}`,
			wantStatus: domain.CartRemoved,
		},
		{
			name:       "shop error tag",
			action:     domain.ActionIncrease,
			status:     http.StatusNotFound,
			body:       `{"status":"error","message":"Item not found in your cart."}`,
			wantReason: ReasonRejected,
		},
		{
			name:       "html error page",
			action:     domain.ActionDecrease,
			status:     http.StatusBadGateway,
			body:       `<h1>Bad gateway</h1>`,
			wantReason: ReasonStatus,
		},
		{
			name:       "2xx garbage",
			action:     domain.ActionDecrease,
			status:     http.StatusOK,
			body:       `not json`,
			wantReason: ReasonDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/update_cart_item/7", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var payload map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
				assert.Equal(t, string(tt.action), payload["action"])

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			out, err := c.UpdateCartItem(context.Background(), nil, 7, tt.action)

			if tt.wantReason != "" {
				var f *Failure
				require.ErrorAs(t, err, &f)
				assert.Equal(t, tt.wantReason, f.Reason)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
		})
	}
}

func TestUpdateCartItem_ItemTotal(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","new_quantity":2,"item_total_price":360.0}`)
	})

	out, err := c.UpdateCartItem(context.Background(), nil, 1, domain.ActionIncrease)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NewQuantity)
	require.True(t, out.ItemTotal.Valid)
	assert.Equal(t, "360.00", out.ItemTotal.Decimal.StringFixed(2))
}

func TestUpdateCartItem_UnknownActionNotSent(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.UpdateCartItem(context.Background(), nil, 1, domain.CartAction("explode"))

	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, ReasonInvalid, f.Reason)
	assert.False(t, called)
}

func TestRemoveCartItem(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/remove_from_cart/4", r.URL.Path)
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "message": "Item removed from cart."})
		})

		out, err := c.RemoveCartItem(context.Background(), nil, 4)
		require.NoError(t, err)
		assert.Equal(t, "Item removed from cart.", out.Message)
	})

	t.Run("success tag on error status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "success"})
		})

		_, err := c.RemoveCartItem(context.Background(), nil, 4)
		var f *Failure
		require.ErrorAs(t, err, &f)
		assert.Equal(t, ReasonRejected, f.Reason)
	})

	t.Run("removed tag is not success", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "removed"})
		})

		_, err := c.RemoveCartItem(context.Background(), nil, 4)
		assert.Error(t, err)
	})
}

func TestSubmitCheckout_DoesNotFollowRedirect(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4111111111111111", r.PostForm.Get("card_number"))
		http.Redirect(w, r, "/", http.StatusFound)
	})

	form := url.Values{"card_number": {"4111111111111111"}, "card_name": {"A"}}
	receipt, err := c.SubmitCheckout(context.Background(), nil, form)

	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, receipt.StatusCode)
	assert.Equal(t, "/", receipt.Location)
	assert.True(t, receipt.Redirected())
}

func TestSubmitCheckout_ErrorStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.SubmitCheckout(context.Background(), nil, url.Values{})
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestSubmitCheckout_Answers(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		wantErr     bool
		wantCode    string
		wantMessage string
	}{
		{
			name: "receipt page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte(`<div class="flash success">Checkout successful!</div><h1>Thank you</h1>`))
			},
		},
		{
			name: "form re-rendered with 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = w.Write([]byte(`<div class=flash>Correct form errors.</div><form method="post">`))
			},
			wantErr:     true,
			wantCode:    domain.ECONFLICT,
			wantMessage: DefaultCheckoutRejection,
		},
		{
			name: "json success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
			},
		},
		{
			name: "json rejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"status": "error", "message": "Card declined"})
			},
			wantErr:     true,
			wantCode:    domain.ECONFLICT,
			wantMessage: "Card declined",
		},
		{
			name: "json without a tag",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{})
			},
			wantErr:  true,
			wantCode: domain.ECONFLICT,
		},
		{
			name: "undecodable json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`<html>`))
			},
			wantErr:  true,
			wantCode: domain.EUNAVAILABLE,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)

			receipt, err := c.SubmitCheckout(context.Background(), nil, url.Values{"card_number": {"4111111111111111"}})

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, receipt.StatusCode)
				return
			}
			require.Error(t, err)
			assert.Nil(t, receipt)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			assert.Equal(t, tt.wantMessage, ShopMessage(err))
		})
	}
}

func TestSubmitCheckout_CustomRejectionMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<p>Please fix the card details</p>`))
	}))
	defer srv.Close()

	c, err := NewHTTPClient(Config{BaseURL: srv.URL, Logger: zerolog.Nop(), CheckoutRejection: "Please fix the card details"})
	require.NoError(t, err)

	_, err = c.SubmitCheckout(context.Background(), nil, url.Values{})
	assert.Equal(t, "Please fix the card details", ShopMessage(err))
}

func TestObserveHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var ops []string
	var errs []error
	c, err := NewHTTPClient(Config{
		BaseURL: srv.URL,
		Logger:  zerolog.Nop(),
		Observe: func(op string, _ time.Duration, err error) {
			ops = append(ops, op)
			errs = append(errs, err)
		},
	})
	require.NoError(t, err)

	_, _ = c.ProductDetails(context.Background(), 1)

	assert.Equal(t, []string{OpProductDetails}, ops)
	require.Len(t, errs, 1)
	assert.Error(t, errs[0])
}

func TestSessionFrom(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "session", Value: "cart"})
	r.AddCookie(&http.Cookie{Name: "airkicks_sid", Value: "edge"})

	sess := SessionFrom(r, "airkicks_sid")

	require.Len(t, sess.Cookies, 1)
	assert.Equal(t, "session", sess.Cookies[0].Name)
}

func TestSessionRelay(t *testing.T) {
	sess := &Session{}
	sess.collect(&http.Response{Header: http.Header{"Set-Cookie": {"session=one; Path=/", "session=two; Path=/"}}})

	rec := httptest.NewRecorder()
	sess.Relay(rec)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1, "later cookie replaces earlier one with same name and path")
	assert.Equal(t, "two", cookies[0].Value)
}

func TestFailureError(t *testing.T) {
	f := &Failure{Op: OpAddToCart, Reason: ReasonTransport, Err: errors.New("connection refused")}
	assert.Equal(t, "add_to_cart: transport: connection refused", f.Error())

	f = &Failure{Op: OpRemoveCartItem, Reason: ReasonRejected, Message: "Item not found in your cart.", StatusCode: 404}
	assert.Equal(t, "remove_cart_item: Item not found in your cart. (status 404)", f.Error())
	assert.Equal(t, "Item not found in your cart.", f.ErrorMessage())
}
