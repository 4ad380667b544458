package shop

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dukerupert/airkicks/internal/domain"
)

// Reason classifies why a call to the shop server failed.
type Reason string

const (
	// ReasonTransport: the request never got an HTTP response (DNS, refused, timeout).
	ReasonTransport Reason = "transport"

	// ReasonStatus: a non-2xx response without a usable JSON body.
	ReasonStatus Reason = "status"

	// ReasonRejected: the shop answered with a status tag other than success.
	ReasonRejected Reason = "rejected"

	// ReasonDecode: a 2xx response whose body could not be decoded.
	ReasonDecode Reason = "decode"

	// ReasonInvalid: the request was refused before being sent.
	ReasonInvalid Reason = "invalid"
)

// Failure is the typed failure of a shop call. It carries the shop's own
// message when there is one, so the storefront can show it to the shopper.
type Failure struct {
	Op         string
	Reason     Reason
	Message    string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" {
		msg = string(f.Reason)
	}
	if f.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, f.StatusCode)
	}
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Op, msg, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Op, msg)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ErrorCode maps the failure onto a domain error code for HTTP status mapping.
func (f *Failure) ErrorCode() string {
	switch f.Reason {
	case ReasonInvalid:
		return domain.EINVALID
	case ReasonTransport, ReasonDecode:
		return domain.EUNAVAILABLE
	}

	switch {
	case f.StatusCode == http.StatusUnauthorized:
		return domain.EUNAUTHORIZED
	case f.StatusCode == http.StatusNotFound:
		return domain.ENOTFOUND
	case f.StatusCode == http.StatusForbidden:
		return domain.EFORBIDDEN
	case f.StatusCode == http.StatusTooManyRequests:
		return domain.ERATELIMIT
	case f.StatusCode >= 500:
		return domain.EUNAVAILABLE
	case f.StatusCode >= 400:
		return domain.EINVALID
	case f.Reason == ReasonRejected:
		// 2xx with a failing status tag
		return domain.ECONFLICT
	}
	return domain.EUNAVAILABLE
}

// ErrorMessage returns the user-facing message.
func (f *Failure) ErrorMessage() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Reason == ReasonTransport {
		return "The shop is not responding. Please try again."
	}
	if f.StatusCode != 0 {
		return fmt.Sprintf("Shop request failed (status %d)", f.StatusCode)
	}
	return "Shop request failed"
}

// ShopMessage is the message the shop server itself sent, if any.
func ShopMessage(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Message
	}
	return ""
}
