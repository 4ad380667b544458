// Package checkout validates the payment fields of the checkout form before
// the form is allowed to reach the shop server.
//
// Validation is a pure function of the four submitted strings. Every rule is
// evaluated on every call so the caller gets a complete message per field in
// one pass, and a field's outcome never depends on another field.
package checkout

import (
	"errors"
	"net/url"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/dukerupert/airkicks/internal/domain"
)

// Form field names, shared by the checkout template and the page script.
const (
	FieldCardNumber = "card_number"
	FieldCardName   = "card_name"
	FieldExpiry     = "expiry"
	FieldCVV        = "cvv"
)

// Fields holds the raw values captured from the checkout form at submission time.
// Absent inputs are empty strings.
type Fields struct {
	CardNumber string `form:"card_number" json:"card_number" validate:"card_number"`
	CardName   string `form:"card_name" json:"card_name" validate:"card_name"`
	Expiry     string `form:"expiry" json:"expiry" validate:"expiry"`
	CVV        string `form:"cvv" json:"cvv" validate:"cvv"`
}

// FromForm reads the four checkout fields from a submitted form.
func FromForm(form url.Values) Fields {
	return Fields{
		CardNumber: form.Get(FieldCardNumber),
		CardName:   form.Get(FieldCardName),
		Expiry:     form.Get(FieldExpiry),
		CVV:        form.Get(FieldCVV),
	}
}

// Normalized returns the fields in the form the shop server checks them:
// card number without separators and name without surrounding whitespace.
func (f Fields) Normalized() Fields {
	f.CardNumber = stripSeparators(f.CardNumber)
	f.CardName = strings.TrimSpace(f.CardName)
	return f
}

// Merge returns a copy of form with the four checkout fields replaced by f.
// Other submitted values are kept.
func (f Fields) Merge(form url.Values) url.Values {
	out := make(url.Values, len(form)+4)
	for k, v := range form {
		out[k] = append([]string(nil), v...)
	}
	out.Set(FieldCardNumber, f.CardNumber)
	out.Set(FieldCardName, f.CardName)
	out.Set(FieldExpiry, f.Expiry)
	out.Set(FieldCVV, f.CVV)
	return out
}

// FieldRule is an acceptance predicate for one field plus the message shown
// when it fails.
type FieldRule struct {
	Field   string
	Accept  func(string) bool
	Message string
}

var (
	sixteenDigits = regexp.MustCompile(`^[0-9]{16}$`)
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/?[0-9]{2}$`)
	cvvPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
)

// rules is in display order.
var rules = []FieldRule{
	{
		Field:   FieldCardNumber,
		Accept:  func(s string) bool { return sixteenDigits.MatchString(stripSeparators(s)) },
		Message: "Valid 16-digit card required",
	},
	{
		Field:   FieldCardName,
		Accept:  func(s string) bool { return strings.TrimSpace(s) != "" },
		Message: "Name on card required",
	},
	{
		Field:   FieldExpiry,
		Accept:  expiryPattern.MatchString,
		Message: "Expiry MM/YY required",
	},
	{
		Field:   FieldCVV,
		Accept:  cvvPattern.MatchString,
		Message: "Valid CVV required",
	},
}

// Rules returns the field rules in display order.
func Rules() []FieldRule {
	out := make([]FieldRule, len(rules))
	copy(out, rules)
	return out
}

// stripSeparators drops the spaces and hyphens shoppers type between card digit groups.
func stripSeparators(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// validate is built once and never mutated afterwards, which makes it safe
// for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	for _, r := range rules {
		accept := r.Accept
		if err := v.RegisterValidation(r.Field, func(fl validator.FieldLevel) bool {
			return accept(fl.Field().String())
		}); err != nil {
			panic("checkout: register rule " + r.Field + ": " + err.Error())
		}
	}
	return v
}

// Result is the outcome of one validation pass.
type Result struct {
	Valid bool `json:"valid"`

	// Messages has an entry for every field; passing fields map to "".
	Messages map[string]string `json:"messages"`
}

// Validate checks the four checkout fields. It never fails: malformed input
// is reported through the relevant field's message.
func Validate(f Fields) Result {
	res := Result{Valid: true, Messages: make(map[string]string, len(rules))}
	for _, r := range rules {
		res.Messages[r.Field] = ""
	}

	err := validate.Struct(f)
	if err == nil {
		return res
	}

	var fieldErrs validator.ValidationErrors
	errors.As(err, &fieldErrs)
	for _, fe := range fieldErrs {
		if r, ok := ruleFor(fe.Tag()); ok {
			res.Messages[r.Field] = r.Message
			res.Valid = false
		}
	}
	return res
}

func ruleFor(field string) (FieldRule, bool) {
	for _, r := range rules {
		if r.Field == field {
			return r, true
		}
	}
	return FieldRule{}, false
}

// FailedFields lists the failing fields in display order.
func (r Result) FailedFields() []string {
	var failed []string
	for _, rule := range rules {
		if r.Messages[rule.Field] != "" {
			failed = append(failed, rule.Field)
		}
	}
	return failed
}

// Err returns nil for a valid result, otherwise a *domain.ValidationError
// holding only the failing fields.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	ve := &domain.ValidationError{Op: "checkout.validate", Fields: make(map[string]string)}
	for _, field := range r.FailedFields() {
		ve.Fields[field] = r.Messages[field]
	}
	return ve
}
