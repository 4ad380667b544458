package handler

import (
	"html/template"

	"github.com/dukerupert/airkicks/internal/checkout"
	"github.com/dukerupert/airkicks/internal/notify"
)

var fieldLabels = map[string]string{
	checkout.FieldCardNumber: "Card number",
	checkout.FieldCardName:   "Name on card",
	checkout.FieldExpiry:     "Expiry",
	checkout.FieldCVV:        "CVV",
}

// TemplateFuncs returns a FuncMap with custom template functions
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		// fieldLabel turns a checkout form key into its on-page label.
		"fieldLabel": func(field string) string {
			if label, ok := fieldLabels[field]; ok {
				return label
			}
			return field
		},
		// alertClass maps a notice level onto the page's alert classes.
		"alertClass": func(level notify.Level) string {
			return "alert alert-" + string(notify.ParseLevel(string(level))) + " global-js-message"
		},
	}
}
