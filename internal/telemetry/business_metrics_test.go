package telemetry

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCheckoutValidation(t *testing.T) {
	m := NewBusinessMetrics("test", prometheus.NewRegistry())

	m.RecordCheckoutValidation(false, []string{"card_number", "cvv"})
	m.RecordCheckoutValidation(false, []string{"cvv"})
	m.RecordCheckoutValidation(true, nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.CheckoutValidations.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CheckoutValidations.WithLabelValues(OutcomeValid)))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.CheckoutFieldFailed.WithLabelValues("cvv")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CheckoutFieldFailed.WithLabelValues("card_number")))
}

func TestObserveShopCall(t *testing.T) {
	m := NewBusinessMetrics("test", prometheus.NewRegistry())

	m.ObserveShopCall("add_to_cart", 20*time.Millisecond, nil)
	m.ObserveShopCall("add_to_cart", time.Second, errors.New("refused"))

	assert.Equal(t, 2, testutil.CollectAndCount(m.ShopLatency))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *BusinessMetrics

	assert.NotPanics(t, func() {
		m.RecordCheckoutValidation(true, nil)
		m.RecordCheckoutSubmitted(nil)
		m.RecordCartAction("add", OutcomeSuccess)
		m.RecordTooltip(OutcomeUnavailable)
		m.RecordNotice("error")
		m.ObserveShopCall("remove_cart_item", time.Millisecond, nil)
	})
}
