package paygate

import (
	"context"
	"net/url"
	"testing"

	"squadhub-service/internal/domain/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		CheckoutURL: "https://pay.example.com/cgi-bin/webscr",
		Business:    "billing@squadhub.example",
		ReturnURL:   "https://app.squadhub.example/billing/success?source=checkout",
		CancelURL:   "https://app.squadhub.example/billing/cancel",
	}
}

func TestRedirectURLCarriesContract(t *testing.T) {
	g, err := NewRedirectGateway(testConfig())
	require.NoError(t, err)

	raw, err := g.RedirectURL(payment.Pending{
		PaymentID: "01JABCDEF",
		UserID:    "coach-1",
		PlanID:    "pro",
		PlanName:  "Pro",
		Amount:    9.99,
		Currency:  "USD",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "pay.example.com", u.Host)

	q := u.Query()
	assert.Equal(t, "billing@squadhub.example", q.Get("business"))
	assert.Equal(t, "Pro", q.Get("item_name"))
	assert.Equal(t, "9.99", q.Get("amount"))
	assert.Equal(t, "USD", q.Get("currency_code"))

	ret, err := url.Parse(q.Get("return"))
	require.NoError(t, err)
	assert.Equal(t, "01JABCDEF", ret.Query().Get("paymentId"))
	assert.Equal(t, "checkout", ret.Query().Get("source"))

	cancel, err := url.Parse(q.Get("cancel_return"))
	require.NoError(t, err)
	assert.Equal(t, "/billing/cancel", cancel.Path)
}

func TestNewRedirectGatewayValidates(t *testing.T) {
	cfg := testConfig()
	cfg.ReturnURL = "/relative"
	_, err := NewRedirectGateway(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Business = " "
	_, err = NewRedirectGateway(cfg)
	assert.Error(t, err)
}

func TestRedirectURLRequiresPaymentID(t *testing.T) {
	g, err := NewRedirectGateway(testConfig())
	require.NoError(t, err)
	_, err = g.RedirectURL(payment.Pending{PlanID: "pro"})
	assert.Error(t, err)
}

func TestMockConfirmer(t *testing.T) {
	ok, err := NewMockConfirmer().Confirm(context.Background(), payment.Pending{}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = NewMockConfirmer().Confirm(ctx, payment.Pending{}, "")
	assert.Error(t, err)
	assert.False(t, ok)
}
