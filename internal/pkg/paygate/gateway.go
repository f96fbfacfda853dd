// Package paygate hands checkouts off to an external payment page and asks the
// provider whether a returned payment went through.
package paygate

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"squadhub-service/internal/domain/payment"
)

// Gateway builds the URL the payer is redirected to.
type Gateway interface {
	RedirectURL(p payment.Pending) (string, error)
}

// Confirmer asks the provider whether a payment was captured. A false result or
// an error both mean "not confirmed yet".
type Confirmer interface {
	Confirm(ctx context.Context, p payment.Pending, payerID string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, p payment.Pending, payerID string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, p payment.Pending, payerID string) (bool, error) {
	return f(ctx, p, payerID)
}

type Config struct {
	// CheckoutURL is the provider's hosted payment page.
	CheckoutURL string
	// Business identifies the merchant receiving the payment.
	Business  string
	ReturnURL string
	CancelURL string
}

// RedirectGateway renders a standard "buy now" style redirect.
type RedirectGateway struct {
	cfg Config
}

func NewRedirectGateway(cfg Config) (*RedirectGateway, error) {
	for name, raw := range map[string]string{
		"checkout url": cfg.CheckoutURL,
		"return url":   cfg.ReturnURL,
		"cancel url":   cfg.CancelURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("paygate: invalid %s %q", name, raw)
		}
	}
	if strings.TrimSpace(cfg.Business) == "" {
		return nil, fmt.Errorf("paygate: business is required")
	}
	return &RedirectGateway{cfg: cfg}, nil
}

func (g *RedirectGateway) RedirectURL(p payment.Pending) (string, error) {
	if p.PaymentID == "" {
		return "", fmt.Errorf("paygate: payment id is required")
	}

	ret, err := withQuery(g.cfg.ReturnURL, url.Values{"paymentId": {p.PaymentID}})
	if err != nil {
		return "", err
	}
	cancel, err := withQuery(g.cfg.CancelURL, url.Values{"paymentId": {p.PaymentID}})
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("cmd", "_xclick")
	q.Set("business", g.cfg.Business)
	q.Set("item_name", p.PlanName)
	q.Set("item_number", p.PlanID)
	q.Set("amount", strconv.FormatFloat(p.Amount, 'f', 2, 64))
	q.Set("currency_code", p.Currency)
	q.Set("invoice", p.PaymentID)
	q.Set("custom", p.UserID)
	q.Set("return", ret)
	q.Set("cancel_return", cancel)

	return withQuery(g.cfg.CheckoutURL, q)
}

func withQuery(raw string, extra url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("paygate: parse %q: %w", raw, err)
	}
	q := u.Query()
	for k, vs := range extra {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// MockConfirmer confirms every payment. It stands in for the provider until a
// real integration exists.
type MockConfirmer struct{}

func NewMockConfirmer() *MockConfirmer {
	return &MockConfirmer{}
}

func (MockConfirmer) Confirm(ctx context.Context, _ payment.Pending, _ string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}
