package services

import (
	"bytes"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeGateway wraps the Stripe client for payment intents and webhook
// verification.
type StripeGateway struct {
	secretKey  string
	webhookKey string
}

// NewStripeGateway creates a StripeGateway and sets the global Stripe key.
func NewStripeGateway(secretKey, webhookKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{secretKey: secretKey, webhookKey: webhookKey}
}

// Enabled reports whether a Stripe key is configured. Without it only
// cash on delivery can be offered.
func (g *StripeGateway) Enabled() bool {
	return g.secretKey != ""
}

// CreateIntent opens a payment intent for the given amount in the smallest
// currency unit and returns its ID and client secret.
func (g *StripeGateway) CreateIntent(amount int64, currency, orderID, userID string) (string, string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("order_id", orderID)
	params.AddMetadata("user_id", userID)

	pi, err := paymentintent.New(params)
	if err != nil {
		return "", "", err
	}
	return pi.ID, pi.ClientSecret, nil
}

// ParseWebhook verifies the Stripe signature and returns the event.
func (g *StripeGateway) ParseWebhook(r *http.Request) (stripe.Event, error) {
	var event stripe.Event
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return event, err
	}
	r.Body = io.NopCloser(bytes.NewBuffer(payload))
	sigHeader := r.Header.Get("Stripe-Signature")
	return webhook.ConstructEvent(payload, sigHeader, g.webhookKey)
}
