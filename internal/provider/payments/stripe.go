// Package payments opens checkout sessions and resolves them back from
// payment intents using Stripe.
package payments

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/intellichat/intellichat/internal/model"
	"github.com/intellichat/intellichat/internal/provider"
)

// StripeGateway implements the payment gateway on top of stripe-go.
type StripeGateway struct {
	sc *client.API
}

// NewStripe creates a gateway for the given secret key.
// A nil backends uses stripe-go's default API backends.
func NewStripe(secretKey string, backends *stripe.Backends) *StripeGateway {
	if secretKey == "" {
		return &StripeGateway{}
	}
	return &StripeGateway{sc: client.New(secretKey, backends)}
}

// CreateCheckoutSession opens a one-off payment session for a single line item.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req model.CheckoutRequest) (*model.CheckoutSession, error) {
	if g.sc == nil {
		return nil, fmt.Errorf("stripe: %w", provider.ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.UnitAmount),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductName),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		ExpiresAt:  stripe.Int64(req.ExpiresAt.Unix()),
	}
	params.Context = ctx
	params.AddMetadata(model.MetadataTransactionID, req.TransactionID)
	params.AddMetadata(model.MetadataAppID, req.AppID)

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return toSession(s), nil
}

// SessionForPaymentIntent returns the checkout session that produced a payment
// intent, or nil when there is none.
func (g *StripeGateway) SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (*model.CheckoutSession, error) {
	if g.sc == nil {
		return nil, fmt.Errorf("stripe: %w", provider.ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionListParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	it := g.sc.CheckoutSessions.List(params)
	var found *model.CheckoutSession
	if it.Next() {
		found = toSession(it.CheckoutSession())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("stripe: list checkout sessions: %w", err)
	}
	return found, nil
}

func toSession(s *stripe.CheckoutSession) *model.CheckoutSession {
	out := &model.CheckoutSession{
		ID:       s.ID,
		URL:      s.URL,
		Metadata: s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentIntent = s.PaymentIntent.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out
}
