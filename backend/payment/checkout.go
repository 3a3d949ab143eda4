// Package payment talks to Stripe: it opens checkout sessions for the
// premium upgrade and turns verified webhook deliveries into payment
// confirmations.
package payment

import (
	"context"
	"fmt"
	"strconv"

	"lifelessons/backend/config"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Metadata keys carried on the checkout session so the webhook can find
// the account again.
const (
	MetadataUserID = "userId"
	MetadataUID    = "uid"
)

const productName = "Life Lessons Premium (lifetime)"

type CheckoutRequest struct {
	UserID uint
	UID    string
	Email  string
}

type Checkout interface {
	CreateSession(ctx context.Context, req CheckoutRequest) (string, error)
}

type StripeCheckout struct {
	api        *client.API
	priceCents int64
	currency   string
	successURL string
	cancelURL  string
}

func NewStripeCheckout(cfg *config.Config) *StripeCheckout {
	return &StripeCheckout{
		api:        client.New(cfg.StripeSecretKey, nil),
		priceCents: cfg.PremiumPriceCents,
		currency:   cfg.PremiumCurrency,
		successURL: cfg.CheckoutSuccessURL,
		cancelURL:  cfg.CheckoutCancelURL,
	}
}

// CreateSession opens a one-off payment session for the fixed premium price
// and returns the hosted checkout URL.
func (s *StripeCheckout) CreateSession(ctx context.Context, req CheckoutRequest) (string, error) {
	params := sessionParams(req, s.priceCents, s.currency, s.successURL, s.cancelURL)
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

func sessionParams(req CheckoutRequest, priceCents int64, currency, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	userID := strconv.FormatUint(uint64(req.UserID), 10)

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		CustomerEmail:     stripe.String(req.Email),
		ClientReferenceID: stripe.String(userID),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
					UnitAmount: stripe.Int64(priceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.AddMetadata(MetadataUserID, userID)
	params.AddMetadata(MetadataUID, req.UID)
	return params
}
