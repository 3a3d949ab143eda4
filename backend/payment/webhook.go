package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"lifelessons/backend/entitlement"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

const (
	eventCheckoutCompleted     = "checkout.session.completed"
	eventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// Confirmation is a verified, paid checkout.
type Confirmation struct {
	EventID   string
	SessionID string
	Keys      entitlement.LookupKeys
}

// ParseWebhook verifies the Stripe-Signature header and extracts a payment
// confirmation. Events that do not confirm a payment yield (nil, nil).
func ParseWebhook(payload []byte, signature, secret string) (*Confirmation, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch string(event.Type) {
	case eventCheckoutCompleted, eventAsyncPaymentSucceeded:
	default:
		return nil, nil
	}
	if event.Data == nil {
		return nil, fmt.Errorf("%w: missing data", ErrMalformedEvent)
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	// a completed session may still be waiting on a delayed payment method
	if string(event.Type) == eventCheckoutCompleted && sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, nil
	}

	return &Confirmation{
		EventID:   event.ID,
		SessionID: sess.ID,
		Keys:      lookupKeys(&sess),
	}, nil
}

func lookupKeys(sess *stripe.CheckoutSession) entitlement.LookupKeys {
	keys := entitlement.LookupKeys{UID: sess.Metadata[MetadataUID]}

	rawID := sess.Metadata[MetadataUserID]
	if rawID == "" {
		rawID = sess.ClientReferenceID
	}
	if id, err := strconv.ParseUint(rawID, 10, 64); err == nil {
		keys.UserID = uint(id)
	}
	return keys
}
