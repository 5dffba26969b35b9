// Package payments is the boundary to the external payment processor. The
// rest of the service only sees checkout sessions and verified webhook
// events, never the processor's wire types.
package payments

import "context"

// StatusPaid is the payment status of a settled checkout session.
const StatusPaid = "paid"

// EventCheckoutCompleted is the webhook event type that triggers settlement.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutSession is the provider-neutral view of one payment session. The
// metadata carries the settlement context (batch id, role, destination,
// optional downstream price) set when the checkout was created.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url,omitempty"`
	PaymentStatus string            `json:"paymentStatus"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// LineItem is one purchasable entry of a checkout. UnitAmount is in INR
// paise (minor units), as the processor expects.
type LineItem struct {
	Name       string `json:"name"`
	UnitAmount int64  `json:"unitAmount"`
	Quantity   int64  `json:"quantity"`
}

// CheckoutParams creates a new checkout session.
type CheckoutParams struct {
	LineItems  []LineItem        `json:"lineItems"`
	SuccessURL string            `json:"successUrl"`
	CancelURL  string            `json:"cancelUrl"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Provider is the narrow payment-processor contract the service consumes.
type Provider interface {
	// VerifyWebhook authenticates a raw webhook delivery and returns the
	// event type plus the checkout session it concerns.
	VerifyWebhook(payload []byte, signature string) (eventType string, sess CheckoutSession, err error)
	// CheckoutSession fetches the authoritative session record by id; the
	// settlement pull path uses it to re-derive payment state.
	CheckoutSession(ctx context.Context, id string) (CheckoutSession, error)
	// CreateCheckout opens a new checkout session.
	CreateCheckout(ctx context.Context, p CheckoutParams) (CheckoutSession, error)
}
