package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/agritruth/trace/internal/domain"
)

// Stripe amounts are INR paise; the processor rejects anything under ₹1.00
// or over its documented ceiling.
const (
	minUnitAmount = 100
	maxUnitAmount = 999_999_999_999
)

// Stripe implements Provider against the Stripe API.
type Stripe struct {
	api           *client.API
	webhookSecret string
}

func NewStripe(secretKey, webhookSecret string) *Stripe {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Stripe{api: api, webhookSecret: webhookSecret}
}

func (s *Stripe) VerifyWebhook(payload []byte, signature string) (string, CheckoutSession, error) {
	if s.webhookSecret == "" {
		return "", CheckoutSession{}, fmt.Errorf("%w: webhook secret not set", domain.ErrNotConfigured)
	}
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return "", CheckoutSession{}, fmt.Errorf("webhook signature verification: %w", err)
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return "", CheckoutSession{}, fmt.Errorf("decode webhook session: %w", err)
	}
	return string(event.Type), fromStripe(&cs), nil
}

func (s *Stripe) CheckoutSession(ctx context.Context, id string) (CheckoutSession, error) {
	cs, err := s.api.CheckoutSessions.Get(id, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("fetch checkout session %s: %w", id, err)
	}
	return fromStripe(cs), nil
}

func (s *Stripe) CreateCheckout(ctx context.Context, p CheckoutParams) (CheckoutSession, error) {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(p.LineItems))
	for _, item := range p.LineItems {
		name := item.Name
		if name == "" {
			name = "Agri batch"
		}
		amount := item.UnitAmount
		if amount < minUnitAmount {
			amount = minUnitAmount
		}
		if amount > maxUnitAmount {
			amount = maxUnitAmount
		}
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String("inr"),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{Name: stripe.String(name)},
				UnitAmount:  stripe.Int64(amount),
			},
			Quantity: stripe.Int64(quantity),
		})
	}
	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          items,
		SuccessURL:         stripe.String(p.SuccessURL),
		CancelURL:          stripe.String(p.CancelURL),
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(sess), nil
}

func fromStripe(cs *stripe.CheckoutSession) CheckoutSession {
	return CheckoutSession{
		ID:            cs.ID,
		URL:           cs.URL,
		PaymentStatus: string(cs.PaymentStatus),
		Metadata:      cs.Metadata,
	}
}
