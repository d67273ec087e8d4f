package billing

import (
	"context"
	"errors"
	"fmt"

	"practice-journal-api/internal/config"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

// ErrNoSubscription is returned when a checkout session has no subscription.
var ErrNoSubscription = errors.New("no subscription found for this session")

// Processor is the outbound side of the payment processor.
type Processor interface {
	CreateCheckoutSession(ctx context.Context, email string, userID uint) (string, error)
	SessionSubscription(ctx context.Context, sessionID string) (string, error)
	CreatePortalSession(ctx context.Context, subscriptionID string) (string, error)
}

// StripeProcessor calls the Stripe API with the configured key and price.
type StripeProcessor struct {
	api         *client.API
	priceID     string
	frontendURL string
}

func NewStripeProcessor(cfg config.Stripe, frontendURL string) *StripeProcessor {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &StripeProcessor{api: api, priceID: cfg.PriceID, frontendURL: frontendURL}
}

// CreateCheckoutSession starts a subscription checkout for the price and
// returns the session id.
func (p *StripeProcessor) CreateCheckoutSession(ctx context.Context, email string, userID uint) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(email),
		ClientReferenceID: stripe.String(fmt.Sprint(userID)),
		SuccessURL:        stripe.String(p.frontendURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(p.frontendURL + "/account"),
	}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.ID, nil
}

// SessionSubscription returns the subscription id created by a checkout session.
func (p *StripeProcessor) SessionSubscription(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := p.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("retrieve checkout session: %w", err)
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		return "", ErrNoSubscription
	}
	return session.Subscription.ID, nil
}

// CreatePortalSession returns a billing portal URL for the subscription's customer.
func (p *StripeProcessor) CreatePortalSession(ctx context.Context, subscriptionID string) (string, error) {
	subParams := &stripe.SubscriptionParams{}
	subParams.Context = ctx

	sub, err := p.api.Subscriptions.Get(subscriptionID, subParams)
	if err != nil {
		return "", fmt.Errorf("retrieve subscription: %w", err)
	}
	if sub.Customer == nil || sub.Customer.ID == "" {
		return "", fmt.Errorf("subscription %s has no customer", subscriptionID)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.Customer.ID),
		ReturnURL: stripe.String(p.frontendURL + "/account"),
	}
	params.Context = ctx

	session, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return session.URL, nil
}
