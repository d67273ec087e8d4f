package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
)

const (
	EventCheckoutCompleted    = "checkout.session.completed"
	EventSubscriptionUpdated  = "customer.subscription.updated"
	EventSubscriptionDeleted  = "customer.subscription.deleted"
	EventInvoicePaymentFailed = "invoice.payment_failed"
)

// Meta is carried by every event.
type Meta struct {
	ID      string
	Type    string
	Created int64 // unix seconds
}

func (m Meta) EventMeta() Meta { return m }

// Event is one of CheckoutCompleted, SubscriptionUpdated,
// SubscriptionDeleted, InvoicePaymentFailed or Unhandled.
type Event interface {
	EventMeta() Meta
}

type CheckoutCompleted struct {
	Meta
	SessionID      string
	Email          string
	SubscriptionID string
}

type SubscriptionUpdated struct {
	Meta
	SubscriptionID string
	Status         string
}

type SubscriptionDeleted struct {
	Meta
	SubscriptionID string
}

type InvoicePaymentFailed struct {
	Meta
	InvoiceID      string
	SubscriptionID string
}

// Unhandled is any event this service does not act on.
type Unhandled struct {
	Meta
	Reason string
}

type checkoutSessionPayload struct {
	ID              string `json:"id"`
	Mode            string `json:"mode"`
	Subscription    idRef  `json:"subscription"`
	CustomerEmail   string `json:"customer_email"`
	CustomerDetails struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type subscriptionPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type invoicePayload struct {
	ID           string `json:"id"`
	Subscription idRef  `json:"subscription"`
	Parent       struct {
		SubscriptionDetails struct {
			Subscription idRef `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

// idRef decodes an expandable field that is either an id string or an
// object with an "id" key.
type idRef string

func (r *idRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = idRef(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*r = idRef(obj.ID)
	return nil
}

// ParseEvent converts a verified processor event into the typed union.
// A known event type whose payload lacks a required field is a *ParseError.
func ParseEvent(evt stripe.Event) (Event, error) {
	meta := Meta{ID: evt.ID, Type: string(evt.Type), Created: evt.Created}

	switch meta.Type {
	case EventCheckoutCompleted, EventSubscriptionUpdated, EventSubscriptionDeleted, EventInvoicePaymentFailed:
	default:
		return Unhandled{Meta: meta, Reason: "unhandled event type"}, nil
	}

	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return nil, &ParseError{EventType: meta.Type, Reason: "missing data.object"}
	}
	raw := evt.Data.Raw

	switch meta.Type {
	case EventCheckoutCompleted:
		var p checkoutSessionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ParseError{EventType: meta.Type, Reason: "decode checkout session", Err: err}
		}
		// Payment-mode sessions carry no subscription
		if p.Mode != "" && p.Mode != string(stripe.CheckoutSessionModeSubscription) {
			return Unhandled{Meta: meta, Reason: fmt.Sprintf("checkout mode %q", p.Mode)}, nil
		}
		email := strings.TrimSpace(p.CustomerEmail)
		if email == "" {
			email = strings.TrimSpace(p.CustomerDetails.Email)
		}
		if email == "" {
			return nil, &ParseError{EventType: meta.Type, Reason: "missing customer_email"}
		}
		if p.Subscription == "" {
			return nil, &ParseError{EventType: meta.Type, Reason: "missing subscription"}
		}
		return CheckoutCompleted{Meta: meta, SessionID: p.ID, Email: email, SubscriptionID: string(p.Subscription)}, nil

	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var p subscriptionPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ParseError{EventType: meta.Type, Reason: "decode subscription", Err: err}
		}
		if p.ID == "" {
			return nil, &ParseError{EventType: meta.Type, Reason: "missing subscription id"}
		}
		if meta.Type == EventSubscriptionDeleted {
			return SubscriptionDeleted{Meta: meta, SubscriptionID: p.ID}, nil
		}
		if p.Status == "" {
			return nil, &ParseError{EventType: meta.Type, Reason: "missing status"}
		}
		return SubscriptionUpdated{Meta: meta, SubscriptionID: p.ID, Status: p.Status}, nil

	default: // EventInvoicePaymentFailed
		var p invoicePayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, &ParseError{EventType: meta.Type, Reason: "decode invoice", Err: err}
		}
		subID := string(p.Subscription)
		if subID == "" {
			subID = string(p.Parent.SubscriptionDetails.Subscription)
		}
		if subID == "" {
			// One-off invoices are not tied to a subscription
			return Unhandled{Meta: meta, Reason: "invoice has no subscription"}, nil
		}
		return InvoicePaymentFailed{Meta: meta, InvoiceID: p.ID, SubscriptionID: subID}, nil
	}
}
