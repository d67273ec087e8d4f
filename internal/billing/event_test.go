package billing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

func stripeEvent(id, typ string, created int64, object string) stripe.Event {
	evt := stripe.Event{ID: id, Type: stripe.EventType(typ), Created: created}
	if object != "" {
		evt.Data = &stripe.EventData{Raw: json.RawMessage(object)}
	}
	return evt
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		object  string
		want    Event
		wantErr bool
	}{
		{
			name:   "checkout completed",
			typ:    EventCheckoutCompleted,
			object: `{"id":"cs_1","mode":"subscription","subscription":"sub_123","customer_email":"alice@example.com"}`,
			want:   CheckoutCompleted{SessionID: "cs_1", Email: "alice@example.com", SubscriptionID: "sub_123"},
		},
		{
			name:   "checkout falls back to customer details",
			typ:    EventCheckoutCompleted,
			object: `{"id":"cs_1","subscription":{"id":"sub_123"},"customer_email":null,"customer_details":{"email":"alice@example.com"}}`,
			want:   CheckoutCompleted{SessionID: "cs_1", Email: "alice@example.com", SubscriptionID: "sub_123"},
		},
		{
			name:   "payment mode checkout is not ours",
			typ:    EventCheckoutCompleted,
			object: `{"id":"cs_1","mode":"payment","customer_email":"alice@example.com"}`,
			want:   Unhandled{Reason: `checkout mode "payment"`},
		},
		{
			name:    "checkout without subscription",
			typ:     EventCheckoutCompleted,
			object:  `{"id":"cs_1","mode":"subscription","customer_email":"alice@example.com"}`,
			wantErr: true,
		},
		{
			name:    "checkout without email",
			typ:     EventCheckoutCompleted,
			object:  `{"id":"cs_1","subscription":"sub_123"}`,
			wantErr: true,
		},
		{
			name:   "subscription updated keeps status verbatim",
			typ:    EventSubscriptionUpdated,
			object: `{"id":"sub_123","status":"incomplete_expired"}`,
			want:   SubscriptionUpdated{SubscriptionID: "sub_123", Status: "incomplete_expired"},
		},
		{
			name:    "subscription updated without status",
			typ:     EventSubscriptionUpdated,
			object:  `{"id":"sub_123"}`,
			wantErr: true,
		},
		{
			name:   "subscription deleted",
			typ:    EventSubscriptionDeleted,
			object: `{"id":"sub_123","status":"canceled"}`,
			want:   SubscriptionDeleted{SubscriptionID: "sub_123"},
		},
		{
			name:    "subscription deleted without id",
			typ:     EventSubscriptionDeleted,
			object:  `{"status":"canceled"}`,
			wantErr: true,
		},
		{
			name:   "invoice with subscription string",
			typ:    EventInvoicePaymentFailed,
			object: `{"id":"in_1","subscription":"sub_123"}`,
			want:   InvoicePaymentFailed{InvoiceID: "in_1", SubscriptionID: "sub_123"},
		},
		{
			name:   "invoice with parent subscription details",
			typ:    EventInvoicePaymentFailed,
			object: `{"id":"in_1","parent":{"type":"subscription_details","subscription_details":{"subscription":"sub_456"}}}`,
			want:   InvoicePaymentFailed{InvoiceID: "in_1", SubscriptionID: "sub_456"},
		},
		{
			name:   "one-off invoice",
			typ:    EventInvoicePaymentFailed,
			object: `{"id":"in_1","subscription":null}`,
			want:   Unhandled{Reason: "invoice has no subscription"},
		},
		{
			name:    "malformed json",
			typ:     EventSubscriptionUpdated,
			object:  `{"id":42}`,
			wantErr: true,
		},
		{
			name:    "missing data",
			typ:     EventSubscriptionUpdated,
			wantErr: true,
		},
		{
			name: "unknown type",
			typ:  "some.unhandled.type",
			want: Unhandled{Reason: "unhandled event type"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEvent(stripeEvent("evt_1", tt.typ, 1700000000, tt.object))
			if tt.wantErr {
				var parseErr *ParseError
				require.ErrorAs(t, err, &parseErr)
				assert.Equal(t, tt.typ, parseErr.EventType)
				return
			}
			require.NoError(t, err)

			meta := Meta{ID: "evt_1", Type: tt.typ, Created: 1700000000}
			assert.Equal(t, meta, got.EventMeta())

			switch want := tt.want.(type) {
			case CheckoutCompleted:
				want.Meta = meta
				assert.Equal(t, want, got)
			case SubscriptionUpdated:
				want.Meta = meta
				assert.Equal(t, want, got)
			case SubscriptionDeleted:
				want.Meta = meta
				assert.Equal(t, want, got)
			case InvoicePaymentFailed:
				want.Meta = meta
				assert.Equal(t, want, got)
			case Unhandled:
				want.Meta = meta
				assert.Equal(t, want, got)
			}
		})
	}
}
