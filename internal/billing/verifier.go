package billing

import (
	"errors"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "Stripe-Signature"

var errMissingSignature = errors.New("missing signature header")

// Verifier checks webhook signatures against the endpoint secret.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}
}

// Verify authenticates the raw body and returns the decoded event. Any
// failure is a *VerificationError.
func (v *Verifier) Verify(payload []byte, sigHeader string) (stripe.Event, error) {
	if strings.TrimSpace(sigHeader) == "" {
		return stripe.Event{}, &VerificationError{Err: errMissingSignature}
	}

	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, &VerificationError{Err: err}
	}
	return event, nil
}
