package billing

import (
	"context"
	"errors"
	"fmt"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/database"
	"practice-journal-api/internal/models"
	"practice-journal-api/pkg/logging"

	"github.com/rs/zerolog"
)

// Outcome describes what Handle did with an event.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeStale     Outcome = "stale"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeConflict  Outcome = "conflict"
)

// UserStore is the subset of user persistence the reconciler needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*models.User, error)
	LinkSubscription(ctx context.Context, upd database.LinkUpdate) (bool, error)
	ApplySubscriptionStatus(ctx context.Context, upd database.StatusUpdate) (bool, error)
}

// Reconciler applies payment processor lifecycle events to local users.
type Reconciler struct {
	users  UserStore
	events EventLog
}

func NewReconciler(users UserStore, events EventLog) *Reconciler {
	return &Reconciler{users: users, events: events}
}

// Handle applies a parsed event. A checkout whose customer email matches no
// user returns an error wrapping apperror.ErrNotFound so the processor
// retries; unknown subscriptions on later events and checkouts for a
// subscription held by another user are logged and acknowledged. Any other
// error is a data-store failure.
func (r *Reconciler) Handle(ctx context.Context, evt Event) (Outcome, error) {
	meta := evt.EventMeta()
	log := logging.Logger.With().Str("event_id", meta.ID).Str("type", meta.Type).Logger()

	if u, ok := evt.(Unhandled); ok {
		log.Info().Str("reason", u.Reason).Msg("Stripe webhook ignored")
		return OutcomeIgnored, nil
	}

	if meta.ID != "" && r.events != nil {
		seen, err := r.events.Seen(ctx, meta.ID)
		if err != nil {
			return "", err
		}
		if seen {
			log.Info().Msg("Stripe webhook already processed")
			return OutcomeDuplicate, nil
		}
	}

	var (
		outcome Outcome
		err     error
	)
	switch e := evt.(type) {
	case CheckoutCompleted:
		outcome, err = r.checkoutCompleted(ctx, log, e)
	case SubscriptionUpdated:
		outcome, err = r.applyStatus(ctx, log, e.SubscriptionID, e.Status, meta.Created, false)
	case SubscriptionDeleted:
		outcome, err = r.applyStatus(ctx, log, e.SubscriptionID, models.SubscriptionStatusCanceled, meta.Created, true)
	case InvoicePaymentFailed:
		outcome, err = r.applyStatus(ctx, log, e.SubscriptionID, models.SubscriptionStatusPastDue, meta.Created, false)
	default:
		return "", fmt.Errorf("unsupported event %T", evt)
	}
	if err != nil {
		return outcome, err
	}

	if meta.ID != "" && r.events != nil {
		// State is already written and every write is conditional, so a
		// redelivery after a failed mark is harmless.
		if markErr := r.events.MarkProcessed(ctx, meta.ID, meta.Type, meta.Created); markErr != nil {
			log.Error().Err(markErr).Msg("Failed to record processed Stripe event")
		}
	}
	return outcome, nil
}

func (r *Reconciler) checkoutCompleted(ctx context.Context, log zerolog.Logger, e CheckoutCompleted) (Outcome, error) {
	log = log.With().Str("email", e.Email).Str("subscription_id", e.SubscriptionID).Logger()

	user, err := r.users.GetByEmail(ctx, e.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Warn().Msg("Checkout completed for unknown email")
			return OutcomeNotFound, err
		}
		return "", fmt.Errorf("look up user by email: %w", err)
	}

	linked, err := r.users.LinkSubscription(ctx, database.LinkUpdate{
		UserID:         user.ID,
		SubscriptionID: e.SubscriptionID,
		Status:         models.SubscriptionStatusActive,
		EventAt:        e.Created,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// retrying cannot succeed; needs manual reconciliation
			log.Warn().Uint("user_id", user.ID).Msg("Subscription already linked to another user, event acknowledged without changes")
			return OutcomeConflict, nil
		}
		return "", err
	}
	if !linked {
		log.Info().Uint("user_id", user.ID).Msg("Checkout event older than stored subscription state, skipped")
		return OutcomeStale, nil
	}

	log.Info().Uint("user_id", user.ID).Msg("Subscription activated")
	return OutcomeApplied, nil
}

// applyStatus writes status for the user holding subscriptionID. Unless
// force is set, the write is skipped for stale events and canceled
// subscriptions.
func (r *Reconciler) applyStatus(ctx context.Context, log zerolog.Logger, subscriptionID, status string, created int64, force bool) (Outcome, error) {
	log = log.With().Str("subscription_id", subscriptionID).Str("status", status).Logger()

	user, err := r.users.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Warn().Msg("No user for subscription, event acknowledged without changes")
			return OutcomeNotFound, nil
		}
		return "", fmt.Errorf("look up user by subscription: %w", err)
	}

	applied, err := r.users.ApplySubscriptionStatus(ctx, database.StatusUpdate{
		SubscriptionID: subscriptionID,
		Status:         status,
		EventAt:        created,
		Force:          force,
	})
	if err != nil {
		return "", err
	}
	if !applied {
		stored := ""
		if user.SubscriptionStatus != nil {
			stored = *user.SubscriptionStatus
		}
		log.Info().
			Uint("user_id", user.ID).
			Str("stored_status", stored).
			Int64("stored_event_at", user.SubscriptionEventAt).
			Msg("Subscription event skipped, stored state is newer or canceled")
		return OutcomeStale, nil
	}

	log.Info().Uint("user_id", user.ID).Msg("Subscription status updated")
	return OutcomeApplied, nil
}
