package api

import (
	"errors"
	"io"
	"net/http"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/billing"
	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/response"
	"practice-journal-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

const webhookBodyLimit = 1 << 20 // 1MiB

// StripeWebhook verifies, parses and applies a payment processor event.
// Acknowledgements are an empty 200.
func (h *Handler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit))
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to read request body")
		return
	}

	evt, err := h.Verifier.Verify(body, c.GetHeader(billing.SignatureHeader))
	if err != nil {
		logging.Warnf("Rejected Stripe webhook: %v", err)
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid Stripe signature")
		return
	}

	parsed, err := billing.ParseEvent(evt)
	if err != nil {
		logging.Logger.Warn().Err(err).Str("event_id", evt.ID).Str("type", string(evt.Type)).Msg("Malformed Stripe event")
		response.ErrorJSON(c, http.StatusBadRequest, "Malformed event payload")
		return
	}

	if _, err := h.Reconciler.Handle(c.Request.Context(), parsed); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "User not found")
			return
		}
		logging.Logger.Error().Err(err).Str("event_id", evt.ID).Str("type", string(evt.Type)).Msg("Stripe webhook processing failed")
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to process webhook")
		return
	}

	c.Status(http.StatusOK)
}

// CreateCheckoutSession starts a subscription checkout for the caller
func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}

	sessionID, err := h.Processor.CreateCheckoutSession(ctx, user.Email, user.ID)
	if err != nil {
		logging.Errorf("Checkout session for user %d failed: %v", user.ID, err)
		response.ErrorJSON(c, http.StatusBadRequest, "Could not start checkout")
		return
	}
	response.SuccessJSON(c, gin.H{"sessionId": sessionID})
}

type ConfirmSubscriptionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// ConfirmSubscription records the subscription created by a finished
// checkout on the caller. Status is left to the webhook.
func (h *Handler) ConfirmSubscription(c *gin.Context) {
	var req ConfirmSubscriptionRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	subID, err := h.Processor.SessionSubscription(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			response.AbortError(c, apperror.ValidationFailed("session_id", "No subscription found for this session"))
			return
		}
		logging.Errorf("Retrieving checkout session %s failed: %v", req.SessionID, err)
		response.ErrorJSON(c, http.StatusBadRequest, "Could not retrieve checkout session")
		return
	}

	if err := h.Users.SetSubscriptionID(ctx, userID, subID); err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"subscription_id": subID})
}

// CreatePortalSession returns a billing portal link for the caller's subscription
func (h *Handler) CreatePortalSession(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	if user.SubscriptionID == nil || *user.SubscriptionID == "" {
		response.AbortError(c, apperror.ValidationFailed("subscription_id", "No subscription found"))
		return
	}

	url, err := h.Processor.CreatePortalSession(ctx, *user.SubscriptionID)
	if err != nil {
		logging.Errorf("Portal session for user %d failed: %v", user.ID, err)
		response.ErrorJSON(c, http.StatusBadRequest, "Could not open billing portal")
		return
	}
	response.SuccessJSON(c, gin.H{"url": url})
}
