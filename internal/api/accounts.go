package api

import (
	"errors"
	"net/http"
	"strings"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/models"
	"practice-journal-api/internal/response"
	"practice-journal-api/internal/services"
	"practice-journal-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Username        string `json:"username" binding:"required,max=150"`
	Email           string `json:"email" binding:"required,email,max=254"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" binding:"required,eqfield=Password"`
	FirstName       string `json:"first_name" binding:"max=150"`
	LastName        string `json:"last_name" binding:"max=150"`
	IsTeacher       bool   `json:"is_teacher"`
}

type accountSummary struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	IsTeacher      bool   `json:"is_teacher"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func summarize(u *models.User) accountSummary {
	return accountSummary{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		IsTeacher:      u.IsTeacher,
		EmailConfirmed: u.EmailConfirmed,
	}
}

// Register creates an account and mails a confirmation link
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := h.Passwords.Hash(req.Password)
	if err != nil {
		response.AbortError(c, err)
		return
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		IsTeacher:    req.IsTeacher,
	}
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		response.AbortError(c, err)
		return
	}

	// The account exists either way; the user can ask for another email
	_ = h.sendConfirmation(c, user, true)

	response.MessageJSON(c, http.StatusCreated,
		"User created successfully. Please check your email to confirm your account.",
		gin.H{"user": summarize(user)})
}

func (h *Handler) sendConfirmation(c *gin.Context, user *models.User, newUser bool) error {
	ctx := c.Request.Context()
	token, err := h.EmailTokens.IssueToken(ctx, services.PurposeEmailConfirmation, user.ID, h.Config.ConfirmationTokenTTL)
	if err != nil {
		logging.Errorf("Failed to issue confirmation token for user %d: %v", user.ID, err)
		return err
	}
	return h.Email.SendConfirmation(ctx, user, token, newUser)
}

type TokenRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ObtainToken exchanges credentials for an access and refresh token
func (h *Handler) ObtainToken(c *gin.Context) {
	var req TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.Users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		response.AbortError(c, err)
		return
	}
	if user == nil || !h.Passwords.Matches(user.PasswordHash, req.Password) {
		response.AbortError(c, apperror.Unauthorized("No active account found with the given credentials"))
		return
	}

	pair, err := h.Tokens.IssuePair(user.ID)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, pair)
}

type RefreshRequest struct {
	Refresh string `json:"refresh" binding:"required"`
}

// RefreshToken issues a new access token
func (h *Handler) RefreshToken(c *gin.Context) {
	var req RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	access, err := h.Tokens.Refresh(req.Refresh)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"access": access})
}

// CheckUsername reports whether a username is free
func (h *Handler) CheckUsername(c *gin.Context) {
	username := strings.TrimSpace(c.Query("username"))
	if username == "" {
		c.JSON(http.StatusBadRequest, response.Response{
			Success: false,
			Message: "Username is required",
			Data:    gin.H{"available": false},
		})
		return
	}

	taken, err := h.Users.UsernameExists(c.Request.Context(), username)
	if err != nil {
		response.AbortError(c, err)
		return
	}

	message := "Username is available"
	if taken {
		message = "Username is already taken"
	}
	response.MessageJSON(c, http.StatusOK, message, gin.H{"available": !taken})
}

type EmailTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// ConfirmEmail marks the address behind a confirmation token as confirmed
func (h *Handler) ConfirmEmail(c *gin.Context) {
	var req EmailTokenRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	userID, err := h.EmailTokens.ConsumeToken(ctx, services.PurposeEmailConfirmation, req.Token)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		response.AbortError(c, apperror.ValidationFailed("token", "Invalid or expired token"))
		return
	}

	user.EmailConfirmed = true
	if err := h.Users.Save(ctx, user); err != nil {
		response.AbortError(c, err)
		return
	}
	response.MessageJSON(c, http.StatusOK, "Email confirmed successfully!", nil)
}

// ResendConfirmation mails a fresh confirmation link to the caller
func (h *Handler) ResendConfirmation(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	if user.EmailConfirmed {
		response.AbortError(c, apperror.ValidationFailed("email", "Email is already confirmed"))
		return
	}

	allowed, err := h.EmailTokens.AcquireRateLimit(ctx, "resend_confirmation", user.ID, h.Config.ResendRateLimit)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	if !allowed {
		response.ErrorJSON(c, http.StatusTooManyRequests, "Please wait before requesting another confirmation email")
		return
	}

	if err := h.sendConfirmation(c, user, false); err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to send confirmation email")
		return
	}
	response.MessageJSON(c, http.StatusOK, "Confirmation email sent successfully", nil)
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// RequestPasswordReset mails a reset link if the address belongs to a user.
// The response never reveals whether it does.
func (h *Handler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	const message = "If an account exists for this email, a reset link has been sent"

	user, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			response.AbortError(c, err)
			return
		}
		response.MessageJSON(c, http.StatusOK, message, nil)
		return
	}

	token, err := h.EmailTokens.IssueToken(ctx, services.PurposePasswordReset, user.ID, h.Config.PasswordResetTTL)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	_ = h.Email.SendPasswordReset(ctx, user, token, h.Config.PasswordResetTTL)

	response.MessageJSON(c, http.StatusOK, message, nil)
}

type PasswordResetConfirmRequest struct {
	Token              string `json:"token" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required,min=8,max=72"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required,eqfield=NewPassword"`
}

// ConfirmPasswordReset sets a new password using a reset token
func (h *Handler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	userID, err := h.EmailTokens.ConsumeToken(ctx, services.PurposePasswordReset, req.Token)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		response.AbortError(c, apperror.ValidationFailed("token", "Invalid or expired token"))
		return
	}

	hash, err := h.Passwords.Hash(req.NewPassword)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	user.PasswordHash = hash
	if err := h.Users.Save(ctx, user); err != nil {
		response.AbortError(c, err)
		return
	}
	response.MessageJSON(c, http.StatusOK, "Password has been reset", nil)
}
