package api

import (
	"context"
	"net/http"
	"strings"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/models"
	"practice-journal-api/internal/response"
	"practice-journal-api/pkg/logging"

	"github.com/gin-gonic/gin"
)

type RecordingView struct {
	models.AudioRecording
	URL *string `json:"url"`
}

// UserDetail is the full profile returned to its owner.
type UserDetail struct {
	*models.User
	PracticeItems    []models.PracticeItem `json:"practice_items"`
	Recordings       []RecordingView       `json:"recordings"`
	Goals            []models.Goal         `json:"goals"`
	DiaryEntries     []uint                `json:"diary_entries"`
	FullAchievements []models.Achievement  `json:"full_achievements"`
}

func (h *Handler) userDetail(ctx context.Context, user *models.User) (*UserDetail, error) {
	items, err := h.Practice.ListByStudent(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	recs, err := h.Recordings.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	goals, err := h.Goals.ListAssignedTo(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	entries, err := h.Diary.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	entryIDs := make([]uint, 0, len(entries))
	for _, e := range entries {
		entryIDs = append(entryIDs, e.ID)
	}

	return &UserDetail{
		User:             user,
		PracticeItems:    items,
		Recordings:       h.recordingViews(ctx, recs),
		Goals:            goals,
		DiaryEntries:     entryIDs,
		FullAchievements: models.AchievementsByID(user.Achievements),
	}, nil
}

func (h *Handler) recordingViews(ctx context.Context, recs []models.AudioRecording) []RecordingView {
	views := make([]RecordingView, 0, len(recs))
	for _, rec := range recs {
		view := RecordingView{AudioRecording: rec}
		if rec.S3Key != "" {
			url, err := h.Storage.PresignDownload(ctx, rec.S3Key)
			if err != nil {
				logging.Errorf("Failed to presign recording %d: %v", rec.ID, err)
			} else {
				view.URL = &url
			}
		}
		views = append(views, view)
	}
	return views
}

// Protected is a simple authenticated endpoint
func (h *Handler) Protected(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.MessageJSON(c, http.StatusOK, "Hello, "+user.Username+"!", nil)
}

// CurrentUser returns the caller's full profile
func (h *Handler) CurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	detail, err := h.userDetail(ctx, user)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, detail)
}

// ListUsers only ever lists the caller
func (h *Handler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	detail, err := h.userDetail(ctx, user)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, []*UserDetail{detail})
}

// GetUser returns a profile; users can only see their own
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if id != middleware.UserID(c) {
		response.AbortError(c, apperror.NotFound("user", id))
		return
	}
	h.CurrentUser(c)
}

type UpdateUserRequest struct {
	Username           *string `json:"username" binding:"omitempty,min=1,max=150"`
	Email              *string `json:"email" binding:"omitempty,email,max=254"`
	FirstName          *string `json:"first_name" binding:"omitempty,max=150"`
	LastName           *string `json:"last_name" binding:"omitempty,max=150"`
	IsTeacher          *bool   `json:"is_teacher"`
	DailyTarget        *int    `json:"daily_target" binding:"omitempty,min=0"`
	Timezone           *string `json:"timezone" binding:"omitempty,timezone"`
	CurrentPassword    *string `json:"current_password"`
	NewPassword        *string `json:"new_password" binding:"omitempty,min=8,max=72"`
	NewPasswordConfirm *string `json:"new_password_confirm"`
}

// UpdateUser edits the caller's own profile. Changing the password needs
// the current one; changing the email resets confirmation.
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if id != middleware.UserID(c) {
		response.AbortError(c, apperror.Forbidden("You can only update your own profile"))
		return
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		response.AbortError(c, err)
		return
	}

	if req.NewPassword != nil || req.NewPasswordConfirm != nil {
		if err := h.checkPasswordChange(user, &req); err != nil {
			response.AbortError(c, err)
			return
		}
		hash, err := h.Passwords.Hash(*req.NewPassword)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		user.PasswordHash = hash
	}

	if req.Username != nil && *req.Username != user.Username {
		name := strings.TrimSpace(*req.Username)
		taken, err := h.Users.UsernameExists(ctx, name)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		if taken {
			response.AbortError(c, apperror.Conflict("username", "A user with this username already exists"))
			return
		}
		user.Username = name
	}

	emailChanged := false
	if req.Email != nil && !strings.EqualFold(*req.Email, user.Email) {
		taken, err := h.Users.EmailExists(ctx, *req.Email, user.ID)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		if taken {
			response.AbortError(c, apperror.Conflict("email", "A user with this email already exists"))
			return
		}
		user.Email = strings.TrimSpace(*req.Email)
		user.EmailConfirmed = false
		emailChanged = true
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.IsTeacher != nil {
		user.IsTeacher = *req.IsTeacher
	}
	if req.DailyTarget != nil {
		user.DailyTarget = *req.DailyTarget
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}

	if err := h.Users.Save(ctx, user); err != nil {
		response.AbortError(c, err)
		return
	}

	message := "User updated successfully"
	if emailChanged {
		_ = h.sendConfirmation(c, user, false)
		message = "User updated successfully. Please check your new email to confirm the change."
	}
	response.MessageJSON(c, http.StatusOK, message, gin.H{"user": summarize(user)})
}

func (h *Handler) checkPasswordChange(user *models.User, req *UpdateUserRequest) error {
	if req.CurrentPassword == nil || *req.CurrentPassword == "" {
		return apperror.ValidationFailed("current_password", "Current password is required to change password.")
	}
	if !h.Passwords.Matches(user.PasswordHash, *req.CurrentPassword) {
		return apperror.ValidationFailed("current_password", "Current password is incorrect.")
	}
	if req.NewPassword == nil || *req.NewPassword == "" {
		return apperror.ValidationFailed("new_password", "New password is required.")
	}
	if req.NewPasswordConfirm == nil || *req.NewPassword != *req.NewPasswordConfirm {
		return apperror.ValidationFailed("new_password_confirm", "New passwords do not match.")
	}
	return nil
}

// DeleteAccount removes the caller's stored recordings, then the account
// and everything it owns.
func (h *Handler) DeleteAccount(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	recs, err := h.Recordings.ListByUser(ctx, userID)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	for _, rec := range recs {
		if rec.S3Key == "" {
			continue
		}
		if err := h.Storage.Delete(ctx, rec.S3Key); err != nil {
			logging.Errorf("Error deleting stored recording %s: %v", rec.S3Key, err)
		}
	}

	if err := h.Users.Delete(ctx, userID); err != nil {
		response.AbortError(c, err)
		return
	}
	logging.Infof("Account %d deleted", userID)
	response.MessageJSON(c, http.StatusOK, "Account deleted successfully", nil)
}
