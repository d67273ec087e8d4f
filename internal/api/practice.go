package api

import (
	"net/http"
	"time"

	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/models"
	"practice-journal-api/internal/response"
	"practice-journal-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

// PracticeItemRequest is used for create and update; omitted fields keep
// their current (or default) value.
type PracticeItemRequest struct {
	Date            *string  `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Activity        *string  `json:"activity"`
	Notes           *string  `json:"notes"`
	Rating          *int     `json:"rating" binding:"omitempty,min=0,max=5"`
	Duration        *int     `json:"duration" binding:"omitempty,min=1,max=180"`
	Tags            []string `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	TeacherFeedback *string  `json:"teacher_feedback"`
	PointsAwarded   *int     `json:"points_awarded" binding:"omitempty,min=0,max=5"`
}

func (r *PracticeItemRequest) apply(item *models.PracticeItem) {
	if r.Date != nil {
		item.Date = parseDate(*r.Date, time.Time(item.Date))
	}
	if r.Activity != nil {
		item.Activity = *r.Activity
	}
	if r.Notes != nil {
		item.Notes = *r.Notes
	}
	if r.Rating != nil {
		item.Rating = *r.Rating
	}
	if r.Duration != nil {
		item.Duration = *r.Duration
	}
	if r.Tags != nil {
		item.Tags = datatypes.JSONSlice[string](r.Tags)
	}
	if r.TeacherFeedback != nil {
		item.TeacherFeedback = *r.TeacherFeedback
	}
	if r.PointsAwarded != nil {
		item.PointsAwarded = *r.PointsAwarded
	}
}

func (h *Handler) ListPracticeItems(c *gin.Context) {
	items, err := h.Practice.ListByStudent(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, items)
}

// CreatePracticeItem logs a session and awards any streak achievements it completes
func (h *Handler) CreatePracticeItem(c *gin.Context) {
	var req PracticeItemRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	user, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}

	item := &models.PracticeItem{
		StudentID: user.ID,
		Date:      datatypes.Date(todayIn(user.Timezone)),
		Tags:      datatypes.JSONSlice[string]{},
	}
	req.apply(item)
	if err := h.Practice.Create(ctx, item); err != nil {
		response.AbortError(c, err)
		return
	}

	earned, err := h.Achievements.Award(ctx, user)
	if err != nil {
		// the session is saved; achievements catch up on the next one
		logging.Errorf("Failed to compute achievements for user %d: %v", user.ID, err)
	} else if len(earned) > 0 {
		if err := h.Users.Save(ctx, user); err != nil {
			logging.Errorf("Failed to save achievements for user %d: %v", user.ID, err)
		}
	}

	response.MessageJSON(c, http.StatusCreated, "Practice item created", gin.H{
		"item":             item,
		"new_achievements": earned,
	})
}

func (h *Handler) GetPracticeItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := h.Practice.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, item)
}

func (h *Handler) UpdatePracticeItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req PracticeItemRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	item, err := h.Practice.Get(ctx, middleware.UserID(c), id)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	req.apply(item)
	if err := h.Practice.Save(ctx, item); err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, item)
}

func (h *Handler) DeletePracticeItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Practice.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.AbortError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
