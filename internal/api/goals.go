package api

import (
	"errors"
	"net/http"
	"time"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/models"
	"practice-journal-api/internal/response"

	"github.com/gin-gonic/gin"
)

type CreateGoalRequest struct {
	Category    string `json:"category" binding:"omitempty,oneof=streak time sessions"`
	Title       string `json:"title" binding:"required,max=100"`
	Description string `json:"description" binding:"max=300"`
	TargetCount uint   `json:"target_count" binding:"required,min=1"`
	StartDate   string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     string `json:"end_date" binding:"required,datetime=2006-01-02"`
	// Defaults to the caller; anyone else requires a teacher account
	AssignedTo *uint `json:"assigned_to"`
}

type UpdateGoalRequest struct {
	Category    *string `json:"category" binding:"omitempty,oneof=streak time sessions"`
	Title       *string `json:"title" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description" binding:"omitempty,max=300"`
	TargetCount *uint   `json:"target_count" binding:"omitempty,min=1"`
	StartDate   *string `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate     *string `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
}

func checkGoalDates(g *models.Goal) error {
	if time.Time(g.EndDate).Before(time.Time(g.StartDate)) {
		return apperror.ValidationFailed("end_date", "end_date must not be before start_date")
	}
	return nil
}

// ListGoals lists goals assigned to the caller
func (h *Handler) ListGoals(c *gin.Context) {
	goals, err := h.Goals.ListAssignedTo(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, goals)
}

// ListAssignedGoals lists goals the caller has set
func (h *Handler) ListAssignedGoals(c *gin.Context) {
	goals, err := h.Goals.ListAssignedBy(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, goals)
}

func (h *Handler) CreateGoal(c *gin.Context) {
	var req CreateGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	caller, err := h.Users.GetByID(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}

	assignee := caller.ID
	if req.AssignedTo != nil && *req.AssignedTo != caller.ID {
		if !caller.IsTeacher {
			response.AbortError(c, apperror.Forbidden("Only teachers can assign goals to other users"))
			return
		}
		if _, err := h.Users.GetByID(ctx, *req.AssignedTo); err != nil {
			if errors.Is(err, apperror.ErrNotFound) {
				err = apperror.ValidationFailed("assigned_to", "Assigned user does not exist")
			}
			response.AbortError(c, err)
			return
		}
		assignee = *req.AssignedTo
	}

	category := req.Category
	if category == "" {
		category = models.GoalCategoryStreak
	}
	goal := &models.Goal{
		Category:     category,
		Title:        req.Title,
		Description:  req.Description,
		TargetCount:  req.TargetCount,
		StartDate:    parseDate(req.StartDate, todayIn(caller.Timezone)),
		EndDate:      parseDate(req.EndDate, time.Time{}),
		AssignedToID: assignee,
		AssignedByID: &caller.ID,
	}
	if err := checkGoalDates(goal); err != nil {
		response.AbortError(c, err)
		return
	}
	if err := h.Goals.Create(ctx, goal); err != nil {
		response.AbortError(c, err)
		return
	}
	response.MessageJSON(c, http.StatusCreated, "Goal created", goal)
}

func (h *Handler) GetGoal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	goal, err := h.Goals.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, goal)
}

func (h *Handler) UpdateGoal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateGoalRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	goal, err := h.Goals.Get(ctx, middleware.UserID(c), id)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	if req.Category != nil {
		goal.Category = *req.Category
	}
	if req.Title != nil {
		goal.Title = *req.Title
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.TargetCount != nil {
		goal.TargetCount = *req.TargetCount
	}
	if req.StartDate != nil {
		goal.StartDate = parseDate(*req.StartDate, time.Time(goal.StartDate))
	}
	if req.EndDate != nil {
		goal.EndDate = parseDate(*req.EndDate, time.Time(goal.EndDate))
	}
	if err := checkGoalDates(goal); err != nil {
		response.AbortError(c, err)
		return
	}

	if err := h.Goals.Save(ctx, goal); err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, goal)
}

func (h *Handler) DeleteGoal(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Goals.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.AbortError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
