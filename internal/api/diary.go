package api

import (
	"net/http"

	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/models"
	"practice-journal-api/internal/response"

	"github.com/gin-gonic/gin"
)

type CreateDiaryEntryRequest struct {
	Title string `json:"title" binding:"required,max=50"`
	Body  string `json:"body" binding:"required"`
}

type UpdateDiaryEntryRequest struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=50"`
	Body  *string `json:"body" binding:"omitempty,min=1"`
}

func (h *Handler) ListDiaryEntries(c *gin.Context) {
	entries, err := h.Diary.ListByAuthor(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, entries)
}

func (h *Handler) CreateDiaryEntry(c *gin.Context) {
	var req CreateDiaryEntryRequest
	if !bindJSON(c, &req) {
		return
	}

	entry := &models.DiaryEntry{
		AuthorID: middleware.UserID(c),
		Title:    req.Title,
		Body:     req.Body,
	}
	if err := h.Diary.Create(c.Request.Context(), entry); err != nil {
		response.AbortError(c, err)
		return
	}
	response.MessageJSON(c, http.StatusCreated, "Diary entry created", entry)
}

func (h *Handler) GetDiaryEntry(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	entry, err := h.Diary.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, entry)
}

func (h *Handler) UpdateDiaryEntry(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateDiaryEntryRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	entry, err := h.Diary.Get(ctx, middleware.UserID(c), id)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	if req.Title != nil {
		entry.Title = *req.Title
	}
	if req.Body != nil {
		entry.Body = *req.Body
	}
	if err := h.Diary.Save(ctx, entry); err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, entry)
}

func (h *Handler) DeleteDiaryEntry(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.Diary.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		response.AbortError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
