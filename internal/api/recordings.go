package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"practice-journal-api/internal/apperror"
	"practice-journal-api/internal/middleware"
	"practice-journal-api/internal/models"
	"practice-journal-api/internal/response"
	"practice-journal-api/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type UploadURLRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required,max=100"`
}

// CreateUploadURL returns a presigned PUT URL under the caller's prefix
func (h *Handler) CreateUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if !bindJSON(c, &req) {
		return
	}

	key, err := services.RecordingKey(middleware.UserID(c), req.FileName)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	url, err := h.Storage.PresignUpload(c.Request.Context(), key, req.ContentType)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, gin.H{"upload_url": url, "key": key})
}

type SaveRecordingRequest struct {
	S3Key    string   `json:"s3_key" binding:"required,max=1024"`
	Title    string   `json:"title" binding:"required,max=255"`
	Notes    string   `json:"notes"`
	Tags     []string `json:"tags" binding:"omitempty,max=20,dive,max=50"`
	Date     string   `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Location string   `json:"location" binding:"max=255"`
}

// SaveRecording stores metadata for an uploaded object
func (h *Handler) SaveRecording(c *gin.Context) {
	var req SaveRecordingRequest
	if !bindJSON(c, &req) {
		return
	}
	userID := middleware.UserID(c)

	if !strings.HasPrefix(req.S3Key, fmt.Sprintf("recordings/%d/", userID)) {
		response.AbortError(c, apperror.ValidationFailed("s3_key", "Key does not belong to this user"))
		return
	}

	tags := datatypes.JSONSlice[string]{}
	if req.Tags != nil {
		tags = datatypes.JSONSlice[string](req.Tags)
	}
	rec := &models.AudioRecording{
		UserID:   userID,
		S3Key:    req.S3Key,
		Title:    req.Title,
		Notes:    req.Notes,
		Tags:     tags,
		Date:     parseDate(req.Date, time.Now().UTC()),
		Location: req.Location,
	}
	ctx := c.Request.Context()
	if err := h.Recordings.Create(ctx, rec); err != nil {
		response.AbortError(c, err)
		return
	}
	response.MessageJSON(c, http.StatusCreated, "Recording saved", h.recordingViews(ctx, []models.AudioRecording{*rec})[0])
}

// ListRecordings lists the caller's recordings with download URLs
func (h *Handler) ListRecordings(c *gin.Context) {
	ctx := c.Request.Context()
	recs, err := h.Recordings.ListByUser(ctx, middleware.UserID(c))
	if err != nil {
		response.AbortError(c, err)
		return
	}
	response.SuccessJSON(c, h.recordingViews(ctx, recs))
}

// DeleteRecording removes the stored object, then the metadata
func (h *Handler) DeleteRecording(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	rec, err := h.Recordings.Get(ctx, userID, id)
	if err != nil {
		response.AbortError(c, err)
		return
	}
	if rec.S3Key != "" {
		if err := h.Storage.Delete(ctx, rec.S3Key); err != nil {
			response.AbortError(c, err)
			return
		}
	}
	if err := h.Recordings.Delete(ctx, userID, id); err != nil {
		response.AbortError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
