package handlers

import (
	"log"
	"net/http"

	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/middleware"
	"github.com/waste3d/courseplatform-api/internal/streaming"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VideoHandler struct {
	videos *usecase.VideoUseCase
	relay  *streaming.Relay
}

func NewVideoHandler(videos *usecase.VideoUseCase, relay *streaming.Relay) *VideoHandler {
	return &VideoHandler{videos: videos, relay: relay}
}

type videoReq struct {
	CourseID     string `json:"course_id" binding:"required,uuid"`
	Title        string `json:"title" binding:"required,max=200"`
	Description  string `json:"description"`
	Duration     int    `json:"duration" binding:"min=0"`
	StorageKey   string `json:"storage_key" binding:"max=255"`
	ThumbnailKey string `json:"thumbnail_key"`
	OrderIndex   *int   `json:"order_index" binding:"omitempty,min=0"`
	IsPublished  bool   `json:"is_published"`
	IsFree       bool   `json:"is_free"`
}

type videoPatchReq struct {
	Title        *string `json:"title" binding:"omitempty,max=200"`
	Description  *string `json:"description"`
	Duration     *int    `json:"duration" binding:"omitempty,min=0"`
	StorageKey   *string `json:"storage_key" binding:"omitempty,max=255"`
	ThumbnailKey *string `json:"thumbnail_key"`
	OrderIndex   *int    `json:"order_index" binding:"omitempty,min=0"`
	IsPublished  *bool   `json:"is_published"`
	IsFree       *bool   `json:"is_free"`
}

type likeReq struct {
	VideoID string `json:"video_id" binding:"required,uuid"`
}

type progressReq struct {
	SecondsWatched *int `json:"seconds_watched" binding:"required,min=0"`
}

// GET /videos
func (h *VideoHandler) List(c *gin.Context) {
	var courseID *uuid.UUID
	if raw := c.Query("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid course_id"})
			return
		}
		courseID = &id
	}
	res, err := h.videos.List(c.Request.Context(), middleware.CurrentUser(c), courseID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /videos/:id
func (h *VideoHandler) GetOne(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.videos.Get(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /videos
func (h *VideoHandler) Create(c *gin.Context) {
	var req videoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.videos.Create(c.Request.Context(), usecase.VideoInput{
		CourseID:     uuid.MustParse(req.CourseID),
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		StorageKey:   req.StorageKey,
		ThumbnailKey: req.ThumbnailKey,
		OrderIndex:   req.OrderIndex,
		IsPublished:  req.IsPublished,
		IsFree:       req.IsFree,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// PUT /videos/:id
func (h *VideoHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req videoPatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.videos.Update(c.Request.Context(), id, usecase.VideoPatch{
		Title:        req.Title,
		Description:  req.Description,
		Duration:     req.Duration,
		StorageKey:   req.StorageKey,
		ThumbnailKey: req.ThumbnailKey,
		OrderIndex:   req.OrderIndex,
		IsPublished:  req.IsPublished,
		IsFree:       req.IsFree,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE /videos/:id
func (h *VideoHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.videos.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /videos/like
func (h *VideoHandler) Like(c *gin.Context) {
	var req likeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.videos.ToggleLike(c.Request.Context(), middleware.CurrentUser(c), uuid.MustParse(req.VideoID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /videos/:id/progress
func (h *VideoHandler) SaveProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req progressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.videos.SaveProgress(c.Request.Context(), middleware.CurrentUser(c), id, *req.SecondsWatched)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /videos/:id/progress
func (h *VideoHandler) GetProgress(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	res, err := h.videos.GetProgress(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET|HEAD /videos/stream/*key
func (h *VideoHandler) Stream(c *gin.Context) {
	key, err := h.videos.AuthorizeStream(c.Request.Context(), middleware.CurrentUser(c), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.relay.Serve(c.Writer, c.Request, key); err != nil {
		if c.Writer.Written() {
			// response already committed; usually the client went away
			log.Printf("stream %s: %v", key, err)
			return
		}
		h := c.Writer.Header()
		h.Del("Content-Length")
		h.Del("Content-Range")
		respondError(c, err)
	}
}
