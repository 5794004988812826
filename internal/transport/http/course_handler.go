package handlers

import (
	"net/http"
	"strconv"

	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courses *usecase.CourseUseCase
}

func NewCourseHandler(courses *usecase.CourseUseCase) *CourseHandler {
	return &CourseHandler{courses: courses}
}

type courseReq struct {
	Title        string `json:"title" binding:"required,max=200"`
	Slug         string `json:"slug" binding:"max=160"`
	Description  string `json:"description"`
	Difficulty   string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	ThumbnailKey string `json:"thumbnail_key"`
	IsPublished  bool   `json:"is_published"`
}

type coursePatchReq struct {
	Title        *string `json:"title" binding:"omitempty,max=200"`
	Slug         *string `json:"slug" binding:"omitempty,max=160"`
	Description  *string `json:"description"`
	Difficulty   *string `json:"difficulty" binding:"omitempty,oneof=beginner intermediate advanced"`
	ThumbnailKey *string `json:"thumbnail_key"`
	IsPublished  *bool   `json:"is_published"`
}

// GET /courses
func (h *CourseHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	res, err := h.courses.List(c.Request.Context(), middleware.CurrentUser(c), usecase.CourseQuery{
		Search:     c.Query("search"),
		Difficulty: c.Query("difficulty"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /courses/:id
func (h *CourseHandler) GetOne(c *gin.Context) {
	res, err := h.courses.Get(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req courseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.courses.Create(c.Request.Context(), usecase.CourseInput{
		Title:        req.Title,
		Slug:         req.Slug,
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		ThumbnailKey: req.ThumbnailKey,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// PUT /courses/:id
func (h *CourseHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req coursePatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.courses.Update(c.Request.Context(), id, usecase.CoursePatch{
		Title:        req.Title,
		Slug:         req.Slug,
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		ThumbnailKey: req.ThumbnailKey,
		IsPublished:  req.IsPublished,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// DELETE /courses/:id
func (h *CourseHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.courses.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// POST /courses/:id/enroll
func (h *CourseHandler) Enroll(c *gin.Context) {
	res, err := h.courses.Enroll(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
