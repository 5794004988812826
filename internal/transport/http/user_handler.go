package handlers

import (
	"net/http"

	"github.com/waste3d/courseplatform-api/internal/application/usecase"
	"github.com/waste3d/courseplatform-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	videos *usecase.VideoUseCase
}

func NewUserHandler(videos *usecase.VideoUseCase) *UserHandler {
	return &UserHandler{videos: videos}
}

// GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// GET /users/me/progress
func (h *UserHandler) GetProgress(c *gin.Context) {
	res, err := h.videos.RecentProgress(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
