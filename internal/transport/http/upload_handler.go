package handlers

import (
	"net/http"

	"github.com/waste3d/courseplatform-api/internal/application/usecase"

	"github.com/gin-gonic/gin"
)

// multipart headers and the text fields next to the file
const formOverhead = 1 << 20

type UploadHandler struct {
	uploads  *usecase.UploadUseCase
	maxBytes int64
}

func NewUploadHandler(uploads *usecase.UploadUseCase, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploads: uploads, maxBytes: maxBytes}
}

// POST /upload
func (h *UploadHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+formOverhead)

	fh, err := c.FormFile("file")
	if err != nil {
		if tooLarge(err) {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fh.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	res, err := h.uploads.Upload(c.Request.Context(), usecase.UploadInput{
		Kind: c.PostForm("kind"),
		Slug: c.PostForm("slug"),
		Type: c.PostForm("type"),
		ID:   c.PostForm("id"),
		Size: fh.Size,
		Body: file,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}
