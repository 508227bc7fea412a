package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tasklist/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const uploadField = "file"

// UploadHandler stores image uploads on local disk and hands back the URL
// they are served under.
type UploadHandler struct {
	dir     string
	maxSize int64
	prefix  string // public path prefix, e.g. "/uploads"
}

// NewUploadHandler returns a handler writing into dir, rejecting files over
// maxSize bytes.
func NewUploadHandler(dir string, maxSize int64, prefix string) *UploadHandler {
	return &UploadHandler{dir: dir, maxSize: maxSize, prefix: prefix}
}

// Upload godoc
// @Summary      Upload an image
// @Tags         upload
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "Image file (max 5 MiB)"
// @Success      200   {object}  dto.UploadResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	file, err := c.FormFile(uploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	// Validate before anything touches disk.
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only image uploads are allowed"})
		return
	}
	if file.Size > h.maxSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("file exceeds %d bytes", h.maxSize)})
		return
	}

	if err := os.MkdirAll(h.dir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	name := uploadName(file.Filename)
	if err := c.SaveUploadedFile(file, filepath.Join(h.dir, name)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		Success: true,
		Message: "uploaded",
		URL:     fmt.Sprintf("%s://%s%s/%s", requestScheme(c), c.Request.Host, h.prefix, name),
	})
}

// uploadName builds a collision-resistant file name: time prefix, random
// suffix, original extension. Only the extension of the client name is kept.
func uploadName(original string) string {
	ext := filepath.Ext(filepath.Base(original))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("file-%d-%s%s", time.Now().UnixMilli(), suffix, ext)
}

func requestScheme(c *gin.Context) string {
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	if c.Request.TLS != nil {
		return "https"
	}
	return "http"
}
