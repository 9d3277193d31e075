package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tawafuqapp/tawafuq/internal/services"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

type PhotoHandler struct {
	svc services.PhotoService
}

func NewPhotoHandler(svc services.PhotoService) *PhotoHandler {
	return &PhotoHandler{svc: svc}
}

func (h *PhotoHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "PhotoHandler.Upload", "missing multipart field 'file'", err))
		return
	}
	if fh.Size <= 0 || fh.Size > 5<<20 {
		writeError(c, utils.E(utils.CodeInvalidArgument, "PhotoHandler.Upload", "file too large (max 5MB)", nil))
		return
	}

	ct := fh.Header.Get("Content-Type")
	ct = strings.TrimSpace(strings.Split(ct, ";")[0])
	if !allowedPhotoTypes[ct] {
		writeError(c, utils.E(utils.CodeInvalidArgument, "PhotoHandler.Upload", "only jpeg, png or webp images are allowed", nil))
		return
	}

	file, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "PhotoHandler.Upload", "failed to open upload", err))
		return
	}
	defer file.Close()

	row, err := h.svc.Upload(c.Request.Context(), userID, fh.Filename, ct, int(fh.Size), file)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *PhotoHandler) ListOwn(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.ListOwn(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": out})
}

func (h *PhotoHandler) ListForMatch(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.svc.ListForMatch(c.Request.Context(), c.Param("match_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"photos": out})
}
