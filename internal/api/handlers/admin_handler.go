package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tawafuqapp/tawafuq/internal/eventlog"
	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/services"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

type AdminHandler struct {
	compat services.CompatibilityService
	events eventlog.Recorder
}

func NewAdminHandler(compat services.CompatibilityService, events eventlog.Recorder) *AdminHandler {
	return &AdminHandler{compat: compat, events: events}
}

func (h *AdminHandler) Events(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 1000 {
			writeError(c, utils.E(utils.CodeInvalidArgument, "AdminHandler.Events", "limit must be between 1 and 1000", err))
			return
		}
		limit = n
	}

	f := eventlog.Filter{
		MatchID: c.Query("match_id"),
		UserID:  c.Query("user_id"),
		To:      models.Step(c.Query("to_step")),
		Limit:   limit,
	}

	out, err := h.events.Recent(c.Request.Context(), f)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "AdminHandler.Events", "failed to query events", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func (h *AdminHandler) Rescore(c *gin.Context) {
	submitted, err := h.compat.RescoreAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"jobs_submitted": submitted})
}
