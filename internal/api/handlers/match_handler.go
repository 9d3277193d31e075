package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tawafuqapp/tawafuq/internal/models"
	"github.com/tawafuqapp/tawafuq/internal/services"
	"github.com/tawafuqapp/tawafuq/internal/utils"
)

type MatchHandler struct {
	matches services.MatchService
	compat  services.CompatibilityService
}

func NewMatchHandler(matches services.MatchService, compat services.CompatibilityService) *MatchHandler {
	return &MatchHandler{matches: matches, compat: compat}
}

func (h *MatchHandler) RequestView(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	m, err := h.matches.RequestView(c.Request.Context(), userID, c.Param("target_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *MatchHandler) Approve(c *gin.Context) {
	h.action(c, h.matches.Approve)
}

func (h *MatchHandler) Reject(c *gin.Context) {
	h.action(c, h.matches.Reject)
}

func (h *MatchHandler) Cancel(c *gin.Context) {
	h.action(c, h.matches.CancelRequest)
}

func (h *MatchHandler) Dislike(c *gin.Context) {
	h.action(c, h.matches.Dislike)
}

func (h *MatchHandler) RequestPhotos(c *gin.Context) {
	h.action(c, h.matches.RequestPhotos)
}

func (h *MatchHandler) RequestFullData(c *gin.Context) {
	h.action(c, h.matches.RequestFullData)
}

func (h *MatchHandler) StartChat(c *gin.Context) {
	h.action(c, h.matches.StartChat)
}

func (h *MatchHandler) Get(c *gin.Context) {
	h.action(c, h.matches.Get)
}

func (h *MatchHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.matches.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}

func (h *MatchHandler) Quota(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	view, chat, err := h.matches.QuotaStatus(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"view_remaining": view,
		"chat_remaining": chat,
	})
}

func (h *MatchHandler) Suggestions(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := 10
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 50 {
			writeError(c, utils.E(utils.CodeInvalidArgument, "MatchHandler.Suggestions", "limit must be between 1 and 50", err))
			return
		}
		limit = n
	}

	out, err := h.compat.Suggestions(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": out})
}

// action runs one (matchID, actorID) service call and writes the fresh
// match snapshot.
func (h *MatchHandler) action(c *gin.Context, fn func(ctx context.Context, matchID, actorID string) (*models.Match, error)) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	m, err := fn(c.Request.Context(), c.Param("match_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}
