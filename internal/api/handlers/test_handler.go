package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tawafuqapp/tawafuq/internal/services"
	"github.com/tawafuqapp/tawafuq/internal/utils"
	"gorm.io/datatypes"
)

type TestHandler struct {
	tests  services.TestResultService
	compat services.CompatibilityService
}

func NewTestHandler(tests services.TestResultService, compat services.CompatibilityService) *TestHandler {
	return &TestHandler{tests: tests, compat: compat}
}

type SubmitTestRequest struct {
	TestType string         `json:"test_type" binding:"required"` // pre_marriage|disc|clinical|16pf
	Score    *float64       `json:"score"`
	Answers  datatypes.JSON `json:"answers"`
}

func (h *TestHandler) Submit(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TestHandler.Submit", "invalid request body", err))
		return
	}

	row, err := h.tests.Submit(c.Request.Context(), userID, req.TestType, req.Score, req.Answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, row)
}

func (h *TestHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	out, err := h.tests.History(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (h *TestHandler) TraitsMe(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	profile, err := h.compat.Traits(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}
