package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"factory-status-backend/internal/parse"
)

// GetCurrentStatus handles GET /api/supply-chain/status.
func (h *Handler) GetCurrentStatus(c *gin.Context) {
	status, err := h.supply.CurrentStatus(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetStatusForDate handles GET /api/supply-chain/status/{date}.
func (h *Handler) GetStatusForDate(c *gin.Context) {
	date, err := parse.ParseDate(c.Param("date"), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}
	status, err := h.supply.Status(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetTarget handles GET /api/supply-chain/targets/{date}.
func (h *Handler) GetTarget(c *gin.Context) {
	date, err := parse.ParseDate(c.Param("date"), h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}
	target, err := h.supply.DailyTarget(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}

type setTargetRequest struct {
	Date        string `json:"date" binding:"required"`
	TargetUnits *int   `json:"targetUnits" binding:"required"`
}

// PostTarget handles POST /api/supply-chain/targets.
func (h *Handler) PostTarget(c *gin.Context) {
	var req setTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := parse.ParseDate(req.Date, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
		return
	}

	target, err := h.supply.SetDailyTarget(c.Request.Context(), date, *req.TargetUnits)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, target)
}
