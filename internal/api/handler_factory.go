package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"factory-status-backend/internal/model"
	"factory-status-backend/internal/parse"
)

// GetStagesHealth handles GET /api/factory/stages/health.
func (h *Handler) GetStagesHealth(c *gin.Context) {
	stages, err := h.factory.StagesHealth(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stages)
}

// GetStageHealth handles GET /api/factory/stages/{stage}/health, where stage is the stage id.
func (h *Handler) GetStageHealth(c *gin.Context) {
	stageID, err := strconv.ParseInt(c.Param("stage"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stage ID"})
		return
	}
	stage, err := h.factory.StageHealth(c.Request.Context(), stageID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stage)
}

type updateHealthRequest struct {
	Operational *bool    `json:"operational" binding:"required"`
	HealthScore *float64 `json:"healthScore" binding:"required"`
}

// PutDeviceHealth handles PUT /api/factory/devices/{device}/health.
func (h *Handler) PutDeviceHealth(c *gin.Context) {
	deviceID, err := strconv.ParseInt(c.Param("device"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return
	}
	var req updateHealthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.factory.UpdateDeviceHealth(c.Request.Context(), deviceID, *req.Operational, *req.HealthScore); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          deviceID,
		"operational": *req.Operational,
		"healthScore": *req.HealthScore,
	})
}

type recordMetricsRequest struct {
	UnitsProduced    *int    `json:"unitsProduced" binding:"required"`
	DefectiveUnits   int     `json:"defectiveUnits"`
	CycleTimeMinutes float64 `json:"cycleTimeMinutes" binding:"required"`
}

type metricResponse struct {
	ID               int64     `json:"id"`
	DeviceID         int64     `json:"deviceId"`
	RecordedAt       time.Time `json:"recordedAt"`
	UnitsProduced    int       `json:"unitsProduced"`
	DefectiveUnits   int       `json:"defectiveUnits"`
	CycleTimeMinutes float64   `json:"cycleTimeMinutes"`
}

func newMetricResponse(rec model.MetricRecord) metricResponse {
	return metricResponse{
		ID:               rec.ID,
		DeviceID:         rec.DeviceID,
		RecordedAt:       rec.RecordedAt,
		UnitsProduced:    rec.UnitsProduced,
		DefectiveUnits:   rec.DefectiveUnits,
		CycleTimeMinutes: rec.CycleTimeMinutes,
	}
}

// PostDeviceMetrics handles POST /api/factory/devices/{device}/metrics.
func (h *Handler) PostDeviceMetrics(c *gin.Context) {
	deviceID, err := strconv.ParseInt(c.Param("device"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid device ID"})
		return
	}
	var req recordMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.factory.RecordMetrics(c.Request.Context(), deviceID, *req.UnitsProduced, req.DefectiveUnits, req.CycleTimeMinutes)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMetricResponse(rec))
}

// GetStageOutput handles GET /api/factory/stages/{stage}/output, where stage is the sequence order.
func (h *Handler) GetStageOutput(c *gin.Context) {
	order, err := strconv.Atoi(c.Param("stage"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid stage sequence order"})
		return
	}
	start, end, ok := h.timeWindow(c)
	if !ok {
		return
	}

	out, err := h.output.StageOutput(c.Request.Context(), order, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GetAllStagesOutput handles GET /api/factory/output.
func (h *Handler) GetAllStagesOutput(c *gin.Context) {
	start, end, ok := h.timeWindow(c)
	if !ok {
		return
	}

	outputs, err := h.output.AllStagesOutput(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outputs)
}

// timeWindow reads the startTime and endTime query parameters. On failure it
// writes a 400 response and reports false.
func (h *Handler) timeWindow(c *gin.Context) (time.Time, time.Time, bool) {
	rawStart, rawEnd := c.Query("startTime"), c.Query("endTime")
	if rawStart == "" || rawEnd == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startTime and endTime are required"})
		return time.Time{}, time.Time{}, false
	}
	start, err := parse.ParseDateTime(rawStart, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid startTime: " + err.Error()})
		return time.Time{}, time.Time{}, false
	}
	end, err := parse.ParseDateTime(rawEnd, h.loc)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid endTime: " + err.Error()})
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
