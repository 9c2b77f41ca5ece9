package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"factory-status-backend/internal/factory"
	"factory-status-backend/internal/logger"
	"factory-status-backend/internal/model"
	"factory-status-backend/internal/supplychain"
)

// SubscriptionStore persists web push subscriptions.
type SubscriptionStore interface {
	HasSubscription(ctx context.Context, endpoint string) (bool, error)
	UpsertSubscription(ctx context.Context, sub model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the handlers need.
type Deps struct {
	// Context lives as long as the server. Long-lived handlers such as the
	// status stream stop when it is cancelled. Nil means context.Background().
	Context        context.Context
	Factory        *factory.Service
	Output         *factory.Aggregator
	SupplyChain    *supplychain.Service
	Subscriptions  SubscriptionStore
	Health         Pinger
	WebPush        *webpush.Options
	Location       *time.Location
	StreamInterval time.Duration
	Log            *logger.Logger
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	ctx            context.Context
	factory        *factory.Service
	output         *factory.Aggregator
	supply         *supplychain.Service
	subs           SubscriptionStore
	health         Pinger
	webpush        *webpush.Options
	loc            *time.Location
	streamInterval time.Duration
	log            *logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	ctx := d.Context
	if ctx == nil {
		ctx = context.Background()
	}
	interval := d.StreamInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Handler{
		ctx:            ctx,
		factory:        d.Factory,
		output:         d.Output,
		supply:         d.SupplyChain,
		subs:           d.Subscriptions,
		health:         d.Health,
		webpush:        d.WebPush,
		loc:            loc,
		streamInterval: interval,
		log:            log,
	}
}

// Health reports liveness and database reachability.
func (h *Handler) Health(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": "database unreachable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError maps domain errors onto HTTP status codes.
func (h *Handler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, factory.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, factory.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
