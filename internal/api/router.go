package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"factory-status-backend/config"
	"factory-status-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.RequestLogger(h.log), mw.CORS(cfg.CORSOrigins))

	r.GET("/health", h.Health)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader))
	api.Use(mw.Cache(cacheStore, ttl))
	{
		f := api.Group("/factory")
		f.GET("/stages/health", h.GetStagesHealth)
		f.GET("/stages/:stage/health", h.GetStageHealth)
		f.GET("/stages/:stage/output", h.GetStageOutput)
		f.GET("/output", h.GetAllStagesOutput)
		f.PUT("/devices/:device/health", h.PutDeviceHealth)
		f.POST("/devices/:device/metrics", h.PostDeviceMetrics)

		sc := api.Group("/supply-chain")
		sc.GET("/status", h.GetCurrentStatus)
		sc.GET("/status/:date", h.GetStatusForDate)
		sc.GET("/targets/:date", h.GetTarget)
		sc.POST("/targets", h.PostTarget)
		sc.GET("/stream", h.StreamStatus)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
