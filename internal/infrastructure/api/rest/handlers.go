package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/drawsync/pipeline/internal/application/cachemgr"
	"github.com/drawsync/pipeline/internal/domain"
)

// CacheTTLs holds the per-key-class TTL each cache-aside handler
// stores its payload under.
type CacheTTLs struct {
	LatestDraws    time.Duration
	Omission       time.Duration
	DailyStats     time.Duration
	PredictionList time.Duration
	WinRate        time.Duration
}

// DrawRepository is the subset of storage.DrawRepository the read API
// needs.
type DrawRepository interface {
	Latest(ctx context.Context, limit int) ([]domain.Draw, error)
	ByIssue(ctx context.Context, issue string) (domain.Draw, error)
}

// OmissionRepository is the subset of storage.OmissionRepository the
// read API needs.
type OmissionRepository interface {
	All(ctx context.Context) ([]domain.OmissionCounter, error)
}

// DailyStatsRepository is the subset of storage.DailyStatsRepository
// the read API needs.
type DailyStatsRepository interface {
	ByDate(ctx context.Context, date string) ([]domain.DailyStat, error)
}

// PredictionRepository is the subset of storage.PredictionRepository
// the read API needs.
type PredictionRepository interface {
	Latest(ctx context.Context, t domain.PredictionType, limit int) ([]domain.Prediction, error)
	HitRate(ctx context.Context, t domain.PredictionType, window int) (domain.HitRateSnapshot, error)
}

// HealthChecker is the subset of storage.HealthChecker the /healthz
// handler needs.
type HealthChecker interface {
	Healthy() bool
}

// CacheHealth is the subset of cache.RedisCache the /healthz handler
// needs.
type CacheHealth interface {
	Health(ctx context.Context) error
}

// Handlers wires the minimal read-only HTTP surface over the
// repositories; no component here writes, and nothing here is a bus
// subscriber.
type Handlers struct {
	draws       DrawRepository
	omission    OmissionRepository
	dailyStats  DailyStatsRepository
	predictions PredictionRepository
	dbHealth    HealthChecker
	cacheHealth CacheHealth

	cache CacheReader
	keys  cachemgr.Keys
	ttls  CacheTTLs
}

// NewHandlers builds a Handlers. cache may be nil, in which case every
// route reads straight through to its repository.
func NewHandlers(draws DrawRepository, omission OmissionRepository, dailyStats DailyStatsRepository, predictions PredictionRepository, dbHealth HealthChecker, cacheHealth CacheHealth, cache CacheReader, keys cachemgr.Keys, ttls CacheTTLs) *Handlers {
	return &Handlers{
		draws:       draws,
		omission:    omission,
		dailyStats:  dailyStats,
		predictions: predictions,
		dbHealth:    dbHealth,
		cacheHealth: cacheHealth,
		cache:       cache,
		keys:        keys,
		ttls:        ttls,
	}
}

// Register mounts every route onto the given router group.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	api := r.Group("/api")
	api.GET("/draws/latest", h.LatestDraws)
	api.GET("/draws/:issue", h.DrawByIssue)
	api.GET("/omission", h.Omission)
	api.GET("/daily-stats", h.DailyStats)
	api.GET("/predictions/:type", h.LatestPredictions)
	api.GET("/predictions/winrate/:type", h.WinRate)
}

// Healthz reports pool and cache health separately rather than a
// single ok/fail boolean.
func (h *Handlers) Healthz(c *gin.Context) {
	dbOK := h.dbHealth == nil || h.dbHealth.Healthy()

	cacheErr := error(nil)
	if h.cacheHealth != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		cacheErr = h.cacheHealth.Health(ctx)
	}

	status := http.StatusOK
	if !dbOK || cacheErr != nil {
		status = http.StatusServiceUnavailable
	}

	body := gin.H{
		"database": dbOK,
		"cache":    cacheErr == nil,
	}
	if cacheErr != nil {
		body["cache_error"] = cacheErr.Error()
	}
	c.JSON(status, body)
}

// LatestDraws serves the most recent N committed draws.
func (h *Handlers) LatestDraws(c *gin.Context) {
	limit := getQueryInt(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		respondAPIError(c, NewAPIError("INVALID_PARAMETER", "limit must be between 1 and 500", http.StatusBadRequest))
		return
	}

	draws, err := cacheAside(c, h.cache, h.keys.LatestDraws(limit), h.ttls.LatestDraws, func() ([]domain.Draw, error) {
		return h.draws.Latest(c.Request.Context(), limit)
	})
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, draws)
}

// DrawByIssue serves a single committed draw.
func (h *Handlers) DrawByIssue(c *gin.Context) {
	issue, ok := getParam(c, "issue")
	if !ok {
		return
	}

	draw, err := h.draws.ByIssue(c.Request.Context(), issue)
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, draw)
}

// Omission serves the 49 current miss-streak counters.
func (h *Handlers) Omission(c *gin.Context) {
	counters, err := cacheAside(c, h.cache, h.keys.OmissionSnapshot(), h.ttls.Omission, func() ([]domain.OmissionCounter, error) {
		return h.omission.All(c.Request.Context())
	})
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, counters)
}

// DailyStats serves one calendar day's per-category counters.
func (h *Handlers) DailyStats(c *gin.Context) {
	date := getQuery(c, "date", domain.DailyStatDate(time.Now()))

	stats, err := cacheAside(c, h.cache, h.keys.DailyStatsSnapshot(date), h.ttls.DailyStats, func() ([]domain.DailyStat, error) {
		return h.dailyStats.ByDate(c.Request.Context(), date)
	})
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stats)
}

// LatestPredictions serves the most recent N predictions of one type.
func (h *Handlers) LatestPredictions(c *gin.Context) {
	t, ok := predictionTypeParam(c)
	if !ok {
		return
	}
	limit := getQueryInt(c, "limit", 20)

	preds, err := cacheAside(c, h.cache, h.keys.PredictionLimit(t, limit), h.ttls.PredictionList, func() ([]domain.Prediction, error) {
		return h.predictions.Latest(c.Request.Context(), t, limit)
	})
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, preds)
}

// WinRate serves the windowed hit-rate snapshot for one prediction type.
func (h *Handlers) WinRate(c *gin.Context) {
	t, ok := predictionTypeParam(c)
	if !ok {
		return
	}
	window := getQueryInt(c, "window", 100)

	snap, err := cacheAside(c, h.cache, h.keys.WinRate(t), h.ttls.WinRate, func() (domain.HitRateSnapshot, error) {
		return h.predictions.HitRate(c.Request.Context(), t, window)
	})
	if err != nil {
		respondAPIErrorWithRequestID(c, err)
		return
	}
	respondJSON(c, http.StatusOK, snap)
}

func predictionTypeParam(c *gin.Context) (domain.PredictionType, bool) {
	raw, ok := getParam(c, "type")
	if !ok {
		return "", false
	}
	t := domain.PredictionType(raw)
	for _, valid := range domain.AllPredictionTypes() {
		if t == valid {
			return t, true
		}
	}
	respondAPIError(c, NewAPIError("INVALID_PARAMETER", "unknown prediction type "+raw, http.StatusBadRequest))
	return "", false
}
