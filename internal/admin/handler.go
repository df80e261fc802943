// AngelaMos | 2026
// handler.go

package admin

import (
	"context"
	"database/sql"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/civix-app/civix-backend/internal/core"
	"github.com/civix-app/civix-backend/internal/user"
)

// AccountStatsProvider supplies the aggregate account counts. The user
// service implements it.
type AccountStatsProvider interface {
	AccountStats(ctx context.Context) (user.AccountStats, error)
}

type Handler struct {
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	dbPing     func(ctx context.Context) error
	redisPing  func(ctx context.Context) error
	accounts   AccountStatsProvider
}

type HandlerConfig struct {
	// DBStats is nil when the credential store runs on MongoDB; its
	// driver exposes no sql.DBStats equivalent.
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	DBPing     func(ctx context.Context) error
	RedisPing  func(ctx context.Context) error
	Accounts   AccountStatsProvider
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		dbPing:     cfg.DBPing,
		redisPing:  cfg.RedisPing,
		accounts:   cfg.Accounts,
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, superAdminOnly func(http.Handler) http.Handler,
) {
	r.Route("/admin/stats", func(r chi.Router) {
		r.Use(authenticator)
		r.Use(superAdminOnly)

		r.Get("/", h.GetSystemStats)
		r.Get("/accounts", h.GetAccountStats)
		r.Get("/runtime", h.GetRuntimeStats)
	})
}

func (h *Handler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	storeHealthy := true
	if h.dbPing != nil {
		if err := h.dbPing(ctx); err != nil {
			storeHealthy = false
		}
	}

	redisHealthy := true
	if h.redisPing != nil {
		if err := h.redisPing(ctx); err != nil {
			redisHealthy = false
		}
	}

	var accounts *user.AccountStats
	if h.accounts != nil {
		if stats, err := h.accounts.AccountStats(ctx); err == nil {
			accounts = &stats
		}
	}

	response := SystemStatsResponse{
		Success: true,
		Store: StoreStatus{
			Healthy: storeHealthy,
			Pool:    h.getDBStats(),
		},
		Redis: RedisStatus{
			Healthy: redisHealthy,
			Pool:    h.getRedisStats(),
		},
		Accounts: accounts,
		Runtime:  collectRuntimeStats(),
	}

	core.OK(w, response)
}

func (h *Handler) GetAccountStats(w http.ResponseWriter, r *http.Request) {
	if h.accounts == nil {
		core.NotFound(w, "account stats")
		return
	}

	stats, err := h.accounts.AccountStats(r.Context())
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, AccountStatsResponse{Success: true, Accounts: stats})
}

func (h *Handler) GetRuntimeStats(w http.ResponseWriter, r *http.Request) {
	core.OK(w, RuntimeStatsResponse{
		Success: true,
		Runtime: collectRuntimeStats(),
	})
}

func collectRuntimeStats() RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return RuntimeStats{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	}
}

func (h *Handler) getDBStats() *DBPoolStats {
	if h.dbStats == nil {
		return nil
	}

	stats := h.dbStats()
	return &DBPoolStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration.String(),
	}
}

func (h *Handler) getRedisStats() *RedisPoolStats {
	if h.redisStats == nil {
		return nil
	}

	stats := h.redisStats()
	return &RedisPoolStats{
		Hits:       stats.Hits,
		Misses:     stats.Misses,
		Timeouts:   stats.Timeouts,
		TotalConns: stats.TotalConns,
		IdleConns:  stats.IdleConns,
		StaleConns: stats.StaleConns,
	}
}

type SystemStatsResponse struct {
	Success  bool               `json:"success"`
	Store    StoreStatus        `json:"store"`
	Redis    RedisStatus        `json:"redis"`
	Accounts *user.AccountStats `json:"accounts,omitempty"`
	Runtime  RuntimeStats       `json:"runtime"`
}

type AccountStatsResponse struct {
	Success  bool              `json:"success"`
	Accounts user.AccountStats `json:"accounts"`
}

type RuntimeStatsResponse struct {
	Success bool         `json:"success"`
	Runtime RuntimeStats `json:"runtime"`
}

type StoreStatus struct {
	Healthy bool         `json:"healthy"`
	Pool    *DBPoolStats `json:"pool,omitempty"`
}

type RedisStatus struct {
	Healthy bool            `json:"healthy"`
	Pool    *RedisPoolStats `json:"pool,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
	StaleConns uint32 `json:"stale_conns"`
}

type RuntimeStats struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc_bytes"`
	MemSys       uint64 `json:"mem_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
}
