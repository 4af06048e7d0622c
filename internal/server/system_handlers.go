package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/predictions-dashboard/internal/database"
	"github.com/aristath/predictions-dashboard/internal/events"
	"github.com/aristath/predictions-dashboard/internal/modules/markets"
	"github.com/aristath/predictions-dashboard/internal/modules/portfolio"
	"github.com/aristath/predictions-dashboard/internal/reliability"
	"github.com/aristath/predictions-dashboard/internal/scheduler"
)

// SystemDeps are the services the system endpoints report on.
// Scheduler and Backups may be nil.
type SystemDeps struct {
	StorageBackend string
	Board          *markets.Board
	Sessions       *portfolio.Sessions
	Accounts       *portfolio.Accounts
	EventBus       *events.Bus
	Scheduler      *scheduler.Scheduler
	Databases      []*database.DB
	Backups        *reliability.BackupService
}

// SystemHandlers serves status and operations endpoints
type SystemHandlers struct {
	deps        SystemDeps
	startupTime time.Time
	hostStats   func() (cpuPercent, memPercent float64)
	log         zerolog.Logger
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(deps SystemDeps, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		deps:        deps,
		startupTime: time.Now(),
		log:         log.With().Str("component", "system_handlers").Logger(),
	}
	h.hostStats = h.getSystemStats
	return h
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status            string         `json:"status"`
	Uptime            string         `json:"uptime"`
	UptimeSeconds     int64          `json:"uptime_seconds"`
	CPUPercent        float64        `json:"cpu_percent"`
	MemoryPercent     float64        `json:"memory_percent"`
	Goroutines        int            `json:"goroutines"`
	HeapAllocMB       float64        `json:"heap_alloc_mb"`
	StorageBackend    string         `json:"storage_backend"`
	Board             markets.Status `json:"board"`
	Sessions          int            `json:"sessions"`
	LiveAccounts      int            `json:"live_accounts"`
	StreamSubscribers int            `json:"stream_subscribers"`
}

// DBInfo represents information about a single database
type DBInfo struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	SizeMB    float64 `json:"size_mb"`
	WALSizeMB float64 `json:"wal_size_mb"`
	PageCount int64   `json:"page_count"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Databases   []DBInfo `json:"databases"`
	TotalSizeMB float64  `json:"total_size_mb"`
	LastChecked string   `json:"last_checked"`
}

// HandleSystemStatus returns process, host and service status.
// The status is "degraded" while the price board's last refresh failed.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startupTime)
	cpuPercent, memPercent := h.hostStats()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := SystemStatusResponse{
		Status:         "healthy",
		Uptime:         uptime.Round(time.Second).String(),
		UptimeSeconds:  int64(uptime.Seconds()),
		CPUPercent:     cpuPercent,
		MemoryPercent:  memPercent,
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocMB:    float64(memStats.HeapAlloc) / 1024 / 1024,
		StorageBackend: h.deps.StorageBackend,
	}

	if h.deps.Board != nil {
		response.Board = h.deps.Board.Status()
		if response.Board.LastError != "" {
			response.Status = "degraded"
		}
	}
	if h.deps.Sessions != nil {
		response.Sessions = h.deps.Sessions.Count()
	}
	if h.deps.Accounts != nil {
		response.LiveAccounts = h.deps.Accounts.Live()
	}
	if h.deps.EventBus != nil {
		response.StreamSubscribers = h.deps.EventBus.SubscriberCount()
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleJobsStatus returns scheduler job status
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.deps.Scheduler != nil {
		jobs = h.deps.Scheduler.Status()
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_jobs": len(jobs),
		"jobs":       jobs,
	})
}

// HandleTriggerJob runs a registered job immediately
// POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.deps.Scheduler == nil {
		h.writeError(w, http.StatusServiceUnavailable, "Scheduler not available")
		return
	}

	err := h.deps.Scheduler.Trigger(name)
	if errors.Is(err, scheduler.ErrJobNotFound) {
		h.writeError(w, http.StatusNotFound, "Unknown job")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Triggered job failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"job":    name,
	})
}

// HandleDatabaseStats returns database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	response := DatabaseStatsResponse{
		Databases:   make([]DBInfo, 0, len(h.deps.Databases)),
		LastChecked: time.Now().Format(time.RFC3339),
	}

	for _, db := range h.deps.Databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to read database stats")
			continue
		}

		info := DBInfo{
			Name:      db.Name(),
			Path:      db.Path(),
			SizeMB:    float64(stats.SizeBytes) / 1024 / 1024,
			WALSizeMB: float64(stats.WALSizeBytes) / 1024 / 1024,
			PageCount: stats.PageCount,
		}
		response.Databases = append(response.Databases, info)
		response.TotalSizeMB += info.SizeMB + info.WALSizeMB
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListBackups lists the backups in remote storage
func (h *SystemHandlers) HandleListBackups(w http.ResponseWriter, r *http.Request) {
	if h.deps.Backups == nil {
		h.writeError(w, http.StatusNotFound, "Backups are disabled")
		return
	}

	backups, err := h.deps.Backups.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		h.writeError(w, http.StatusBadGateway, "Unable to list backups")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":   len(backups),
		"backups": backups,
	})
}

// getSystemStats returns CPU and RAM usage percentages, sampling CPU over 100ms
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *SystemHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
