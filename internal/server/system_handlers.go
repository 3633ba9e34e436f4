package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/zapdeck/zapdeck/internal/database"
	"github.com/zapdeck/zapdeck/internal/httpx"
)

// BackendProbe is the slice of the execution backend client the health
// endpoint pings.
type BackendProbe interface {
	Health(ctx context.Context) error
	Info(ctx context.Context) (json.RawMessage, error)
}

// SystemHandlers serves the system monitoring endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	appDB     *database.DB
	cacheDB   *database.DB
	backend   BackendProbe
	stream    *Hub
	startTime time.Time
}

// NewSystemHandlers creates the system monitoring handlers.
func NewSystemHandlers(log zerolog.Logger, dataDir string, appDB, cacheDB *database.DB, backend BackendProbe, stream *Hub) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		appDB:     appDB,
		cacheDB:   cacheDB,
		backend:   backend,
		stream:    stream,
		startTime: time.Now(),
	}
}

// HandleHealth handles GET /api/system/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.systemStats()

	backendStatus := "ok"
	probeCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.backend.Health(probeCtx); err != nil {
		h.log.Warn().Err(err).Msg("Execution backend health probe failed")
		backendStatus = "unreachable"
	}

	httpx.RespondData(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"backend":       backendStatus,
		"cpuPercent":    cpuPercent,
		"ramPercent":    ramPercent,
		"streamClients": h.stream.ClientCount(),
		"uptimeSeconds": int(time.Since(h.startTime).Seconds()),
		"databases": map[string]interface{}{
			h.appDB.Name():   h.databaseStats(h.appDB),
			h.cacheDB.Name(): h.databaseStats(h.cacheDB),
		},
	})
}

// HandleInfo handles GET /api/system/info
func (h *SystemHandlers) HandleInfo(w http.ResponseWriter, r *http.Request) {
	infoCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var backendInfo json.RawMessage
	if info, err := h.backend.Info(infoCtx); err == nil {
		backendInfo = info
	} else {
		h.log.Warn().Err(err).Msg("Execution backend info fetch failed")
	}

	httpx.RespondData(w, http.StatusOK, map[string]interface{}{
		"goVersion":  runtime.Version(),
		"goroutines": runtime.NumGoroutine(),
		"dataDir":    h.dataDir,
		"backend":    backendInfo,
	})
}

// systemStats returns CPU and RAM usage percentages. The short sampling
// interval keeps the endpoint fast; the dashboard polls it every few seconds.
func (h *SystemHandlers) systemStats() (float64, float64) {
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

func (h *SystemHandlers) databaseStats(db *database.DB) map[string]interface{} {
	stats := map[string]interface{}{
		"path": db.Path(),
	}
	if info, err := os.Stat(db.Path()); err == nil {
		stats["sizeBytes"] = info.Size()
	}
	// WAL grows between checkpoints; report it separately.
	if info, err := os.Stat(db.Path() + "-wal"); err == nil {
		stats["walBytes"] = info.Size()
	}
	stats["dir"] = filepath.Dir(db.Path())
	return stats
}
