package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pharmacy/analytics/internal/domain/ledger"
	"github.com/pharmacy/analytics/internal/infrastructure/scheduler"
)

// SnapshotStatus exposes the cached snapshot without triggering a load
type SnapshotStatus interface {
	Current() *ledger.Dataset
	Age() time.Duration
}

// SchedulerStatus exposes the refresh scheduler state
type SchedulerStatus interface {
	Status() scheduler.Status
}

// Health states
const (
	HealthOK      = "ok"
	HealthLoading = "loading"
)

// SystemHandler serves liveness information
type SystemHandler struct {
	BaseHandler
	name      string
	snapshots SnapshotStatus
	scheduler SchedulerStatus
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. sched may be nil.
func NewSystemHandler(name string, snapshots SnapshotStatus, sched SchedulerStatus) *SystemHandler {
	return &SystemHandler{
		name:      name,
		snapshots: snapshots,
		scheduler: sched,
		startTime: time.Now(),
	}
}

// SnapshotHealth describes the cached snapshot
type SnapshotHealth struct {
	Loaded     bool           `json:"loaded"`
	Source     string         `json:"source,omitempty"`
	LoadedAt   *time.Time     `json:"loaded_at,omitempty"`
	AgeSeconds float64        `json:"age_seconds"`
	RowCounts  map[string]int `json:"row_counts,omitempty"`
}

// HealthResponse is the liveness report
type HealthResponse struct {
	Status    string            `json:"status"`
	Name      string            `json:"name"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Snapshot  SnapshotHealth    `json:"snapshot"`
	Scheduler *scheduler.Status `json:"scheduler,omitempty"`
}

// Health handles GET /health. It answers 200 while the first load is still pending.
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    HealthLoading,
		Name:      h.name,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if ds := h.snapshots.Current(); ds != nil {
		loadedAt := ds.LoadedAt
		resp.Status = HealthOK
		resp.Snapshot = SnapshotHealth{
			Loaded:     true,
			Source:     ds.Source,
			LoadedAt:   &loadedAt,
			AgeSeconds: h.snapshots.Age().Round(time.Second).Seconds(),
			RowCounts:  ds.RowCounts(),
		}
	}

	if h.scheduler != nil {
		status := h.scheduler.Status()
		resp.Scheduler = &status
	}

	h.Success(c, resp)
}
