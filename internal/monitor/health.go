// Package monitor reports service health for the /health endpoint.
package monitor

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/t77yq/alert-dashboard/internal/store"
)

// Health status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// HostStats is a point-in-time view of host resource usage
type HostStats struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	MemoryUsed  uint64  `json:"memory_used"`
	MemoryTotal uint64  `json:"memory_total"`
}

// Health represents the payload served on /health
type Health struct {
	Status    string     `json:"status"`
	Source    string     `json:"source"`
	Alerts    int        `json:"alerts"`
	Rejected  int        `json:"rejected"`
	LoadedAt  time.Time  `json:"loaded_at"`
	Uptime    string     `json:"uptime"`
	CheckedAt time.Time  `json:"checked_at"`
	Host      *HostStats `json:"host,omitempty"`
}

// HealthChecker assembles Health from the loaded store and host statistics
type HealthChecker struct {
	logger    *zap.Logger
	store     *store.Store
	report    store.LoadReport
	degraded  bool
	startedAt time.Time

	cpuPercent func(ctx context.Context) (float64, error)
	memory     func(ctx context.Context) (*mem.VirtualMemoryStat, error)
}

// NewHealthChecker creates a health checker. degraded marks a store that fell
// back to empty because the source could not be loaded.
func NewHealthChecker(s *store.Store, report store.LoadReport, degraded bool, logger *zap.Logger) *HealthChecker {
	return &HealthChecker{
		logger:     logger.Named("health"),
		store:      s,
		report:     report,
		degraded:   degraded,
		startedAt:  time.Now(),
		cpuPercent: cpuPercent,
		memory:     mem.VirtualMemoryWithContext,
	}
}

// cpuPercent returns total CPU usage since the previous call
func cpuPercent(ctx context.Context) (float64, error) {
	percents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, nil
	}
	return percents[0], nil
}

// Check builds a health snapshot. Host statistics that cannot be read are
// omitted rather than failing the check.
func (h *HealthChecker) Check(ctx context.Context) Health {
	status := StatusOK
	if h.degraded {
		status = StatusDegraded
	}

	health := Health{
		Status:    status,
		Source:    h.report.Source,
		Alerts:    h.store.Len(),
		Rejected:  len(h.report.Rejected),
		LoadedAt:  h.store.LoadedAt(),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		CheckedAt: time.Now().UTC(),
	}

	host, err := h.hostStats(ctx)
	if err != nil {
		h.logger.Warn("Failed to collect host stats", zap.Error(err))
		return health
	}
	health.Host = host

	h.logger.Debug("Health checked",
		zap.Int("alerts", health.Alerts),
		zap.Float64("cpu_usage", host.CPUUsage),
		zap.Float64("memory_usage", host.MemoryUsage))

	return health
}

func (h *HealthChecker) hostStats(ctx context.Context) (*HostStats, error) {
	usage, err := h.cpuPercent(ctx)
	if err != nil {
		return nil, err
	}

	memInfo, err := h.memory(ctx)
	if err != nil {
		return nil, err
	}

	return &HostStats{
		CPUUsage:    usage,
		MemoryUsage: memInfo.UsedPercent,
		MemoryUsed:  memInfo.Used,
		MemoryTotal: memInfo.Total,
	}, nil
}
