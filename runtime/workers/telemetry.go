package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// LiveStats is sampled on every telemetry tick.
type LiveStats struct {
	Connections int
	OnlineUsers int
}

// Telemetry periodically logs process health (RSS, CPU) together with the
// live subsystem's connection counts.
type Telemetry struct {
	log      *slog.Logger
	interval time.Duration
	sample   func() LiveStats
}

func NewTelemetry(log *slog.Logger, interval time.Duration, sample func() LiveStats) *Telemetry {
	return &Telemetry{log: log, interval: interval, sample: sample}
}

func (w *Telemetry) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			stats := w.sample()

			var rssMb uint64
			if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
				rssMb = mem.RSS / (1024 * 1024)
			}
			cpu, _ := proc.CPUPercent()

			w.log.Info("telemetry",
				"connections", stats.Connections,
				"online_users", stats.OnlineUsers,
				"rss_mb", rssMb,
				"cpu_percent", cpu)
		}
	}
}
