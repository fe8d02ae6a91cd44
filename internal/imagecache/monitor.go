package imagecache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"platehub/pkg/utils"
)

// MemoryReader reports used system memory in percent.
type MemoryReader func() (float64, error)

func SystemMemory() (float64, error) {
	v, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("read virtual memory: %w", err)
	}
	return v.UsedPercent, nil
}

// Monitor polls memory usage and calls OnPressure whenever usage is at or
// above Threshold.
type Monitor struct {
	Threshold  float64
	Interval   time.Duration
	Read       MemoryReader
	OnPressure func()
	Log        *slog.Logger
}

func NewMonitor(threshold float64, interval time.Duration, onPressure func(), log *slog.Logger) *Monitor {
	if log == nil {
		log = utils.DiscardLogger()
	}
	return &Monitor{
		Threshold:  threshold,
		Interval:   interval,
		Read:       SystemMemory,
		OnPressure: onPressure,
		Log:        log,
	}
}

// Check reads memory once and reports whether the pressure callback ran.
func (m *Monitor) Check() bool {
	used, err := m.Read()
	if err != nil {
		m.Log.Warn("memory check failed", "error", err)
		return false
	}
	if used < m.Threshold {
		return false
	}
	m.Log.Warn("memory pressure", "used_percent", used, "threshold", m.Threshold)
	if m.OnPressure != nil {
		m.OnPressure()
	}
	return true
}

// Run checks on every tick until ctx is done.
func (m *Monitor) Run(ctx context.Context) {
	if m.Interval <= 0 || m.Threshold <= 0 {
		return
	}
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Check()
		}
	}
}
