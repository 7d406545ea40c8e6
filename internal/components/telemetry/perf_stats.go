package telemetry

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const report_perf_stats = "perf-stats"

const DefaultPerfStatsInterval = 30 * time.Second

type perfStats struct {
	tel        API
	proc       *process.Process
	cpu        metric.Float64Gauge
	rss        metric.Int64Gauge
	heap       metric.Int64Gauge
	goroutines metric.Int64Gauge
}

func newPerfStats(tel API) (perfStats, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return perfStats{}, err
	}

	meter := otel.Meter("gradewatch/perf_stats")
	stats := perfStats{tel: tel, proc: proc}
	stats.cpu, err = meter.Float64Gauge("process.cpu_percent")
	if err != nil {
		return perfStats{}, err
	}
	stats.rss, err = meter.Int64Gauge("process.rss_mb")
	if err != nil {
		return perfStats{}, err
	}
	stats.heap, err = meter.Int64Gauge("go.heap_alloc_mb")
	if err != nil {
		return perfStats{}, err
	}
	stats.goroutines, err = meter.Int64Gauge("go.goroutines")
	if err != nil {
		return perfStats{}, err
	}
	return stats, nil
}

func (s perfStats) record(ctx context.Context) {
	cpuPercent, err := s.proc.CPUPercentWithContext(ctx)
	if err != nil {
		s.tel.ReportWarning(report_perf_stats, "cpu", err)
	} else {
		s.cpu.Record(ctx, cpuPercent)
	}

	mem, err := s.proc.MemoryInfoWithContext(ctx)
	if err != nil {
		s.tel.ReportWarning(report_perf_stats, "rss", err)
	} else {
		s.rss.Record(ctx, int64(mem.RSS/1_000_000))
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	s.heap.Record(ctx, int64(memStats.HeapAlloc/1_000_000))
	s.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
}

// InstrumentPerfStats records process stats every interval until ctx is
// cancelled, it only makes sense for long running modes (daemon, serve).
func InstrumentPerfStats(ctx context.Context, tel API, interval time.Duration) {
	stats, err := newPerfStats(tel)
	if err != nil {
		tel.ReportBroken(report_perf_stats, err)
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				stats.record(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}
