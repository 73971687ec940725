package debug

// Periodic runtime logger, started only when config.Debug is true.
// Each line carries goroutine count, stack and heap usage, the process working
// set where the platform reports it, and whatever the registered probes add.

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

// Probe contributes application attributes to every stats line.
type Probe func() []slog.Attr

var errRSSUnsupported = errors.New("rss not available on this platform")

// StartStatsLogger launches a ticker that logs runtime stats until ctx is done.
func StartStatsLogger(ctx context.Context, interval time.Duration, logger *slog.Logger, probes ...Probe) {
	if logger == nil {
		return
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		var rssErrLogged bool
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			if ctx.Err() != nil {
				return
			}
			attrs := runtimeAttrs(samples)
			rss, err := processRSS()
			switch {
			case err == nil:
				attrs = append(attrs, slog.Uint64("rss", rss))
			case !errors.Is(err, errRSSUnsupported) && !rssErrLogged:
				logger.Warn("debug: rss query failed", slog.String("err", err.Error()))
				rssErrLogged = true
			}
			for _, p := range probes {
				if p != nil {
					attrs = append(attrs, p()...)
				}
			}
			logger.LogAttrs(ctx, slog.LevelInfo, "runtime.stats", attrs...)
		}
	}()
}

func runtimeAttrs(samples []metrics.Sample) []slog.Attr {
	metrics.Read(samples)
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return []slog.Attr{
		slog.Uint64("goroutines", samples[0].Value.Uint64()),
		slog.Uint64("stack_inuse", ms.StackInuse),
		slog.Uint64("heap_alloc", ms.HeapAlloc),
		slog.Uint64("heap_inuse", ms.HeapInuse),
		slog.Uint64("heap_sys", ms.HeapSys),
		slog.Uint64("next_gc", ms.NextGC),
		slog.Uint64("num_gc", uint64(ms.NumGC)),
	}
}
