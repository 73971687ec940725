package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/soocke/snap-detect-go/app"
	"github.com/soocke/snap-detect-go/config"
	"github.com/soocke/snap-detect-go/debug"
)

func main() {
	var (
		cfgPath  = flag.String("config", "snap-detect.json", "path to the JSON config file")
		endpoint = flag.String("endpoint", "", "detection endpoint URL (overrides config)")
		image    = flag.String("image", "", "run headless: upload this image and write the annotated result")
		grab     = flag.Bool("capture", false, "run headless: grab the screen instead of reading -image")
		out      = flag.String("out", "annotated.png", "headless output PNG")
		width    = flag.Int("width", 0, "headless display width in pixels (default: configured window width)")
		verbose  = flag.Bool("debug", false, "debug logging and runtime stats")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	level := slog.LevelInfo
	if *verbose || cfg.Debug {
		cfg.Debug = true
		level = slog.LevelDebug
	}
	logger := NewLogger(level)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", *cfgPath, "error", err)
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	_ = cfg.Validate()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := app.BuildContainer(cfg, logger, *cfgPath)
	if cfg.Debug {
		debug.StartStatsLogger(ctx, 5*time.Second, logger, func() []slog.Attr {
			st := c.Source.Stats()
			return []slog.Attr{
				slog.Uint64("captures", st.Captures),
				slog.Uint64("picks", st.Picks),
				slog.Uint64("acquire_failures", st.Failures),
				slog.Duration("avg_encode", st.AvgEncode),
				slog.Uint64("uploads", c.Session.Uploads()),
				slog.String("phase", c.Session.Current().Phase.String()),
			}
		})
	}

	if *image != "" || *grab {
		_, err := app.RunHeadless(ctx, c, app.HeadlessOptions{ImagePath: *image, Capture: *grab, OutPath: *out, Width: *width})
		c.Close()
		if err != nil {
			logger.Error("detection run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	application := app.NewApp("Snap Detect", c)
	application.Start()
}
