package app

import (
	"log/slog"

	"github.com/soocke/snap-detect-go/config"
	"github.com/soocke/snap-detect-go/domain/capture"
	"github.com/soocke/snap-detect-go/domain/detection"
	"github.com/soocke/snap-detect-go/domain/session"
	"github.com/soocke/snap-detect-go/ui/model"
	"github.com/soocke/snap-detect-go/ui/presenter"
	"github.com/soocke/snap-detect-go/ui/view"
)

// AppContainer assembles models, services, presenters and the root view.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Source     *capture.Source
	Client     *detection.Client
	Session    *session.Machine
	Upload     *model.UploadModel
	RootView   *view.RootView
	UI         view.UI

	// Presenters
	SessionPresenter *presenter.SessionPresenter
	PreviewPresenter *presenter.PreviewPresenter
	ActionPresenter  *presenter.ActionPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs the services. Presenters are attached once a UI
// exists (see AttachUI); headless runs never attach one.
func BuildContainer(cfg *config.Config, logger *slog.Logger, cfgPath string) *AppContainer {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger}
	c.Source = capture.NewSource(logger, cfg.SpoolDir, capture.WithJPEGQuality(cfg.JPEGQuality))
	c.Client = detection.NewClient(cfg.Endpoint, cfg.Timeout(), c.Source.Open, logger)
	c.Session = session.NewMachine(c.Client, logger)
	c.Upload = model.NewUploadModel()
	return c
}

// AttachUI wires the presenters to ui. schedule re-arms the update loop after
// each tick; nil leaves scheduling to the caller.
func (c *AppContainer) AttachUI(ui view.UI, schedule func()) {
	c.UI = ui
	c.SessionPresenter = presenter.NewSessionPresenter(ui, ui, c.Upload, c.Config.MinConfidence)
	c.PreviewPresenter = presenter.NewPreviewPresenter(c.Session, c.Source, c.Client, ui, ui.AvailableWidth, c.previewOptions(), c.Logger)
	c.PreviewPresenter.MaxHeight = ui.PreviewMaxHeight
	c.ActionPresenter = presenter.NewActionPresenter(c.Source, c.Session, ui, c.Logger)
	c.Session.AddListener(c.SessionPresenter.OnState)
	c.Loop = presenter.NewLoop(c.SessionPresenter, c.PreviewPresenter, schedule)
}

func (c *AppContainer) previewOptions() presenter.PreviewOptions {
	return presenter.PreviewOptions{
		WidthRatio:    c.Config.DisplayWidthRatio,
		MinConfidence: c.Config.MinConfidence,
		PreferServer:  c.Config.PreferServerAnnotation,
	}
}

// ApplyConfig pushes display settings into the presenters after the settings
// panel saved them. Endpoint and timeout changes take effect on next start.
func (c *AppContainer) ApplyConfig(cfg *config.Config) {
	if cfg != nil {
		c.Config = cfg
	}
	c.SessionPresenter.SetMinConfidence(c.Config.MinConfidence)
	c.PreviewPresenter.SetOptions(c.previewOptions())
	if c.Logger != nil {
		c.Logger.Info("display settings applied",
			"ratio", c.Config.DisplayWidthRatio,
			"min_confidence", c.Config.MinConfidence,
			"prefer_server", c.Config.PreferServerAnnotation)
	}
}

// Close stops the session and removes the spooled image it still holds.
func (c *AppContainer) Close() {
	if c == nil || c.Session == nil {
		return
	}
	if img := c.Session.Current().Image; img != nil {
		c.Source.Release(*img)
	}
	c.Session.Close()
}
