package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bft-labs/camship/internal/adapters/gst"
	"github.com/bft-labs/camship/internal/cliconfig"
	"github.com/bft-labs/camship/internal/domain"
	"github.com/bft-labs/camship/internal/encoder"
	"github.com/bft-labs/camship/internal/queue"
	"github.com/bft-labs/camship/internal/telemetry"
	"github.com/bft-labs/camship/internal/transport"
	"github.com/bft-labs/camship/pkg/lifecycle"
	"github.com/bft-labs/camship/pkg/log"
)

// Run wires the full pipeline and blocks until the context is canceled or a
// worker fails permanently. configPath, when non-empty, enables live config
// reloading for runtime-adjustable settings.
func Run(ctx context.Context, cfg cliconfig.Config, logger log.Logger, configPath string) error {
	cameraID := fmt.Sprintf("%s-%s", cfg.CameraIDPrefix, uuid.NewString())

	profile := domain.NominalProfile
	tel := telemetry.New(profile.Width, profile.Height, profile.Quality)
	frames := queue.New(cfg.QueueCapacity, tel)
	pipeline := gst.New(cfg.GstBinary, logger)
	enc := encoder.NewSupervisor(pipeline, frames, tel, logger)
	sess := transport.NewSession(cfg.ServerURL, cameraID, frames, tel, logger)

	logger.Info("starting agent",
		log.String("camera_id", cameraID),
		log.String("server_url", cfg.ServerURL),
		log.String("resolution", profile.Resolution()),
		log.Int("quality", profile.Quality),
	)

	if err := sess.Connect(ctx); err != nil {
		return err
	}
	if err := enc.Start(ctx, profile); err != nil {
		sess.Close()
		return err
	}

	controller := NewController(ControllerConfig{
		ActiveInterval:         cfg.ActiveInterval,
		StableInterval:         cfg.StableInterval,
		ResetCountersOnRestart: cfg.ResetCountersOnRestart,
	}, enc, tel, logger)

	supv := lifecycle.NewSupervisor(ctx, logger)
	supv.Go("inbound", sess.RunInbound)
	supv.Go("outbound", sess.RunOutbound)
	supv.Go("controller", controller.Run)

	if configPath != "" {
		watcher := NewConfigWatcher(configPath, func(fc cliconfig.FileConfig) {
			applyRuntimeConfig(fc, controller, logger)
		}, logger)
		supv.Go("config-watcher", watcher.Run)
	}

	<-supv.Context().Done()

	sess.Close()
	if err := enc.Stop(); err != nil {
		logger.Warn("encoder stop", log.Err(err))
	}
	return supv.WaitWithTimeout(lifecycle.ShutdownTimeout)
}

// applyRuntimeConfig applies the subset of file config that can change
// without a restart: log level and controller cadence. Everything else
// just gets surfaced in the log.
func applyRuntimeConfig(fc cliconfig.FileConfig, controller *Controller, logger log.Logger) {
	if fc.LogLevel != "" {
		lvl := cliconfig.ParseLevel(fc.LogLevel)
		zerolog.SetGlobalLevel(lvl)
		logger.Info("log level updated", log.String("level", lvl.String()))
	}

	active := parseOptionalDuration(fc.ActiveInterval, "active_interval", logger)
	stable := parseOptionalDuration(fc.StableInterval, "stable_interval", logger)
	if active > 0 || stable > 0 {
		controller.SetIntervals(active, stable)
		logger.Info("controller cadence updated",
			log.Duration("active_interval", active),
			log.Duration("stable_interval", stable),
		)
	}

	if fc.ServerURL != "" || fc.QueueCapacity != 0 {
		logger.Info("connection settings changed in config file; restart required to apply")
	}
}

func parseOptionalDuration(v, name string, logger log.Logger) time.Duration {
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("ignoring invalid duration in config file",
			log.String("field", name), log.Err(err))
		return 0
	}
	return d
}
