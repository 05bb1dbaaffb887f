package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/camship/internal/agent"
	"github.com/bft-labs/camship/internal/cliconfig"
	"github.com/bft-labs/camship/pkg/log"
)

const helpDescription = `
Stream camera frames over websocket with congestion-adaptive quality.

Highlights:
  - Extracts JPEG frames from a GStreamer pipeline and ships them as they arrive.
  - Degrades resolution and quality under queue or network pressure, recovers when stable.
  - Applies server congestion feedback and quality suggestions live.
  - Configure via file, env (CAMSHIP_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  camship --server-url ws://ingest.example.com:3001
  camship --config $HOME/.camship/config.toml --log-level debug
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:     "camship",
		Short:   "Stream camera frames over websocket with congestion-adaptive quality",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Config precedence: flags > env > file > defaults. The changed
			// map records which flags were set explicitly so file and env
			// values never clobber them.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			} else {
				cfgFile = ""
			}

			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			zl := cliconfig.Logger(cfg.LogLevel)
			zl.Info().Interface("config", cfg).Msg("configuration")
			logger := log.NewZerologAdapterWithLogger(zl)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				errCh <- agent.Run(ctx, cfg, logger, cfgFile)
			}()

			select {
			case sig := <-sigCh:
				zl.Info().Str("signal", sig.String()).Msg("received signal, stopping")
				cancel()
				err := <-errCh
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			case err := <-errCh:
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			}
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.camship/config.toml)")
	root.Flags().StringVar(&cfg.ServerURL, "server-url", cfg.ServerURL, "websocket ingestion endpoint (ws:// or wss://)")
	root.Flags().StringVar(&cfg.CameraIDPrefix, "camera-id-prefix", cfg.CameraIDPrefix, "prefix for the generated camera identity")
	root.Flags().StringVar(&cfg.GstBinary, "gst-binary", cfg.GstBinary, "gst-launch binary used to spawn the capture pipeline")
	root.Flags().IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "maximum frames buffered between capture and send")
	root.Flags().DurationVar(&cfg.ActiveInterval, "active-interval", cfg.ActiveInterval, "controller cadence while conditions are changing")
	root.Flags().DurationVar(&cfg.StableInterval, "stable-interval", cfg.StableInterval, "controller cadence once conditions settle")
	root.Flags().BoolVar(&cfg.ResetCountersOnRestart, "reset-counters-on-restart", cfg.ResetCountersOnRestart, "clear failure/success counters when the encoder restarts")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "camship: %v\n", err)
		os.Exit(1)
	}
}
