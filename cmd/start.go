package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/capture"
	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/fastpath"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/metrics"
	"firestige.xyz/strix/internal/routes"
	"firestige.xyz/strix/internal/table"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the responder",
	Long: `
Start the fast-path responder on the configured interface.

Examples:
  strix start                   # Start with ./config.yaml
  strix start -c /etc/strix.yml # Start with an explicit config file
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return runStart(cfg)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}

func runStart(cfg *config.Config) error {
	if err := log.Init(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}

	tbl := table.New()
	loader, err := routes.NewLoader(cfg.Routes.PublicDir, cfg.Routes.Manifest, cfg.Routes.ConfigPrefix, tbl)
	if err != nil {
		return err
	}
	if err := loader.Load(); err != nil {
		return fmt.Errorf("failed to load routes: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"public_dir": cfg.Routes.PublicDir,
		"routes":     len(loader.Routes()),
		"entries":    tbl.Len(),
	}).Info("response table populated")

	pipeline := fastpath.New(cfg.Port, tbl)
	stats := pipeline.Stats()
	metrics.RegisterPassThroughReasons(map[string]func() uint64{
		"not_fastpath": stats.PassedShort.Load,
		"parse":        stats.PassedParse.Load,
		"miss":         stats.PassedMiss.Load,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		srv := metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer srv.Stop(context.Background())
	}

	if cfg.Routes.DevMode {
		refresher := routes.NewRefresher(loader, cfg.Routes.RefreshInterval)
		go refresher.Run(ctx)
	}

	engine := capture.NewEngine(capture.Options{
		Device:       cfg.Interface,
		SnapLen:      cfg.Capture.SnapLen,
		BufferSizeMB: cfg.Capture.BufferSizeMB,
		TimeoutMs:    cfg.Capture.TimeoutMs,
		FanoutID:     cfg.Capture.FanoutID,
		Port:         cfg.Port,
	}, cfg.Workers, pipeline)

	err = engine.Run(ctx)

	logrus.WithFields(logrus.Fields{
		"frames":      stats.Frames.Load(),
		"transmitted": stats.Transmitted.Load(),
		"dropped":     stats.Dropped.Load(),
	}).Info("capture engine stopped")
	return err
}
