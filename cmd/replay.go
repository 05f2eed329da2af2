package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/capture"
	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/fastpath"
	"firestige.xyz/strix/internal/log"
	"firestige.xyz/strix/internal/routes"
	"firestige.xyz/strix/internal/table"
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE.pcap",
	Short: "Run a pcap file through the responder offline",
	Long: `
Load the response table from the configured public directory, then run every
frame of a capture file through the fast path and report the outcome counts.
Nothing is transmitted; this is for regression runs against recorded traffic.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return err
		}

		tbl := table.New()
		loader, err := routes.NewLoader(cfg.Routes.PublicDir, cfg.Routes.Manifest, cfg.Routes.ConfigPrefix, tbl)
		if err != nil {
			return err
		}
		if err := loader.Load(); err != nil {
			return err
		}

		sum, err := capture.Replay(args[0], fastpath.New(cfg.Port, tbl))
		if err != nil {
			return err
		}
		fmt.Printf("frames: %d\ntransmit: %d\ndrop: %d\npass: %d\n",
			sum.Frames, sum.Transmitted, sum.Dropped, sum.PassedThru)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
