// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"github.com/spf13/cobra"
)

var configFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strix",
	Short: "Strix - In-band fast-path HTTP responder",
	Long: `Strix serves a fixed set of static HTTP responses directly from raw
Ethernet frames. It taps the interface with AF_PACKET, recognizes HTTP/1.1
GET requests to one TCP port, and rewrites the request frame in place into
the response, so a hit never touches the kernel TCP stack. Everything else
passes through untouched.

Responses are precomputed at startup from a directory of static files, with
gzip, brotli and zstd variants for compressible content.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml",
		"config file path")
}
