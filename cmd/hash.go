package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/fastpath"
)

var hashCmd = &cobra.Command{
	Use:   "hash PATH...",
	Short: "Print the table hash of one or more request paths",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, path := range args {
			fmt.Printf("%#x\t%s\n", fastpath.HashPath([]byte(path)), path)
		}
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
}
