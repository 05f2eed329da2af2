package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"firestige.xyz/strix/internal/config"
	"firestige.xyz/strix/internal/routes"
	"firestige.xyz/strix/internal/table"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes the responder would serve",
	Long: `
Load the configured public directory and print every route the responder
would serve, with its path hash, content type and available encodings.
Useful for checking what made it into the table without starting capture.
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
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

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PATH\tHASH\tTYPE\tSIZE\tLAST-MODIFIED\tENCODINGS")
		for _, r := range loader.Routes() {
			fmt.Fprintf(w, "%s\t%#x\t%s\t%d\t%s\t%s\n",
				r.Path, r.Hash, r.ContentType, r.Size, r.LastModified, strings.Join(r.Encodings, ","))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}
