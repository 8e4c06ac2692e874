package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ironsheep/labelscan/internal/config"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	var configPath string

	root := &cobra.Command{
		Use:   "labelscan",
		Short: "Read ingredient lists from label photos and look them up in PubChem",
		Long: `labelscan extracts the ingredient list from a product label photo with
Tesseract OCR, splits it into ingredient names and looks each one up in
PubChem.

It runs as a browser-facing web server (serve), as an MCP server over
stdin/stdout (mcp), or once from the command line (scan).

Settings come from config.yaml, LABELSCAN_* environment variables and flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.BindFlags(v, cmd.Flags())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default ./config.yaml if present)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text or json")
	pf.String("ocr-backend", "auto", "OCR backend: auto, gosseract or exec")

	load := loader(func() (*config.Config, error) {
		return config.Load(v, configPath)
	})

	root.AddCommand(
		newServeCmd(load),
		newMCPCmd(load),
		newScanCmd(load),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "labelscan %s\n", Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}

// loader reads the merged configuration once flags are parsed.
type loader func() (*config.Config, error)
