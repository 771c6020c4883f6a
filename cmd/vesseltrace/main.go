package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/banshee-data/vesseltrace/internal/config"
	"github.com/banshee-data/vesseltrace/internal/monitoring"
	"github.com/banshee-data/vesseltrace/internal/vessel"
	"github.com/banshee-data/vesseltrace/internal/version"
)

var (
	flagDB       string
	flagConfig   string
	flagFormat   string
	flagVerbose  bool
	flagTraceLog bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "vesseltrace",
	Short:         "Trace branching vessels through a stack of image slices",
	Long:          "vesseltrace follows tube-shaped structures slice by slice, resolves bifurcations, and stores the resulting branch network in a SQLite database.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagFormat != "text" && flagFormat != "json" {
			return fmt.Errorf("unknown format %q (want text or json)", flagFormat)
		}
		configureLogging(cmd.ErrOrStderr())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "vesseltrace.db", "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "tuning file (.json or .yaml); embedded defaults when empty")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format: text|json")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log branch lifecycle and split decisions")
	rootCmd.PersistentFlags().BoolVar(&flagTraceLog, "trace-log", false, "log every exploration step (very noisy)")

	rootCmd.AddCommand(traceCmd, reverseCmd, runsCmd, mergeCmd, segmentizeCmd, versionCmd)
}

func configureLogging(w io.Writer) {
	lw := vessel.LogWriters{Ops: w}
	if flagVerbose || flagTraceLog {
		lw.Diag = w
	}
	if flagTraceLog {
		lw.Trace = w
	}
	vessel.SetLogWriters(lw)
	if flagVerbose {
		monitoring.SetLogger(monitoring.WriterLogger(w, "[vesseltrace] "))
	} else {
		monitoring.SetLogger(nil)
	}
}

func loadTuning() (*config.TracingConfig, error) {
	if flagConfig == "" {
		return config.DefaultTracingConfig(), nil
	}
	return config.LoadTracingConfig(flagConfig)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String("vesseltrace"))
	},
}
