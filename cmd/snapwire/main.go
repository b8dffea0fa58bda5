package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/snapwire/snapwire/internal/config"
	"github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/infostring"
	"github.com/snapwire/snapwire/pkg/metrics"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries what the subcommands share once the root has loaded the
// configuration.
type app struct {
	configDir   string
	showMetrics bool

	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "snapwire",
		Short: "Inspect and produce snapshot wire data",
		Long: `snapwire works with the network messages exchanged by the game server
and its clients.

  • Read and edit info strings
  • Compute packet checksums
  • Quantize and look up direction normals
  • Decode entity deltas from hex dumps
  • Record and dump demos from disk or S3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.showMetrics {
				return nil
			}
			return a.printMetrics(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configDir, "config", "c", "", "Directory holding snapwire.json (default: search upward from the working directory)")
	rootCmd.PersistentFlags().BoolVar(&a.showMetrics, "metrics", false, "Print collected metrics to stderr when the command finishes")

	rootCmd.AddCommand(
		infoCmd(a),
		checksumCmd(),
		dirCmd(),
		deltaCmd(a),
		demoCmd(a),
		versionCmd(),
	)

	return rootCmd
}

// load reads the configuration and installs the logger. Logs go to w so
// command output stays clean.
func (a *app) load(w io.Writer) error {
	var err error
	if a.configDir != "" {
		a.cfg, err = config.Load(a.configDir)
		if err == nil {
			err = a.cfg.LoadEnv(filepath.Join(a.cfg.Dir(), config.EnvFileName))
		}
		if err == nil {
			err = a.cfg.Validate()
		}
	} else {
		a.cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return err
	}

	a.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: a.cfg.Level()}))
	slog.SetDefault(a.logger)
	infostring.SetLogger(a.logger)

	a.registry = prometheus.NewRegistry()
	opts := append(a.cfg.MetricsOptions(), metrics.WithRegistry(a.registry))
	a.metrics = metrics.New(opts...)
	return nil
}

// printMetrics writes every non-zero sample gathered during the command.
func (a *app) printMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				v = float64(m.GetHistogram().GetSampleCount())
			default:
				continue
			}
			if v == 0 {
				continue
			}
			labels := ""
			for _, lp := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", lp.GetName(), lp.GetValue())
			}
			fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), labels, v)
		}
	}
	return nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
