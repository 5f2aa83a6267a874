package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vulnverified/svcmap/internal/config"
	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/internal/output"
	"github.com/vulnverified/svcmap/internal/registry"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	output.Version = version

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries settings shared by every subcommand.
type app struct {
	v          *viper.Viper
	configFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	rootCmd := &cobra.Command{
		Use:   "svcmap",
		Short: "Build a port/protocol to service lookup table",
		Long: "Ingest the IANA service-name/port-number registry and produce a canonical, " +
			"deduplicated (port, protocol) -> service table for packet and flow tooling.",
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (yaml, toml or json)")
	flags.Bool("no-color", false, "Disable terminal colors")
	flags.String("log-level", "warn", "Diagnostic log level (debug, info, warn, error)")
	_ = a.v.BindPFlag(config.KeyNoColor, flags.Lookup("no-color"))
	_ = a.v.BindPFlag(config.KeyLogLevel, flags.Lookup("log-level"))

	rootCmd.AddCommand(
		newBuildCmd(a),
		newLookupCmd(a),
		newResolveCmd(a),
		newSRVCmd(a),
	)

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("svcmap {{.Version}}\n")

	return rootCmd
}

// bind ties a config key to one of cmd's flags. Several subcommands share
// keys, so binding happens when the command runs rather than at setup.
func (a *app) bind(cmd *cobra.Command, key, flag string) {
	_ = a.v.BindPFlag(key, cmd.Flags().Lookup(flag))
}

// load resolves configuration and a stderr logger.
func (a *app) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, nil, err
	}

	// Respect NO_COLOR env var.
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.NoColor = true
	}

	log, err := config.NewLogger(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// signalContext returns a context cancelled on Ctrl+C.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// loadTable reads a serialized lookup table, inferring its format from the
// file name.
func loadTable(path string) (*lookup.Table, error) {
	rc, err := registry.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer rc.Close()

	return readTable(rc, lookup.FormatFromPath(path))
}

func readTable(r io.Reader, f lookup.Format) (*lookup.Table, error) {
	table, err := lookup.Load(r, f)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("lookup table is empty")
	}
	return table, nil
}
