package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vulnverified/svcmap/internal/config"
	"github.com/vulnverified/svcmap/internal/engine"
	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/internal/output"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		silent     bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the lookup table from the registry",
		Long: "Read the registry CSV (optionally .gz or .zst compressed), expand port ranges, " +
			"resolve collisions last-write-wins and write protocol,port,service rows.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.load()
			if err != nil {
				return err
			}

			format, err := lookup.ParseFormat(cfg.Format)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			// Progress output.
			showProgress := !jsonOutput && !silent
			progress := output.NewProgress(os.Stderr, verbose, !showProgress)

			if showProgress {
				output.WriteHeader(os.Stderr, cfg.NoColor)
			}

			result, err := engine.Run(ctx, engine.Config{
				Source: cfg.Source,
				Output: cfg.Output,
				Format: format,
				Stdout: os.Stdout,
			}, engine.DefaultStages(log), progress)
			if err != nil {
				return err
			}

			if showProgress {
				progress.Complete()
			}

			// Keep stdout clean when the table itself goes there.
			report := os.Stdout
			if cfg.Output == engine.StdoutPath {
				report = os.Stderr
			}

			if jsonOutput {
				return output.WriteJSON(report, result)
			}
			if !silent {
				output.WriteSummary(report, result, cfg.NoColor)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("source", "s", "service-names-port-numbers.csv", "Registry CSV to read")
	flags.StringP("output", "o", "services.csv", "Output path, or - for stdout")
	flags.StringP("format", "f", "csv", "Output format: csv, json or msgpack")
	flags.BoolVar(&jsonOutput, "json", false, "Print the build result as JSON")
	flags.BoolVar(&silent, "silent", false, "No progress or summary")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Verbose per-stage progress")

	_ = a.v.BindPFlag(config.KeySource, flags.Lookup("source"))
	_ = a.v.BindPFlag(config.KeyOutput, flags.Lookup("output"))
	_ = a.v.BindPFlag(config.KeyFormat, flags.Lookup("format"))

	return cmd
}
