package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vulnverified/svcmap/internal/config"
	"github.com/vulnverified/svcmap/internal/output"
	"github.com/vulnverified/svcmap/internal/srvcheck"
	"github.com/vulnverified/svcmap/internal/wordlist"
)

func newSRVCmd(a *app) *cobra.Command {
	var (
		labels     []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "srv <domain>",
		Short: "Audit a domain's SRV records against the table",
		Long: "Query _<service>._tcp and _<service>._udp SRV records for a domain and report " +
			"whether each advertised port is registered to that service.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bind(cmd, config.KeyTable, "table")
			cfg, log, err := a.load()
			if err != nil {
				return err
			}

			table, err := loadTable(cfg.Table)
			if err != nil {
				return err
			}

			if len(labels) == 0 {
				labels = wordlist.SRVLabels()
			}

			ctx, cancel := signalContext()
			defer cancel()

			checker := &srvcheck.Checker{
				Resolver:    cfg.Resolver,
				Timeout:     cfg.Timeout,
				Concurrency: cfg.Concurrency,
			}
			result, err := checker.Check(ctx, args[0], labels, table)
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				log.Warn(w)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return output.WriteJSON(out, result)
			}
			output.WriteSRVTable(out, result, cfg.NoColor)
			fmt.Fprintf(out, "\n%d records from %d queries via %s\n", len(result.Findings), result.Queried, result.Resolver)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("table", "t", "services.csv", "Lookup table to read (csv, json or msgpack)")
	flags.StringSliceVarP(&labels, "label", "l", nil, "Service labels to query (default: built-in list)")
	flags.String("resolver", "", "DNS server host:port (default: from /etc/resolv.conf)")
	flags.Int("concurrency", 10, "Max concurrent DNS queries")
	flags.Duration("timeout", 3*time.Second, "Per-query timeout")
	flags.BoolVar(&jsonOutput, "json", false, "Output JSON")

	_ = a.v.BindPFlag(config.KeyResolver, flags.Lookup("resolver"))
	_ = a.v.BindPFlag(config.KeyConcurrency, flags.Lookup("concurrency"))
	_ = a.v.BindPFlag(config.KeyTimeout, flags.Lookup("timeout"))

	return cmd
}
