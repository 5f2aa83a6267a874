package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vulnverified/svcmap/internal/config"
	"github.com/vulnverified/svcmap/internal/lookup"
	"github.com/vulnverified/svcmap/internal/output"
)

func newLookupCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "lookup <port>[/<protocol>]...",
		Short: "Look up service names in a built table",
		Example: `  svcmap lookup 22 443/tcp 53/udp
  svcmap lookup --table services.msgpack 5060/udp`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bind(cmd, config.KeyTable, "table")
			cfg, _, err := a.load()
			if err != nil {
				return err
			}

			queries := make([]lookup.Key, 0, len(args))
			for _, arg := range args {
				k, err := parseQuery(arg)
				if err != nil {
					return err
				}
				queries = append(queries, k)
			}

			table, err := loadTable(cfg.Table)
			if err != nil {
				return err
			}

			answers := make([]lookup.Entry, 0, len(queries))
			for _, k := range queries {
				svc, ok := table.Lookup(k.Port, k.Protocol)
				if !ok {
					svc = lookup.Unrecognized
				}
				answers = append(answers, lookup.Entry{Protocol: k.Protocol, Port: k.Port, Service: svc})
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				return output.WriteJSON(out, answers)
			}
			output.WriteLookupTable(out, answers, cfg.NoColor)
			return nil
		},
	}

	cmd.Flags().StringP("table", "t", "services.csv", "Lookup table to read (csv, json or msgpack)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output JSON")

	return cmd
}

func newResolveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <protocol> <src-port> <dst-port>",
		Short: "Name the service of a flow",
		Long: "Resolve a flow to a service using the lower of its two ports, " +
			"printing Unrecognized when the table has no entry.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.bind(cmd, config.KeyTable, "table")
			cfg, _, err := a.load()
			if err != nil {
				return err
			}

			src, err := parsePort(args[1])
			if err != nil {
				return err
			}
			dst, err := parsePort(args[2])
			if err != nil {
				return err
			}

			table, err := loadTable(cfg.Table)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), table.ResolveFlow(args[0], src, dst))
			return nil
		},
	}

	cmd.Flags().StringP("table", "t", "services.csv", "Lookup table to read (csv, json or msgpack)")

	return cmd
}

// parseQuery parses "443" or "53/udp". The protocol defaults to TCP.
func parseQuery(s string) (lookup.Key, error) {
	portStr, protoStr, hasProto := strings.Cut(strings.TrimSpace(s), "/")

	port, err := parsePort(portStr)
	if err != nil {
		return lookup.Key{}, err
	}

	proto := lookup.TCP
	if hasProto {
		proto = lookup.ParseProtocol(protoStr)
		if proto == "" {
			return lookup.Key{}, fmt.Errorf("invalid query %q: empty protocol", s)
		}
	}
	return lookup.Key{Port: uint16(port), Protocol: proto}, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	if port < 0 || port > lookup.MaxPort {
		return 0, fmt.Errorf("port %d out of range (0-%d)", port, lookup.MaxPort)
	}
	return port, nil
}
