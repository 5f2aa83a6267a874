// Package srvcheck audits DNS SRV records against the registry lookup table.
package srvcheck

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"github.com/vulnverified/svcmap/internal/lookup"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout     = 3 * time.Second
	defaultConcurrency = 10
	fallbackResolver   = "8.8.8.8:53"
	resolvConf         = "/etc/resolv.conf"
)

// Status classifies an SRV record against the registry.
type Status string

const (
	// Registered means the registry assigns the SRV port to the queried label.
	Registered Status = "registered"
	// Mismatch means the registry assigns the port to another service.
	Mismatch Status = "mismatch"
	// Unregistered means the registry has no entry for the port.
	Unregistered Status = "unregistered"
)

// srvProtocols are the transport labels queried for every service.
var srvProtocols = []lookup.Protocol{lookup.TCP, lookup.UDP}

// Finding is one SRV record and its registry classification.
type Finding struct {
	Name            string          `json:"name"`
	Label           string          `json:"label"`
	Protocol        lookup.Protocol `json:"protocol"`
	Target          string          `json:"target"`
	Port            uint16          `json:"port"`
	Priority        uint16          `json:"priority"`
	Weight          uint16          `json:"weight"`
	Status          Status          `json:"status"`
	RegistryService string          `json:"registry_service,omitempty"`
}

// Result holds the output of an SRV audit.
type Result struct {
	Domain   string    `json:"domain"`
	Resolver string    `json:"resolver"`
	Queried  int       `json:"queried"`
	Findings []Finding `json:"findings"`
	Warnings []string  `json:"warnings,omitempty"`
}

// Exchanger sends a DNS query. *dns.Client satisfies it.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, address string) (*dns.Msg, time.Duration, error)
}

// Checker queries SRV records for a set of service labels.
type Checker struct {
	// Resolver is the host:port of the DNS server. Empty uses the system
	// resolver from /etc/resolv.conf.
	Resolver    string
	Timeout     time.Duration
	Concurrency int
	Client      Exchanger
	// TCPClient repeats a query whose UDP answer came back truncated.
	// Nil uses a TCP *dns.Client.
	TCPClient Exchanger
}

// Check queries _label._tcp.domain and _label._udp.domain for each label and
// classifies every answer against table. Names that do not exist are not
// reported; failed queries become warnings.
func (c *Checker) Check(ctx context.Context, domain string, labels []string, table *lookup.Table) (*Result, error) {
	domain = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" {
		return nil, fmt.Errorf("domain is required")
	}
	if _, ok := dns.IsDomainName(domain); !ok {
		return nil, fmt.Errorf("invalid domain %q", domain)
	}

	server := c.Resolver
	if server == "" {
		server = SystemResolver()
	}
	client := c.Client
	if client == nil {
		client = &dns.Client{Timeout: c.timeout()}
	}
	tcpClient := c.TCPClient
	if tcpClient == nil {
		tcpClient = &dns.Client{Net: "tcp", Timeout: c.timeout()}
	}

	result := &Result{Domain: domain, Resolver: server}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency())

	for _, label := range dedupeLabels(labels) {
		for _, proto := range srvProtocols {
			label, proto := label, proto
			result.Queried++
			g.Go(func() error {
				findings, err := querySRV(gctx, client, tcpClient, server, domain, label, proto, table)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Warnings = append(result.Warnings, err.Error())
					return nil
				}
				result.Findings = append(result.Findings, findings...)
				return nil
			})
		}
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.Slice(result.Findings, func(i, j int) bool {
		a, b := result.Findings[i], result.Findings[j]
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		if a.Protocol != b.Protocol {
			return a.Protocol < b.Protocol
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Port != b.Port {
			return a.Port < b.Port
		}
		return a.Target < b.Target
	})
	sort.Strings(result.Warnings)

	return result, nil
}

// querySRV performs one SRV lookup, repeating it over tcpClient when the
// first answer is truncated.
func querySRV(ctx context.Context, client, tcpClient Exchanger, server, domain, label string, proto lookup.Protocol, table *lookup.Table) ([]Finding, error) {
	name := fmt.Sprintf("_%s._%s.%s", label, strings.ToLower(string(proto)), domain)

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeSRV)
	msg.RecursionDesired = true

	resp, _, err := client.ExchangeContext(ctx, msg, server)
	if err != nil {
		return nil, fmt.Errorf("SRV %s: %w", name, err)
	}
	if resp.Truncated {
		resp, _, err = tcpClient.ExchangeContext(ctx, msg, server)
		if err != nil {
			return nil, fmt.Errorf("SRV %s: truncated, TCP retry: %w", name, err)
		}
	}

	switch resp.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, nil
	default:
		return nil, fmt.Errorf("SRV %s: %s", name, dns.RcodeToString[resp.Rcode])
	}

	var findings []Finding
	for _, rr := range resp.Answer {
		srv, ok := rr.(*dns.SRV)
		if !ok {
			continue
		}
		findings = append(findings, classify(Finding{
			Name:     name,
			Label:    label,
			Protocol: proto,
			Target:   strings.TrimSuffix(strings.ToLower(srv.Target), "."),
			Port:     srv.Port,
			Priority: srv.Priority,
			Weight:   srv.Weight,
		}, table))
	}
	return findings, nil
}

func classify(f Finding, table *lookup.Table) Finding {
	svc, ok := table.Lookup(f.Port, f.Protocol)
	switch {
	case !ok:
		f.Status = Unregistered
	case strings.EqualFold(svc, f.Label):
		f.Status = Registered
		f.RegistryService = svc
	default:
		f.Status = Mismatch
		f.RegistryService = svc
	}
	return f
}

// SystemResolver returns the first nameserver from /etc/resolv.conf, or a
// public fallback.
func SystemResolver() string {
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil || len(cfg.Servers) == 0 {
		return fallbackResolver
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

func (c *Checker) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultTimeout
	}
	return c.Timeout
}

func (c *Checker) concurrency() int {
	if c.Concurrency < 1 {
		return defaultConcurrency
	}
	return c.Concurrency
}

func dedupeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		l = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(l)), "_")
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
