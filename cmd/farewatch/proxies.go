package main

import (
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/farewatch/farewatch/browser"
	"github.com/farewatch/farewatch/config"
	"github.com/farewatch/farewatch/proxy"
)

var flagCheck bool

func init() {
	proxiesCmd.Flags().BoolVar(&flagCheck, "check", false,
		"resolve the egress IP through every proxy and flag leaks")
	rootCmd.AddCommand(proxiesCmd)
}

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "List the configured proxy pool, optionally checking each endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := config.Load()
		initLogger(cfg.Log)

		endpoints, err := loadProxies(cfg.Proxy)
		if err != nil {
			return err
		}
		if len(endpoints) == 0 {
			slog.Info("no proxies configured, scrapes will connect directly")
			return nil
		}

		var realIP string
		if flagCheck {
			realIP, err = browser.RealEgressIP(ctx)
			if err != nil {
				slog.Warn("could not resolve real egress IP, leak column degraded", "error", err)
			}
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		header := table.Row{"#", "Endpoint", "Auth"}
		if flagCheck {
			header = append(header, "Egress IP", "Status")
		}
		t.AppendHeader(header)

		for i, ep := range endpoints {
			auth := "no"
			if ep.HasAuth() {
				auth = "yes"
			}
			row := table.Row{i + 1, ep.Addr(), auth}

			if flagCheck {
				ip, checkErr := browser.CheckEndpoint(ctx, ep)
				switch {
				case checkErr != nil:
					row = append(row, "-", "unreachable")
				case realIP != "" && ip == realIP:
					row = append(row, ip, "LEAK")
				default:
					row = append(row, ip, "ok")
				}
			}
			t.AppendRow(row)
		}

		t.Render()
		return nil
	},
}

// loadProxies merges the inline proxy list with the proxy file. An empty
// result is valid and means no proxying.
func loadProxies(cfg config.ProxyConfig) ([]proxy.Endpoint, error) {
	var endpoints []proxy.Endpoint

	if cfg.List != "" {
		parsed, err := proxy.ParseList(cfg.List)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, parsed...)
	}
	if cfg.File != "" {
		loaded, err := proxy.LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, loaded...)
	}
	return endpoints, nil
}
