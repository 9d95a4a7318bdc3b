package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/farewatch/farewatch/browser"
	"github.com/farewatch/farewatch/config"
	"github.com/farewatch/farewatch/csvout"
	"github.com/farewatch/farewatch/proxy"
	"github.com/farewatch/farewatch/uber"
)

func init() {
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate once and persist the session cookies",
	Long: `Runs only the login flow and saves the session cookies. Useful before
handing the scrape to a scheduler: the interactive one-time code prompt
happens here, at a terminal, and later scrape runs reuse the cookies.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := config.Load()
		initLogger(cfg.Log)

		endpoints, err := loadProxies(cfg.Proxy)
		if err != nil {
			return err
		}

		cookies := browser.NewCookieStore(cfg.Output.CookiesFile)
		session, err := browser.NewSession(ctx, cfg.Browser, cfg.Scrape,
			proxy.NewRotator(endpoints), cfg.Proxy.RotationThreshold, cookies)
		if err != nil {
			return err
		}
		defer session.Close()

		// The sink is never written to here; Login only lands the session.
		sink := csvout.NewWriter(cfg.Output.CSVDir, false)
		sc := uber.New(session, cfg.Scrape, sink, nil, nil)
		if err := sc.Login(ctx, cfg.Credentials.PhoneNumber, cfg.Credentials.Password); err != nil {
			return err
		}

		slog.Info("session cookies saved", "path", cookies.Path())
		return nil
	},
}
