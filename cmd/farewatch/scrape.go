package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/farewatch/farewatch/browser"
	"github.com/farewatch/farewatch/config"
	"github.com/farewatch/farewatch/csvout"
	"github.com/farewatch/farewatch/domdrift"
	"github.com/farewatch/farewatch/proxy"
	"github.com/farewatch/farewatch/snapshot"
	"github.com/farewatch/farewatch/uber"
)

var (
	flagRoutes   string
	flagTruncate bool
	flagHeadless bool
)

func init() {
	scrapeCmd.Flags().StringVar(&flagRoutes, "routes", "",
		`routes as "name=plat,plong->dlat,dlong;..." (overrides FAREWATCH_ROUTES)`)
	scrapeCmd.Flags().BoolVar(&flagTruncate, "truncate", false,
		"start CSV files fresh instead of appending")
	scrapeCmd.Flags().BoolVar(&flagHeadless, "headless", true,
		"run the browser headless")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Log in and record fare quotes for every configured route",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// ── 1. Load configuration ───────────────────────────────────────
		cfg := config.Load()
		if cmd.Flags().Changed("routes") {
			cfg.Routes.Spec = flagRoutes
		}
		if cmd.Flags().Changed("truncate") {
			cfg.Output.Truncate = flagTruncate
		}
		if cmd.Flags().Changed("headless") {
			cfg.Browser.Headless = flagHeadless
		}

		// ── 2. Initialise structured logging ────────────────────────────
		initLogger(cfg.Log)
		slog.Info("farewatch starting",
			"headless", cfg.Browser.Headless,
			"csvDir", cfg.Output.CSVDir,
			"rotationThreshold", cfg.Proxy.RotationThreshold,
		)

		// ── 3. Validate selectors and routes ────────────────────────────
		if err := uber.ValidateSelectors(); err != nil {
			return err
		}
		routes, err := config.ParseRoutes(cfg.Routes.Spec)
		if err != nil {
			return err
		}
		slog.Info("routes parsed", "count", len(routes))

		// ── 4. Build the proxy rotation ─────────────────────────────────
		endpoints, err := loadProxies(cfg.Proxy)
		if err != nil {
			return err
		}
		rotation := proxy.NewRotator(endpoints)
		if rotation.Size() > 0 {
			slog.Info("proxy rotation ready", "size", rotation.Size())
		} else {
			slog.Info("no proxies configured, connecting directly")
		}

		// ── 5. Outputs: CSV, snapshots, drift baseline ──────────────────
		sink := csvout.NewWriter(cfg.Output.CSVDir, cfg.Output.Truncate)
		snaps := snapshot.NewRecorder(cfg.Output.SnapshotDir, cfg.Output.Snapshots)
		drift := domdrift.NewBaseline(cfg.Output.BaselineFile)

		// ── 6. Launch the browser session ───────────────────────────────
		cookies := browser.NewCookieStore(cfg.Output.CookiesFile)
		session, err := browser.NewSession(ctx, cfg.Browser, cfg.Scrape,
			rotation, cfg.Proxy.RotationThreshold, cookies)
		if err != nil {
			return err
		}
		defer session.Close()

		// ── 7. Walk every route ─────────────────────────────────────────
		sc := uber.New(session, cfg.Scrape, sink, snaps, drift)
		if err := sc.Run(ctx, cfg.Credentials.PhoneNumber, cfg.Credentials.Password, routes); err != nil {
			return err
		}

		slog.Info("farewatch finished", "routes", len(routes))
		return nil
	},
}
