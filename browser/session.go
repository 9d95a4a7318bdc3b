// Package browser owns the Rod browser lifecycle for a scraping run: launch
// with stealth flags, proxy rotation with IP leak checks, paced navigation
// with bounded retries, and cookie persistence between runs.
package browser

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"golang.org/x/time/rate"

	"github.com/farewatch/farewatch/config"
	"github.com/farewatch/farewatch/models"
	"github.com/farewatch/farewatch/proxy"
)

// Session manages one live browser and rebuilds it whenever the proxy
// rotation demands a fresh identity. A Session has a single owner (the run
// loop) and is not safe for concurrent use.
type Session struct {
	browserCfg config.BrowserConfig
	scrapeCfg  config.ScrapeConfig
	rotation   *proxy.Rotator
	threshold  int
	limiter    *rate.Limiter
	cookies    *CookieStore

	launch  *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter

	realIP        string
	pageLoads     int
	cookiesLoaded bool
}

// NewSession resolves the machine's real egress IP, then launches the first
// browser (proxied when the rotation is non-empty, leak-checked against the
// real IP).
func NewSession(
	ctx context.Context,
	browserCfg config.BrowserConfig,
	scrapeCfg config.ScrapeConfig,
	rotation *proxy.Rotator,
	threshold int,
	cookies *CookieStore,
) (*Session, error) {
	s := &Session{
		browserCfg: browserCfg,
		scrapeCfg:  scrapeCfg,
		rotation:   rotation,
		threshold:  threshold,
		limiter:    rate.NewLimiter(rate.Limit(scrapeCfg.NavRPS), scrapeCfg.NavBurst),
		cookies:    cookies,
		realIP:     "unknown",
	}

	if rotation.Size() > 0 {
		ip, err := fetchRealIP(ctx)
		if err != nil {
			slog.Warn("could not resolve real egress IP, leak checks degraded", "error", err)
		} else {
			s.realIP = ip
			slog.Info("real egress IP resolved")
		}
	}

	if err := s.rebuild(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// rebuild tears down the current browser and launches a fresh one on the
// next proxy in rotation. Each endpoint is tried at most once per rebuild;
// when every endpoint leaks the real IP the run cannot continue.
func (s *Session) rebuild(ctx context.Context) error {
	s.closeBrowser()

	attempts := 1
	if s.rotation.Size() > 0 {
		attempts = s.rotation.Size()
	}

	var lastErr error
	leaked := 0
	for i := 0; i < attempts; i++ {
		ep, proxied := s.rotation.Next()
		if proxied {
			slog.Info("current proxy", "endpoint", ep.String())
		}

		err := s.launchBrowser(ctx, ep, proxied)
		if err == nil && proxied {
			err = s.verifyEgressIP(ctx)
		}
		if err == nil {
			return nil
		}

		lastErr = err
		s.closeBrowser()

		if models.HasCode(err, models.ErrCodeIPLeak) {
			leaked++
			slog.Warn("forced a proxy rotate due to an IP leak", "endpoint", ep.String())
			continue
		}
		slog.Warn("browser launch failed", "error", err)
	}

	if s.rotation.Size() > 0 && leaked == attempts {
		return models.NewScrapeError(models.ErrCodeProxyExhausted, "all proxies are down", lastErr)
	}
	return lastErr
}

// launchBrowser starts Chromium with the stealth flag set, connects, and
// prepares a page with the stealth script, user agent override and resource
// blocking installed.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Launcher flags  – proxy, headless, automation masking
//  2. Launch+connect  – obtain the CDP control URL
//  3. Proxy auth      – answer the auth challenge out of band
//  4. Page creation   – single tab per browser
//  5. Stealth + UA    – must be installed before any navigation
//  6. Resource hijack – discard images/media/fonts at the network layer
func (s *Session) launchBrowser(ctx context.Context, ep proxy.Endpoint, proxied bool) error {
	// ── 1. Launcher flags ────────────────────────────────────────────
	l := launcher.New().
		Headless(s.browserCfg.Headless).
		NoSandbox(s.browserCfg.NoSandbox)

	if s.browserCfg.BrowserBin != "" {
		l = l.Bin(s.browserCfg.BrowserBin)
	}
	if proxied {
		l = l.Proxy(ep.Addr())
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))
	if slices.Contains(s.browserCfg.BlockedResourceTypes, "Image") {
		// The hijack router cannot run on authenticated proxies (step 6),
		// so images are also cut at the Blink layer.
		l.Set(flags.Flag("blink-settings"), "imagesEnabled=false")
	}

	// ── 2. Launch and connect ────────────────────────────────────────
	controlURL, err := l.Launch()
	if err != nil {
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	// ── 3. Proxy auth challenge ──────────────────────────────────────
	if proxied && ep.HasAuth() {
		go func() {
			_ = browser.HandleAuth(ep.Username, ep.Password)()
		}()
	}

	// ── 4. Page creation ─────────────────────────────────────────────
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to create page", err)
	}

	// ── 5. Stealth script and user agent ─────────────────────────────
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}
	_ = (proto.NetworkSetUserAgentOverride{
		UserAgent:      s.browserCfg.UserAgent,
		AcceptLanguage: "en-US,en",
		Platform:       "Linux x86_64",
	}).Call(page)
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}.Call(page)

	// ── 6. Resource hijack ───────────────────────────────────────────
	// NOTE: the hijack router uses the Fetch domain, which conflicts with
	// HandleAuth's use of it. Authenticated proxies rely on the Blink
	// image switch alone.
	var router *rod.HijackRouter
	if !(proxied && ep.HasAuth()) {
		router = blockResources(page, s.browserCfg.BlockedResourceTypes)
	}

	s.launch = l
	s.browser = browser
	s.page = page
	s.router = router
	s.cookiesLoaded = false
	return nil
}

// Page returns the current page bound to ctx. The page is replaced whenever
// the browser is rebuilt; callers must not retain it across Visit calls.
func (s *Session) Page(ctx context.Context) *rod.Page {
	return s.page.Context(ctx)
}

// RealIP returns the egress IP resolved at startup, or "unknown".
func (s *Session) RealIP() string {
	return s.realIP
}

func (s *Session) closeBrowser() {
	if s.router != nil {
		_ = s.router.Stop()
		s.router = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			slog.Debug("browser close", "error", err)
		}
		s.browser = nil
		s.page = nil
	}
	if s.launch != nil {
		s.launch.Kill()
		s.launch = nil
	}
}

// Close kills the browser process. Call this on shutdown to prevent zombie
// Chrome processes.
func (s *Session) Close() {
	slog.Info("browser session shutting down")
	s.closeBrowser()
	slog.Info("browser session shutdown complete")
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
