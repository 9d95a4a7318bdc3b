package browser

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/farewatch/farewatch/models"
)

// Visit loads pageURL, retrying up to the configured attempt bound and
// rotating to the next proxy between attempts. Page loads are paced by the
// session limiter, and every threshold-th load rebuilds the browser on a
// fresh proxy even when nothing failed.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Pace          – wait for the rate limiter
//  2. Rotation      – scheduled rebuild on the page-load threshold
//  3. Attempt loop  – navigate, rotating and pausing between failures
func (s *Session) Visit(ctx context.Context, pageURL string) error {
	// ── 1. Pace ──────────────────────────────────────────────────────
	if err := s.limiter.Wait(ctx); err != nil {
		return categorizeNavError(err, "interrupted while pacing page load")
	}

	// ── 2. Scheduled rotation ────────────────────────────────────────
	s.pageLoads++
	if s.threshold > 0 && s.rotation.Size() > 0 && s.pageLoads%s.threshold == 0 {
		slog.Info("rotation threshold reached, rebuilding browser", "pageLoads", s.pageLoads)
		if err := s.rebuild(ctx); err != nil {
			return err
		}
	}

	// ── 3. Attempt loop ──────────────────────────────────────────────
	var lastErr error
	for attempt := 1; attempt <= s.scrapeCfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if s.rotation.Size() > 0 {
				if err := s.rebuild(ctx); err != nil {
					return err
				}
			}
			if err := sleep(ctx, s.scrapeCfg.RetryDelay); err != nil {
				return categorizeNavError(err, "interrupted between attempts")
			}
		}

		err := s.navigate(ctx, pageURL)
		if err == nil {
			return nil
		}
		lastErr = err
		slog.Warn("page visit failed",
			"url", pageURL,
			"attempt", attempt,
			"maxAttempts", s.scrapeCfg.MaxAttempts,
			"error", err,
		)
	}
	return lastErr
}

// navigate performs a single load of pageURL on the current browser:
// navigate, settle, restore cookies on the first load of this browser, and
// reject CAPTCHA interstitials.
func (s *Session) navigate(ctx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.scrapeCfg.NavTimeout)
	defer cancel()
	p := s.page.Context(navCtx)

	if err := p.Navigate(pageURL); err != nil {
		return categorizeNavError(err, "navigation failed")
	}
	waitSettled(p)

	// Cookies only need restoring once per browser instance; the reload
	// inside makes the restored login visible to the current page.
	if !s.cookiesLoaded {
		if err := s.restoreCookies(p); err != nil {
			slog.Warn("cookie restore failed, continuing anonymous", "error", err)
		}
		s.cookiesLoaded = true
	}

	if finalURL := evalStringOrEmpty(p, `() => window.location.href`); IsCaptchaURL(finalURL) {
		return models.NewScrapeError(models.ErrCodeCaptcha, "captcha interstitial encountered", nil)
	}
	return nil
}

// waitSettled waits for the DOM to stop mutating, proceeding with whatever
// rendered when it does not converge.
func waitSettled(p *rod.Page) {
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// IsCaptchaURL reports whether a landed URL is a CAPTCHA interstitial
// rather than the page that was asked for.
func IsCaptchaURL(pageURL string) bool {
	return strings.Contains(pageURL, "google.com/sorry") ||
		strings.Contains(pageURL, "google.com/recaptcha")
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeNavError wraps raw errors into typed ScrapeErrors so retry and
// skip decisions can branch on the code.
func categorizeNavError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "operation canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
