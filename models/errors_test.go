package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestScrapeErrorFormatting(t *testing.T) {
	bare := NewScrapeError(ErrCodeCaptcha, "captcha interstitial encountered", nil)
	if got := bare.Error(); got != "CAPTCHA_BLOCKED: captcha interstitial encountered" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := NewScrapeError(ErrCodeNavigation, "navigation failed", errors.New("net::ERR_TIMED_OUT"))
	if got := wrapped.Error(); got != "NAV_FAILED: navigation failed: net::ERR_TIMED_OUT" {
		t.Errorf("Error() = %q", got)
	}
}

func TestScrapeErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewScrapeError(ErrCodeBrowserCrash, "failed to connect to browser", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach the wrapped cause")
	}
}

func TestCodeOf(t *testing.T) {
	inner := NewScrapeError(ErrCodeIPLeak, "proxy did not mask the real IP", nil)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), ""},
		{"scrape error", inner, ErrCodeIPLeak},
		{"fmt-wrapped scrape error", fmt.Errorf("rebuild: %w", inner), ErrCodeIPLeak},
		{"double wrapped", NewScrapeError(ErrCodeProxyExhausted, "all proxies are down", inner), ErrCodeProxyExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("visit: %w", NewScrapeError(ErrCodeCaptcha, "captcha interstitial encountered", nil))

	if !HasCode(err, ErrCodeCaptcha) {
		t.Error("HasCode missed the captcha code")
	}
	if HasCode(err, ErrCodeNavigation) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(nil, ErrCodeCaptcha) {
		t.Error("HasCode on nil should be false")
	}
}
