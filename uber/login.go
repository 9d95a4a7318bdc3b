package uber

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/go-rod/rod/lib/proto"

	"github.com/farewatch/farewatch/browser"
	"github.com/farewatch/farewatch/config"
	"github.com/farewatch/farewatch/domdrift"
	"github.com/farewatch/farewatch/models"
	"github.com/farewatch/farewatch/snapshot"
)

// QuoteSink receives every successfully extracted fare observation. A row
// is written per call; nothing is buffered.
type QuoteSink interface {
	WriteQuote(models.FareQuote) error
	WriteDetail(models.FareQuote) error
}

// Scraper drives the fare pages through a browser session. It composes the
// session rather than extending it; the session knows navigation, the
// scraper knows the site.
type Scraper struct {
	session *browser.Session
	cfg     config.ScrapeConfig
	sink    QuoteSink
	snaps   *snapshot.Recorder
	drift   *domdrift.Baseline

	otpIn  io.Reader
	otpOut io.Writer
}

// New builds a scraper over an already-launched session. snaps and drift
// may be nil; diagnostics are then skipped.
func New(session *browser.Session, cfg config.ScrapeConfig, sink QuoteSink, snaps *snapshot.Recorder, drift *domdrift.Baseline) *Scraper {
	return &Scraper{
		session: session,
		cfg:     cfg,
		sink:    sink,
		snaps:   snaps,
		drift:   drift,
		otpIn:   os.Stdin,
		otpOut:  os.Stdout,
	}
}

// SetOTPPrompt redirects where the one-time code prompt reads and writes.
func (s *Scraper) SetOTPPrompt(in io.Reader, out io.Writer) {
	s.otpIn = in
	s.otpOut = out
}

// Login authenticates the browser session with the rider account. The flow
// mirrors the site: phone number first, then either the password shortcut
// or the SMS one-time code followed by the password. On success the fare
// page is opened and the session cookies are persisted for later runs.
//
// A bounded number of attempts is made; each attempt starts by probing
// whether the previous one already landed a login.
func (s *Scraper) Login(ctx context.Context, phone, password string) error {
	if phone == "" || password == "" {
		return models.NewScrapeError(models.ErrCodeBadConfig,
			"phone number and password are required for login", nil)
	}

	slog.Info("authentication called")
	if err := s.session.Visit(ctx, LoginURL); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		if s.loggedIn(ctx) {
			slog.Info("login session active")
			return nil
		}

		err := s.loginOnce(ctx, phone, password)
		if err == nil {
			slog.Info("authentication succeeded", "attempt", attempt)
			return nil
		}
		lastErr = err
		slog.Warn("authentication attempt failed", "attempt", attempt, "error", err)

		// An exhausted OTP prompt cannot succeed on a rerun.
		if models.HasCode(err, models.ErrCodeOTPInvalid) {
			return err
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}
	return models.NewScrapeError(models.ErrCodeLoginFailed,
		"authentication failed after multiple attempts", lastErr)
}

// loginOnce runs a single pass of the auth flow.
//
//  1. Phone number   – fill and advance
//  2. Password / OTP – the site offers one of the two
//  3. Submit         – final advance
//  4. Land + persist – open the fare page, verify, save cookies
func (s *Scraper) loginOnce(ctx context.Context, phone, password string) error {
	// ── 1. Phone number ──────────────────────────────────────────────
	if err := s.fillField(ctx, selPhoneField, phone); err != nil {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "enter phone number", err)
	}
	if err := s.clickElement(ctx, selForwardButton); err != nil {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "advance past phone number", err)
	}

	// ── 2. Password or one-time code ─────────────────────────────────
	usePassword, err := s.passwordOption(ctx)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "select password option", err)
	}
	if usePassword {
		if err := s.enterPassword(ctx, password); err != nil {
			return err
		}
	} else {
		if err := s.enterOTP(ctx, password); err != nil {
			return err
		}
	}

	// ── 3. Submit ────────────────────────────────────────────────────
	if err := s.clickElement(ctx, selForwardButton); err != nil {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "submit login", err)
	}

	// ── 4. Land on the fare page and persist the session ─────────────
	if err := s.session.Visit(ctx, FareHomeURL); err != nil {
		return err
	}
	if !s.loggedIn(ctx) {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "login did not take effect", nil)
	}
	if err := s.session.SaveCookies(); err != nil {
		slog.Warn("could not persist session cookies", "error", err)
	}
	return nil
}

// loggedIn probes for an element only rendered for authenticated sessions.
func (s *Scraper) loggedIn(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.LoginProbeTimeout)
	defer cancel()
	_, err := s.session.Page(probeCtx).Element(selLoggedInProbe)
	return err == nil
}

// passwordOption reports whether the "use password instead" shortcut is
// offered, clicking it when present. Absence means the SMS code screen.
func (s *Scraper) passwordOption(ctx context.Context) (bool, error) {
	optCtx, cancel := context.WithTimeout(ctx, s.cfg.ElementTimeout)
	defer cancel()

	el, err := s.session.Page(optCtx).Element(selPasswordOption)
	if err != nil {
		slog.Info("one-time code required")
		return false, nil
	}
	slog.Info("using password instead of one-time code")
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scraper) enterPassword(ctx context.Context, password string) error {
	if err := s.fillField(ctx, selPasswordField, password); err != nil {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "enter password", err)
	}
	return nil
}

// enterOTP types the SMS code into the first digit box (the page fans the
// digits out itself), then falls through to the password screen that
// follows it.
func (s *Scraper) enterOTP(ctx context.Context, password string) error {
	if err := s.clickElement(ctx, selOTPFirstDigit); err != nil {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "focus one-time code field", err)
	}

	code, err := PromptOTP(s.otpIn, s.otpOut)
	if err != nil {
		return err
	}

	if err := s.fillField(ctx, selOTPFirstDigit, code); err != nil {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "enter one-time code", err)
	}
	return s.enterPassword(ctx, password)
}

// fillField waits for sel, focuses it, and types text into it.
func (s *Scraper) fillField(ctx context.Context, sel, text string) error {
	actCtx, cancel := context.WithTimeout(ctx, s.cfg.ElementTimeout)
	defer cancel()

	el, err := s.session.Page(actCtx).Element(sel)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	return el.Input(text)
}

// clickElement waits for sel and clicks it.
func (s *Scraper) clickElement(ctx context.Context, sel string) error {
	actCtx, cancel := context.WithTimeout(ctx, s.cfg.ElementTimeout)
	defer cancel()

	el, err := s.session.Page(actCtx).Element(sel)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}
