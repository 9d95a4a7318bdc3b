package uber

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/farewatch/farewatch/domdrift"
	"github.com/farewatch/farewatch/models"
)

// Run collects quotes for all routes, treating a failure the way an
// operator would: log in and try the whole thing once more. Routes that
// completed before the failure are not re-scraped.
func (s *Scraper) Run(ctx context.Context, phone, password string, routes []models.Route) error {
	done, err := s.collect(ctx, routes)
	if err == nil || ctx.Err() != nil {
		return err
	}

	slog.Warn("quote collection failed, authenticating and retrying", "error", err)
	if loginErr := s.Login(ctx, phone, password); loginErr != nil {
		return loginErr
	}
	_, err = s.collect(ctx, routes[done:])
	return err
}

// CollectQuotes scrapes every route once, assuming an authenticated
// session. Per-route failures are logged and skipped; a lost login aborts
// the pass so the caller can re-authenticate.
func (s *Scraper) CollectQuotes(ctx context.Context, routes []models.Route) error {
	_, err := s.collect(ctx, routes)
	return err
}

// collect returns how many leading routes completed, so a retry after
// re-login can resume instead of duplicating rows.
func (s *Scraper) collect(ctx context.Context, routes []models.Route) (int, error) {
	for i, route := range routes {
		err := s.collectRoute(ctx, route)
		if err == nil {
			continue
		}
		if models.HasCode(err, models.ErrCodeLoginFailed) || ctx.Err() != nil {
			return i, err
		}
		slog.Error("route failed, skipping", "route", route.Name, "error", err)
	}
	return len(routes), nil
}

// collectRoute opens the route's fare deep link and walks the ride type
// list, extracting and persisting one quote per ride type.
//
//  1. Deep link      – fare page with pickup and drop pinned
//  2. Login check    – anonymous sessions get no prices
//  3. Ride type list – one li per ride type
//  4. Per-ride walk  – expand, settle, snapshot, parse, persist
//  5. Cookie refresh – keep the saved session current
func (s *Scraper) collectRoute(ctx context.Context, route models.Route) error {
	slog.Info("getting prices", "route", route.Name)

	// ── 1. Deep link ─────────────────────────────────────────────────
	if err := s.session.Visit(ctx, FareLink(route)); err != nil {
		return err
	}

	// ── 2. Login check ───────────────────────────────────────────────
	if !s.loggedIn(ctx) {
		return models.NewScrapeError(models.ErrCodeLoginFailed, "not logged in", nil)
	}

	// ── 3. Ride type list ────────────────────────────────────────────
	items, err := s.rideTypeItems(ctx)
	if err != nil {
		return err
	}

	// ── 4. Per-ride walk ─────────────────────────────────────────────
	for i, item := range items {
		if err := s.extractRide(ctx, route, item); err != nil {
			if ctx.Err() != nil {
				return err
			}
			slog.Error("ride type failed, skipping", "route", route.Name, "index", i, "error", err)
		}
	}

	// ── 5. Cookie refresh ────────────────────────────────────────────
	if err := s.session.SaveCookies(); err != nil {
		slog.Warn("could not refresh session cookies", "error", err)
	}
	return nil
}

// rideTypeItems waits for the ride list and returns its entries rebound to
// the caller's context, so the per-ride walk outlives the list lookup
// deadline.
func (s *Scraper) rideTypeItems(ctx context.Context) ([]*rod.Element, error) {
	listCtx, cancel := context.WithTimeout(ctx, s.cfg.ElementTimeout)
	defer cancel()

	list, err := s.session.Page(listCtx).Element(selRideTypeList)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "ride type list not found", err)
	}
	found, err := list.Elements(selRideTypeItem)
	if err != nil || len(found) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeExtraction, "no ride types found", err)
	}

	items := make([]*rod.Element, len(found))
	for i, el := range found {
		items[i] = el.Context(ctx)
	}
	return items, nil
}

// extractRide expands one ride type's fare card and turns it into a CSV
// row. Failures leave a snapshot and a drift verdict behind when those
// diagnostics are enabled.
func (s *Scraper) extractRide(ctx context.Context, route models.Route, item *rod.Element) error {
	// Expand the card and give the breakdown time to render.
	if err := s.expandCard(ctx, item); err != nil {
		return models.NewScrapeError(models.ErrCodeExtraction, "expand fare card", err)
	}
	if err := sleep(ctx, s.cfg.SettleDelay); err != nil {
		return err
	}

	rawHTML, err := s.pageHTML(ctx)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeExtraction, "read fare page HTML", err)
	}

	card, err := ParseFareCard(rawHTML)
	if err != nil {
		s.diagnose(route, rawHTML, err)
		return err
	}
	s.recordBaseline(rawHTML)

	quote := card.Quote(route.Name, time.Now())
	slog.Info("saving ride data", "route", route.Name, "rideType", card.RideName)
	if err := s.sink.WriteQuote(quote); err != nil {
		return err
	}
	return s.sink.WriteDetail(quote)
}

func (s *Scraper) expandCard(ctx context.Context, item *rod.Element) error {
	actCtx, cancel := context.WithTimeout(ctx, s.cfg.ElementTimeout)
	defer cancel()
	return item.Context(actCtx).Click(proto.InputMouseButtonLeft, 1)
}

func (s *Scraper) pageHTML(ctx context.Context) (string, error) {
	htmlCtx, cancel := context.WithTimeout(ctx, s.cfg.ElementTimeout)
	defer cancel()
	return s.session.Page(htmlCtx).HTML()
}

// diagnose records what a failed extraction was looking at: a layout drift
// verdict against the last good fingerprint, and a snapshot of the page.
func (s *Scraper) diagnose(route models.Route, rawHTML string, cause error) {
	if s.drift != nil {
		fp := domdrift.Fingerprint(rawHTML)
		if base, ok := s.drift.Load(); ok {
			slog.Warn("extraction failed, layout drift checked",
				"route", route.Name,
				"verdict", domdrift.Verdict(base, fp),
				"distance", domdrift.Distance(base, fp),
				"error", cause,
			)
		}
	}
	if s.snaps != nil {
		path, err := s.snaps.Capture(route.Name, FareHomeURL, rawHTML)
		if err != nil {
			slog.Warn("snapshot capture failed", "error", err)
		} else if path != "" {
			slog.Info("page snapshot written", "path", path)
		}
	}
}

// recordBaseline refreshes the drift fingerprint after a successful parse.
func (s *Scraper) recordBaseline(rawHTML string) {
	if s.drift == nil {
		return
	}
	if err := s.drift.Record(domdrift.Fingerprint(rawHTML)); err != nil {
		slog.Debug("baseline write failed", "error", err)
	}
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
