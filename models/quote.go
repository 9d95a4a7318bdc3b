package models

import "time"

// FieldMissing is recorded for any fare component the page did not render.
// Missing components never abort a scrape; the gap is visible in the CSV.
const FieldMissing = "N/A"

// FareQuote is one scraped observation: a ride type's displayed pricing for
// a route at a point in time. Quotes are flushed to CSV right after
// extraction and not retained in memory.
type FareQuote struct {
	Route    string
	RideType string

	// Estimate is the displayed trip price, verbatim (e.g. "EGP 115.56").
	Estimate string

	// Fare breakdown, verbatim from the expanded fare card.
	BaseFare         string
	MinimumFare      string
	PlusPerMinute    string
	PlusPerKilometer string
	WaitCharge       string

	CapturedAt time.Time
}
