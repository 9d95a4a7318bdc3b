// Package csvout persists fare observations as CSV: a run-level quotes
// file, plus one detail file per ride type in the layout the collected
// history already uses.
package csvout

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/farewatch/farewatch/models"
)

// QuotesFile collects every observation of a run, one row per ride type
// per route.
const QuotesFile = "quotes.csv"

// QuoteRow is one line of the quotes file.
type QuoteRow struct {
	Route     string `csv:"route"`
	RideType  string `csv:"ride_type"`
	Price     string `csv:"price"`
	Timestamp string `csv:"timestamp"`
}

// DetailRow is one line of a per-ride-type detail file. The column order
// matches the files accumulated by earlier versions of this tool, so the
// history keeps appending seamlessly.
type DetailRow struct {
	Date             string `csv:"date"`
	Time             string `csv:"time"`
	TripEstimate     string `csv:"trip_estimate"`
	BaseFare         string `csv:"base_fare"`
	MinimumFare      string `csv:"minimum_fare"`
	PlusPerMinute    string `csv:"plus_per_minute"`
	PlusPerKilometer string `csv:"plus_per_kilometer"`
	WaitCharge       string `csv:"wait_charge"`
}

// Writer appends fare observations to CSV files under a directory. Headers
// are written only when a file is empty. With truncate set, each file is
// started fresh on its first write of the run and appended to afterwards.
//
// A Writer has a single owner (the scrape loop) and is not safe for
// concurrent use.
type Writer struct {
	dir       string
	truncate  bool
	truncated map[string]bool
}

// NewWriter returns a writer rooted at dir.
func NewWriter(dir string, truncate bool) *Writer {
	return &Writer{
		dir:       dir,
		truncate:  truncate,
		truncated: map[string]bool{},
	}
}

// WriteQuote appends one row to the quotes file.
func (w *Writer) WriteQuote(q models.FareQuote) error {
	row := QuoteRow{
		Route:     q.Route,
		RideType:  q.RideType,
		Price:     q.Estimate,
		Timestamp: q.CapturedAt.Format(time.RFC3339),
	}
	return w.appendRows(filepath.Join(w.dir, QuotesFile), []QuoteRow{row})
}

// WriteDetail appends one row to the ride type's detail file.
func (w *Writer) WriteDetail(q models.FareQuote) error {
	row := DetailRow{
		Date:             q.CapturedAt.Format("2006-01-02"),
		Time:             q.CapturedAt.Format("15:04:05"),
		TripEstimate:     q.Estimate,
		BaseFare:         q.BaseFare,
		MinimumFare:      q.MinimumFare,
		PlusPerMinute:    q.PlusPerMinute,
		PlusPerKilometer: q.PlusPerKilometer,
		WaitCharge:       q.WaitCharge,
	}
	name := sanitizeFilename(q.RideType) + ".csv"
	return w.appendRows(filepath.Join(w.dir, name), []DetailRow{row})
}

// appendRows opens path in the mode the run demands and marshals rows with
// a header only when the file holds nothing yet.
func (w *Writer) appendRows(path string, rows any) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return models.NewScrapeError(models.ErrCodeCSVWrite, "create CSV directory", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if w.truncate && !w.truncated[path] {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return models.NewScrapeError(models.ErrCodeCSVWrite, "open CSV file", err)
	}
	w.truncated[path] = true

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return models.NewScrapeError(models.ErrCodeCSVWrite, "stat CSV file", err)
	}

	if st.Size() == 0 {
		err = gocsv.Marshal(rows, f)
	} else {
		err = gocsv.MarshalWithoutHeaders(rows, f)
	}
	if err != nil {
		f.Close()
		return models.NewScrapeError(models.ErrCodeCSVWrite, "write CSV row", err)
	}

	if err := f.Close(); err != nil {
		return models.NewScrapeError(models.ErrCodeCSVWrite, "close CSV file", err)
	}
	return nil
}

// sanitizeFilename makes a ride type name safe to use as a file name.
// Spaces are kept; the collected history has always used them.
func sanitizeFilename(name string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '-'
		}
		return r
	}, strings.TrimSpace(name))

	if s == "" || s == "." || s == ".." {
		return "ride"
	}
	return s
}
