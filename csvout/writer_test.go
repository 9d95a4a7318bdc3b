package csvout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farewatch/farewatch/models"
)

func sampleQuote(at time.Time) models.FareQuote {
	return models.FareQuote{
		Route:            "cairo-october",
		RideType:         "UberX",
		Estimate:         "EGP 115.56",
		BaseFare:         "EGP 7.00",
		MinimumFare:      "EGP 19.25",
		PlusPerMinute:    "EGP 0.55",
		PlusPerKilometer: "EGP 2.30",
		WaitCharge:       "EGP 0.85",
		CapturedAt:       at,
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestWriteQuote_HeaderAndOrder(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)
	at := time.Date(2025, 11, 3, 8, 30, 0, 0, time.UTC)

	require.NoError(t, w.WriteQuote(sampleQuote(at)))

	lines := readLines(t, filepath.Join(dir, QuotesFile))
	require.Len(t, lines, 2)
	require.Equal(t, "route,ride_type,price,timestamp", lines[0])
	require.Equal(t, "cairo-october,UberX,EGP 115.56,2025-11-03T08:30:00Z", lines[1])
}

func TestWriteQuote_OneRowPerCallInOrder(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)
	at := time.Date(2025, 11, 3, 8, 30, 0, 0, time.UTC)

	for i, rideType := range []string{"UberX", "Uber XL", "Comfort"} {
		q := sampleQuote(at.Add(time.Duration(i) * time.Minute))
		q.RideType = rideType
		require.NoError(t, w.WriteQuote(q))
	}

	lines := readLines(t, filepath.Join(dir, QuotesFile))
	require.Len(t, lines, 4, "header plus one row per call")
	require.Contains(t, lines[1], "UberX")
	require.Contains(t, lines[2], "Uber XL")
	require.Contains(t, lines[3], "Comfort")
}

func TestWriteQuote_AppendsAcrossWriters(t *testing.T) {
	dir := t.TempDir()
	at := time.Now()

	require.NoError(t, NewWriter(dir, false).WriteQuote(sampleQuote(at)))
	require.NoError(t, NewWriter(dir, false).WriteQuote(sampleQuote(at)))

	lines := readLines(t, filepath.Join(dir, QuotesFile))
	require.Len(t, lines, 3, "second run must append, not overwrite")
	require.Equal(t, 1, strings.Count(strings.Join(lines, "\n"), "route,ride_type"), "header written once")
}

func TestWriteQuote_TruncateStartsFresh(t *testing.T) {
	dir := t.TempDir()
	at := time.Now()

	require.NoError(t, NewWriter(dir, false).WriteQuote(sampleQuote(at)))

	w := NewWriter(dir, true)
	require.NoError(t, w.WriteQuote(sampleQuote(at)))
	require.NoError(t, w.WriteQuote(sampleQuote(at)))

	lines := readLines(t, filepath.Join(dir, QuotesFile))
	require.Len(t, lines, 3, "truncate once per run, then append")
}

func TestWriteDetail_FilePerRideTypeWithHistoricColumns(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)
	at := time.Date(2025, 11, 3, 8, 30, 15, 0, time.UTC)

	require.NoError(t, w.WriteDetail(sampleQuote(at)))

	lines := readLines(t, filepath.Join(dir, "UberX.csv"))
	require.Len(t, lines, 2)
	require.Equal(t,
		"date,time,trip_estimate,base_fare,minimum_fare,plus_per_minute,plus_per_kilometer,wait_charge",
		lines[0])
	require.Equal(t,
		"2025-11-03,08:30:15,EGP 115.56,EGP 7.00,EGP 19.25,EGP 0.55,EGP 2.30,EGP 0.85",
		lines[1])
}

func TestWriteDetail_SanitizesRideTypeName(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, false)

	q := sampleQuote(time.Now())
	q.RideType = "Uber/X"
	require.NoError(t, w.WriteDetail(q))
	require.FileExists(t, filepath.Join(dir, "Uber-X.csv"))

	q.RideType = "  "
	require.NoError(t, w.WriteDetail(q))
	require.FileExists(t, filepath.Join(dir, "ride.csv"))
}

func TestWriterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "csv", "uber")
	w := NewWriter(dir, false)

	require.NoError(t, w.WriteQuote(sampleQuote(time.Now())))
	require.DirExists(t, dir)
}
