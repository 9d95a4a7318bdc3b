package uber

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/farewatch/farewatch/models"
)

// waitChargeRe pulls the price out of the wait charge blurb, which embeds
// it mid-sentence ("... EGP 0.55 per minute ...").
var waitChargeRe = regexp.MustCompile(`EGP (\d+\.\d+)`)

// FareCard is the pricing of one ride type as read from the expanded fare
// card. Fields the page did not render hold models.FieldMissing.
type FareCard struct {
	RideName         string
	Estimate         string
	BaseFare         string
	MinimumFare      string
	PlusPerMinute    string
	PlusPerKilometer string
	WaitCharge       string
}

// ParseFareCard extracts one ride type's pricing from a rendered fare page.
// Every field degrades to models.FieldMissing on its own, except the ride
// name: without it the observation cannot be attributed to anything, so
// the card is unusable.
func ParseFareCard(rawHTML string) (FareCard, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return FareCard{}, models.NewScrapeError(models.ErrCodeExtraction, "parse fare page HTML", err)
	}

	card := FareCard{
		RideName:         textOr(doc, selRideName, ""),
		Estimate:         textOr(doc, selRideEstimate, models.FieldMissing),
		BaseFare:         textOr(doc, selBaseFare, models.FieldMissing),
		MinimumFare:      textOr(doc, selMinimumFare, models.FieldMissing),
		PlusPerMinute:    textOr(doc, selPlusPerMinute, models.FieldMissing),
		PlusPerKilometer: textOr(doc, selPlusPerKilometer, models.FieldMissing),
		WaitCharge:       waitCharge(doc),
	}

	if card.RideName == "" {
		return FareCard{}, models.NewScrapeError(models.ErrCodeExtraction, "ride name not found on fare card", nil)
	}
	return card, nil
}

// Quote attributes the card to a route at a capture time.
func (c FareCard) Quote(route string, at time.Time) models.FareQuote {
	return models.FareQuote{
		Route:            route,
		RideType:         c.RideName,
		Estimate:         c.Estimate,
		BaseFare:         c.BaseFare,
		MinimumFare:      c.MinimumFare,
		PlusPerMinute:    c.PlusPerMinute,
		PlusPerKilometer: c.PlusPerKilometer,
		WaitCharge:       c.WaitCharge,
		CapturedAt:       at,
	}
}

// textOr returns the trimmed text of the first match of sel, or fallback
// when the selector misses or matches only whitespace.
func textOr(doc *goquery.Document, sel, fallback string) string {
	node := doc.Find(sel).First()
	if node.Length() == 0 {
		return fallback
	}
	text := strings.TrimSpace(node.Text())
	if text == "" {
		return fallback
	}
	return text
}

// waitCharge extracts the wait charge price. The full "EGP n.nn" match is
// kept, currency and all, like every other verbatim field.
func waitCharge(doc *goquery.Document) string {
	text := textOr(doc, selWaitCharge, "")
	if m := waitChargeRe.FindString(text); m != "" {
		return m
	}
	return models.FieldMissing
}
