package uber

import (
	"fmt"
	"strconv"

	"github.com/farewatch/farewatch/models"
)

const (
	// LoginURL is the entry point of the auth flow.
	LoginURL = "https://auth.uber.com/v2/"

	// FareHomeURL is the fare page without a route preloaded.
	FareHomeURL = "https://m.uber.com/looking"
)

// FareLink builds the deep link that opens the fare page with pickup and
// drop pinned. The coordinate JSON rides in the query string unescaped;
// that is the exact shape the site's own share links use, and the shape
// this tool has always sent.
func FareLink(route models.Route) string {
	return fmt.Sprintf(
		`%s?drop[0]={"latitude":%s,"longitude":%s}&pickup={"latitude":%s,"longitude":%s}`,
		FareHomeURL,
		coord(route.Drop.Latitude), coord(route.Drop.Longitude),
		coord(route.Pickup.Latitude), coord(route.Pickup.Longitude),
	)
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
