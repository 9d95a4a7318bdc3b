package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/farewatch/farewatch/models"
)

// DefaultRoutes is the Cairo to 6th of October City pair the tool has
// tracked since its first run.
const DefaultRoutes = "cairo-october=30.0272027,31.1384884->30.0249469,30.8969389"

// ParseRoutes parses a route list of the form
//
//	name=pickupLat,pickupLong->dropLat,dropLong;name2=...
//
// Route names must be unique; they key CSV rows and log lines.
func ParseRoutes(list string) ([]models.Route, error) {
	var routes []models.Route
	seen := map[string]bool{}

	for _, entry := range strings.Split(list, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, coords, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, badRoute(entry, "want name=pickup->drop")
		}
		if seen[name] {
			return nil, badRoute(entry, "duplicate route name")
		}
		seen[name] = true

		pickupRaw, dropRaw, ok := strings.Cut(coords, "->")
		if !ok {
			return nil, badRoute(entry, "want pickup->drop coordinates")
		}

		pickup, err := parseCoordinate(pickupRaw)
		if err != nil {
			return nil, badRoute(entry, err.Error())
		}
		drop, err := parseCoordinate(dropRaw)
		if err != nil {
			return nil, badRoute(entry, err.Error())
		}

		routes = append(routes, models.Route{Name: name, Pickup: pickup, Drop: drop})
	}

	if len(routes) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeBadConfig, "route list is empty", nil)
	}
	return routes, nil
}

func parseCoordinate(raw string) (models.Coordinate, error) {
	latRaw, longRaw, ok := strings.Cut(raw, ",")
	if !ok {
		return models.Coordinate{}, fmt.Errorf("coordinate %q: want lat,long", raw)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("coordinate %q: bad latitude", raw)
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(longRaw), 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("coordinate %q: bad longitude", raw)
	}

	if lat < -90 || lat > 90 {
		return models.Coordinate{}, fmt.Errorf("coordinate %q: latitude out of range", raw)
	}
	if long < -180 || long > 180 {
		return models.Coordinate{}, fmt.Errorf("coordinate %q: longitude out of range", raw)
	}
	return models.Coordinate{Latitude: lat, Longitude: long}, nil
}

func badRoute(entry, reason string) error {
	return models.NewScrapeError(models.ErrCodeBadConfig,
		fmt.Sprintf("route entry %q: %s", entry, reason), nil)
}
