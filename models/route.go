package models

import "strconv"

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// String renders the coordinate as "lat,long" with the shortest exact
// decimal form, the same way the fare page's deep links spell it.
func (c Coordinate) String() string {
	return formatCoord(c.Latitude) + "," + formatCoord(c.Longitude)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Route is one pickup/drop pair to collect fares for. Routes are static
// configuration: parsed once at startup and immutable for the run.
type Route struct {
	// Name identifies the route in CSV rows and logs.
	Name string

	Pickup Coordinate
	Drop   Coordinate
}
