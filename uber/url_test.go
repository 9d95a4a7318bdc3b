package uber

import (
	"testing"

	"github.com/farewatch/farewatch/models"
)

func TestFareLink(t *testing.T) {
	route := models.Route{
		Name:   "cairo-october",
		Pickup: models.Coordinate{Latitude: 30.0272027, Longitude: 31.1384884},
		Drop:   models.Coordinate{Latitude: 30.0249469, Longitude: 30.8969389},
	}

	want := `https://m.uber.com/looking?drop[0]={"latitude":30.0249469,"longitude":30.8969389}&pickup={"latitude":30.0272027,"longitude":31.1384884}`
	if got := FareLink(route); got != want {
		t.Errorf("FareLink:\n got %s\nwant %s", got, want)
	}
}

func TestFareLinkDropComesFirst(t *testing.T) {
	route := models.Route{
		Pickup: models.Coordinate{Latitude: 1.5, Longitude: 2.5},
		Drop:   models.Coordinate{Latitude: 3.5, Longitude: 4.5},
	}

	want := `https://m.uber.com/looking?drop[0]={"latitude":3.5,"longitude":4.5}&pickup={"latitude":1.5,"longitude":2.5}`
	if got := FareLink(route); got != want {
		t.Errorf("FareLink = %s, want %s", got, want)
	}
}
