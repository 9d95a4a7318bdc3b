package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/farewatch/farewatch/models"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.True(t, cfg.Browser.Headless)
	require.Equal(t, DefaultUserAgent, cfg.Browser.UserAgent)
	require.Equal(t, 3, cfg.Scrape.MaxAttempts)
	require.Equal(t, time.Second, cfg.Scrape.RetryDelay)
	require.Equal(t, 6, cfg.Proxy.RotationThreshold)
	require.Equal(t, "csv/uber", cfg.Output.CSVDir)
	require.False(t, cfg.Output.Truncate)
	require.Equal(t, "uber_cookies.json", cfg.Output.CookiesFile)
	require.Equal(t, DefaultRoutes, cfg.Routes.Spec)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("FAREWATCH_HEADLESS", "false")
	t.Setenv("FAREWATCH_MAX_ATTEMPTS", "5")
	t.Setenv("FAREWATCH_RETRY_DELAY", "250ms")
	t.Setenv("FAREWATCH_ROTATION_THRESHOLD", "2")
	t.Setenv("FAREWATCH_CSV_TRUNCATE", "true")
	t.Setenv("FAREWATCH_BLOCKED_RESOURCES", "Image, Media")
	t.Setenv("UBER_PHONE_NUMBER", "+201234567890")

	cfg := Load()

	require.False(t, cfg.Browser.Headless)
	require.Equal(t, 5, cfg.Scrape.MaxAttempts)
	require.Equal(t, 250*time.Millisecond, cfg.Scrape.RetryDelay)
	require.Equal(t, 2, cfg.Proxy.RotationThreshold)
	require.True(t, cfg.Output.Truncate)
	require.Equal(t, []string{"Image", "Media"}, cfg.Browser.BlockedResourceTypes)
	require.Equal(t, "+201234567890", cfg.Credentials.PhoneNumber)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("FAREWATCH_MAX_ATTEMPTS", "many")
	t.Setenv("FAREWATCH_RETRY_DELAY", "soon")
	t.Setenv("FAREWATCH_HEADLESS", "sure")

	cfg := Load()

	require.Equal(t, 3, cfg.Scrape.MaxAttempts)
	require.Equal(t, time.Second, cfg.Scrape.RetryDelay)
	require.True(t, cfg.Browser.Headless)
}

func TestParseRoutes(t *testing.T) {
	routes, err := ParseRoutes(DefaultRoutes)
	require.NoError(t, err)
	require.Len(t, routes, 1)
	require.Equal(t, "cairo-october", routes[0].Name)
	require.InDelta(t, 30.0272027, routes[0].Pickup.Latitude, 1e-9)
	require.InDelta(t, 31.1384884, routes[0].Pickup.Longitude, 1e-9)
	require.InDelta(t, 30.0249469, routes[0].Drop.Latitude, 1e-9)
	require.InDelta(t, 30.8969389, routes[0].Drop.Longitude, 1e-9)
}

func TestParseRoutesMultiple(t *testing.T) {
	routes, err := ParseRoutes("a=1,2->3,4; b=5.5,6.6->7.7,8.8")
	require.NoError(t, err)
	require.Len(t, routes, 2)
	require.Equal(t, "b", routes[1].Name)
	require.Equal(t, models.Coordinate{Latitude: 5.5, Longitude: 6.6}, routes[1].Pickup)
}

func TestParseRoutesErrors(t *testing.T) {
	tests := []struct {
		name string
		list string
	}{
		{"empty", ""},
		{"no name", "=1,2->3,4"},
		{"no arrow", "a=1,2,3,4"},
		{"bad latitude", "a=north,2->3,4"},
		{"latitude out of range", "a=91,2->3,4"},
		{"longitude out of range", "a=1,181->3,4"},
		{"duplicate name", "a=1,2->3,4;a=5,6->7,8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRoutes(tt.list)
			require.Error(t, err)
			require.Equal(t, models.ErrCodeBadConfig, models.CodeOf(err))
		})
	}
}
