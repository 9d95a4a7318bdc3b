package browser

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/farewatch/farewatch/models"
)

// CookieStore persists browser cookies as JSON so a login survives between
// runs and between browser rebuilds.
type CookieStore struct {
	path string
}

// NewCookieStore returns a store backed by the given file path.
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// Path returns the backing file path.
func (c *CookieStore) Path() string {
	return c.path
}

// Save writes the cookie set to disk, creating parent directories as
// needed. The file is user-readable only; cookies carry the login session.
func (c *CookieStore) Save(cookies []*proto.NetworkCookie) error {
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cookie directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

// Load reads the cookie set from disk. A missing file is not an error; it
// just means no login has been saved yet.
func (c *CookieStore) Load() ([]*proto.NetworkCookie, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, err
	}
	return cookies, nil
}

// restoreCookies replays saved cookies into the page and reloads it so the
// restored login takes effect. Expiries are not replayed; an expired
// cookie would vanish on set and make the login probe flap.
func (s *Session) restoreCookies(p *rod.Page) error {
	if s.cookies == nil {
		return nil
	}

	cookies, err := s.cookies.Load()
	if err != nil {
		return err
	}
	if len(cookies) == 0 {
		slog.Debug("no cookie file found, proceeding without cookies", "path", s.cookies.Path())
		return nil
	}

	for _, c := range cookies {
		_, setErr := proto.NetworkSetCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: c.SameSite,
		}.Call(p)
		if setErr != nil {
			slog.Debug("cookie rejected by browser", "name", c.Name, "error", setErr)
		}
	}
	slog.Info("cookies restored", "count", len(cookies), "path", s.cookies.Path())

	if err := p.Reload(); err != nil {
		return err
	}
	waitSettled(p)
	return nil
}

// SaveCookies snapshots the browser's cookie jar to the store.
func (s *Session) SaveCookies() error {
	if s.cookies == nil || s.browser == nil {
		return nil
	}
	cookies, err := s.browser.GetCookies()
	if err != nil {
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "read browser cookies", err)
	}
	return s.cookies.Save(cookies)
}
