// Package proxy parses outbound proxy lists and hands endpoints out in
// strict rotation. Browser sessions take the next endpoint whenever the
// page-load threshold or a blocked-IP signal forces a rebuild.
package proxy

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/farewatch/farewatch/models"
)

// Endpoint is one outbound HTTP proxy in the rotation list.
type Endpoint struct {
	Host string
	Port int

	// Username and Password are optional. When present they are answered
	// on the browser's proxy auth challenge, never embedded in URLs.
	Username string
	Password string
}

// Addr returns the host:port dial address.
func (e Endpoint) Addr() string {
	return e.Host + ":" + strconv.Itoa(e.Port)
}

// URL returns the endpoint as an http proxy URL without credentials.
func (e Endpoint) URL() string {
	return "http://" + e.Addr()
}

// HasAuth reports whether the endpoint carries credentials.
func (e Endpoint) HasAuth() bool {
	return e.Username != ""
}

// String renders the endpoint for logs with credentials redacted.
func (e Endpoint) String() string {
	if e.HasAuth() {
		return e.Addr() + " (auth)"
	}
	return e.Addr()
}

// Parse parses one proxy list entry. Two syntaxes are accepted, matching
// the proxy files this tool has always consumed:
//
//	host:port
//	host:port:user:pass
func Parse(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, models.NewScrapeError(models.ErrCodeBadConfig, "empty proxy entry", nil)
	}

	parts := strings.Split(raw, ":")
	if len(parts) != 2 && len(parts) != 4 {
		return Endpoint{}, models.NewScrapeError(models.ErrCodeBadConfig,
			fmt.Sprintf("proxy entry %q: want host:port or host:port:user:pass", raw), nil)
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil || port < 1 || port > 65535 {
		return Endpoint{}, models.NewScrapeError(models.ErrCodeBadConfig,
			fmt.Sprintf("proxy entry %q: bad port %q", raw, parts[1]), err)
	}
	if parts[0] == "" {
		return Endpoint{}, models.NewScrapeError(models.ErrCodeBadConfig,
			fmt.Sprintf("proxy entry %q: empty host", raw), nil)
	}

	ep := Endpoint{Host: parts[0], Port: port}
	if len(parts) == 4 {
		if parts[2] == "" || parts[3] == "" {
			return Endpoint{}, models.NewScrapeError(models.ErrCodeBadConfig,
				fmt.Sprintf("proxy entry %q: empty credentials", raw), nil)
		}
		ep.Username = parts[2]
		ep.Password = parts[3]
	}
	return ep, nil
}

// ParseList parses a proxy list given inline as configuration. Entries are
// separated by commas, semicolons or newlines; blanks are skipped.
func ParseList(raw string) ([]Endpoint, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '\r'
	})

	var eps []Endpoint
	for _, f := range fields {
		if strings.TrimSpace(f) == "" {
			continue
		}
		ep, err := Parse(f)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}

// LoadFile reads a proxy list file, one entry per line. Blank lines and
// lines starting with # are skipped.
func LoadFile(path string) ([]Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBadConfig, "read proxy file", err)
	}

	var eps []Endpoint
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ep, err := Parse(line)
		if err != nil {
			return nil, err
		}
		eps = append(eps, ep)
	}
	return eps, nil
}
