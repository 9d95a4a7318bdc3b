package browser

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	tls2 "github.com/refraction-networking/utls"

	"github.com/farewatch/farewatch/config"
	"github.com/farewatch/farewatch/models"
	"github.com/farewatch/farewatch/proxy"
)

// ipifyURL echoes the caller's public IP as plain text.
const ipifyURL = "https://api64.ipify.org"

// fetchRealIP resolves the machine's own egress IP without the browser.
// The request presents a Chrome TLS fingerprint so it looks no different
// from the browser traffic that follows it.
func fetchRealIP(ctx context.Context) (string, error) {
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetTransport(&http.Transport{DialTLSContext: dialTLSChrome}).
		SetHeader("User-Agent", config.DefaultUserAgent)

	resp, err := client.R().SetContext(ctx).Get(ipifyURL)
	if err != nil {
		return "", fmt.Errorf("resolve real IP: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("resolve real IP: HTTP %d", resp.StatusCode())
	}

	ip := strings.TrimSpace(resp.String())
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("resolve real IP: unexpected body %q", ip)
	}
	return ip, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}
	rawConn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls2.UClient(rawConn, &tls2.Config{
		ServerName:         host,
		InsecureSkipVerify: false,
	}, tls2.HelloChrome_Auto)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		rawConn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// verifyEgressIP loads the IP echo service through the freshly proxied
// browser and compares the answer to the real IP. A match, or a page that
// will not resolve, means the proxy is not masking us.
func (s *Session) verifyEgressIP(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, s.scrapeCfg.NavTimeout)
	defer cancel()
	p := s.page.Context(checkCtx)

	proxyIP := s.realIP
	if err := p.Navigate(ipifyURL); err == nil {
		if el, elErr := p.Element("pre"); elErr == nil {
			if txt, txtErr := el.Text(); txtErr == nil {
				proxyIP = strings.TrimSpace(txt)
			}
		}
	}
	if proxyIP == s.realIP {
		return models.NewScrapeError(models.ErrCodeIPLeak, "proxy did not mask the real IP", nil)
	}
	return nil
}

// RealEgressIP resolves the machine's own egress IP, for callers that
// want to compare proxied answers against it.
func RealEgressIP(ctx context.Context) (string, error) {
	return fetchRealIP(ctx)
}

// CheckEndpoint resolves the egress IP seen through a single proxy
// endpoint, for the proxy list health check. Credentials go into the
// in-memory proxy URL only; they are never logged or returned.
func CheckEndpoint(ctx context.Context, ep proxy.Endpoint) (string, error) {
	proxyURL := ep.URL()
	if ep.HasAuth() {
		proxyURL = "http://" + url.UserPassword(ep.Username, ep.Password).String() + "@" + ep.Addr()
	}

	client := resty.New().
		SetTimeout(15 * time.Second).
		SetProxy(proxyURL).
		SetHeader("User-Agent", config.DefaultUserAgent)

	resp, err := client.R().SetContext(ctx).Get(ipifyURL)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", ep, err)
	}
	ip := strings.TrimSpace(resp.String())
	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("check %s: unexpected body %q", ep, ip)
	}
	return ip, nil
}
