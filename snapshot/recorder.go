// Package snapshot captures what a failed extraction was looking at. Each
// capture leaves three artifacts side by side: the raw HTML for replaying
// selectors, a Markdown rendition for skimming, and a short text summary
// for the run log. Snapshots are diagnostics only; scraping never reads
// them back.
package snapshot

import (
	"bytes"
	"fmt"
	"log/slog"
	nurl "net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// contentSelector narrows the Markdown rendition to the page's content
// region. The fare pages render everything interesting inside <main>.
const contentSelector = "main"

// summaryTextLimit caps how much extracted text the summary carries.
const summaryTextLimit = 2000

// Recorder writes page snapshots under a directory. The zero-value and nil
// Recorder are both disabled.
type Recorder struct {
	dir     string
	enabled bool
	conv    *converter.Converter
	seq     int
}

// NewRecorder returns a recorder writing to dir. With enabled false every
// Capture is a no-op, so callers never need to branch.
func NewRecorder(dir string, enabled bool) *Recorder {
	return &Recorder{
		dir:     dir,
		enabled: enabled,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// Capture writes the artifact set for one page and returns the path of the
// HTML artifact, or "" when the recorder is disabled. The raw HTML always
// lands; Markdown and summary are best effort.
func (r *Recorder) Capture(label, pageURL, rawHTML string) (string, error) {
	if r == nil || !r.enabled {
		return "", nil
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot directory: %w", err)
	}

	r.seq++
	stem := fmt.Sprintf("%s-%s-%02d", sanitizeLabel(label), time.Now().Format("20060102-150405"), r.seq)

	htmlPath := filepath.Join(r.dir, stem+".html")
	if err := os.WriteFile(htmlPath, []byte(rawHTML), 0o644); err != nil {
		return "", fmt.Errorf("write HTML snapshot: %w", err)
	}

	if md, err := r.toMarkdown(pageURL, rawHTML); err != nil {
		slog.Warn("snapshot markdown rendition failed", "label", label, "error", err)
	} else if writeErr := os.WriteFile(filepath.Join(r.dir, stem+".md"), []byte(md), 0o644); writeErr != nil {
		slog.Warn("write markdown snapshot failed", "error", writeErr)
	}

	summary := summarize(pageURL, rawHTML)
	if err := os.WriteFile(filepath.Join(r.dir, stem+".txt"), []byte(summary), 0o644); err != nil {
		slog.Warn("write snapshot summary failed", "error", err)
	}

	return htmlPath, nil
}

// toMarkdown renders the page's content region as Markdown, resolving
// relative links against the page's domain.
func (r *Recorder) toMarkdown(pageURL, rawHTML string) (string, error) {
	content, err := contentRegion(rawHTML)
	if err != nil {
		content = rawHTML
	}

	domain := ""
	if u, parseErr := nurl.Parse(pageURL); parseErr == nil {
		domain = u.Hostname()
	}
	return r.conv.ConvertString(content, converter.WithDomain(domain))
}

// contentRegion returns the outer HTML of the page's content elements.
// When the content selector matches nothing the whole page is returned, so
// downstream always has something to render.
func contentRegion(rawHTML string) (string, error) {
	sel, err := cascadia.Parse(contentSelector)
	if err != nil {
		return "", err
	}
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", err
	}

	matches := cascadia.QueryAll(doc, sel)
	if len(matches) == 0 {
		return rawHTML, nil
	}

	var buf bytes.Buffer
	for _, node := range matches {
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func sanitizeLabel(label string) string {
	s := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, strings.TrimSpace(label))
	if s == "" {
		return "page"
	}
	return s
}
