package snapshot

import (
	nurl "net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// minArticleLength is the minimum readability TextContent length for the
// extraction to be trusted. App shells and error pages fall below it, and
// their summaries use the raw visible text instead.
const minArticleLength = 50

// summarize builds the plain-text artifact: capture metadata up top, then
// whatever readable text the page held.
func summarize(pageURL, rawHTML string) string {
	var b strings.Builder
	b.WriteString("url: " + pageURL + "\n")
	b.WriteString("captured: " + time.Now().Format(time.RFC3339) + "\n")

	text := ""
	if parsed, err := nurl.Parse(pageURL); err == nil {
		if article, err := readability.FromReader(strings.NewReader(rawHTML), parsed); err == nil {
			if article.Title != "" {
				b.WriteString("title: " + article.Title + "\n")
			}
			if article.Excerpt != "" {
				b.WriteString("excerpt: " + article.Excerpt + "\n")
			}
			if len(strings.TrimSpace(article.TextContent)) >= minArticleLength {
				text = article.TextContent
			}
		}
	}
	if text == "" {
		text = visibleText(rawHTML)
	}

	b.WriteString("---\n")
	b.WriteString(truncate(strings.TrimSpace(text), summaryTextLimit))
	b.WriteString("\n")
	return b.String()
}

// visibleText strips rawHTML down to the text a user would see, skipping
// script, style and noscript subtrees.
func visibleText(rawHTML string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(rawHTML))
	var buf strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if skipDepth == 0 {
				if text := strings.TrimSpace(string(tokenizer.Text())); text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
