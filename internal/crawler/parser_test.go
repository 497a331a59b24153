package crawler

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractTitleFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "title element wins",
			html: `<html><head><title> Install Guide </title><meta property="og:title" content="OG"></head><body></body></html>`,
			want: "Install Guide",
		},
		{
			name: "og title when title missing",
			html: `<html><head><meta property="og:title" content="Release Notes"></head><body></body></html>`,
			want: "Release Notes",
		},
		{
			name: "json-ld headline last",
			html: `<html><head><script type="application/ld+json">{"@type":"Article","headline":"Quarterly Report"}</script></head><body></body></html>`,
			want: "Quarterly Report",
		},
		{
			name: "nothing available",
			html: `<html><head></head><body><p>hi</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, tt.html)
			if got := extractTitle(doc.Selection); got != tt.want {
				t.Errorf("extractTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractArticleBody(t *testing.T) {
	body := strings.Repeat("All work and no play makes for dull documentation. ", 6)
	html := `<html><head><script type="application/ld+json">{"@type":"NewsArticle","articleBody":"` + body + `"}</script></head><body><p>nav junk</p></body></html>`

	doc := mustDoc(t, html)
	got := extractArticleBody(doc.Selection)
	if got != strings.TrimSpace(body) {
		t.Errorf("extractArticleBody() = %q, want article body", got)
	}
}

func TestExtractArticleBodyGraphContainer(t *testing.T) {
	html := `<html><head><script type="application/ld+json">{"@graph":[{"@type":"WebPage"},{"@type":"Article","articleBody":"graph body text"}]}</script></head><body></body></html>`

	doc := mustDoc(t, html)
	if got := extractArticleBody(doc.Selection); got != "graph body text" {
		t.Errorf("extractArticleBody() = %q, want graph body", got)
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTPS://Example.COM/Docs/", "https://example.com/Docs"},
		{"https://example.com:443/a#frag", "https://example.com/a"},
		{"http://example.com:80/", "http://example.com/"},
		{"https://example.com", "https://example.com/"},
	}

	for _, tt := range tests {
		got, err := normalizeURL(tt.in)
		if err != nil {
			t.Fatalf("normalizeURL(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("normalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
