package services

import (
	"testing"

	"docqa-platform/internal/crawler"
)

func TestStitchPages(t *testing.T) {
	tests := []struct {
		name  string
		pages []crawler.Page
		want  string
	}{
		{
			name:  "no pages",
			pages: nil,
			want:  "",
		},
		{
			name: "single page with title",
			pages: []crawler.Page{
				{Title: "Home", Content: "Welcome to the site."},
			},
			want: "Home\nWelcome to the site.",
		},
		{
			name: "untitled page",
			pages: []crawler.Page{
				{Content: "Body only."},
			},
			want: "Body only.",
		},
		{
			name: "multiple pages separated by blank line",
			pages: []crawler.Page{
				{Title: "Home", Content: "Welcome to the site."},
				{Content: "Second page body."},
			},
			want: "Home\nWelcome to the site.\n\nSecond page body.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stitchPages(tt.pages); got != tt.want {
				t.Errorf("stitchPages = %q, want %q", got, tt.want)
			}
		})
	}
}
