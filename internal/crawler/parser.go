package crawler

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractTitle returns the best available page title: the <title> element,
// then Open Graph metadata, then JSON-LD headline.
func extractTitle(sel *goquery.Selection) string {
	title := strings.TrimSpace(sel.Find("title").First().Text())
	if title != "" {
		return title
	}

	if og, exists := sel.Find("meta[property='og:title']").First().Attr("content"); exists {
		og = strings.TrimSpace(og)
		if og != "" {
			return og
		}
	}

	var headline string
	eachJSONLD(sel, func(data map[string]interface{}) {
		if headline != "" {
			return
		}
		if h, ok := data["headline"].(string); ok {
			headline = strings.TrimSpace(h)
		} else if n, ok := data["name"].(string); ok {
			headline = strings.TrimSpace(n)
		}
	})
	return headline
}

// extractArticleBody returns the articleBody published in JSON-LD structured
// data, if any. News and documentation sites often ship a cleaner copy of
// the article there than the rendered DOM.
func extractArticleBody(sel *goquery.Selection) string {
	var body string
	eachJSONLD(sel, func(data map[string]interface{}) {
		if body != "" {
			return
		}
		if b, ok := data["articleBody"].(string); ok {
			body = strings.TrimSpace(b)
		}
	})
	return body
}

// eachJSONLD parses every JSON-LD script block and hands each object to fn.
// Top-level arrays and @graph containers are flattened.
func eachJSONLD(sel *goquery.Selection, fn func(map[string]interface{})) {
	sel.Find("script[type='application/ld+json']").Each(func(_ int, s *goquery.Selection) {
		raw := s.Text()
		if strings.TrimSpace(raw) == "" {
			return
		}

		var single map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &single); err == nil {
			visitJSONLD(single, fn)
			return
		}

		var list []map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &list); err == nil {
			for _, item := range list {
				visitJSONLD(item, fn)
			}
		}
	})
}

func visitJSONLD(data map[string]interface{}, fn func(map[string]interface{})) {
	fn(data)

	if graph, ok := data["@graph"].([]interface{}); ok {
		for _, node := range graph {
			if m, ok := node.(map[string]interface{}); ok {
				fn(m)
			}
		}
	}
}
