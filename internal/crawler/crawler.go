package crawler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"docqa-platform/internal/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
	colly "github.com/gocolly/colly/v2"
	"golang.org/x/net/html/charset"
)

var httpTransport = &http.Transport{
	DisableCompression: false,
}

// Config holds configuration for a crawl job
type Config struct {
	URL            string
	MaxPages       int
	AllowedDomains []string
	AllowedPaths   []string
	FollowLinks    bool
	RespectRobots  bool
	Timeout        time.Duration
	// Optional JS rendering for the initial page
	RenderJS         bool
	RenderTimeout    time.Duration
	WaitSelector     string
	NetworkIdleAfter time.Duration
}

// Page is a single fetched page
type Page struct {
	URL        string
	Title      string
	Content    string
	CrawledAt  time.Time
	StatusCode int
	WordCount  int
}

// Result holds the outcome of a crawl operation
type Result struct {
	URL          string
	Title        string
	Pages        []Page
	Error        error
	PagesFound   int
	PagesCrawled int
}

// normalizeURL normalizes a URL to a canonical form for duplicate detection
func normalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Fragment = ""

	// Keep trailing slash for root, remove for everything else
	path := parsed.Path
	if path == "" {
		path = "/"
	} else if path != "/" {
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			path = "/"
		}
	}
	parsed.Path = path

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	// Remove default ports
	if parsed.Port() == "80" && parsed.Scheme == "http" {
		host, _, _ := strings.Cut(parsed.Host, ":")
		parsed.Host = host
	}
	if parsed.Port() == "443" && parsed.Scheme == "https" {
		host, _, _ := strings.Cut(parsed.Host, ":")
		parsed.Host = host
	}

	return parsed.String(), nil
}

// CrawlURL crawls the configured URL, optionally following same-domain links
// up to MaxPages pages.
func CrawlURL(cfg Config) (*Result, error) {
	result := &Result{
		URL:   cfg.URL,
		Pages: []Page{},
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	if parsedURL.Scheme == "" {
		parsedURL.Scheme = "https"
		cfg.URL = parsedURL.String()
	}

	// Normalize the starting URL before anything touches it
	normalizedStartURL, err := normalizeURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL format: %w", err)
	}

	allowedDomains := cfg.AllowedDomains
	if len(allowedDomains) == 0 {
		hostname := parsedURL.Hostname()
		if hostname != "" {
			hostnameClean := strings.TrimPrefix(strings.ToLower(hostname), "www.")
			allowedDomains = []string{hostnameClean, "www." + hostnameClean, hostname}
		}
	}

	// Each crawl gets its own collector with fresh state
	options := []colly.CollectorOption{
		colly.Async(true),
		colly.MaxDepth(2),
	}

	if len(allowedDomains) > 0 {
		options = append(options, colly.AllowedDomains(allowedDomains...))
	}
	if !cfg.RespectRobots {
		options = append(options, colly.IgnoreRobotsTxt())
	}

	c := colly.NewCollector(options...)

	c.WithTransport(httpTransport)

	if cfg.Timeout > 0 {
		c.SetRequestTimeout(cfg.Timeout)
	} else {
		c.SetRequestTimeout(60 * time.Second)
	}

	c.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       2 * time.Second,
		RandomDelay: 1 * time.Second,
	})

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}

	var (
		pagesMu sync.Mutex
		pages   []Page
	)

	// URLs that produced a page
	processed := sync.Map{}

	// URLs already handed to colly
	queued := sync.Map{}
	var queuedMu sync.Mutex

	initialPageProcessed := false
	var initialPageMu sync.Mutex

	// Browser-like headers keep bot protection from returning 403s
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
		r.Headers.Set("Accept-Encoding", "gzip, deflate, br, zstd")
		r.Headers.Set("Connection", "keep-alive")
		r.Headers.Set("Upgrade-Insecure-Requests", "1")
		r.Headers.Set("Sec-Fetch-Dest", "document")
		r.Headers.Set("Sec-Fetch-Mode", "navigate")
		r.Headers.Set("Sec-Fetch-Site", "none")
		r.Headers.Set("Sec-Fetch-User", "?1")
		r.Headers.Set("Sec-Ch-Ua", `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`)
		r.Headers.Set("Sec-Ch-Ua-Mobile", "?0")
		r.Headers.Set("Sec-Ch-Ua-Platform", `"Windows"`)

		parsedURL, err := url.Parse(r.URL.String())
		if err == nil {
			referer := fmt.Sprintf("%s://%s/", parsedURL.Scheme, parsedURL.Host)
			r.Headers.Set("Referer", referer)
		}

		r.Headers.Del("Cache-Control")
		r.Headers.Del("Pragma")
	})

	c.OnResponse(func(r *colly.Response) {
		// Skip binary content (PDFs, images, etc.)
		contentType := r.Headers.Get("Content-Type")
		if contentType != "" && !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "application/xhtml+xml") {
			return
		}

		// Go's transport decompresses gzip transparently but not brotli
		contentEncoding := r.Headers.Get("Content-Encoding")
		var bodyReader io.Reader = bytes.NewReader(r.Body)

		if strings.Contains(contentEncoding, "br") {
			brReader := brotli.NewReader(bodyReader)
			decompressed, err := io.ReadAll(brReader)
			if err == nil {
				r.Body = decompressed
				bodyReader = bytes.NewReader(decompressed)
			}
		}

		// Decode charset to UTF-8 when declared
		if len(r.Body) > 0 {
			utf8Reader, err := charset.NewReader(bodyReader, contentType)
			if err == nil {
				decodedBody, readErr := io.ReadAll(utf8Reader)
				if readErr == nil && len(decodedBody) > 0 {
					r.Body = decodedBody
				}
			}
		}

		result.PagesFound++
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		pagesMu.Lock()
		defer pagesMu.Unlock()

		if len(pages) >= maxPages {
			return
		}

		rawURL := e.Request.URL.String()
		normalizedURL, err := normalizeURL(rawURL)
		if err != nil {
			return
		}

		if _, exists := processed.LoadOrStore(normalizedURL, true); exists {
			return
		}

		doc := e.DOM
		title := extractTitle(doc)
		content := extractMainContentFromSelection(e.DOM)

		if len(content) < 50 {
			content = doc.Find("body").Text()
		}

		wordCount := len(strings.Fields(content))
		if wordCount < 10 {
			// Not enough content to be useful
			return
		}

		page := Page{
			URL:        normalizedURL,
			Title:      title,
			Content:    content,
			CrawledAt:  time.Now(),
			StatusCode: e.Response.StatusCode,
			WordCount:  wordCount,
		}

		pages = append(pages, page)

		if len(pages) == 1 {
			result.Title = title
			initialPageMu.Lock()
			initialPageProcessed = true
			initialPageMu.Unlock()
		}

		if cfg.FollowLinks && len(pages) < maxPages {
			linkCount := 0
			doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
				if len(pages) >= maxPages {
					return
				}

				href, exists := s.Attr("href")
				if !exists || href == "" {
					return
				}

				hrefLower := strings.ToLower(href)
				if strings.HasPrefix(href, "#") ||
					strings.HasPrefix(hrefLower, "javascript:") ||
					strings.HasPrefix(hrefLower, "mailto:") ||
					strings.HasPrefix(hrefLower, "tel:") {
					return
				}

				absoluteURL := e.Request.AbsoluteURL(href)
				if absoluteURL == "" {
					return
				}

				normalized, err := normalizeURL(absoluteURL)
				if err != nil {
					return
				}

				queuedMu.Lock()
				if _, queuedExists := queued.LoadOrStore(normalized, true); queuedExists {
					queuedMu.Unlock()
					return
				}
				queuedMu.Unlock()

				if _, processedExists := processed.Load(normalized); processedExists {
					return
				}

				if isURLAllowed(normalized, cfg, allowedDomains) {
					if linkCount >= 20 {
						return
					}
					linkCount++

					c.Visit(normalized)
				}
			})
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		errMsg := err.Error()
		requestURL := r.Request.URL.String()
		normalizedErrURL, _ := normalizeURL(requestURL)
		statusCode := r.StatusCode

		if statusCode == 403 {
			logger.Warn("crawl blocked with 403", "url", requestURL)
			if normalizedErrURL == normalizedStartURL {
				result.Error = fmt.Errorf("access forbidden (403): the website blocked the crawler")
			}
			return
		}

		if statusCode == 429 {
			logger.Warn("crawl rate limited", "url", requestURL)
			if normalizedErrURL == normalizedStartURL {
				result.Error = fmt.Errorf("rate limited (429): too many requests, try again later")
			}
			return
		}

		if statusCode >= 500 {
			logger.Warn("crawl target server error", "url", requestURL, "status", statusCode)
			if normalizedErrURL == normalizedStartURL {
				result.Error = fmt.Errorf("server error (%d) from target site", statusCode)
			}
			return
		}

		// colly reports its own duplicate detection as an error
		if strings.Contains(errMsg, "already visited") {
			if _, done := processed.Load(normalizedErrURL); done {
				return
			}

			if normalizedErrURL == normalizedStartURL {
				pagesMu.Lock()
				hasPages := len(pages) > 0
				pagesMu.Unlock()

				if !hasPages {
					queuedMu.Lock()
					queued.Delete(normalizedErrURL)
					queuedMu.Unlock()

					c.Visit(cfg.URL)
				}
			}
			return
		}

		if normalizedErrURL == normalizedStartURL {
			pagesMu.Lock()
			hasPages := len(pages) > 0
			pagesMu.Unlock()

			if !hasPages && result.Error == nil {
				if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "no such host") {
					result.Error = fmt.Errorf("network error: %v", err)
				} else if statusCode != 0 {
					result.Error = fmt.Errorf("HTTP error (%d): %v", statusCode, err)
				} else {
					result.Error = fmt.Errorf("failed to crawl initial URL %s: %w", normalizedStartURL, err)
				}
			}
		}
	})

	// Mark the start URL as queued before visiting
	queuedMu.Lock()
	queued.Store(normalizedStartURL, true)
	queuedMu.Unlock()

	// Optionally prerender the initial page for JS-heavy sites
	if cfg.RenderJS {
		renderTimeout := cfg.RenderTimeout
		if renderTimeout <= 0 {
			renderTimeout = 45 * time.Second
		}
		networkIdle := cfg.NetworkIdleAfter
		if networkIdle <= 0 {
			networkIdle = 1200 * time.Millisecond
		}
		html, renderErr := renderPageHTML(normalizedStartURL, renderTimeout, cfg.WaitSelector, networkIdle)
		if renderErr == nil && html != "" {
			doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(html))
			if parseErr == nil {
				title := extractTitle(doc.Selection)
				content := extractMainContentFromSelection(doc.Selection)
				wordCount := len(strings.Fields(content))
				if wordCount >= 10 {
					page := Page{
						URL:        normalizedStartURL,
						Title:      title,
						Content:    content,
						CrawledAt:  time.Now(),
						StatusCode: 200,
						WordCount:  wordCount,
					}
					pagesMu.Lock()
					pages = append(pages, page)
					pagesMu.Unlock()
					result.Title = title
					initialPageMu.Lock()
					initialPageProcessed = true
					initialPageMu.Unlock()
					processed.Store(normalizedStartURL, true)
				}
			}
		} else if renderErr != nil {
			logger.Warn("JS render failed, falling back to plain fetch", "url", normalizedStartURL, "error", renderErr)
		}
	}

	logger.Debug("starting crawl", "url", normalizedStartURL, "max_pages", maxPages)
	err = c.Visit(normalizedStartURL)
	if err != nil {
		// Retry with the original URL form before giving up
		queuedMu.Lock()
		queued.Store(cfg.URL, true)
		queuedMu.Unlock()

		err = c.Visit(cfg.URL)
		if err != nil {
			if strings.Contains(err.Error(), "already visited") {
				c.Wait()
				pagesMu.Lock()
				pagesCount := len(pages)
				pagesMu.Unlock()

				if pagesCount == 0 {
					return nil, fmt.Errorf("URL %s already visited with no pages processed", normalizedStartURL)
				}
			} else {
				return nil, fmt.Errorf("failed to start crawl: %w", err)
			}
		}
	}

	c.Wait()

	initialPageMu.Lock()
	wasProcessed := initialPageProcessed
	initialPageMu.Unlock()

	pagesMu.Lock()
	pagesCount := len(pages)
	pagesMu.Unlock()

	if pagesCount == 0 {
		if result.Error != nil {
			return nil, result.Error
		}
		if !wasProcessed {
			return nil, fmt.Errorf("initial URL %s was not processed", normalizedStartURL)
		}
		return result, nil
	}

	result.Pages = pages
	result.PagesCrawled = len(pages)

	// Partial success beats a stale error
	if result.Error != nil && len(pages) > 0 {
		result.Error = nil
	}

	return result, nil
}

// extractMainContentFromSelection extracts main content from a goquery Selection
func extractMainContentFromSelection(selection *goquery.Selection) string {
	// A JSON-LD articleBody beats scraping the DOM when present
	if body := extractArticleBody(selection); len(body) >= 200 {
		return body
	}

	doc := selection.Clone()

	doc.Find("script, style, nav, footer, header, aside, .nav, .navbar, .footer, .header, .sidebar, .advertisement, .ads, .skip-link").Remove()

	// Semantic HTML5 elements first
	contentSelectors := []string{
		"main",
		"article",
		"[role='main']",
		".main-content",
		".content",
		"#content",
		".post",
		".entry",
		"body",
	}

	var content strings.Builder
	contentFound := false

	for _, selector := range contentSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 100 {
				content.WriteString(text)
				content.WriteString("\n\n")
				contentFound = true
			}
		})

		if contentFound {
			break
		}
	}

	if !contentFound {
		bodyText := doc.Find("body").Text()
		content.WriteString(bodyText)
	}

	text := strings.TrimSpace(content.String())

	lines := strings.Split(text, "\n")
	var cleanedLines []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}

// isURLAllowed checks if a URL is allowed based on configuration
func isURLAllowed(urlStr string, cfg Config, allowedDomains []string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if len(allowedDomains) > 0 {
		hostname := strings.ToLower(parsed.Hostname())
		domainAllowed := false
		for _, allowedDomain := range allowedDomains {
			allowedDomain = strings.ToLower(strings.TrimPrefix(allowedDomain, "www."))
			hostnameClean := strings.TrimPrefix(hostname, "www.")
			if hostnameClean == allowedDomain || strings.HasSuffix(hostnameClean, "."+allowedDomain) {
				domainAllowed = true
				break
			}
		}
		if !domainAllowed {
			return false
		}
	}

	if len(cfg.AllowedPaths) > 0 {
		pathAllowed := false
		for _, allowedPath := range cfg.AllowedPaths {
			if strings.HasPrefix(parsed.Path, allowedPath) {
				pathAllowed = true
				break
			}
		}
		if !pathAllowed {
			return false
		}
	}

	// Common non-content URLs
	excludedPatterns := []string{
		"/wp-json/",
		"/api/",
		"/ajax/",
		".pdf",
		".jpg",
		".jpeg",
		".png",
		".gif",
		".svg",
		".css",
		".js",
		".xml",
		"/feed/",
		"/rss/",
		"/atom/",
		"/search?",
		"/?s=",
		"/wp-admin/",
		"/wp-includes/",
	}

	pathLower := strings.ToLower(parsed.Path)
	queryLower := strings.ToLower(parsed.RawQuery)

	for _, pattern := range excludedPatterns {
		if strings.Contains(pathLower, pattern) || strings.Contains(queryLower, pattern) {
			return false
		}
	}

	return true
}
