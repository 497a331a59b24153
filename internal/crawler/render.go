package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// renderPageHTML launches a headless browser, waits for readiness and network idle, then returns HTML
func renderPageHTML(urlStr string, timeout time.Duration, waitSelector string, networkIdleAfter time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"),
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var html string

	if err := chromedp.Run(browserCtx, chromedp.Navigate(urlStr)); err != nil {
		return "", err
	}

	// Ready check, soft-fail
	if stepCtx, cancelStep := context.WithTimeout(browserCtx, 10*time.Second); true {
		defer cancelStep()
		_ = chromedp.Run(stepCtx, chromedp.WaitReady("body", chromedp.ByQuery))
	}

	// Optional selector wait, soft-fail
	if waitSelector != "" {
		if stepCtx, cancelStep := context.WithTimeout(browserCtx, 15*time.Second); true {
			defer cancelStep()
			_ = chromedp.Run(stepCtx, chromedp.WaitVisible(waitSelector, chromedp.ByQuery))
		}
	}

	// Optional network idle, soft-fail, capped at 5s
	if networkIdleAfter > 0 {
		idleCap := networkIdleAfter
		if idleCap > 5*time.Second {
			idleCap = 5 * time.Second
		}
		if stepCtx, cancelStep := context.WithTimeout(browserCtx, idleCap+1*time.Second); true {
			defer cancelStep()
			_ = chromedp.Run(stepCtx, waitForNetworkIdle(idleCap))
		}
	}

	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// waitForNetworkIdle waits until no network requests are in flight for the given duration
func waitForNetworkIdle(d time.Duration) chromedp.ActionFunc {
	// Track last network activity in the page via PerformanceObserver
	js := `(function(waitMs){
      return new Promise((resolve)=>{
        if (!('PerformanceObserver' in window)) {
          setTimeout(resolve, waitMs);
          return;
        }
        let last = Date.now();
        const obs = new PerformanceObserver(()=>{ last = Date.now(); });
        try { obs.observe({entryTypes:['resource','navigation']}); } catch(e) {}
        const tick = () => {
          if (Date.now()-last >= waitMs) { try { obs.disconnect(); } catch(e){} resolve(); return; }
          setTimeout(tick, 100);
        };
        tick();
      });
    })(%d);`
	return func(ctx context.Context) error {
		return chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(js, int(d.Milliseconds())), nil))
	}
}
