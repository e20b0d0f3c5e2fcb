package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

// Tab is an open page target in the browser.
type Tab struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Attached bool   `json:"attached"`
}

// ListTabs lists the page targets of the browser on port. It attaches with
// a chromedp remote allocator and never creates or closes a target.
func ListTabs(ctx context.Context, port int, probeTimeout time.Duration) ([]Tab, error) {
	v, err := ProbeVersion(ctx, port, probeTimeout)
	if err != nil {
		return nil, fmt.Errorf("no browser on port %d: %w", port, err)
	}
	if v.WebSocketDebuggerURL == "" {
		return nil, fmt.Errorf("no webSocketDebuggerUrl in /json/version")
	}

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, v.WebSocketDebuggerURL)
	defer cancelAlloc()

	chromeCtx, cancelChrome := chromedp.NewContext(allocCtx)
	defer cancelChrome()

	infos, err := chromedp.Targets(chromeCtx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	return pageTabs(infos), nil
}

func pageTabs(infos []*target.Info) []Tab {
	tabs := make([]Tab, 0, len(infos))
	for _, info := range infos {
		if info == nil || info.Type != "page" {
			continue
		}
		tabs = append(tabs, Tab{
			ID:       string(info.TargetID),
			Title:    info.Title,
			URL:      info.URL,
			Attached: info.Attached,
		})
	}
	return tabs
}
