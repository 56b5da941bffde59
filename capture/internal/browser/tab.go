package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// navigateTimeout bounds the initial navigation.
const navigateTimeout = 30 * time.Second

// Tab is one watched page. The URL is read from several goroutines (poll
// cycle, rescans, startup) and is only accessed through CurrentURL.
type Tab struct {
	Page   *rod.Page
	PageID string

	mu  sync.Mutex
	url string
}

func newTab(page *rod.Page, pageURL, pageID string) *Tab {
	return &Tab{Page: page, PageID: pageID, url: pageURL}
}

// OpenTab opens pageURL in a new tab, with stealth and resource blocking
// applied as configured.
func OpenTab(ctx context.Context, mgr *Manager, pageURL, pageID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if mgr.cfg.Stealth {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, navigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	return newTab(page, pageURL, pageID), nil
}

// FindTab returns the first open page whose URL contains substr.
func FindTab(mgr *Manager, substr, pageID string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	pages, err := b.Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list pages: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if containsFold(info.URL, substr) {
			return newTab(p, info.URL, pageID), nil
		}
	}
	return nil, fmt.Errorf("browser: no open tab matches %q", substr)
}

// CurrentURL returns the tab's live URL, falling back to the last known one.
func (t *Tab) CurrentURL() string {
	live := ""
	if t.Page != nil {
		if info, err := t.Page.Info(); err == nil {
			live = info.URL
		}
	}
	return t.remember(live)
}

// remember records u as the last known URL when non-empty and returns the
// last known URL.
func (t *Tab) remember(u string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if u != "" {
		t.url = u
	}
	return t.url
}

// GetFullDOM serialises the complete DOM as outer HTML.
func (t *Tab) GetFullDOM(ctx context.Context) ([]byte, error) {
	res, err := t.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return nil, fmt.Errorf("browser: get DOM: %w", err)
	}
	return []byte(res.Value.Str()), nil
}

// Close closes the tab.
func (t *Tab) Close() error {
	if t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
