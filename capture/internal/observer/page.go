package observer

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-rod/rod"
	"github.com/hazyhaar/codecapture/capture/internal/browser"
	"github.com/hazyhaar/codecapture/capture/internal/watcher"
)

// TabPage exposes a browser tab as a watcher.Page. Controls are identified
// by their CDP backend node ID, which changes when the element is re-rendered.
type TabPage struct {
	tab *browser.Tab

	mu       sync.Mutex
	elements map[watcher.ControlID]*rod.Element
}

// NewTabPage wraps tab.
func NewTabPage(tab *browser.Tab) *TabPage {
	return &TabPage{tab: tab, elements: make(map[watcher.ControlID]*rod.Element)}
}

// URL returns the live URL of the tab.
func (p *TabPage) URL() string {
	return p.tab.CurrentURL()
}

// HTML serialises the current DOM.
func (p *TabPage) HTML(ctx context.Context) ([]byte, error) {
	return p.tab.GetFullDOM(ctx)
}

// FindControl returns the first element matching selector.
func (p *TabPage) FindControl(ctx context.Context, selector string) (watcher.ControlID, bool, error) {
	ok, el, err := p.tab.Page.Context(ctx).Has(selector)
	if err != nil {
		return "", false, fmt.Errorf("observer: query %q: %w", selector, err)
	}
	if !ok {
		return "", false, nil
	}
	node, err := el.Describe(0, false)
	if err != nil {
		return "", false, fmt.Errorf("observer: describe control: %w", err)
	}
	id := watcher.ControlID("node-" + strconv.Itoa(int(node.BackendNodeID)))

	p.mu.Lock()
	p.elements[id] = el
	p.mu.Unlock()
	return id, true, nil
}

// Attach installs the click hook on the control.
func (p *TabPage) Attach(ctx context.Context, id watcher.ControlID) error {
	el, err := p.element(id)
	if err != nil {
		return err
	}
	_, err = el.Context(ctx).Eval(`function (id) {
		return !!window.__codecapture && window.__codecapture.attach(this, id);
	}`, string(id))
	if err != nil {
		return fmt.Errorf("observer: attach %s: %w", id, err)
	}
	return nil
}

// Detach removes the click hook. The element is forgotten even on failure.
func (p *TabPage) Detach(ctx context.Context, id watcher.ControlID) error {
	el, err := p.element(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	delete(p.elements, id)
	p.mu.Unlock()

	_, err = el.Context(ctx).Eval(`function () {
		return !!window.__codecapture && window.__codecapture.detach(this);
	}`)
	if err != nil {
		return fmt.Errorf("observer: detach %s: %w", id, err)
	}
	return nil
}

func (p *TabPage) element(id watcher.ControlID) (*rod.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[id]
	if !ok {
		return nil, fmt.Errorf("observer: unknown control %s", id)
	}
	return el, nil
}

// forget drops every tracked element. Used when the document is replaced.
func (p *TabPage) forget() {
	p.mu.Lock()
	clear(p.elements)
	p.mu.Unlock()
}
