package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Config controls how the browser is launched.
type Config struct {
	Headless  bool
	ProxyURL  string
	UserAgent string
	// Timeout bounds navigation and waited lookups.
	Timeout time.Duration
}

// Browser is the single authenticated browser session shared by every
// course in a run. It implements Page for its one tab.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	frames   []*rod.Page
	cfg      Config
}

var _ Page = (*Browser)(nil)

// New launches a browser and opens the tab used for the whole session.
// Every page operation is bound to ctx, so cancelling it unblocks a pending
// wait.
func New(ctx context.Context, cfg Config) (*Browser, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled")
	if cfg.ProxyURL != "" {
		l = l.Proxy(cfg.ProxyURL)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	rb := rod.New().ControlURL(u)
	if err := rb.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := rb.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = rb.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	if cfg.UserAgent != "" {
		_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: cfg.UserAgent})
	}
	_, _ = page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`)

	return &Browser{
		browser:  rb,
		launcher: l,
		page:     page.Context(ctx),
		cfg:      cfg,
	}, nil
}

func (b *Browser) element(el *rod.Element) Element {
	return &rodElement{el: el, timeout: b.cfg.Timeout}
}

func (b *Browser) current() *rod.Page {
	if n := len(b.frames); n > 0 {
		return b.frames[n-1]
	}
	return b.page
}

// Navigate loads url in the top-level frame and waits for the load event.
func (b *Browser) Navigate(url string) error {
	b.frames = nil
	p := b.page.Timeout(b.cfg.Timeout)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("wait for load of %s: %w", url, err)
	}
	return nil
}

// URL returns the address of the top-level document.
func (b *Browser) URL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *Browser) Title() (string, error) {
	res, err := b.current().Timeout(b.cfg.Timeout).Eval(`() => document.title`)
	if err != nil {
		return "", fmt.Errorf("read title: %w", err)
	}
	return res.Value.Str(), nil
}

func (b *Browser) HTML() (string, error) {
	html, err := b.current().Timeout(b.cfg.Timeout).HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	return html, nil
}

func (b *Browser) Has(selector string) bool {
	has, _, err := b.current().Has(selector)
	return err == nil && has
}

func (b *Browser) Element(selector string) (Element, error) {
	has, el, err := b.current().Has(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	if !has {
		return nil, fmt.Errorf("%q: %w", selector, ErrNotFound)
	}
	return b.element(el), nil
}

func (b *Browser) Elements(selector string) ([]Element, error) {
	els, err := b.current().Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", selector, err)
	}
	return wrap(els, b.cfg.Timeout), nil
}

func (b *Browser) WaitElement(selector string, timeout time.Duration) (Element, error) {
	el, err := b.current().Timeout(timeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("wait for %q: %w", selector, err)
	}
	return b.element(el.CancelTimeout()), nil
}

func (b *Browser) Eval(js string) error {
	if _, err := b.current().Timeout(b.cfg.Timeout).Eval(js); err != nil {
		return fmt.Errorf("eval script: %w", err)
	}
	return nil
}

// SwitchToFrame makes frame's document the target of later lookups.
func (b *Browser) SwitchToFrame(frame Element) error {
	re, ok := frame.(*rodElement)
	if !ok {
		return fmt.Errorf("switch to frame: unexpected element type %T", frame)
	}
	fp, err := re.el.Frame()
	if err != nil {
		return fmt.Errorf("switch to frame: %w", err)
	}
	b.frames = append(b.frames, fp)
	return nil
}

// SwitchToDefault returns to the top-level document.
func (b *Browser) SwitchToDefault() {
	b.frames = nil
}

func (b *Browser) SetDownloadDir(dir string) error {
	err := proto.BrowserSetDownloadBehavior{
		Behavior:      proto.BrowserSetDownloadBehaviorBehaviorAllow,
		DownloadPath:  dir,
		EventsEnabled: true,
	}.Call(b.browser)
	if err != nil {
		return fmt.Errorf("set download dir %s: %w", dir, err)
	}
	return nil
}

// Close shuts the browser down and kills the launched process.
func (b *Browser) Close() error {
	var err error
	if b.browser != nil {
		err = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
	}
	return err
}
