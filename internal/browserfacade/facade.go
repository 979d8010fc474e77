// Package browserfacade is the thin capability layer the core uses to
// drive a real browser (§4.2): evaluate in frame, expose host
// callbacks, open CDP sessions, subscribe to protocol events, typed
// handle unwrap. One browser context is shared across however many
// pages/frames/pop-ups a crawl target opens.
package browserfacade

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the Facade's browser launch, following the same
// zero-value-sentinel convention as browser.Config.defaults() in the
// teacher.
type Config struct {
	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty launches a local Chrome via launcher.
	RemoteURL string
	// Headless selects headless vs headful Chrome.
	Headless bool
	// IgnoreCertErrors disables TLS certificate validation, needed to
	// reach HTML test fixtures served over self-signed HTTPS.
	IgnoreCertErrors bool
	Logger           *slog.Logger
}

func (c *Config) defaults() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Facade owns a single rod.Browser and exposes the capability surface
// §4.2 names.
type Facade struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Launch starts (or connects to) Chrome and returns a ready Facade.
func Launch(cfg Config) (*Facade, error) {
	cfg.defaults()
	log := cfg.Logger

	var wsURL string
	var lnch *launcher.Launcher

	if cfg.RemoteURL != "" {
		wsURL = cfg.RemoteURL
		log.Info("browserfacade: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().Headless(cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browserfacade: launch: %w", err)
		}
		wsURL = u
		lnch = l
		log.Info("browserfacade: launched local chrome", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browserfacade: connect: %w", err)
	}

	if cfg.IgnoreCertErrors {
		if err := b.IgnoreCertErrors(true); err != nil {
			log.Warn("browserfacade: ignore cert errors failed", "error", err)
		}
	}

	return &Facade{cfg: cfg, browser: b, lnch: lnch}, nil
}

// Browser returns the underlying rod.Browser for callers that need
// direct access (the Orchestrator's page/target enumeration).
func (f *Facade) Browser() *rod.Browser { return f.browser }

// Close tears down the browser and any local launcher process.
func (f *Facade) Close() error {
	if f.browser != nil {
		f.browser.Close()
	}
	if f.lnch != nil {
		f.lnch.Cleanup()
	}
	return nil
}

// NewPage opens a fresh stealth-wrapped page and navigates it.
func (f *Facade) NewPage(ctx context.Context, targetURL string, timeout time.Duration) (*rod.Page, error) {
	page, err := stealth.Page(f.browser)
	if err != nil {
		return nil, fmt.Errorf("browserfacade: create page: %w", err)
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(targetURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browserfacade: navigate %s: %w", targetURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		f.cfg.Logger.Warn("browserfacade: wait load timeout", "url", targetURL, "error", err)
	}
	return page, nil
}

// Evaluate runs fn (a JS function literal) against frame's execution
// context with args structured-cloned in, returning the decoded result.
func Evaluate[T any](page *rod.Page, fn string, args ...interface{}) (T, error) {
	var zero T
	res, err := page.Eval(fn, args...)
	if err != nil {
		return zero, fmt.Errorf("browserfacade: evaluate: %w", err)
	}
	var out T
	if err := res.Value.Unmarshal(&out); err != nil {
		return zero, fmt.Errorf("browserfacade: unmarshal result: %w", err)
	}
	return out, nil
}

// Expose creates a page-global callable function that delivers
// arguments back to hostFn (§4.2 "expose").
func Expose(page *rod.Page, name string, hostFn func(payload string)) error {
	if err := proto.RuntimeAddBinding{Name: name}.Call(page); err != nil {
		return fmt.Errorf("browserfacade: expose %s: %w", name, err)
	}
	go page.EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name != name {
			return
		}
		hostFn(e.Payload)
	})()
	return nil
}

// BlockResourceTypes hijacks page's network requests and fails every
// one whose CDP resource type matches a configured name (images,
// fonts, media, stylesheets), trading fidelity for crawl throughput on
// targets where leak detection does not depend on rendering those
// resources.
func BlockResourceTypes(page *rod.Page, types []string) {
	blockSet := make(map[string]bool, len(types))
	for _, t := range types {
		blockSet[strings.ToLower(t)] = true
	}

	router := page.HijackRequests()
	router.MustAdd("*", func(ctx *rod.Hijack) {
		if blockSet[resourceTypeName(ctx.Request.Type())] {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	go router.Run()
}

func resourceTypeName(t proto.NetworkResourceType) string {
	switch strings.ToLower(string(t)) {
	case "image":
		return "images"
	case "font":
		return "fonts"
	case "media":
		return "media"
	case "stylesheet":
		return "stylesheets"
	default:
		return strings.ToLower(string(t))
	}
}

// Frames returns every frame (main + nested) currently attached to page.
func Frames(page *rod.Page) ([]*rod.Page, error) {
	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("browserfacade: page info: %w", err)
	}
	_ = info
	list, err := page.Frames()
	if err != nil {
		return nil, fmt.Errorf("browserfacade: frames: %w", err)
	}
	return list, nil
}

// FrameURL returns a frame's current URL, tolerating a detached frame
// by returning "" rather than propagating a navigation-transient error
// (§7 "Navigation transient").
func FrameURL(frame *rod.Page) string {
	info, err := frame.Info()
	if err != nil {
		return ""
	}
	return info.URL
}
