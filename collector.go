// Package leakdetect is the field-discovery, filling, and leak-detection
// core (§1): a collector plugged into a larger crawl harness that drives
// one browser context per target URL, fills discovered login/register
// forms with marker credentials, and reports DOM, network, and console
// leaks of those credentials.
package leakdetect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/google/uuid"
	"github.com/stevenwdv/leak-detect-sub000/internal/orchestrator"
)

// Context is what the harness supplies to init() (§6 "Upstream to the
// core"): a fresh browser context, a structured logger, navigation
// timing already observed for the landing page, and the effective
// crawl budget.
type Context struct {
	Browser             *rod.Browser
	Logger              *slog.Logger
	FinalURL            string
	PageLoadDurationMs  int64
	MaxCollectionTimeMs int64
}

// Result is the structure returned by GetData (§6).
type Result = orchestrator.Result

// Collector is the core's external interface: id(), init(context),
// addTarget(info), getData() (§6). One Collector exists per
// CrawlSession and owns that session's browser instance and
// orchestrator.
type Collector struct {
	id      string
	orch    *orchestrator.Orchestrator
	browser *rod.Browser
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a Collector for one CrawlSession, not yet initialized.
func New() *Collector {
	return &Collector{id: uuid.NewString()}
}

// ID returns this Collector's stable identifier (§6 "id()").
func (c *Collector) ID() string { return c.id }

// Init wires the Collector to a browser context and configuration
// (§6 "init(context)"). It must be called once, before AddTarget or
// Run.
func (c *Collector) Init(ctx context.Context, rc Context, cfg Config) error {
	if rc.Browser == nil {
		return fmt.Errorf("leakdetect: init: missing browser (fatal, §7)")
	}
	c.browser = rc.Browser
	if rc.MaxCollectionTimeMs > 0 {
		c.ctx, c.cancel = context.WithTimeout(ctx, time.Duration(rc.MaxCollectionTimeMs)*time.Millisecond)
	} else {
		c.ctx, c.cancel = context.WithCancel(ctx)
	}
	observedPageLoad := time.Duration(rc.PageLoadDurationMs) * time.Millisecond
	c.orch = orchestrator.New(cfg, rc.Browser, rc.Logger, observedPageLoad)
	return nil
}

// AddTarget is invoked by the harness for every new target observed in
// the browser context — page, worker, or otherwise (§6 "addTarget(info)").
func (c *Collector) AddTarget(info *proto.TargetTargetInfo) {
	if c.orch == nil {
		return
	}
	c.orch.AddTarget(c.ctx, info)
}

// Run drives the crawl of a single landing page, blocking until that
// page's discover/fill/submit/link-follow cycle completes. Callers
// typically call Run once for the initial target URL and let
// subsequently opened targets arrive via AddTarget.
func (c *Collector) Run(page *rod.Page) error {
	if c.orch == nil {
		return fmt.Errorf("leakdetect: run: not initialized")
	}
	return c.orch.RunPage(c.ctx, page)
}

// GetData returns the accumulated result structure (§6 "getData()").
func (c *Collector) GetData() Result {
	if c.orch == nil {
		return Result{}
	}
	return c.orch.GetData()
}

// Close releases the Collector's resources (cached source maps, the
// cancellable context). The harness-owned browser itself is not closed
// here.
func (c *Collector) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.orch != nil {
		c.orch.Close()
	}
}
