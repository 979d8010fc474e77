// Package orchestrator implements the discover → fill → submit →
// reload → continue state machine (§4.7): per-page field processing,
// budgets, interact chains, and the session-wide event/result log. A
// mutex-guarded map of per-target state backs a Start/Stop lifecycle
// driving one discover/fill/submit loop per page.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stevenwdv/leak-detect-sub000/internal/browserfacade"
	"github.com/stevenwdv/leak-detect-sub000/internal/config"
	"github.com/stevenwdv/leak-detect-sub000/internal/discovery"
	"github.com/stevenwdv/leak-detect-sub000/internal/domainutil"
	"github.com/stevenwdv/leak-detect-sub000/internal/fillsubmit"
	"github.com/stevenwdv/leak-detect-sub000/internal/leak"
	"github.com/stevenwdv/leak-detect-sub000/internal/linkfinder"
	"github.com/stevenwdv/leak-detect-sub000/internal/pagescript"
	"github.com/stevenwdv/leak-detect-sub000/internal/registry"
	"github.com/stevenwdv/leak-detect-sub000/internal/sourcemaps"
	"github.com/stevenwdv/leak-detect-sub000/model"
)

// Orchestrator owns the CrawlSession's collections and drives the
// per-page state machine. Safe for concurrent AddTarget calls; the
// page loops themselves run sequentially per page, matching §5's
// single-threaded-cooperative scheduling model.
type Orchestrator struct {
	cfg     config.Config
	browser *rod.Browser
	logger  *slog.Logger

	registry  *registry.Registry
	domLeaks  *leak.DomDetector
	console   *leak.ConsoleDetector
	sourcemap *sourcemaps.Resolver

	// observedPageLoad is the harness-reported landing-page load time,
	// used to derive a navigation-wait floor (§5:
	// "max(configured_min, 2 × observed_page_load_ms)"). Zero when the
	// harness didn't report one, in which case the configured timeout
	// always wins.
	observedPageLoad time.Duration

	mu           sync.Mutex
	fields       *model.FieldsMap
	processed    *model.ProcessedFields
	visited      []model.VisitedTarget
	links        []model.LinkAttributes
	domLeakList  []model.DomPasswordLeak
	consoleLeaks []model.ConsoleLeak
	events       []model.Event
	errors       []model.ErrorRecord
	linksUsed    int
	stopped      bool

	tasks sync.WaitGroup // outstanding async leak-detector callbacks (§4.5 "await outstanding page tasks")
}

func New(cfg config.Config, browser *rod.Browser, logger *slog.Logger, observedPageLoad time.Duration) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.ApplyDefaults()

	o := &Orchestrator{
		cfg:              cfg,
		browser:          browser,
		logger:           logger,
		registry:         registry.New(logger),
		sourcemap:        sourcemaps.New(sourcemaps.Mode(cfg.UseSourceMaps)),
		fields:           model.NewFieldsMap(),
		processed:        model.NewProcessedFields(),
		observedPageLoad: observedPageLoad,
	}
	o.domLeaks = leak.NewDomDetector(logger, o.sourcemap, o.onDomLeak)
	o.console = leak.NewConsoleDetector(logger, o.onConsoleLeak)
	return o
}

// effectiveTimeout returns configured unless the session's observed
// page-load time implies a longer minimum navigation wait (§5:
// "max(configured_min, 2 × observed_page_load_ms)").
func (o *Orchestrator) effectiveTimeout(configured time.Duration) time.Duration {
	if floor := 2 * o.observedPageLoad; floor > configured {
		return floor
	}
	return configured
}

func (o *Orchestrator) onDomLeak(l model.DomPasswordLeak, isNew bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !isNew {
		for i := len(o.domLeakList) - 1; i >= 0; i-- {
			if domLeakSameKey(o.domLeakList[i], l) {
				o.domLeakList[i] = l
				return
			}
		}
	}
	o.domLeakList = append(o.domLeakList, l)
}

// domLeakSameKey reports whether a and b are consecutive reports for
// the same {frameStack, selectorChain, attribute} (§8), the key
// domDeduper merges on.
func domLeakSameKey(a, b model.DomPasswordLeak) bool {
	if a.Attribute != b.Attribute {
		return false
	}
	if len(a.Identifier.FrameStack) != len(b.Identifier.FrameStack) ||
		len(a.Identifier.SelectorChain) != len(b.Identifier.SelectorChain) {
		return false
	}
	for i := range a.Identifier.FrameStack {
		if a.Identifier.FrameStack[i] != b.Identifier.FrameStack[i] {
			return false
		}
	}
	for i := range a.Identifier.SelectorChain {
		if a.Identifier.SelectorChain[i] != b.Identifier.SelectorChain[i] {
			return false
		}
	}
	return true
}

func (o *Orchestrator) onConsoleLeak(l model.ConsoleLeak) {
	o.mu.Lock()
	o.consoleLeaks = append(o.consoleLeaks, l)
	o.mu.Unlock()
}

func (o *Orchestrator) recordEvent(kind model.EventKind, id *model.ElementIdentifier, navKind, detail string) {
	o.mu.Lock()
	o.events = append(o.events, model.Event{Kind: kind, Time: time.Now(), Identifier: id, NavKind: navKind, Detail: detail})
	o.mu.Unlock()
}

// recordError appends a non-fatal error per the §7 taxonomy. level is
// one of the model.Level* constants; breadcrumbs give page/frame context.
func (o *Orchestrator) recordError(level model.ErrorLevel, err error, breadcrumbs ...string) {
	if err == nil {
		return
	}
	rec := model.ErrorRecord{Time: time.Now(), Message: err.Error(), Breadcrumbs: breadcrumbs, Level: level}
	o.mu.Lock()
	o.errors = append(o.errors, rec)
	o.mu.Unlock()
	o.logger.Debug("orchestrator: recorded error", "level", level, "error", err, "context", breadcrumbs)
}

// handlePageError is the page-side error callback installed by the
// registry for every tracked page (§4.3, §7 "page-side exceptions are
// routed through the exposed error callback").
func (o *Orchestrator) handlePageError(msg string) {
	o.recordError(model.LevelWarn, fmt.Errorf("page error: %s", msg))
}

func isNavigationTransient(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, pat := range []string{"detached", "execution context was destroyed", "session closed", "target closed", "no such target"} {
		if strings.Contains(s, pat) {
			return true
		}
	}
	return false
}

func (o *Orchestrator) recordAutoError(err error, breadcrumbs ...string) {
	if err == nil {
		return
	}
	if isNavigationTransient(err) {
		o.recordError(model.LevelLog, err, breadcrumbs...)
		return
	}
	o.recordError(model.LevelWarn, err, breadcrumbs...)
}

// AddTarget is called for every new target the harness observes (§6).
// Page targets are tracked, screenshotted (TriggerNewPage), and given
// their own asynchronous crawl.
func (o *Orchestrator) AddTarget(ctx context.Context, info *proto.TargetTargetInfo) {
	kind := model.TargetOther
	switch info.Type {
	case proto.TargetTargetInfoTypePage:
		kind = model.TargetPage
	case proto.TargetTargetInfoTypeWorker, proto.TargetTargetInfoTypeServiceWorker:
		kind = model.TargetWorker
	}

	o.mu.Lock()
	o.visited = append(o.visited, model.VisitedTarget{URL: info.URL, Type: kind, Time: time.Now()})
	o.mu.Unlock()

	if kind != model.TargetPage {
		return
	}

	page, err := o.browser.PageFromTarget(info.TargetID)
	if err != nil {
		o.recordAutoError(err, "addTarget", string(info.TargetID))
		return
	}
	_ = page.Context(ctx).WaitLoad()
	o.screenshot(page, config.TriggerNewPage)

	o.tasks.Add(1)
	go func() {
		defer o.tasks.Done()
		if err := o.RunPage(ctx, page); err != nil {
			o.recordAutoError(err, "addTarget", info.URL)
		}
	}()
}

// RunPage tracks page in the registry and drives its full crawl: the
// nested discover/fill/submit loop, then link-following (§2's "when
// the landing page is exhausted, Link Finder produces link candidates
// and the cycle repeats on each linked page").
func (o *Orchestrator) RunPage(ctx context.Context, page *rod.Page) error {
	ps, err := o.registry.Track(page, o.handlePageError)
	if err != nil {
		return fmt.Errorf("orchestrator: track page: %w", err)
	}

	if len(o.cfg.BlockResourceTypes) > 0 {
		browserfacade.BlockResourceTypes(page, o.cfg.BlockResourceTypes)
	}

	o.screenshot(page, config.TriggerLoaded)

	if err := o.runInteractChains(ctx, ps, page); err != nil {
		o.recordError(model.LevelError, err, "interact-chain")
	}

	if err := o.crawlLoop(ctx, ps, page); err != nil {
		o.recordError(model.LevelError, err, "page", pageURL(page))
		return nil
	}

	return o.followLinks(ctx, ps, page)
}

// crawlLoop implements §4.7's nested loop exactly: repeat field
// processing across frames, reloading to the clean start URL whenever
// a submission occurs, until a pass produces no submission.
func (o *Orchestrator) crawlLoop(ctx context.Context, ps *registry.PageState, page *rod.Page) error {
	if err := registry.CleanPage(ctx, ps, o.cfg.Timeout.Reload); err != nil {
		o.recordAutoError(err, "cleanPage")
	}

	completed := make(map[string]bool)
	anySubmitted := false
	startURL := pageURL(page)

	for {
		if o.budgetExhausted() {
			break
		}

		frames, err := o.frameList(page)
		if err != nil {
			return fmt.Errorf("orchestrator: list frames: %w", err)
		}

		submittedThisPass := false
		for _, frame := range frames {
			frameURL := pageURL(frame)
			if frameURL == "" || completed[frameURL] {
				continue
			}
			if frame != page && o.cfg.SkipExternal == config.SkipExternalFrames &&
				!domainutil.SameSite(startURL, frameURL) {
				completed[frameURL] = true
				continue
			}

			fields, done, submitted, err := o.processFields(ctx, ps, page, frame)
			if err != nil {
				o.recordAutoError(err, "frame", frameURL)
				continue
			}
			if done {
				completed[frameURL] = true
			}
			if len(fields) > 0 && submitted {
				submittedThisPass = true
				anySubmitted = true
				break
			}
		}

		if !submittedThisPass {
			break
		}
		if err := registry.CleanPage(ctx, ps, o.cfg.Timeout.Reload); err != nil {
			o.recordAutoError(err, "cleanPage")
		}
		o.recordEvent(model.EventReturn, nil, "", "")
	}

	if !anySubmitted {
		_ = fillsubmit.BlurRefocus(page)
	}

	o.tasks.Wait() // await outstanding leak callbacks before declaring the page done (§4.5)
	return nil
}

func (o *Orchestrator) budgetExhausted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processed.Size() >= o.cfg.Fill.MaxFields
}

func (o *Orchestrator) frameList(page *rod.Page) ([]*rod.Page, error) {
	frames, err := page.Frames()
	if err != nil {
		return []*rod.Page{page}, nil
	}
	out := make([]*rod.Page, 0, len(frames)+1)
	out = append(out, page)
	out = append(out, frames...)
	return out, nil
}

func pageURL(frame *rod.Page) string {
	info, err := frame.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// fieldGroup is one processFields unit: either an owning form's
// fields, or the synthetic no-form group (§4.7).
type fieldGroup struct {
	fields  []model.FieldAttributes
	hasForm bool
}

func (g fieldGroup) hasPassword() bool {
	for _, f := range g.fields {
		if f.FieldType == model.FieldPassword {
			return true
		}
	}
	return false
}

func groupByForm(fields []model.FieldAttributes) []fieldGroup {
	order := make([]string, 0)
	byKey := make(map[string]*fieldGroup)
	var noForm fieldGroup

	for _, f := range fields {
		if len(f.FormChain) == 0 {
			noForm.fields = append(noForm.fields, f)
			continue
		}
		key := strings.Join(f.FormChain, "\x1f")
		g, ok := byKey[key]
		if !ok {
			g = &fieldGroup{hasForm: true}
			byKey[key] = g
			order = append(order, key)
		}
		g.fields = append(g.fields, f)
	}

	groups := make([]fieldGroup, 0, len(order)+1)
	for _, k := range order {
		groups = append(groups, *byKey[k])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].hasPassword() && !groups[j].hasPassword()
	})
	if len(noForm.fields) > 0 {
		groups = append(groups, noForm)
	}
	return groups
}

// processFields discovers frame's candidate fields, groups them by
// owning form, and processes (fills + probes + submits) the first
// group that still has an unprocessed field (§4.7). Returns the
// fields discovered this call, whether frame is now fully processed,
// and whether a submission occurred.
func (o *Orchestrator) processFields(ctx context.Context, ps *registry.PageState, topPage, frame *rod.Page) (fields []model.FieldAttributes, done bool, submitted bool, err error) {
	discovered, err := discovery.Discover(frame)
	if err != nil {
		return nil, false, false, fmt.Errorf("orchestrator: discover: %w", err)
	}
	for _, f := range discovered {
		f.Identifier.FrameStack = registry.FrameStack(frame)
		o.mu.Lock()
		o.fields.Upsert(f)
		o.mu.Unlock()
	}

	groups := groupByForm(discovered)
	if len(groups) == 0 {
		return discovered, true, false, nil
	}

	for gi, group := range groups {
		if o.groupFullyProcessed(group) {
			continue
		}
		submittedNow := o.processGroup(ctx, ps, topPage, frame, group)
		done = gi == len(groups)-1 && o.groupFullyProcessed(group)
		return discovered, done, submittedNow, nil
	}

	return discovered, true, false, nil
}

func (o *Orchestrator) groupFullyProcessed(g fieldGroup) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, f := range g.fields {
		if !o.processed.Has(f.Identifier.Key()) {
			return false
		}
	}
	return true
}

// processGroup fills every field in g, runs the Facebook-button probe,
// and submits the first not-yet-processed field (§4.7).
func (o *Orchestrator) processGroup(ctx context.Context, ps *registry.PageState, topPage, frame *rod.Page, g fieldGroup) bool {
	sleep := o.cfg.Sleep
	filledThisCall := make(map[string]bool)

	for _, f := range g.fields {
		o.mu.Lock()
		already := o.processed.Has(f.Identifier.Key())
		o.mu.Unlock()
		if already {
			continue
		}

		elem, rerr := o.resolve(frame, f.Identifier)
		if rerr != nil {
			o.recordAutoError(rerr, "fill", f.Identifier.Key())
			continue
		}

		if f.FieldType == model.FieldPassword {
			o.installLeakDetectors(ctx, frame, elem)
			if o.cfg.Fill.SimulateShowPassword {
				if serr := fillsubmit.SimulateShowPassword(elem); serr != nil {
					o.recordAutoError(serr, "simulateShowPassword")
				}
			}
			if ferr := fillsubmit.Fill(ctx, frame, elem, o.cfg.Fill.Password, fillSleep(sleep)); ferr != nil {
				o.recordError(model.LevelWarn, ferr, "fill-password", f.Identifier.Key())
				continue
			}
		} else {
			value := fillsubmit.EmailValue(o.cfg.Fill, hostnameOf(frame))
			if ferr := fillsubmit.Fill(ctx, frame, elem, value, fillSleep(sleep)); ferr != nil {
				o.recordError(model.LevelWarn, ferr, "fill-email", f.Identifier.Key())
				continue
			}
		}

		o.markFilled(f.Identifier)
		filledThisCall[f.Identifier.Key()] = true
		o.recordEvent(model.EventFill, &f.Identifier, "", "")
		sleepFor(postFillDelay(sleep))
	}

	o.screenshot(topPage, config.TriggerFilled)

	if o.cfg.Fill.AddFacebookButton {
		if err := fillsubmit.AddFacebookButtonProbe(frame); err != nil {
			o.recordAutoError(err, "fb-button")
		} else {
			o.recordEvent(model.EventFBButton, nil, "", "")
		}
		sleepFor(postFacebookDelay(sleep))
	}

	var target *model.FieldAttributes
	for i := range g.fields {
		o.mu.Lock()
		done := o.processed.Has(g.fields[i].Identifier.Key())
		o.mu.Unlock()
		if !done {
			target = &g.fields[i]
			break
		}
	}
	if target == nil {
		return false
	}

	submitted := false
	if o.cfg.Fill.Submit && filledThisCall[target.Identifier.Key()] {
		elem, rerr := o.resolve(frame, target.Identifier)
		if rerr != nil {
			o.recordAutoError(rerr, "submit", target.Identifier.Key())
		} else if err := fillsubmit.Submit(elem); err != nil {
			o.recordError(model.LevelWarn, err, "submit", target.Identifier.Key())
		} else {
			o.recordEvent(model.EventSubmit, &target.Identifier, "", "")
			navCtx, cancel := context.WithTimeout(ctx, o.effectiveTimeout(o.cfg.Timeout.SubmitField))
			result := fillsubmit.RaceNavigation(navCtx, o.browser, frame, topPage)
			cancel()
			switch result.Kind {
			case "timeout":
				o.recordError(model.LevelInfo, fmt.Errorf("navigation wait timed out"), "submit", target.Identifier.Key())
			default:
				o.recordEvent(model.EventNavigate, nil, result.Kind, "")
			}
			_ = fillsubmit.BlurRefocus(frame)
			ps.SetDirty()
			submitted = true
			sleepFor(postNavigateDelay(sleep))
			o.screenshot(topPage, config.TriggerSubmitted)
		}
	}

	o.markProcessed(target.Identifier)
	o.markSubmitted(target.Identifier, submitted)
	return submitted
}

func (o *Orchestrator) installLeakDetectors(ctx context.Context, frame *rod.Page, elem *rod.Element) {
	if err := o.domLeaks.InstallOnce(ctx, frame, o.cfg.Fill.Password); err != nil {
		o.recordAutoError(err, "dom-leak-install")
	}
	if err := o.console.Watch(frame, o.cfg.Fill.Password); err != nil {
		o.recordAutoError(err, "console-leak-install")
	}
	if !o.cfg.ImmediatelyInjectDomLeakDetection {
		if err := o.domLeaks.ArmBreakpoint(frame, elem); err != nil {
			o.recordAutoError(err, "dom-leak-breakpoint")
		}
	}
}

func (o *Orchestrator) resolve(frame *rod.Page, id model.ElementIdentifier) (*rod.Element, error) {
	res, err := pagescript.Resolve(frame, id.SelectorChain)
	if err != nil {
		return nil, err
	}
	if res.Elem == nil {
		return nil, fmt.Errorf("orchestrator: element no longer present for %v", id.SelectorChain)
	}
	return res.Elem, nil
}

func (o *Orchestrator) markFilled(id model.ElementIdentifier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if f, ok := o.fields.Get(id.Key()); ok {
		f.Filled = true
	}
}

func (o *Orchestrator) markSubmitted(id model.ElementIdentifier, submitted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if f, ok := o.fields.Get(id.Key()); ok {
		f.Submitted = submitted
	}
}

func (o *Orchestrator) markProcessed(id model.ElementIdentifier) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.processed.Mark(id.Key())
}

func hostnameOf(frame *rod.Page) string {
	u, err := url.Parse(pageURL(frame))
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func fillSleep(s *config.SleepConfig) *config.FillSleepConfig {
	if s == nil {
		return nil
	}
	return s.Fill
}

func postFillDelay(s *config.SleepConfig) time.Duration {
	if s == nil {
		return 0
	}
	return s.PostFill
}

func postFacebookDelay(s *config.SleepConfig) time.Duration {
	if s == nil {
		return 0
	}
	return s.PostFacebookButtonClick
}

func postNavigateDelay(s *config.SleepConfig) time.Duration {
	if s == nil {
		return 0
	}
	return s.PostNavigate
}

func sleepFor(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

func (o *Orchestrator) screenshot(page *rod.Page, trigger config.ScreenshotTrigger) {
	if !o.cfg.Screenshot.Enabled(trigger) {
		return
	}
	png, err := page.Screenshot(false, nil)
	if err != nil {
		o.recordAutoError(err, "screenshot", string(trigger))
		return
	}
	id := pageURL(page)
	o.cfg.Screenshot.Target(trigger, id, png)
	o.recordEvent(model.EventScreenshot, nil, "", string(trigger))
}

// runInteractChains executes every configured preflight chain, scoping
// each under a clean-scope that re-runs the chain whenever cleanPage is
// later invoked (§4.7 "Interact chains").
func (o *Orchestrator) runInteractChains(ctx context.Context, ps *registry.PageState, page *rod.Page) error {
	for _, chain := range o.cfg.InteractChains {
		run := func() {
			for _, step := range chain.Steps {
				el, err := page.ElementByJS(rod.Eval(step.Expression))
				if err != nil || el == nil {
					o.recordAutoError(err, "interact-chain", chain.Name)
					continue
				}
				if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
					o.recordAutoError(err, "interact-chain-click", chain.Name)
				}
			}
		}
		run()
		ps.OnClean(run)
		o.screenshot(page, config.TriggerInteractChainExecuted)
	}
	return nil
}

// followLinks ranks login/register links on page's landing content and
// follows up to the remaining session-wide maxLinks budget (§4.6).
func (o *Orchestrator) followLinks(ctx context.Context, ps *registry.PageState, page *rod.Page) error {
	startURL := pageURL(page)

	ranked, err := linkfinder.Rank(page, []string{"exact", "loose", "coordinate"})
	if err != nil {
		return fmt.Errorf("orchestrator: rank links: %w", err)
	}

	o.mu.Lock()
	remaining := o.cfg.MaxLinks - o.linksUsed
	o.mu.Unlock()
	if remaining <= 0 {
		return nil
	}

	budgeted := linkfinder.Budget(o.cfg, startURL, ranked)
	if len(budgeted) > remaining {
		budgeted = budgeted[:remaining]
	}

	for _, c := range budgeted {
		if o.cfg.StopEarly == config.StopEarlyFirstPageForm && o.hasAnyField() {
			break
		}

		id := model.ElementIdentifier{FrameStack: registry.FrameStack(page), SelectorChain: c.Chain}
		o.mu.Lock()
		o.links = append(o.links, model.LinkAttributes{
			Identifier: id, Tag: "A", Href: c.Href, Strategy: c.Strategy, OnTop: c.OnTop, InView: c.InView,
		})
		o.linksUsed++
		o.mu.Unlock()
		o.recordEvent(model.EventLink, &id, "", c.Href)

		linkCtx, cancel := context.WithTimeout(ctx, o.effectiveTimeout(o.cfg.Timeout.FollowLink))
		result, ferr := linkfinder.Follow(linkCtx, o.browser, page, page, c)
		cancel()
		if ferr != nil {
			o.recordAutoError(ferr, "follow-link", c.Href)
			continue
		}

		o.screenshot(page, config.TriggerLinkClicked)

		if result.Kind == "new-target" {
			// A fresh Page target owns the next crawl; AddTarget handles it.
			continue
		}

		if err := o.crawlLoop(ctx, ps, page); err != nil {
			o.recordAutoError(err, "link-page", c.Href)
		}
	}

	return nil
}

func (o *Orchestrator) hasAnyField() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.fields.Len() > 0
}

// Result returns the §6 result structure for getData().
type Result struct {
	VisitedTargets []model.VisitedTarget
	Fields         []model.FieldAttributes
	Links          []model.LinkAttributes
	DomLeaks       []model.DomPasswordLeak
	ConsoleLeaks   []model.ConsoleLeak
	Events         []model.Event
	Errors         []model.ErrorRecord
}

func (o *Orchestrator) GetData() Result {
	o.tasks.Wait()
	o.mu.Lock()
	defer o.mu.Unlock()
	return Result{
		VisitedTargets: append([]model.VisitedTarget(nil), o.visited...),
		Fields:         o.fields.List(),
		Links:          append([]model.LinkAttributes(nil), o.links...),
		DomLeaks:       append([]model.DomPasswordLeak(nil), o.domLeakList...),
		ConsoleLeaks:   append([]model.ConsoleLeak(nil), o.consoleLeaks...),
		Events:         append([]model.Event(nil), o.events...),
		Errors:         append([]model.ErrorRecord(nil), o.errors...),
	}
}

// Close releases the resolver's cached source maps, mirroring §5
// "Source-map parsers are cached by URL and closed on page close".
func (o *Orchestrator) Close() {
	o.sourcemap.Close()
}
