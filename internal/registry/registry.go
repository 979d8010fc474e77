// Package registry implements the Frame/Page Registry (§4.3): tracks
// pages, frames, per-frame injected-script state, per-page dirty flag,
// per-page start URL, and per-page on-clean listeners. State is a
// mutex-guarded map keyed by page, with nested clean-scope stacking.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/stevenwdv/leak-detect-sub000/internal/pagescript"
	"github.com/stevenwdv/leak-detect-sub000/model"
)

// cleanScope is one entry of the nested clean-scope stack (§4.3
// "Clean-scope stacking is supported").
type cleanScope struct {
	startURL string
	onClean  []func()
}

// PageState is the registry's bookkeeping for one top-level Page.
type PageState struct {
	Page *rod.Page

	mu          sync.Mutex
	dirty       bool
	scopes      []cleanScope
	injected    map[*rod.Page]bool // per-frame injected flag
	exposedHost map[*rod.Page]bool // per-frame host-callback-exposed flag
	frameIDs    map[*rod.Page]string
	frameSeq    int
}

// Registry tracks every Page observed during a CrawlSession.
type Registry struct {
	mu     sync.Mutex
	pages  map[*rod.Page]*PageState
	logger *slog.Logger
}

func New(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{pages: make(map[*rod.Page]*PageState), logger: logger}
}

// Track registers a newly observed Page: installs the error callback,
// assigns a frame ID to the main frame, injects the page script on the
// main frame and all existing child frames, and records the start URL
// for later cleanPage calls (§4.3).
func (r *Registry) Track(page *rod.Page, errCallback func(msg string)) (*PageState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ps, ok := r.pages[page]; ok {
		return ps, nil
	}

	ps := &PageState{
		Page:        page,
		injected:    make(map[*rod.Page]bool),
		exposedHost: make(map[*rod.Page]bool),
		frameIDs:    make(map[*rod.Page]string),
	}

	info, err := page.Info()
	if err != nil {
		return nil, fmt.Errorf("registry: page info: %w", err)
	}
	ps.scopes = append(ps.scopes, cleanScope{startURL: info.URL})

	if err := ps.ensureFrameID(page); err != nil {
		return nil, err
	}
	if err := pagescript.Inject(page); err != nil {
		return nil, fmt.Errorf("registry: inject main frame: %w", err)
	}

	frames, err := page.Frames()
	if err == nil {
		for _, f := range frames {
			ps.ensureFrameID(f)
			if err := pagescript.Inject(f); err != nil {
				r.logger.Warn("registry: inject child frame failed", "error", err)
			}
		}
	}

	r.pages[page] = ps
	return ps, nil
}

func (ps *PageState) ensureFrameID(frame *rod.Page) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, ok := ps.frameIDs[frame]; ok {
		return nil
	}
	ps.frameSeq++
	id := fmt.Sprintf("leak-detect-frame-%d", ps.frameSeq)
	ps.frameIDs[frame] = id
	return nil
}

// FrameID returns the opaque per-session ID assigned to frame.
func (ps *PageState) FrameID(frame *rod.Page) string {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.frameIDs[frame]
}

// MarkInjected records that the page script has been injected into frame.
func (ps *PageState) MarkInjected(frame *rod.Page) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.injected[frame] = true
}

// Injected reports whether frame already has the page script installed.
func (ps *PageState) Injected(frame *rod.Page) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.injected[frame]
}

// MarkHostExposed records that a host callback has been exposed into frame.
func (ps *PageState) MarkHostExposed(frame *rod.Page) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.exposedHost[frame] = true
}

func (ps *PageState) HostExposed(frame *rod.Page) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.exposedHost[frame]
}

// SetDirty marks the page as having unsaved navigation state (§4.3).
func (ps *PageState) SetDirty() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.dirty = true
}

// Dirty reports the current dirty flag.
func (ps *PageState) Dirty() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.dirty
}

// PushCleanScope records a nested clean scope: the current start URL
// and dirty status are saved and a new scope with its own start URL and
// on-clean listeners begins. Call PopCleanScope to restore the prior
// scope (§4.3 "Clean-scope stacking").
func (ps *PageState) PushCleanScope(startURL string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.scopes = append(ps.scopes, cleanScope{startURL: startURL})
}

func (ps *PageState) PopCleanScope() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if len(ps.scopes) > 1 {
		ps.scopes = ps.scopes[:len(ps.scopes)-1]
	}
}

// OnClean registers a listener fired by CleanPage when it actually
// reloads the page, scoped to the current (innermost) clean scope.
func (ps *PageState) OnClean(fn func()) {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	i := len(ps.scopes) - 1
	ps.scopes[i].onClean = append(ps.scopes[i].onClean, fn)
}

func (ps *PageState) currentScope() cleanScope {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.scopes[len(ps.scopes)-1]
}

// CleanPage navigates page back to its current scope's start URL if
// dirty, then fires the scope's on-clean listeners (§4.3, §8 "cleanPage
// on a non-dirty page is a no-op").
func CleanPage(ctx context.Context, ps *PageState, timeout time.Duration) error {
	if !ps.Dirty() {
		return nil
	}
	scope := ps.currentScope()

	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := ps.Page.Context(navCtx).Navigate(scope.startURL); err != nil {
		return fmt.Errorf("registry: clean page navigate: %w", err)
	}
	_ = ps.Page.Context(navCtx).WaitLoad()

	ps.mu.Lock()
	ps.dirty = false
	ps.mu.Unlock()

	for _, fn := range scope.onClean {
		fn()
	}
	return nil
}

// FrameStack builds the model.Frame chain for frame within page,
// bottom (frame) to top (main frame), by walking ParentFrame() (§3).
func FrameStack(frame *rod.Page) []string {
	var out []string
	cur := frame
	for cur != nil {
		info, err := cur.Info()
		if err != nil {
			break
		}
		out = append(out, info.URL)
		parent, err := cur.ParentFrame()
		if err != nil || parent == nil {
			break
		}
		cur = parent
	}
	return out
}

// ToModelFrame builds a model.Frame chain (innermost first) suitable
// for FieldAttributes, from the topmost frame down to frame itself.
func ToModelFrame(frame *rod.Page) *model.Frame {
	urls := FrameStack(frame) // bottom (innermost) to top
	var parent *model.Frame
	var innermost *model.Frame
	for i := len(urls) - 1; i >= 0; i-- {
		f := &model.Frame{URL: urls[i], Parent: parent}
		parent = f
		innermost = f
	}
	return innermost
}
