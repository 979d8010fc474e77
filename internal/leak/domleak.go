// Package leak implements the Leak Observers (§4.5): the in-page DOM
// attribute mutation observer plus host-side debugger-attribute
// breakpoint with stack tracing, and the console-API interceptor.
package leak

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stevenwdv/leak-detect-sub000/internal/browserfacade"
	"github.com/stevenwdv/leak-detect-sub000/internal/pagescript"
	"github.com/stevenwdv/leak-detect-sub000/internal/registry"
	"github.com/stevenwdv/leak-detect-sub000/internal/sourcemaps"
	"github.com/stevenwdv/leak-detect-sub000/model"
)

const bindingName = "__leakDetectCore_domleak"

// armedNode tracks the selector chain and attribute baseline for a
// node carrying a live DOMDebugger breakpoint, so that a later
// Debugger.paused hit can be turned back into a model.DomPasswordLeak
// without re-querying the live DOM (which may have moved on).
type armedNode struct {
	frame     *rod.Page
	chain     []string
	lastAttrs map[string]string
}

// DomDetector coordinates the in-page MutationObserver with the
// host-side DOMDebugger breakpoint, deduplicating hits from both
// sources onto a single report stream (§4.5, §8, §9 "Stack capture").
type DomDetector struct {
	logger    *slog.Logger
	sourcemap *sourcemaps.Resolver
	dedup     *domDeduper

	mu        sync.Mutex
	installed map[*rod.Page]bool
	watching  map[*rod.Page]bool
	passwords map[*rod.Page]string
	armed     map[proto.DOMNodeID]*armedNode
	onLeak    func(l model.DomPasswordLeak, isNew bool)
}

func NewDomDetector(logger *slog.Logger, sm *sourcemaps.Resolver, onLeak func(l model.DomPasswordLeak, isNew bool)) *DomDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DomDetector{
		logger:    logger,
		sourcemap: sm,
		dedup:     newDomDeduper(100 * time.Millisecond),
		installed: make(map[*rod.Page]bool),
		watching:  make(map[*rod.Page]bool),
		passwords: make(map[*rod.Page]string),
		armed:     make(map[proto.DOMNodeID]*armedNode),
		onLeak:    onLeak,
	}
}

// InstallOnce arms the in-page MutationObserver for frame's document
// (idempotent) and the shared binding that receives its hits (§4.5
// "Install once per frame"), and remembers password for later use by
// ArmBreakpoint on the same frame.
func (d *DomDetector) InstallOnce(ctx context.Context, frame *rod.Page, password string) error {
	d.mu.Lock()
	already := d.installed[frame]
	d.installed[frame] = true
	d.passwords[frame] = password
	d.mu.Unlock()
	if already {
		return nil
	}

	if err := browserfacade.Expose(frame, bindingName, func(payload string) {
		d.handleJSHit(frame, payload)
	}); err != nil {
		return fmt.Errorf("leak: expose binding: %w", err)
	}

	if err := pagescript.InstallDomLeakObserver(frame, password, bindingName); err != nil {
		return fmt.Errorf("leak: install observer: %w", err)
	}
	return nil
}

func (d *DomDetector) handleJSHit(frame *rod.Page, payload string) {
	var hit struct {
		Chain     []string `json:"chain"`
		Attribute string   `json:"attribute"`
	}
	if err := json.Unmarshal([]byte(payload), &hit); err != nil {
		d.logger.Warn("leak: parse JS dom-leak payload", "error", err)
		return
	}

	l := model.DomPasswordLeak{
		Time:      time.Now(),
		Attribute: hit.Attribute,
		Identifier: model.ElementIdentifier{
			FrameStack:    registry.FrameStack(frame),
			SelectorChain: hit.Chain,
		},
	}
	d.report(l)
}

func (d *DomDetector) report(l model.DomPasswordLeak) {
	merged, isNew := d.dedup.Offer(l)
	if d.onLeak != nil {
		d.onLeak(merged, isNew)
	}
}

// formGroupJS returns selector chains (relative to document/root) for
// elem plus every other field in the same owning form, or just elem's
// chain when it has no form.
const formGroupJS = `(chain) => {
	const el = window[%q].getElementBySelectorChain(chain, document);
	if (!el) return [];
	const form = el.closest ? el.closest('form') : null;
	const scope = form || el;
	const fields = form
		? Array.from(form.querySelectorAll('input, textarea, select'))
		: [el];
	return fields.map(f => window[%q].formSelectorChain(f));
}`

const namespace = "__leakDetectCore_v1"

// ArmBreakpoint sets a DOMDebugger attribute-modified breakpoint on
// elem and every sibling within its owning form, then listens for
// Debugger.paused to capture a stack trace for whichever one mutates
// next (§4.5, §9 "Stack capture": nodeIDs are requested once here and
// retained rather than re-derived after a later DOM.getDocument, which
// would invalidate them).
func (d *DomDetector) ArmBreakpoint(frame *rod.Page, elem *rod.Element) error {
	if err := proto.DebuggerEnable{}.Call(frame); err != nil {
		return fmt.Errorf("leak: debugger enable: %w", err)
	}
	if err := proto.DOMEnable{}.Call(frame); err != nil {
		return fmt.Errorf("leak: dom enable: %w", err)
	}

	chain, err := pagescript.FormSelectorChain(elem)
	if err != nil {
		return fmt.Errorf("leak: selector chain for breakpoint target: %w", err)
	}

	var groupChains [][]string
	res, err := frame.Eval(fmt.Sprintf(formGroupJS, namespace, namespace), chain)
	if err == nil {
		_ = res.Value.Unmarshal(&groupChains)
	}
	if len(groupChains) == 0 {
		groupChains = [][]string{chain}
	}

	for _, gc := range groupChains {
		resolved, err := pagescript.Resolve(frame, gc)
		if err != nil || resolved.Elem == nil {
			continue
		}
		d.armOne(frame, resolved.Elem, gc)
	}

	d.watchPaused(frame)
	return nil
}

func (d *DomDetector) armOne(frame *rod.Page, t *rod.Element, chain []string) {
	nodeID, err := t.DOMNodeID()
	if err != nil {
		d.logger.Warn("leak: resolve nodeID for breakpoint", "error", err)
		return
	}

	d.mu.Lock()
	_, already := d.armed[nodeID]
	if !already {
		d.armed[nodeID] = &armedNode{frame: frame, chain: chain, lastAttrs: currentAttrs(t)}
	}
	d.mu.Unlock()
	if already {
		return
	}

	err = proto.DOMDebuggerSetDOMBreakpoint{
		NodeID: nodeID,
		Type:   proto.DOMDebuggerDOMBreakpointTypeAttributeModified,
	}.Call(frame)
	if err != nil {
		d.logger.Warn("leak: setDOMBreakpoint", "error", err)
	}
}

func currentAttrs(elem *rod.Element) map[string]string {
	out := make(map[string]string)
	desc, err := elem.Describe(0, false)
	if err != nil || desc.Attributes == nil {
		return out
	}
	for i := 0; i+1 < len(desc.Attributes); i += 2 {
		out[desc.Attributes[i]] = desc.Attributes[i+1]
	}
	return out
}

func (d *DomDetector) watchPaused(frame *rod.Page) {
	d.mu.Lock()
	already := d.watching[frame]
	d.watching[frame] = true
	d.mu.Unlock()
	if already {
		return
	}

	go frame.EachEvent(func(e *proto.DebuggerPaused) {
		defer func() { _ = proto.DebuggerResume{}.Call(frame) }()

		if e.Reason != proto.DebuggerPausedReasonDOM || e.Data == nil {
			return
		}

		nodeID, ok := pausedNodeID(e)
		if !ok {
			return
		}

		d.mu.Lock()
		an, tracked := d.armed[nodeID]
		password := d.passwords[frame]
		d.mu.Unlock()
		if !tracked {
			return
		}

		resolved, err := pagescript.Resolve(an.frame, an.chain)
		if err != nil || resolved.Elem == nil {
			return
		}
		attrsNow := currentAttrs(resolved.Elem)

		variants := pagescript.EncodedVariants(password)
		changedAttr := ""
		for name, val := range attrsNow {
			if prev, existed := an.lastAttrs[name]; existed && prev == val {
				continue
			}
			if containsAnyVariant(val, variants) {
				changedAttr = name
				break
			}
		}
		an.lastAttrs = attrsNow
		if changedAttr == "" {
			return
		}

		stack := framesFromCallStack(e.CallFrames)
		if d.sourcemap != nil {
			stack = d.sourcemap.Resolve(stack)
		}

		d.report(model.DomPasswordLeak{
			Time:      time.Now(),
			Attribute: changedAttr,
			Identifier: model.ElementIdentifier{
				FrameStack:    registry.FrameStack(frame),
				SelectorChain: an.chain,
			},
			Stack: stack,
		})
	})()
}

// pausedNodeID extracts the breakpoint's target node from
// Debugger.paused's auxiliary data, which for DOM breakpoints carries
// {"type": "attribute-modified", "nodeId": N} (undocumented in proto's
// typed fields, so decoded from the raw JSON payload).
func pausedNodeID(e *proto.DebuggerPaused) (proto.DOMNodeID, bool) {
	if e.Data == nil {
		return 0, false
	}
	var aux struct {
		NodeID proto.DOMNodeID `json:"nodeId"`
	}
	if err := json.Unmarshal(e.Data, &aux); err != nil || aux.NodeID == 0 {
		return 0, false
	}
	return aux.NodeID, true
}

func containsAnyVariant(value string, variants []string) bool {
	for _, v := range variants {
		if v != "" && strings.Contains(value, v) {
			return true
		}
	}
	return false
}

func framesFromCallStack(cs []*proto.RuntimeCallFrame) []model.StackFrame {
	out := make([]model.StackFrame, 0, len(cs))
	for _, f := range cs {
		out = append(out, model.StackFrame{
			FunctionName: f.FunctionName,
			URL:          f.URL,
			Line:         f.LineNumber,
			Column:       f.ColumnNumber,
		})
	}
	return out
}
