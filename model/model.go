// Package model defines the data model shared by every component of the
// field-discovery and leak-detection core: sessions, pages, frames,
// element identifiers, discovered fields, leaks, and the event log.
package model

import "time"

// FieldType classifies a discovered input.
type FieldType string

const (
	FieldEmail    FieldType = "email"
	FieldPassword FieldType = "password"
)

// TargetKind classifies a browsing context observed via addTarget.
type TargetKind string

const (
	TargetPage   TargetKind = "page"
	TargetWorker TargetKind = "worker"
	TargetOther  TargetKind = "other"
)

// EventKind enumerates the Orchestrator's event log entries (§3, §4.7).
type EventKind string

const (
	EventFill       EventKind = "fill"
	EventSubmit     EventKind = "submit"
	EventFBButton   EventKind = "fb-button"
	EventReturn     EventKind = "return"
	EventLink       EventKind = "link"
	EventNavigate   EventKind = "navigate"
	EventScreenshot EventKind = "screenshot"
)

// ErrorLevel is the severity of an ErrorRecord, per the §7 taxonomy.
type ErrorLevel string

const (
	LevelLog   ErrorLevel = "log"
	LevelInfo  ErrorLevel = "info"
	LevelWarn  ErrorLevel = "warn"
	LevelError ErrorLevel = "error"
)

// ElementIdentifier locates a single element across nested browsing
// contexts and shadow roots. FrameStack is ordered bottom (the frame
// owning the element) to top (the page's main frame). SelectorChain is
// a non-empty ordered sequence of per-root CSS selectors that together
// navigate from the topmost document through nested shadow roots down
// to the element.
//
// Invariant: if resolve(SelectorChain) succeeds against FrameStack[0],
// the chain must have been produced by formSelectorChain on the same
// element at creation time (round-trip within one DOM snapshot).
type ElementIdentifier struct {
	FrameStack    []string `json:"frameStack"`
	SelectorChain []string `json:"selectorChain"`
}

// Key returns a stable string encoding suitable for use as a FieldsMap
// or ProcessedFields key.
func (e ElementIdentifier) Key() string {
	s := ""
	for _, f := range e.FrameStack {
		s += "|" + f
	}
	s += ">"
	for _, c := range e.SelectorChain {
		s += "|" + c
	}
	return s
}

// BoundingBox is a screen-space rectangle captured at discovery time.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FieldAttributes is an element snapshot taken at discovery time (§3).
type FieldAttributes struct {
	Identifier ElementIdentifier `json:"identifier"`

	Tag         string  `json:"tag"`
	ID          string  `json:"id,omitempty"`
	Class       string  `json:"class,omitempty"`
	Name        string  `json:"name,omitempty"`
	Type        string  `json:"type,omitempty"`
	Href        string  `json:"href,omitempty"`
	InnerText   string  `json:"innerText,omitempty"`
	AriaLabel   string  `json:"ariaLabel,omitempty"`
	Placeholder string  `json:"placeholder,omitempty"`
	FormChain   []string `json:"formChain,omitempty"` // owning form's selector chain, nil if none

	OnTop     bool        `json:"onTop"`
	InView    bool        `json:"inView"`
	Visible   bool        `json:"visible"`
	Box       BoundingBox `json:"box"`
	Timestamp time.Time   `json:"timestamp"`

	FieldType FieldType `json:"fieldType"`
	Score     float64   `json:"score,omitempty"`

	Filled    bool `json:"filled"`
	Submitted bool `json:"submitted"`
}

// LinkAttributes is a discovered login/register link candidate (§4.1, §4.6).
type LinkAttributes struct {
	Identifier ElementIdentifier `json:"identifier"`
	Tag        string            `json:"tag"`
	Href       string            `json:"href,omitempty"`
	Text       string            `json:"text,omitempty"`
	OnTop      bool              `json:"onTop"`
	InView     bool              `json:"inView"`
	Strategy   string            `json:"strategy"` // exact | loose | coordinate
}

// FieldsMap maps an ElementIdentifier's Key() to its FieldAttributes.
// Insertion order is preserved via Order; re-discovery of the same
// identifier updates in place rather than duplicating.
type FieldsMap struct {
	byKey map[string]*FieldAttributes
	Order []string
}

func NewFieldsMap() *FieldsMap {
	return &FieldsMap{byKey: make(map[string]*FieldAttributes)}
}

// Upsert inserts a new field or updates an existing one in place,
// preserving original insertion order. Returns true if this was a new
// insertion.
func (m *FieldsMap) Upsert(f FieldAttributes) bool {
	key := f.Identifier.Key()
	if existing, ok := m.byKey[key]; ok {
		*existing = f
		return false
	}
	cp := f
	m.byKey[key] = &cp
	m.Order = append(m.Order, key)
	return true
}

func (m *FieldsMap) Get(key string) (*FieldAttributes, bool) {
	f, ok := m.byKey[key]
	return f, ok
}

// List returns fields in insertion order.
func (m *FieldsMap) List() []FieldAttributes {
	out := make([]FieldAttributes, 0, len(m.Order))
	for _, k := range m.Order {
		out = append(out, *m.byKey[k])
	}
	return out
}

func (m *FieldsMap) Len() int { return len(m.Order) }

// ProcessedFields is the monotonic set of ElementIdentifiers that have
// been filled and either submitted or belong to a fully completed form.
type ProcessedFields struct {
	set map[string]struct{}
}

func NewProcessedFields() *ProcessedFields {
	return &ProcessedFields{set: make(map[string]struct{})}
}

func (p *ProcessedFields) Mark(key string) { p.set[key] = struct{}{} }

func (p *ProcessedFields) Has(key string) bool {
	_, ok := p.set[key]
	return ok
}

func (p *ProcessedFields) Size() int { return len(p.set) }

// StackFrame is one resolved (or unresolved) JS stack frame.
type StackFrame struct {
	FunctionName string `json:"functionName,omitempty"`
	URL          string `json:"url"`
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	Resolved     bool   `json:"resolved"`
}

// DomPasswordLeak records the password (or an encoded variant of it)
// appearing in a DOM attribute (§3, §4.5).
type DomPasswordLeak struct {
	Time       time.Time         `json:"time"`
	Attribute  string            `json:"attribute"`
	Identifier ElementIdentifier `json:"identifier"`
	Snapshot   FieldAttributes   `json:"snapshot,omitempty"`
	Stack      []StackFrame      `json:"stack,omitempty"`
}

// HasStack reports whether this leak carries a resolved (or even
// unresolved-but-present) stack trace.
func (l DomPasswordLeak) HasStack() bool { return len(l.Stack) > 0 }

// ConsoleLeak records the password appearing as a console.* argument (§3, §4.5).
type ConsoleLeak struct {
	Time    time.Time    `json:"time"`
	APIType string       `json:"apiType"` // log, warn, error, debug, info, ...
	Message string       `json:"message"`
	Stack   []StackFrame `json:"stack,omitempty"`
}

// VisitedTarget records a newly observed browsing context (§3, §6).
type VisitedTarget struct {
	URL  string     `json:"url"`
	Type TargetKind `json:"type"`
	Time time.Time  `json:"time"`
}

// Event is one Orchestrator decision (§3).
type Event struct {
	Kind       EventKind          `json:"kind"`
	Time       time.Time          `json:"time"`
	Identifier *ElementIdentifier `json:"identifier,omitempty"`
	NavKind    string             `json:"navKind,omitempty"`
	Detail     string             `json:"detail,omitempty"`
}

// ErrorRecord is a non-fatal error appended to the crawl result (§3, §7).
type ErrorRecord struct {
	Time        time.Time  `json:"time"`
	Message     string     `json:"message"`
	Stack       string     `json:"stack,omitempty"`
	Breadcrumbs []string   `json:"breadcrumbs,omitempty"`
	Level       ErrorLevel `json:"level"`
}

// Frame is a browsing context inside a Page, identified to page scripts
// by a session-generated opaque ID (§3).
type Frame struct {
	ID     string
	URL    string
	Parent *Frame
}

// FrameStack returns the ordered chain of frame URLs from this frame
// (innermost) up to the top page (outermost), matching the "Frame
// stack" glossary definition.
func (f *Frame) FrameStack() []string {
	var out []string
	for cur := f; cur != nil; cur = cur.Parent {
		out = append(out, cur.URL)
	}
	return out
}

// Page is a top-level browsing context (§3).
type Page struct {
	StartURL string
	Dirty    bool

	onClean []func()
}

// OnClean registers a listener invoked by a CleanPage call that actually
// reloads (i.e. the page was dirty).
func (p *Page) OnClean(fn func()) { p.onClean = append(p.onClean, fn) }

func (p *Page) FireClean() {
	for _, fn := range p.onClean {
		fn()
	}
}
