package leak

import (
	"strings"
	"time"

	"github.com/stevenwdv/leak-detect-sub000/model"
)

// domDeduper collapses consecutive DomPasswordLeak entries on the same
// {frameStack, selectorChain, attribute} within a 100ms window, keeping
// the stack-carrying entry when one exists (§3, §4.5, §8).
type domDeduper struct {
	window time.Duration
	recent []domEntry
}

type domEntry struct {
	key  string
	at   time.Time
	leak model.DomPasswordLeak
}

func newDomDeduper(window time.Duration) *domDeduper {
	if window <= 0 {
		window = 100 * time.Millisecond
	}
	return &domDeduper{window: window}
}

func domKey(l model.DomPasswordLeak) string {
	return strings.Join(l.Identifier.FrameStack, "\x1f") + ">" +
		strings.Join(l.Identifier.SelectorChain, "\x1f") + "#" + l.Attribute
}

// Offer returns the leak that should ultimately be retained for this
// key's current window, and whether it is a brand-new window entry
// (true) or an update of one already reported (false). Callers use the
// return to decide whether to emit a new record or replace the last one.
func (d *domDeduper) Offer(l model.DomPasswordLeak) (result model.DomPasswordLeak, isNew bool) {
	key := domKey(l)
	now := l.Time
	cutoff := now.Add(-d.window)

	fresh := d.recent[:0]
	for _, e := range d.recent {
		if e.at.After(cutoff) {
			fresh = append(fresh, e)
		}
	}
	d.recent = fresh

	for i, e := range d.recent {
		if e.key == key {
			merged := e.leak
			if !merged.HasStack() && l.HasStack() {
				merged.Stack = l.Stack
			}
			merged.Time = l.Time
			d.recent[i].leak = merged
			d.recent[i].at = now
			return merged, false
		}
	}

	d.recent = append(d.recent, domEntry{key: key, at: now, leak: l})
	return l, true
}
