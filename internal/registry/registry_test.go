package registry

import (
	"context"
	"testing"
)

func TestPageState_DirtyFlag(t *testing.T) {
	ps := &PageState{}
	if ps.Dirty() {
		t.Fatalf("new PageState: got Dirty=true, want false")
	}
	ps.SetDirty()
	if !ps.Dirty() {
		t.Errorf("after SetDirty: got Dirty=false, want true")
	}
}

func TestPageState_CleanScopeStacking(t *testing.T) {
	ps := &PageState{scopes: []cleanScope{{startURL: "https://a.example/"}}}

	var outerFired, innerFired bool
	ps.OnClean(func() { outerFired = true })

	ps.PushCleanScope("https://a.example/sub")
	ps.OnClean(func() { innerFired = true })

	if got := ps.currentScope().startURL; got != "https://a.example/sub" {
		t.Fatalf("currentScope after push: got %q, want nested start URL", got)
	}

	// Firing the inner scope's listeners must not touch the outer scope's.
	for _, fn := range ps.currentScope().onClean {
		fn()
	}
	if !innerFired {
		t.Errorf("inner scope listener: not fired")
	}
	if outerFired {
		t.Errorf("outer scope listener: fired while only the inner scope completed, want untouched")
	}

	ps.PopCleanScope()
	if got := ps.currentScope().startURL; got != "https://a.example/" {
		t.Errorf("currentScope after pop: got %q, want outer start URL restored", got)
	}
}

func TestPageState_PopCleanScopeNeverEmptiesStack(t *testing.T) {
	ps := &PageState{scopes: []cleanScope{{startURL: "https://a.example/"}}}
	ps.PopCleanScope()
	if len(ps.scopes) != 1 {
		t.Errorf("PopCleanScope on the root scope: got %d scopes, want 1 (never empties)", len(ps.scopes))
	}
}

func TestCleanPage_NoOpWhenNotDirty(t *testing.T) {
	ps := &PageState{scopes: []cleanScope{{startURL: "https://a.example/"}}}
	if err := CleanPage(context.Background(), ps, 0); err != nil {
		t.Errorf("CleanPage on a clean page: got error %v, want nil (no-op, §8)", err)
	}
}
