package model

import "testing"

func TestElementIdentifierKey_DistinctForDifferentChains(t *testing.T) {
	a := ElementIdentifier{FrameStack: []string{"https://a.example/"}, SelectorChain: []string{"#login"}}
	b := ElementIdentifier{FrameStack: []string{"https://a.example/"}, SelectorChain: []string{"#register"}}
	if a.Key() == b.Key() {
		t.Errorf("Key: distinct selector chains produced the same key %q", a.Key())
	}
}

func TestElementIdentifierKey_StableForEqualIdentifiers(t *testing.T) {
	a := ElementIdentifier{FrameStack: []string{"https://a.example/", "https://iframe.example/"}, SelectorChain: []string{"#form", "input"}}
	b := ElementIdentifier{FrameStack: []string{"https://a.example/", "https://iframe.example/"}, SelectorChain: []string{"#form", "input"}}
	if a.Key() != b.Key() {
		t.Errorf("Key: equal identifiers produced different keys %q vs %q", a.Key(), b.Key())
	}
}

func TestFieldsMap_UpsertInsertsThenUpdatesInPlace(t *testing.T) {
	m := NewFieldsMap()
	id := ElementIdentifier{SelectorChain: []string{"#email"}}

	if isNew := m.Upsert(FieldAttributes{Identifier: id, FieldType: FieldEmail}); !isNew {
		t.Fatalf("first Upsert: got isNew=false, want true")
	}
	if m.Len() != 1 {
		t.Fatalf("Len after first Upsert: got %d, want 1", m.Len())
	}

	if isNew := m.Upsert(FieldAttributes{Identifier: id, FieldType: FieldEmail, Filled: true}); isNew {
		t.Errorf("second Upsert of same identifier: got isNew=true, want false")
	}
	if m.Len() != 1 {
		t.Errorf("Len after update: got %d, want 1 (no duplicate)", m.Len())
	}

	f, ok := m.Get(id.Key())
	if !ok || !f.Filled {
		t.Errorf("Get after update: got %+v, ok=%v, want Filled=true", f, ok)
	}
}

func TestFieldsMap_ListPreservesInsertionOrder(t *testing.T) {
	m := NewFieldsMap()
	ids := []string{"#a", "#c", "#b"}
	for _, sel := range ids {
		m.Upsert(FieldAttributes{Identifier: ElementIdentifier{SelectorChain: []string{sel}}})
	}
	list := m.List()
	if len(list) != 3 {
		t.Fatalf("List: got %d entries, want 3", len(list))
	}
	for i, sel := range ids {
		want := ElementIdentifier{SelectorChain: []string{sel}}.Key()
		if list[i].Identifier.Key() != want {
			t.Errorf("List[%d]: got key %q, want %q", i, list[i].Identifier.Key(), want)
		}
	}
}

func TestProcessedFields_MarkAndHas(t *testing.T) {
	p := NewProcessedFields()
	key := ElementIdentifier{SelectorChain: []string{"#pw"}}.Key()
	if p.Has(key) {
		t.Fatalf("Has before Mark: got true, want false")
	}
	p.Mark(key)
	if !p.Has(key) {
		t.Errorf("Has after Mark: got false, want true")
	}
	if p.Size() != 1 {
		t.Errorf("Size: got %d, want 1", p.Size())
	}
}

func TestDomPasswordLeak_HasStack(t *testing.T) {
	withStack := DomPasswordLeak{Stack: []StackFrame{{FunctionName: "leak"}}}
	withoutStack := DomPasswordLeak{}
	if !withStack.HasStack() {
		t.Errorf("HasStack: got false for a leak with frames, want true")
	}
	if withoutStack.HasStack() {
		t.Errorf("HasStack: got true for a leak with no frames, want false")
	}
}

func TestFrame_FrameStackOrdersInnermostFirst(t *testing.T) {
	top := &Frame{URL: "https://top.example/"}
	mid := &Frame{URL: "https://mid.example/", Parent: top}
	leaf := &Frame{URL: "https://leaf.example/", Parent: mid}

	got := leaf.FrameStack()
	want := []string{"https://leaf.example/", "https://mid.example/", "https://top.example/"}
	if len(got) != len(want) {
		t.Fatalf("FrameStack: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FrameStack[%d]: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPage_OnCleanFiresAllListenersOnFireClean(t *testing.T) {
	p := &Page{StartURL: "https://a.example/"}
	var calls []int
	p.OnClean(func() { calls = append(calls, 1) })
	p.OnClean(func() { calls = append(calls, 2) })
	p.FireClean()
	if len(calls) != 2 || calls[0] != 1 || calls[1] != 2 {
		t.Errorf("FireClean: got %v, want listeners invoked once each in registration order", calls)
	}
}
