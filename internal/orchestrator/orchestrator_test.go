package orchestrator

import (
	"errors"
	"testing"
	"time"

	"github.com/stevenwdv/leak-detect-sub000/internal/config"
	"github.com/stevenwdv/leak-detect-sub000/model"
)

func field(formChain []string, ft model.FieldType, selector string) model.FieldAttributes {
	return model.FieldAttributes{
		Identifier: model.ElementIdentifier{SelectorChain: []string{selector}},
		FormChain:  formChain,
		FieldType:  ft,
	}
}

func TestGroupByForm_SeparatesFormsAndNoFormGroup(t *testing.T) {
	fields := []model.FieldAttributes{
		field([]string{"#login-form"}, model.FieldEmail, "#login-email"),
		field([]string{"#login-form"}, model.FieldPassword, "#login-pw"),
		field(nil, model.FieldPassword, "#standalone-pw"),
	}
	groups := groupByForm(fields)
	if len(groups) != 2 {
		t.Fatalf("groupByForm: got %d groups, want 2 (one form group + the no-form group)", len(groups))
	}
	if !groups[0].hasForm {
		t.Errorf("groupByForm[0]: want the form group first")
	}
	if groups[1].hasForm {
		t.Errorf("groupByForm: want the synthetic no-form group last")
	}
	if len(groups[1].fields) != 1 {
		t.Errorf("no-form group: got %d fields, want 1", len(groups[1].fields))
	}
}

func TestGroupByForm_PasswordFormsOrderedFirst(t *testing.T) {
	fields := []model.FieldAttributes{
		field([]string{"#newsletter-form"}, model.FieldEmail, "#newsletter-email"),
		field([]string{"#login-form"}, model.FieldEmail, "#login-email"),
		field([]string{"#login-form"}, model.FieldPassword, "#login-pw"),
	}
	groups := groupByForm(fields)
	if len(groups) != 2 {
		t.Fatalf("groupByForm: got %d groups, want 2", len(groups))
	}
	if !groups[0].hasPassword() {
		t.Errorf("groupByForm: want the password-bearing form group ordered first, got %+v first", groups[0])
	}
}

func TestGroupByForm_SameFormFieldsStayTogether(t *testing.T) {
	fields := []model.FieldAttributes{
		field([]string{"#f"}, model.FieldEmail, "#e"),
		field([]string{"#f"}, model.FieldPassword, "#p"),
	}
	groups := groupByForm(fields)
	if len(groups) != 1 {
		t.Fatalf("groupByForm: got %d groups, want 1 (same form chain)", len(groups))
	}
	if len(groups[0].fields) != 2 {
		t.Errorf("groupByForm: got %d fields in the shared group, want 2", len(groups[0].fields))
	}
}

func TestIsNavigationTransient(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("context was destroyed: execution context was destroyed"), true},
		{errors.New("rpc error: target closed"), true},
		{errors.New("frame was detached"), true},
		{errors.New("session closed"), true},
		{errors.New("no such target"), true},
		{errors.New("some unrelated error"), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := isNavigationTransient(c.err); got != c.want {
			t.Errorf("isNavigationTransient(%v): got %v, want %v", c.err, got, c.want)
		}
	}
}

func TestOrchestrator_RecordErrorRoutesThroughAutoTaxonomy(t *testing.T) {
	o := New(config.Config{}, nil, nil, 0)
	o.recordAutoError(errors.New("execution context was destroyed"), "test")
	o.recordAutoError(errors.New("boom"), "test")

	data := o.GetData()
	if len(data.Errors) != 2 {
		t.Fatalf("GetData: got %d errors, want 2", len(data.Errors))
	}
	if data.Errors[0].Level != model.LevelLog {
		t.Errorf("navigation-transient error: got level %q, want %q", data.Errors[0].Level, model.LevelLog)
	}
	if data.Errors[1].Level != model.LevelWarn {
		t.Errorf("non-transient error: got level %q, want %q", data.Errors[1].Level, model.LevelWarn)
	}
}

func TestOrchestrator_RecordErrorIgnoresNil(t *testing.T) {
	o := New(config.Config{}, nil, nil, 0)
	o.recordError(model.LevelWarn, nil)
	if data := o.GetData(); len(data.Errors) != 0 {
		t.Errorf("recordError(nil): got %d errors recorded, want 0", len(data.Errors))
	}
}

func TestOrchestrator_OnLeaksAccumulateIntoResult(t *testing.T) {
	o := New(config.Config{}, nil, nil, 0)
	o.onDomLeak(model.DomPasswordLeak{Attribute: "value"}, true)
	o.onConsoleLeak(model.ConsoleLeak{APIType: "log"})

	data := o.GetData()
	if len(data.DomLeaks) != 1 || data.DomLeaks[0].Attribute != "value" {
		t.Errorf("GetData: got DomLeaks=%+v, want one entry with attribute \"value\"", data.DomLeaks)
	}
	if len(data.ConsoleLeaks) != 1 || data.ConsoleLeaks[0].APIType != "log" {
		t.Errorf("GetData: got ConsoleLeaks=%+v, want one entry with apiType \"log\"", data.ConsoleLeaks)
	}
}

func TestOrchestrator_OnDomLeakMergeReplacesRatherThanDuplicates(t *testing.T) {
	o := New(config.Config{}, nil, nil, 0)
	base := model.DomPasswordLeak{
		Attribute:  "data-leak",
		Identifier: model.ElementIdentifier{FrameStack: []string{"https://a.example/"}, SelectorChain: []string{"#f"}},
	}
	o.onDomLeak(base, true)

	withStack := base
	withStack.Stack = []model.StackFrame{{FunctionName: "leak"}}
	o.onDomLeak(withStack, false)

	data := o.GetData()
	if len(data.DomLeaks) != 1 {
		t.Fatalf("GetData: got %d DomLeaks after a merge, want 1 (replace, not append)", len(data.DomLeaks))
	}
	if !data.DomLeaks[0].HasStack() {
		t.Errorf("GetData: merged entry lost its stack trace")
	}
}

func TestOrchestrator_BudgetExhausted(t *testing.T) {
	o := New(config.Config{Fill: config.FillConfig{MaxFields: 1}}, nil, nil, 0)
	if o.budgetExhausted() {
		t.Fatalf("budgetExhausted with no fields processed yet: got true, want false")
	}
	o.processed.Mark("some-field-key")
	if !o.budgetExhausted() {
		t.Errorf("budgetExhausted after reaching Fill.MaxFields: got false, want true")
	}
}

func TestOrchestrator_EffectiveTimeoutUsesConfiguredWhenNoObservation(t *testing.T) {
	o := New(config.Config{}, nil, nil, 0)
	configured := 15 * time.Second
	if got := o.effectiveTimeout(configured); got != configured {
		t.Errorf("effectiveTimeout with no observed page load: got %v, want configured %v", got, configured)
	}
}

func TestOrchestrator_EffectiveTimeoutUsesObservedFloorWhenLarger(t *testing.T) {
	o := New(config.Config{}, nil, nil, 10*time.Second)
	configured := 5 * time.Second
	want := 20 * time.Second // 2 * observed
	if got := o.effectiveTimeout(configured); got != want {
		t.Errorf("effectiveTimeout: got %v, want %v (2x observed page load)", got, want)
	}
}

func TestOrchestrator_EffectiveTimeoutKeepsConfiguredWhenLarger(t *testing.T) {
	o := New(config.Config{}, nil, nil, 1*time.Second)
	configured := 30 * time.Second
	if got := o.effectiveTimeout(configured); got != configured {
		t.Errorf("effectiveTimeout: got %v, want configured %v (observed floor smaller)", got, configured)
	}
}
