// Package pagescript owns the single in-page namespace injected into
// every document/frame (§4.1): selector-chain build/resolve across
// shadow roots, email/username heuristic scoring, password-input
// enumeration, login-link matching, and the DOM-leak observer wiring.
// script.js is compiled in via //go:embed and evaluated once per
// document.
package pagescript

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
)

//go:embed script.js
var scriptJS string

const namespace = "__leakDetectCore_v1"

// Inject installs the namespace into frame. Idempotent per document —
// the script's own IIFE guard makes a second call a no-op (§8
// "Injection of the page script is idempotent per document").
func Inject(frame *rod.Page) error {
	if _, err := frame.Eval(scriptJS); err != nil {
		return fmt.Errorf("pagescript: inject: %w", err)
	}
	return nil
}

// CandidateField mirrors the {elem, score} pairs detectEmailInputs and
// passwordInputs (score 0) return.
type CandidateField struct {
	Elem  *rod.Element
	Score float64
}

// DetectEmailInputs returns ranked email/username candidates (§4.1).
func DetectEmailInputs(frame *rod.Page) ([]CandidateField, error) {
	arr, err := frame.ElementsByJS(rod.Eval(fmt.Sprintf(
		`() => window[%q].detectEmailInputs(document).map(c => c.elem)`, namespace)))
	if err != nil {
		return nil, fmt.Errorf("pagescript: detectEmailInputs: %w", err)
	}
	scores, err := frame.Eval(fmt.Sprintf(
		`() => window[%q].detectEmailInputs(document).map(c => c.score)`, namespace))
	if err != nil {
		return nil, fmt.Errorf("pagescript: detectEmailInputs scores: %w", err)
	}
	var scoreVals []float64
	_ = scores.Value.Unmarshal(&scoreVals)

	out := make([]CandidateField, len(arr))
	for i, el := range arr {
		var sc float64
		if i < len(scoreVals) {
			sc = scoreVals[i]
		}
		out[i] = CandidateField{Elem: el, Score: sc}
	}
	return out, nil
}

// PasswordInputs returns visible password inputs, including those
// reachable through open (or coerced-open) shadow roots.
func PasswordInputs(frame *rod.Page) ([]*rod.Element, error) {
	arr, err := frame.ElementsByJS(rod.Eval(fmt.Sprintf(
		`() => window[%q].passwordInputs(document)`, namespace)))
	if err != nil {
		return nil, fmt.Errorf("pagescript: passwordInputs: %w", err)
	}
	return arr, nil
}

// LoginLink is the Go-side mirror of a getLoginLinks() result entry.
type LoginLink struct {
	Elem     *rod.Element
	Strategy string
	OnTop    bool
	InView   bool
}

// GetLoginLinks returns ranked login/register link candidates (§4.1, §4.6).
func GetLoginLinks(frame *rod.Page, matchTypes []string) ([]LoginLink, error) {
	typesJSON, _ := json.Marshal(matchTypes)
	arr, err := frame.ElementsByJS(rod.Eval(fmt.Sprintf(
		`(types) => window[%q].getLoginLinks(document, types).map(r => r.elem)`, namespace),
		json.RawMessage(typesJSON)))
	if err != nil {
		return nil, fmt.Errorf("pagescript: getLoginLinks: %w", err)
	}

	meta, err := frame.Eval(fmt.Sprintf(
		`(types) => window[%q].getLoginLinks(document, types).map(r => ({strategy: r.strategy, onTop: r.onTop, inView: r.inView}))`,
		namespace), json.RawMessage(typesJSON))
	if err != nil {
		return nil, fmt.Errorf("pagescript: getLoginLinks meta: %w", err)
	}
	var metas []struct {
		Strategy string `json:"strategy"`
		OnTop    bool   `json:"onTop"`
		InView   bool   `json:"inView"`
	}
	_ = meta.Value.Unmarshal(&metas)

	out := make([]LoginLink, len(arr))
	for i, el := range arr {
		ll := LoginLink{Elem: el}
		if i < len(metas) {
			ll.Strategy, ll.OnTop, ll.InView = metas[i].Strategy, metas[i].OnTop, metas[i].InView
		}
		out[i] = ll
	}
	return out, nil
}

// FormSelectorChain computes the selector chain identifying elem,
// ascending through shadow hosts (§4.1).
func FormSelectorChain(elem *rod.Element) ([]string, error) {
	res, err := elem.Eval(fmt.Sprintf(`() => window[%q].formSelectorChain(this)`, namespace))
	if err != nil {
		return nil, fmt.Errorf("pagescript: formSelectorChain: %w", err)
	}
	var chain []string
	if err := res.Value.Unmarshal(&chain); err != nil {
		return nil, fmt.Errorf("pagescript: unmarshal chain: %w", err)
	}
	return chain, nil
}

// ResolveResult mirrors getElementBySelectorChain's {elem, unique}.
type ResolveResult struct {
	Elem   *rod.Element
	Unique bool
}

// Resolve walks chain across shadow roots starting at frame's document.
func Resolve(frame *rod.Page, chain []string) (ResolveResult, error) {
	chainJSON, _ := json.Marshal(chain)
	el, err := frame.ElementByJS(rod.Eval(fmt.Sprintf(
		`(chain) => window[%q].getElementBySelectorChain(chain).elem`, namespace),
		json.RawMessage(chainJSON)))
	if err != nil {
		return ResolveResult{}, nil // absent is a normal outcome, not an error
	}
	uniq, err := frame.Eval(fmt.Sprintf(
		`(chain) => window[%q].getElementBySelectorChain(chain).unique`, namespace),
		json.RawMessage(chainJSON))
	unique := err == nil && uniq.Value.Bool()
	return ResolveResult{Elem: el, Unique: unique}, nil
}

// CoerceClosedShadowDom toggles interception of attachShadow so that
// mode:"closed" calls are forced to mode:"open" (§6 disableClosedShadowDom, §9).
func CoerceClosedShadowDom(frame *rod.Page, enable bool) error {
	_, err := frame.Eval(fmt.Sprintf(`(e) => window[%q].coerceClosedShadowDom(e)`, namespace), enable)
	if err != nil {
		return fmt.Errorf("pagescript: coerceClosedShadowDom: %w", err)
	}
	return nil
}

// InstallDomLeakObserver arms the in-page MutationObserver that scans
// attribute mutations for encoded password variants and reports hits
// through the named binding (§4.5 "DOM attribute leak detector").
// The binding itself must already be registered via browserfacade.Expose.
func InstallDomLeakObserver(frame *rod.Page, password, bindingName string) error {
	script := fmt.Sprintf(`(password, bindingName) => {
		window[%q].installDomLeakObserver(document, password, (node, attr) => {
			const chain = window[%q].formSelectorChain(node);
			window[bindingName](JSON.stringify({chain, attribute: attr}));
		});
	}`, namespace, namespace)
	_, err := frame.Eval(script, password, bindingName)
	if err != nil {
		return fmt.Errorf("pagescript: installDomLeakObserver: %w", err)
	}
	return nil
}

// EncodedVariants returns the variant forms a leak detector should
// scan for (raw, single/double URI-encoded, JSON-quoted) (§4.5).
func EncodedVariants(password string) []string {
	single := urlQueryEscape(password)
	double := urlQueryEscape(single)
	quoted, _ := json.Marshal(password)
	return []string{password, single, double, string(quoted)}
}
