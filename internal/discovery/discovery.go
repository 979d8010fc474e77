// Package discovery implements Field Discovery (§4.4): for a given
// frame, returns ranked email/username candidates and visible password
// inputs with stable cross-root selectors and captured attributes.
package discovery

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/stevenwdv/leak-detect-sub000/internal/pagescript"
	"github.com/stevenwdv/leak-detect-sub000/internal/registry"
	"github.com/stevenwdv/leak-detect-sub000/model"
)

// snapshotJS captures the attributes FieldAttributes needs in one round
// trip, given an element handle already bound host-side.
const snapshotJS = `() => {
	const el = this;
	const rect = el.getBoundingClientRect();
	const form = el.closest ? el.closest('form') : null;
	return {
		tag: el.tagName.toLowerCase(),
		id: el.id || '',
		class: el.className || '',
		name: el.name || '',
		type: el.type || '',
		href: el.href || '',
		innerText: (el.innerText || '').slice(0, 500),
		ariaLabel: el.getAttribute('aria-label') || '',
		placeholder: el.placeholder || '',
		hasForm: !!form,
		formChain: form ? window[%q].formSelectorChain(form) : [],
		onTop: window[%q].isOnTop(el),
		inView: window[%q].inViewport(el),
		visible: window[%q].isVisible(el),
		box: {x: rect.x, y: rect.y, width: rect.width, height: rect.height},
	};
}`

const namespace = "__leakDetectCore_v1"

func snapshot(elem *rod.Element, fieldType model.FieldType, score float64, frame *rod.Page) (model.FieldAttributes, error) {
	res, err := elem.Eval(fmt.Sprintf(snapshotJS, namespace, namespace, namespace, namespace))
	if err != nil {
		return model.FieldAttributes{}, fmt.Errorf("discovery: snapshot: %w", err)
	}
	var raw struct {
		Tag, ID, Class, Name, Type, Href, InnerText, AriaLabel, Placeholder string
		HasForm                                                            bool
		FormChain                                                          []string
		OnTop, InView, Visible                                             bool
		Box                                                                 model.BoundingBox
	}
	if err := res.Value.Unmarshal(&raw); err != nil {
		return model.FieldAttributes{}, fmt.Errorf("discovery: unmarshal snapshot: %w", err)
	}

	chain, err := pagescript.FormSelectorChain(elem)
	if err != nil {
		return model.FieldAttributes{}, err
	}

	// The field's own chain (`chain`) identifies the field itself, not
	// its form: formSelectorChain emits one entry per shadow-root
	// boundary, so a field and its owning <form> in the same root both
	// produce a chain of length 1. raw.FormChain is computed host-side
	// in JS directly from the <form> element, independent of the
	// field's chain length.
	var formChain []string
	if raw.HasForm {
		formChain = raw.FormChain
	}

	return model.FieldAttributes{
		Identifier: model.ElementIdentifier{
			FrameStack:    registry.FrameStack(frame),
			SelectorChain: chain,
		},
		Tag: raw.Tag, ID: raw.ID, Class: raw.Class, Name: raw.Name, Type: raw.Type,
		Href: raw.Href, InnerText: raw.InnerText, AriaLabel: raw.AriaLabel, Placeholder: raw.Placeholder,
		FormChain: formChain,
		OnTop:     raw.OnTop, InView: raw.InView, Visible: raw.Visible,
		Box:       raw.Box,
		Timestamp: time.Now(),
		FieldType: fieldType,
		Score:     score,
	}, nil
}

// Discover returns every visible email/username and password candidate
// in frame, each with a captured FieldAttributes snapshot. Only
// visible === true candidates are retained (§4.4).
func Discover(frame *rod.Page) ([]model.FieldAttributes, error) {
	var out []model.FieldAttributes

	emailCands, err := pagescript.DetectEmailInputs(frame)
	if err != nil {
		return nil, err
	}
	for _, c := range emailCands {
		fa, err := snapshot(c.Elem, model.FieldEmail, c.Score, frame)
		if err != nil {
			continue
		}
		if fa.Visible {
			out = append(out, fa)
		}
	}

	pwEls, err := pagescript.PasswordInputs(frame)
	if err != nil {
		return nil, err
	}
	for _, el := range pwEls {
		fa, err := snapshot(el, model.FieldPassword, 0, frame)
		if err != nil {
			continue
		}
		if fa.Visible {
			out = append(out, fa)
		}
	}

	return out, nil
}
