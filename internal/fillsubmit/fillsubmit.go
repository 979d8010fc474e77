// Package fillsubmit implements the Fill/Submit Engine and the
// Facebook-button probe (§4.5): humanized focus/typing/blur, Enter
// submission, and the navigation-wait race.
package fillsubmit

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stevenwdv/leak-detect-sub000/internal/config"
)

// BeforePasswordFill is invoked once per owning frame right before the
// first password field in it is filled, giving the Orchestrator a hook
// to arm the DOM attribute leak detector (§4.5 "install once per page").
type BeforePasswordFill func(frame *rod.Page) error

// Fill types value into elem using the humanized interaction sequence
// of §4.5: bring to front, scroll into view, hover, click with dwell,
// per-character keydown/up with jittered dwell and inter-key pause,
// then Tab to blur.
func Fill(ctx context.Context, frame *rod.Page, elem *rod.Element, value string, sleep *config.FillSleepConfig) error {
	if err := elem.ScrollIntoView(); err != nil {
		return fmt.Errorf("fillsubmit: scroll into view: %w", err)
	}
	if err := elem.Hover(); err != nil {
		return fmt.Errorf("fillsubmit: hover: %w", err)
	}

	clickDwell := dwell(sleep, func(s *config.FillSleepConfig) time.Duration { return s.ClickDwell })
	if err := clickWithDwell(elem, clickDwell); err != nil {
		return fmt.Errorf("fillsubmit: click: %w", err)
	}

	keyDwell := dwellBound(sleep, func(s *config.FillSleepConfig) time.Duration { return s.KeyDwell })
	betweenKeys := dwellBound(sleep, func(s *config.FillSleepConfig) time.Duration { return s.BetweenKeys })

	for _, r := range value {
		if err := typeRune(elem, r, keyDwell); err != nil {
			return fmt.Errorf("fillsubmit: type: %w", err)
		}
		if betweenKeys > 0 {
			time.Sleep(randDuration(betweenKeys))
		}
	}

	return elem.Page().Keyboard.Type(input.Tab)
}

func dwell(sleep *config.FillSleepConfig, get func(*config.FillSleepConfig) time.Duration) time.Duration {
	if sleep == nil {
		return 0
	}
	return get(sleep)
}

func dwellBound(sleep *config.FillSleepConfig, get func(*config.FillSleepConfig) time.Duration) time.Duration {
	return dwell(sleep, get)
}

func randDuration(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(bound)))
}

func clickWithDwell(elem *rod.Element, dwellDur time.Duration) error {
	page := elem.Page()
	shape, err := elem.Shape()
	if err != nil {
		return err
	}
	box := shape.Box()
	x, y := box.X+box.Width/2, box.Y+box.Height/2

	if err := page.Mouse.MoveTo(proto.NewPoint(x, y)); err != nil {
		return err
	}
	if err := page.Mouse.Down("left", 1); err != nil {
		return err
	}
	if dwellDur > 0 {
		time.Sleep(randDuration(dwellDur))
	}
	return page.Mouse.Up("left", 1)
}

func typeRune(elem *rod.Element, r rune, keyDwellBound time.Duration) error {
	page := elem.Page()
	key, ok := input.Keys[r]
	if !ok {
		// Printable character without a dedicated input.Key entry: fall
		// back to a single InsertText, which still fires input events.
		return page.InsertText(string(r))
	}
	if err := page.Keyboard.Press(key); err != nil {
		return err
	}
	if keyDwellBound > 0 {
		time.Sleep(randDuration(keyDwellBound))
	}
	return nil
}

// EmailValue builds the configured email value, optionally appending
// "+<hostname-without-leading-www.>" to the local part (§4.5).
func EmailValue(cfg config.FillConfig, hostname string) string {
	if !cfg.AppendDomainToEmail || hostname == "" {
		return cfg.Email
	}
	host := hostname
	if len(host) > 4 && host[:4] == "www." {
		host = host[4:]
	}
	at := -1
	for i, r := range cfg.Email {
		if r == '@' {
			at = i
			break
		}
	}
	if at < 0 {
		return cfg.Email
	}
	return cfg.Email[:at] + "+" + host + cfg.Email[at:]
}

// SimulateShowPassword mutates a password input's type to "text" before
// typing, if configured (§4.5, §6 fill.simulateShowPassword).
func SimulateShowPassword(elem *rod.Element) error {
	_, err := elem.Eval(`() => { this.type = 'text'; }`)
	return err
}

// AddFacebookButtonProbe creates a fixed <button class="leak-detect-btn
// button"> at (0,0), clicks it, and removes it (§4.7 "Facebook-button
// probe"). Trackers intercepting generic button selectors fire without
// a real submission.
func AddFacebookButtonProbe(frame *rod.Page) error {
	_, err := frame.Eval(`() => {
		const b = document.createElement('button');
		b.className = 'leak-detect-btn button';
		b.style.position = 'fixed';
		b.style.left = '0px';
		b.style.top = '0px';
		document.body.appendChild(b);
		b.click();
		b.remove();
	}`)
	if err != nil {
		return fmt.Errorf("fillsubmit: facebook-button probe: %w", err)
	}
	return nil
}

// Submit focuses elem and presses Enter (§4.5 "Submit"). Callers must
// already have verified the field was filled.
func Submit(elem *rod.Element) error {
	if err := elem.Focus(); err != nil {
		return fmt.Errorf("fillsubmit: focus for submit: %w", err)
	}
	return elem.Page().Keyboard.Press(input.Enter)
}

// BlurRefocus performs a blur-refocus dance against frame's active
// element to make visibility-based beacons fire (§4.5 "Submit").
func BlurRefocus(frame *rod.Page) error {
	_, err := frame.Eval(`() => {
		const active = document.activeElement;
		if (active && active.blur) active.blur();
		window.focus();
		if (active && active.focus) active.focus();
	}`)
	return err
}

// NavResult identifies which race leg completed first (§5, §9 Open
// Question 2: either winner is acceptable).
type NavResult struct {
	Kind string // "frame", "top-page", "new-target", "timeout"
}

// RaceNavigation waits for the first of: frame's own navigation, the
// top page's navigation, or a new-page target opening (§5 "disjunction
// (first-to-succeed)"). The effective timeout is the caller's
// responsibility via ctx.
func RaceNavigation(ctx context.Context, browser *rod.Browser, frame, topPage *rod.Page) NavResult {
	frameNav := make(chan struct{}, 1)
	topNav := make(chan struct{}, 1)
	newTarget := make(chan struct{}, 1)

	frameCtx, frameCancel := context.WithCancel(ctx)
	defer frameCancel()
	go func() {
		_ = frame.Context(frameCtx).WaitNavigation(proto.PageLifecycleEventNameLoad)()
		select {
		case frameNav <- struct{}{}:
		default:
		}
	}()

	if topPage != nil && topPage != frame {
		topCtx, topCancel := context.WithCancel(ctx)
		defer topCancel()
		go func() {
			_ = topPage.Context(topCtx).WaitNavigation(proto.PageLifecycleEventNameLoad)()
			select {
			case topNav <- struct{}{}:
			default:
			}
		}()
	}

	targetCtx, targetCancel := context.WithCancel(ctx)
	defer targetCancel()
	go func() {
		wait := browser.Context(targetCtx).EachEvent(func(e *proto.TargetTargetCreated) {
			if e.TargetInfo.Type == proto.TargetTargetInfoTypePage {
				select {
				case newTarget <- struct{}{}:
				default:
				}
			}
		})
		wait()
	}()

	select {
	case <-frameNav:
		return NavResult{Kind: "frame"}
	case <-topNav:
		return NavResult{Kind: "top-page"}
	case <-newTarget:
		return NavResult{Kind: "new-target"}
	case <-ctx.Done():
		return NavResult{Kind: "timeout"}
	}
}
