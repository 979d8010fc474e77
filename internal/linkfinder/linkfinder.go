// Package linkfinder implements the Link Finder & Follower (§4.6):
// ranks login/register link candidates and follows up to maxLinks of
// them, honoring skipExternal and racing navigation after each click.
package linkfinder

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stevenwdv/leak-detect-sub000/internal/config"
	"github.com/stevenwdv/leak-detect-sub000/internal/domainutil"
	"github.com/stevenwdv/leak-detect-sub000/internal/fillsubmit"
	"github.com/stevenwdv/leak-detect-sub000/internal/pagescript"
)

// Candidate is a ranked, not-yet-followed login link (§4.1
// getLoginLinks' stable sort key: A/BUTTON tag first, then on-top,
// then in-view).
type Candidate struct {
	Chain    []string
	Href     string
	Strategy string
	OnTop    bool
	InView   bool
	tag      string
}

// Rank runs GetLoginLinks and returns its results deduplicated by
// selector chain and sorted by a stable tie-break (text match strength,
// then document order). Ranking and dedup are done host-side in Go
// rather than in the page.
func Rank(frame *rod.Page, matchTypes []string) ([]Candidate, error) {
	links, err := pagescript.GetLoginLinks(frame, matchTypes)
	if err != nil {
		return nil, fmt.Errorf("linkfinder: getLoginLinks: %w", err)
	}

	seen := make(map[string]bool)
	out := make([]Candidate, 0, len(links))
	for _, l := range links {
		chain, err := pagescript.FormSelectorChain(l.Elem)
		if err != nil {
			continue
		}
		key := fmt.Sprint(chain)
		if seen[key] {
			continue
		}
		seen[key] = true

		tag, _ := l.Elem.Eval(`() => this.tagName`)
		href, _ := l.Elem.Eval(`() => this.href || ''`)

		c := Candidate{Chain: chain, Strategy: l.Strategy, OnTop: l.OnTop, InView: l.InView}
		if tag != nil {
			c.tag = tag.Value.Str()
		}
		if href != nil {
			c.Href = href.Value.Str()
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := tagRank(out[i].tag), tagRank(out[j].tag)
		if ri != rj {
			return ri < rj
		}
		if out[i].OnTop != out[j].OnTop {
			return out[i].OnTop
		}
		return out[i].InView && !out[j].InView
	})
	return out, nil
}

func tagRank(tag string) int {
	switch tag {
	case "A":
		return 0
	case "BUTTON":
		return 1
	default:
		return 2
	}
}

// Follow re-resolves candidate's ElementIdentifier, clicks it (native
// click with a scripted scrollIntoView+.click()/synthetic MouseEvent
// fallback), and races navigation (§4.6, §5).
func Follow(ctx context.Context, browser *rod.Browser, frame, topPage *rod.Page, c Candidate) (fillsubmit.NavResult, error) {
	resolved, err := pagescript.Resolve(frame, c.Chain)
	if err != nil || resolved.Elem == nil {
		return fillsubmit.NavResult{}, fmt.Errorf("linkfinder: link no longer present: %w", err)
	}

	if err := click(resolved.Elem); err != nil {
		return fillsubmit.NavResult{}, fmt.Errorf("linkfinder: click: %w", err)
	}

	return fillsubmit.RaceNavigation(ctx, browser, frame, topPage), nil
}

func click(elem *rod.Element) error {
	if err := elem.ScrollIntoView(); err != nil {
		return err
	}
	if err := elem.Click(proto.InputMouseButtonLeft, 1); err == nil {
		return nil
	}
	// Scripted fallback for elements a native click cannot reach
	// (zero-size, pointer-events:none, off-screen overlays).
	_, err := elem.Eval(`() => {
		if (typeof this.click === 'function') { this.click(); return; }
		this.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true, view: window}));
	}`)
	return err
}

// Budget selects at most cfg.MaxLinks candidates from ranked, dropping
// any whose href fails the skipExternal same-registrable-domain check
// against startURL (§4.6, §6).
func Budget(cfg config.Config, startURL string, ranked []Candidate) []Candidate {
	out := make([]Candidate, 0, cfg.MaxLinks)
	for _, c := range ranked {
		if len(out) >= cfg.MaxLinks {
			break
		}
		if cfg.SkipExternal == config.SkipExternalPages && c.Href != "" {
			if !domainutil.SameSite(startURL, c.Href) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}
