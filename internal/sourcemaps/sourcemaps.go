// Package sourcemaps resolves minified JS stack frames against source
// maps, cached per session per source-map URL (§9 "Source maps").
package sourcemaps

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/go-sourcemap/sourcemap"
	"github.com/stevenwdv/leak-detect-sub000/model"
)

// sourceMappingURLRe matches a `//# sourceMappingURL=...` (or the legacy
// `//@` form) comment a bundler appends to a script, anywhere in the
// file; bundlers place it on its own trailing line.
var sourceMappingURLRe = regexp.MustCompile(`(?m)^//[#@]\s*sourceMappingURL=\s*(\S+)\s*$`)

// Mode mirrors config.SourceMapMode without importing internal/config,
// keeping this package dependency-light.
type Mode string

const (
	Off        Mode = "false"
	On         Mode = "true"
	Aggressive Mode = "aggressive"
)

// Resolver caches one *sourcemap.Consumer per source-map URL for the
// lifetime of a CrawlSession. Cleared on session close (§9 "Caching is
// per session, per source-map URL").
type Resolver struct {
	mode Mode
	mu   sync.Mutex
	maps map[string]*sourcemap.Consumer
	fail map[string]bool
	// scriptMapURL caches the resolved map URL (or "" meaning none
	// found) for each script URL already inspected, so a script with
	// many stack frames pointing into it is only fetched once.
	scriptMapURL map[string]string
	get          func(url string) ([]byte, error)
}

func New(mode Mode) *Resolver {
	return &Resolver{
		mode:         mode,
		maps:         make(map[string]*sourcemap.Consumer),
		fail:         make(map[string]bool),
		scriptMapURL: make(map[string]string),
		get:          fetchURL,
	}
}

func fetchURL(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sourcemaps: %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Close discards every cached consumer.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.maps = make(map[string]*sourcemap.Consumer)
	r.fail = make(map[string]bool)
	r.scriptMapURL = make(map[string]string)
}

// mapURLFor returns the source-map URL to use for scriptURL: the one
// the script itself declares via a sourceMappingURL comment, or, in
// Aggressive mode, a guessed `<script>.map` when the script declares
// none (§9 "the aggressive strategy appends .map to .js/.jsm URLs
// missing a sourceMappingURL"). Empty return means no map is usable.
func (r *Resolver) mapURLFor(scriptURL string) string {
	if cached, ok := r.scriptMapURL[scriptURL]; ok {
		return cached
	}

	mapURL := ""
	if data, err := r.get(scriptURL); err == nil {
		if m := sourceMappingURLRe.FindSubmatch(data); m != nil {
			mapURL = resolveRelative(scriptURL, string(m[1]))
		}
	}

	if mapURL == "" && r.mode == Aggressive &&
		(strings.HasSuffix(scriptURL, ".js") || strings.HasSuffix(scriptURL, ".jsm")) {
		mapURL = scriptURL + ".map"
	}

	r.scriptMapURL[scriptURL] = mapURL
	return mapURL
}

func resolveRelative(base, ref string) string {
	if strings.HasPrefix(ref, "data:") {
		return ref
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

func (r *Resolver) consumerFor(scriptURL string) *sourcemap.Consumer {
	r.mu.Lock()
	defer r.mu.Unlock()

	mapURL := r.mapURLFor(scriptURL)
	if mapURL == "" {
		return nil
	}

	if c, ok := r.maps[mapURL]; ok {
		return c
	}
	if r.fail[mapURL] {
		return nil
	}

	data, err := r.get(mapURL)
	if err != nil {
		// Aggressive-mode fetch failures are never user-visible errors (§9).
		r.fail[mapURL] = true
		return nil
	}
	consumer, err := sourcemap.Parse(mapURL, data)
	if err != nil {
		r.fail[mapURL] = true
		return nil
	}
	r.maps[mapURL] = consumer
	return consumer
}

// Resolve attempts to resolve each frame's original source location. A
// frame that cannot be resolved (no map, or mode is Off) is returned
// unchanged with Resolved=false.
func (r *Resolver) Resolve(frames []model.StackFrame) []model.StackFrame {
	if r.mode == Off {
		return frames
	}
	out := make([]model.StackFrame, len(frames))
	for i, f := range frames {
		out[i] = f
		consumer := r.consumerFor(f.URL)
		if consumer == nil {
			continue
		}
		file, fn, line, col, ok := consumer.Source(f.Line, f.Column)
		if !ok {
			continue
		}
		out[i].URL = file
		if fn != "" {
			out[i].FunctionName = fn
		}
		out[i].Line, out[i].Column = line, col
		out[i].Resolved = true
	}
	return out
}
