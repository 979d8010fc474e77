package leak

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/stevenwdv/leak-detect-sub000/internal/pagescript"
	"github.com/stevenwdv/leak-detect-sub000/model"
)

// ConsoleDetector subscribes to Runtime.consoleAPICalled and scans
// every call's arguments for an encoded password variant (§4.5
// "Console leak detector").
type ConsoleDetector struct {
	logger *slog.Logger

	mu       sync.Mutex
	watching map[*rod.Page]bool
	onLeak   func(model.ConsoleLeak)
}

func NewConsoleDetector(logger *slog.Logger, onLeak func(model.ConsoleLeak)) *ConsoleDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleDetector{
		logger:   logger,
		watching: make(map[*rod.Page]bool),
		onLeak:   onLeak,
	}
}

// Watch enables the Runtime domain on frame and starts scanning every
// console.* call for password, its encoded variants. Idempotent per
// frame.
func (c *ConsoleDetector) Watch(frame *rod.Page, password string) error {
	c.mu.Lock()
	already := c.watching[frame]
	c.watching[frame] = true
	c.mu.Unlock()
	if already {
		return nil
	}

	if err := proto.RuntimeEnable{}.Call(frame); err != nil {
		return fmt.Errorf("leak: runtime enable: %w", err)
	}

	variants := pagescript.EncodedVariants(password)

	go frame.EachEvent(func(e *proto.RuntimeConsoleAPICalled) {
		c.handleCall(frame, e, variants)
	})()

	return nil
}

func (c *ConsoleDetector) handleCall(frame *rod.Page, e *proto.RuntimeConsoleAPICalled, variants []string) {
	for _, arg := range e.Args {
		if hit, rendered := scanRemoteObject(frame, arg, variants); hit {
			stack := stackFromRuntime(e.StackTrace)
			c.onLeak(model.ConsoleLeak{
				Time:    time.Now(),
				APIType: string(e.Type),
				Message: rendered,
				Stack:   stack,
			})
			return
		}
	}
}

// scanRemoteObject looks for a password variant in arg's preview tree
// (cheap, no extra round trip). If the preview is absent or
// inconclusive (values are frequently truncated or typed "object"),
// it falls back to a live stringification via Runtime.callFunctionOn
// and rescans that.
func scanRemoteObject(frame *rod.Page, arg *proto.RuntimeRemoteObject, variants []string) (bool, string) {
	if arg == nil {
		return false, ""
	}

	if desc := arg.Description; containsAnyVariant(desc, variants) {
		return true, desc
	}
	if val := fmt.Sprint(arg.Value); containsAnyVariant(val, variants) {
		return true, val
	}
	if arg.Preview != nil {
		if hit, rendered := scanPreview(arg.Preview, variants); hit {
			return true, rendered
		}
	}

	if arg.ObjectID == "" {
		return false, ""
	}
	res, err := proto.RuntimeCallFunctionOn{
		ObjectID:            arg.ObjectID,
		FunctionDeclaration: `function() { try { return String(this); } catch (e) { return ''; } }`,
		ReturnByValue:       true,
	}.Call(frame)
	if err != nil || res.Result == nil {
		return false, ""
	}
	rendered := fmt.Sprint(res.Result.Value)
	if containsAnyVariant(rendered, variants) {
		return true, rendered
	}
	return false, ""
}

// scanPreview walks an object preview's properties and, for
// collections, its entries, recursing through nested previews. Keys
// are scanned as well as values per §4.5.
func scanPreview(p *proto.RuntimeObjectPreview, variants []string) (bool, string) {
	if p == nil {
		return false, ""
	}
	if containsAnyVariant(p.Description, variants) {
		return true, p.Description
	}
	for _, prop := range p.Properties {
		if containsAnyVariant(prop.Name, variants) {
			return true, prop.Name
		}
		if containsAnyVariant(prop.Value, variants) {
			return true, prop.Value
		}
		if prop.ValuePreview != nil {
			if hit, rendered := scanPreview(prop.ValuePreview, variants); hit {
				return true, rendered
			}
		}
	}
	for _, entry := range p.Entries {
		if entry.Key != nil {
			if hit, rendered := scanPreview(entry.Key, variants); hit {
				return true, rendered
			}
		}
		if entry.Value != nil {
			if hit, rendered := scanPreview(entry.Value, variants); hit {
				return true, rendered
			}
		}
	}
	return false, ""
}

func stackFromRuntime(st *proto.RuntimeStackTrace) []model.StackFrame {
	if st == nil {
		return nil
	}
	out := make([]model.StackFrame, 0, len(st.CallFrames))
	for _, f := range st.CallFrames {
		out = append(out, model.StackFrame{
			FunctionName: f.FunctionName,
			URL:          f.URL,
			Line:         f.LineNumber,
			Column:       f.ColumnNumber,
		})
	}
	return out
}
