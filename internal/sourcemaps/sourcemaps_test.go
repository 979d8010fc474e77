package sourcemaps

import (
	"testing"

	"github.com/stevenwdv/leak-detect-sub000/model"
)

func TestResolve_OffModePassesThrough(t *testing.T) {
	r := New(Off)
	frames := []model.StackFrame{{URL: "https://a.example/app.js", Line: 1, Column: 2}}
	got := r.Resolve(frames)
	if got[0].Resolved {
		t.Errorf("Off mode: got Resolved=true, want false")
	}
	if got[0].URL != frames[0].URL {
		t.Errorf("Off mode: URL mutated, got %q", got[0].URL)
	}
}

func TestMapURLFor_DeclaredInScript(t *testing.T) {
	r := New(On)
	r.get = func(url string) ([]byte, error) {
		if url == "https://a.example/app.js" {
			return []byte("console.log(1);\n//# sourceMappingURL=app.js.map\n"), nil
		}
		t.Fatalf("unexpected fetch of %q", url)
		return nil, nil
	}
	got := r.mapURLFor("https://a.example/app.js")
	want := "https://a.example/app.js.map"
	if got != want {
		t.Errorf("mapURLFor: got %q, want %q", got, want)
	}
}

func TestMapURLFor_TrueModeDoesNotGuess(t *testing.T) {
	r := New(On)
	r.get = func(url string) ([]byte, error) {
		return []byte("console.log(1);\n"), nil
	}
	got := r.mapURLFor("https://a.example/app.js")
	if got != "" {
		t.Errorf("non-aggressive mode with no declared map: got %q, want \"\"", got)
	}
}

func TestMapURLFor_AggressiveGuessesDotMap(t *testing.T) {
	r := New(Aggressive)
	r.get = func(url string) ([]byte, error) {
		return []byte("console.log(1);\n"), nil
	}
	got := r.mapURLFor("https://a.example/app.js")
	want := "https://a.example/app.js.map"
	if got != want {
		t.Errorf("aggressive guess: got %q, want %q", got, want)
	}
}

func TestMapURLFor_AggressiveDoesNotGuessNonJS(t *testing.T) {
	r := New(Aggressive)
	r.get = func(url string) ([]byte, error) {
		return []byte(""), nil
	}
	got := r.mapURLFor("https://a.example/styles.css")
	if got != "" {
		t.Errorf("aggressive guess on non-.js URL: got %q, want \"\"", got)
	}
}

func TestMapURLFor_CachesPerScriptURL(t *testing.T) {
	r := New(Aggressive)
	calls := 0
	r.get = func(url string) ([]byte, error) {
		calls++
		return []byte(""), nil
	}
	r.mapURLFor("https://a.example/app.js")
	r.mapURLFor("https://a.example/app.js")
	if calls != 1 {
		t.Errorf("repeated mapURLFor calls: got %d script fetches, want 1", calls)
	}
}

func TestResolve_FetchFailureLeavesFrameUnresolved(t *testing.T) {
	r := New(Aggressive)
	r.get = func(url string) ([]byte, error) { return nil, errFetch }
	frames := []model.StackFrame{{URL: "https://a.example/app.js", Line: 1, Column: 1}}
	got := r.Resolve(frames)
	if got[0].Resolved {
		t.Errorf("fetch failure: got Resolved=true, want false")
	}
}

func TestResolve_CachesFailureAcrossFrames(t *testing.T) {
	r := New(Aggressive)
	mapFetches := 0
	r.get = func(url string) ([]byte, error) {
		if url == "https://a.example/app.js" {
			return []byte(""), nil
		}
		mapFetches++
		return nil, errFetch
	}
	frames := []model.StackFrame{
		{URL: "https://a.example/app.js", Line: 1, Column: 1},
		{URL: "https://a.example/app.js", Line: 2, Column: 2},
	}
	r.Resolve(frames)
	if mapFetches != 1 {
		t.Errorf("repeated resolve of failing map URL: got %d map fetches, want 1 (cached failure)", mapFetches)
	}
}

var errFetch = &fetchErr{"boom"}

type fetchErr struct{ msg string }

func (e *fetchErr) Error() string { return e.msg }
