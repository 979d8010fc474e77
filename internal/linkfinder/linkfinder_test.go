package linkfinder

import (
	"testing"

	"github.com/stevenwdv/leak-detect-sub000/internal/config"
)

func TestTagRank_AnchorThenButtonThenOther(t *testing.T) {
	if tagRank("A") >= tagRank("BUTTON") {
		t.Errorf("tagRank: A (%d) should rank before BUTTON (%d)", tagRank("A"), tagRank("BUTTON"))
	}
	if tagRank("BUTTON") >= tagRank("DIV") {
		t.Errorf("tagRank: BUTTON (%d) should rank before other tags (%d)", tagRank("BUTTON"), tagRank("DIV"))
	}
}

func TestBudget_TruncatesToMaxLinks(t *testing.T) {
	cfg := config.Config{MaxLinks: 2}
	ranked := []Candidate{
		{Chain: []string{"#a"}, Href: "https://example.com/a"},
		{Chain: []string{"#b"}, Href: "https://example.com/b"},
		{Chain: []string{"#c"}, Href: "https://example.com/c"},
	}
	got := Budget(cfg, "https://example.com/", ranked)
	if len(got) != 2 {
		t.Fatalf("Budget: got %d candidates, want 2 (MaxLinks)", len(got))
	}
	if got[0].Href != ranked[0].Href || got[1].Href != ranked[1].Href {
		t.Errorf("Budget: got %+v, want the first MaxLinks ranked candidates preserved in order", got)
	}
}

func TestBudget_SkipExternalDropsCrossSiteLinks(t *testing.T) {
	cfg := config.Config{MaxLinks: 10, SkipExternal: config.SkipExternalPages}
	ranked := []Candidate{
		{Chain: []string{"#a"}, Href: "https://example.com/login"},
		{Chain: []string{"#b"}, Href: "https://attacker.example/login"},
	}
	got := Budget(cfg, "https://example.com/", ranked)
	if len(got) != 1 {
		t.Fatalf("Budget with SkipExternalPages: got %d candidates, want 1", len(got))
	}
	if got[0].Href != "https://example.com/login" {
		t.Errorf("Budget: got %q, want the same-site link retained", got[0].Href)
	}
}

func TestBudget_SkipExternalOffKeepsAllLinks(t *testing.T) {
	cfg := config.Config{MaxLinks: 10, SkipExternal: config.SkipExternalOff}
	ranked := []Candidate{
		{Chain: []string{"#a"}, Href: "https://example.com/login"},
		{Chain: []string{"#b"}, Href: "https://attacker.example/login"},
	}
	got := Budget(cfg, "https://example.com/", ranked)
	if len(got) != 2 {
		t.Errorf("Budget with SkipExternalOff: got %d candidates, want 2 (no filtering)", len(got))
	}
}

func TestBudget_SkipExternalFramesDoesNotGateLinkFollowing(t *testing.T) {
	cfg := config.Config{MaxLinks: 10, SkipExternal: config.SkipExternalFrames}
	ranked := []Candidate{
		{Chain: []string{"#a"}, Href: "https://example.com/login"},
		{Chain: []string{"#b"}, Href: "https://attacker.example/login"},
	}
	got := Budget(cfg, "https://example.com/", ranked)
	if len(got) != 2 {
		t.Errorf("Budget with SkipExternalFrames: got %d candidates, want 2 (frames mode only gates iframe piercing)", len(got))
	}
}

func TestBudget_EmptyHrefNeverFiltered(t *testing.T) {
	cfg := config.Config{MaxLinks: 10, SkipExternal: config.SkipExternalPages}
	ranked := []Candidate{{Chain: []string{"#a"}, Href: ""}}
	got := Budget(cfg, "https://example.com/", ranked)
	if len(got) != 1 {
		t.Errorf("Budget: href-less candidate (e.g. a button strategy) got filtered, want kept")
	}
}
