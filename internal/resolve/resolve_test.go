package resolve

import (
	"testing"

	"github.com/crossseed/crossseed/internal/index"
	"github.com/crossseed/crossseed/internal/metainfo"
)

func TestResolve_NoCandidateIsFatal(t *testing.T) {
	files := []metainfo.File{{Length: 10, Path: []string{"a"}}}
	_, err := Resolve(files, index.SizeIndex{})
	if err == nil {
		t.Fatal("expected an error when no candidate of matching length exists")
	}
}

// These three cases reproduce spec §8's candidate-selection properties
// verbatim: two same-size candidates /a/b/c and /a2/b/c, which always
// share a 2-component suffix ("b/c") with the declared file, so the
// outcome turns on the prefix/path tiebreaks.
func candidateSet() index.SizeIndex {
	return index.SizeIndex{10: {"/a/b/c", "/a2/b/c"}}
}

func TestResolve_HintPrefixTiebreak(t *testing.T) {
	files := []metainfo.File{
		{Length: 100, Path: []string{"hint"}}, // unique bucket -> becomes the hint
		{Length: 10, Path: []string{"b", "c"}},
	}
	idx := candidateSet()
	idx[100] = []string{"/a"}

	mapping, err := Resolve(files, idx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := mapping["b/c"]; got != "/a/b/c" {
		t.Fatalf("expected /a/b/c to win with hint /a, got %q", got)
	}
}

func TestResolve_HintPrefixTiebreak_DeeperHint(t *testing.T) {
	files := []metainfo.File{
		{Length: 100, Path: []string{"hint"}},
		{Length: 10, Path: []string{"b", "c"}},
	}
	idx := candidateSet()
	idx[100] = []string{"/a/b2"}

	mapping, err := Resolve(files, idx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := mapping["b/c"]; got != "/a/b/c" {
		t.Fatalf("expected /a/b/c to still win with hint /a/b2, got %q", got)
	}
}

func TestResolve_NoHintLexicographicTiebreak(t *testing.T) {
	files := []metainfo.File{{Length: 10, Path: []string{"b", "c"}}}
	idx := candidateSet()

	mapping, err := Resolve(files, idx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := mapping["b/c"]; got != "/a2/b/c" {
		t.Fatalf("expected the lexicographically larger candidate to win with no hint, got %q", got)
	}
}

func TestResolve_DeterministicAcrossRuns(t *testing.T) {
	files := []metainfo.File{
		{Length: 100, Path: []string{"hint"}},
		{Length: 10, Path: []string{"b", "c"}},
	}
	idx := candidateSet()
	idx[100] = []string{"/a"}

	first, err := Resolve(files, idx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Resolve(files, idx)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if again["b/c"] != first["b/c"] {
			t.Fatalf("non-deterministic selection across runs: %q vs %q", again["b/c"], first["b/c"])
		}
	}
}
