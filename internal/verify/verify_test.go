package verify

import (
	"crypto/sha1"
	"os"
	"path/filepath"
	"testing"

	"github.com/crossseed/crossseed/internal/metainfo"
	"github.com/crossseed/crossseed/internal/resolve"
)

func writeLocal(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
	return path
}

func singlePieceInfo(content []byte, path []string) *metainfo.Info {
	hash := sha1.Sum(content)
	var digest metainfo.Digest
	copy(digest[:], hash[:])
	return &metainfo.Info{
		Files:       []metainfo.File{{Length: int64(len(content)), Path: path}},
		PieceLength: int64(len(content)),
		Pieces: []metainfo.Piece{{
			Hash:   digest,
			Slices: []metainfo.FileSlice{{Path: path, Offset: 0, Length: int64(len(content))}},
		}},
	}
}

func TestVerify_MatchingContentPasses(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello cross-seed world")
	local := writeLocal(t, dir, "movie.mkv", content)

	info := singlePieceInfo(content, []string{"movie.mkv"})
	mapping := resolve.Mapping{"movie.mkv": local}

	result, err := Verify(info, mapping, Options{PiecesPerFile: 3, Seed: 1})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Failed() {
		t.Fatalf("expected no failures, got %v", result.SortedFailedPaths())
	}
}

func TestVerify_MismatchIsReported(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello cross-seed world")
	tampered := append([]byte(nil), content...)
	tampered[0] ^= 0xFF
	local := writeLocal(t, dir, "movie.mkv", tampered)

	info := singlePieceInfo(content, []string{"movie.mkv"})
	mapping := resolve.Mapping{"movie.mkv": local}

	result, err := Verify(info, mapping, Options{PiecesPerFile: 3, Seed: 1})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !result.Failed() {
		t.Fatal("expected a mismatch to be reported")
	}
	if got := result.SortedFailedPaths(); len(got) != 1 || got[0] != "movie.mkv" {
		t.Fatalf("unexpected failed paths: %v", got)
	}
}

func TestVerify_ShortReadIsFatal(t *testing.T) {
	dir := t.TempDir()
	content := []byte("hello cross-seed world")
	// Local file is shorter than declared -> short read -> fatal IOError.
	local := writeLocal(t, dir, "movie.mkv", content[:len(content)-5])

	info := singlePieceInfo(content, []string{"movie.mkv"})
	mapping := resolve.Mapping{"movie.mkv": local}

	if _, err := Verify(info, mapping, Options{PiecesPerFile: 3, Seed: 1}); err == nil {
		t.Fatal("expected a fatal error for the short read")
	}
}

func TestVerify_MultiFileSpanningPieceCoversBothFilesOnFailure(t *testing.T) {
	dir := t.TempDir()
	a := []byte("AAAAA")
	b := []byte("BBBB")
	localA := writeLocal(t, dir, "a", a)
	// Tamper with b so the shared piece fails.
	localB := writeLocal(t, dir, "b", []byte("XXXX"))

	combined := append(append([]byte(nil), a...), b...)
	hash := sha1.Sum(combined)
	var digest metainfo.Digest
	copy(digest[:], hash[:])

	info := &metainfo.Info{
		Files: []metainfo.File{
			{Length: int64(len(a)), Path: []string{"a"}},
			{Length: int64(len(b)), Path: []string{"b"}},
		},
		PieceLength: int64(len(combined)),
		Pieces: []metainfo.Piece{{
			Hash: digest,
			Slices: []metainfo.FileSlice{
				{Path: []string{"a"}, Offset: 0, Length: int64(len(a))},
				{Path: []string{"b"}, Offset: 0, Length: int64(len(b))},
			},
		}},
	}
	mapping := resolve.Mapping{"a": localA, "b": localB}

	result, err := Verify(info, mapping, Options{PiecesPerFile: 1, Seed: 1})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	got := result.SortedFailedPaths()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected both files implicated by the shared failing piece, got %v", got)
	}
}
