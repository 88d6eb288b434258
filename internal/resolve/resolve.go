// Package resolve implements the candidate resolver (spec §4.C): for
// each torrent-declared file, it picks the local file — among those of
// matching byte length — most likely to be the same content under a
// different name or directory layout.
package resolve

import (
	"sort"
	"strings"

	"github.com/crossseed/crossseed/internal/index"
	"github.com/crossseed/crossseed/internal/metainfo"
	"github.com/crossseed/crossseed/internal/xerrors"
)

// Mapping is a bijective map (w.r.t. the torrent's file set) from
// torrent-declared relative path ("/"-joined) to absolute local path.
type Mapping map[string]string

// Resolve selects one local candidate per torrent file.
//
// The preferred-prefix hint is the candidate belonging to the
// largest-length torrent file whose size bucket holds exactly one
// candidate — large files rarely collide on size, so its on-disk path
// pins the likely local layout for every other file (spec §4.C
// rationale). Selection itself maximizes
// (common suffix components, common prefix components with the hint,
// candidate path), ties broken deterministically by path ordering.
func Resolve(files []metainfo.File, idx index.SizeIndex) (Mapping, error) {
	hint, hintFound := preferredPrefix(files, idx)

	mapping := make(Mapping, len(files))
	for _, f := range files {
		bucket := idx[f.Length]
		if len(bucket) == 0 {
			return nil, &xerrors.NoCandidateError{Path: f.RelPath(), Length: f.Length}
		}
		mapping[f.RelPath()] = selectBest(f, bucket, hint, hintFound)
	}
	return mapping, nil
}

func preferredPrefix(files []metainfo.File, idx index.SizeIndex) (string, bool) {
	sorted := append([]metainfo.File(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Length > sorted[j].Length })

	for _, f := range sorted {
		if bucket := idx[f.Length]; len(bucket) == 1 {
			return bucket[0], true
		}
	}
	return "", false
}

type scoredCandidate struct {
	path           string
	suffixMatch    int
	prefixWithHint int
}

func selectBest(f metainfo.File, bucket []string, hint string, hintFound bool) string {
	hintComponents := splitPath(hint)

	scored := make([]scoredCandidate, len(bucket))
	for i, cand := range bucket {
		candComponents := splitPath(cand)
		prefix := 0
		if hintFound {
			prefix = commonPrefixLen(candComponents, hintComponents)
		}
		scored[i] = scoredCandidate{
			path:           cand,
			suffixMatch:    commonSuffixLen(f.Path, candComponents),
			prefixWithHint: prefix,
		}
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.suffixMatch != b.suffixMatch {
			return a.suffixMatch > b.suffixMatch
		}
		if a.prefixWithHint != b.prefixWithHint {
			return a.prefixWithHint > b.prefixWithHint
		}
		return a.path > b.path
	})
	return scored[0].path
}

// splitPath splits an absolute local path into its literal "/"-separated
// components (not cleaned) so matching is component-wise rather than
// string-wise (spec §9: "/a/b" and "/a//b" must not be compared as
// strings).
func splitPath(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func commonSuffixLen(declared, candidate []string) int {
	n := 0
	for n < len(declared) && n < len(candidate) &&
		declared[len(declared)-1-n] == candidate[len(candidate)-1-n] {
		n++
	}
	return n
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
