// Package plan implements the seed planner (spec §4.E): given a verified
// candidate mapping, it decides whether the torrent can be seeded
// directly from an existing directory or whether a symlink shadow tree
// must be built, and where.
package plan

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/crossseed/crossseed/internal/resolve"
	"github.com/crossseed/crossseed/internal/xerrors"
)

// Mode is the chosen seed-tree materialization strategy.
type Mode int

const (
	// DirectSeed means the client should be pointed at Root as-is; no
	// filesystem mutations are required.
	DirectSeed Mode = iota
	// ShadowTree means a symlink tree must be created at Root before
	// the client is invoked.
	ShadowTree
)

// Layout is the planner's decision for one torrent.
type Layout struct {
	Mode Mode
	// Root is the directory the client should be pointed at.
	Root string
	// Links is populated only when Mode == ShadowTree: the symlinks
	// that must exist at Root before seeding, keyed by the declared
	// relative path ("/"-joined) they should appear under.
	Links resolve.Mapping
}

// PlanSingleFile implements spec §4.E's single-file torrent path.
func PlanSingleFile(declaredName, localPath, targetDir, announce string) (*Layout, error) {
	if filepath.Base(localPath) == declaredName {
		return &Layout{Mode: DirectSeed, Root: filepath.Dir(localPath)}, nil
	}

	base, err := perTrackerBaseDir(targetDir, announce)
	if err != nil {
		return nil, err
	}
	return &Layout{
		Mode:  ShadowTree,
		Root:  base,
		Links: resolve.Mapping{declaredName: localPath},
	}, nil
}

// PlanMultiFile implements spec §4.E's multi-file torrent path: for
// every mapped pair it computes a candidate seed root by stripping the
// declared path's components off the local path's tail. If every pair
// agrees on exactly one root, the client seeds directly from it;
// otherwise a shadow tree is required.
func PlanMultiFile(mapping resolve.Mapping, targetDir, announce string) (*Layout, error) {
	roots := make(map[string]bool)
	anyUnresolved := false

	for declared, local := range mapping {
		root, ok := removeCommonSuffix(splitAbs(local), splitRel(declared))
		if !ok {
			anyUnresolved = true
			continue
		}
		roots[root] = true
	}

	if !anyUnresolved && len(roots) == 1 {
		for r := range roots {
			return &Layout{Mode: DirectSeed, Root: r}, nil
		}
	}

	base, err := perTrackerBaseDir(targetDir, announce)
	if err != nil {
		return nil, err
	}
	return &Layout{Mode: ShadowTree, Root: base, Links: mapping}, nil
}

// perTrackerBaseDir computes target_dir/host_component_of(announce), the
// per-tracker shadow-tree namespace (spec §4.E).
func perTrackerBaseDir(targetDir, announce string) (string, error) {
	u, err := url.Parse(announce)
	if err != nil || u.Hostname() == "" {
		return "", &xerrors.URLError{Announce: announce}
	}
	return filepath.Join(targetDir, u.Hostname()), nil
}

// splitAbs splits an absolute local path into its literal "/"-separated
// components, preserving the empty leading component a leading "/"
// produces (spec §9 / §8: this is what makes
// remove_common_suffix("/a/b/c", "/b/c") == None surprising but correct —
// the suffix's own leading "/" is a component that must match too).
func splitAbs(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// splitRel splits a torrent-declared relative path (already "/"-joined
// by resolve.Mapping's keys) into components; it never has a leading
// empty component since it never begins with "/".
func splitRel(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// removeCommonSuffix strips suffix off the trailing end of path,
// component by component. It returns (joined-remaining-prefix, true)
// only if every component of suffix matched and at least one component
// remains; otherwise ("", false). A remaining prefix of a single empty
// component (i.e. just the absolute path's root marker, joining to "")
// is treated as no match: a bare "/" is not a usable seed root.
func removeCommonSuffix(path, suffix []string) (string, bool) {
	if len(suffix) > len(path) {
		return "", false
	}
	n := len(suffix)
	for i := 0; i < n; i++ {
		if path[len(path)-1-i] != suffix[n-1-i] {
			return "", false
		}
	}
	remaining := path[:len(path)-n]
	joined := strings.Join(remaining, "/")
	if joined == "" {
		return "", false
	}
	return joined, true
}
