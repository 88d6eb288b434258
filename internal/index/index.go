// Package index walks source directories and groups regular files by
// byte length, producing the SizeIndex the candidate resolver narrows
// its search with.
package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// SizeIndex maps a file length to the absolute paths of every regular
// file of that length discovered under the configured source
// directories. Built once per invocation, read-only thereafter.
type SizeIndex map[int64][]string

// Spinner is driven during the walk; it is purely observational and
// must never influence the resulting SizeIndex.
type Spinner interface {
	Tick(path string)
	Finish()
}

// noopSpinner satisfies Spinner when the caller doesn't want progress
// feedback (e.g. quiet mode, or unit tests).
type noopSpinner struct{}

func (noopSpinner) Tick(string) {}
func (noopSpinner) Finish()     {}

// NoopSpinner is a Spinner that does nothing.
var NoopSpinner Spinner = noopSpinner{}

// Build recursively walks each source directory, admitting only regular
// files; directories are descended, symbolic links are skipped (a known
// limitation — see spec §9). Non-fatal stat/walk errors on individual
// entries are collected into the returned error (via go-multierror) but
// do not stop the walk; callers should log and continue rather than
// abort on it.
func Build(sourceDirs []string, spinner Spinner) (SizeIndex, error) {
	if spinner == nil {
		spinner = NoopSpinner
	}

	idx := make(SizeIndex)
	var errs *multierror.Error

	for _, dir := range sourceDirs {
		walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("walk %q: %w", path, err))
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if d.Type()&os.ModeSymlink != 0 {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("stat %q: %w", path, err))
				return nil
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("resolve absolute path for %q: %w", path, err))
				return nil
			}

			idx[info.Size()] = append(idx[info.Size()], abs)
			spinner.Tick(abs)
			return nil
		})
		if walkErr != nil {
			errs = multierror.Append(errs, fmt.Errorf("walk source directory %q: %w", dir, walkErr))
		}
	}

	spinner.Finish()
	return idx, errs.ErrorOrNil()
}
