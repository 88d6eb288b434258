// Package effects holds the two effect surfaces the seed planner's
// decision must be carried out through (spec §4.F): filesystem mutations
// and the client-add subprocess. Each has a real and a dry-run variant;
// choosing dry-run swaps both atomically (spec §4.F, §9).
package effects

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/afero"
)

// Filesystem is the effect surface the seed planner materializes a
// shadow tree through.
type Filesystem interface {
	CreateDirAll(path string) error
	Symlink(original, link string) error
}

// osFilesystem is the real variant, backed by afero's OS filesystem.
// afero.Fs is used (rather than bare os.* calls) so the same adapter can
// be exercised in tests against afero.NewMemMapFs().
type osFilesystem struct {
	fs afero.Fs
}

// NewFilesystem returns the real, OS-backed Filesystem.
func NewFilesystem() Filesystem {
	return &osFilesystem{fs: afero.NewOsFs()}
}

// newFilesystemWithFs is used by tests to exercise osFilesystem against
// an in-memory afero.Fs.
func newFilesystemWithFs(fs afero.Fs) Filesystem {
	return &osFilesystem{fs: fs}
}

func (o *osFilesystem) CreateDirAll(path string) error {
	if err := o.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", path, err)
	}
	return nil
}

// Symlink creates any missing parent directories, then symlinks via
// afero's optional Symlinker capability (afero.OsFs implements it;
// in-memory filesystems used in tests do not, and report that
// plainly rather than faking a symlink that can't be followed).
func (o *osFilesystem) Symlink(original, link string) error {
	if err := o.fs.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return fmt.Errorf("create parent directory for %q: %w", link, err)
	}
	linker, ok := o.fs.(afero.Symlinker)
	if !ok {
		return fmt.Errorf("filesystem backend does not support symlinks")
	}
	if err := linker.SymlinkIfPossible(original, link); err != nil {
		return fmt.Errorf("symlink %q -> %q: %w", link, original, err)
	}
	return nil
}

// dryRunFilesystem prints the mutation it would have performed and
// returns success, per spec §4.F's dry-run variant.
type dryRunFilesystem struct{}

// NewDryRunFilesystem returns a Filesystem that performs no mutations.
func NewDryRunFilesystem() Filesystem {
	return dryRunFilesystem{}
}

func (dryRunFilesystem) CreateDirAll(path string) error {
	fmt.Printf("%s %s\n", color.GreenString("creating directory"), color.CyanString(path))
	return nil
}

func (dryRunFilesystem) Symlink(original, link string) error {
	fmt.Printf("%s %s %s %s\n",
		color.GreenString("symlinking"), color.CyanString(link),
		color.GreenString("to"), color.CyanString(original))
	return nil
}
