// Package display renders cross-seed progress and results to the
// console, following the teacher's Display/Formatter split: colored
// status lines via fatih/color, and bar/spinner feedback via
// schollz/progressbar/v3 (the Go-side equivalent of the original
// prototype's indicatif spinner/bar — original_source/src/util/progress.rs).
package display

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// Display is the single console sink for one invocation.
type Display struct {
	quiet bool
}

// New creates a Display in normal (non-quiet) mode.
func New() *Display { return &Display{} }

// SetQuiet toggles reduced output mode.
func (d *Display) SetQuiet(q bool) { d.quiet = q }

// Info prints an informational line, suppressed in quiet mode.
func (d *Display) Info(format string, args ...any) {
	if d.quiet {
		return
	}
	fmt.Printf(format+"\n", args...)
}

// Announce prints the "Processing: <torrent>" banner shown once per
// torrent before its pipeline runs.
func (d *Display) Announce(torrentPath string) {
	if d.quiet {
		return
	}
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("\n%s %s\n", green("Processing:"), cyan(torrentPath))
}

// Success prints a green-highlighted completion line.
func (d *Display) Success(format string, args ...any) {
	if d.quiet {
		return
	}
	fmt.Println(color.GreenString(format, args...))
}

// SuccessWithSize prints a green-highlighted completion line that
// includes a human-readable rendering of totalBytes, the way mkbrr's
// Display formats torrent sizes for the console.
func (d *Display) SuccessWithSize(torrentPath string, totalBytes int64) {
	if d.quiet {
		return
	}
	fmt.Println(color.GreenString("%s: ready to seed (%s)", torrentPath, humanize.Bytes(uint64(totalBytes))))
}

// Failure prints a red-highlighted failure line to stderr. Unlike Info
// and Success this is never suppressed — per-torrent failures must
// always reach the operator (spec §7).
func (d *Display) Failure(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.RedString(format, args...))
}

// NewIndexSpinner returns an indeterminate progress indicator driven
// during the source-directory walk (spec §4.B). It is purely
// observational.
func (d *Display) NewIndexSpinner() *progressbar.ProgressBar {
	if d.quiet {
		return progressbar.DefaultSilent(-1)
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString("Indexing source directories")),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionThrottle(65*time.Millisecond),
	)
}

// NewVerifyBar returns a determinate progress bar over total sampled
// pieces for the piece verifier (spec §4.D).
func (d *Display) NewVerifyBar(total int) *progressbar.ProgressBar {
	if d.quiet {
		return progressbar.DefaultSilent(int64(total))
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.CyanString("Verifying pieces")),
		progressbar.OptionSetItsString("piece"),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	)
}
