package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/crossseed/crossseed/internal/display"
	"github.com/crossseed/crossseed/internal/effects"
	"github.com/crossseed/crossseed/internal/index"
	"github.com/crossseed/crossseed/internal/metainfo"
	"github.com/crossseed/crossseed/internal/plan"
	"github.com/crossseed/crossseed/internal/resolve"
	"github.com/crossseed/crossseed/internal/verify"
	"github.com/crossseed/crossseed/internal/xerrors"
)

// seedOptions encapsulates all the flags for the root command.
type seedOptions struct {
	SourceDirs   []string
	TargetDir    string
	DryRun       bool
	SkipAdd      bool
	PiecesToTest int
	ClientBinary string
	Quiet        bool
}

var seedOpts seedOptions

var rootCmd = &cobra.Command{
	Use:   "crossseed <torrent-file>...",
	Short: "Match existing downloads against new torrent files for cross-seeding",
	Long: `crossseed resolves one or more torrent metainfo files against a set of
indexed source directories, verifies a sample of pieces against the local
content, plans a seed-ready directory layout (seeding directly or building
a symlink shadow tree), and hands the result to a torrent client.`,
	Args:                       cobra.MinimumNArgs(1),
	RunE:                       runSeed,
	DisableFlagsInUseLine:      true,
	SuggestionsMinimumDistance: 1,
	SilenceUsage:               true,
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringArrayVar(&seedOpts.SourceDirs, "source-dir", nil, "directory to index for candidate files (repeatable)")
	rootCmd.Flags().StringVar(&seedOpts.TargetDir, "target-dir", "", "base directory for per-tracker shadow trees")
	rootCmd.Flags().BoolVar(&seedOpts.DryRun, "dry-run", false, "print the actions that would be taken without performing them")
	rootCmd.Flags().BoolVar(&seedOpts.SkipAdd, "skip-add", false, "plan and materialize the seed layout but never invoke the torrent client")
	rootCmd.Flags().IntVar(&seedOpts.PiecesToTest, "pieces-to-test", verify.DefaultPiecesPerFile, "number of covering pieces sampled per file")
	rootCmd.Flags().StringVar(&seedOpts.ClientBinary, "client-binary", effects.DefaultClientOptions().Binary, "torrent client binary to invoke for adding")
	rootCmd.Flags().BoolVar(&seedOpts.Quiet, "quiet", false, "reduced console output")
	_ = rootCmd.MarkFlagRequired("target-dir")
	_ = rootCmd.MarkFlagRequired("source-dir")

	rootCmd.SetUsageTemplate(`Usage:
  {{.CommandPath}} <torrent-file>... [flags]

Arguments:
  torrent-file   One or more paths to .torrent metainfo files

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
`)
}

func Execute() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
	return rootCmd.Execute()
}

// runSeed is the per-invocation control loop (spec §2, §5, §7): the
// source index is built once, then every torrent argument runs the
// decode → resolve → verify → plan → apply pipeline independently. A
// failure anywhere in one torrent's pipeline is reported and the loop
// continues with the next torrent. Per-torrent failures never become a
// process error: the exit code reflects only whether the invocation
// itself (argument parsing) was well-formed, per spec §6.
func runSeed(cmd *cobra.Command, args []string) error {
	dsp := display.New()
	dsp.SetQuiet(seedOpts.Quiet)

	sizeIdx, err := index.Build(seedOpts.SourceDirs, indexSpinner{bar: dsp.NewIndexSpinner()})
	if err != nil {
		dsp.Failure("indexing source directories: %v", err)
	}

	fs := effects.NewFilesystem()
	client := effects.NewClient(effects.ClientOptions{
		Binary:     seedOpts.ClientBinary,
		PausedFlag: effects.DefaultClientOptions().PausedFlag,
		DirFlag:    effects.DefaultClientOptions().DirFlag,
	})
	if seedOpts.DryRun {
		fs = effects.NewDryRunFilesystem()
		client = effects.NewDryRunClient()
	}

	failures := 0
	for _, torrentPath := range args {
		dsp.Announce(torrentPath)
		totalBytes, err := seedOne(torrentPath, sizeIdx, fs, client, dsp)
		if err != nil {
			failures++
			dsp.Failure("%s: %v", torrentPath, err)
			continue
		}
		dsp.SuccessWithSize(torrentPath, totalBytes)
	}

	if failures > 0 {
		dsp.Failure("%d of %d torrent(s) failed", failures, len(args))
	}
	return nil
}

// seedOne runs one torrent's pipeline and reports the torrent's total
// declared byte size on success, for the caller's console summary.
func seedOne(torrentPath string, sizeIdx index.SizeIndex, fs effects.Filesystem, client effects.Client, dsp *display.Display) (int64, error) {
	t, err := metainfo.DecodeFile(torrentPath)
	if err != nil {
		return 0, &xerrors.DecodeError{Path: torrentPath, Err: err}
	}
	totalBytes := totalDeclaredBytes(&t.Info)

	mapping, err := resolve.Resolve(t.Info.Files, sizeIdx)
	if err != nil {
		return 0, err
	}

	bar := dsp.NewVerifyBar(totalCoveredPieces(&t.Info, seedOpts.PiecesToTest))
	result, err := verify.Verify(&t.Info, mapping, verify.Options{PiecesPerFile: seedOpts.PiecesToTest, Seed: time.Now().UnixNano()})
	_ = bar.Finish()
	if err != nil {
		return 0, &xerrors.IOError{Err: err}
	}
	if result.Failed() {
		return 0, &xerrors.HashMismatchError{Paths: result.SortedFailedPaths()}
	}

	var layout *plan.Layout
	if t.Info.IsSingleFile {
		declared := t.Info.Files[0]
		layout, err = plan.PlanSingleFile(t.Info.Name, mapping[declared.RelPath()], seedOpts.TargetDir, t.Announce)
	} else {
		layout, err = plan.PlanMultiFile(mapping, seedOpts.TargetDir, t.Announce)
	}
	if err != nil {
		return 0, err
	}

	if layout.Mode == plan.ShadowTree {
		if err := fs.CreateDirAll(layout.Root); err != nil {
			return 0, &xerrors.IOError{Err: err}
		}
		for declared, local := range layout.Links {
			linkPath := layout.Root + "/" + declared
			if err := fs.Symlink(local, linkPath); err != nil {
				return 0, &xerrors.IOError{Err: err}
			}
		}
	}

	if seedOpts.SkipAdd {
		return totalBytes, nil
	}
	return totalBytes, client.AddTorrent(torrentPath, layout.Root)
}

// totalDeclaredBytes sums the torrent's declared file lengths.
func totalDeclaredBytes(info *metainfo.Info) int64 {
	var total int64
	for _, f := range info.Files {
		total += f.Length
	}
	return total
}

// totalCoveredPieces estimates the progress bar's total: the number of
// distinct piece indices sampling can select, an upper bound of
// len(files)*piecesPerFile collapsed to the actual piece count.
func totalCoveredPieces(info *metainfo.Info, piecesPerFile int) int {
	total := len(info.Files) * piecesPerFile
	if total > len(info.Pieces) {
		total = len(info.Pieces)
	}
	return total
}

// indexSpinner adapts a progressbar.ProgressBar to index.Spinner.
type indexSpinner struct {
	bar interface {
		Add(int) error
		Finish() error
	}
}

func (s indexSpinner) Tick(string) { _ = s.bar.Add(1) }
func (s indexSpinner) Finish()     { _ = s.bar.Finish() }
