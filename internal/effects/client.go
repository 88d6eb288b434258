package effects

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/fatih/color"

	"github.com/crossseed/crossseed/internal/xerrors"
)

// Client is the effect surface the seed planner's output is finally
// handed to: add the torrent, paused, pointed at the seed directory.
type Client interface {
	AddTorrent(metainfoPath, seedDir string) error
}

// ClientOptions configures the real client adapter's subprocess
// invocation. Defaults reproduce the Synapse ("sycli") invocation the
// original cross-seed prototype hardcoded
// (original_source/src/client/mod.rs); any client exposing an add verb,
// a paused flag, and a data-directory flag can be substituted.
type ClientOptions struct {
	Binary     string
	PausedFlag string
	DirFlag    string
}

// DefaultClientOptions returns the Synapse-compatible defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{Binary: "sycli", PausedFlag: "-P", DirFlag: "-d"}
}

type realClient struct {
	opts ClientOptions
}

// NewClient returns the real variant, which shells out to opts.Binary.
func NewClient(opts ClientOptions) Client {
	return &realClient{opts: opts}
}

func (c *realClient) AddTorrent(metainfoPath, seedDir string) error {
	cmd := exec.Command(c.opts.Binary, "add", c.opts.PausedFlag, c.opts.DirFlag, seedDir, metainfoPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.ExitCode() < 0 {
			err = fmt.Errorf("%s terminated by signal: %w", c.opts.Binary, err)
		} else {
			err = fmt.Errorf("%s exited with code %d: %w", c.opts.Binary, exitErr.ExitCode(), err)
		}
	} else {
		err = fmt.Errorf("run %s: %w", c.opts.Binary, err)
	}

	fmt.Fprintf(os.Stderr, "failed to add %s from %s\n", metainfoPath, seedDir)
	os.Stdout.Write(stdout.Bytes())
	os.Stderr.Write(stderr.Bytes())

	return &xerrors.ClientError{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// dryRunClient prints the invocation it would have made, per spec §4.F.
type dryRunClient struct{}

// NewDryRunClient returns a Client that never shells out.
func NewDryRunClient() Client {
	return dryRunClient{}
}

func (dryRunClient) AddTorrent(metainfoPath, seedDir string) error {
	fmt.Printf("%s %s %s %s\n",
		color.GreenString("seeding"), color.CyanString(metainfoPath),
		color.GreenString("from"), color.CyanString(seedDir))
	return nil
}
