package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/crossseed/crossseed/internal/effects"
	"github.com/crossseed/crossseed/internal/verify"
)

var (
	version   string
	buildTime string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and default configuration",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crossseed version: %s\n", version)
		if buildTime != "unknown" {
			fmt.Printf("Build Time:        %s\n", buildTime)
		}
		fmt.Println("Defaults:")
		fmt.Printf("  pieces-to-test: %d\n", verify.DefaultPiecesPerFile)
		fmt.Printf("  client-binary:  %s\n", effects.DefaultClientOptions().Binary)
	},
	DisableFlagsInUseLine: true,
}

// SetVersion records the version/build-time pair the version command
// prints. If v
// is left at its build-time placeholder, the running binary's own
// module version (as recorded by the Go toolchain) is reported instead.
func SetVersion(v, bt string) {
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			v = info.Main.Version
		}
	}
	version = v
	buildTime = bt
}

func init() {
	versionCmd.SetUsageTemplate(`Usage:
  {{.CommandPath}}

Prints version, build time, and the default --pieces-to-test /
--client-binary values crossseed runs with when unset.
`)
}
