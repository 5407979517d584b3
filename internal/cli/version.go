package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Build stamps, set from main via SetVersionInfo.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print the rtop version and how the binary was built.

Builds without release stamps (go install) report the module version
recorded by the Go toolchain instead of "dev".`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		b := currentBuild()
		if versionShort {
			fmt.Fprintln(cmd.OutOrStdout(), b.Version)
			return
		}
		b.write(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version")
}

// SetVersionInfo records the release stamps passed to main through ldflags.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

// buildInfo describes the running binary.
type buildInfo struct {
	Version  string
	Commit   string
	Date     string
	Go       string
	Platform string
}

func currentBuild() buildInfo {
	return buildInfo{
		Version:  resolveVersion(version, debug.ReadBuildInfo),
		Commit:   commit,
		Date:     date,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// resolveVersion falls back to the module version in the binary when no
// release version was stamped.
func resolveVersion(stamped string, read func() (*debug.BuildInfo, bool)) string {
	if stamped != "" && stamped != "dev" {
		return stamped
	}
	info, ok := read()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// displayVersion adds the "v" prefix to release versions.
func displayVersion(v string) string {
	if v == "" || v == "dev" || v[0] == 'v' {
		return v
	}
	return "v" + v
}

func (b buildInfo) write(w io.Writer) {
	fmt.Fprintf(w, "rtop %s\n", displayVersion(b.Version))
	for _, row := range [][2]string{
		{"commit", b.Commit},
		{"built", b.Date},
		{"go", b.Go},
		{"platform", b.Platform},
	} {
		fmt.Fprintf(w, "  %-9s %s\n", row[0], row[1])
	}
}

// versionString is the one-line form written to the log at startup.
func versionString() string {
	b := currentBuild()
	return fmt.Sprintf("%s (%s, %s)", displayVersion(b.Version), b.Commit, b.Date)
}
