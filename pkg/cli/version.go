package cli

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/netmock/pkg/cli/internal/output"
)

// Dependencies whose versions decide how settings files are parsed and
// matched. They are reported so two netmock builds can be compared.
var settingsDeps = []string{
	"github.com/bmatcuk/doublestar/v4",
	"github.com/expr-lang/expr",
	"github.com/santhosh-tekuri/jsonschema/v5",
	"gopkg.in/yaml.v3",
}

// BuildInfo describes the running netmock binary.
type BuildInfo struct {
	Version  string            `json:"version"`
	Commit   string            `json:"commit"`
	Dirty    bool              `json:"dirty,omitempty"`
	Date     string            `json:"date"`
	Go       string            `json:"go"`
	Platform string            `json:"platform"`
	Deps     map[string]string `json:"deps,omitempty"`
}

// readBuildInfo merges the linker-injected values with what the toolchain
// embedded. Injected values win.
func readBuildInfo(info *debug.BuildInfo) BuildInfo {
	b := BuildInfo{
		Version:  Version,
		Commit:   Commit,
		Date:     BuildDate,
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info == nil {
		return b
	}

	if b.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "none" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "unknown" {
				b.Date = s.Value
			}
		case "vcs.modified":
			b.Dirty = s.Value == "true"
		}
	}
	for _, dep := range info.Deps {
		for _, want := range settingsDeps {
			if dep.Path != want {
				continue
			}
			if b.Deps == nil {
				b.Deps = make(map[string]string)
			}
			b.Deps[dep.Path] = dep.Version
		}
	}
	return b
}

func (b BuildInfo) write(w io.Writer) {
	v := b.Version
	if v != "dev" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	fmt.Fprintf(w, "netmock %s (%s, %s)\n", v, commit, b.Date)
	fmt.Fprintf(w, "%s %s\n", b.Go, b.Platform)
	for _, dep := range settingsDeps {
		if ver, ok := b.Deps[dep]; ok {
			fmt.Fprintf(w, "  %s %s\n", dep, ver)
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show netmock version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, _ := debug.ReadBuildInfo()
		b := readBuildInfo(info)
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), b)
		}
		b.write(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
