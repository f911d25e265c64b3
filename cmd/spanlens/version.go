package main

import (
	"fmt"
	"io"
	"runtime"
	rdebug "runtime/debug"

	"github.com/spf13/cobra"
)

// Version is the release version. It is "devel" for builds that aren't releases, in which case the module version
// from the build info is reported instead.
var Version = "devel"

func newVersionCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			printVersion(w, Version)
			if verbose {
				fmt.Fprintln(w)
				fmt.Fprintln(w, "Compiled with Go version:", runtime.Version())
				info, ok := rdebug.ReadBuildInfo()
				printBuildInfo(w, info, ok)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also print the Go version and module dependencies")
	return cmd
}

// version returns a version descriptor and reports whether the version is a known release.
func version(human string) (_ string, known bool) {
	if human != "devel" {
		return human, true
	}
	if v, ok := buildInfoVersion(); ok {
		return v, false
	}
	return "devel", false
}

func printVersion(w io.Writer, human string) {
	human, release := version(human)
	switch {
	case release:
		fmt.Fprintf(w, "spanlens %s\n", human)
	case human == "devel":
		fmt.Fprintln(w, "spanlens (no version)")
	default:
		fmt.Fprintf(w, "spanlens (devel, %s)\n", human)
	}
}

func printBuildInfo(w io.Writer, info *rdebug.BuildInfo, ok bool) {
	if !ok {
		fmt.Fprintln(w, "Built without Go modules")
		return
	}
	fmt.Fprintln(w, "Main module:")
	printModule(w, &info.Main)
	fmt.Fprintln(w, "Dependencies:")
	for _, dep := range info.Deps {
		printModule(w, dep)
	}
}

func buildInfoVersion() (string, bool) {
	info, ok := rdebug.ReadBuildInfo()
	if !ok || info.Main.Version == "(devel)" || info.Main.Version == "" {
		return "", false
	}
	return info.Main.Version, true
}

func printModule(w io.Writer, m *rdebug.Module) {
	fmt.Fprintf(w, "\t%s", m.Path)
	if m.Version != "(devel)" {
		fmt.Fprintf(w, "@%s", m.Version)
	}
	if m.Sum != "" {
		fmt.Fprintf(w, " (sum: %s)", m.Sum)
	}
	if m.Replace != nil {
		fmt.Fprintf(w, " (replace: %s)", m.Replace.Path)
	}
	fmt.Fprintln(w)
}
