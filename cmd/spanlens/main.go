// Command spanlens shows transaction traces and profiles in the terminal, renders them to PNG, and prints their
// structure.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spanlens/spanlens/config"
	"github.com/spanlens/spanlens/logger"

	"github.com/spf13/cobra"
)

// app is the state shared by all commands.
type app struct {
	cfg *config.Config
	// appPackages are the import path prefixes of application code in pprof profiles.
	appPackages []string
	// ops restricts span trees to the listed ops.
	ops   []string
	quiet bool

	stdout, stderr io.Writer
	log            *slog.Logger
	closeLog       func() error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "spanlens",
		Short:         "Explore transaction traces and profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// The TUI owns the terminal, so it only logs to a file.
			fallback := a.stderr
			if cmd.Name() == "view" {
				fallback = io.Discard
			}
			return a.setup(fallback)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeLog != nil {
				return a.closeLog()
			}
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	fs := root.PersistentFlags()
	a.cfg.RegisterFlags(fs)
	fs.StringSliceVar(&a.appPackages, "app-package", nil, "import path prefix of application code in pprof profiles")
	fs.StringSliceVar(&a.ops, "op", nil, "only show spans with this op")
	fs.BoolVarP(&a.quiet, "quiet", "q", false, "disable the progress spinner")

	root.AddCommand(newViewCmd(a))
	root.AddCommand(newPNGCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// setup validates the configuration and creates the logger. Logs go to the configured file, or to fallback.
func (a *app) setup(fallback io.Writer) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	log, closer, err := logger.Setup(a.cfg.LogLevel, a.cfg.LogFile, fallback)
	if err != nil {
		return err
	}
	a.log = log
	a.closeLog = closer
	slog.SetDefault(log)
	return nil
}

func main() {
	cfg, err := config.Load(config.ConstantEnvFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	a := &app{cfg: cfg, stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
