package main

import (
	"github.com/spanlens/spanlens/tui"

	"github.com/spf13/cobra"
)

func newViewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "view FILE",
		Short: "Explore a trace or profile interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.load(args[0])
			if err != nil {
				return err
			}
			return tui.Run(doc, a.cfg, tui.Options{Log: a.log, Ops: a.opSet()})
		},
	}
}
