package main

import (
	"io"

	"github.com/spf13/cobra"

	"topgen/internal/config"
	"topgen/internal/diag"
	"topgen/internal/report"
	"topgen/internal/validate"
)

func (a *app) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <config>",
		Short: "Print the control register map of a kernel description.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0])
		},
	}
}

func (a *app) runInspect(stdout, stderr io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := validate.CheckConfig(cfg, diag.NewReporter(stderr, a.logFormat)); err != nil {
		return err
	}
	return report.WriteTable(stdout, cfg)
}
