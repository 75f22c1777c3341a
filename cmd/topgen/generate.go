package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"topgen/internal/backend"
	"topgen/internal/ir"
	"topgen/internal/verilog"
	"topgen/internal/wrapper"
)

type generateOptions struct {
	output string
	force  bool
	emit   string
	dumpIR string
}

func (a *app) newGenerateCmd() *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate <config>",
		Short: "Emit the {name}_top wrapper for a kernel description.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGenerate(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.output, "output", "o", "", "output file path ({name}_top.v when omitted, - for stdout)")
	flags.BoolVarP(&opts.force, "force", "f", false, "overwrite an existing output file")
	flags.StringVar(&opts.emit, "emit", "verilog", "output format (verilog|ir)")
	flags.StringVar(&opts.dumpIR, "dump-ir", "", "path to dump the IR of the wrapper (optional)")
	return cmd
}

func (a *app) runGenerate(stdout, stderr io.Writer, path string, opts generateOptions) error {
	cfg, design, err := a.buildDesign(stderr, path)
	if err != nil {
		return err
	}

	switch opts.emit {
	case "ir":
		return withOutputWriter(stdout, opts.output, opts.force, func(w io.Writer) error {
			ir.Dump(design, w)
			return nil
		})
	case "verilog":
		if opts.output == "-" {
			text, err := verilog.Render(design)
			if err != nil {
				return err
			}
			if opts.dumpIR != "" {
				if err := backend.DumpIR(design, opts.dumpIR); err != nil {
					return err
				}
			}
			_, err = io.WriteString(stdout, text)
			return err
		}
		output := opts.output
		if output == "" {
			output = wrapper.TopName(cfg.Name) + ".v"
		}
		res, err := emitVerilog(design, output, backend.Options{
			Force:      opts.force,
			DumpIRPath: opts.dumpIR,
		})
		if err != nil {
			return err
		}
		a.logger.Info("wrapper written", "top", design.TopLevel.Name, "path", res.MainPath)
		if res.IRPath != "" {
			a.logger.Info("ir dumped", "path", res.IRPath)
		}
		return nil
	default:
		return fmt.Errorf("unknown emit format: %s", opts.emit)
	}
}
