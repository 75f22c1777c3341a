package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"topgen/internal/backend"
	"topgen/internal/config"
	"topgen/internal/diag"
	"topgen/internal/ir"
	"topgen/internal/passes"
	"topgen/internal/wrapper"
)

var emitVerilog = backend.EmitVerilog

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

// app carries the global flags and the logger shared by every subcommand.
type app struct {
	logLevel  string
	logFormat string
	logFile   string

	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	root := &cobra.Command{
		Use:   "topgen",
		Short: "Generate Verilog top-level wrappers for streaming kernels.",
		Long: "topgen reads a kernel description (clock domains, control " +
			"parameters and AXI4-Stream buses) and emits the {name}_top " +
			"wrapper that binds the kernel to its AXI-Lite control block.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogging(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	flags.StringVar(&a.logFormat, "log-format", "text", "log and diagnostic format (text|json)")
	flags.StringVar(&a.logFile, "log-file", "", "append logs to this file instead of stderr")

	root.AddCommand(a.newGenerateCmd(), a.newInspectCmd(), a.newSimCmd())
	return root
}

// setupLogging resolves flag values against TOPGEN_* variables (optionally
// loaded from .env) and installs the run logger. Explicit flags win.
func (a *app) setupLogging(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if v := os.Getenv("TOPGEN_LOG_LEVEL"); v != "" && !cmd.Flags().Changed("log-level") {
		a.logLevel = v
	}
	if v := os.Getenv("TOPGEN_LOG_FORMAT"); v != "" && !cmd.Flags().Changed("log-format") {
		a.logFormat = v
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", a.logLevel)
	}

	w := cmd.ErrOrStderr()
	if a.logFile != "" {
		f, err := os.OpenFile(a.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		atexit.Register(func() { f.Close() })
		w = f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch a.logFormat {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf("unknown log format: %s", a.logFormat)
	}
	a.logger = slog.New(handler).With("run_id", xid.New().String(), "cmd", cmd.Name())
	return nil
}

// buildDesign loads, validates and assembles the wrapper for the
// description at path, then runs the IR checks over it.
func (a *app) buildDesign(stderr io.Writer, path string) (*config.Config, *ir.Design, error) {
	reporter := diag.NewReporter(stderr, a.logFormat)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("loaded description", "path", path, "kernel", cfg.Name,
		"clocks", cfg.Clocks, "unroll", cfg.Unroll, "buses", len(cfg.Buses))

	design, err := wrapper.Build(cfg, reporter)
	if err != nil {
		return nil, nil, err
	}
	if err := runDefaultPasses(design, reporter); err != nil {
		return nil, nil, err
	}
	return cfg, design, nil
}

func runDefaultPasses(design *ir.Design, reporter *diag.Reporter) error {
	passMgr := passes.NewManager()
	passMgr.Add(passes.NewNetCheck(reporter))
	if err := passMgr.Run(design); err != nil {
		return err
	}
	if reporter != nil && reporter.HasErrors() {
		return fmt.Errorf("analysis passes reported errors")
	}
	return nil
}

// withOutputWriter runs fn against stdout or the file at path. An existing
// file is only replaced when force is set.
func withOutputWriter(stdout io.Writer, path string, force bool, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(stdout)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s already exists; use -f to overwrite", path)
	}
	if err != nil {
		return err
	}
	err = fn(f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	return err
}
