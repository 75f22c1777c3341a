package backend

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"topgen/internal/ir"
	"topgen/internal/verilog"
)

// Options configures how the wrapper is written to disk.
type Options struct {
	// Force allows an existing output file to be replaced.
	Force bool
	// DumpIRPath writes a readable dump of the design to the provided path
	// when non-empty.
	DumpIRPath string
}

// Result lists the artifacts produced during Verilog emission.
type Result struct {
	MainPath string
	IRPath   string
}

// EmitVerilog renders the design and writes it verbatim to outputPath. The
// file is only touched once rendering has fully succeeded, so a failure
// never leaves partial output behind.
func EmitVerilog(design *ir.Design, outputPath string, opts Options) (Result, error) {
	if design == nil {
		return Result{}, fmt.Errorf("backend: design is nil")
	}
	if outputPath == "" || outputPath == "-" {
		return Result{}, fmt.Errorf("backend: verilog emission requires an output file path")
	}

	text, err := verilog.Render(design)
	if err != nil {
		return Result{}, fmt.Errorf("backend: render verilog: %w", err)
	}

	if !opts.Force {
		if _, err := os.Stat(outputPath); err == nil {
			return Result{}, fmt.Errorf("backend: %s already exists; use -f to overwrite", outputPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("backend: stat output: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Result{}, fmt.Errorf("backend: create verilog output dir: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(text), 0o644); err != nil {
		return Result{}, fmt.Errorf("backend: write verilog output: %w", err)
	}

	res := Result{MainPath: outputPath}
	if opts.DumpIRPath != "" {
		if err := DumpIR(design, opts.DumpIRPath); err != nil {
			return res, err
		}
		res.IRPath = opts.DumpIRPath
	}
	return res, nil
}

// DumpIR writes a readable dump of design to path, creating parent
// directories as needed.
func DumpIR(design *ir.Design, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("backend: create ir dump dir: %w", err)
	}
	var buf bytes.Buffer
	ir.Dump(design, &buf)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("backend: write ir dump: %w", err)
	}
	return nil
}
