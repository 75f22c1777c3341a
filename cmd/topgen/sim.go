package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/spf13/cobra"

	"topgen/internal/rtlsim"
	"topgen/internal/wrapper"
)

type simOptions struct {
	cycles      int
	resetCycles int
	startCycle  int
	latency     int
	freqMHz     float64
	expectPath  string
}

func (a *app) newSimCmd() *cobra.Command {
	var opts simOptions
	cmd := &cobra.Command{
		Use:   "sim <config>",
		Short: "Simulate the wrapper handshake against a fixed-latency kernel.",
		Long: "sim builds the wrapper and steps its clocked logic. Reset is held " +
			"for --reset-cycles edges, ap_start is raised at --start-cycle and " +
			"kept high, and the kernel reports done --latency edges later. One " +
			"trace line is printed per ap_clk edge.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSim(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.cycles, "sim-max-cycles", 10, "number of ap_clk edges to simulate")
	flags.IntVar(&opts.resetCycles, "sim-reset-cycles", 2, "number of initial edges with ap_rst_n held low")
	flags.IntVar(&opts.startCycle, "start-cycle", 4, "edge at which ap_start is raised")
	flags.IntVar(&opts.latency, "latency", 3, "edges between start and the kernel's done pulse")
	flags.Float64Var(&opts.freqMHz, "freq", 1000, "frequency of every clock domain in MHz")
	flags.StringVar(&opts.expectPath, "expect", "", "path to file containing the expected trace (defaults to expected.sim next to the config)")
	return cmd
}

func (a *app) runSim(stdout, stderr io.Writer, path string, opts simOptions) error {
	if opts.cycles <= 0 {
		return fmt.Errorf("sim requires --sim-max-cycles > 0 (got %d)", opts.cycles)
	}
	if opts.resetCycles < 0 {
		return fmt.Errorf("sim requires --sim-reset-cycles >= 0 (got %d)", opts.resetCycles)
	}
	if opts.latency < 1 {
		return fmt.Errorf("sim requires --latency >= 1 (got %d)", opts.latency)
	}
	if opts.freqMHz <= 0 {
		return fmt.Errorf("sim requires --freq > 0 (got %g)", opts.freqMHz)
	}

	cfg, design, err := a.buildDesign(stderr, path)
	if err != nil {
		return err
	}

	var simOpts []rtlsim.Option
	for d := 1; d <= cfg.Clocks; d++ {
		simOpts = append(simOpts, rtlsim.WithClock(wrapper.ClockName(d), sim.Freq(opts.freqMHz)*sim.MHz))
	}
	s, err := rtlsim.New(design.TopLevel, simOpts...)
	if err != nil {
		return err
	}

	var trace bytes.Buffer
	var stimErr error
	stimulus := func(edge uint64) {
		if err := applyStimulus(s, cfg.Clocks, opts, edge); err != nil && stimErr == nil {
			stimErr = fmt.Errorf("edge %d: %w", edge, err)
		}
	}
	observe := func(edge uint64) {
		fmt.Fprintf(&trace, "cycle=%d", edge)
		for _, name := range []string{wrapper.ResetName(1), "ap_start", "ap_idle", "ap_done"} {
			v, _ := s.Value(name)
			fmt.Fprintf(&trace, " %s=%d", name, v)
		}
		trace.WriteByte('\n')
	}
	clk := wrapper.ClockName(1)
	if err := s.OnEdge(clk, stimulus); err != nil {
		return err
	}
	if err := s.AfterEdge(clk, observe); err != nil {
		return err
	}

	if err := s.Run(uint64(opts.cycles)); err != nil {
		return err
	}
	if stimErr != nil {
		return fmt.Errorf("sim stimulus: %w", stimErr)
	}
	a.logger.Info("simulation finished", "top", design.TopLevel.Name,
		"edges", s.Edges(clk), "sim_time", float64(s.Now()))

	if _, err := stdout.Write(trace.Bytes()); err != nil {
		return err
	}

	expectPath := opts.expectPath
	if expectPath == "" {
		expectPath = defaultSimExpectPath(path)
	}
	if expectPath != "" {
		if err := compareSimulatorOutput(expectPath, trace.Bytes()); err != nil {
			return err
		}
		a.logger.Info("trace matches", "expect", expectPath)
	}
	return nil
}

type netDriver interface {
	Drive(name string, value uint64) error
}

// applyStimulus drives reset, ap_start and the kernel's done pulse for one
// ap_clk edge. It stops at the first net that cannot be driven.
func applyStimulus(d netDriver, clocks int, opts simOptions, edge uint64) error {
	e := int(edge)
	rstN := boolBit(e > opts.resetCycles)
	for c := 1; c <= clocks; c++ {
		if err := d.Drive(wrapper.ResetInName(c), rstN); err != nil {
			return err
		}
	}
	if err := d.Drive("ap_start", boolBit(e >= opts.startCycle)); err != nil {
		return err
	}
	return d.Drive("ap_done_w", boolBit(e == opts.startCycle+opts.latency))
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// defaultSimExpectPath returns expected.sim next to the description when it
// exists.
func defaultSimExpectPath(configPath string) string {
	candidate := filepath.Join(filepath.Dir(configPath), "expected.sim")
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return ""
}

func compareSimulatorOutput(expectPath string, got []byte) error {
	want, err := os.ReadFile(expectPath)
	if err != nil {
		return fmt.Errorf("read expect file: %w", err)
	}
	if !bytes.Equal(bytes.TrimSpace(got), bytes.TrimSpace(want)) {
		return fmt.Errorf("simulator output mismatch\nexpected:\n%s\nactual:\n%s", string(want), string(got))
	}
	return nil
}
