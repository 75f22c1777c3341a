// Package report describes the control register layout of a wrapper.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"topgen/internal/config"
	"topgen/internal/wrapper"
)

// Row is one parameter register.
type Row struct {
	Group  string
	Name   string
	Width  int
	Bytes  int
	Offset int
}

// RegisterMap lays the parameters out after the fixed control registers in
// document order.
func RegisterMap(cfg *config.Config) []Row {
	if cfg == nil {
		return nil
	}
	var rows []Row
	offset := wrapper.RegisterBaseOffset
	for _, g := range cfg.Params {
		for _, p := range g.Params {
			n := wrapper.ParamBytes(p.Width)
			rows = append(rows, Row{
				Group:  g.Name,
				Name:   p.Name,
				Width:  p.Width,
				Bytes:  n,
				Offset: offset,
			})
			offset += n
		}
	}
	return rows
}

// WriteTable renders the register map of cfg to w.
func WriteTable(w io.Writer, cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("report: config is nil")
	}
	addrWidth, err := wrapper.ControlAddressWidth(cfg)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s control registers", wrapper.TopName(cfg.Name)))
	t.AppendHeader(table.Row{"Group", "Parameter", "Width", "Bytes", "Offset"})
	for _, r := range RegisterMap(cfg) {
		t.AppendRow(table.Row{r.Group, r.Name, r.Width, r.Bytes, fmt.Sprintf("0x%02x", r.Offset)})
	}
	t.AppendFooter(table.Row{"", "total", "", wrapper.TotalRegisterBytes(cfg), fmt.Sprintf("addr width %d", addrWidth)})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return fmt.Errorf("report: write table: %w", err)
	}
	return nil
}
