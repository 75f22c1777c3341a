package validate

import (
	"fmt"

	"topgen/internal/config"
	"topgen/internal/diag"
)

// CheckConfig validates that the description only uses features the wrapper
// topology supports. Every streaming-bus violation is reported before the
// check fails, so the caller sees all offending buses at once.
func CheckConfig(cfg *config.Config, reporter *diag.Reporter) error {
	if cfg == nil {
		return fmt.Errorf("no configuration provided for validation")
	}

	c := &checker{reporter: reporter}
	c.checkBuses(cfg.Buses)
	c.checkParams(cfg.Params)
	if len(c.badBuses) > 0 {
		return &config.ConfigurationError{
			Reason: "only streaming AXI buses are supported",
			Buses:  c.badBuses,
		}
	}
	return nil
}

type checker struct {
	reporter *diag.Reporter
	badBuses []string
}

func (c *checker) checkBuses(buses []config.Bus) {
	for _, bus := range buses {
		if bus.IsStreaming() {
			continue
		}
		c.reporter.Errorf("bus %s: kind %q is not a streaming bus (want saxis or maxis)", bus.Name, bus.Kind)
		c.badBuses = append(c.badBuses, bus.Name)
	}
}

// checkParams flags widths that are not a whole number of bytes. The
// register space is rounded up for them, which may not match the layout the
// control block expects. A width below one is still emitted, as a scalar wire.
func (c *checker) checkParams(groups []config.ParamGroup) {
	for _, group := range groups {
		for _, p := range group.Params {
			if p.Width < 1 {
				c.reporter.Warnf("param %s.%s: width %d is not positive; declared as a single bit",
					group.Name, p.Name, p.Width)
				continue
			}
			if p.Width%8 != 0 {
				c.reporter.Warnf("param %s.%s: width %d is not byte aligned; reserving %d byte(s)",
					group.Name, p.Name, p.Width, (p.Width+7)/8)
			}
		}
	}
}
