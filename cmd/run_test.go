package cmd

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/calendar"
	"github.com/dgoubkine/pnl/date"
)

func TestRunCmdOptionsDefaults(t *testing.T) {
	var c runCmd
	opts, err := c.options(pnl.Config{})
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	if opts.Calendar != "" {
		t.Errorf("Calendar = %q want empty, the runner picks the default", opts.Calendar)
	}
	if opts.Workers != 0 || opts.Strict {
		t.Errorf("Workers, Strict = %d, %v want 0, false", opts.Workers, opts.Strict)
	}
	if !opts.Start.IsZero() || !opts.End.IsZero() {
		t.Errorf("Start, End = %v, %v want zero", opts.Start, opts.End)
	}
}

func TestRunCmdOptionsFromConfig(t *testing.T) {
	cfg := pnl.Config{
		Calendar: "FRB",
		Workers:  4,
		Strict:   true,
		Facilities: map[string]pnl.FacilityConfig{
			"G9930": {SpreadMultiplier: "0.08 * 0.005"},
		},
	}

	var c runCmd
	opts, err := c.options(cfg)
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	if opts.Calendar != calendar.FederalReserve {
		t.Errorf("Calendar = %q want %q", opts.Calendar, calendar.FederalReserve)
	}
	if opts.Workers != 4 || !opts.Strict {
		t.Errorf("Workers, Strict = %d, %v want 4, true", opts.Workers, opts.Strict)
	}
	if m := opts.Multipliers["G9930"]; math.Abs(m-0.0004) > 1e-12 {
		t.Errorf("Multipliers[G9930] = %v want 0.0004", m)
	}
}

func TestRunCmdOptionsFlagsWin(t *testing.T) {
	cfg := pnl.Config{Calendar: "FRB", Workers: 4}
	c := runCmd{
		start:   "2025-08-06",
		end:     "2025-08-08",
		cal:     "nyse",
		workers: 2,
	}

	opts, err := c.options(cfg)
	if err != nil {
		t.Fatalf("options() error: %v", err)
	}
	if opts.Calendar != calendar.NYSE {
		t.Errorf("Calendar = %q want %q", opts.Calendar, calendar.NYSE)
	}
	if opts.Workers != 2 {
		t.Errorf("Workers = %d want 2", opts.Workers)
	}
	if opts.Start != date.New(2025, time.August, 6) || opts.End != date.New(2025, time.August, 8) {
		t.Errorf("period = %v..%v", opts.Start, opts.End)
	}
}

func TestRunCmdOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  runCmd
		cfg  pnl.Config
		want string
	}{
		{"bad calendar", runCmd{cal: "LSE"}, pnl.Config{}, "unknown calendar"},
		{"bad start", runCmd{start: "last monday"}, pnl.Config{}, "parsing -start"},
		{"bad end", runCmd{end: "2025-13-01"}, pnl.Config{}, "parsing -end"},
		{
			"bad multiplier",
			runCmd{},
			pnl.Config{Facilities: map[string]pnl.FacilityConfig{"G1": {SpreadMultiplier: "0.08 *"}}},
			"spread_multiplier",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.cmd.options(tc.cfg)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("options() error = %v, want it to mention %q", err, tc.want)
			}
		})
	}
}
