package pnl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/dgoubkine/pnl/expr"
)

// Config is the run configuration file. Everything a run needs that does
// not live in the deal store: calendar choice, worker count, and the
// per-facility settings.
type Config struct {
	Calendar string `yaml:"calendar"`
	Workers  int    `yaml:"workers"`
	Strict   bool   `yaml:"strict"`

	Facilities map[string]FacilityConfig `yaml:"facilities"`
}

// FacilityConfig carries per-facility settings.
type FacilityConfig struct {
	// SpreadMultiplier is an arithmetic expression evaluated at load time,
	// e.g. "0.08 * 0.005".
	SpreadMultiplier string `yaml:"spread_multiplier"`

	// Fields are named report expressions evaluated over the deal's figures,
	// e.g. utilization: "advances_outstanding / commitment".
	Fields map[string]string `yaml:"fields"`
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return c, nil
}

// Multipliers evaluates every facility's spread multiplier expression.
// Facilities without one are simply absent from the result.
func (c Config) Multipliers() (map[string]float64, error) {
	out := make(map[string]float64, len(c.Facilities))
	for facility, fc := range c.Facilities {
		if fc.SpreadMultiplier == "" {
			continue
		}
		v, err := expr.Eval(fc.SpreadMultiplier, nil)
		if err != nil {
			return nil, fmt.Errorf("facility %s spread_multiplier: %w", facility, err)
		}
		out[facility] = v
	}
	return out, nil
}

// ReportFields evaluates the facility's report expressions over vars,
// typically the namespace from FieldVars.
func (c Config) ReportFields(facility string, vars map[string]float64) (map[string]float64, error) {
	fc, ok := c.Facilities[facility]
	if !ok || len(fc.Fields) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(fc.Fields))
	for name, src := range fc.Fields {
		v, err := expr.Eval(src, vars)
		if err != nil {
			return nil, fmt.Errorf("facility %s field %s: %w", facility, name, err)
		}
		out[name] = v
	}
	return out, nil
}

// FieldVars is the variable namespace report expressions are evaluated
// over. It is fixed: expressions can reference these names and nothing
// else.
func FieldVars(d DealTerms, b Balances, premium float64) map[string]float64 {
	return map[string]float64{
		"commitment":             d.Commitment,
		"advances_outstanding":   d.AdvancesOutstanding,
		"drawn":                  b.Drawn,
		"unused":                 b.Unused,
		"term_years":             float64(d.TermYears),
		"wal_years":              d.WALYears,
		"min_utilization_amount": d.MinUtilizationAmount,
		"margin":                 d.Margin,
		"unused_fee":             d.UnusedFee,
		"funding_premium":        premium,
	}
}
