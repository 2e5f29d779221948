// Package sofr fetches SOFR reference rates from the New York Fed
// markets API.
package sofr

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"go.uber.org/zap"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/date"
)

// DefaultBaseURL is the public New York Fed markets API host.
const DefaultBaseURL = "https://markets.newyorkfed.org"

// Client fetches published reference rates.
type Client struct {
	BaseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient returns a client against the public API, with responses
// cached on disk until the end of the day.
func NewClient(log *zap.Logger) *Client {
	log = log.Named("sofr")
	return &Client{BaseURL: DefaultBaseURL, http: daily(log), log: log}
}

// Fetch returns the observations published for [from, to]: the overnight
// rate paired with the 30-day compounded average. Days present in only
// one of the two series are dropped.
func (c *Client) Fetch(from, to date.Date) (*pnl.RateTable, error) {
	overnight, err := c.series("/api/rates/secured/sofr/search.json", "percentRate", from, to)
	if err != nil {
		return nil, err
	}
	averages, err := c.series("/api/rates/secured/sofrai/search.json", "average30day", from, to)
	if err != nil {
		return nil, err
	}

	table := &pnl.RateTable{}
	for day, on := range overnight {
		avg, ok := averages[day]
		if !ok {
			c.log.Debug("no 30-day average, day dropped", zap.Stringer("day", day))
			continue
		}
		table.Add(day, pnl.RateObservation{ShortTenor: avg, Overnight: on})
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("no observations published for %s..%s", from, to)
	}
	c.log.Info("observations fetched",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.Int("days", table.Len()))
	return table, nil
}

// series fetches one endpoint and extracts field keyed by effective date.
func (c *Client) series(path, field string, from, to date.Date) (map[date.Date]float64, error) {
	addr := fmt.Sprintf("%s%s?startDate=%s&endDate=%s", c.BaseURL, path, from, to)
	var jobj any
	if err := jwget(c.http, addr, &jobj); err != nil {
		return nil, fmt.Errorf("error in wget %q: %w", path, err)
	}
	jval, err := jsonpath.Get("$.refRates[:]", jobj)
	if err != nil {
		return nil, fmt.Errorf("error parsing %q: %w", path, err)
	}
	items, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("error parsing %q: refRates is not a list", path)
	}

	out := make(map[date.Date]float64, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		s, ok := m["effectiveDate"].(string)
		if !ok {
			continue
		}
		day, err := date.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("error parsing %q: %w", path, err)
		}
		val, err := asFloat(m[field])
		if err != nil {
			return nil, fmt.Errorf("cannot read %s on %s: %w", field, s, err)
		}
		out[day] = val
	}
	return out, nil
}

// asFloat reads a number that the API sometimes returns as a string.
func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		x = strings.ReplaceAll(x, ",", "")
		x = strings.ReplaceAll(x, " ", "")
		val, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q: %w", x, err)
		}
		return val, nil
	}
	return 0, fmt.Errorf("doesn't have a value and neither a float or string: %v", v)
}
