package sofr

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dgoubkine/pnl/date"
)

// The API publishes numbers, but has been seen returning them as strings;
// one fixture value is a string on purpose.
const (
	overnightBody = `{"refRates": [
		{"effectiveDate": "2025-08-07", "type": "SOFR", "percentRate": 5.31},
		{"effectiveDate": "2025-08-08", "type": "SOFR", "percentRate": "5.34"}
	]}`
	averagesBody = `{"refRates": [
		{"effectiveDate": "2025-08-06", "type": "SOFRAI", "average30day": 5.30},
		{"effectiveDate": "2025-08-07", "type": "SOFRAI", "average30day": 5.35},
		{"effectiveDate": "2025-08-08", "type": "SOFRAI", "average30day": 5.36}
	]}`
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{BaseURL: srv.URL, http: srv.Client(), log: zap.NewNop()}
}

func TestFetch(t *testing.T) {
	var gotStart, gotEnd string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/rates/secured/sofr/search.json", func(w http.ResponseWriter, r *http.Request) {
		gotStart = r.URL.Query().Get("startDate")
		gotEnd = r.URL.Query().Get("endDate")
		w.Write([]byte(overnightBody))
	})
	mux.HandleFunc("/api/rates/secured/sofrai/search.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(averagesBody))
	})
	c := testClient(t, mux)

	table, err := c.Fetch(date.New(2025, time.August, 4), date.New(2025, time.August, 8))
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotStart != "2025-08-04" || gotEnd != "2025-08-08" {
		t.Errorf("requested %s..%s want 2025-08-04..2025-08-08", gotStart, gotEnd)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d want 2, the day without an average is dropped", table.Len())
	}

	obs, err := table.On(date.New(2025, time.August, 7))
	if err != nil {
		t.Fatalf("On() error = %v", err)
	}
	if obs.ShortTenor != 5.35 || obs.Overnight != 5.31 {
		t.Errorf("On(08-07) = %+v want 5.35/5.31", obs)
	}

	obs, err = table.On(date.New(2025, time.August, 8))
	if err != nil {
		t.Fatalf("On() error = %v", err)
	}
	if obs.ShortTenor != 5.36 || obs.Overnight != 5.34 {
		t.Errorf("On(08-08) = %+v want 5.36/5.34, the string rate must parse", obs)
	}
}

func TestFetchNoObservations(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"refRates": []}`))
	}))
	if _, err := c.Fetch(date.New(2025, time.August, 2), date.New(2025, time.August, 3)); err == nil {
		t.Errorf("Fetch() over an empty range, want error")
	}
}

func TestFetchServerError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	if _, err := c.Fetch(date.New(2025, time.August, 4), date.New(2025, time.August, 8)); err == nil {
		t.Errorf("Fetch() against a failing server, want error")
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in      any
		want    float64
		wantErr bool
	}{
		{in: 5.25, want: 5.25},
		{in: "5.25", want: 5.25},
		{in: "5,321.5", want: 5321.5},
		{in: "abc", wantErr: true},
		{in: nil, wantErr: true},
		{in: true, wantErr: true},
	}
	for _, tt := range tests {
		got, err := asFloat(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("asFloat(%v) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("asFloat(%v) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("asFloat(%v) = %v want %v", tt.in, got, tt.want)
		}
	}
}
