// Package store persists deals, premium grids, rate observations and
// computed accrual rows in PostgreSQL. Init creates the schema; facility
// terms and premium grids are reported into their tables by upstream
// feeds, everything else is written here.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/date"
)

// Store reads and writes the engine's tables over a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Store feeds a run on the read side and receives its rows on the write
// side.
var (
	_ pnl.DealSource    = (*Store)(nil)
	_ pnl.PremiumSource = (*Store)(nil)
	_ pnl.RateSource    = (*Store)(nil)
	_ pnl.RowSink       = (*Store)(nil)
)

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool, log: log.Named("store")}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// schema, one statement per table. Deal terms are point-in-time reports
// keyed by facility and report date; reads take the latest report. Rows
// mirror pnl.Row column for column.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS private_deals (
    facility             TEXT NOT NULL,
    business_date        DATE NOT NULL,
    client               TEXT NOT NULL,
    currency             TEXT NOT NULL,
    closing_date         DATE NOT NULL,
    amendment_date       DATE NOT NULL,
    revolving_end_date   DATE NOT NULL,
    maturity_date        DATE NOT NULL,
    commitment           DOUBLE PRECISION NOT NULL,
    advances_outstanding DOUBLE PRECISION NOT NULL,
    margin               DOUBLE PRECISION NOT NULL,
    unused_fee           DOUBLE PRECISION NOT NULL,
    min_utilization      DOUBLE PRECISION NOT NULL DEFAULT 0,
    premium_override     DOUBLE PRECISION,
    PRIMARY KEY (facility, business_date)
)`,
	`CREATE TABLE IF NOT EXISTS funding_premiums (
    business_date DATE NOT NULL,
    tenor_years   INT NOT NULL,
    premium       DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (business_date, tenor_years)
)`,
	`CREATE TABLE IF NOT EXISTS sofr_rates (
    business_date    DATE PRIMARY KEY,
    short_tenor_rate DOUBLE PRECISION NOT NULL,
    overnight_rate   DOUBLE PRECISION NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS daily_pnl (
    facility                  TEXT NOT NULL,
    client                    TEXT NOT NULL,
    currency                  TEXT NOT NULL,
    business_date             DATE NOT NULL,
    fiscal_year               TEXT NOT NULL,
    day_span                  INT NOT NULL,
    drawn_balance             DOUBLE PRECISION NOT NULL,
    unused_balance            DOUBLE PRECISION NOT NULL,
    min_utilization           DOUBLE PRECISION NOT NULL,
    min_utilization_amount    DOUBLE PRECISION NOT NULL,
    min_utilization_applied   BOOLEAN NOT NULL,
    term_years                INT NOT NULL,
    wal_years                 DOUBLE PRECISION NOT NULL,
    funding_premium           DOUBLE PRECISION NOT NULL,
    margin                    DOUBLE PRECISION NOT NULL,
    unused_fee                DOUBLE PRECISION NOT NULL,
    short_tenor_rate          DOUBLE PRECISION NOT NULL,
    overnight_rate            DOUBLE PRECISION NOT NULL,
    prior_short_tenor_rate    DOUBLE PRECISION NOT NULL,
    prior_overnight_rate      DOUBLE PRECISION NOT NULL,
    cost_of_funds_drawn       DOUBLE PRECISION NOT NULL,
    cost_of_funds_wal_drawn   DOUBLE PRECISION NOT NULL,
    cost_of_funds_wal_undrawn DOUBLE PRECISION NOT NULL,
    unused_revenue            DOUBLE PRECISION NOT NULL,
    gross_rate                DOUBLE PRECISION NOT NULL,
    gross_revenue             DOUBLE PRECISION NOT NULL,
    pnl                       DOUBLE PRECISION NOT NULL,
    PRIMARY KEY (facility, business_date)
)`,
}

// Init creates any missing table. Safe to run on a live database.
func (s *Store) Init(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	s.log.Info("schema ready", zap.Int("tables", len(schema)))
	return nil
}

const dealsQuery = `
SELECT facility, client, currency,
       closing_date, amendment_date, revolving_end_date, maturity_date,
       commitment, advances_outstanding, margin, unused_fee,
       min_utilization, premium_override
FROM (
    SELECT *, ROW_NUMBER() OVER (PARTITION BY facility ORDER BY business_date DESC) AS rn
    FROM private_deals
) latest
WHERE rn = 1
ORDER BY facility`

// Deals returns the most recently reported terms of every facility.
func (s *Store) Deals(ctx context.Context) ([]pnl.DealTerms, error) {
	rows, err := s.pool.Query(ctx, dealsQuery)
	if err != nil {
		return nil, fmt.Errorf("querying deals: %w", err)
	}
	defer rows.Close()

	var deals []pnl.DealTerms
	for rows.Next() {
		var d pnl.DealTerms
		var closing, amendment, revolving, maturity time.Time
		if err := rows.Scan(
			&d.Facility, &d.Client, &d.Currency,
			&closing, &amendment, &revolving, &maturity,
			&d.Commitment, &d.AdvancesOutstanding, &d.Margin, &d.UnusedFee,
			&d.MinUtilization, &d.PremiumOverride,
		); err != nil {
			return nil, fmt.Errorf("scanning deal: %w", err)
		}
		d.ClosingDate = date.FromTime(closing)
		d.AmendmentDate = date.FromTime(amendment)
		d.RevolvingEndDate = date.FromTime(revolving)
		d.MaturityDate = date.FromTime(maturity)
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading deals: %w", err)
	}
	s.log.Debug("deals loaded", zap.Int("count", len(deals)))
	return deals, nil
}

const premiumsQuery = `
SELECT business_date, tenor_years, premium
FROM funding_premiums
WHERE business_date = (
    SELECT max(business_date) FROM funding_premiums WHERE business_date <= $1
)`

// PremiumGrid returns the grid effective on or before asOf, the whole
// tenor column of its business date.
func (s *Store) PremiumGrid(ctx context.Context, asOf date.Date) (pnl.PremiumGrid, error) {
	rows, err := s.pool.Query(ctx, premiumsQuery, asOf.Time())
	if err != nil {
		return pnl.PremiumGrid{}, fmt.Errorf("querying premium grid: %w", err)
	}
	defer rows.Close()

	grid := pnl.PremiumGrid{Rates: make(map[int]float64)}
	for rows.Next() {
		var day time.Time
		var tenor int
		var premium float64
		if err := rows.Scan(&day, &tenor, &premium); err != nil {
			return pnl.PremiumGrid{}, fmt.Errorf("scanning premium: %w", err)
		}
		grid.AsOf = date.FromTime(day)
		grid.Rates[tenor] = premium
	}
	if err := rows.Err(); err != nil {
		return pnl.PremiumGrid{}, fmt.Errorf("reading premium grid: %w", err)
	}
	if len(grid.Rates) == 0 {
		return pnl.PremiumGrid{}, &pnl.NoPremiumGridError{AsOf: asOf}
	}
	return grid, nil
}

const ratesQuery = `
SELECT business_date, short_tenor_rate, overnight_rate
FROM sofr_rates
WHERE business_date BETWEEN $1 AND $2
ORDER BY business_date`

// Rates returns the observations covering [from, to]. The window opens a
// week early so prior-day lookups at the start of the range resolve.
func (s *Store) Rates(ctx context.Context, from, to date.Date) (*pnl.RateTable, error) {
	rows, err := s.pool.Query(ctx, ratesQuery, from.Add(-7).Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("querying rates %s..%s: %w", from, to, err)
	}
	defer rows.Close()

	table := &pnl.RateTable{}
	for rows.Next() {
		var day time.Time
		var o pnl.RateObservation
		if err := rows.Scan(&day, &o.ShortTenor, &o.Overnight); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		table.Add(date.FromTime(day), o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rates: %w", err)
	}
	s.log.Debug("rates loaded", zap.Int("days", table.Len()))
	return table, nil
}

const rowsQuery = `
SELECT facility, client, currency, business_date, fiscal_year, day_span,
       drawn_balance, unused_balance, min_utilization, min_utilization_amount, min_utilization_applied,
       term_years, wal_years, funding_premium, margin, unused_fee,
       short_tenor_rate, overnight_rate, prior_short_tenor_rate, prior_overnight_rate,
       cost_of_funds_drawn, cost_of_funds_wal_drawn, cost_of_funds_wal_undrawn,
       unused_revenue, gross_rate, gross_revenue, pnl
FROM daily_pnl
WHERE facility = $1
ORDER BY business_date`

// Rows returns every stored accrual row of one facility, ascending by
// business date.
func (s *Store) Rows(ctx context.Context, facility string) ([]pnl.Row, error) {
	rows, err := s.pool.Query(ctx, rowsQuery, facility)
	if err != nil {
		return nil, fmt.Errorf("querying rows for %s: %w", facility, err)
	}
	defer rows.Close()

	var out []pnl.Row
	for rows.Next() {
		var r pnl.Row
		var day time.Time
		if err := rows.Scan(
			&r.Facility, &r.Client, &r.Currency, &day, &r.FiscalYear, &r.DaySpan,
			&r.DrawnBalance, &r.UnusedBalance, &r.MinUtilization, &r.MinUtilizationAmount, &r.MinUtilizationApplied,
			&r.TermYears, &r.WALYears, &r.FundingPremium, &r.Margin, &r.UnusedFee,
			&r.ShortTenorRate, &r.OvernightRate, &r.PriorShortTenorRate, &r.PriorOvernightRate,
			&r.CostOfFundsDrawn, &r.CostOfFundsWALDrawn, &r.CostOfFundsWALUndrawn,
			&r.UnusedRevenue, &r.GrossRate, &r.GrossRevenue, &r.PnL,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		r.BusinessDate = date.FromTime(day)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows for %s: %w", facility, err)
	}
	return out, nil
}

const upsertRowQuery = `
INSERT INTO daily_pnl (
    facility, client, currency, business_date, fiscal_year, day_span,
    drawn_balance, unused_balance, min_utilization, min_utilization_amount, min_utilization_applied,
    term_years, wal_years, funding_premium, margin, unused_fee,
    short_tenor_rate, overnight_rate, prior_short_tenor_rate, prior_overnight_rate,
    cost_of_funds_drawn, cost_of_funds_wal_drawn, cost_of_funds_wal_undrawn,
    unused_revenue, gross_rate, gross_revenue, pnl
) VALUES (
    $1, $2, $3, $4, $5, $6,
    $7, $8, $9, $10, $11,
    $12, $13, $14, $15, $16,
    $17, $18, $19, $20,
    $21, $22, $23,
    $24, $25, $26, $27
)
ON CONFLICT (facility, business_date) DO UPDATE SET
    client = EXCLUDED.client,
    currency = EXCLUDED.currency,
    fiscal_year = EXCLUDED.fiscal_year,
    day_span = EXCLUDED.day_span,
    drawn_balance = EXCLUDED.drawn_balance,
    unused_balance = EXCLUDED.unused_balance,
    min_utilization = EXCLUDED.min_utilization,
    min_utilization_amount = EXCLUDED.min_utilization_amount,
    min_utilization_applied = EXCLUDED.min_utilization_applied,
    term_years = EXCLUDED.term_years,
    wal_years = EXCLUDED.wal_years,
    funding_premium = EXCLUDED.funding_premium,
    margin = EXCLUDED.margin,
    unused_fee = EXCLUDED.unused_fee,
    short_tenor_rate = EXCLUDED.short_tenor_rate,
    overnight_rate = EXCLUDED.overnight_rate,
    prior_short_tenor_rate = EXCLUDED.prior_short_tenor_rate,
    prior_overnight_rate = EXCLUDED.prior_overnight_rate,
    cost_of_funds_drawn = EXCLUDED.cost_of_funds_drawn,
    cost_of_funds_wal_drawn = EXCLUDED.cost_of_funds_wal_drawn,
    cost_of_funds_wal_undrawn = EXCLUDED.cost_of_funds_wal_undrawn,
    unused_revenue = EXCLUDED.unused_revenue,
    gross_rate = EXCLUDED.gross_rate,
    gross_revenue = EXCLUDED.gross_revenue,
    pnl = EXCLUDED.pnl`

// SaveRows upserts the rows keyed by facility and business date, so a
// rerun over the same period converges instead of duplicating.
func (s *Store) SaveRows(ctx context.Context, rows []pnl.Row) error {
	if len(rows) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertRowQuery,
			r.Facility, r.Client, r.Currency, r.BusinessDate.Time(), r.FiscalYear, r.DaySpan,
			r.DrawnBalance, r.UnusedBalance, r.MinUtilization, r.MinUtilizationAmount, r.MinUtilizationApplied,
			r.TermYears, r.WALYears, r.FundingPremium, r.Margin, r.UnusedFee,
			r.ShortTenorRate, r.OvernightRate, r.PriorShortTenorRate, r.PriorOvernightRate,
			r.CostOfFundsDrawn, r.CostOfFundsWALDrawn, r.CostOfFundsWALUndrawn,
			r.UnusedRevenue, r.GrossRate, r.GrossRevenue, r.PnL,
		)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, r := range rows {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting row %s %s: %w", r.Facility, r.BusinessDate, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}
	s.log.Info("rows saved", zap.Int("rows", len(rows)))
	return nil
}

const upsertRateQuery = `
INSERT INTO sofr_rates (business_date, short_tenor_rate, overnight_rate)
VALUES ($1, $2, $3)
ON CONFLICT (business_date) DO UPDATE SET
    short_tenor_rate = EXCLUDED.short_tenor_rate,
    overnight_rate = EXCLUDED.overnight_rate`

// UpsertRates stores every observation of the table.
func (s *Store) UpsertRates(ctx context.Context, table *pnl.RateTable) error {
	batch := &pgx.Batch{}
	for day, o := range table.Values() {
		batch.Queue(upsertRateQuery, day.Time(), o.ShortTenor, o.Overnight)
	}
	if batch.Len() == 0 {
		return nil
	}
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upserting rate: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing batch: %w", err)
	}
	s.log.Info("rates saved", zap.Int("days", table.Len()))
	return nil
}
