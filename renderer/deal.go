package renderer

import (
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/dgoubkine/pnl"
	"github.com/dgoubkine/pnl/date"
)

// DealDetail is the rendering model of one facility report.
// Numbers are handled using the exact display types (Money, Percent)
// so that they already contain basic renderers (SignedString etc.)
type DealDetail struct {
	Facility string
	Client   string
	Currency string

	ClosingDate      date.Date
	AmendmentDate    date.Date
	RevolvingEndDate date.Date
	MaturityDate     date.Date

	Commitment            pnl.Money
	Advances              pnl.Money
	Drawn                 pnl.Money
	Unused                pnl.Money
	MinUtilizationAmount  pnl.Money
	MinUtilizationApplied bool

	TermYears int
	WALYears  float64
	Premium   pnl.Percent
	Margin    pnl.Percent
	UnusedFee pnl.Percent

	// Fields are the configured report expressions, sorted by name.
	Fields []ReportField

	Rows     []DealRow
	TotalPnL pnl.Money
}

// ReportField is one evaluated report expression.
type ReportField struct {
	Name  string
	Value float64
}

// DealRow is one accrual day of the report.
type DealRow struct {
	Date       date.Date
	FiscalYear string
	DaySpan    int
	Overnight  pnl.Percent
	ShortTenor pnl.Percent
	GrossRate  pnl.Percent
	PnL        pnl.Money
}

// NewDealDetail builds the report model from the deal's terms, its
// accrual rows, and the evaluated report fields.
func NewDealDetail(deal pnl.DealTerms, rows []pnl.Row, fields map[string]float64) *DealDetail {
	balances := pnl.ResolveBalances(deal)
	premium := 0.0
	if deal.PremiumOverride != nil {
		premium = *deal.PremiumOverride
	}
	if len(rows) > 0 {
		premium = rows[0].FundingPremium
	}

	d := &DealDetail{
		Facility: deal.Facility,
		Client:   deal.Client,
		Currency: deal.Currency,

		ClosingDate:      deal.ClosingDate,
		AmendmentDate:    deal.AmendmentDate,
		RevolvingEndDate: deal.RevolvingEndDate,
		MaturityDate:     deal.MaturityDate,

		Commitment:            pnl.M(deal.Commitment, deal.Currency),
		Advances:              pnl.M(deal.AdvancesOutstanding, deal.Currency),
		Drawn:                 pnl.M(balances.Drawn, deal.Currency),
		Unused:                pnl.M(balances.Unused, deal.Currency),
		MinUtilizationAmount:  pnl.M(deal.MinUtilizationAmount, deal.Currency),
		MinUtilizationApplied: balances.MinApplied,

		TermYears: deal.TermYears,
		WALYears:  deal.WALYears,
		Premium:   pnl.Percent(premium * 100),
		Margin:    pnl.Percent(deal.Margin * 100),
		UnusedFee: pnl.Percent(deal.UnusedFee * 100),
	}

	for name, value := range fields {
		d.Fields = append(d.Fields, ReportField{Name: name, Value: value})
	}
	sort.Slice(d.Fields, func(i, j int) bool { return d.Fields[i].Name < d.Fields[j].Name })

	for _, row := range rows {
		d.Rows = append(d.Rows, DealRow{
			Date:       row.BusinessDate,
			FiscalYear: row.FiscalYear,
			DaySpan:    row.DaySpan,
			Overnight:  pnl.Percent(row.OvernightRate),
			ShortTenor: pnl.Percent(row.ShortTenorRate),
			GrossRate:  pnl.Percent(row.GrossRate * 100),
			PnL:        pnl.M(row.PnL, row.Currency),
		})
		d.TotalPnL = d.TotalPnL.Add(pnl.M(row.PnL, row.Currency))
	}
	return d
}

// dealDetailMarkdownTemplate is the template for rendering a DealDetail report in Markdown.
const dealDetailMarkdownTemplate = `# Facility {{ .Facility }}

{{ .Client }}, accruing in {{ .Currency }}.

## Terms

| | |
|:---|---:|
| Commitment | {{ .Commitment }} |
| Advances outstanding | {{ .Advances }} |
| Drawn balance | {{ .Drawn }} |
| Unused balance | {{ .Unused }} |
| Margin | {{ .Margin }} |
| Unused fee | {{ .UnusedFee }} |
| Funding premium | {{ .Premium }} |
| Term | {{ .TermYears }}y |
| WAL | {{ printf "%.2f" .WALYears }}y |
| Closing | {{ .ClosingDate }} |
| Amendment | {{ .AmendmentDate }} |
| Revolving end | {{ .RevolvingEndDate }} |
| Maturity | {{ .MaturityDate }} |
{{- if .MinUtilizationApplied }}
| Minimum utilization floor | {{ .MinUtilizationAmount }} (applied) |
{{- end }}

{{- if .Fields }}

## Report Fields

| Field | Value |
|:---|---:|
{{- range .Fields }}
| {{ .Name }} | {{ printf "%.4f" .Value }} |
{{- end }}
{{- end -}}

{{- if .Rows }}

## Daily Accruals

| Date | FY | Span | Overnight | 30d Avg | Gross Rate | PnL |
|:---|:---|---:|---:|---:|---:|---:|
{{- range .Rows }}
| {{ .Date }} | {{ .FiscalYear }} | {{ .DaySpan }} | {{ .Overnight }} | {{ .ShortTenor }} | {{ .GrossRate }} | {{ .PnL }} |
{{- end }}
| **Total** | | | | | | **{{ .TotalPnL.SignedString }}** |
{{- end -}}
`

// RenderDealDetail renders the DealDetail struct to a markdown string.
func RenderDealDetail(d *DealDetail) string {
	tmpl := template.Must(template.New("dealDetail").Parse(dealDetailMarkdownTemplate))
	var b strings.Builder
	if err := tmpl.Execute(&b, d); err != nil {
		// In a real application, you might want to handle this error more gracefully.
		return fmt.Sprintf("Error executing template: %v", err)
	}
	return b.String()
}
