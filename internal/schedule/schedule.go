// Package schedule derives the release dates of the tracked U.S. indicators
// from their recurring calendar rules. Everything here is pure and safe for
// concurrent use.
package schedule

import (
	"econcal/internal/indicator"
	"econcal/internal/model"
)

// Generate returns every indicator occurrence of the given year. Each FOMC
// decision is immediately followed by its Powell press conference; the
// remaining types follow in the order NFP, CPI, PPI, ISM manufacturing,
// ISM non-manufacturing, retail sales, jobless claims, each ascending by date.
func Generate(year int) []model.Occurrence {
	out := make([]model.Occurrence, 0, 8*2+12*6+53)

	for _, d := range FOMCDates(year) {
		out = append(out,
			model.NewOccurrence(indicator.FOMC, d),
			model.NewOccurrence(indicator.Powell, d),
		)
	}

	cpi := CPIDates(year)
	groups := []struct {
		t     indicator.Type
		dates []model.Date
	}{
		{indicator.NFP, NFPDates(year)},
		{indicator.CPI, cpi},
		{indicator.PPI, PPIDates(cpi)},
		{indicator.ISMManufacturing, ISMManufacturingDates(year)},
		{indicator.ISMNonManufacturing, ISMNonManufacturingDates(year)},
		{indicator.Retail, RetailSalesDates(year)},
		{indicator.Unemployment, JoblessClaimsDates(year)},
	}
	for _, g := range groups {
		for _, d := range g.dates {
			out = append(out, model.NewOccurrence(g.t, d))
		}
	}
	return out
}

// ByType groups occurrences per indicator type, preserving order.
func ByType(occ []model.Occurrence) map[indicator.Type][]model.Occurrence {
	out := make(map[indicator.Type][]model.Occurrence)
	for _, o := range occ {
		out[o.Type] = append(out[o.Type], o)
	}
	return out
}
