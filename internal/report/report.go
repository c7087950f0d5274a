// Package report aggregates the financial ledgers for day-level and
// date-range reporting. Everything here is a pure function over the records
// it is handed; nothing reads or writes storage.
package report

import (
	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
)

// DailySummary filters each ledger to records dated exactly on the given
// calendar day and totals them. Net is sales minus recoveries minus
// expenses; recoveries are subtracted even though they are cash inflows,
// which matches how the store has always read its daily figure.
func DailySummary(date domain.Day, sales []domain.Sale, recoveries []domain.Recovery, expenses []domain.Expense) domain.DailySummary {
	summary := domain.DailySummary{
		Date:            date,
		TotalSales:      decimal.Zero,
		TotalRecoveries: decimal.Zero,
		TotalExpenses:   decimal.Zero,
		Sales:           []domain.Sale{},
		Recoveries:      []domain.Recovery{},
		Expenses:        []domain.Expense{},
	}

	for _, sale := range sales {
		if sale.Date.Equal(date) {
			summary.Sales = append(summary.Sales, sale)
			summary.TotalSales = summary.TotalSales.Add(sale.GrandTotal)
		}
	}
	for _, rec := range recoveries {
		if rec.Date.Equal(date) {
			summary.Recoveries = append(summary.Recoveries, rec)
			summary.TotalRecoveries = summary.TotalRecoveries.Add(rec.Amount)
		}
	}
	for _, exp := range expenses {
		if exp.Date.Equal(date) {
			summary.Expenses = append(summary.Expenses, exp)
			summary.TotalExpenses = summary.TotalExpenses.Add(exp.Amount)
		}
	}

	summary.Net = summary.TotalSales.Sub(summary.TotalRecoveries).Sub(summary.TotalExpenses)
	return summary
}

// RangeSummary filters each ledger to records within the inclusive range
// [start, end]. Comparing at day granularity is equivalent to the original
// normalization of start to 00:00:00 and end to 23:59:59.
func RangeSummary(start, end domain.Day, sales []domain.Sale, recoveries []domain.Recovery, expenses []domain.Expense) (domain.RangeResult, error) {
	if start.IsZero() || end.IsZero() {
		return domain.RangeResult{}, &domain.InvalidRangeError{Reason: "both start and end dates are required"}
	}
	if start.After(end) {
		return domain.RangeResult{}, &domain.InvalidRangeError{Reason: "start date is after end date"}
	}

	result := domain.RangeResult{
		Start:      start,
		End:        end,
		Sales:      []domain.Sale{},
		Recoveries: []domain.Recovery{},
		Expenses:   []domain.Expense{},
	}

	for _, sale := range sales {
		if sale.Date.Within(start, end) {
			result.Sales = append(result.Sales, sale)
		}
	}
	for _, rec := range recoveries {
		if rec.Date.Within(start, end) {
			result.Recoveries = append(result.Recoveries, rec)
		}
	}
	for _, exp := range expenses {
		if exp.Date.Within(start, end) {
			result.Expenses = append(result.Expenses, exp)
		}
	}

	return result, nil
}
