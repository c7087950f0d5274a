// Package alerts derives stock advisories from the inventory ledger:
// expired batches, batches approaching expiry, and items running low.
package alerts

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
)

const (
	defaultNearExpiryDays = 30
	defaultLowStock       = 10
)

type Engine struct {
	nearExpiryDays int
	lowStock       decimal.Decimal
}

// NewEngine builds an engine with the given near-expiry window in days and
// low-stock quantity threshold. Non-positive arguments fall back to the
// defaults (30 days, 10 units).
func NewEngine(nearExpiryDays int, lowStock decimal.Decimal) *Engine {
	if nearExpiryDays < 1 {
		nearExpiryDays = defaultNearExpiryDays
	}
	if lowStock.LessThanOrEqual(decimal.Zero) {
		lowStock = decimal.NewFromInt(defaultLowStock)
	}
	return &Engine{nearExpiryDays: nearExpiryDays, lowStock: lowStock}
}

// Evaluate inspects every item as of the given calendar day. An item can
// raise both an expiry-related alert and a low-stock alert; expired items
// do not additionally raise near-expiry.
func (e *Engine) Evaluate(items []domain.InventoryItem, asOf domain.Day) []domain.StockAlert {
	alerts := make([]domain.StockAlert, 0, len(items))

	horizon := asOf.AddDays(e.nearExpiryDays)
	for _, item := range items {
		switch {
		case item.ExpiredAsOf(asOf):
			alerts = append(alerts, domain.StockAlert{
				Code:     domain.AlertExpired,
				Severity: domain.SeverityHigh,
				ItemID:   item.ID,
				Name:     item.Name,
				Batch:    item.Batch,
				Detail:   fmt.Sprintf("expired on %s", item.ExpiryDate),
			})
		case !item.ExpiryDate.After(horizon):
			alerts = append(alerts, domain.StockAlert{
				Code:     domain.AlertNearExpiry,
				Severity: domain.SeverityMedium,
				ItemID:   item.ID,
				Name:     item.Name,
				Batch:    item.Batch,
				Detail:   fmt.Sprintf("expires on %s", item.ExpiryDate),
			})
		}

		if item.Quantity.LessThanOrEqual(e.lowStock) {
			alerts = append(alerts, domain.StockAlert{
				Code:     domain.AlertLowStock,
				Severity: domain.SeverityLow,
				ItemID:   item.ID,
				Name:     item.Name,
				Batch:    item.Batch,
				Detail:   fmt.Sprintf("only %s left in stock", item.Quantity),
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return severityRank(alerts[i].Severity) < severityRank(alerts[j].Severity)
	})
	return alerts
}

func severityRank(severity string) int {
	switch severity {
	case domain.SeverityHigh:
		return 0
	case domain.SeverityMedium:
		return 1
	default:
		return 2
	}
}
