package alerts

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
)

func item(t *testing.T, name, expiry string, qty int64) domain.InventoryItem {
	t.Helper()
	d, err := domain.ParseDay(expiry)
	require.NoError(t, err)
	return domain.InventoryItem{
		ID:         "inv-" + name,
		Name:       name,
		Batch:      "B-1",
		Quantity:   decimal.NewFromInt(qty),
		ExpiryDate: d,
	}
}

func TestEvaluateFlagsExpiredAndNearExpiry(t *testing.T) {
	asOf, err := domain.ParseDay("2026-06-01")
	require.NoError(t, err)

	engine := NewEngine(30, decimal.NewFromInt(5))
	alerts := engine.Evaluate([]domain.InventoryItem{
		item(t, "expired", "2026-05-31", 50),
		item(t, "near", "2026-06-20", 50),
		item(t, "edge", "2026-07-01", 50),
		item(t, "fine", "2026-07-02", 50),
	}, asOf)

	require.Len(t, alerts, 3)
	assert.Equal(t, domain.AlertExpired, alerts[0].Code)
	assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, domain.AlertNearExpiry, alerts[1].Code)
	assert.Equal(t, "near", alerts[1].Name)
	assert.Equal(t, "edge", alerts[2].Name)
}

func TestEvaluateLowStockStacksWithExpiry(t *testing.T) {
	asOf, err := domain.ParseDay("2026-06-01")
	require.NoError(t, err)

	engine := NewEngine(30, decimal.NewFromInt(10))
	alerts := engine.Evaluate([]domain.InventoryItem{
		item(t, "scarce-expired", "2026-01-01", 2),
	}, asOf)

	require.Len(t, alerts, 2)
	assert.Equal(t, domain.AlertExpired, alerts[0].Code)
	assert.Equal(t, domain.AlertLowStock, alerts[1].Code)
}

func TestEvaluateSortsBySeverity(t *testing.T) {
	asOf, err := domain.ParseDay("2026-06-01")
	require.NoError(t, err)

	engine := NewEngine(30, decimal.NewFromInt(5))
	alerts := engine.Evaluate([]domain.InventoryItem{
		item(t, "low-only", "2027-01-01", 3),
		item(t, "near", "2026-06-15", 50),
		item(t, "expired", "2026-05-01", 50),
	}, asOf)

	require.Len(t, alerts, 3)
	assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, domain.SeverityMedium, alerts[1].Severity)
	assert.Equal(t, domain.SeverityLow, alerts[2].Severity)
}

func TestNewEngineDefaults(t *testing.T) {
	asOf, err := domain.ParseDay("2026-06-01")
	require.NoError(t, err)

	engine := NewEngine(0, decimal.Zero)
	alerts := engine.Evaluate([]domain.InventoryItem{
		item(t, "ten-left", "2027-06-01", 10),
	}, asOf)

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertLowStock, alerts[0].Code)
}
