package domain

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestErrorMessagesCarryDetail(t *testing.T) {
	stock := &InsufficientStockError{
		Name:      "Panadol",
		Batch:     "B1",
		Available: decimal.NewFromInt(3),
		Requested: decimal.NewFromInt(5),
	}
	for _, want := range []string{"Panadol", "B1", "3", "5"} {
		if !strings.Contains(stock.Error(), want) {
			t.Fatalf("stock error missing %q: %s", want, stock.Error())
		}
	}

	expiry, err := ParseDay("2026-01-15")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	expired := &ExpiredStockError{Name: "Old Syrup", Batch: "OS-1", Expiry: expiry}
	for _, want := range []string{"Old Syrup", "OS-1", "2026-01-15"} {
		if !strings.Contains(expired.Error(), want) {
			t.Fatalf("expired error missing %q: %s", want, expired.Error())
		}
	}

	validation := &ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	if !strings.Contains(validation.Error(), "quantity") {
		t.Fatalf("validation error missing field: %s", validation.Error())
	}
}
