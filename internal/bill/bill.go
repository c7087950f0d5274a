// Package bill holds the transient working state of the bill being composed
// at the counter. Nothing here touches storage; the builder is reset after
// every commit or explicit clear.
package bill

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
)

// ErrLineNotFound is returned when an edit references an item id that has no
// line on the current bill.
var ErrLineNotFound = errors.New("bill line not found")

// Builder accumulates bill lines for a single in-progress bill.
type Builder struct {
	lines []domain.BillLine
}

func NewBuilder() *Builder {
	return &Builder{}
}

// AddLine puts the item on the bill. If a line for the same inventory id
// already exists its quantity grows by one; otherwise a new line starts at
// quantity one. The unit price is snapshotted from the item's current
// selling price at this moment.
func (b *Builder) AddLine(item domain.InventoryItem) {
	for i := range b.lines {
		if b.lines[i].ItemID == item.ID {
			b.lines[i].Quantity = b.lines[i].Quantity.Add(decimal.NewFromInt(1))
			b.lines[i].Total = b.lines[i].Quantity.Mul(b.lines[i].UnitPrice)
			return
		}
	}

	one := decimal.NewFromInt(1)
	b.lines = append(b.lines, domain.BillLine{
		ItemID:     item.ID,
		Name:       item.Name,
		Batch:      item.Batch,
		ExpiryDate: item.ExpiryDate,
		UnitPrice:  item.SellingPrice,
		Quantity:   one,
		Total:      item.SellingPrice,
	})
}

// SetLineQuantity replaces a line's quantity and recomputes its total. No
// lower bound is enforced here; commit-time validation rejects quantities
// the stock cannot cover.
func (b *Builder) SetLineQuantity(itemID string, quantity decimal.Decimal) error {
	for i := range b.lines {
		if b.lines[i].ItemID == itemID {
			b.lines[i].Quantity = quantity
			b.lines[i].Total = quantity.Mul(b.lines[i].UnitPrice)
			return nil
		}
	}
	return ErrLineNotFound
}

// RemoveLine deletes the line for the given inventory id.
func (b *Builder) RemoveLine(itemID string) error {
	for i := range b.lines {
		if b.lines[i].ItemID == itemID {
			b.lines = append(b.lines[:i], b.lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

// Lines returns a copy of the current lines in the order they were added.
func (b *Builder) Lines() []domain.BillLine {
	out := make([]domain.BillLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// GrandTotal sums all line totals. It is recomputed on demand, never cached.
func (b *Builder) GrandTotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range b.lines {
		total = total.Add(line.Total)
	}
	return total
}

func (b *Builder) Empty() bool {
	return len(b.lines) == 0
}

// Clear resets the builder to an empty bill.
func (b *Builder) Clear() {
	b.lines = nil
}

// State returns the lines and grand total as one value for rendering.
func (b *Builder) State() domain.BillState {
	return domain.BillState{
		Lines:      b.Lines(),
		GrandTotal: b.GrandTotal(),
	}
}
