package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is one stock-keeping unit of the store. Quantity never goes
// below zero; the only mutation after creation is the decrement applied when
// a sale commits.
type InventoryItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Batch         string          `json:"batch"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	ExpiryDate    Day             `json:"expiryDate"`
}

// ExpiredAsOf reports whether the item may no longer be sold on the given
// calendar day. Items expiring today are still sellable.
func (it InventoryItem) ExpiredAsOf(day Day) bool {
	return it.ExpiryDate.Before(day)
}

type InventoryItemCreateRequest struct {
	Name          string          `json:"name"`
	Batch         string          `json:"batch"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchasePrice"`
	SellingPrice  decimal.Decimal `json:"sellingPrice"`
	ExpiryDate    string          `json:"expiryDate"`
}

// BillLine is one row of the in-progress bill. UnitPrice is a snapshot of
// the item's selling price at the moment the line was added, not a live
// reference.
type BillLine struct {
	ItemID     string          `json:"itemId"`
	Name       string          `json:"name"`
	Batch      string          `json:"batch"`
	ExpiryDate Day             `json:"expiryDate"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   decimal.Decimal `json:"quantity"`
	Total      decimal.Decimal `json:"total"`
}

type BillAddLineRequest struct {
	ItemID string `json:"itemId"`
}

type BillSetQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

type BillState struct {
	Lines      []BillLine      `json:"lines"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// SaleLine is a fully decoupled copy of a bill line at commit time. Later
// edits to the referenced InventoryItem do not change it.
type SaleLine struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Batch     string          `json:"batch"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Total     decimal.Decimal `json:"total"`
}

// Sale is an immutable, append-only record of one committed bill.
type Sale struct {
	ID         string          `json:"id"`
	Date       Day             `json:"date"`
	Items      []SaleLine      `json:"items"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// Recovery records incoming cash outside of sales, e.g. collection of a
// past due.
type Recovery struct {
	ID          string          `json:"id"`
	Date        Day             `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
}

type RecoveryCreateRequest struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
}

type Expense struct {
	ID          string          `json:"id"`
	Date        Day             `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

type ExpenseCreateRequest struct {
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
}

// DailySummary aggregates the three ledgers for one calendar day and carries
// the matching records so callers can render the day's detail tables.
type DailySummary struct {
	Date            Day             `json:"date"`
	TotalSales      decimal.Decimal `json:"totalSales"`
	TotalRecoveries decimal.Decimal `json:"totalRecoveries"`
	TotalExpenses   decimal.Decimal `json:"totalExpenses"`
	Net             decimal.Decimal `json:"net"`
	Sales           []Sale          `json:"sales"`
	Recoveries      []Recovery      `json:"recoveries"`
	Expenses        []Expense       `json:"expenses"`
}

// RangeResult holds the ledgers filtered to an inclusive date range.
type RangeResult struct {
	Start      Day        `json:"start"`
	End        Day        `json:"end"`
	Sales      []Sale     `json:"sales"`
	Recoveries []Recovery `json:"recoveries"`
	Expenses   []Expense  `json:"expenses"`
}

type StockAlert struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	ItemID   string `json:"itemId"`
	Name     string `json:"name"`
	Batch    string `json:"batch"`
	Detail   string `json:"detail"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt"`
}

type Actor struct {
	Username string
	Role     string
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	AlertExpired    = "expired"
	AlertNearExpiry = "near_expiry"
	AlertLowStock   = "low_stock"
)

const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)
