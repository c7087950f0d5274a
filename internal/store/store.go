package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Repository is the persistence boundary for the inventory ledger, the
// financial ledgers and the auth accounts. Implementations must make
// ApplySale atomic: either every stock decrement lands and the sale is
// appended, or nothing changes.
type Repository interface {
	ListInventory(ctx context.Context) ([]domain.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error)
	CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error)
	DecrementStock(ctx context.Context, id string, amount decimal.Decimal) error

	ApplySale(ctx context.Context, sale domain.Sale) error
	ListSales(ctx context.Context) ([]domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)

	CreateRecovery(ctx context.Context, rec domain.Recovery) (*domain.Recovery, error)
	ListRecoveries(ctx context.Context) ([]domain.Recovery, error)

	CreateExpense(ctx context.Context, exp domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context) ([]domain.Expense, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}
