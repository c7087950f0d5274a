// Package memory implements the repository on plain in-process state. It is
// the execution engine of the snapshot store and the default for tests.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store"
)

type Store struct {
	mu         sync.RWMutex
	inventory  []domain.InventoryItem
	invIndex   map[string]int
	sales      []domain.Sale
	saleIndex  map[string]int
	recoveries []domain.Recovery
	expenses   []domain.Expense
	users      map[string]domain.UserAccount
}

func New() *Store {
	return &Store{
		invIndex:  make(map[string]int),
		saleIndex: make(map[string]int),
		users:     make(map[string]domain.UserAccount),
	}
}

// NewFromData builds a store pre-populated with loaded collections. Used by
// the snapshot store after reading its files. Records repeating an earlier
// id are skipped so the index and the slice stay consistent.
func NewFromData(inventory []domain.InventoryItem, sales []domain.Sale, recoveries []domain.Recovery, expenses []domain.Expense, users []domain.UserAccount) *Store {
	s := New()
	for _, item := range inventory {
		if _, ok := s.invIndex[item.ID]; ok {
			continue
		}
		s.invIndex[item.ID] = len(s.inventory)
		s.inventory = append(s.inventory, item)
	}
	for _, sale := range sales {
		if _, ok := s.saleIndex[sale.ID]; ok {
			continue
		}
		s.saleIndex[sale.ID] = len(s.sales)
		s.sales = append(s.sales, copySale(sale))
	}
	s.recoveries = append(s.recoveries, recoveries...)
	s.expenses = append(s.expenses, expenses...)
	for _, user := range users {
		if user.Username != "" {
			s.users[user.Username] = user
		}
	}
	return s
}

func (s *Store) ListInventory(_ context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.InventoryItem, len(s.inventory))
	copy(out, s.inventory)
	return out, nil
}

func (s *Store) GetInventoryItem(_ context.Context, id string) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.invIndex[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	item := s.inventory[idx]
	return &item, nil
}

func (s *Store) CreateInventoryItem(_ context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invIndex[item.ID]; exists {
		return nil, store.ErrConflict
	}
	s.invIndex[item.ID] = len(s.inventory)
	s.inventory = append(s.inventory, item)

	created := item
	return &created, nil
}

func (s *Store) DecrementStock(_ context.Context, id string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decrementLocked(id, amount)
}

func (s *Store) decrementLocked(id string, amount decimal.Decimal) error {
	idx, ok := s.invIndex[id]
	if !ok {
		return store.ErrNotFound
	}
	item := &s.inventory[idx]
	if item.Quantity.LessThan(amount) {
		return &domain.InsufficientStockError{
			Name:      item.Name,
			Batch:     item.Batch,
			Available: item.Quantity,
			Requested: amount,
		}
	}
	item.Quantity = item.Quantity.Sub(amount)
	return nil
}

// ApplySale checks every line against current stock before mutating
// anything, so a failing line leaves both ledgers untouched.
func (s *Store) ApplySale(_ context.Context, sale domain.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range sale.Items {
		if !line.Quantity.IsPositive() {
			return &domain.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
		}
		idx, ok := s.invIndex[line.ItemID]
		if !ok {
			return store.ErrNotFound
		}
		item := s.inventory[idx]
		if item.Quantity.LessThan(line.Quantity) {
			return &domain.InsufficientStockError{
				Name:      item.Name,
				Batch:     item.Batch,
				Available: item.Quantity,
				Requested: line.Quantity,
			}
		}
	}

	for _, line := range sale.Items {
		item := &s.inventory[s.invIndex[line.ItemID]]
		item.Quantity = item.Quantity.Sub(line.Quantity)
	}

	s.saleIndex[sale.ID] = len(s.sales)
	s.sales = append(s.sales, copySale(sale))
	return nil
}

func (s *Store) ListSales(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, copySale(sale))
	}
	return out, nil
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.saleIndex[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	sale := copySale(s.sales[idx])
	return &sale, nil
}

func (s *Store) CreateRecovery(_ context.Context, rec domain.Recovery) (*domain.Recovery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recoveries = append(s.recoveries, rec)
	created := rec
	return &created, nil
}

func (s *Store) ListRecoveries(_ context.Context) ([]domain.Recovery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Recovery, len(s.recoveries))
	copy(out, s.recoveries)
	return out, nil
}

func (s *Store) CreateExpense(_ context.Context, exp domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.expenses = append(s.expenses, exp)
	created := exp
	return &created, nil
}

func (s *Store) ListExpenses(_ context.Context) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, len(s.expenses))
	copy(out, s.expenses)
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return store.ErrConflict
	}
	s.users[user.Username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[username]
	if !ok {
		return store.ErrNotFound
	}
	user.Password = password
	s.users[username] = user
	return nil
}

func copySale(sale domain.Sale) domain.Sale {
	out := sale
	out.Items = make([]domain.SaleLine, len(sale.Items))
	copy(out.Items, sale.Items)
	return out
}
