// Package snapshot persists the repository as one JSON file per collection,
// overwritten in full after every mutation. A missing or malformed file
// loads as an empty collection; a failed write is logged and the in-memory
// state stays authoritative until the next successful overwrite.
package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
	"github.com/shoaibghazii/Ghazi-Medi/internal/logger"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store/memory"
)

const (
	keyInventory  = "inventory"
	keySales      = "sales"
	keyRecoveries = "recoveries"
	keyExpenses   = "expenses"
	keyUsers      = "users"
)

type Store struct {
	dir string
	log *logger.Logger
	mem *memory.Store
}

// New loads any existing snapshot files from dir and returns a store backed
// by them. dir is created if missing.
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Default()
	}
	log = log.WithComponent("snapshot-store")

	inventory := load[domain.InventoryItem](dir, keyInventory, log)
	sales := load[domain.Sale](dir, keySales, log)
	recoveries := load[domain.Recovery](dir, keyRecoveries, log)
	expenses := load[domain.Expense](dir, keyExpenses, log)
	users := load[userRecord](dir, keyUsers, log)

	accounts := make([]domain.UserAccount, 0, len(users))
	for _, u := range users {
		accounts = append(accounts, u.toAccount())
	}

	return &Store{
		dir: dir,
		log: log,
		mem: memory.NewFromData(inventory, sales, recoveries, expenses, accounts),
	}, nil
}

// userRecord is the on-disk form of a UserAccount; the in-memory model has
// no JSON tags because it never crosses the HTTP boundary.
type userRecord struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"createdAt"`
}

func (u userRecord) toAccount() domain.UserAccount {
	account := domain.UserAccount{
		Username: u.Username,
		Password: u.Password,
		Role:     u.Role,
		Active:   u.Active,
	}
	if day, err := domain.ParseDay(u.CreatedAt); err == nil {
		account.CreatedAt = day.Time()
	}
	return account
}

func fromAccount(a domain.UserAccount) userRecord {
	return userRecord{
		Username:  a.Username,
		Password:  a.Password,
		Role:      a.Role,
		Active:    a.Active,
		CreatedAt: domain.DayOf(a.CreatedAt).String(),
	}
}

func load[T any](dir, key string, log *logger.Logger) []T {
	path := filepath.Join(dir, key+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnw("snapshot unreadable, starting empty", "collection", key, "error", err)
		}
		return nil
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		log.Warnw("snapshot malformed, starting empty", "collection", key, "error", err)
		return nil
	}
	return records
}

// save overwrites one collection file. A write failure does not fail the
// operation that triggered it; the snapshot simply lags until the next
// overwrite succeeds.
func (s *Store) save(key string, records any) {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		s.log.Errorw("snapshot marshal failed", "collection", key, "error", err)
		return
	}

	path := filepath.Join(s.dir, key+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		s.log.Errorw("snapshot write failed", "collection", key, "error", err)
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		s.log.Errorw("snapshot rename failed", "collection", key, "error", err)
	}
}

func (s *Store) saveInventory(ctx context.Context) {
	items, err := s.mem.ListInventory(ctx)
	if err != nil {
		return
	}
	s.save(keyInventory, items)
}

func (s *Store) saveSales(ctx context.Context) {
	sales, err := s.mem.ListSales(ctx)
	if err != nil {
		return
	}
	s.save(keySales, sales)
}

func (s *Store) saveUsers(ctx context.Context) {
	users, err := s.mem.ListUsers(ctx)
	if err != nil {
		return
	}
	records := make([]userRecord, 0, len(users))
	for _, u := range users {
		records = append(records, fromAccount(u))
	}
	s.save(keyUsers, records)
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.mem.ListInventory(ctx)
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	return s.mem.GetInventoryItem(ctx, id)
}

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	created, err := s.mem.CreateInventoryItem(ctx, item)
	if err != nil {
		return nil, err
	}
	s.saveInventory(ctx)
	return created, nil
}

func (s *Store) DecrementStock(ctx context.Context, id string, amount decimal.Decimal) error {
	if err := s.mem.DecrementStock(ctx, id, amount); err != nil {
		return err
	}
	s.saveInventory(ctx)
	return nil
}

func (s *Store) ApplySale(ctx context.Context, sale domain.Sale) error {
	if err := s.mem.ApplySale(ctx, sale); err != nil {
		return err
	}
	s.saveInventory(ctx)
	s.saveSales(ctx)
	return nil
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.mem.ListSales(ctx)
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.mem.GetSale(ctx, id)
}

func (s *Store) CreateRecovery(ctx context.Context, rec domain.Recovery) (*domain.Recovery, error) {
	created, err := s.mem.CreateRecovery(ctx, rec)
	if err != nil {
		return nil, err
	}
	if records, err := s.mem.ListRecoveries(ctx); err == nil {
		s.save(keyRecoveries, records)
	}
	return created, nil
}

func (s *Store) ListRecoveries(ctx context.Context) ([]domain.Recovery, error) {
	return s.mem.ListRecoveries(ctx)
}

func (s *Store) CreateExpense(ctx context.Context, exp domain.Expense) (*domain.Expense, error) {
	created, err := s.mem.CreateExpense(ctx, exp)
	if err != nil {
		return nil, err
	}
	if records, err := s.mem.ListExpenses(ctx); err == nil {
		s.save(keyExpenses, records)
	}
	return created, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.mem.ListExpenses(ctx)
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if err := s.mem.CreateUser(ctx, user); err != nil {
		return err
	}
	s.saveUsers(ctx)
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	return s.mem.ListUsers(ctx)
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	if err := s.mem.UpdateUserPassword(ctx, username, password); err != nil {
		return err
	}
	s.saveUsers(ctx)
	return nil
}
