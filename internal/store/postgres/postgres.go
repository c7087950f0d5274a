// Package postgres implements the repository on PostgreSQL for deployments
// that outgrow the single-machine snapshot files.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS inventory_items (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			batch TEXT NOT NULL,
			quantity NUMERIC NOT NULL CHECK (quantity >= 0),
			purchase_price NUMERIC NOT NULL,
			selling_price NUMERIC NOT NULL,
			expiry_date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id TEXT PRIMARY KEY,
			sale_date DATE NOT NULL,
			grand_total NUMERIC NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS sale_lines (
			sale_id TEXT NOT NULL REFERENCES sales(id),
			position INT NOT NULL,
			item_id TEXT NOT NULL,
			name TEXT NOT NULL,
			batch TEXT NOT NULL,
			quantity NUMERIC NOT NULL,
			unit_price NUMERIC NOT NULL,
			total NUMERIC NOT NULL,
			PRIMARY KEY (sale_id, position)
		)`,
		`CREATE TABLE IF NOT EXISTS recoveries (
			id TEXT PRIMARY KEY,
			entry_date DATE NOT NULL,
			amount NUMERIC NOT NULL,
			source TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS expenses (
			id TEXT PRIMARY KEY,
			entry_date DATE NOT NULL,
			amount NUMERIC NOT NULL,
			category TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, batch, quantity, purchase_price, selling_price, expiry_date
		FROM inventory_items
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.InventoryItem, 0, 64)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.InventoryItem, error) {
	var item domain.InventoryItem
	var expiry time.Time
	err := row.Scan(&item.ID, &item.Name, &item.Batch, &item.Quantity,
		&item.PurchasePrice, &item.SellingPrice, &expiry)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	item.ExpiryDate = domain.DayOf(expiry)
	return item, nil
}

func (s *Store) GetInventoryItem(ctx context.Context, id string) (*domain.InventoryItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, batch, quantity, purchase_price, selling_price, expiry_date
		FROM inventory_items
		WHERE id = $1
	`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) CreateInventoryItem(ctx context.Context, item domain.InventoryItem) (*domain.InventoryItem, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO inventory_items (id, name, batch, quantity, purchase_price, selling_price, expiry_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, item.ID, item.Name, item.Batch, item.Quantity, item.PurchasePrice, item.SellingPrice, item.ExpiryDate.Time())
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrConflict
		}
		return nil, err
	}

	created := item
	return &created, nil
}

func (s *Store) DecrementStock(ctx context.Context, id string, amount decimal.Decimal) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory_items
		SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2
	`, id, amount)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	// Distinguish a missing item from a short one for the error message.
	item, err := s.GetInventoryItem(ctx, id)
	if err != nil {
		return err
	}
	return &domain.InsufficientStockError{
		Name:      item.Name,
		Batch:     item.Batch,
		Available: item.Quantity,
		Requested: amount,
	}
}

// ApplySale decrements every referenced item and appends the sale record in
// one transaction. A conditional update guards each decrement so stock can
// never go negative even if the caller's validation raced another writer.
func (s *Store) ApplySale(ctx context.Context, sale domain.Sale) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, line := range sale.Items {
		if !line.Quantity.IsPositive() {
			return &domain.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE inventory_items
			SET quantity = quantity - $2
			WHERE id = $1 AND quantity >= $2 AND $2 > 0
		`, line.ItemID, line.Quantity)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected != 1 {
			var available decimal.Decimal
			err := tx.QueryRowContext(ctx,
				`SELECT quantity FROM inventory_items WHERE id = $1`, line.ItemID,
			).Scan(&available)
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrNotFound
			}
			if err != nil {
				return err
			}
			return &domain.InsufficientStockError{
				Name:      line.Name,
				Batch:     line.Batch,
				Available: available,
				Requested: line.Quantity,
			}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sales (id, sale_date, grand_total)
		VALUES ($1,$2,$3)
	`, sale.ID, sale.Date.Time(), sale.GrandTotal)
	if err != nil {
		return err
	}

	for i, line := range sale.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO sale_lines (sale_id, position, item_id, name, batch, quantity, unit_price, total)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, sale.ID, i, line.ItemID, line.Name, line.Batch, line.Quantity, line.UnitPrice, line.Total)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Store) ListSales(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sale_date, grand_total
		FROM sales
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 64)
	index := make(map[string]int)
	for rows.Next() {
		var sale domain.Sale
		var date time.Time
		if err := rows.Scan(&sale.ID, &date, &sale.GrandTotal); err != nil {
			return nil, err
		}
		sale.Date = domain.DayOf(date)
		sale.Items = []domain.SaleLine{}
		index[sale.ID] = len(sales)
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := s.db.QueryContext(ctx, `
		SELECT sale_id, item_id, name, batch, quantity, unit_price, total
		FROM sale_lines
		ORDER BY sale_id, position
	`)
	if err != nil {
		return nil, err
	}
	defer lineRows.Close()

	for lineRows.Next() {
		var saleID string
		var line domain.SaleLine
		if err := lineRows.Scan(&saleID, &line.ItemID, &line.Name, &line.Batch,
			&line.Quantity, &line.UnitPrice, &line.Total); err != nil {
			return nil, err
		}
		if idx, ok := index[saleID]; ok {
			sales[idx].Items = append(sales[idx].Items, line)
		}
	}
	return sales, lineRows.Err()
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	var sale domain.Sale
	var date time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sale_date, grand_total FROM sales WHERE id = $1
	`, id).Scan(&sale.ID, &date, &sale.GrandTotal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	sale.Date = domain.DayOf(date)

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, name, batch, quantity, unit_price, total
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.SaleLine
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Batch,
			&line.Quantity, &line.UnitPrice, &line.Total); err != nil {
			return nil, err
		}
		sale.Items = append(sale.Items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) CreateRecovery(ctx context.Context, rec domain.Recovery) (*domain.Recovery, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recoveries (id, entry_date, amount, source, description)
		VALUES ($1,$2,$3,$4,$5)
	`, rec.ID, rec.Date.Time(), rec.Amount, rec.Source, rec.Description)
	if err != nil {
		return nil, err
	}
	created := rec
	return &created, nil
}

func (s *Store) ListRecoveries(ctx context.Context) ([]domain.Recovery, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_date, amount, source, description
		FROM recoveries
		ORDER BY entry_date, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recoveries := make([]domain.Recovery, 0, 64)
	for rows.Next() {
		var rec domain.Recovery
		var date time.Time
		if err := rows.Scan(&rec.ID, &date, &rec.Amount, &rec.Source, &rec.Description); err != nil {
			return nil, err
		}
		rec.Date = domain.DayOf(date)
		recoveries = append(recoveries, rec)
	}
	return recoveries, rows.Err()
}

func (s *Store) CreateExpense(ctx context.Context, exp domain.Expense) (*domain.Expense, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, entry_date, amount, category, description)
		VALUES ($1,$2,$3,$4,$5)
	`, exp.ID, exp.Date.Time(), exp.Amount, exp.Category, exp.Description)
	if err != nil {
		return nil, err
	}
	created := exp
	return &created, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_date, amount, category, description
		FROM expenses
		ORDER BY entry_date, id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 64)
	for rows.Next() {
		var exp domain.Expense
		var date time.Time
		if err := rows.Scan(&exp.ID, &date, &exp.Amount, &exp.Category, &exp.Description); err != nil {
			return nil, err
		}
		exp.Date = domain.DayOf(date)
		expenses = append(expenses, exp)
	}
	return expenses, rows.Err()
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if isUniqueViolation(err) {
		return store.ErrConflict
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at FROM users
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 4)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
