// Package service wires the storage, billing and reporting pieces into the
// operations the HTTP layer exposes. All business validation lives here so
// the stores only enforce their own consistency rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoaibghazii/Ghazi-Medi/internal/alerts"
	"github.com/shoaibghazii/Ghazi-Medi/internal/bill"
	"github.com/shoaibghazii/Ghazi-Medi/internal/cache"
	"github.com/shoaibghazii/Ghazi-Medi/internal/domain"
	"github.com/shoaibghazii/Ghazi-Medi/internal/logger"
	"github.com/shoaibghazii/Ghazi-Medi/internal/report"
	"github.com/shoaibghazii/Ghazi-Medi/internal/store"
	"github.com/shoaibghazii/Ghazi-Medi/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

// Service owns the single in-progress bill for the counter. The shop runs
// one till, so one bill at a time is the intended model, guarded by a mutex
// for concurrent HTTP handlers.
type Service struct {
	repo       store.Repository
	cache      cache.SummaryCache
	alerts     *alerts.Engine
	storeName  string
	summaryTTL time.Duration
	log        *logger.Logger

	mu   sync.Mutex
	bill *bill.Builder
}

func New(repo store.Repository, summaryCache cache.SummaryCache, alertEngine *alerts.Engine, storeName string, summaryTTL time.Duration, log *logger.Logger) *Service {
	if storeName == "" {
		storeName = "ghazi-medi"
	}
	if summaryCache == nil {
		summaryCache = cache.NoopSummaryCache{}
	}
	if alertEngine == nil {
		alertEngine = alerts.NewEngine(0, decimal.Zero)
	}
	if log == nil {
		log = logger.Default()
	}

	return &Service{
		repo:       repo,
		cache:      summaryCache,
		alerts:     alertEngine,
		storeName:  storeName,
		summaryTTL: summaryTTL,
		log:        log.WithComponent("service"),
		bill:       bill.NewBuilder(),
	}
}

func (s *Service) ListInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	return s.repo.ListInventory(ctx)
}

// AddInventoryItem validates and registers a new batch. Every addition is a
// separate ledger entry even when name and batch match an existing one;
// merging batches would lose the per-batch expiry date.
func (s *Service) AddInventoryItem(ctx context.Context, req domain.InventoryItemCreateRequest) (*domain.InventoryItem, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Batch = strings.TrimSpace(req.Batch)

	if req.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Reason: "required"}
	}
	if req.Batch == "" {
		return nil, &domain.ValidationError{Field: "batch", Reason: "required"}
	}
	if !req.Quantity.IsPositive() {
		return nil, &domain.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if !req.PurchasePrice.IsPositive() {
		return nil, &domain.ValidationError{Field: "purchasePrice", Reason: "must be greater than zero"}
	}
	if !req.SellingPrice.IsPositive() {
		return nil, &domain.ValidationError{Field: "sellingPrice", Reason: "must be greater than zero"}
	}

	expiry, err := domain.ParseDay(req.ExpiryDate)
	if err != nil {
		return nil, &domain.ValidationError{Field: "expiryDate", Reason: "must be YYYY-MM-DD"}
	}
	if expiry.Before(domain.Today()) {
		return nil, &domain.ValidationError{Field: "expiryDate", Reason: "must not be in the past"}
	}

	item := domain.InventoryItem{
		ID:            xid.New("item"),
		Name:          req.Name,
		Batch:         req.Batch,
		Quantity:      req.Quantity,
		PurchasePrice: req.PurchasePrice,
		SellingPrice:  req.SellingPrice,
		ExpiryDate:    expiry,
	}

	created, err := s.repo.CreateInventoryItem(ctx, item)
	if err != nil {
		return nil, err
	}

	s.log.Infow("inventory item added", "id", created.ID, "name", created.Name, "batch", created.Batch)
	return created, nil
}

// SearchInventory matches the query case-insensitively against item name or
// batch number. Queries shorter than three characters return no results;
// one or two letters match most of a pharmacy shelf and just flood the till
// screen.
func (s *Service) SearchInventory(ctx context.Context, query string) ([]domain.InventoryItem, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 3 {
		return []domain.InventoryItem{}, nil
	}

	items, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matched := make([]domain.InventoryItem, 0, 8)
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Name), needle) ||
			strings.Contains(strings.ToLower(item.Batch), needle) {
			matched = append(matched, item)
		}
	}
	return matched, nil
}

func (s *Service) AddBillLine(ctx context.Context, itemID string) (domain.BillState, error) {
	item, err := s.repo.GetInventoryItem(ctx, itemID)
	if err != nil {
		return domain.BillState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bill.AddLine(*item)
	return s.bill.State(), nil
}

func (s *Service) SetBillLineQuantity(_ context.Context, itemID string, quantity decimal.Decimal) (domain.BillState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bill.SetLineQuantity(itemID, quantity); err != nil {
		return domain.BillState{}, err
	}
	return s.bill.State(), nil
}

func (s *Service) RemoveBillLine(_ context.Context, itemID string) (domain.BillState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bill.RemoveLine(itemID); err != nil {
		return domain.BillState{}, err
	}
	return s.bill.State(), nil
}

func (s *Service) ClearBill(_ context.Context) domain.BillState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bill.Clear()
	return s.bill.State()
}

func (s *Service) BillState(_ context.Context) domain.BillState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bill.State()
}

// CommitSale validates every line of the current bill (positive quantity,
// live stock, expiry), then applies the whole sale atomically. On any failure the bill
// and the ledgers are left untouched. The bill is cleared only after the
// store accepts the sale.
func (s *Service) CommitSale(ctx context.Context) (*domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bill.Empty() {
		return nil, &domain.EmptyBillError{}
	}

	lines := s.bill.Lines()
	today := domain.Today()

	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, &domain.ValidationError{Field: "quantity", Reason: "must be greater than zero"}
		}
		item, err := s.repo.GetInventoryItem(ctx, line.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, &domain.InsufficientStockError{
					Name:      line.Name,
					Batch:     line.Batch,
					Available: decimal.Zero,
					Requested: line.Quantity,
				}
			}
			return nil, err
		}
		if item.Quantity.LessThan(line.Quantity) {
			return nil, &domain.InsufficientStockError{
				Name:      item.Name,
				Batch:     item.Batch,
				Available: item.Quantity,
				Requested: line.Quantity,
			}
		}
		if item.ExpiredAsOf(today) {
			return nil, &domain.ExpiredStockError{
				Name:   item.Name,
				Batch:  item.Batch,
				Expiry: item.ExpiryDate,
			}
		}
	}

	sale := domain.Sale{
		ID:         xid.New("sale"),
		Date:       today,
		Items:      make([]domain.SaleLine, 0, len(lines)),
		GrandTotal: s.bill.GrandTotal(),
	}
	for _, line := range lines {
		sale.Items = append(sale.Items, domain.SaleLine{
			ItemID:    line.ItemID,
			Name:      line.Name,
			Batch:     line.Batch,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Total:     line.Total,
		})
	}

	if err := s.repo.ApplySale(ctx, sale); err != nil {
		return nil, err
	}

	s.bill.Clear()
	s.invalidateSummary(ctx, sale.Date)
	s.log.Infow("sale committed", "id", sale.ID, "lines", len(sale.Items), "grandTotal", sale.GrandTotal.StringFixed(2))
	return &sale, nil
}

func (s *Service) ListSales(ctx context.Context) ([]domain.Sale, error) {
	return s.repo.ListSales(ctx)
}

func (s *Service) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return s.repo.GetSale(ctx, id)
}

func (s *Service) RecordRecovery(ctx context.Context, req domain.RecoveryCreateRequest) (*domain.Recovery, error) {
	req.Source = strings.TrimSpace(req.Source)
	if req.Source == "" {
		return nil, &domain.ValidationError{Field: "source", Reason: "required"}
	}
	if !req.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	date, err := parseEntryDate(req.Date)
	if err != nil {
		return nil, err
	}

	rec := domain.Recovery{
		ID:          xid.New("recovery"),
		Date:        date,
		Amount:      req.Amount,
		Source:      req.Source,
		Description: strings.TrimSpace(req.Description),
	}
	created, err := s.repo.CreateRecovery(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, created.Date)
	return created, nil
}

func (s *Service) ListRecoveries(ctx context.Context) ([]domain.Recovery, error) {
	return s.repo.ListRecoveries(ctx)
}

func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseCreateRequest) (*domain.Expense, error) {
	req.Category = strings.TrimSpace(req.Category)
	if req.Category == "" {
		return nil, &domain.ValidationError{Field: "category", Reason: "required"}
	}
	if !req.Amount.IsPositive() {
		return nil, &domain.ValidationError{Field: "amount", Reason: "must be greater than zero"}
	}
	date, err := parseEntryDate(req.Date)
	if err != nil {
		return nil, err
	}

	exp := domain.Expense{
		ID:          xid.New("expense"),
		Date:        date,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: strings.TrimSpace(req.Description),
	}
	created, err := s.repo.CreateExpense(ctx, exp)
	if err != nil {
		return nil, err
	}
	s.invalidateSummary(ctx, created.Date)
	return created, nil
}

func (s *Service) ListExpenses(ctx context.Context) ([]domain.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

// parseEntryDate treats an empty date as today so the till can post entries
// without a date picker.
func parseEntryDate(raw string) (domain.Day, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Today(), nil
	}
	date, err := domain.ParseDay(raw)
	if err != nil {
		return domain.Day{}, &domain.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	return date, nil
}

func (s *Service) DailyReport(ctx context.Context, date domain.Day) (*domain.DailySummary, error) {
	key := s.summaryKey(date)
	if cached, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.log.Warnw("summary cache read failed", "key", key, "error", err)
	}

	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	recoveries, err := s.repo.ListRecoveries(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}

	summary := report.DailySummary(date, sales, recoveries, expenses)
	if err := s.cache.Set(ctx, key, &summary, s.summaryTTL); err != nil {
		s.log.Warnw("summary cache write failed", "key", key, "error", err)
	}
	return &summary, nil
}

func (s *Service) RangeReport(ctx context.Context, start, end domain.Day) (*domain.RangeResult, error) {
	sales, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	recoveries, err := s.repo.ListRecoveries(ctx)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, err
	}

	result, err := report.RangeSummary(start, end, sales, recoveries, expenses)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) StockAlerts(ctx context.Context) ([]domain.StockAlert, error) {
	items, err := s.repo.ListInventory(ctx)
	if err != nil {
		return nil, err
	}
	return s.alerts.Evaluate(items, domain.Today()), nil
}

// Receipt renders a committed sale as counter-printable plain text. Amounts
// are always shown with two decimal places.
func (s *Service) Receipt(ctx context.Context, saleID string) (string, error) {
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", strings.ToUpper(s.storeName))
	fmt.Fprintf(&b, "Sale %s\n", sale.ID)
	fmt.Fprintf(&b, "Date %s\n", sale.Date)
	b.WriteString(strings.Repeat("-", 40) + "\n")
	for _, line := range sale.Items {
		fmt.Fprintf(&b, "%s (batch %s)\n", line.Name, line.Batch)
		fmt.Fprintf(&b, "  %s x PKR %s = PKR %s\n",
			line.Quantity, line.UnitPrice.StringFixed(2), line.Total.StringFixed(2))
	}
	b.WriteString(strings.Repeat("-", 40) + "\n")
	fmt.Fprintf(&b, "TOTAL PKR %s\n", sale.GrandTotal.StringFixed(2))
	b.WriteString("Thank you for your purchase\n")
	return b.String(), nil
}

func (s *Service) summaryKey(date domain.Day) string {
	return fmt.Sprintf("summary:%s:%s", s.storeName, date)
}

func (s *Service) invalidateSummary(ctx context.Context, date domain.Day) {
	key := s.summaryKey(date)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warnw("summary cache invalidation failed", "key", key, "error", err)
	}
}
