package repo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rogerio-castellano/stock-ledger/internal/ledger"
	"github.com/rogerio-castellano/stock-ledger/internal/models"
)

const defaultSearchLimit = 10

var errTxDone = errors.New("transaction already finished")

// MemoryStore is an in-memory implementation of the ledger store and the read
// repositories. It backs the handler test suites and the stress tool. A keyed
// lock table gives the same per-SKU serialization semantics as the Postgres
// row locks: same-SKU transactions queue, different SKUs run in parallel.
type MemoryStore struct {
	mu           sync.Mutex
	locks        *keyLock
	items        map[string]models.StockItem
	entries      []models.LedgerEntry
	alerts       []models.StockAlert
	reservations map[string]models.OrderReservation
	nextEntryID  int
	nextAlertID  int

	appendErr error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		locks:        newKeyLock(),
		items:        make(map[string]models.StockItem),
		reservations: make(map[string]models.OrderReservation),
		nextEntryID:  1,
		nextAlertID:  1,
	}
}

// FailNextAppend makes the next ledger append fail with err, so tests can
// exercise the all-or-nothing rollback path deterministically.
func (s *MemoryStore) FailNextAppend(err error) {
	s.mu.Lock()
	s.appendErr = err
	s.mu.Unlock()
}

// Begin starts a transaction. Writes are staged and only become visible to
// other callers on Commit; Rollback discards them and releases any row locks.
func (s *MemoryStore) Begin(ctx context.Context) (ledger.Tx, error) {
	return &memoryTx{
		store: s,
		items: make(map[string]models.StockItem),
	}, nil
}

type memoryTx struct {
	store        *MemoryStore
	held         []string
	items        map[string]models.StockItem
	entries      []models.LedgerEntry
	alerts       []models.StockAlert
	reservations []models.OrderReservation
	done         bool
}

func (tx *memoryTx) holds(sku string) bool {
	for _, held := range tx.held {
		if held == sku {
			return true
		}
	}
	return false
}

func (tx *memoryTx) ItemForUpdate(ctx context.Context, sku string) (models.StockItem, error) {
	if tx.done {
		return models.StockItem{}, errTxDone
	}
	if !tx.holds(sku) {
		if err := tx.store.locks.Acquire(ctx, sku); err != nil {
			return models.StockItem{}, err
		}
		tx.held = append(tx.held, sku)
	}

	if item, ok := tx.items[sku]; ok {
		return item, nil
	}

	tx.store.mu.Lock()
	item, ok := tx.store.items[sku]
	tx.store.mu.Unlock()
	if !ok {
		return models.StockItem{}, ledger.ErrItemNotFound
	}
	return item, nil
}

func (tx *memoryTx) SetQuantity(ctx context.Context, sku string, quantity int) (models.StockItem, error) {
	if tx.done {
		return models.StockItem{}, errTxDone
	}
	if !tx.holds(sku) {
		return models.StockItem{}, fmt.Errorf("sku %s not locked by this transaction", sku)
	}

	item, err := tx.ItemForUpdate(ctx, sku)
	if err != nil {
		return models.StockItem{}, err
	}
	item.Quantity = quantity
	item.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	tx.items[sku] = item
	return item, nil
}

func (tx *memoryTx) AppendEntry(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	if tx.done {
		return models.LedgerEntry{}, errTxDone
	}
	if !tx.holds(entry.SKU) {
		return models.LedgerEntry{}, fmt.Errorf("sku %s not locked by this transaction", entry.SKU)
	}

	s := tx.store
	s.mu.Lock()
	if s.appendErr != nil {
		err := s.appendErr
		s.appendErr = nil
		s.mu.Unlock()
		return models.LedgerEntry{}, err
	}
	// ID is reserved immediately, like a database sequence: a rollback leaves
	// a gap but never reuses an id.
	entry.ID = s.nextEntryID
	s.nextEntryID++
	s.mu.Unlock()

	entry.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	tx.entries = append(tx.entries, entry)
	return entry, nil
}

func (tx *memoryTx) CreateAlert(ctx context.Context, alert models.StockAlert) (models.StockAlert, error) {
	if tx.done {
		return models.StockAlert{}, errTxDone
	}
	if !tx.holds(alert.SKU) {
		return models.StockAlert{}, fmt.Errorf("sku %s not locked by this transaction", alert.SKU)
	}

	s := tx.store
	s.mu.Lock()
	alert.ID = s.nextAlertID
	s.nextAlertID++
	s.mu.Unlock()

	alert.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	tx.alerts = append(tx.alerts, alert)
	return alert, nil
}

func (tx *memoryTx) UpsertReservation(ctx context.Context, res models.OrderReservation) error {
	if tx.done {
		return errTxDone
	}
	tx.reservations = append(tx.reservations, res)
	return nil
}

func (tx *memoryTx) Commit() error {
	if tx.done {
		return errTxDone
	}

	s := tx.store
	s.mu.Lock()
	for sku, item := range tx.items {
		s.items[sku] = item
	}
	s.entries = append(s.entries, tx.entries...)
	s.alerts = append(s.alerts, tx.alerts...)
	for _, res := range tx.reservations {
		s.reservations[res.ID] = res
	}
	s.mu.Unlock()

	tx.finish()
	return nil
}

func (tx *memoryTx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.finish()
	return nil
}

func (tx *memoryTx) finish() {
	for _, sku := range tx.held {
		tx.store.locks.Release(sku)
	}
	tx.held = nil
	tx.done = true
}

// Create provisions a stock record with its initial quantity.
func (s *MemoryStore) Create(item models.StockItem) (models.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.SKU]; ok {
		return models.StockItem{}, ErrItemAlreadyExists
	}
	now := time.Now().UTC().Format(time.RFC3339)
	item.CreatedAt = now
	item.UpdatedAt = now
	s.items[item.SKU] = item
	return item, nil
}

// GetBySKU is the unlocked read of a stock record.
func (s *MemoryStore) GetBySKU(sku string) (models.StockItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[sku]
	if !ok {
		return models.StockItem{}, ledger.ErrItemNotFound
	}
	return item, nil
}

// Search returns SKUs containing query, case-insensitively, in ascending
// order.
func (s *MemoryStore) Search(query string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var skus []string
	for sku := range s.items {
		if strings.Contains(strings.ToLower(sku), strings.ToLower(query)) {
			skus = append(skus, sku)
		}
	}
	sort.Strings(skus)
	if len(skus) > limit {
		skus = skus[:limit]
	}
	return skus, nil
}

// MemoryLedgerRepository reads the ledger entries held by a MemoryStore.
type MemoryLedgerRepository struct {
	store *MemoryStore
}

func NewMemoryLedgerRepository(store *MemoryStore) *MemoryLedgerRepository {
	return &MemoryLedgerRepository{store: store}
}

// GetBySKU returns ledger entries for a SKU, newest first, optionally
// filtered by date range and paginated.
func (r *MemoryLedgerRepository) GetBySKU(sku string, lf LedgerFilter) ([]models.LedgerEntry, int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var filtered []models.LedgerEntry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.SKU != sku {
			continue
		}
		if (lf.Since != nil && e.CreatedAt < lf.Since.UTC().Format(time.RFC3339)) ||
			(lf.Until != nil && e.CreatedAt > lf.Until.UTC().Format(time.RFC3339)) {
			continue
		}
		filtered = append(filtered, e)
	}

	if lf.Offset != nil && *lf.Offset > len(filtered) {
		return []models.LedgerEntry{}, len(filtered), nil
	}

	start := 0
	if lf.Offset != nil {
		start = clamp(*lf.Offset, 0, len(filtered))
	}

	limit := defaultLedgerLimit
	if lf.Limit != nil && *lf.Limit > 0 {
		limit = min(*lf.Limit, defaultLedgerLimit)
	}
	end := clamp(start+limit, start, len(filtered))

	return filtered[start:end], len(filtered), nil
}

// MemoryAlertRepository reads the stock alerts held by a MemoryStore.
type MemoryAlertRepository struct {
	store *MemoryStore
}

func NewMemoryAlertRepository(store *MemoryStore) *MemoryAlertRepository {
	return &MemoryAlertRepository{store: store}
}

// GetBySKU returns alerts for a SKU, newest first.
func (r *MemoryAlertRepository) GetBySKU(sku string) ([]models.StockAlert, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var alerts []models.StockAlert
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].SKU == sku {
			alerts = append(alerts, s.alerts[i])
		}
	}
	return alerts, nil
}

// Reservation returns the committed reservation for an order id, if any.
func (s *MemoryStore) Reservation(orderID string) (models.OrderReservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, ok := s.reservations[orderID]
	return res, ok
}

// Clear empties the store. Test helper.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]models.StockItem)
	s.entries = nil
	s.alerts = nil
	s.reservations = make(map[string]models.OrderReservation)
	s.nextEntryID = 1
	s.nextAlertID = 1
	s.appendErr = nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
