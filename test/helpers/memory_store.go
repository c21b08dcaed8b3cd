// test/helpers/memory_store.go
package helpers

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// MemoryStore is an in-memory transactional store for service tests.
// Transactions run one at a time against a private copy of the committed state,
// which replaces the committed state only when the transaction function succeeds.
type MemoryStore struct {
	txMu    sync.Mutex
	stateMu sync.RWMutex
	state   *memState

	products   map[int64]domain.Product
	clients    map[int64]domain.Client
	warehouses map[int64]domain.Warehouse

	faultMu   sync.Mutex
	txFaults  []error
	auditErr  error
	saleErr   error
	TxBegins  int
	clockTick time.Time
}

type memState struct {
	inventory map[domain.Pair]domain.InventoryRow
	movements []domain.MovementEntry
	audit     []domain.AuditRecord
	sales     map[uuid.UUID]domain.Sale
	nextInv   int64
	nextMove  int64
	nextAudit int64
}

func (s *memState) clone() *memState {
	c := &memState{
		inventory: make(map[domain.Pair]domain.InventoryRow, len(s.inventory)),
		movements: append([]domain.MovementEntry(nil), s.movements...),
		audit:     append([]domain.AuditRecord(nil), s.audit...),
		sales:     make(map[uuid.UUID]domain.Sale, len(s.sales)),
		nextInv:   s.nextInv,
		nextMove:  s.nextMove,
		nextAudit: s.nextAudit,
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.sales {
		v.Lines = append([]domain.SaleLine(nil), v.Lines...)
		c.sales[k] = v
	}
	return c
}

// NewMemoryStore returns an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memState{
			inventory: map[domain.Pair]domain.InventoryRow{},
			sales:     map[uuid.UUID]domain.Sale{},
		},
		products:   map[int64]domain.Product{},
		clients:    map[int64]domain.Client{},
		warehouses: map[int64]domain.Warehouse{},
		clockTick:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

var (
	_ ports.TxManager       = (*MemoryStore)(nil)
	_ ports.InventoryReader = (*MemoryStore)(nil)
	_ ports.MovementReader  = (*MemoryStore)(nil)
	_ ports.AuditReader     = (*MemoryStore)(nil)
	_ ports.CatalogGateway  = (*MemoryStore)(nil)
)

// AddProduct registers a catalog product
func (m *MemoryStore) AddProduct(p domain.Product) {
	m.products[p.ID] = p
}

// AddClient registers a catalog client
func (m *MemoryStore) AddClient(c domain.Client) {
	m.clients[c.ID] = c
}

// AddWarehouse registers a catalog warehouse
func (m *MemoryStore) AddWarehouse(w domain.Warehouse) {
	m.warehouses[w.ID] = w
}

// FailNextTx makes the next transactions fail with errs, one per transaction, before fn runs
func (m *MemoryStore) FailNextTx(errs ...error) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.txFaults = append(m.txFaults, errs...)
}

// FailAuditAppend makes every audit append fail with err; nil clears it
func (m *MemoryStore) FailAuditAppend(err error) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.auditErr = err
}

// FailSaleInsert makes every sale insert fail with err; nil clears it
func (m *MemoryStore) FailSaleInsert(err error) {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.saleErr = err
}

// WithinTx implements ports.TxManager
func (m *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos ports.TxRepositories) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.faultMu.Lock()
	m.TxBegins++
	var fault error
	if len(m.txFaults) > 0 {
		fault, m.txFaults = m.txFaults[0], m.txFaults[1:]
	}
	m.faultMu.Unlock()
	if fault != nil {
		return fault
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.stateMu.RLock()
	work := m.state.clone()
	m.stateMu.RUnlock()

	if err := fn(ctx, &memTx{store: m, state: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.stateMu.Lock()
	m.state = work
	m.stateMu.Unlock()
	return nil
}

func (m *MemoryStore) tick() time.Time {
	m.faultMu.Lock()
	defer m.faultMu.Unlock()
	m.clockTick = m.clockTick.Add(time.Millisecond)
	return m.clockTick
}

// Get implements ports.InventoryReader
func (m *MemoryStore) Get(_ context.Context, warehouseID, productID int64) (*domain.InventoryRow, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	row, ok := m.state.inventory[domain.Pair{WarehouseID: warehouseID, ProductID: productID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

// ListLowStock implements ports.InventoryReader
func (m *MemoryStore) ListLowStock(_ context.Context, after domain.Pair, limit int) ([]domain.LowStockPair, error) {
	var out []domain.LowStockPair
	for _, row := range m.sortedRows(after) {
		if !row.IsLow() {
			continue
		}
		out = append(out, domain.LowStockPair{
			WarehouseID:      row.WarehouseID,
			ProductID:        row.ProductID,
			Stock:            row.Stock,
			ReorderThreshold: row.ReorderThreshold,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListRows implements ports.InventoryReader
func (m *MemoryStore) ListRows(_ context.Context, after domain.Pair, limit int) ([]domain.InventoryRow, error) {
	rows := m.sortedRows(after)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *MemoryStore) sortedRows(after domain.Pair) []domain.InventoryRow {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	rows := make([]domain.InventoryRow, 0, len(m.state.inventory))
	for _, row := range m.state.inventory {
		if after.Less(row.Pair()) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Pair().Less(rows[j].Pair()) })
	return rows
}

// ListByPair implements ports.MovementReader
func (m *MemoryStore) ListByPair(_ context.Context, warehouseID, productID int64) ([]domain.MovementEntry, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	var out []domain.MovementEntry
	for _, e := range m.state.movements {
		if e.WarehouseID == warehouseID && e.ProductID == productID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Replay implements ports.MovementReader
func (m *MemoryStore) Replay(_ context.Context, warehouseID, productID int64) (*domain.Reconciliation, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	rec := &domain.Reconciliation{WarehouseID: warehouseID, ProductID: productID}
	if row, ok := m.state.inventory[domain.Pair{WarehouseID: warehouseID, ProductID: productID}]; ok {
		rec.Stock = row.Stock
	}
	for _, e := range m.state.movements {
		if e.WarehouseID == warehouseID && e.ProductID == productID {
			rec.LedgerSum += e.Quantity
			rec.Movements++
		}
	}
	return rec, nil
}

// List implements ports.AuditReader, newest first
func (m *MemoryStore) List(_ context.Context, filter domain.AuditFilter) ([]domain.AuditRecord, error) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	var out []domain.AuditRecord
	for i := len(m.state.audit) - 1; i >= 0; i-- {
		rec := m.state.audit[i]
		if filter.WarehouseID != nil && (rec.WarehouseID == nil || *rec.WarehouseID != *filter.WarehouseID) {
			continue
		}
		if filter.ProductID != nil && (rec.ProductID == nil || *rec.ProductID != *filter.ProductID) {
			continue
		}
		if filter.From != nil && rec.OccurredAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rec.OccurredAt.After(*filter.To) {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// AuditRecords returns every committed audit record in append order
func (m *MemoryStore) AuditRecords() []domain.AuditRecord {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return append([]domain.AuditRecord(nil), m.state.audit...)
}

// AllMovements returns every committed movement in append order
func (m *MemoryStore) AllMovements() []domain.MovementEntry {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return append([]domain.MovementEntry(nil), m.state.movements...)
}

// SaleCount returns the number of committed sales
func (m *MemoryStore) SaleCount() int {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return len(m.state.sales)
}

// HasRow reports whether the pair has an inventory row
func (m *MemoryStore) HasRow(warehouseID, productID int64) bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	_, ok := m.state.inventory[domain.Pair{WarehouseID: warehouseID, ProductID: productID}]
	return ok
}

// Get for sales is exposed through Sales() to avoid clashing with the inventory reader
func (m *MemoryStore) Sales() ports.SaleReader {
	return memSaleReader{m}
}

type memSaleReader struct{ m *MemoryStore }

var _ ports.SaleReader = memSaleReader{}

func (r memSaleReader) Get(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	r.m.stateMu.RLock()
	defer r.m.stateMu.RUnlock()
	sale, ok := r.m.state.sales[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sale.Lines = append([]domain.SaleLine(nil), sale.Lines...)
	return &sale, nil
}

// GetActiveProduct implements ports.CatalogGateway
func (m *MemoryStore) GetActiveProduct(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok || !p.Active {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

// GetClient implements ports.CatalogGateway
func (m *MemoryStore) GetClient(_ context.Context, id int64) (*domain.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// GetWarehouse implements ports.CatalogGateway
func (m *MemoryStore) GetWarehouse(_ context.Context, id int64) (*domain.Warehouse, error) {
	w, ok := m.warehouses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &w, nil
}

type memTx struct {
	store *MemoryStore
	state *memState
}

func (t *memTx) Inventory() ports.InventoryStore { return memInventory{t} }
func (t *memTx) Movements() ports.MovementStore  { return memMovements{t} }
func (t *memTx) Audit() ports.AuditStore         { return memAudit{t} }
func (t *memTx) Sales() ports.SaleStore          { return memSales{t} }

type memInventory struct{ tx *memTx }

func (s memInventory) GetForUpdate(_ context.Context, warehouseID, productID int64) (*domain.InventoryRow, error) {
	row, ok := s.tx.state.inventory[domain.Pair{WarehouseID: warehouseID, ProductID: productID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (s memInventory) Insert(_ context.Context, row *domain.InventoryRow) (bool, error) {
	key := row.Pair()
	if _, ok := s.tx.state.inventory[key]; ok {
		return false, nil
	}
	s.tx.state.nextInv++
	row.ID = s.tx.state.nextInv
	row.UpdatedAt = s.tx.store.tick()
	s.tx.state.inventory[key] = *row
	return true, nil
}

func (s memInventory) Update(_ context.Context, row *domain.InventoryRow) error {
	key := row.Pair()
	if _, ok := s.tx.state.inventory[key]; !ok {
		return domain.ErrNotFound
	}
	row.UpdatedAt = s.tx.store.tick()
	s.tx.state.inventory[key] = *row
	return nil
}

type memMovements struct{ tx *memTx }

func (s memMovements) Append(_ context.Context, entry *domain.MovementEntry) error {
	s.tx.state.nextMove++
	entry.ID = s.tx.state.nextMove
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = s.tx.store.tick()
	}
	s.tx.state.movements = append(s.tx.state.movements, *entry)
	return nil
}

type memAudit struct{ tx *memTx }

func (s memAudit) Append(_ context.Context, rec *domain.AuditRecord) error {
	s.tx.store.faultMu.Lock()
	err := s.tx.store.auditErr
	s.tx.store.faultMu.Unlock()
	if err != nil {
		return err
	}
	s.tx.state.nextAudit++
	rec.ID = s.tx.state.nextAudit
	s.tx.state.audit = append(s.tx.state.audit, *rec)
	return nil
}

type memSales struct{ tx *memTx }

func (s memSales) Insert(_ context.Context, sale *domain.Sale) error {
	s.tx.store.faultMu.Lock()
	err := s.tx.store.saleErr
	s.tx.store.faultMu.Unlock()
	if err != nil {
		return err
	}
	stored := *sale
	stored.Lines = append([]domain.SaleLine(nil), sale.Lines...)
	s.tx.state.sales[sale.ID] = stored
	return nil
}

func (s memSales) GetForUpdate(_ context.Context, id uuid.UUID) (*domain.Sale, error) {
	sale, ok := s.tx.state.sales[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sale.Lines = append([]domain.SaleLine(nil), sale.Lines...)
	return &sale, nil
}

func (s memSales) UpdateStatus(_ context.Context, sale *domain.Sale) error {
	stored, ok := s.tx.state.sales[sale.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Status = sale.Status
	stored.UpdatedAt = sale.UpdatedAt
	s.tx.state.sales[sale.ID] = stored
	return nil
}
