package ledger

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pharmatrace/gateway/internal/models"
)

// MemoryLedger is an in-process ledger used by tests and local development.
// It mimics the contract's storage semantics: append-only histories,
// sequential ids, monotonic spoilage.
type MemoryLedger struct {
	mu        sync.RWMutex
	workers   []models.Worker
	products  []models.Product
	histories map[int][]models.StatusEvent
	txSeq     int

	// FailHistory injects a per-product history read error, for exercising
	// the evaluator's soft-failure path.
	FailHistory map[int]error
	// Unavailable makes every call fail with ErrUnavailable.
	Unavailable bool
}

var _ Client = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		histories:   map[int][]models.StatusEvent{},
		FailHistory: map[int]error{},
	}
}

func (m *MemoryLedger) GetWorker(ctx context.Context, id int) (models.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Unavailable {
		return models.Worker{}, ErrUnavailable
	}
	if id < 0 || id >= len(m.workers) {
		return models.Worker{}, ErrNotFound
	}
	return m.workers[id], nil
}

func (m *MemoryLedger) ListWorkers(ctx context.Context) ([]models.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Unavailable {
		return nil, ErrUnavailable
	}
	out := make([]models.Worker, len(m.workers))
	copy(out, m.workers)
	return out, nil
}

func (m *MemoryLedger) ProductCount(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Unavailable {
		return 0, ErrUnavailable
	}
	return len(m.products), nil
}

func (m *MemoryLedger) GetProduct(ctx context.Context, id int) (models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Unavailable {
		return models.Product{}, ErrUnavailable
	}
	if id < 0 || id >= len(m.products) {
		return models.Product{}, ErrNotFound
	}
	return m.products[id], nil
}

func (m *MemoryLedger) ProductHistory(ctx context.Context, id int) ([]models.StatusEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Unavailable {
		return nil, ErrUnavailable
	}
	if err, ok := m.FailHistory[id]; ok {
		return nil, err
	}
	history := m.histories[id]
	out := make([]models.StatusEvent, len(history))
	copy(out, history)
	return out, nil
}

func (m *MemoryLedger) RegisterWorker(ctx context.Context, in WorkerInput) (TxResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return TxResult{}, ErrUnavailable
	}
	id := len(m.workers)
	m.workers = append(m.workers, models.Worker{
		ID:            id,
		Name:          in.Name,
		Role:          in.Role,
		WalletAddress: in.WalletAddress,
	})
	return TxResult{TxHash: m.nextTxHash(), AssignedID: id}, nil
}

func (m *MemoryLedger) RegisterProduct(ctx context.Context, in ProductInput) (TxResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return TxResult{}, ErrUnavailable
	}
	id := len(m.products)
	m.products = append(m.products, models.Product{
		ID:           id,
		Name:         in.Name,
		Description:  in.Description,
		MinTemp:      in.MinTemp,
		MaxTemp:      in.MaxTemp,
		MinHumidity:  in.MinHumidity,
		MaxHumidity:  in.MaxHumidity,
		Quantity:     in.Quantity,
		MfgDate:      in.MfgDate,
		RegisteredAt: time.Now().Unix(),
		CurrentOwner: -1,
	})
	return TxResult{TxHash: m.nextTxHash(), AssignedID: id}, nil
}

func (m *MemoryLedger) SubmitStatus(ctx context.Context, in StatusInput) (TxResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Unavailable {
		return TxResult{}, ErrUnavailable
	}
	if in.ProductID < 0 || in.ProductID >= len(m.products) {
		return TxResult{}, ErrNotFound
	}
	if strings.TrimSpace(m.products[in.ProductID].Name) == "" {
		return TxResult{}, ErrNotFound
	}
	ev := models.StatusEvent{
		Location:          in.Location,
		Temperature:       in.Temperature,
		Humidity:          in.Humidity,
		HeatIndex:         in.HeatIndex,
		WorkerID:          in.WorkerID,
		ProductID:         in.ProductID,
		Quantity:          in.Quantity,
		QualityMaintained: in.QualityMaintained,
		Timestamp:         time.Now().Unix(),
	}
	m.histories[in.ProductID] = append(m.histories[in.ProductID], ev)
	p := m.products[in.ProductID]
	p.CurrentOwner = in.WorkerID
	if !in.QualityMaintained {
		p.Spoiled = true
	}
	m.products[in.ProductID] = p
	return TxResult{TxHash: m.nextTxHash(), AssignedID: -1}, nil
}

// SeedWorker, SeedProduct and SeedEvent bypass transaction plumbing so
// tests can lay out ledger state directly.

func (m *MemoryLedger) SeedWorker(w models.Worker) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.ID = len(m.workers)
	m.workers = append(m.workers, w)
	return w.ID
}

func (m *MemoryLedger) SeedProduct(p models.Product) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = len(m.products)
	m.products = append(m.products, p)
	return p.ID
}

func (m *MemoryLedger) SeedEvent(productID int, ev models.StatusEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev.ProductID = productID
	m.histories[productID] = append(m.histories[productID], ev)
}

func (m *MemoryLedger) MarkSpoiled(productID int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if productID >= 0 && productID < len(m.products) {
		m.products[productID].Spoiled = true
	}
}

func (m *MemoryLedger) nextTxHash() string {
	m.txSeq++
	return fmt.Sprintf("0x%064x", m.txSeq)
}
