package mirror

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pharmatrace/gateway/internal/models"
)

type MemoryStore struct {
	mu       sync.RWMutex
	workers  []models.WorkerDoc
	products []models.ProductDoc
	statuses []models.StatusDoc
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveWorker(ctx context.Context, in WorkerDocInput) (models.WorkerDoc, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	doc := models.WorkerDoc{
		ID:            in.ID,
		WorkerID:      in.WorkerID,
		Name:          in.Name,
		Role:          in.Role,
		WalletAddress: in.WalletAddress,
		TxHash:        in.TxHash,
		CreatedAt:     time.Now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers = append(m.workers, doc)
	return doc, nil
}

func (m *MemoryStore) ListWorkers(ctx context.Context) ([]models.WorkerDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.WorkerDoc, len(m.workers))
	copy(out, m.workers)
	sort.SliceStable(out, func(i, j int) bool { return out[i].WorkerID < out[j].WorkerID })
	return out, nil
}

func (m *MemoryStore) SaveProduct(ctx context.Context, in ProductDocInput) (models.ProductDoc, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	doc := models.ProductDoc{
		ID:          in.ID,
		ProductID:   in.ProductID,
		Name:        in.Name,
		Description: in.Description,
		MinTemp:     in.MinTemp,
		MaxTemp:     in.MaxTemp,
		MinHumidity: in.MinHumidity,
		MaxHumidity: in.MaxHumidity,
		Quantity:    in.Quantity,
		MfgDate:     in.MfgDate,
		TxHash:      in.TxHash,
		CreatedAt:   time.Now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = append(m.products, doc)
	return doc, nil
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.ProductDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ProductDoc, len(m.products))
	copy(out, m.products)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (m *MemoryStore) SaveStatus(ctx context.Context, in StatusDocInput) (models.StatusDoc, error) {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	doc := models.StatusDoc{
		ID:          in.ID,
		ProductID:   in.ProductID,
		Location:    in.Location,
		Temperature: in.Temperature,
		Humidity:    in.Humidity,
		HeatIndex:   in.HeatIndex,
		WorkerID:    in.WorkerID,
		Quantity:    in.Quantity,
		TxHash:      in.TxHash,
		CreatedAt:   time.Now().UTC(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, doc)
	return doc, nil
}

func (m *MemoryStore) StatusByProduct(ctx context.Context, productID int) ([]models.StatusDoc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.StatusDoc
	for _, doc := range m.statuses {
		if doc.ProductID == productID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }
