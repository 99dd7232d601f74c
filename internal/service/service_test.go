package service_test

import (
	"context"
	"errors"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmatrace/gateway/internal/audit"
	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/mirror"
	"github.com/pharmatrace/gateway/internal/models"
	"github.com/pharmatrace/gateway/internal/service"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (p *capturePublisher) Publish(ctx context.Context, ev audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.EventType
	}
	return out
}

type captureArchiver struct {
	mu     sync.Mutex
	events []audit.Event
}

func (a *captureArchiver) ArchiveEvent(ctx context.Context, ev audit.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, ev)
	return nil
}

func newService(t *testing.T) (*service.Service, *ledger.MemoryLedger, *mirror.MemoryStore, *capturePublisher, *captureArchiver) {
	t.Helper()
	led := ledger.NewMemoryLedger()
	store := mirror.NewMemoryStore()
	pub := &capturePublisher{}
	arc := &captureArchiver{}
	svc := service.New(led, store, service.Config{
		Publisher: pub,
		Archiver:  arc,
		Logger:    log.New(os.Stderr, "[service-test] ", 0),
	})
	return svc, led, store, pub, arc
}

func TestRegisterWorker(t *testing.T) {
	svc, led, store, pub, _ := newService(t)

	doc, err := svc.RegisterWorker(context.Background(), service.RegisterWorkerRequest{
		Name:          "Dana",
		Role:          models.RoleTransporter,
		WalletAddress: "0xdead",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, doc.WorkerID)
	assert.Equal(t, "Dana", doc.Name)
	assert.NotEmpty(t, doc.TxHash)

	w, err := led.GetWorker(context.Background(), doc.WorkerID)
	require.NoError(t, err)
	assert.Equal(t, "Dana", w.Name)

	docs, err := store.ListWorkers(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, doc.TxHash, docs[0].TxHash)

	assert.Equal(t, []string{audit.EventWorkerRegistered}, pub.types())
}

func TestRegisterWorkerValidation(t *testing.T) {
	svc, _, _, pub, _ := newService(t)

	cases := []service.RegisterWorkerRequest{
		{Name: "", Role: models.RoleTransporter, WalletAddress: "0x1"},
		{Name: "   ", Role: models.RoleTransporter, WalletAddress: "0x1"},
		{Name: "Dana", Role: models.RoleTransporter, WalletAddress: ""},
		{Name: "Dana", Role: models.Role(99), WalletAddress: "0x1"},
	}
	for _, req := range cases {
		_, err := svc.RegisterWorker(context.Background(), req)
		assert.True(t, errors.Is(err, service.ErrValidation), "req %+v", req)
	}
	assert.Empty(t, pub.types())
}

func TestRegisterWorkerLedgerDown(t *testing.T) {
	svc, led, _, pub, _ := newService(t)
	led.Unavailable = true

	_, err := svc.RegisterWorker(context.Background(), service.RegisterWorkerRequest{
		Name: "Dana", Role: models.RoleTransporter, WalletAddress: "0x1",
	})
	assert.True(t, errors.Is(err, ledger.ErrUnavailable))
	assert.Empty(t, pub.types())
}

func TestRegisterProduct(t *testing.T) {
	svc, led, _, pub, _ := newService(t)

	doc, err := svc.RegisterProduct(context.Background(), service.RegisterProductRequest{
		Name:        "Insulin",
		Description: "Cold chain",
		MinTemp:     2,
		MaxTemp:     8,
		MinHumidity: 30,
		MaxHumidity: 70,
		Quantity:    100,
		MfgDate:     "2026-01-15",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, doc.ProductID)

	p, err := led.GetProduct(context.Background(), doc.ProductID)
	require.NoError(t, err)
	assert.Equal(t, "Insulin", p.Name)
	assert.Equal(t, 2.0, p.MinTemp)

	assert.Equal(t, []string{audit.EventProductRegistered}, pub.types())
}

func TestRegisterProductValidation(t *testing.T) {
	svc, _, _, _, _ := newService(t)

	cases := []service.RegisterProductRequest{
		{Name: "", MinTemp: 2, MaxTemp: 8, Quantity: 1},
		{Name: "Insulin", MinTemp: 9, MaxTemp: 8, Quantity: 1},
		{Name: "Insulin", MinTemp: 2, MaxTemp: 8, MinHumidity: 80, MaxHumidity: 70, Quantity: 1},
		{Name: "Insulin", MinTemp: 2, MaxTemp: 8, Quantity: 0},
	}
	for _, req := range cases {
		_, err := svc.RegisterProduct(context.Background(), req)
		assert.True(t, errors.Is(err, service.ErrValidation), "req %+v", req)
	}
}

func TestUpdateStatus(t *testing.T) {
	svc, led, store, pub, arc := newService(t)
	wid := led.SeedWorker(models.Worker{Name: "Dana", Role: models.RoleTransporter})
	pid := led.SeedProduct(models.Product{Name: "Insulin", MinTemp: 2, MaxTemp: 8})

	doc, err := svc.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		ProductID:   pid,
		WorkerID:    wid,
		Location:    "Dock 2",
		Temperature: 5,
		Humidity:    40,
		Quantity:    10,
	})
	require.NoError(t, err)
	assert.Equal(t, pid, doc.ProductID)
	// Derived server-side when the reading omits it.
	assert.Equal(t, service.HeatIndexCelsius(5, 40), doc.HeatIndex)

	history, err := led.ProductHistory(context.Background(), pid)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].QualityMaintained)

	statuses, err := store.StatusByProduct(context.Background(), pid)
	require.NoError(t, err)
	assert.Len(t, statuses, 1)

	assert.Equal(t, []string{audit.EventStatusUpdated}, pub.types())
	assert.Len(t, arc.events, 1)
}

func TestUpdateStatusExplicitReading(t *testing.T) {
	svc, led, _, _, _ := newService(t)
	wid := led.SeedWorker(models.Worker{Name: "Dana", Role: models.RoleTransporter})
	pid := led.SeedProduct(models.Product{Name: "Insulin"})

	hi := 3.5
	quality := false
	doc, err := svc.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		ProductID:         pid,
		WorkerID:          wid,
		Location:          "Dock 2",
		Temperature:       5,
		Humidity:          40,
		HeatIndex:         &hi,
		Quantity:          10,
		QualityMaintained: &quality,
	})
	require.NoError(t, err)
	assert.Equal(t, 3.5, doc.HeatIndex)

	p, err := led.GetProduct(context.Background(), pid)
	require.NoError(t, err)
	assert.True(t, p.Spoiled)
}

func TestUpdateStatusValidation(t *testing.T) {
	svc, led, _, _, _ := newService(t)
	wid := led.SeedWorker(models.Worker{Name: "Dana", Role: models.RoleTransporter})

	cases := []service.UpdateStatusRequest{
		{WorkerID: wid, Location: "", Quantity: 1, Humidity: 40},
		{WorkerID: wid, Location: "Dock", Quantity: 0, Humidity: 40},
		{WorkerID: wid, Location: "Dock", Quantity: 1, Humidity: -5},
		{WorkerID: wid, Location: "Dock", Quantity: 1, Humidity: 101},
	}
	for _, req := range cases {
		_, err := svc.UpdateStatus(context.Background(), req)
		assert.True(t, errors.Is(err, service.ErrValidation), "req %+v", req)
	}
}

func TestUpdateStatusUnknownWorker(t *testing.T) {
	svc, led, _, pub, _ := newService(t)
	led.SeedProduct(models.Product{Name: "Insulin"})

	_, err := svc.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		ProductID: 0,
		WorkerID:  42,
		Location:  "Dock 2",
		Humidity:  40,
		Quantity:  10,
	})
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
	assert.Empty(t, pub.types())
}

func TestUpdateStatusPublishFailureIsSoft(t *testing.T) {
	svc, led, _, pub, _ := newService(t)
	pub.err = errors.New("brokers down")
	wid := led.SeedWorker(models.Worker{Name: "Dana", Role: models.RoleTransporter})
	pid := led.SeedProduct(models.Product{Name: "Insulin"})

	_, err := svc.UpdateStatus(context.Background(), service.UpdateStatusRequest{
		ProductID: pid,
		WorkerID:  wid,
		Location:  "Dock 2",
		Humidity:  40,
		Quantity:  10,
	})
	assert.NoError(t, err)
}

func TestHeatIndexCelsius(t *testing.T) {
	// Below the regression cutoff the simple formula applies; a mild
	// reading stays close to air temperature.
	mild := service.HeatIndexCelsius(5, 40)
	assert.InDelta(t, 3.5, mild, 2.0)

	// 32°C at 70% humidity is a textbook muggy day; NWS tables put the
	// heat index around 41°C.
	hot := service.HeatIndexCelsius(32, 70)
	assert.InDelta(t, 41, hot, 1.5)

	// Dry heat reads lower than humid heat at the same temperature.
	assert.Less(t, service.HeatIndexCelsius(32, 20), hot)
}
