// Package service implements the gateway write path: validate, submit the
// contract transaction, mirror the document off-chain, emit audit events.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/pharmatrace/gateway/internal/audit"
	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/mirror"
	"github.com/pharmatrace/gateway/internal/models"
)

// ErrValidation marks input rejected before any ledger access.
var ErrValidation = errors.New("invalid input")

type Service struct {
	chain     ledger.Client
	mirror    mirror.Store
	publisher audit.Publisher
	archiver  audit.Archiver
	logger    *log.Logger
}

// Config carries optional collaborators. Publisher defaults to a nop;
// Archiver may stay nil when no bucket is configured.
type Config struct {
	Publisher audit.Publisher
	Archiver  audit.Archiver
	Logger    *log.Logger
}

func New(chain ledger.Client, store mirror.Store, cfg Config) *Service {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = audit.NopPublisher{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[gateway] ", log.LstdFlags)
	}
	return &Service{
		chain:     chain,
		mirror:    store,
		publisher: publisher,
		archiver:  cfg.Archiver,
		logger:    logger,
	}
}

type RegisterWorkerRequest struct {
	Name          string      `json:"name"`
	Role          models.Role `json:"role"`
	WalletAddress string      `json:"walletAddress"`
}

func (s *Service) RegisterWorker(ctx context.Context, req RegisterWorkerRequest) (models.WorkerDoc, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.WorkerDoc{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.WalletAddress == "" {
		return models.WorkerDoc{}, fmt.Errorf("%w: walletAddress required", ErrValidation)
	}
	if req.Role.String() == "UNKNOWN" {
		return models.WorkerDoc{}, fmt.Errorf("%w: unknown role", ErrValidation)
	}

	tx, err := s.chain.RegisterWorker(ctx, ledger.WorkerInput{
		Name:          req.Name,
		Role:          req.Role,
		WalletAddress: req.WalletAddress,
	})
	if err != nil {
		return models.WorkerDoc{}, fmt.Errorf("register worker: %w", err)
	}

	doc, err := s.mirror.SaveWorker(ctx, mirror.WorkerDocInput{
		WorkerID:      tx.AssignedID,
		Name:          req.Name,
		Role:          req.Role,
		WalletAddress: req.WalletAddress,
		TxHash:        tx.TxHash,
	})
	if err != nil {
		// The on-chain write already happened; the mirror is behind until
		// the doc is re-synced, but the registration stands.
		return models.WorkerDoc{}, fmt.Errorf("mirror worker: %w", err)
	}

	s.emit(ctx, audit.EventWorkerRegistered, tx.TxHash, doc, false)
	return doc, nil
}

type RegisterProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinTemp     float64 `json:"minTemp"`
	MaxTemp     float64 `json:"maxTemp"`
	MinHumidity float64 `json:"minHumidity"`
	MaxHumidity float64 `json:"maxHumidity"`
	Quantity    int     `json:"quantity"`
	MfgDate     string  `json:"mfgDate"`
}

func (s *Service) RegisterProduct(ctx context.Context, req RegisterProductRequest) (models.ProductDoc, error) {
	if strings.TrimSpace(req.Name) == "" {
		return models.ProductDoc{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	if req.MinTemp > req.MaxTemp {
		return models.ProductDoc{}, fmt.Errorf("%w: minTemp exceeds maxTemp", ErrValidation)
	}
	if req.MinHumidity > req.MaxHumidity {
		return models.ProductDoc{}, fmt.Errorf("%w: minHumidity exceeds maxHumidity", ErrValidation)
	}
	if req.Quantity <= 0 {
		return models.ProductDoc{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}

	tx, err := s.chain.RegisterProduct(ctx, ledger.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		MinTemp:     req.MinTemp,
		MaxTemp:     req.MaxTemp,
		MinHumidity: req.MinHumidity,
		MaxHumidity: req.MaxHumidity,
		Quantity:    req.Quantity,
		MfgDate:     req.MfgDate,
	})
	if err != nil {
		return models.ProductDoc{}, fmt.Errorf("register product: %w", err)
	}

	doc, err := s.mirror.SaveProduct(ctx, mirror.ProductDocInput{
		ProductID:   tx.AssignedID,
		Name:        req.Name,
		Description: req.Description,
		MinTemp:     req.MinTemp,
		MaxTemp:     req.MaxTemp,
		MinHumidity: req.MinHumidity,
		MaxHumidity: req.MaxHumidity,
		Quantity:    req.Quantity,
		MfgDate:     req.MfgDate,
		TxHash:      tx.TxHash,
	})
	if err != nil {
		return models.ProductDoc{}, fmt.Errorf("mirror product: %w", err)
	}

	s.emit(ctx, audit.EventProductRegistered, tx.TxHash, doc, false)
	return doc, nil
}

type UpdateStatusRequest struct {
	ProductID         int      `json:"productId"`
	WorkerID          int      `json:"workerId"`
	Location          string   `json:"location"`
	Temperature       float64  `json:"temperature"`
	Humidity          float64  `json:"humidity"`
	HeatIndex         *float64 `json:"heatIndex"`
	Quantity          int      `json:"quantity"`
	QualityMaintained *bool    `json:"qualityMaintained"`
}

func (s *Service) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (models.StatusDoc, error) {
	if strings.TrimSpace(req.Location) == "" {
		return models.StatusDoc{}, fmt.Errorf("%w: location required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return models.StatusDoc{}, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if req.Humidity < 0 || req.Humidity > 100 {
		return models.StatusDoc{}, fmt.Errorf("%w: humidity must be within [0,100]", ErrValidation)
	}
	if _, err := s.chain.GetWorker(ctx, req.WorkerID); err != nil {
		return models.StatusDoc{}, fmt.Errorf("worker %d: %w", req.WorkerID, err)
	}

	heatIndex := HeatIndexCelsius(req.Temperature, req.Humidity)
	if req.HeatIndex != nil {
		heatIndex = *req.HeatIndex
	}
	quality := true
	if req.QualityMaintained != nil {
		quality = *req.QualityMaintained
	}

	tx, err := s.chain.SubmitStatus(ctx, ledger.StatusInput{
		ProductID:         req.ProductID,
		WorkerID:          req.WorkerID,
		Location:          req.Location,
		Temperature:       req.Temperature,
		Humidity:          req.Humidity,
		HeatIndex:         heatIndex,
		Quantity:          req.Quantity,
		QualityMaintained: quality,
	})
	if err != nil {
		return models.StatusDoc{}, fmt.Errorf("submit status: %w", err)
	}

	doc, err := s.mirror.SaveStatus(ctx, mirror.StatusDocInput{
		ProductID:   req.ProductID,
		Location:    req.Location,
		Temperature: req.Temperature,
		Humidity:    req.Humidity,
		HeatIndex:   heatIndex,
		WorkerID:    req.WorkerID,
		Quantity:    req.Quantity,
		TxHash:      tx.TxHash,
	})
	if err != nil {
		return models.StatusDoc{}, fmt.Errorf("mirror status: %w", err)
	}

	s.emit(ctx, audit.EventStatusUpdated, tx.TxHash, doc, true)
	return doc, nil
}

// emit publishes (and optionally archives) a write-through event.
// Best-effort: the chain write already succeeded, so failures here are
// logged, not propagated.
func (s *Service) emit(ctx context.Context, eventType, txHash string, payload interface{}, archive bool) {
	ev, err := audit.NewEvent(eventType, txHash, payload)
	if err != nil {
		s.logger.Printf("audit event %s: %v", eventType, err)
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Printf("publish %s: %v", eventType, err)
	}
	if archive && s.archiver != nil {
		if err := s.archiver.ArchiveEvent(ctx, ev); err != nil {
			s.logger.Printf("archive %s: %v", eventType, err)
		}
	}
}

// HeatIndexCelsius derives the heat index from air temperature (°C) and
// relative humidity (%), via the NWS simple formula with the Rothfusz
// regression above its 80°F cutoff.
func HeatIndexCelsius(tempC, rh float64) float64 {
	tf := tempC*9/5 + 32
	hi := 0.5 * (tf + 61.0 + (tf-68.0)*1.2 + rh*0.094)
	if hi >= 80 {
		hi = -42.379 + 2.04901523*tf + 10.14333127*rh - 0.22475541*tf*rh -
			0.00683783*tf*tf - 0.05481717*rh*rh + 0.00122874*tf*tf*rh +
			0.00085282*tf*rh*rh - 0.00000199*tf*tf*rh*rh
	}
	hiC := (hi - 32) * 5 / 9
	return math.Round(hiC*100) / 100
}
