package ledger

import (
	"context"
	"errors"

	"github.com/pharmatrace/gateway/internal/models"
)

// ErrNotFound is returned for an unknown worker or product id.
var ErrNotFound = errors.New("not found")

// ErrUnavailable means the ledger endpoint is unreachable entirely, as
// opposed to a single read failing. Callers surface it as a distinct
// status from ErrNotFound.
var ErrUnavailable = errors.New("ledger unavailable")

// Reader is the read-only contract over on-chain state. Implementations
// are side-effect free.
type Reader interface {
	GetWorker(ctx context.Context, id int) (models.Worker, error)
	ListWorkers(ctx context.Context) ([]models.Worker, error)
	// ProductCount returns the authoritative product counter when the
	// chain exposes one, or a best-effort scanned count otherwise.
	ProductCount(ctx context.Context) (int, error)
	GetProduct(ctx context.Context, id int) (models.Product, error)
	// ProductHistory returns the product's status events in chronological
	// order, empty if none.
	ProductHistory(ctx context.Context, id int) ([]models.StatusEvent, error)
}

// TxResult reports a submitted transaction. AssignedID carries the
// contract-assigned entity id for registrations, -1 otherwise.
type TxResult struct {
	TxHash     string `json:"txHash"`
	AssignedID int    `json:"assignedId"`
}

type WorkerInput struct {
	Name          string      `json:"name"`
	Role          models.Role `json:"role"`
	WalletAddress string      `json:"walletAddress"`
}

type ProductInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	MinTemp     float64 `json:"minTemp"`
	MaxTemp     float64 `json:"maxTemp"`
	MinHumidity float64 `json:"minHumidity"`
	MaxHumidity float64 `json:"maxHumidity"`
	Quantity    int     `json:"quantity"`
	MfgDate     string  `json:"mfgDate"`
}

type StatusInput struct {
	ProductID         int     `json:"productId"`
	WorkerID          int     `json:"workerId"`
	Location          string  `json:"location"`
	Temperature       float64 `json:"temperature"`
	Humidity          float64 `json:"humidity"`
	HeatIndex         float64 `json:"heatIndex"`
	Quantity          int     `json:"quantity"`
	QualityMaintained bool    `json:"qualityMaintained"`
}

// Writer submits signed contract transactions through the chain node.
// Key custody stays behind the node; the gateway never handles wallets.
type Writer interface {
	RegisterWorker(ctx context.Context, in WorkerInput) (TxResult, error)
	RegisterProduct(ctx context.Context, in ProductInput) (TxResult, error)
	SubmitStatus(ctx context.Context, in StatusInput) (TxResult, error)
}

// Client is the full ledger surface the gateway consumes.
type Client interface {
	Reader
	Writer
}
