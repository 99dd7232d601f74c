// Package analytics reconstructs per-worker compliance and reliability
// metrics from on-chain history. Every figure is a pure function of
// current ledger state, recomputed fresh on each call; nothing here
// mutates the ledger or caches results.
package analytics

import (
	"context"
	"log"
	"os"

	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/models"
)

type Config struct {
	// FanoutLimit bounds concurrent per-product and per-worker ledger
	// reads, to respect the chain endpoint's connection limits.
	FanoutLimit int
	Logger      *log.Logger
}

// Engine runs the compliance evaluator over ledger state and derives
// scores, rankings, comparisons, and recommendations.
type Engine struct {
	reader ledger.Reader
	fanout int
	logger *log.Logger
}

func NewEngine(reader ledger.Reader, cfg Config) *Engine {
	fanout := cfg.FanoutLimit
	if fanout <= 0 {
		fanout = 8
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stdout, "[analytics] ", log.LstdFlags)
	}
	return &Engine{reader: reader, fanout: fanout, logger: logger}
}

// WorkerPerformance returns the full performance detail for one worker.
// ledger.ErrNotFound if the worker is unknown.
func (e *Engine) WorkerPerformance(ctx context.Context, workerID int, recentOnly bool, limit int) (models.PerformanceRecord, error) {
	worker, err := e.reader.GetWorker(ctx, workerID)
	if err != nil {
		return models.PerformanceRecord{}, err
	}
	counters, err := e.evaluate(ctx, workerID)
	if err != nil {
		return models.PerformanceRecord{}, err
	}
	record, _ := scoreCounters(counters, recentOnly, limit)
	record.WorkerName = worker.Name
	record.WorkerRole = worker.Role.String()
	return record, nil
}
