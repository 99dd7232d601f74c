package analytics

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/models"
)

// RankFilter narrows the ranked listing. Role is matched
// case-insensitively against the role name; zero values filter nothing.
type RankFilter struct {
	Role         string
	MinShipments int
	MinScore     float64
}

type rankedWorker struct {
	worker   models.Worker
	record   models.PerformanceRecord
	rawScore float64
	err      error
}

// Rank evaluates every worker and returns the filtered entries sorted by
// composite score descending. Equal-score entries keep their ledger
// enumeration order.
func (e *Engine) Rank(ctx context.Context, f RankFilter) ([]models.RankingEntry, error) {
	workers, err := e.reader.ListWorkers(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Worker, 0, len(workers))
	for _, w := range workers {
		if f.Role != "" && !strings.EqualFold(w.Role.String(), f.Role) {
			continue
		}
		candidates = append(candidates, w)
	}

	ranked, err := e.evaluateAll(ctx, candidates)
	if err != nil {
		return nil, err
	}

	entries := make([]models.RankingEntry, 0, len(ranked))
	rawScores := make([]float64, 0, len(ranked))
	for _, rw := range ranked {
		if rw.record.TotalShipments < f.MinShipments {
			continue
		}
		if rw.record.PerformanceScore < f.MinScore {
			continue
		}
		entries = append(entries, models.RankingEntry{
			WorkerID:           rw.worker.ID,
			Name:               rw.worker.Name,
			Role:               rw.worker.Role.String(),
			PerformanceScore:   rw.record.PerformanceScore,
			SuccessRate:        rw.record.SuccessRate,
			TempComplianceRate: rw.record.TempComplianceRate,
			TotalShipments:     rw.record.TotalShipments,
			SpoiledShipments:   rw.record.SpoiledShipments,
		})
		rawScores = append(rawScores, rw.rawScore)
	}

	// Stable sort on the unrounded score so display rounding cannot
	// reorder near ties.
	idx := make([]int, len(entries))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return rawScores[idx[a]] > rawScores[idx[b]]
	})
	out := make([]models.RankingEntry, len(entries))
	for i, j := range idx {
		out[i] = entries[j]
	}
	return out, nil
}

// Compare evaluates each worker id independently. A failed id is skipped,
// not fatal to the batch; an unreachable ledger still fails the whole
// request.
func (e *Engine) Compare(ctx context.Context, workerIDs []int) (models.Comparison, error) {
	results := make([]rankedWorker, len(workerIDs))
	sem := make(chan struct{}, e.fanout)
	var wg sync.WaitGroup
	for i, id := range workerIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(i, id int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = e.evaluateOne(ctx, id)
		}(i, id)
	}
	wg.Wait()

	cmp := models.Comparison{Entries: []models.ComparisonEntry{}}
	bestRaw := 0.0
	for _, rw := range results {
		if rw.err != nil {
			if errors.Is(rw.err, ledger.ErrUnavailable) {
				return models.Comparison{}, rw.err
			}
			e.logger.Printf("compare: worker %d skipped: %v", rw.worker.ID, rw.err)
			continue
		}
		record := rw.record
		record.WorkerName = rw.worker.Name
		record.WorkerRole = rw.worker.Role.String()
		entry := models.ComparisonEntry{
			WorkerID:    rw.worker.ID,
			Name:        rw.worker.Name,
			Role:        rw.worker.Role.String(),
			Performance: record,
		}
		cmp.Entries = append(cmp.Entries, entry)
		if cmp.BestPerformer == nil || rw.rawScore > bestRaw {
			e2 := entry
			cmp.BestPerformer = &e2
			bestRaw = rw.rawScore
		}
	}
	return cmp, nil
}

func (e *Engine) evaluateAll(ctx context.Context, workers []models.Worker) ([]rankedWorker, error) {
	results := make([]rankedWorker, len(workers))
	sem := make(chan struct{}, e.fanout)
	var wg sync.WaitGroup
	for i, w := range workers {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, w models.Worker) {
			defer wg.Done()
			defer func() { <-sem }()
			counters, err := e.evaluate(ctx, w.ID)
			if err != nil {
				results[i] = rankedWorker{worker: w, err: err}
				return
			}
			record, raw := scoreCounters(counters, false, 0)
			results[i] = rankedWorker{worker: w, record: record, rawScore: raw}
		}(i, w)
	}
	wg.Wait()
	for _, rw := range results {
		if rw.err != nil {
			return nil, rw.err
		}
	}
	return results, nil
}

func (e *Engine) evaluateOne(ctx context.Context, workerID int) rankedWorker {
	worker, err := e.reader.GetWorker(ctx, workerID)
	if err != nil {
		return rankedWorker{worker: models.Worker{ID: workerID}, err: err}
	}
	counters, err := e.evaluate(ctx, workerID)
	if err != nil {
		return rankedWorker{worker: worker, err: err}
	}
	record, raw := scoreCounters(counters, false, 0)
	return rankedWorker{worker: worker, record: record, rawScore: raw}
}
