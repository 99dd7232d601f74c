package analytics

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/models"
)

// RawCounters are the unscored compliance tallies for one worker across
// the whole product corpus. HandledProducts and TemperatureLog are in
// ascending product-id order; within a product the log keeps the
// history's chronological order.
type RawCounters struct {
	WorkerID           int
	TotalShipments     int
	SpoiledShipments   int
	TotalTempChecks    int
	OutOfRangeReadings int
	HandledProducts    []int
	TemperatureLog     []models.TemperatureRecord
}

// productScan is the outcome of reading one product and its history.
// A nil product means the slot was skipped (placeholder or failed read).
type productScan struct {
	product *models.Product
	history []models.StatusEvent
}

// evaluate computes RawCounters for workerID over every product on the
// ledger. A failed read of a single product or history is a soft
// failure: logged, and that product is simply absent from the totals. An
// unreachable ledger is fatal.
func (e *Engine) evaluate(ctx context.Context, workerID int) (RawCounters, error) {
	count, err := e.reader.ProductCount(ctx)
	if err != nil {
		return RawCounters{}, err
	}

	scans := e.scanProducts(ctx, count)

	counters := RawCounters{WorkerID: workerID}
	for id := 0; id < count; id++ {
		scan := scans[id]
		if scan.product == nil {
			continue
		}
		e.accumulate(&counters, workerID, *scan.product, scan.history)
	}
	return counters, nil
}

// scanProducts fetches each product and its history with bounded
// concurrency, slotting results by product id so downstream accumulation
// order is deterministic.
func (e *Engine) scanProducts(ctx context.Context, count int) []productScan {
	scans := make([]productScan, count)
	sem := make(chan struct{}, e.fanout)
	var wg sync.WaitGroup
	for id := 0; id < count; id++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(id int) {
			defer wg.Done()
			defer func() { <-sem }()
			scans[id] = e.scanProduct(ctx, id)
		}(id)
	}
	wg.Wait()
	return scans
}

func (e *Engine) scanProduct(ctx context.Context, id int) productScan {
	product, err := e.reader.GetProduct(ctx, id)
	if err != nil {
		if !errors.Is(err, ledger.ErrNotFound) {
			e.logger.Printf("product %d: read failed, skipping: %v", id, err)
		}
		return productScan{}
	}
	// Blank-named slots are non-existent placeholders.
	if strings.TrimSpace(product.Name) == "" {
		return productScan{}
	}
	history, err := e.reader.ProductHistory(ctx, id)
	if err != nil {
		// Soft failure: the product still exists, but with no readable
		// history it contributes nothing.
		e.logger.Printf("product %d: history read failed, treating as empty: %v", id, err)
		history = nil
	}
	return productScan{product: &product, history: history}
}

// accumulate folds one product's history into the counters. An event
// violating both the temperature and humidity bands increments the
// out-of-range counter twice; a product counts as one shipment no matter
// how many of its events the worker produced.
func (e *Engine) accumulate(counters *RawCounters, workerID int, product models.Product, history []models.StatusEvent) {
	involved := false
	violations := 0
	for _, ev := range history {
		if ev.WorkerID != workerID {
			continue
		}
		involved = true
		counters.TotalTempChecks++

		tempInRange := product.MinTemp <= ev.Temperature && ev.Temperature <= product.MaxTemp
		humidityInRange := product.MinHumidity <= ev.Humidity && ev.Humidity <= product.MaxHumidity
		if !tempInRange {
			counters.OutOfRangeReadings++
			violations++
		}
		if !humidityInRange {
			counters.OutOfRangeReadings++
			violations++
		}

		counters.TemperatureLog = append(counters.TemperatureLog, models.TemperatureRecord{
			ProductID:       product.ID,
			Temperature:     ev.Temperature,
			Humidity:        ev.Humidity,
			MinTemp:         product.MinTemp,
			MaxTemp:         product.MaxTemp,
			MinHumidity:     product.MinHumidity,
			MaxHumidity:     product.MaxHumidity,
			Timestamp:       ev.Timestamp,
			TempInRange:     tempInRange,
			HumidityInRange: humidityInRange,
		})
	}
	if involved {
		counters.HandledProducts = append(counters.HandledProducts, product.ID)
		counters.TotalShipments++
		if product.Spoiled && violations > 0 {
			counters.SpoiledShipments++
		}
	}
}
