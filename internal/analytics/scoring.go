package analytics

import (
	"math"
	"sort"

	"github.com/pharmatrace/gateway/internal/models"
)

const (
	successWeight    = 0.7
	complianceWeight = 0.3
	recentTailLen    = 10
)

// scoreCounters turns raw counters into a PerformanceRecord. It returns
// the unrounded composite score alongside, for sorting: display rounding
// must never introduce tie-break artifacts.
//
// When recentOnly is set the temperature log is windowed to the `limit`
// most recent records and the check/out-of-range counts are recomputed
// from that window alone. Shipment and spoilage counts stay lifetime
// values. That asymmetry is deliberate and load-bearing: callers rely on
// the windowed compliance view sitting next to all-time delivery totals.
func scoreCounters(c RawCounters, recentOnly bool, limit int) (models.PerformanceRecord, float64) {
	tempLog := append([]models.TemperatureRecord(nil), c.TemperatureLog...)
	totalChecks := c.TotalTempChecks
	outOfRange := c.OutOfRangeReadings

	if recentOnly && limit > 0 && len(tempLog) > 0 {
		sort.SliceStable(tempLog, func(i, j int) bool {
			return tempLog[i].Timestamp > tempLog[j].Timestamp
		})
		if len(tempLog) > limit {
			tempLog = tempLog[:limit]
		}
		totalChecks = len(tempLog)
		// The windowed recount is per record, not per dimension.
		outOfRange = 0
		for _, r := range tempLog {
			if !r.TempInRange || !r.HumidityInRange {
				outOfRange++
			}
		}
	}

	successRate := 0.0
	if c.TotalShipments > 0 {
		successRate = float64(c.TotalShipments-c.SpoiledShipments) / float64(c.TotalShipments) * 100
	}
	complianceRate := 0.0
	if totalChecks > 0 {
		complianceRate = float64(totalChecks-outOfRange) / float64(totalChecks) * 100
	}
	score := successWeight*successRate + complianceWeight*complianceRate

	recent := tempLog
	if len(recent) > recentTailLen {
		recent = recent[len(recent)-recentTailLen:]
	}

	handled := c.HandledProducts
	if handled == nil {
		handled = []int{}
	}
	if recent == nil {
		recent = []models.TemperatureRecord{}
	}

	return models.PerformanceRecord{
		WorkerID:            c.WorkerID,
		TotalShipments:      c.TotalShipments,
		SpoiledShipments:    c.SpoiledShipments,
		SuccessfulShipments: c.TotalShipments - c.SpoiledShipments,
		SuccessRate:         round2(successRate),
		TotalTempChecks:     totalChecks,
		OutOfRangeReadings:  outOfRange,
		TempComplianceRate:  round2(complianceRate),
		PerformanceScore:    round2(score),
		ProductsHandled:     handled,
		RecentTemperatures:  recent,
	}, score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
