package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/models"
)

func TestRecommendUnknownProduct(t *testing.T) {
	led := ledger.NewMemoryLedger()
	engine := newTestEngine(led)

	_, err := engine.Recommend(context.Background(), 123, "TRANSPORTER", DefaultRecommendMinScore, DefaultRecommendTopN)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestRecommendBlankProduct(t *testing.T) {
	led := ledger.NewMemoryLedger()
	pid := led.SeedProduct(models.Product{Name: ""})
	engine := newTestEngine(led)

	_, err := engine.Recommend(context.Background(), pid, "TRANSPORTER", DefaultRecommendMinScore, DefaultRecommendTopN)
	assert.True(t, errors.Is(err, ledger.ErrNotFound))
}

func TestRecommendTopCandidates(t *testing.T) {
	led := ledger.NewMemoryLedger()
	pid := seedColdChainProduct(led)

	// Six transporters with clean records, one distributor who should not
	// appear regardless of score.
	for i := 0; i < 6; i++ {
		wid := led.SeedWorker(models.Worker{Name: "Carrier", Role: models.RoleTransporter})
		led.SeedEvent(pid, event(wid, 5, 50, int64(100+i)))
	}
	dist := led.SeedWorker(models.Worker{Name: "Depot", Role: models.RoleDistributor})
	led.SeedEvent(pid, event(dist, 5, 50, 900))

	engine := newTestEngine(led)
	rec, err := engine.Recommend(context.Background(), pid, "TRANSPORTER", 70, 5)
	require.NoError(t, err)

	assert.Equal(t, pid, rec.ProductID)
	assert.Equal(t, "Vaccine Batch A", rec.ProductName)
	assert.Equal(t, 2.0, rec.MinTemp)
	assert.Equal(t, 8.0, rec.MaxTemp)
	assert.Equal(t, 6, rec.TotalEligible)
	require.Len(t, rec.Recommendations, 5)
	for _, entry := range rec.Recommendations {
		assert.Equal(t, "TRANSPORTER", entry.Role)
		assert.GreaterOrEqual(t, entry.PerformanceScore, 70.0)
	}
}

func TestRecommendMinScoreFilters(t *testing.T) {
	led := ledger.NewMemoryLedger()
	pid := seedColdChainProduct(led)

	good := led.SeedWorker(models.Worker{Name: "Good", Role: models.RoleTransporter})
	led.SeedEvent(pid, event(good, 5, 50, 100))

	sloppy := led.SeedWorker(models.Worker{Name: "Sloppy", Role: models.RoleTransporter})
	led.SeedEvent(pid, event(sloppy, 12, 50, 200))

	engine := newTestEngine(led)
	rec, err := engine.Recommend(context.Background(), pid, "TRANSPORTER", 90, 5)
	require.NoError(t, err)

	require.Len(t, rec.Recommendations, 1)
	assert.Equal(t, good, rec.Recommendations[0].WorkerID)
	assert.Equal(t, 1, rec.TotalEligible)
}

func TestRecommendNoCandidates(t *testing.T) {
	led := ledger.NewMemoryLedger()
	pid := seedColdChainProduct(led)
	engine := newTestEngine(led)

	rec, err := engine.Recommend(context.Background(), pid, "TRANSPORTER", 70, 5)
	require.NoError(t, err)
	assert.Empty(t, rec.Recommendations)
	assert.Zero(t, rec.TotalEligible)
}
