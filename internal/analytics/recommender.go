package analytics

import (
	"context"
	"strings"

	"github.com/pharmatrace/gateway/internal/ledger"
	"github.com/pharmatrace/gateway/internal/models"
)

const (
	DefaultRecommendMinScore = 70.0
	DefaultRecommendTopN     = 5
)

// Recommend ranks workers of the given role for handling the product and
// returns the top candidates plus the full eligible count. The product's
// declared temperature band rides along for context.
// ledger.ErrNotFound if the product does not exist or is a blank slot.
func (e *Engine) Recommend(ctx context.Context, productID int, role string, minScore float64, topN int) (models.Recommendation, error) {
	product, err := e.reader.GetProduct(ctx, productID)
	if err != nil {
		return models.Recommendation{}, err
	}
	if strings.TrimSpace(product.Name) == "" {
		return models.Recommendation{}, ledger.ErrNotFound
	}

	if topN <= 0 {
		topN = DefaultRecommendTopN
	}
	ranked, err := e.Rank(ctx, RankFilter{Role: role, MinScore: minScore})
	if err != nil {
		return models.Recommendation{}, err
	}

	top := ranked
	if len(top) > topN {
		top = top[:topN]
	}
	return models.Recommendation{
		ProductID:       product.ID,
		ProductName:     product.Name,
		MinTemp:         product.MinTemp,
		MaxTemp:         product.MaxTemp,
		Role:            strings.ToUpper(role),
		Recommendations: top,
		TotalEligible:   len(ranked),
	}, nil
}
