// backend-go/internal/repository/postgres/model_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/glowmart/storesight/backend-go/internal/domain"
)

type modelRepository struct {
	db *DB
}

func NewModelRepository(db *DB) *modelRepository {
	return &modelRepository{db: db}
}

const modelColumns = `
	id, store_id, mode, k, l, l_post, l_post2, base,
	t0_strategy, t0, initial_ratio, shock_idx, shock_idx2,
	nudge, nudge_decay, std_dev, seasonal,
	series_start, sample_months, rmse, mape, fitted_at
`

// GetModel returns the latest fitted model for a store. Callers see
// sql.ErrNoRows (wrapped) when the store has never been fitted.
func (r *modelRepository) GetModel(ctx context.Context, storeID int64) (*domain.StoreModel, error) {
	var model domain.StoreModel
	query := `
		SELECT ` + modelColumns + `
		FROM store_models
		WHERE store_id = $1
	`
	if err := r.db.GetContext(ctx, &model, query, storeID); err != nil {
		return nil, fmt.Errorf("failed to get model for store %d: %w", storeID, err)
	}

	return &model, nil
}

func (r *modelRepository) GetModels(ctx context.Context) ([]*domain.StoreModel, error) {
	models := []*domain.StoreModel{}
	query := `
		SELECT ` + modelColumns + `
		FROM store_models
		ORDER BY store_id
	`
	if err := r.db.SelectContext(ctx, &models, query); err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	return models, nil
}
