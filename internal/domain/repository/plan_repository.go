package repository

import (
	"context"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// PlanRepository serves the immutable plan catalog
type PlanRepository interface {
	GetByID(ctx context.Context, planID string) (*model.Plan, error)
	List(ctx context.Context) ([]model.Plan, error)
}
