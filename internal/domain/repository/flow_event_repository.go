package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// FlowEventRepository persists the audit trail of flow state transitions
type FlowEventRepository interface {
	Create(ctx context.Context, event *model.FlowEvent) error
	ListByFlow(ctx context.Context, flowID uuid.UUID) ([]*model.FlowEvent, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]*model.FlowEvent, error)
}
