package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
)

const defaultFlowEventLimit = 50

// flowEventRepository implements the FlowEventRepository interface
type flowEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewFlowEventRepository creates a new flow event repository
func NewFlowEventRepository(db *gorm.DB, logger *zap.Logger) repository.FlowEventRepository {
	return &flowEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *flowEventRepository) Create(ctx context.Context, event *model.FlowEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.logger.Error("failed to create flow event",
			zap.String("flow_id", event.FlowID.String()),
			zap.String("state", event.State),
			zap.Error(err))
		return fmt.Errorf("failed to create flow event: %w", err)
	}
	return nil
}

// ListByFlow returns the transitions of one flow in order
func (r *flowEventRepository) ListByFlow(ctx context.Context, flowID uuid.UUID) ([]*model.FlowEvent, error) {
	var events []*model.FlowEvent
	err := r.db.WithContext(ctx).
		Where("flow_id = ?", flowID).
		Order("id ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list flow events: %w", err)
	}
	return events, nil
}

// ListByAccount returns the latest transitions of an account, newest first
func (r *flowEventRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*model.FlowEvent, error) {
	if limit <= 0 {
		limit = defaultFlowEventLimit
	}

	var events []*model.FlowEvent
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		r.logger.Error("failed to list account flow events",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list account flow events: %w", err)
	}
	return events, nil
}
