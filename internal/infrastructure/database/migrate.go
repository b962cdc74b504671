package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// Migrate creates the flow audit tables
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running database migrations...")

	if err := db.AutoMigrate(&model.FlowEvent{}); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	// Failed transitions are looked up by kind when investigating incidents
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_flow_events_failures ON flow_events (error_kind, created_at) WHERE error_kind <> ''`).Error; err != nil {
		logger.Error("Failed to create flow event indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}
