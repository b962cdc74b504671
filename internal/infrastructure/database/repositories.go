package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alderburg/Teste-sub001/internal/adapter/repository"
	domainRepo "github.com/alderburg/Teste-sub001/internal/domain/repository"
)

// Repositories holds the database backed repositories
type Repositories struct {
	FlowEvents domainRepo.FlowEventRepository
}

// NewRepositories creates repository instances over db
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		FlowEvents: repository.NewFlowEventRepository(db, logger),
	}
}
