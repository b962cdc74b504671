package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
)

type planFile struct {
	Plans []model.Plan `yaml:"plans"`
}

// planCatalog is the immutable plan list loaded once at startup
type planCatalog struct {
	plans  []model.Plan
	byID   map[string]model.Plan
	logger *zap.Logger
}

// NewPlanCatalogFromFile loads the plan catalog from a YAML file
func NewPlanCatalogFromFile(path string, logger *zap.Logger) (repository.PlanRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan catalog: %w", err)
	}
	defer f.Close()

	return NewPlanCatalog(f, logger)
}

// NewPlanCatalog decodes a YAML plan list. Plans with missing fields are kept
// so that opening a flow on them fails with a configuration error.
func NewPlanCatalog(r io.Reader, logger *zap.Logger) (repository.PlanRepository, error) {
	var file planFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode plan catalog: %w", err)
	}

	catalog := &planCatalog{
		plans:  make([]model.Plan, 0, len(file.Plans)),
		byID:   make(map[string]model.Plan, len(file.Plans)),
		logger: logger,
	}
	for _, plan := range file.Plans {
		plan.ID = strings.TrimSpace(plan.ID)
		if plan.ID == "" || strings.TrimSpace(plan.Name) == "" {
			logger.Warn("Plan catalog entry is incomplete",
				zap.String("plan_id", plan.ID),
				zap.String("name", plan.Name))
		}
		if _, dup := catalog.byID[plan.ID]; dup {
			return nil, fmt.Errorf("duplicate plan id %q in catalog", plan.ID)
		}
		catalog.byID[plan.ID] = plan
		catalog.plans = append(catalog.plans, plan)
	}

	logger.Info("Plan catalog loaded", zap.Int("plans", len(catalog.plans)))
	return catalog, nil
}

func (c *planCatalog) GetByID(_ context.Context, planID string) (*model.Plan, error) {
	plan, ok := c.byID[strings.TrimSpace(planID)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainErrors.ErrPlanNotFound, planID)
	}
	return &plan, nil
}

func (c *planCatalog) List(_ context.Context) ([]model.Plan, error) {
	out := make([]model.Plan, len(c.plans))
	copy(out, c.plans)
	return out, nil
}
