package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

const catalogYAML = `
plans:
  - id: essencial
    name: Essencial
    monthly_price: "87.90"
    annual_price: "879.00"
  - id: profissional
    name: Profissional
    monthly_price: "197.90"
    annual_price: "1979.00"
  - id: legado
    monthly_price: "49.90"
`

func TestPlanCatalog_GetByID(t *testing.T) {
	catalog, err := NewPlanCatalog(strings.NewReader(catalogYAML), zap.NewNop())
	require.NoError(t, err)

	plan, err := catalog.GetByID(context.Background(), "profissional")
	require.NoError(t, err)
	assert.Equal(t, "Profissional", plan.Name)
	assert.True(t, plan.PriceFor(model.BillingPeriodMonthly).Equal(decimal.RequireFromString("197.90")))
	assert.True(t, plan.PriceFor(model.BillingPeriodAnnual).Equal(decimal.RequireFromString("1979")))
}

func TestPlanCatalog_KeepsIncompletePlans(t *testing.T) {
	catalog, err := NewPlanCatalog(strings.NewReader(catalogYAML), zap.NewNop())
	require.NoError(t, err)

	plan, err := catalog.GetByID(context.Background(), "legado")
	require.NoError(t, err)
	assert.Empty(t, plan.Name)

	plans, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 3)
}

func TestPlanCatalog_UnknownPlan(t *testing.T) {
	catalog, err := NewPlanCatalog(strings.NewReader(catalogYAML), zap.NewNop())
	require.NoError(t, err)

	_, err = catalog.GetByID(context.Background(), "enterprise")
	assert.ErrorIs(t, err, domainErrors.ErrPlanNotFound)
}

func TestPlanCatalog_DuplicateID(t *testing.T) {
	_, err := NewPlanCatalog(strings.NewReader("plans:\n  - id: a\n    name: A\n  - id: a\n    name: B\n"), zap.NewNop())
	assert.Error(t, err)
}
