package model

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillingPeriod_UnmarshalText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    BillingPeriod
		wantErr bool
	}{
		{"monthly", `"monthly"`, BillingPeriodMonthly, false},
		{"upper case annual", `"ANNUAL"`, BillingPeriodAnnual, false},
		{"yearly alias", `"yearly"`, BillingPeriodAnnual, false},
		{"empty is the zero value", `""`, "", false},
		{"unknown spelling", `"weekly"`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got BillingPeriod
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBillingPeriod_ZeroValueSurvivesJSON(t *testing.T) {
	type snapshot struct {
		Period BillingPeriod `json:"period"`
	}

	raw, err := json.Marshal(snapshot{})
	require.NoError(t, err)

	var got snapshot
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, BillingPeriod(""), got.Period)
	assert.False(t, got.Period.Valid())
}

func TestPlan_PriceFor(t *testing.T) {
	plan := Plan{
		ID:           "profissional",
		Name:         "Profissional",
		MonthlyPrice: decimal.RequireFromString("197.90"),
		AnnualPrice:  decimal.RequireFromString("1979.00"),
	}
	assert.True(t, plan.PriceFor(BillingPeriodMonthly).Equal(decimal.RequireFromString("197.90")))
	assert.True(t, plan.PriceFor(BillingPeriodAnnual).Equal(decimal.RequireFromString("1979.00")))
}
