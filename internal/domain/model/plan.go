package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// BillingPeriod is the renewal cadence of a subscription
type BillingPeriod string

const (
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodAnnual  BillingPeriod = "annual"
)

// ParseBillingPeriod accepts the wire values case-insensitively
func ParseBillingPeriod(raw string) (BillingPeriod, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "monthly", "month":
		return BillingPeriodMonthly, nil
	case "annual", "yearly", "year":
		return BillingPeriodAnnual, nil
	default:
		return "", fmt.Errorf("unknown billing period %q", raw)
	}
}

func (p BillingPeriod) Valid() bool {
	return p == BillingPeriodMonthly || p == BillingPeriodAnnual
}

// UnmarshalText normalizes MONTHLY/ANNUAL spellings sent by older clients.
// Empty text decodes to the zero value, matching what the zero value marshals to.
func (p *BillingPeriod) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*p = ""
		return nil
	}
	parsed, err := ParseBillingPeriod(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Plan is immutable reference data describing a sellable tier
type Plan struct {
	ID           string          `yaml:"id" json:"id" validate:"required"`
	Name         string          `yaml:"name" json:"name" validate:"required"`
	MonthlyPrice decimal.Decimal `yaml:"monthly_price" json:"monthlyPrice"`
	AnnualPrice  decimal.Decimal `yaml:"annual_price" json:"annualPrice"`
}

// PriceFor returns the list price charged per cycle of the given period
func (p Plan) PriceFor(period BillingPeriod) decimal.Decimal {
	if period == BillingPeriodAnnual {
		return p.AnnualPrice
	}
	return p.MonthlyPrice
}
