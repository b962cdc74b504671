package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OperationType is derived by the billing backend, never by this service
type OperationType string

const (
	OperationUpgrade      OperationType = "UPGRADE"
	OperationDowngrade    OperationType = "DOWNGRADE"
	OperationPeriodChange OperationType = "PERIOD_CHANGE"
)

// ChargeTiming tells whether the delta is charged now or on the next invoice
type ChargeTiming string

const (
	ChargeImmediate ChargeTiming = "IMMEDIATE"
	ChargeNextCycle ChargeTiming = "NEXT_CYCLE"
)

// PlanSnapshot is the plan as priced by the backend at quote time
type PlanSnapshot struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Value  decimal.Decimal `json:"value"`
	Period BillingPeriod   `json:"period"`
}

// ProrationQuote is the authoritative result of POST /billing/proration.
// All amounts are computed server-side.
type ProrationQuote struct {
	OperationType    OperationType   `json:"operationType"`
	CurrentPlan      PlanSnapshot    `json:"currentPlan"`
	NewPlan          PlanSnapshot    `json:"newPlan"`
	ExactDelta       decimal.Decimal `json:"exactDelta"`
	ChargeTiming     ChargeTiming    `json:"chargeTiming"`
	AvailableCredit  decimal.Decimal `json:"availableCredit"`
	RealCardCharge   decimal.Decimal `json:"realCardCharge"`
	DaysUsed         int             `json:"daysUsed"`
	DaysRemaining    int             `json:"daysRemaining"`
	DaysTotal        int             `json:"daysTotal"`
	NextBillingDate  Date            `json:"nextBillingDate"`
	HumanDescription string          `json:"humanDescription"`
}

// Validate asserts the invariants the backend guarantees. It performs no
// proration arithmetic beyond the equality check of the immediate charge.
func (q *ProrationQuote) Validate() error {
	switch q.OperationType {
	case OperationUpgrade, OperationDowngrade, OperationPeriodChange:
	default:
		return fmt.Errorf("unknown operation type %q", q.OperationType)
	}
	switch q.ChargeTiming {
	case ChargeImmediate, ChargeNextCycle:
	default:
		return fmt.Errorf("unknown charge timing %q", q.ChargeTiming)
	}

	if q.DaysTotal <= 0 {
		return fmt.Errorf("daysTotal must be positive, got %d", q.DaysTotal)
	}
	if q.DaysUsed < 0 || q.DaysRemaining < 0 {
		return fmt.Errorf("negative day counts: used=%d remaining=%d", q.DaysUsed, q.DaysRemaining)
	}
	if q.DaysUsed+q.DaysRemaining != q.DaysTotal {
		return fmt.Errorf("daysUsed+daysRemaining (%d) != daysTotal (%d)", q.DaysUsed+q.DaysRemaining, q.DaysTotal)
	}

	if q.AvailableCredit.IsNegative() {
		return fmt.Errorf("availableCredit must not be negative, got %s", q.AvailableCredit)
	}
	if q.RealCardCharge.IsNegative() {
		return fmt.Errorf("realCardCharge must not be negative, got %s", q.RealCardCharge)
	}

	if q.OperationType == OperationDowngrade && q.ChargeTiming != ChargeNextCycle {
		return fmt.Errorf("downgrade must be charged on the next cycle, got %s", q.ChargeTiming)
	}

	if q.ChargeTiming == ChargeImmediate {
		expected := decimal.Max(decimal.Zero, q.ExactDelta.Sub(q.AvailableCredit))
		if !q.RealCardCharge.Equal(expected) {
			return fmt.Errorf("realCardCharge %s does not match max(0, %s - %s) = %s",
				q.RealCardCharge, q.ExactDelta, q.AvailableCredit, expected)
		}
	}

	return nil
}

// ChargesNow reports whether confirming the quote charges the card immediately
func (q *ProrationQuote) ChargesNow() bool {
	return q.ChargeTiming == ChargeImmediate && q.RealCardCharge.IsPositive()
}

// Date accepts both RFC3339 timestamps and plain calendar dates
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", raw, err)
	}
	d.Time = t
	return nil
}
