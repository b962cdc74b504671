package model

import (
	"time"

	"github.com/google/uuid"
)

// FlowEvent is one state transition of a plan-change flow, kept for audit
type FlowEvent struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	FlowID        uuid.UUID `gorm:"column:flow_id;type:uuid;not null;index" json:"flow_id"`
	AccountID     string    `gorm:"column:account_id;size:100;index" json:"account_id"`
	State         string    `gorm:"not null;size:32" json:"state"`
	PlanID        string    `gorm:"column:plan_id;size:100" json:"plan_id"`
	BillingPeriod string    `gorm:"column:billing_period;size:16" json:"billing_period"`
	CaptureKind   string    `gorm:"column:capture_kind;size:32" json:"capture_kind,omitempty"`
	ErrorKind     string    `gorm:"column:error_kind;size:64" json:"error_kind,omitempty"`
	Message       string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt     time.Time `gorm:"default:now();index" json:"created_at"`
}

// TableName specifies the table name for GORM
func (FlowEvent) TableName() string {
	return "flow_events"
}
