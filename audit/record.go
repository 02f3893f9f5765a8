package audit

import (
	"context"
	"time"
)

// Record is one audited dispatch.
type Record struct {
	ID          string    `gorm:"column:id;primaryKey;size:36" json:"id"`
	RequestID   string    `gorm:"column:request_id;index" json:"request_id,omitempty"`
	RequestType string    `gorm:"column:request_type;index;not null" json:"request_type"`
	Subject     string    `gorm:"column:subject;index" json:"subject,omitempty"`
	Status      string    `gorm:"column:status;not null" json:"status"`
	ErrorCode   string    `gorm:"column:error_code" json:"error_code,omitempty"`
	Error       string    `gorm:"column:error;type:text" json:"error,omitempty"`
	Payload     string    `gorm:"column:payload;type:text" json:"payload,omitempty"`
	StartedAt   time.Time `gorm:"column:started_at;index;not null" json:"started_at"`
	DurationMs  int64     `gorm:"column:duration_ms" json:"duration_ms"`
}

// TableName is the table used by GormStore.
func (Record) TableName() string {
	return "mediator_audit_records"
}

// Query filters List results. Zero fields match everything.
type Query struct {
	RequestType string
	Status      string
	Since       time.Time
	// Limit caps the result size; 0 means 100.
	Limit int
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return 100
	}
	return q.Limit
}

func (q Query) matches(r *Record) bool {
	if q.RequestType != "" && r.RequestType != q.RequestType {
		return false
	}
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if !q.Since.IsZero() && r.StartedAt.Before(q.Since) {
		return false
	}
	return true
}

// Store persists audit records.
type Store interface {
	Save(ctx context.Context, record *Record) error
	// List returns matching records, newest first.
	List(ctx context.Context, q Query) ([]Record, error)
	Close() error
}
