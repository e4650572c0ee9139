package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Request statuses recorded in history.
const (
	StatusPlanned  = "planned"
	StatusExecuted = "executed"
	StatusFailed   = "failed"
)

// RequestRecord is one served request.
type RequestRecord struct {
	RequestID  string             `json:"request_id"`
	Query      string             `json:"query"`
	Strategy   string             `json:"strategy,omitempty"`
	Status     string             `json:"status"`
	Error      string             `json:"error,omitempty"`
	Steps      int                `json:"steps"`
	Candidates int                `json:"candidates"`
	Plan       json.RawMessage    `json:"plan,omitempty"`
	Execution  json.RawMessage    `json:"execution,omitempty"`
	Timings    map[string]float64 `json:"timings,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
}

// HistoryStorage persists served requests.
type HistoryStorage interface {
	// SaveRequest inserts or replaces the record with the same request id.
	SaveRequest(ctx context.Context, record RequestRecord) error

	// ListRequests returns the most recent records first. limit <= 0 means all.
	ListRequests(ctx context.Context, limit int) ([]RequestRecord, error)

	// GetRequest returns nil, nil when the id is unknown.
	GetRequest(ctx context.Context, requestID string) (*RequestRecord, error)
}
