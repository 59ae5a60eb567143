package db

import (
	"time"
)

// QueryRecord is one answered query. Channel data itself is never stored.
type QueryRecord struct {
	ID           int64     `json:"id" db:"id"`
	RequestID    string    `json:"request_id" db:"request_id"`
	Timestamp    time.Time `json:"timestamp" db:"timestamp"`
	Query        string    `json:"query" db:"query"`
	Intent       string    `json:"intent" db:"intent"`
	ResultType   string    `json:"result_type" db:"result_type"`
	ChannelCount int       `json:"channel_count" db:"channel_count"`
	DurationMs   int64     `json:"duration_ms" db:"duration_ms"`
	Error        string    `json:"error,omitempty" db:"error"`
}

// IntentCount aggregates queries per intent over a time range
type IntentCount struct {
	Intent        string  `json:"intent" db:"intent"`
	Queries       int64   `json:"queries" db:"queries"`
	Errors        int64   `json:"errors" db:"errors"`
	AvgDurationMs float64 `json:"avg_duration_ms" db:"avg_duration_ms"`
}
