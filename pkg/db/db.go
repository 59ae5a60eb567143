package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	conn *sql.DB
}

// NewDatabase creates a new database connection and initializes tables
func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &Database{conn: conn}
	if err := db.initTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.conn.Close()
}

// initTables creates all required tables
func (db *Database) initTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS query_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT UNIQUE NOT NULL,
			timestamp DATETIME NOT NULL,
			query TEXT NOT NULL,
			intent TEXT NOT NULL,
			result_type TEXT NOT NULL,
			channel_count INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			error TEXT
		);`,

		`CREATE INDEX IF NOT EXISTS idx_query_records_timestamp ON query_records(timestamp);`,
		`CREATE INDEX IF NOT EXISTS idx_query_records_intent ON query_records(intent);`,
	}

	for _, query := range queries {
		if _, err := db.conn.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// InsertQueryRecord inserts a query record
func (db *Database) InsertQueryRecord(record *QueryRecord) error {
	query := `
		INSERT INTO query_records
		(request_id, timestamp, query, intent, result_type, channel_count, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := db.conn.Exec(query,
		record.RequestID,
		record.Timestamp,
		record.Query,
		record.Intent,
		record.ResultType,
		record.ChannelCount,
		record.DurationMs,
		nullString(record.Error),
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	record.ID = id
	return nil
}

// GetRecentQueryRecords retrieves the most recent query records, newest first
func (db *Database) GetRecentQueryRecords(limit int) ([]QueryRecord, error) {
	query := `
		SELECT id, request_id, timestamp, query, intent, result_type, channel_count, duration_ms, error
		FROM query_records
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []QueryRecord
	for rows.Next() {
		r, err := scanQueryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}

	return records, rows.Err()
}

// GetQueryRecord retrieves a record by request ID, or nil when not found
func (db *Database) GetQueryRecord(requestID string) (*QueryRecord, error) {
	query := `
		SELECT id, request_id, timestamp, query, intent, result_type, channel_count, duration_ms, error
		FROM query_records
		WHERE request_id = ?
	`

	r, err := scanQueryRecord(db.conn.QueryRow(query, requestID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return r, nil
}

// GetIntentCounts aggregates query records by intent within a time range
func (db *Database) GetIntentCounts(from, to time.Time) ([]IntentCount, error) {
	query := `
		SELECT
			intent,
			COUNT(*) as queries,
			SUM(CASE WHEN result_type = 'error' THEN 1 ELSE 0 END) as errors,
			AVG(duration_ms) as avg_duration_ms
		FROM query_records
		WHERE timestamp BETWEEN ? AND ?
		GROUP BY intent
		ORDER BY queries DESC, intent ASC
	`

	rows, err := db.conn.Query(query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []IntentCount
	for rows.Next() {
		var c IntentCount
		if err := rows.Scan(&c.Intent, &c.Queries, &c.Errors, &c.AvgDurationMs); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// DeleteQueryRecordsBefore removes records older than cutoff and returns how many were removed
func (db *Database) DeleteQueryRecordsBefore(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(`DELETE FROM query_records WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQueryRecord(row scanner) (*QueryRecord, error) {
	var r QueryRecord
	var errText sql.NullString
	err := row.Scan(
		&r.ID, &r.RequestID, &r.Timestamp, &r.Query, &r.Intent,
		&r.ResultType, &r.ChannelCount, &r.DurationMs, &errText,
	)
	if err != nil {
		return nil, err
	}
	r.Error = errText.String
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
