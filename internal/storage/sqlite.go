// Package storage persists the run history: one row per completed analysis
// with its headline numbers, kept in a local SQLite database file.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Storage handles database operations
type Storage struct {
	db *sql.DB
}

// Run is the persisted headline record of one analysis run.
type Run struct {
	ID                  int64
	Timestamp           time.Time
	LogFile             string
	TotalSamples        int
	DominantGesture     string
	OverallAccuracy     *float64 // nil when the batch had no ground truth
	AccuracyByGroup     map[string]float64
	IssueCount          int
	RecommendationCount int
	ParseFailures       int
}

// Database configuration constants
const (
	// busyTimeoutMs is how long SQLite waits when database is locked (5 seconds)
	busyTimeoutMs = 5000
	// maxOpenConns limits concurrent connections (SQLite works best with 1)
	maxOpenConns = 1
	// maxIdleConns is the number of idle connections to keep
	maxIdleConns = 1
	// connMaxLifetime is how long a connection can be reused
	connMaxLifetime = 30 * time.Minute
)

// New creates a new storage instance
func New(dbPath string) (*Storage, error) {
	// Create directory if it doesn't exist (0700 for security - owner only)
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// The _busy_timeout pragma prevents "database is locked" errors by waiting
	dsn := fmt.Sprintf("%s?_busy_timeout=%d", dbPath, busyTimeoutMs)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single connection to avoid lock contention
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	storage := &Storage{db: db}

	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Schema version constants
const (
	// currentSchemaVersion is the latest schema version
	// Increment this when adding new migrations
	currentSchemaVersion = 2
)

// initSchema creates the database schema if it doesn't exist
func (s *Storage) initSchema() error {
	// Create schema_version table first (tracks migration state)
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	version := s.getSchemaVersion()

	if err := s.migrateSchema(version); err != nil {
		return fmt.Errorf("schema migration failed: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version (0 if not set)
func (s *Storage) getSchemaVersion() int {
	var version int
	err := s.db.QueryRow(`SELECT version FROM schema_version LIMIT 1`).Scan(&version)
	if err != nil {
		return 0 // No version set, needs full migration
	}
	return version
}

// setSchemaVersion updates the schema version
func (s *Storage) setSchemaVersion(version int) error {
	// Delete existing and insert new (simpler than upsert for single row)
	if _, err := s.db.Exec(`DELETE FROM schema_version`); err != nil {
		return err
	}
	if _, err := s.db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, version); err != nil {
		return err
	}
	return nil
}

// migrateSchema runs migrations from currentVersion to latest
func (s *Storage) migrateSchema(currentVersion int) error {
	if currentVersion >= currentSchemaVersion {
		return nil // Already up to date
	}

	log.Printf("storage: migrating schema from version %d to %d", currentVersion, currentSchemaVersion)

	// Migration 0 -> 1: Create base runs table
	if currentVersion < 1 {
		if err := s.migrateV1(); err != nil {
			return fmt.Errorf("migration v1 failed: %w", err)
		}
	}

	// Migration 1 -> 2: Add parse_failures column
	if currentVersion < 2 {
		if err := s.migrateV2(); err != nil {
			return fmt.Errorf("migration v2 failed: %w", err)
		}
	}

	if err := s.setSchemaVersion(currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	log.Printf("storage: schema migration completed successfully (now at version %d)", currentSchemaVersion)
	return nil
}

// migrateV1 creates the base runs table (original schema)
func (s *Storage) migrateV1() error {
	log.Printf("storage: running migration v1 - create base tables")

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		log_file TEXT NOT NULL,
		total_samples INTEGER NOT NULL,
		dominant_gesture TEXT NOT NULL,
		overall_accuracy REAL,
		accuracy_by_group TEXT,
		issue_count INTEGER DEFAULT 0,
		recommendation_count INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp ON runs(timestamp);
	CREATE INDEX IF NOT EXISTS idx_log_file ON runs(log_file);
	`

	_, err := s.db.Exec(schema)
	return err
}

// migrateV2 adds the parse_failures column
func (s *Storage) migrateV2() error {
	log.Printf("storage: running migration v2 - add parse_failures column")

	// Check if the column already exists (for databases migrated before
	// version tracking)
	var hasParseFailures bool
	rows, err := s.db.Query("PRAGMA table_info(runs)")
	if err != nil {
		return fmt.Errorf("failed to get table info: %w", err)
	}
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan column info: %w", err)
		}
		if name == "parse_failures" {
			hasParseFailures = true
			break
		}
	}
	_ = rows.Close()

	if !hasParseFailures {
		if _, err := s.db.Exec(`ALTER TABLE runs ADD COLUMN parse_failures INTEGER NOT NULL DEFAULT 0`); err != nil {
			return fmt.Errorf("failed to add parse_failures column: %w", err)
		}
	}

	return nil
}

// SaveRun saves a completed analysis run to the database
func (s *Storage) SaveRun(run *Run) error {
	groupsJSON, err := json.Marshal(run.AccuracyByGroup)
	if err != nil {
		return fmt.Errorf("failed to marshal group accuracy: %w", err)
	}

	query := `
		INSERT INTO runs (
			timestamp, log_file, total_samples, dominant_gesture,
			overall_accuracy, accuracy_by_group, issue_count,
			recommendation_count, parse_failures
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var accuracy interface{}
	if run.OverallAccuracy != nil {
		accuracy = *run.OverallAccuracy
	}

	result, err := s.db.Exec(
		query,
		run.Timestamp.Format(time.RFC3339),
		run.LogFile,
		run.TotalSamples,
		run.DominantGesture,
		accuracy,
		string(groupsJSON),
		run.IssueCount,
		run.RecommendationCount,
		run.ParseFailures,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	run.ID = id
	return nil
}

// GetRecentRuns retrieves runs from the last N days for one log file,
// newest first. An empty logFile matches every run.
func (s *Storage) GetRecentRuns(days int, logFile string) ([]*Run, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	query := `
		SELECT id, timestamp, log_file, total_samples, dominant_gesture,
		       overall_accuracy, accuracy_by_group, issue_count,
		       recommendation_count, parse_failures
		FROM runs
		WHERE timestamp >= ?
	`
	args := []interface{}{cutoffDate}

	if logFile != "" {
		query += ` AND log_file = ?`
		args = append(args, logFile)
	}

	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	var runs []*Run
	for rows.Next() {
		run, err := s.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// CleanupOldRuns deletes runs older than N days
func (s *Storage) CleanupOldRuns(days int) (int64, error) {
	cutoffDate := time.Now().AddDate(0, 0, -days).Format(time.RFC3339)

	result, err := s.db.Exec(`DELETE FROM runs WHERE timestamp < ?`, cutoffDate)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old runs: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected, nil
}

// GetStatistics returns database statistics
func (s *Storage) GetStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_runs"] = total

	// Run distribution by dominant gesture
	rows, err := s.db.Query(`SELECT dominant_gesture, COUNT(*) FROM runs GROUP BY dominant_gesture`)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		err = rows.Close()
		if err != nil {
			log.Printf("storage: failed to close database rows: %v", err)
		}
	}(rows)

	gestureDist := make(map[string]int)
	for rows.Next() {
		var g string
		var count int
		if err := rows.Scan(&g, &count); err != nil {
			return nil, err
		}
		gestureDist[g] = count
	}
	stats["runs_by_gesture"] = gestureDist

	var avgAccuracy sql.NullFloat64
	if err := s.db.QueryRow(`SELECT AVG(overall_accuracy) FROM runs WHERE overall_accuracy IS NOT NULL`).Scan(&avgAccuracy); err != nil {
		return nil, err
	}
	if avgAccuracy.Valid {
		stats["average_accuracy"] = avgAccuracy.Float64
	}

	return stats, nil
}

// scanRun scans a database row into a Run struct
func (s *Storage) scanRun(rows *sql.Rows) (*Run, error) {
	var (
		id                  int64
		timestamp           string
		logFile             string
		totalSamples        int
		dominantGesture     string
		overallAccuracy     sql.NullFloat64
		groupsJSON          sql.NullString
		issueCount          int
		recommendationCount int
		parseFailures       int
	)

	err := rows.Scan(
		&id, &timestamp, &logFile, &totalSamples, &dominantGesture,
		&overallAccuracy, &groupsJSON, &issueCount, &recommendationCount,
		&parseFailures,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	run := &Run{
		ID:                  id,
		Timestamp:           ts,
		LogFile:             logFile,
		TotalSamples:        totalSamples,
		DominantGesture:     dominantGesture,
		IssueCount:          issueCount,
		RecommendationCount: recommendationCount,
		ParseFailures:       parseFailures,
	}
	if overallAccuracy.Valid {
		run.OverallAccuracy = &overallAccuracy.Float64
	}
	if groupsJSON.Valid && groupsJSON.String != "null" {
		if err := json.Unmarshal([]byte(groupsJSON.String), &run.AccuracyByGroup); err != nil {
			return nil, fmt.Errorf("failed to unmarshal group accuracy: %w", err)
		}
	}

	return run, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
