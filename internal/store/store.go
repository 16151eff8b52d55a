// Package store persists extraction results and batch checkpoints in
// a local SQLite database.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"resume-extract-go/internal/types"
)

// Store wraps the SQLite connection.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the database at path, running
// migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		record_id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		name TEXT,
		email TEXT,
		phone TEXT,
		date_of_birth TEXT,
		location TEXT,
		skills TEXT,
		working_experience TEXT,
		education TEXT,
		sources TEXT,
		ai_enhanced BOOLEAN DEFAULT 0,
		status TEXT,
		parse_method TEXT,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS checkpoints (
		source_file TEXT PRIMARY KEY,
		record_id TEXT,
		completed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
	CREATE INDEX IF NOT EXISTS idx_records_source_file ON records(source_file);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRecord upserts an extraction result keyed by record ID.
func (s *Store) SaveRecord(rec *types.ResumeRecord) error {
	skills, err := json.Marshal(rec.Skills)
	if err != nil {
		return fmt.Errorf("failed to encode skills: %w", err)
	}
	experience, err := json.Marshal(rec.WorkingExperience)
	if err != nil {
		return fmt.Errorf("failed to encode experience: %w", err)
	}
	education, err := json.Marshal(rec.Education)
	if err != nil {
		return fmt.Errorf("failed to encode education: %w", err)
	}
	sources, err := json.Marshal(rec.Sources)
	if err != nil {
		return fmt.Errorf("failed to encode sources: %w", err)
	}

	query := `INSERT OR REPLACE INTO records (record_id, source_file, name, email, phone,
			  date_of_birth, location, skills, working_experience, education, sources,
			  ai_enhanced, status, parse_method, processed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.Exec(query, rec.RecordID, rec.SourceFile, rec.Name, rec.Email, rec.Phone,
		rec.DateOfBirth, rec.Location, string(skills), string(experience), string(education),
		string(sources), rec.AIEnhanced, string(rec.Status), rec.ParseMethod, rec.ProcessedAt)
	return err
}

// GetRecord loads one record by ID; returns nil when absent.
func (s *Store) GetRecord(recordID string) (*types.ResumeRecord, error) {
	query := `SELECT record_id, source_file, name, email, phone, date_of_birth, location,
			  skills, working_experience, education, sources, ai_enhanced, status,
			  parse_method, processed_at FROM records WHERE record_id=?`
	rec, err := scanRecord(s.db.QueryRow(query, recordID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return rec, err
}

// ListRecords returns all stored records, most recent first.
func (s *Store) ListRecords() ([]*types.ResumeRecord, error) {
	query := `SELECT record_id, source_file, name, email, phone, date_of_birth, location,
			  skills, working_experience, education, sources, ai_enhanced, status,
			  parse_method, processed_at FROM records ORDER BY processed_at DESC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*types.ResumeRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*types.ResumeRecord, error) {
	rec := &types.ResumeRecord{}
	var skills, experience, education, sources string
	var status string
	err := row.Scan(&rec.RecordID, &rec.SourceFile, &rec.Name, &rec.Email, &rec.Phone,
		&rec.DateOfBirth, &rec.Location, &skills, &experience, &education, &sources,
		&rec.AIEnhanced, &status, &rec.ParseMethod, &rec.ProcessedAt)
	if err != nil {
		return nil, err
	}
	rec.Status = types.ExtractionStatus(status)

	if err := json.Unmarshal([]byte(skills), &rec.Skills); err != nil {
		return nil, fmt.Errorf("failed to decode skills for %s: %w", rec.RecordID, err)
	}
	if err := json.Unmarshal([]byte(experience), &rec.WorkingExperience); err != nil {
		return nil, fmt.Errorf("failed to decode experience for %s: %w", rec.RecordID, err)
	}
	if err := json.Unmarshal([]byte(education), &rec.Education); err != nil {
		return nil, fmt.Errorf("failed to decode education for %s: %w", rec.RecordID, err)
	}
	if err := json.Unmarshal([]byte(sources), &rec.Sources); err != nil {
		return nil, fmt.Errorf("failed to decode sources for %s: %w", rec.RecordID, err)
	}
	if rec.Skills.HardSkills == nil {
		rec.Skills.HardSkills = []string{}
	}
	if rec.Skills.SoftSkills == nil {
		rec.Skills.SoftSkills = []string{}
	}
	if rec.Skills.Raw == nil {
		rec.Skills.Raw = []string{}
	}
	if rec.WorkingExperience == nil {
		rec.WorkingExperience = []types.Job{}
	}
	if rec.Education == nil {
		rec.Education = []types.Education{}
	}
	if rec.Sources == nil {
		rec.Sources = map[string]types.FieldSource{}
	}
	return rec, nil
}

// MarkProcessed records that a source file finished, so reruns skip it.
func (s *Store) MarkProcessed(sourceFile, recordID string) error {
	query := `INSERT OR REPLACE INTO checkpoints (source_file, record_id, completed_at)
			  VALUES (?, ?, ?)`
	_, err := s.db.Exec(query, sourceFile, recordID, time.Now())
	return err
}

// IsProcessed reports whether a source file has a checkpoint.
func (s *Store) IsProcessed(sourceFile string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM checkpoints WHERE source_file=?`, sourceFile).Scan(&n)
	return n > 0, err
}

// ProcessedCount returns the number of checkpointed source files.
func (s *Store) ProcessedCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM checkpoints`).Scan(&n)
	return n, err
}

// CountByStatus tallies stored records per extraction status.
func (s *Store) CountByStatus() (map[types.ExtractionStatus]int, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(1) FROM records GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[types.ExtractionStatus]int{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[types.ExtractionStatus(status)] = n
	}
	return counts, rows.Err()
}
