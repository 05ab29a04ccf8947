package handbook_store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/siddu015/Camply/dbopen"
	"github.com/siddu015/Camply/handbook_reader"
)

// Store wraps the SQLite database behind the handbook state machine.
type Store struct {
	db *sql.DB
}

// Schema creates the user_handbooks table. One TEXT column per knowledge
// category holds the section JSON; processing_info and processing_summary
// hold run-level provenance.
const Schema = `
CREATE TABLE IF NOT EXISTS user_handbooks (
    handbook_id            TEXT PRIMARY KEY,
    user_id                TEXT NOT NULL,
    academic_id            TEXT,
    storage_path           TEXT NOT NULL,
    original_filename      TEXT,
    file_size_bytes        INTEGER,
    processing_status      TEXT NOT NULL DEFAULT 'uploaded',
    upload_date            TEXT NOT NULL,
    processing_started_at  TEXT,
    processed_date         TEXT,
    error_message          TEXT,

    basic_info              TEXT,
    semester_structure      TEXT,
    examination_rules       TEXT,
    evaluation_criteria     TEXT,
    attendance_policies     TEXT,
    academic_calendar       TEXT,
    course_details          TEXT,
    assessment_methods      TEXT,
    disciplinary_rules      TEXT,
    graduation_requirements TEXT,
    fee_structure           TEXT,
    facilities_rules        TEXT,

    processing_info         TEXT,
    processing_summary      TEXT
);

CREATE INDEX IF NOT EXISTS idx_handbooks_user   ON user_handbooks(user_id);
CREATE INDEX IF NOT EXISTS idx_handbooks_status ON user_handbooks(processing_status);
CREATE UNIQUE INDEX IF NOT EXISTS idx_handbooks_user_path ON user_handbooks(user_id, storage_path);
`

// Open opens (or creates) the handbook database at path.
func Open(path string) (*Store, error) {
	db, err := dbopen.Open(path, dbopen.WithMkdirAll(), dbopen.WithSchema(Schema))
	if err != nil {
		return nil, fmt.Errorf("open handbook db: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an already-opened database. The schema must be present.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DB returns the underlying *sql.DB for sharing with the metrics layer.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

// CreateHandbook inserts a new row in the uploaded state.
func (s *Store) CreateHandbook(h *Handbook) error {
	if h.ProcessingStatus == "" {
		h.ProcessingStatus = StatusUploaded
	}
	if h.UploadDate == "" {
		h.UploadDate = nowRFC3339()
	}
	_, err := s.db.Exec(
		`INSERT INTO user_handbooks (handbook_id, user_id, academic_id, storage_path, original_filename, file_size_bytes, processing_status, upload_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.HandbookID, h.UserID, h.AcademicID, h.StoragePath, h.OriginalFilename,
		h.FileSizeBytes, string(h.ProcessingStatus), h.UploadDate,
	)
	return err
}

const handbookColumns = `handbook_id, user_id, COALESCE(academic_id, ''), storage_path,
	COALESCE(original_filename, ''), COALESCE(file_size_bytes, 0), processing_status, upload_date,
	COALESCE(processing_started_at, ''), COALESCE(processed_date, ''), COALESCE(error_message, '')`

func scanHandbook(row *sql.Row) (*Handbook, error) {
	h := &Handbook{}
	var status string
	err := row.Scan(&h.HandbookID, &h.UserID, &h.AcademicID, &h.StoragePath,
		&h.OriginalFilename, &h.FileSizeBytes, &status, &h.UploadDate,
		&h.ProcessingStartedAt, &h.ProcessedDate, &h.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h.ProcessingStatus = ProcessingStatus(status)
	return h, nil
}

// GetHandbook returns a handbook by ID. Returns nil, nil if not found.
func (s *Store) GetHandbook(id string) (*Handbook, error) {
	return scanHandbook(s.db.QueryRow(
		`SELECT `+handbookColumns+` FROM user_handbooks WHERE handbook_id = ?`, id))
}

// FindByUserAndPath returns the handbook a user already registered for a
// storage path, for upload dedup. Returns nil, nil if not found.
func (s *Store) FindByUserAndPath(userID, storagePath string) (*Handbook, error) {
	return scanHandbook(s.db.QueryRow(
		`SELECT `+handbookColumns+` FROM user_handbooks WHERE user_id = ? AND storage_path = ?`,
		userID, storagePath))
}

// ListByStatus returns handbook IDs currently in the given state.
func (s *Store) ListByStatus(status ProcessingStatus) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT handbook_id FROM user_handbooks WHERE processing_status = ? ORDER BY upload_date`,
		string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CASStatus transitions a handbook from one status to another atomically.
// Returns ErrInvalidTransition for moves the state machine forbids and
// ErrStatusConflict when the row is not in the expected state.
func (s *Store) CASStatus(id string, from, to ProcessingStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}

	ts := nowRFC3339()
	var res sql.Result
	var err error
	switch to {
	case StatusProcessing:
		res, err = s.db.Exec(
			`UPDATE user_handbooks SET processing_status = ?, processing_started_at = ?, error_message = NULL
			 WHERE handbook_id = ? AND processing_status = ?`,
			string(to), ts, id, string(from))
	case StatusCompleted:
		res, err = s.db.Exec(
			`UPDATE user_handbooks SET processing_status = ?, processed_date = ?
			 WHERE handbook_id = ? AND processing_status = ?`,
			string(to), ts, id, string(from))
	default:
		res, err = s.db.Exec(
			`UPDATE user_handbooks SET processing_status = ? WHERE handbook_id = ? AND processing_status = ?`,
			string(to), id, string(from))
	}
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("handbook %s not in state %s: %w", id, from, ErrStatusConflict)
	}
	return nil
}

// SetError records a failure message on a handbook row.
func (s *Store) SetError(id, msg string) error {
	_, err := s.db.Exec(
		`UPDATE user_handbooks SET error_message = ? WHERE handbook_id = ?`, msg, id)
	return err
}

// StoreProcessed writes all twelve section columns plus processing metadata
// and moves the row from processing to completed in a single statement, so a
// reader never observes a completed handbook with partial sections.
func (s *Store) StoreProcessed(id string, result *handbook_reader.Result) error {
	sectionJSON := make(map[handbook_reader.Category][]byte, len(handbook_reader.Categories))
	for _, category := range handbook_reader.Categories {
		section := result.Sections[category]
		data, err := json.Marshal(section)
		if err != nil {
			return fmt.Errorf("marshal section %s: %w", category, err)
		}
		sectionJSON[category] = data
	}
	infoJSON, err := json.Marshal(result.ProcessingInfo)
	if err != nil {
		return fmt.Errorf("marshal processing info: %w", err)
	}
	summaryJSON, err := json.Marshal(result.ProcessingSummary)
	if err != nil {
		return fmt.Errorf("marshal processing summary: %w", err)
	}

	args := make([]any, 0, len(handbook_reader.Categories)+5)
	set := ""
	for _, category := range handbook_reader.Categories {
		set += string(category) + " = ?, "
		args = append(args, string(sectionJSON[category]))
	}
	args = append(args, string(infoJSON), string(summaryJSON), nowRFC3339(), id, string(StatusProcessing))

	res, err := s.db.Exec(
		`UPDATE user_handbooks SET `+set+`processing_info = ?, processing_summary = ?,
		 processing_status = 'completed', processed_date = ?, error_message = NULL
		 WHERE handbook_id = ? AND processing_status = ?`, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("handbook %s not in state processing: %w", id, ErrStatusConflict)
	}
	return nil
}

// DeleteHandbook removes a handbook row.
func (s *Store) DeleteHandbook(id string) error {
	_, err := s.db.Exec(`DELETE FROM user_handbooks WHERE handbook_id = ?`, id)
	return err
}

// RecoverStale marks rows stuck in processing as failed. Called at boot so a
// crash mid-run never wedges a handbook forever.
func (s *Store) RecoverStale() (int, error) {
	res, err := s.db.Exec(
		`UPDATE user_handbooks SET processing_status = 'failed',
		 error_message = 'processing interrupted by restart'
		 WHERE processing_status = 'processing'`)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Stats returns row counts by processing status.
func (s *Store) Stats() (*Statistics, error) {
	rows, err := s.db.Query(
		`SELECT processing_status, COUNT(*) FROM user_handbooks GROUP BY processing_status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	st := &Statistics{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		st.Total += count
		switch ProcessingStatus(status) {
		case StatusUploaded:
			st.Uploaded = count
		case StatusProcessing:
			st.Processing = count
		case StatusCompleted:
			st.Completed = count
		case StatusFailed:
			st.Failed = count
		}
	}
	return st, rows.Err()
}
