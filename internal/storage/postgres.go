/**
 * PostgreSQL Client for the OCR service
 *
 * Handles database operations for OCR record and user persistence.
 */

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	apperrors "github.com/simbunathan/ocr-app/internal/errors"
	"github.com/simbunathan/ocr-app/internal/record"
)

// PostgresStore implements Store on top of PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Migrate creates the schema when it does not exist yet.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ocr_records (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			image_path TEXT NOT NULL,
			extracted_text TEXT NOT NULL DEFAULT '',
			confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
			language TEXT NOT NULL DEFAULT 'eng',
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ocr_records_user_created
			ON ocr_records (user_id, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Create inserts a new OCR record.
func (p *PostgresStore) Create(ctx context.Context, rec *record.Record) error {
	if rec.UserID == "" {
		return fmt.Errorf("user ID is required")
	}
	if rec.ImagePath == "" {
		return fmt.Errorf("image path is required")
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Status == "" {
		rec.Status = record.StatusProcessing
	}
	if rec.Language == "" {
		rec.Language = "eng"
	}

	query := `
		INSERT INTO ocr_records (
			id, user_id, image_path, extracted_text, confidence,
			language, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := p.db.QueryRowContext(
		ctx,
		query,
		rec.ID,
		rec.UserID,
		rec.ImagePath,
		rec.ExtractedText,
		rec.Confidence,
		rec.Language,
		string(rec.Status),
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create record (user=%s): %w", rec.UserID, err)
	}

	return nil
}

// FindByOwner returns all records for a user, newest first.
func (p *PostgresStore) FindByOwner(ctx context.Context, userID string) ([]record.Record, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}

	query := `
		SELECT id, user_id, image_path, extracted_text, confidence,
		       language, status, created_at, updated_at
		FROM ocr_records
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]record.Record, 0)
	for rows.Next() {
		var rec record.Record
		if err := scanRecord(rows, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}

	return records, nil
}

// FindOwned returns the record only when both id and owner match.
func (p *PostgresStore) FindOwned(ctx context.Context, id, userID string) (*record.Record, error) {
	if id == "" || userID == "" {
		return nil, fmt.Errorf("record ID and user ID are required")
	}

	query := `
		SELECT id, user_id, image_path, extracted_text, confidence,
		       language, status, created_at, updated_at
		FROM ocr_records
		WHERE id = $1 AND user_id = $2
	`

	var rec record.Record
	err := scanRecord(p.db.QueryRowContext(ctx, query, id, userID), &rec)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	return &rec, nil
}

// UpdateStatus writes the record's terminal transition. The WHERE clause
// keeps the transition conditional: a row already in a terminal state is
// never overwritten.
func (p *PostgresStore) UpdateStatus(ctx context.Context, rec *record.Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record ID is required")
	}
	if !rec.Status.Terminal() {
		return fmt.Errorf("refusing non-terminal status update: %q", rec.Status)
	}

	query := `
		UPDATE ocr_records
		SET extracted_text = $2, confidence = $3, status = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	result, err := p.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.ExtractedText,
		rec.Confidence,
		string(rec.Status),
		string(record.StatusProcessing),
	)
	if err != nil {
		return fmt.Errorf("failed to update record status (record=%s, status=%s): %w",
			rec.ID, rec.Status, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record %s is missing or already terminal", rec.ID)
	}

	return nil
}

// Delete removes the record keyed by (id, userID).
func (p *PostgresStore) Delete(ctx context.Context, id, userID string) error {
	if id == "" || userID == "" {
		return fmt.Errorf("record ID and user ID are required")
	}

	result, err := p.db.ExecContext(
		ctx,
		`DELETE FROM ocr_records WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(id)
	}

	return nil
}

// CreateUser inserts a new user account.
func (p *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	if u.Username == "" || u.Email == "" || u.PasswordHash == "" {
		return fmt.Errorf("username, email and password hash are required")
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`

	err := p.db.QueryRowContext(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash).
		Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindUserByEmail looks up a user for login.
func (p *PostgresStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}

	var u User
	err := p.db.QueryRowContext(
		ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &u, nil
}

// UserExists reports whether a user with the given username or email exists.
func (p *PostgresStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	err := p.db.QueryRowContext(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`,
		username, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// Ping checks database connectivity
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresStore) GetStats() sql.DBStats {
	return p.db.Stats()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner, rec *record.Record) error {
	var status string
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ImagePath,
		&rec.ExtractedText,
		&rec.Confidence,
		&rec.Language,
		&status,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	rec.Status = record.Status(status)
	return nil
}
