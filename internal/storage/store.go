package storage

import (
	"context"
	"time"

	"github.com/simbunathan/ocr-app/internal/record"
)

// User is a registered account. The ID is the sole ownership key for every
// job-scoped operation.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// RecordStore is the single persistence interface the core depends on.
// Implementations must never leak backend-specific query syntax upward.
type RecordStore interface {
	// Create persists a new record. The write must be durably visible
	// before the OCR engine is invoked.
	Create(ctx context.Context, rec *record.Record) error

	// FindByOwner returns the owner's records, newest first.
	FindByOwner(ctx context.Context, userID string) ([]record.Record, error)

	// FindOwned returns the record only when (id, userID) match; a foreign
	// or missing id yields a not-found error.
	FindOwned(ctx context.Context, id, userID string) (*record.Record, error)

	// UpdateStatus applies the record's terminal transition. The update is
	// conditional on the stored status still being "processing" so a
	// terminal state can never be overwritten.
	UpdateStatus(ctx context.Context, rec *record.Record) error

	// Delete removes the record keyed by (id, userID); zero rows deleted
	// yields a not-found error.
	Delete(ctx context.Context, id, userID string) error
}

// UserStore handles account persistence.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
}

// Store is the unified persistence surface wired into the service layer.
type Store interface {
	RecordStore
	UserStore

	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
