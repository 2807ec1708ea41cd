/**
 * OCR Job Record - persisted state of one OCR request and its outcome
 *
 * A record is created in "processing" before the engine is invoked and moves
 * exactly once to "completed" (carrying text + confidence) or "failed". No
 * transition leaves a terminal state.
 */

package record

import (
	"fmt"
	"time"
)

// Status is the canonical status for rows in ocr_records.
type Status string

// Stable values (store these exact strings in the database).
const (
	StatusProcessing Status = "processing" // initial, set before OCR starts
	StatusCompleted  Status = "completed"  // terminal success
	StatusFailed     Status = "failed"     // terminal failure
)

// Terminal reports whether s permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Record represents one OCR job.
type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ImagePath     string    `json:"imagePath"`
	ExtractedText string    `json:"extractedText"`
	Confidence    float64   `json:"confidence"`
	Language      string    `json:"language"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Complete transitions the record from processing to completed, attaching the
// reconstructed text and engine confidence. Calling it on a terminal record
// is a programming error and is rejected.
func (r *Record) Complete(extractedText string, confidence float64) error {
	if r.Status != StatusProcessing {
		return fmt.Errorf("cannot complete record %s: status is %q", r.ID, r.Status)
	}
	r.ExtractedText = extractedText
	r.Confidence = confidence
	r.Status = StatusCompleted
	r.UpdatedAt = time.Now()
	return nil
}

// Fail transitions the record from processing to failed.
func (r *Record) Fail() error {
	if r.Status != StatusProcessing {
		return fmt.Errorf("cannot fail record %s: status is %q", r.ID, r.Status)
	}
	r.Status = StatusFailed
	r.UpdatedAt = time.Now()
	return nil
}
