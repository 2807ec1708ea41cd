/**
 * OCR Processing Service
 *
 * One OCR job is one synchronous pipeline: create the job record in
 * "processing" (durably, before the engine runs), invoke recognition,
 * reconstruct the layout, and move the record to its terminal state. Job
 * tracking is advisory: a failure to write the fallback failed record is
 * logged, never surfaced.
 */

package service

import (
	"context"
	"io"
	"strings"

	apperrors "github.com/simbunathan/ocr-app/internal/errors"
	"github.com/simbunathan/ocr-app/internal/export"
	"github.com/simbunathan/ocr-app/internal/layout"
	"github.com/simbunathan/ocr-app/internal/logging"
	"github.com/simbunathan/ocr-app/internal/ocr"
	"github.com/simbunathan/ocr-app/internal/record"
	"github.com/simbunathan/ocr-app/internal/storage"
)

// ExportFormat selects a document writer.
type ExportFormat string

const (
	FormatPDF   ExportFormat = "pdf"
	FormatExcel ExportFormat = "excel"
)

// ProcessResult is returned to the caller after a completed job.
type ProcessResult struct {
	RecordID   string  `json:"recordId"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// OCRService implements the job pipeline and record operations.
type OCRService struct {
	store           storage.Store
	engine          ocr.Engine
	defaultLanguage string
	log             *logging.Logger
}

// NewOCRService creates the OCR service.
func NewOCRService(store storage.Store, engine ocr.Engine, defaultLanguage string) *OCRService {
	if defaultLanguage == "" {
		defaultLanguage = "eng"
	}
	return &OCRService{
		store:           store,
		engine:          engine,
		defaultLanguage: defaultLanguage,
		log:             logging.NewLogger("ocr-service"),
	}
}

// ProcessJob runs the full pipeline for one uploaded image.
func (s *OCRService) ProcessJob(ctx context.Context, userID, imagePath, language string) (*ProcessResult, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("Missing userId from request")
	}
	if imagePath == "" {
		return nil, apperrors.NewValidationError("No image file provided")
	}
	if language == "" {
		language = s.defaultLanguage
	}

	s.log.Info("OCR start", "user", userID, "image", imagePath, "language", language)

	// The processing row must be durably visible before recognition starts,
	// so a crash mid-recognition leaves a recoverable row.
	rec := &record.Record{
		UserID:    userID,
		ImagePath: imagePath,
		Language:  language,
		Status:    record.StatusProcessing,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		s.createFallbackFailed(ctx, userID, imagePath, language)
		return nil, apperrors.NewDatabaseError("Failed to create job record", err)
	}

	result, err := s.engine.Recognize(ctx, imagePath, language)
	if err != nil {
		s.failRecord(ctx, rec)
		return nil, apperrors.NewOCRFailedError(rec.ID, err)
	}

	rawText := strings.TrimSpace(result.Text)
	finalText := layout.Reconstruct(result.Tokens(), rawText)

	if err := rec.Complete(finalText, result.Confidence); err != nil {
		return nil, apperrors.NewDatabaseError("Invalid record transition", err)
	}
	if err := s.store.UpdateStatus(ctx, rec); err != nil {
		s.markFailed(ctx, rec.ID)
		return nil, apperrors.NewDatabaseError("Failed to persist job result", err)
	}

	s.log.Info("OCR completed", "record", rec.ID, "confidence", result.Confidence)

	return &ProcessResult{
		RecordID:   rec.ID,
		Text:       finalText,
		Confidence: result.Confidence,
	}, nil
}

// History returns all of the user's records, newest first.
func (s *OCRService) History(ctx context.Context, userID string) ([]record.Record, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("Missing userId from request")
	}

	records, err := s.store.FindByOwner(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("Failed to fetch OCR history", err)
	}
	return records, nil
}

// Export streams the record's text through a document writer. Ownership is
// enforced by the (id, userID) lookup; foreign records surface as not found.
func (s *OCRService) Export(ctx context.Context, recordID, userID string, format ExportFormat, w io.Writer) error {
	if userID == "" {
		return apperrors.NewUnauthorizedError("Missing userId from request")
	}

	rec, err := s.store.FindOwned(ctx, recordID, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return apperrors.NewDatabaseError("Failed to load record", err)
	}

	switch format {
	case FormatPDF:
		if err := export.WritePDF(w, rec.ExtractedText); err != nil {
			return apperrors.NewExportFailedError(recordID, string(format), err)
		}
	case FormatExcel:
		rows := layout.SegmentFields(rec.ExtractedText)
		if err := export.WriteExcel(w, rows); err != nil {
			return apperrors.NewExportFailedError(recordID, string(format), err)
		}
	default:
		return apperrors.NewValidationError("Unsupported export format: " + string(format))
	}

	s.log.Info("export completed", "record", recordID, "format", format)
	return nil
}

// Delete removes a record owned by the user. A foreign or unknown id reports
// not found, never a different user's record.
func (s *OCRService) Delete(ctx context.Context, recordID, userID string) error {
	if userID == "" {
		return apperrors.NewUnauthorizedError("Missing userId from request")
	}

	if err := s.store.Delete(ctx, recordID, userID); err != nil {
		if apperrors.IsNotFound(err) {
			return err
		}
		return apperrors.NewDatabaseError("Failed to delete record", err)
	}

	s.log.Info("record deleted", "record", recordID, "user", userID)
	return nil
}

// failRecord moves a live processing record to failed.
func (s *OCRService) failRecord(ctx context.Context, rec *record.Record) {
	if err := rec.Fail(); err != nil {
		s.log.Error("invalid fail transition", "record", rec.ID, "error", err)
		return
	}
	if err := s.store.UpdateStatus(ctx, rec); err != nil {
		s.log.Error("failed to persist failed status", "record", rec.ID, "error", err)
	}
}

// markFailed writes a failed transition for a record whose in-memory handle
// already advanced past processing.
func (s *OCRService) markFailed(ctx context.Context, recordID string) {
	failed := &record.Record{ID: recordID, Status: record.StatusFailed}
	if err := s.store.UpdateStatus(ctx, failed); err != nil {
		s.log.Error("failed to persist failed status", "record", recordID, "error", err)
	}
}

// createFallbackFailed best-effort-creates a record directly in failed state
// when the initial creation never happened. Its own failure is swallowed:
// job tracking is advisory, not authoritative.
func (s *OCRService) createFallbackFailed(ctx context.Context, userID, imagePath, language string) {
	fallback := &record.Record{
		UserID:    userID,
		ImagePath: imagePath,
		Language:  language,
		Status:    record.StatusFailed,
	}
	if err := s.store.Create(ctx, fallback); err != nil {
		s.log.Warn("failed to create fallback failed-status record", "user", userID, "error", err)
	}
}
