package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/simbunathan/ocr-app/internal/auth"
	apperrors "github.com/simbunathan/ocr-app/internal/errors"
	"github.com/simbunathan/ocr-app/internal/layout"
	"github.com/simbunathan/ocr-app/internal/ocr"
	"github.com/simbunathan/ocr-app/internal/record"
	"github.com/simbunathan/ocr-app/internal/storage"
)

// fakeStore is an in-memory storage.Store for pipeline tests.
type fakeStore struct {
	records     []record.Record
	users       map[string]storage.User
	failCreates int // number of Create calls that should fail
	createCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]storage.User)}
}

func (f *fakeStore) Create(ctx context.Context, rec *record.Record) error {
	f.createCalls++
	if f.failCreates > 0 {
		f.failCreates--
		return fmt.Errorf("simulated create failure")
	}
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("rec-%d", f.createCalls)
	}
	if rec.Status == "" {
		rec.Status = record.StatusProcessing
	}
	rec.CreatedAt = time.Now().Add(time.Duration(f.createCalls) * time.Millisecond)
	rec.UpdatedAt = rec.CreatedAt
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeStore) FindByOwner(ctx context.Context, userID string) ([]record.Record, error) {
	out := make([]record.Record, 0)
	// newest first
	for i := len(f.records) - 1; i >= 0; i-- {
		if f.records[i].UserID == userID {
			out = append(out, f.records[i])
		}
	}
	return out, nil
}

func (f *fakeStore) FindOwned(ctx context.Context, id, userID string) (*record.Record, error) {
	for _, rec := range f.records {
		if rec.ID == id && rec.UserID == userID {
			cp := rec
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError(id)
}

func (f *fakeStore) UpdateStatus(ctx context.Context, rec *record.Record) error {
	for i := range f.records {
		if f.records[i].ID == rec.ID && f.records[i].Status == record.StatusProcessing {
			f.records[i].Status = rec.Status
			f.records[i].ExtractedText = rec.ExtractedText
			f.records[i].Confidence = rec.Confidence
			f.records[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return fmt.Errorf("record %s is missing or already terminal", rec.ID)
}

func (f *fakeStore) Delete(ctx context.Context, id, userID string) error {
	for i, rec := range f.records {
		if rec.ID == id && rec.UserID == userID {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError(id)
}

func (f *fakeStore) CreateUser(ctx context.Context, u *storage.User) error {
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	}
	f.users[u.Email] = *u
	return nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*storage.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (f *fakeStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Migrate(ctx context.Context) error { return nil }
func (f *fakeStore) Ping(ctx context.Context) error    { return nil }
func (f *fakeStore) Close() error                      { return nil }

func (f *fakeStore) byID(id string) *record.Record {
	for i := range f.records {
		if f.records[i].ID == id {
			return &f.records[i]
		}
	}
	return nil
}

// fakeEngine returns a canned recognition result.
type fakeEngine struct {
	result *ocr.Result
	err    error
}

func (e *fakeEngine) Recognize(ctx context.Context, imagePath, language string) (*ocr.Result, error) {
	return e.result, e.err
}

func word(text string, x0, y0 int) ocr.Word {
	return ocr.Word{
		Text:       text,
		Confidence: 90,
		BBox:       layout.BBox{X0: x0, Y0: y0, X1: x0 + len(text)*7, Y1: y0 + 12},
	}
}

func TestProcessJobGeometricPath(t *testing.T) {
	store := newFakeStore()
	engine := &fakeEngine{result: &ocr.Result{
		Text:       "A B C D",
		Confidence: 91.5,
		Words: []ocr.Word{
			word("A", 0, 50), word("B", 100, 50), word("C", 220, 50), word("D", 350, 50),
		},
	}}
	svc := NewOCRService(store, engine, "eng")

	res, err := svc.ProcessJob(context.Background(), "u1", "uploads/img.png", "")
	if err != nil {
		t.Fatalf("ProcessJob() error: %v", err)
	}

	want := "A     B      C      D"
	if res.Text != want {
		t.Errorf("text = %q, want %q", res.Text, want)
	}
	if res.Confidence != 91.5 {
		t.Errorf("confidence = %v, want 91.5", res.Confidence)
	}

	stored := store.byID(res.RecordID)
	if stored == nil {
		t.Fatal("record not persisted")
	}
	if stored.Status != record.StatusCompleted {
		t.Errorf("status = %q, want completed", stored.Status)
	}
	if stored.ExtractedText != want {
		t.Errorf("stored text = %q, want %q", stored.ExtractedText, want)
	}
	if stored.Language != "eng" {
		t.Errorf("language = %q, want default eng", stored.Language)
	}
}

func TestProcessJobHeuristicPath(t *testing.T) {
	store := newFakeStore()
	engine := &fakeEngine{result: &ocr.Result{
		Text:       "Name Age City Country\nsummary line",
		Confidence: 70,
	}}
	svc := NewOCRService(store, engine, "eng")

	res, err := svc.ProcessJob(context.Background(), "u1", "uploads/img.png", "deu")
	if err != nil {
		t.Fatalf("ProcessJob() error: %v", err)
	}

	want := "Name      Age       City                Country\nsummary line"
	if res.Text != want {
		t.Errorf("text = %q, want %q", res.Text, want)
	}

	stored := store.byID(res.RecordID)
	if stored.Language != "deu" {
		t.Errorf("language = %q, want deu", stored.Language)
	}
}

func TestProcessJobEngineFailure(t *testing.T) {
	store := newFakeStore()
	engine := &fakeEngine{err: fmt.Errorf("engine exploded")}
	svc := NewOCRService(store, engine, "eng")

	_, err := svc.ProcessJob(context.Background(), "u1", "uploads/img.png", "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if apperrors.CodeOf(err) != apperrors.ErrorOCRFailed {
		t.Errorf("error code = %q, want OCR_FAILED", apperrors.CodeOf(err))
	}

	if len(store.records) != 1 {
		t.Fatalf("got %d records, want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.Status != record.StatusFailed {
		t.Errorf("status = %q, want failed", rec.Status)
	}
	if rec.ExtractedText != "" {
		t.Errorf("failed record must not carry text, got %q", rec.ExtractedText)
	}
}

func TestProcessJobCreateFailureFallback(t *testing.T) {
	store := newFakeStore()
	store.failCreates = 1
	engine := &fakeEngine{result: &ocr.Result{Text: "hello"}}
	svc := NewOCRService(store, engine, "eng")

	_, err := svc.ProcessJob(context.Background(), "u1", "uploads/img.png", "")
	if apperrors.CodeOf(err) != apperrors.ErrorDatabaseFailed {
		t.Fatalf("error code = %q, want DATABASE_FAILED", apperrors.CodeOf(err))
	}

	// The fallback record is created directly in failed state, no text.
	if len(store.records) != 1 {
		t.Fatalf("got %d records, want 1 fallback record", len(store.records))
	}
	fb := store.records[0]
	if fb.Status != record.StatusFailed || fb.ExtractedText != "" || fb.Confidence != 0 {
		t.Errorf("unexpected fallback record: %+v", fb)
	}
}

func TestProcessJobFallbackFailureIsSwallowed(t *testing.T) {
	store := newFakeStore()
	store.failCreates = 2 // initial create and fallback both fail
	engine := &fakeEngine{result: &ocr.Result{Text: "hello"}}
	svc := NewOCRService(store, engine, "eng")

	_, err := svc.ProcessJob(context.Background(), "u1", "uploads/img.png", "")
	if apperrors.CodeOf(err) != apperrors.ErrorDatabaseFailed {
		t.Fatalf("error code = %q, want DATABASE_FAILED", apperrors.CodeOf(err))
	}
	if len(store.records) != 0 {
		t.Errorf("no record should exist, got %d", len(store.records))
	}
}

func TestProcessJobRequiresIdentity(t *testing.T) {
	store := newFakeStore()
	svc := NewOCRService(store, &fakeEngine{}, "eng")

	_, err := svc.ProcessJob(context.Background(), "", "uploads/img.png", "")
	if apperrors.CodeOf(err) != apperrors.ErrorUnauthorized {
		t.Errorf("error code = %q, want UNAUTHORIZED", apperrors.CodeOf(err))
	}

	_, err = svc.ProcessJob(context.Background(), "u1", "", "")
	if apperrors.CodeOf(err) != apperrors.ErrorValidationFailed {
		t.Errorf("error code = %q, want VALIDATION_FAILED", apperrors.CodeOf(err))
	}

	if store.createCalls != 0 {
		t.Errorf("validation failures must not touch storage, got %d calls", store.createCalls)
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	store := newFakeStore()
	engine := &fakeEngine{result: &ocr.Result{Text: "one"}}
	svc := NewOCRService(store, engine, "eng")

	first, err := svc.ProcessJob(context.Background(), "u1", "uploads/a.png", "")
	if err != nil {
		t.Fatalf("ProcessJob() error: %v", err)
	}
	second, err := svc.ProcessJob(context.Background(), "u1", "uploads/b.png", "")
	if err != nil {
		t.Fatalf("ProcessJob() error: %v", err)
	}
	if _, err := svc.ProcessJob(context.Background(), "u2", "uploads/c.png", ""); err != nil {
		t.Fatalf("ProcessJob() error: %v", err)
	}

	records, err := svc.History(context.Background(), "u1")
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].ID != second.RecordID || records[1].ID != first.RecordID {
		t.Errorf("history not newest first: %s, %s", records[0].ID, records[1].ID)
	}
}

func TestDeleteOwnership(t *testing.T) {
	store := newFakeStore()
	engine := &fakeEngine{result: &ocr.Result{Text: "one"}}
	svc := NewOCRService(store, engine, "eng")

	res, err := svc.ProcessJob(context.Background(), "u1", "uploads/a.png", "")
	if err != nil {
		t.Fatalf("ProcessJob() error: %v", err)
	}

	// A different user gets not-found and the record survives.
	err = svc.Delete(context.Background(), res.RecordID, "intruder")
	if apperrors.CodeOf(err) != apperrors.ErrorNotFound {
		t.Errorf("error code = %q, want NOT_FOUND", apperrors.CodeOf(err))
	}
	if store.byID(res.RecordID) == nil {
		t.Fatal("foreign delete removed the record")
	}

	if err := svc.Delete(context.Background(), res.RecordID, "u1"); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if store.byID(res.RecordID) != nil {
		t.Error("record still present after owner delete")
	}
}

func TestExport(t *testing.T) {
	store := newFakeStore()
	engine := &fakeEngine{result: &ocr.Result{Text: "Name Age City Country"}}
	svc := NewOCRService(store, engine, "eng")

	res, err := svc.ProcessJob(context.Background(), "u1", "uploads/a.png", "")
	if err != nil {
		t.Fatalf("ProcessJob() error: %v", err)
	}

	var pdf bytes.Buffer
	if err := svc.Export(context.Background(), res.RecordID, "u1", FormatPDF, &pdf); err != nil {
		t.Fatalf("Export(pdf) error: %v", err)
	}
	if !strings.HasPrefix(pdf.String(), "%PDF-") {
		t.Error("pdf export missing PDF header")
	}

	var xlsx bytes.Buffer
	if err := svc.Export(context.Background(), res.RecordID, "u1", FormatExcel, &xlsx); err != nil {
		t.Fatalf("Export(excel) error: %v", err)
	}
	if xlsx.Len() == 0 {
		t.Error("excel export produced no bytes")
	}

	var buf bytes.Buffer
	err = svc.Export(context.Background(), res.RecordID, "intruder", FormatPDF, &buf)
	if apperrors.CodeOf(err) != apperrors.ErrorNotFound {
		t.Errorf("foreign export error code = %q, want NOT_FOUND", apperrors.CodeOf(err))
	}

	err = svc.Export(context.Background(), res.RecordID, "u1", ExportFormat("csv"), &buf)
	if apperrors.CodeOf(err) != apperrors.ErrorValidationFailed {
		t.Errorf("bad format error code = %q, want VALIDATION_FAILED", apperrors.CodeOf(err))
	}
}

func TestAuthRegisterAndLogin(t *testing.T) {
	store := newFakeStore()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewAuthService(store, tokens)

	reg, err := svc.Register(context.Background(), "alice", "alice@example.com", "pw123")
	if err != nil {
		t.Fatalf("Register() error: %v", err)
	}
	if reg.Token == "" || reg.UserID == "" {
		t.Errorf("incomplete registration result: %+v", reg)
	}

	// Token must resolve back to the same identity.
	userID, err := tokens.Verify(reg.Token)
	if err != nil || userID != reg.UserID {
		t.Errorf("token did not verify to the registered user: %v", err)
	}

	if _, err := svc.Register(context.Background(), "alice", "other@example.com", "pw"); apperrors.CodeOf(err) != apperrors.ErrorValidationFailed {
		t.Errorf("duplicate username error = %q, want VALIDATION_FAILED", apperrors.CodeOf(err))
	}

	login, err := svc.Login(context.Background(), "alice@example.com", "pw123")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if login.UserID != reg.UserID {
		t.Errorf("login user = %q, want %q", login.UserID, reg.UserID)
	}

	if _, err := svc.Login(context.Background(), "alice@example.com", "wrong"); apperrors.CodeOf(err) != apperrors.ErrorUnauthorized {
		t.Errorf("wrong password error = %q, want UNAUTHORIZED", apperrors.CodeOf(err))
	}
	if _, err := svc.Login(context.Background(), "nobody@example.com", "pw123"); apperrors.CodeOf(err) != apperrors.ErrorUnauthorized {
		t.Errorf("unknown email error = %q, want UNAUTHORIZED", apperrors.CodeOf(err))
	}
}
