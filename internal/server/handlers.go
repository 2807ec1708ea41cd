/**
 * HTTP Handlers for the OCR service
 *
 * Thin layer over the services: bind the request, thread the authenticated
 * identity through, translate structured errors to status codes.
 */

package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/simbunathan/ocr-app/internal/errors"
	"github.com/simbunathan/ocr-app/internal/record"
	"github.com/simbunathan/ocr-app/internal/service"
)

// OCRProvider is the job-pipeline surface the handlers depend on.
type OCRProvider interface {
	ProcessJob(ctx context.Context, userID, imagePath, language string) (*service.ProcessResult, error)
	History(ctx context.Context, userID string) ([]record.Record, error)
	Export(ctx context.Context, recordID, userID string, format service.ExportFormat, w io.Writer) error
	Delete(ctx context.Context, recordID, userID string) error
}

// AuthProvider is the account surface the handlers depend on.
type AuthProvider interface {
	Register(ctx context.Context, username, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

// allowed upload extensions, matching the original image filter
var allowedExtensions = map[string]bool{
	".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".bmp": true, ".jfif": true,
}

// Handlers holds the HTTP handler set.
type Handlers struct {
	ocr           OCRProvider
	auth          AuthProvider
	uploadDir     string
	maxUploadSize int64
}

// NewHandlers creates the handler set.
func NewHandlers(ocrSvc OCRProvider, authSvc AuthProvider, uploadDir string, maxUploadSize int64) *Handlers {
	return &Handlers{
		ocr:           ocrSvc,
		auth:          authSvc,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   result.Token,
		"user":    gin.H{"id": result.UserID, "username": result.Username, "email": result.Email},
	})
}

// Login handles POST /api/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   result.Token,
		"user":    gin.H{"id": result.UserID, "username": result.Username, "email": result.Email},
	})
}

// Process handles POST /api/ocr/process (multipart field "image")
func (h *Handlers) Process(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided"})
		return
	}

	if file.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only image files are allowed"})
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), filepath.Base(file.Filename))
	imagePath := filepath.Join(h.uploadDir, filename)
	if err := c.SaveUploadedFile(file, imagePath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	result, err := h.ocr.ProcessJob(c.Request.Context(), currentUserID(c), imagePath, c.PostForm("language"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "OCR processing completed successfully",
		"recordId":   result.RecordID,
		"text":       result.Text,
		"confidence": result.Confidence,
		"imagePath":  "/uploads/" + filename,
	})
}

// History handles GET /api/ocr/history
func (h *Handlers) History(c *gin.Context) {
	records, err := h.ocr.History(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// ExportPDF handles GET /api/ocr/export/pdf/:id
func (h *Handlers) ExportPDF(c *gin.Context) {
	h.export(c, service.FormatPDF, "application/pdf", "pdf")
}

// ExportExcel handles GET /api/ocr/export/excel/:id
func (h *Handlers) ExportExcel(c *gin.Context) {
	h.export(c, service.FormatExcel,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx")
}

// export buffers the full document before sending, so a writer failure never
// leaks partial output as success.
func (h *Handlers) export(c *gin.Context, format service.ExportFormat, contentType, ext string) {
	id := c.Param("id")

	var buf bytes.Buffer
	if err := h.ocr.Export(c.Request.Context(), id, currentUserID(c), format, &buf); err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=OCR_Export_%s.%s", id, ext))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// DeleteRecord handles DELETE /api/ocr/record/:id
func (h *Handlers) DeleteRecord(c *gin.Context) {
	if err := h.ocr.Delete(c.Request.Context(), c.Param("id"), currentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Record deleted successfully"})
}

// respondError maps structured error categories to HTTP statuses.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch apperrors.CodeOf(err) {
	case apperrors.ErrorValidationFailed:
		status = http.StatusBadRequest
	case apperrors.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrorNotFound:
		status = http.StatusNotFound
	}

	var se *apperrors.ServiceError
	if stderrors.As(err, &se) {
		message = se.Message
		c.JSON(status, gin.H{"error": message, "code": string(se.Code)})
		return
	}

	c.JSON(status, gin.H{"error": message})
}
