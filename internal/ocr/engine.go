/**
 * Tesseract OCR Engine
 *
 * Wraps gosseract behind a narrow Engine interface so the processing service
 * can be exercised without a tesseract installation. Recognition is a
 * blocking external call that may take seconds; callers treat any failure as
 * a failed job.
 */

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/simbunathan/ocr-app/internal/layout"
)

// Word is a single recognized word with its bounding box and confidence.
type Word struct {
	Text       string
	Confidence float64
	BBox       layout.BBox
}

// Result represents the outcome of one recognition call.
type Result struct {
	Text       string
	Confidence float64 // mean word confidence, 0-100; 0 when the engine reports none
	Words      []Word
}

// Tokens converts the recognized words into layout tokens.
func (r *Result) Tokens() []layout.Token {
	tokens := make([]layout.Token, len(r.Words))
	for i, w := range r.Words {
		tokens[i] = layout.Token{Text: w.Text, BBox: w.BBox}
	}
	return tokens
}

// Engine performs OCR on an image file.
type Engine interface {
	Recognize(ctx context.Context, imagePath, language string) (*Result, error)
}

// TesseractEngine is the gosseract-backed Engine.
type TesseractEngine struct{}

// NewTesseractEngine creates a new Tesseract engine.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{}
}

// Recognize runs Tesseract on the image at imagePath.
func (t *TesseractEngine) Recognize(ctx context.Context, imagePath, language string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return nil, fmt.Errorf("failed to set language %q: %w", language, err)
		}
	}

	if err := client.SetImage(imagePath); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}

	result := &Result{Text: text}

	// Word-level boxes feed the geometric layout reconstruction. A failure
	// here is not fatal: the flat transcript still flows through the
	// heuristic text path.
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return result, nil
	}

	var confidenceSum float64
	for _, box := range boxes {
		result.Words = append(result.Words, Word{
			Text:       box.Word,
			Confidence: box.Confidence,
			BBox: layout.BBox{
				X0: box.Box.Min.X,
				Y0: box.Box.Min.Y,
				X1: box.Box.Max.X,
				Y1: box.Box.Max.Y,
			},
		})
		confidenceSum += box.Confidence
	}

	// Confidence is the engine-reported mean over words, never inferred from
	// token count. No words means confidence stays 0.
	if len(boxes) > 0 {
		result.Confidence = confidenceSum / float64(len(boxes))
	}

	return result, nil
}
