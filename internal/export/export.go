/**
 * Document Writers - PDF and Excel export
 *
 * Consume reconstructed text (or its re-segmented field rows) and stream a
 * byte format to the caller. Writer errors surface as a generic export
 * failure; partial output is never represented as success.
 */

package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	pdfFontSize   = 12
	pdfLineHeight = 6 // mm, fixed line gap

	worksheetName = "OCR Result"
)

// WritePDF renders the text as a flowed document with a fixed font size and
// line gap and writes the PDF bytes to w.
func WritePDF(w io.Writer, text string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", pdfFontSize)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.MultiCell(0, pdfLineHeight, tr(text), "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// WriteExcel renders one worksheet with one row per input row and one cell
// per field, and writes the workbook bytes to w.
func WriteExcel(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", worksheetName); err != nil {
		return fmt.Errorf("failed to name worksheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(worksheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
