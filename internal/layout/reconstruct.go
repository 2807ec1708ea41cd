/**
 * Layout Reconstructor
 *
 * Converts raw OCR output (recognized words with bounding boxes, or a flat
 * text blob when geometry is unavailable) into a single layout-preserving
 * plain-text document: line breaks and intra-line spacing approximate the
 * visual layout of the source image.
 */

package layout

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Calibrated layout heuristics. These are legacy constants tuned against the
// expected font metrics of scanned documents; changing any of them changes
// observable output, so tests pin exact values.
const (
	// RowBucket is the vertical bucket size in pixels used to group words
	// into rows. Words whose y0 rounds into the same bucket share a line.
	RowBucket = 10

	// GapDivisor converts a horizontal pixel gap into a space count.
	GapDivisor = 20

	// GlyphWidth is the assumed average glyph width in pixels, used to
	// estimate how far a word extends to the right.
	GlyphWidth = 7

	// MinColumnFields is the minimum number of whitespace-separated fields
	// for a raw-text line to be force-aligned into the column template.
	MinColumnFields = 4
)

// ColumnWidths is the fixed 5-slot column template applied to raw-text lines
// with at least MinColumnFields fields. The last width is reused for any
// field beyond the fifth slot.
var ColumnWidths = [5]int{10, 10, 20, 10, 10}

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// Reconstruct builds a layout-preserving text document from OCR output.
//
// If tokens is non-empty the geometry is used; otherwise rawText is
// reformatted with whitespace heuristics. A non-empty raw transcript is never
// discarded: if formatting degenerates to empty, the trimmed transcript is
// returned as-is.
func Reconstruct(tokens []Token, rawText string) string {
	rawText = strings.TrimSpace(rawText)

	var formatted string
	if len(tokens) > 0 {
		formatted = reconstructGeometric(tokens)
	} else if rawText != "" {
		formatted = reconstructHeuristic(rawText)
	}

	if formatted != "" {
		return formatted
	}
	return rawText
}

// reconstructGeometric groups tokens into rows by vertical bucket and
// rebuilds horizontal spacing from bounding-box positions.
func reconstructGeometric(tokens []Token) string {
	rows := make(map[int][]Token)
	for _, tok := range tokens {
		key := int(math.Round(float64(tok.BBox.Y0) / RowBucket))
		rows[key] = append(rows[key], tok)
	}

	keys := make([]int, 0, len(rows))
	for key := range rows {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	var b strings.Builder
	for _, key := range keys {
		words := rows[key]
		sort.SliceStable(words, func(i, j int) bool {
			return words[i].BBox.X0 < words[j].BBox.X0
		})

		var line strings.Builder
		lastX := 0
		for _, word := range words {
			gap := int(math.Round(float64(word.BBox.X0-lastX) / GapDivisor))
			if gap < 1 {
				gap = 1
			}
			line.WriteString(strings.Repeat(" ", gap))
			line.WriteString(word.Text)
			lastX = word.BBox.X0 + utf8.RuneCountInString(word.Text)*GlyphWidth
		}

		b.WriteString(strings.TrimRight(line.String(), " \t"))
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

// reconstructHeuristic reformats a flat transcript without geometry. Lines
// that already carry column structure (tabs or multi-space runs) are kept;
// lines with enough fields are force-aligned into the fixed column template.
func reconstructHeuristic(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" && i == 0 {
			continue
		}
		out = append(out, formatLine(line))
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

func formatLine(line string) string {
	if strings.Contains(line, "\t") || multiSpaceRe.MatchString(line) {
		// Already column-formatted; normalize tabs only.
		return strings.ReplaceAll(line, "\t", "    ")
	}

	fields := strings.Fields(line)
	if len(fields) < MinColumnFields {
		return line
	}

	var b strings.Builder
	for i, field := range fields {
		width := ColumnWidths[len(ColumnWidths)-1]
		if i < len(ColumnWidths) {
			width = ColumnWidths[i]
		}
		b.WriteString(padEnd(field, width))
	}
	return strings.TrimRight(b.String(), " ")
}

// padEnd right-pads s with spaces to the given rune width. Strings already at
// or beyond the width are returned unchanged.
func padEnd(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
