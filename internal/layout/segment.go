package layout

import (
	"regexp"
	"strings"
)

var fieldSplitRe = regexp.MustCompile(`\s{2,}|\t`)

// SegmentFields re-splits already-reconstructed text into rows of discrete
// fields for tabular export. It relies purely on the whitespace structure the
// reconstructor embedded: lines with a tab or a multi-space run become
// multi-field rows, every other line becomes a single-field row.
func SegmentFields(text string) [][]string {
	lines := strings.Split(text, "\n")

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		if strings.Contains(line, "\t") || multiSpaceRe.MatchString(line) {
			parts := fieldSplitRe.Split(line, -1)
			fields := make([]string, len(parts))
			for i, part := range parts {
				fields[i] = strings.TrimSpace(part)
			}
			rows = append(rows, fields)
		} else {
			rows = append(rows, []string{strings.TrimSpace(line)})
		}
	}

	return rows
}
