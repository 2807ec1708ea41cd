/**
 * Layout Types - Shared data structures for layout reconstruction
 *
 * A Token is a single recognized word with its bounding box, as produced by
 * the OCR engine. Tokens are immutable and owned by one reconstruction call.
 */

package layout

// BBox is an axis-aligned bounding box in image pixel coordinates.
// X0/Y0 is the top-left corner, X1/Y1 the bottom-right.
type BBox struct {
	X0 int
	Y0 int
	X1 int
	Y1 int
}

// Token represents a single recognized word with its bounding box.
type Token struct {
	Text string
	BBox BBox
}
