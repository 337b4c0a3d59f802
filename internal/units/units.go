// Package units converts between boxed and loose piece quantities.
//
// A product is stored in two interchangeable units: sealed boxes of a fixed
// capacity and loose pieces held outside a full box. All stock mutations flow
// through a total piece count and are re-split on the way back, so loose
// overflow is always folded into whole boxes.
package units

import (
	"fmt"

	"github.com/godown-app/godown/internal/shared"
)

// ToPieces converts a boxes+loose quantity into a total piece count.
func ToPieces(boxes, loose, piecesPerBox int64) (int64, error) {
	if piecesPerBox < 1 {
		return 0, fmt.Errorf("%w: pieces per box must be >= 1, got %d", shared.ErrInvalidUnit, piecesPerBox)
	}
	if boxes < 0 || loose < 0 {
		return 0, fmt.Errorf("%w: negative quantity (boxes=%d loose=%d)", shared.ErrInvalidUnit, boxes, loose)
	}
	return boxes*piecesPerBox + loose, nil
}

// Normalize folds loose overflow into whole boxes so that loose < piecesPerBox.
// It preserves the total piece count and is idempotent.
func Normalize(boxes, loose, piecesPerBox int64) (int64, int64, error) {
	total, err := ToPieces(boxes, loose, piecesPerBox)
	if err != nil {
		return 0, 0, err
	}
	return total / piecesPerBox, total % piecesPerBox, nil
}

// FromPieces splits a total piece count into boxes and loose pieces.
func FromPieces(pieces, piecesPerBox int64) (int64, int64, error) {
	if piecesPerBox < 1 {
		return 0, 0, fmt.Errorf("%w: pieces per box must be >= 1, got %d", shared.ErrInvalidUnit, piecesPerBox)
	}
	if pieces < 0 {
		return 0, 0, fmt.Errorf("%w: negative pieces %d", shared.ErrInvalidUnit, pieces)
	}
	return pieces / piecesPerBox, pieces % piecesPerBox, nil
}
