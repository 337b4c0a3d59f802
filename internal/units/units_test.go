package units

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godown-app/godown/internal/shared"
)

func TestToPieces(t *testing.T) {
	pieces, err := ToPieces(10, 5, 12)
	require.NoError(t, err)
	require.Equal(t, int64(125), pieces)

	pieces, err = ToPieces(0, 0, 1)
	require.NoError(t, err)
	require.Equal(t, int64(0), pieces)

	_, err = ToPieces(1, 0, 0)
	require.ErrorIs(t, err, shared.ErrInvalidUnit)

	_, err = ToPieces(-1, 0, 12)
	require.ErrorIs(t, err, shared.ErrInvalidUnit)

	_, err = ToPieces(0, -3, 12)
	require.ErrorIs(t, err, shared.ErrInvalidUnit)
}

func TestNormalizeFoldsOverflow(t *testing.T) {
	boxes, loose, err := Normalize(2, 27, 12)
	require.NoError(t, err)
	require.Equal(t, int64(4), boxes)
	require.Equal(t, int64(3), loose)

	// Already normalised input stays put.
	boxes, loose, err = Normalize(boxes, loose, 12)
	require.NoError(t, err)
	require.Equal(t, int64(4), boxes)
	require.Equal(t, int64(3), loose)
}

func TestNormalizePreservesPieceCount(t *testing.T) {
	cases := []struct{ boxes, loose, perBox int64 }{
		{0, 0, 1},
		{0, 11, 12},
		{3, 12, 12},
		{7, 100, 6},
		{1000, 999, 24},
	}
	for _, tc := range cases {
		before, err := ToPieces(tc.boxes, tc.loose, tc.perBox)
		require.NoError(t, err)

		b, l, err := Normalize(tc.boxes, tc.loose, tc.perBox)
		require.NoError(t, err)
		require.Less(t, l, tc.perBox)

		after, err := ToPieces(b, l, tc.perBox)
		require.NoError(t, err)
		require.Equal(t, before, after)
	}
}

func TestFromPieces(t *testing.T) {
	boxes, loose, err := FromPieces(118, 12)
	require.NoError(t, err)
	require.Equal(t, int64(9), boxes)
	require.Equal(t, int64(10), loose)

	boxes, loose, err = FromPieces(0, 5)
	require.NoError(t, err)
	require.Zero(t, boxes)
	require.Zero(t, loose)

	_, _, err = FromPieces(10, 0)
	require.ErrorIs(t, err, shared.ErrInvalidUnit)

	_, _, err = FromPieces(-1, 12)
	require.ErrorIs(t, err, shared.ErrInvalidUnit)
}
