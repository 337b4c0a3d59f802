package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/godown-app/godown/internal/shared"
)

func TestDiffDeltasNetsByRow(t *testing.T) {
	productID := uuid.New()
	warehouseA := uuid.New()
	warehouseB := uuid.New()

	old := []Delta{{ProductID: productID, WarehouseID: warehouseA, Pieces: 50, PiecesPerBox: 10}}
	updated := []Delta{{ProductID: productID, WarehouseID: warehouseB, Pieces: 50, PiecesPerBox: 10}}

	diff := DiffDeltas(old, updated)
	require.Len(t, diff, 2)
	require.Equal(t, warehouseA, diff[0].WarehouseID)
	require.Equal(t, int64(-50), diff[0].Pieces)
	require.Equal(t, warehouseB, diff[1].WarehouseID)
	require.Equal(t, int64(50), diff[1].Pieces)
}

func TestDiffDeltasDropsUnchangedRows(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()

	same := []Delta{{ProductID: productID, WarehouseID: warehouseID, Pieces: 30, PiecesPerBox: 12}}
	require.Empty(t, DiffDeltas(same, same))
}

func TestDiffDeltasQuantityChange(t *testing.T) {
	productID := uuid.New()
	warehouseID := uuid.New()

	old := []Delta{{ProductID: productID, WarehouseID: warehouseID, Pieces: 30, PiecesPerBox: 12}}
	updated := []Delta{{ProductID: productID, WarehouseID: warehouseID, Pieces: 45, PiecesPerBox: 12}}

	diff := DiffDeltas(old, updated)
	require.Len(t, diff, 1)
	require.Equal(t, int64(15), diff[0].Pieces)
}

func TestDiffDeltasEmptyOld(t *testing.T) {
	updated := []Delta{
		{ProductID: uuid.New(), WarehouseID: uuid.New(), Pieces: 10, PiecesPerBox: 5, CreateIfMissing: true},
	}
	diff := DiffDeltas(nil, updated)
	require.Len(t, diff, 1)
	require.True(t, diff[0].CreateIfMissing)
	require.Equal(t, int64(10), diff[0].Pieces)
}

func TestDeltaRequestPieces(t *testing.T) {
	_, err := deltaRequest{}.pieces()
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = deltaRequest{Boxes: 2}.pieces()
	require.ErrorIs(t, err, shared.ErrInvalidUnit)

	pieces, err := deltaRequest{Boxes: 2, LooseItems: 5, PiecesPerBox: 10}.pieces()
	require.NoError(t, err)
	require.Equal(t, int64(25), pieces)

	pieces, err = deltaRequest{Boxes: -3, PiecesPerBox: 12}.pieces()
	require.NoError(t, err)
	require.Equal(t, int64(-36), pieces)

	pieces, err = deltaRequest{Pieces: -7}.pieces()
	require.NoError(t, err)
	require.Equal(t, int64(-7), pieces)
}
