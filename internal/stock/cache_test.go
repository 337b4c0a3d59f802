package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute), srv
}

func TestCacheLoadsOncePerKey(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	productID, warehouseID := uuid.New(), uuid.New()

	loads := 0
	loader := func(context.Context) (Record, error) {
		loads++
		return Record{ProductID: productID, WarehouseID: warehouseID, Boxes: 4, LooseItems: 5, PiecesPerBox: 10}, nil
	}

	first, err := cache.GetRecord(ctx, productID, warehouseID, loader)
	require.NoError(t, err)
	require.Equal(t, int64(45), first.TotalPieces())

	second, err := cache.GetRecord(ctx, productID, warehouseID, loader)
	require.NoError(t, err)
	require.Equal(t, first.Boxes, second.Boxes)
	require.Equal(t, 1, loads)
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	productID, warehouseID := uuid.New(), uuid.New()

	loads := 0
	loader := func(context.Context) (Record, error) {
		loads++
		return Record{ProductID: productID, WarehouseID: warehouseID, Boxes: int64(loads), PiecesPerBox: 10}, nil
	}

	_, err := cache.GetRecord(ctx, productID, warehouseID, loader)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, productID, warehouseID))

	rec, err := cache.GetRecord(ctx, productID, warehouseID, loader)
	require.NoError(t, err)
	require.Equal(t, int64(2), rec.Boxes)
	require.Equal(t, 2, loads)
}

func TestCacheLoaderErrorNotCached(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	productID, warehouseID := uuid.New(), uuid.New()

	boom := errors.New("load failed")
	_, err := cache.GetRecord(ctx, productID, warehouseID, func(context.Context) (Record, error) {
		return Record{}, boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := cache.GetRecord(ctx, productID, warehouseID, func(context.Context) (Record, error) {
		return Record{ProductID: productID, WarehouseID: warehouseID, Boxes: 7, PiecesPerBox: 10}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(7), rec.Boxes)
}

func TestCacheCorruptEntryReloads(t *testing.T) {
	cache, srv := newTestCache(t)
	ctx := context.Background()
	productID, warehouseID := uuid.New(), uuid.New()

	require.NoError(t, srv.Set(cache.key(productID, warehouseID), "{not json"))

	rec, err := cache.GetRecord(ctx, productID, warehouseID, func(context.Context) (Record, error) {
		return Record{ProductID: productID, WarehouseID: warehouseID, Boxes: 3, PiecesPerBox: 10}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(3), rec.Boxes)
}

func TestNilCacheFallsThrough(t *testing.T) {
	var cache *Cache
	rec, err := cache.GetRecord(context.Background(), uuid.New(), uuid.New(), func(context.Context) (Record, error) {
		return Record{Boxes: 1, PiecesPerBox: 10}, nil
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.Boxes)
	require.NoError(t, cache.Invalidate(context.Background(), uuid.New(), uuid.New()))
}
