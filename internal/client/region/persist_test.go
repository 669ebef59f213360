package region

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/datapool/internal/client/storage"
	"github.com/iudanet/datapool/internal/models"
)

// countingCache обертка над RegionCacheMock с сигналом о записи
type countingCache struct {
	*storage.RegionCacheMock
	written chan struct{}
}

func newCountingCache() *countingCache {
	c := &countingCache{written: make(chan struct{}, 64)}
	c.RegionCacheMock = &storage.RegionCacheMock{
		WriteStateFunc: func(ctx context.Context, stateKey string, data []byte) error {
			c.written <- struct{}{}
			return nil
		},
		ReadStateFunc: func(ctx context.Context, stateKey string) ([]byte, error) {
			return nil, storage.ErrStateNotFound
		},
		DeleteStateFunc: func(ctx context.Context, stateKey string) error {
			return nil
		},
	}
	return c
}

func newPersistedRegion(t *testing.T, cache storage.RegionCache, debounce time.Duration) *Region {
	t.Helper()

	reg, err := New(Config{
		Type:         "inventory",
		Descriptor:   "owner=me",
		Loader:       &LoaderMock{},
		Cache:        cache,
		SaveDebounce: debounce,
	})
	require.NoError(t, err)
	t.Cleanup(reg.Close)
	return reg
}

func TestPersist_DebounceCollapsesWrites(t *testing.T) {
	cache := newCountingCache()
	reg := newPersistedRegion(t, cache, 50*time.Millisecond)

	// Серия мутаций в пределах окна дает ровно одну запись
	for i := range 10 {
		reg.Add([]*models.DataObject{
			newObject(fmt.Sprintf("obj-%d", i), map[string]any{"n": i}),
		})
	}

	select {
	case <-cache.written:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cache write")
	}

	// Окно прошло, новых записей быть не должно
	time.Sleep(150 * time.Millisecond)
	assert.Len(t, cache.WriteStateCalls(), 1)

	calls := cache.WriteStateCalls()
	assert.Equal(t, "inventory:owner=me", calls[0].StateKey)
}

func TestPersist_MutationAfterFlushSchedulesAgain(t *testing.T) {
	cache := newCountingCache()
	reg := newPersistedRegion(t, cache, 20*time.Millisecond)

	reg.Add([]*models.DataObject{newObject("a", map[string]any{})})
	<-cache.written

	reg.Add([]*models.DataObject{newObject("b", map[string]any{})})
	select {
	case <-cache.written:
	case <-time.After(2 * time.Second):
		t.Fatal("second write never happened")
	}

	assert.Len(t, cache.WriteStateCalls(), 2)
}

func TestPersist_CloseCancelsPendingWrite(t *testing.T) {
	cache := newCountingCache()
	reg := newPersistedRegion(t, cache, time.Hour)

	reg.Add([]*models.DataObject{newObject("a", map[string]any{})})
	reg.Close()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, cache.WriteStateCalls())
}

func TestPersist_WriteErrorSwallowed(t *testing.T) {
	var calls int
	var mu sync.Mutex
	cache := &storage.RegionCacheMock{
		WriteStateFunc: func(ctx context.Context, stateKey string, data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return errors.New("disk full")
		},
	}

	reg := newPersistedRegion(t, cache, 10*time.Millisecond)

	reg.Add([]*models.DataObject{newObject("a", map[string]any{})})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Ошибка записи не роняет регион
	assert.False(t, reg.Closed())
	assert.Equal(t, 1, reg.Len())
}

func TestPersist_SnapshotFormat(t *testing.T) {
	var payload []byte
	written := make(chan struct{})
	cache := &storage.RegionCacheMock{
		WriteStateFunc: func(ctx context.Context, stateKey string, data []byte) error {
			payload = data
			close(written)
			return nil
		},
	}

	reg := newPersistedRegion(t, cache, 10*time.Millisecond)
	reg.Add([]*models.DataObject{
		newObject("a", map[string]any{"v": float64(1)}),
	})

	select {
	case <-written:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cache write")
	}

	// Каждый объект сериализуется тройкой [id, type, data]
	var records [][]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &records))
	require.Len(t, records, 1)
	require.Len(t, records[0], 3)

	var id, typ string
	require.NoError(t, json.Unmarshal(records[0][0], &id))
	require.NoError(t, json.Unmarshal(records[0][1], &typ))
	assert.Equal(t, "a", id)
	assert.Equal(t, "vatom", typ)
}

func TestLoadFromCache_SeedsObjects(t *testing.T) {
	records := []cacheRecord{
		{ID: "a", Type: "vatom", Data: map[string]any{"v": float64(1)}},
		{ID: "b", Type: "vatom", Data: map[string]any{"v": float64(2)}},
	}
	data, err := json.Marshal(records)
	require.NoError(t, err)

	cache := &storage.RegionCacheMock{
		ReadStateFunc: func(ctx context.Context, stateKey string) ([]byte, error) {
			return data, nil
		},
		WriteStateFunc: func(ctx context.Context, stateKey string, data []byte) error {
			return nil
		},
	}

	reg := newPersistedRegion(t, cache, time.Hour)
	reg.LoadFromCache(context.Background())

	assert.Equal(t, 2, reg.Len())
	raw, ok := reg.Raw("a")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"v": float64(1)}, raw.Data)

	// Кэш - это затравка до синхронизации, регион остается нестабильным
	assert.False(t, reg.Synchronized())
}

func TestLoadFromCache_MissingState(t *testing.T) {
	cache := &storage.RegionCacheMock{
		ReadStateFunc: func(ctx context.Context, stateKey string) ([]byte, error) {
			return nil, storage.ErrStateNotFound
		},
	}

	reg := newPersistedRegion(t, cache, time.Hour)
	reg.LoadFromCache(context.Background())

	assert.Equal(t, 0, reg.Len())
}

func TestLoadFromCache_CorruptedState(t *testing.T) {
	cache := &storage.RegionCacheMock{
		ReadStateFunc: func(ctx context.Context, stateKey string) ([]byte, error) {
			return []byte("{not json"), nil
		},
	}

	reg := newPersistedRegion(t, cache, time.Hour)
	reg.LoadFromCache(context.Background())

	// Битый кэш игнорируется, регион продолжает работать
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.Closed())
}

func TestCacheRecord_RoundTrip(t *testing.T) {
	rec := cacheRecord{
		ID:   "obj-1",
		Type: "vatom",
		Data: map[string]any{"nested": map[string]any{"v": float64(1)}},
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `["obj-1","vatom",{"nested":{"v":1}}]`, string(data))

	var decoded cacheRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestCacheRecord_UnmarshalWrongShape(t *testing.T) {
	var rec cacheRecord
	assert.Error(t, json.Unmarshal([]byte(`["id","type"]`), &rec))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x"}`), &rec))
}
