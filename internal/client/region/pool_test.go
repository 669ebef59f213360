package region

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/datapool/internal/client/storage"
)

func newTestPool(t *testing.T) *Pool {
	t.Helper()
	p := NewPool(nil, nil)
	t.Cleanup(p.Close)
	return p
}

func staticBuilder(loader Loader) Builder {
	return func(descriptor string) (Config, error) {
		return Config{Loader: loader}, nil
	}
}

func TestPool_UnknownType(t *testing.T) {
	p := newTestPool(t)

	_, err := p.Region(context.Background(), "inventory", "owner=me")
	assert.ErrorIs(t, err, ErrUnknownRegionType)
}

func TestPool_Dedup(t *testing.T) {
	loader := &LoaderMock{
		LoadFunc: func(ctx context.Context, sink Sink) ([]string, error) {
			return nil, nil
		},
	}

	p := newTestPool(t)
	p.RegisterBuilder("inventory", staticBuilder(loader))

	a, err := p.Region(context.Background(), "inventory", "owner=me")
	require.NoError(t, err)
	b, err := p.Region(context.Background(), "inventory", "owner=me")
	require.NoError(t, err)

	// Одинаковый запрос разделяет один регион
	assert.Same(t, a, b)
	assert.Equal(t, 1, p.Len())

	// Другой descriptor - новый регион
	c, err := p.Region(context.Background(), "inventory", "owner=other")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, p.Len())
}

func TestPool_DedupAcrossTypes(t *testing.T) {
	loader := &LoaderMock{
		LoadFunc: func(ctx context.Context, sink Sink) ([]string, error) {
			return nil, nil
		},
	}

	p := newTestPool(t)
	p.RegisterBuilder("inventory", staticBuilder(loader))
	p.RegisterBuilder("geopos", staticBuilder(loader))

	a, err := p.Region(context.Background(), "inventory", "x")
	require.NoError(t, err)
	b, err := p.Region(context.Background(), "geopos", "x")
	require.NoError(t, err)

	// Совпадающий descriptor при разных типах - разные регионы
	assert.NotSame(t, a, b)
}

func TestPool_CustomMatches(t *testing.T) {
	loader := &LoaderMock{
		LoadFunc: func(ctx context.Context, sink Sink) ([]string, error) {
			return nil, nil
		},
	}

	p := newTestPool(t)
	// Регион объявляет, что обслуживает любые descriptor с общим префиксом
	p.RegisterBuilder("inventory", func(descriptor string) (Config, error) {
		prefix, _, _ := strings.Cut(descriptor, "&")
		return Config{
			Loader: loader,
			Matches: func(d string) bool {
				return strings.HasPrefix(d, prefix)
			},
		}, nil
	})

	a, err := p.Region(context.Background(), "inventory", "owner=me&page=1")
	require.NoError(t, err)
	b, err := p.Region(context.Background(), "inventory", "owner=me&page=2")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Equal(t, 1, p.Len())
}

func TestPool_BackgroundSynchronize(t *testing.T) {
	loader := &LoaderMock{
		LoadFunc: func(ctx context.Context, sink Sink) ([]string, error) {
			return nil, nil
		},
	}

	p := newTestPool(t)
	p.RegisterBuilder("inventory", staticBuilder(loader))

	reg, err := p.Region(context.Background(), "inventory", "owner=me")
	require.NoError(t, err)

	require.Eventually(t, reg.Synchronized, 2*time.Second, 10*time.Millisecond)
	assert.Len(t, loader.LoadCalls(), 1)
}

func TestPool_SeedsFromSharedCache(t *testing.T) {
	cache := &storage.RegionCacheMock{
		ReadStateFunc: func(ctx context.Context, stateKey string) ([]byte, error) {
			return []byte(`[["a","vatom",{"v":1}]]`), nil
		},
		WriteStateFunc: func(ctx context.Context, stateKey string, data []byte) error {
			return nil
		},
	}

	release := make(chan struct{})
	loader := &LoaderMock{
		LoadFunc: func(ctx context.Context, sink Sink) ([]string, error) {
			<-release
			return nil, nil
		},
	}

	p := NewPool(cache, nil)
	t.Cleanup(p.Close)
	defer close(release)

	p.RegisterBuilder("inventory", staticBuilder(loader))

	reg, err := p.Region(context.Background(), "inventory", "owner=me")
	require.NoError(t, err)

	// Данные из кэша доступны еще до завершения сетевой синхронизации
	assert.Equal(t, 1, reg.Len())
	assert.False(t, reg.Synchronized())
}

func TestPool_CloseRemovesRegion(t *testing.T) {
	loader := &LoaderMock{
		LoadFunc: func(ctx context.Context, sink Sink) ([]string, error) {
			return nil, nil
		},
	}

	p := newTestPool(t)
	p.RegisterBuilder("inventory", staticBuilder(loader))

	reg, err := p.Region(context.Background(), "inventory", "owner=me")
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())

	reg.Close()
	assert.Equal(t, 0, p.Len())

	// Следующий запрос создает новый регион
	again, err := p.Region(context.Background(), "inventory", "owner=me")
	require.NoError(t, err)
	assert.NotSame(t, reg, again)
}

func TestPool_OnSessionChanged(t *testing.T) {
	var mu sync.Mutex
	deleted := make(map[string]int)
	cache := &storage.RegionCacheMock{
		ReadStateFunc: func(ctx context.Context, stateKey string) ([]byte, error) {
			return nil, storage.ErrStateNotFound
		},
		WriteStateFunc: func(ctx context.Context, stateKey string, data []byte) error {
			return nil
		},
		DeleteStateFunc: func(ctx context.Context, stateKey string) error {
			mu.Lock()
			defer mu.Unlock()
			deleted[stateKey]++
			return nil
		},
	}

	loader := &LoaderMock{
		LoadFunc: func(ctx context.Context, sink Sink) ([]string, error) {
			return nil, nil
		},
	}

	p := NewPool(cache, nil)
	t.Cleanup(p.Close)

	p.RegisterBuilder("inventory", func(descriptor string) (Config, error) {
		return Config{Loader: loader, SessionScoped: true}, nil
	})
	p.RegisterBuilder("catalog", staticBuilder(loader))

	scoped, err := p.Region(context.Background(), "inventory", "owner=me")
	require.NoError(t, err)
	shared, err := p.Region(context.Background(), "catalog", "all")
	require.NoError(t, err)

	p.OnSessionChanged(context.Background(), SessionInfo{UserID: ""})

	// Сессионные регионы закрыты и кэш вычищен, общие продолжают жить
	assert.True(t, scoped.Closed())
	assert.False(t, shared.Closed())
	assert.Equal(t, 1, p.Len())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, deleted["inventory:owner=me"])
	assert.Zero(t, deleted["catalog:all"])
}
