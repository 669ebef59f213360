package storage

import "context"

//go:generate moq -out regioncache_mock.go . RegionCache

// RegionCache defines interface for persisting serialized region state.
// Каждый регион адресуется своим stateKey; содержимое - непрозрачный
// байтовый blob (JSON-массив [id, type, data] троек, см. region.persist).
type RegionCache interface {
	// ReadState возвращает сохраненное состояние региона
	// Returns ErrStateNotFound if no state exists for the key
	ReadState(ctx context.Context, stateKey string) ([]byte, error)

	// WriteState сохраняет состояние региона, перезаписывая предыдущее
	WriteState(ctx context.Context, stateKey string, data []byte) error

	// DeleteState удаляет сохраненное состояние региона (close/logout)
	DeleteState(ctx context.Context, stateKey string) error
}
