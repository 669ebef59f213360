package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iudanet/datapool/internal/client/storage"
	"github.com/iudanet/datapool/internal/validation"
)

// Store хранит состояние регионов в отдельных файлах: один файл на stateKey.
// Имя файла - sanitized stateKey + ".json", содержимое - JSON-массив
// [id, type, data] троек, как его сериализует region.persist.
type Store struct {
	dir string
}

// New создает файловое хранилище в каталоге dir (каталог создается при
// необходимости).
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// ReadState возвращает сохраненное состояние региона
func (s *Store) ReadState(ctx context.Context, stateKey string) ([]byte, error) {
	data, err := os.ReadFile(s.path(stateKey))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storage.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	return data, nil
}

// WriteState сохраняет состояние региона, перезаписывая предыдущее.
// Запись идет через временный файл с rename, чтобы прерванная запись
// не оставила усеченный кэш.
func (s *Store) WriteState(ctx context.Context, stateKey string, data []byte) error {
	path := s.path(stateKey)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// DeleteState удаляет сохраненное состояние региона.
// Отсутствие файла не считается ошибкой.
func (s *Store) DeleteState(ctx context.Context, stateKey string) error {
	if err := os.Remove(s.path(stateKey)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}

func (s *Store) path(stateKey string) string {
	return filepath.Join(s.dir, validation.SanitizeFileName(stateKey)+".json")
}
