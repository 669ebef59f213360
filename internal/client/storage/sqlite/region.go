package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/datapool/internal/client/storage"
)

// ReadState возвращает сохраненное состояние региона по stateKey
func (s *Storage) ReadState(ctx context.Context, stateKey string) ([]byte, error) {
	query := `SELECT data FROM region_state WHERE state_key = ?`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, stateKey).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read region state: %w", err)
	}

	return data, nil
}

// WriteState сохраняет состояние региона, перезаписывая предыдущее
func (s *Storage) WriteState(ctx context.Context, stateKey string, data []byte) error {
	query := `
		INSERT OR REPLACE INTO region_state (state_key, data, updated_at)
		VALUES (?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query, stateKey, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write region state: %w", err)
	}

	return nil
}

// DeleteState удаляет сохраненное состояние региона.
// Отсутствие состояния не считается ошибкой.
func (s *Storage) DeleteState(ctx context.Context, stateKey string) error {
	query := `DELETE FROM region_state WHERE state_key = ?`

	if _, err := s.db.ExecContext(ctx, query, stateKey); err != nil {
		return fmt.Errorf("failed to delete region state: %w", err)
	}

	return nil
}
