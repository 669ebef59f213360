package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/datapool/internal/client/storage"
)

// ReadState возвращает сохраненное состояние региона по stateKey
func (s *Storage) ReadState(ctx context.Context, stateKey string) ([]byte, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var state []byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRegionState)
		if bucket == nil {
			return storage.ErrStateNotFound
		}

		data := bucket.Get([]byte(stateKey))
		if data == nil {
			return storage.ErrStateNotFound
		}

		// Копируем: данные bbolt валидны только внутри транзакции
		state = make([]byte, len(data))
		copy(state, data)
		return nil
	})

	if err != nil {
		return nil, err
	}

	return state, nil
}

// WriteState сохраняет состояние региона, перезаписывая предыдущее
func (s *Storage) WriteState(ctx context.Context, stateKey string, data []byte) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketRegionState)
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}

		if err := bucket.Put([]byte(stateKey), data); err != nil {
			return fmt.Errorf("failed to save region state: %w", err)
		}

		return nil
	})

	if err != nil {
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

// DeleteState удаляет сохраненное состояние региона.
// Отсутствие состояния не считается ошибкой.
func (s *Storage) DeleteState(ctx context.Context, stateKey string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketRegionState)
		if bucket == nil {
			return nil
		}

		if err := bucket.Delete([]byte(stateKey)); err != nil {
			return fmt.Errorf("failed to delete region state: %w", err)
		}

		return nil
	})
}
