package region

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/datapool/internal/client/storage"
	"github.com/iudanet/datapool/internal/models"
)

// cacheRecord сериализуется в JSON-массив [id, type, data].
// Формат файла кэша региона: массив таких троек.
type cacheRecord struct {
	Data map[string]any
	ID   string
	Type string
}

// MarshalJSON encodes the record as a [id, type, data] triple.
func (r cacheRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.ID, r.Type, r.Data})
}

// UnmarshalJSON decodes a [id, type, data] triple.
func (r *cacheRecord) UnmarshalJSON(data []byte) error {
	var triple []json.RawMessage
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	if len(triple) != 3 {
		return fmt.Errorf("cache record must have 3 elements, got %d", len(triple))
	}
	if err := json.Unmarshal(triple[0], &r.ID); err != nil {
		return fmt.Errorf("invalid cache record id: %w", err)
	}
	if err := json.Unmarshal(triple[1], &r.Type); err != nil {
		return fmt.Errorf("invalid cache record type: %w", err)
	}
	if err := json.Unmarshal(triple[2], &r.Data); err != nil {
		return fmt.Errorf("invalid cache record data: %w", err)
	}
	return nil
}

// scheduleSave планирует отложенную запись состояния: каждый вызов
// отменяет предыдущий таймер, так что всплеск мутаций дает ровно одну
// запись после периода тишины
func (r *Region) scheduleSave() {
	if r.cfg.Cache == nil {
		return
	}

	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if r.saveTimer != nil {
		r.saveTimer.Stop()
	}
	r.saveTimer = time.AfterFunc(r.cfg.SaveDebounce, r.flushSave)
}

// cancelPendingSave отменяет отложенную запись без выполнения.
// Незаписанные мутации теряются - принятое окно потери данных,
// ограниченное интервалом дебаунса.
func (r *Region) cancelPendingSave() {
	r.saveMu.Lock()
	defer r.saveMu.Unlock()

	if r.saveTimer != nil {
		r.saveTimer.Stop()
		r.saveTimer = nil
	}
}

// flushSave сериализует и записывает текущее состояние региона.
// Ошибки записи логируются и проглатываются: кэш - ускорение, не
// источник истины.
func (r *Region) flushSave() {
	r.saveMu.Lock()
	r.saveTimer = nil
	r.saveMu.Unlock()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	snapshot := r.objects.Snapshot()
	r.mu.Unlock()

	records := make([]cacheRecord, 0, len(snapshot))
	for _, obj := range snapshot {
		records = append(records, cacheRecord{ID: obj.ID, Type: obj.Type, Data: obj.Data})
	}

	data, err := json.Marshal(records)
	if err != nil {
		r.logger.Warn("failed to serialize region state", "error", err)
		return
	}

	if err := r.cfg.Cache.WriteState(context.Background(), r.stateKey, data); err != nil {
		r.logger.Warn("failed to persist region state", "error", err)
		return
	}

	r.logger.Debug("region state persisted", "objects", len(records))
}

// LoadFromCache наполняет регион ранее сохраненным состоянием до начала
// сетевой синхронизации: вызывающий код сразу получает (возможно
// устаревшие) данные, пока Synchronize идет в фоне.
// Ошибки чтения и разбора логируются и проглатываются.
func (r *Region) LoadFromCache(ctx context.Context) {
	if r.cfg.Cache == nil {
		return
	}

	data, err := r.cfg.Cache.ReadState(ctx, r.stateKey)
	if err != nil {
		if !errors.Is(err, storage.ErrStateNotFound) {
			r.logger.Warn("failed to read cached region state", "error", err)
		}
		return
	}

	var records []cacheRecord
	if err := json.Unmarshal(data, &records); err != nil {
		r.logger.Warn("failed to parse cached region state", "error", err)
		return
	}

	objects := make([]*models.DataObject, 0, len(records))
	for _, rec := range records {
		objects = append(objects, &models.DataObject{ID: rec.ID, Type: rec.Type, Data: rec.Data})
	}

	r.Add(objects)
	r.logger.Debug("region seeded from cache", "objects", len(objects))
}

// purge удаляет персистентное состояние региона (используется при
// инвалидации сессии)
func (r *Region) purge(ctx context.Context) {
	if r.cfg.Cache == nil {
		return
	}
	if err := r.cfg.Cache.DeleteState(ctx, r.stateKey); err != nil {
		r.logger.Warn("failed to delete cached region state", "error", err)
	}
}
