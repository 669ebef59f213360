package region

import (
	"github.com/iudanet/datapool/internal/models"
)

// UndoFunc откатывает оптимистичную мутацию.
// Для несуществующих объектов или путей возвращается no-op: оптимистичное
// обновление неизвестного объекта безвредно и не является ошибкой.
type UndoFunc func()

func noopUndo() {}

// PreemptiveChange применяет локальное изменение поля до подтверждения
// сервером и возвращает откат к прежнему значению. Изменение и откат
// публикуют одинаковую последовательность событий: слушатели не могут
// отличить оптимистичную мутацию от подтвержденной.
func (r *Region) PreemptiveChange(id, path string, value any) UndoFunc {
	r.mu.Lock()

	obj, ok := r.objects.Raw(id)
	if !ok || r.closed {
		r.mu.Unlock()
		return noopUndo
	}

	old, ok := models.GetPath(obj.Data, path)
	if !ok {
		r.mu.Unlock()
		r.logger.Debug("preemptive change on unknown path, ignored", "object", id, "path", path)
		return noopUndo
	}

	// Копия прежнего значения: после отката оно не должно разделять
	// структуру с промежуточным состоянием
	restore := models.CopyValue(old)

	models.SetPath(obj.Data, path, value)
	r.objects.Invalidate(id)
	r.mu.Unlock()

	r.emitObjectChange(id)

	return func() {
		r.applyFieldWrite(id, path, restore)
	}
}

// PreemptiveRemove удаляет объект до подтверждения сервером и возвращает
// откат, который восстанавливает объект - но только если за это время
// под тем же id не появился другой объект (защита от воскрешения
// устаревших данных поверх легитимно нового объекта).
func (r *Region) PreemptiveRemove(id string) UndoFunc {
	r.mu.Lock()

	obj, ok := r.objects.Raw(id)
	if !ok || r.closed {
		r.mu.Unlock()
		return noopUndo
	}

	backup := obj.Clone()
	changes := r.objects.Remove([]string{id})
	r.mu.Unlock()

	r.applyChanges(changes)

	return func() {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		if _, exists := r.objects.Raw(id); exists {
			// Под этим id уже живет новый объект - не затираем
			r.mu.Unlock()
			r.logger.Debug("undo remove skipped, id reoccupied", "object", id)
			return
		}
		restored := r.objects.Add([]*models.DataObject{backup})
		r.mu.Unlock()

		r.applyChanges(restored)
	}
}

// applyFieldWrite выполняет запись поля с той же последовательностью
// событий, что и PreemptiveChange (используется откатом)
func (r *Region) applyFieldWrite(id, path string, value any) {
	r.mu.Lock()
	obj, ok := r.objects.Raw(id)
	if !ok || r.closed {
		r.mu.Unlock()
		return
	}
	models.SetPath(obj.Data, path, value)
	r.objects.Invalidate(id)
	r.mu.Unlock()

	r.emitObjectChange(id)
}

func (r *Region) emitObjectChange(id string) {
	r.notifier.emit(Event{Type: EventObjectUpdated, ObjectID: id})
	r.notifier.emit(Event{Type: EventUpdated})
	r.scheduleSave()
}
