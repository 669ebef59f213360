// Package store реализует in-memory хранилище объектов одного региона.
//
// Store не потокобезопасен сам по себе: владеющий им Region сериализует
// все мутации под собственным mutex. Store отвечает только за состояние
// объектов и мемоизацию отображенных представлений; события и
// персистентность - забота региона, которому Store возвращает сводку
// изменений (Changes) по каждой батч-операции.
package store

import (
	"github.com/iudanet/datapool/internal/models"
)

// Mapper преобразует сырой DataObject в доменное представление.
// Второй результат false исключает объект из выдачи Get/GetAll
// (например, объект чужого типа или с незагруженными данными).
type Mapper interface {
	Map(obj *models.DataObject) (any, bool)
}

// MapperFunc адаптер функции к интерфейсу Mapper
type MapperFunc func(obj *models.DataObject) (any, bool)

// Map calls f(obj).
func (f MapperFunc) Map(obj *models.DataObject) (any, bool) {
	return f(obj)
}

// IdentityMapper возвращает копию сырого объекта без преобразования.
// Используется как mapper по умолчанию.
func IdentityMapper() Mapper {
	return MapperFunc(func(obj *models.DataObject) (any, bool) {
		return obj.Clone(), true
	})
}

// Changes описывает результат одной батч-операции над Store.
// Region транслирует сводку в события и планирование записи на диск.
type Changes struct {
	Added   []string // новые id
	Updated []string // id добавленных, замененных или измененных объектов (без дублей)
	Removed []string // удаленные id
}

// Empty reports whether the batch produced no changes.
func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

type entry struct {
	obj    *models.DataObject
	view   any
	viewOK bool // view вычислен и актуален
}

// Store is an in-memory map of object id to versioned record.
type Store struct {
	entries map[string]*entry
	mapper  Mapper
}

// New создает пустой Store с заданным mapper.
// nil mapper заменяется на IdentityMapper.
func New(mapper Mapper) *Store {
	if mapper == nil {
		mapper = IdentityMapper()
	}
	return &Store{
		entries: make(map[string]*entry),
		mapper:  mapper,
	}
}

// Add добавляет объекты или целиком заменяет данные существующих
// (полная перезапись, не слияние). Объекты с nil Data пропускаются:
// их существование известно, но содержимое еще не загружено.
func (s *Store) Add(objects []*models.DataObject) Changes {
	var changes Changes
	for _, obj := range objects {
		if obj == nil || obj.Data == nil {
			continue
		}

		existing, ok := s.entries[obj.ID]
		if ok {
			existing.obj.Type = obj.Type
			existing.obj.Data = obj.Data
			existing.view = nil
			existing.viewOK = false
		} else {
			s.entries[obj.ID] = &entry{obj: obj}
			changes.Added = append(changes.Added, obj.ID)
		}
		changes.Updated = append(changes.Updated, obj.ID)
	}
	return changes
}

// Update вливает частичные изменения в существующие объекты (deep merge:
// вложенные mapping сливаются по ключам, листовые значения заменяются).
// Записи с неизвестным id или с незагруженными данными игнорируются.
// Повторные изменения одного id внутри батча дают одно уведомление.
func (s *Store) Update(records []models.DataObjectUpdate) Changes {
	var changes Changes
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		ent, ok := s.entries[rec.ID]
		if !ok || ent.obj.Data == nil {
			continue
		}

		ent.obj.Data = models.DeepMerge(ent.obj.Data, rec.Changes)
		ent.view = nil
		ent.viewOK = false

		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		changes.Updated = append(changes.Updated, rec.ID)
	}
	return changes
}

// Remove удаляет объекты. Неизвестные id игнорируются.
func (s *Store) Remove(ids []string) Changes {
	var changes Changes
	for _, id := range ids {
		if _, ok := s.entries[id]; !ok {
			continue
		}
		delete(s.entries, id)
		changes.Removed = append(changes.Removed, id)
	}
	return changes
}

// Get возвращает мемоизированное представление объекта.
// false - объект неизвестен или отфильтрован mapper-ом.
func (s *Store) Get(id string) (any, bool) {
	ent, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return s.view(ent)
}

// GetAll возвращает представления всех объектов, прошедших mapper.
func (s *Store) GetAll() []any {
	result := make([]any, 0, len(s.entries))
	for _, ent := range s.entries {
		if v, ok := s.view(ent); ok {
			result = append(result, v)
		}
	}
	return result
}

// Raw возвращает сырой объект (без копирования). Вызывающий код в
// пределах региона может мутировать Data, но обязан затем вызвать
// Invalidate.
func (s *Store) Raw(id string) (*models.DataObject, bool) {
	ent, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return ent.obj, true
}

// Invalidate сбрасывает мемоизированное представление объекта
// после прямой мутации Data.
func (s *Store) Invalidate(id string) {
	if ent, ok := s.entries[id]; ok {
		ent.view = nil
		ent.viewOK = false
	}
}

// IDs возвращает id всех объектов в хранилище.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	return ids
}

// Len возвращает количество объектов в хранилище.
func (s *Store) Len() int {
	return len(s.entries)
}

// Snapshot возвращает глубокие копии всех объектов для сериализации.
func (s *Store) Snapshot() []*models.DataObject {
	objects := make([]*models.DataObject, 0, len(s.entries))
	for _, ent := range s.entries {
		objects = append(objects, ent.obj.Clone())
	}
	return objects
}

func (s *Store) view(ent *entry) (any, bool) {
	if !ent.viewOK {
		v, ok := s.mapper.Map(ent.obj)
		if !ok {
			// Отрицательный результат mapper не кэшируется: объект может
			// стать видимым после следующего обновления данных.
			return nil, false
		}
		ent.view = v
		ent.viewOK = true
	}
	return ent.view, true
}
