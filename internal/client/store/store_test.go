package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/datapool/internal/models"
)

func newObject(id string, data map[string]any) *models.DataObject {
	return &models.DataObject{ID: id, Type: "vatom", Data: data}
}

func TestStore_Add(t *testing.T) {
	s := New(nil)

	changes := s.Add([]*models.DataObject{
		newObject("a", map[string]any{"v": 1}),
		newObject("b", map[string]any{"v": 2}),
	})

	assert.ElementsMatch(t, []string{"a", "b"}, changes.Added)
	assert.ElementsMatch(t, []string{"a", "b"}, changes.Updated)
	assert.Empty(t, changes.Removed)
	assert.Equal(t, 2, s.Len())
}

func TestStore_Add_ReplacesNotMerges(t *testing.T) {
	s := New(nil)
	s.Add([]*models.DataObject{newObject("a", map[string]any{"old": 1, "keep": 2})})

	// Повторный Add с тем же id: данные заменяются целиком
	changes := s.Add([]*models.DataObject{newObject("a", map[string]any{"new": 3})})

	assert.Empty(t, changes.Added)
	assert.Equal(t, []string{"a"}, changes.Updated)

	raw, ok := s.Raw("a")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"new": 3}, raw.Data)
}

func TestStore_Add_SkipsNilData(t *testing.T) {
	s := New(nil)
	s.Add([]*models.DataObject{newObject("a", map[string]any{"v": 1})})

	// Объект с nil Data не создается и не затирает существующий
	changes := s.Add([]*models.DataObject{
		newObject("a", nil),
		newObject("b", nil),
	})

	assert.True(t, changes.Empty())
	assert.Equal(t, 1, s.Len())

	raw, ok := s.Raw("a")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"v": 1}, raw.Data)
}

func TestStore_Update_DeepMerge(t *testing.T) {
	s := New(nil)
	s.Add([]*models.DataObject{
		newObject("a", map[string]any{"p": map[string]any{"q": 0, "r": 2}}),
	})

	changes := s.Update([]models.DataObjectUpdate{
		{ID: "a", Changes: map[string]any{"p": map[string]any{"q": 1}}},
	})

	assert.Equal(t, []string{"a"}, changes.Updated)

	raw, _ := s.Raw("a")
	assert.Equal(t, map[string]any{"p": map[string]any{"q": 1, "r": 2}}, raw.Data)
}

func TestStore_Update_UnknownIDIgnored(t *testing.T) {
	s := New(nil)
	s.Add([]*models.DataObject{newObject("a", map[string]any{"v": 1})})

	changes := s.Update([]models.DataObjectUpdate{
		{ID: "nonexistent", Changes: map[string]any{"v": 9}},
	})

	assert.True(t, changes.Empty())
	assert.Equal(t, 1, s.Len())
}

func TestStore_Update_DeduplicatesPerBatch(t *testing.T) {
	s := New(nil)
	s.Add([]*models.DataObject{newObject("a", map[string]any{"v": 0})})

	// Два изменения одного id в одном батче - одно уведомление
	changes := s.Update([]models.DataObjectUpdate{
		{ID: "a", Changes: map[string]any{"v": 1}},
		{ID: "a", Changes: map[string]any{"v": 2}},
	})

	assert.Equal(t, []string{"a"}, changes.Updated)

	raw, _ := s.Raw("a")
	assert.Equal(t, map[string]any{"v": 2}, raw.Data)
}

func TestStore_Remove(t *testing.T) {
	s := New(nil)
	s.Add([]*models.DataObject{
		newObject("a", map[string]any{}),
		newObject("b", map[string]any{}),
	})

	changes := s.Remove([]string{"a", "nonexistent"})

	assert.Equal(t, []string{"a"}, changes.Removed)
	assert.Equal(t, 1, s.Len())

	// Только неизвестные id - изменений нет
	changes = s.Remove([]string{"nope"})
	assert.True(t, changes.Empty())
}

func TestStore_Get_MemoizesView(t *testing.T) {
	mapCalls := 0
	mapper := MapperFunc(func(obj *models.DataObject) (any, bool) {
		mapCalls++
		return obj.ID + "-view", true
	})

	s := New(mapper)
	s.Add([]*models.DataObject{newObject("a", map[string]any{"v": 1})})

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a-view", v)

	// Повторный Get использует кэш
	_, _ = s.Get("a")
	assert.Equal(t, 1, mapCalls)

	// Мутация сбрасывает кэш
	s.Update([]models.DataObjectUpdate{{ID: "a", Changes: map[string]any{"v": 2}}})
	_, _ = s.Get("a")
	assert.Equal(t, 2, mapCalls)
}

func TestStore_Get_MapperFilters(t *testing.T) {
	mapper := MapperFunc(func(obj *models.DataObject) (any, bool) {
		hidden, _ := obj.Data["hidden"].(bool)
		return obj.ID, !hidden
	})

	s := New(mapper)
	s.Add([]*models.DataObject{
		newObject("visible", map[string]any{}),
		newObject("filtered", map[string]any{"hidden": true}),
	})

	_, ok := s.Get("filtered")
	assert.False(t, ok)

	all := s.GetAll()
	assert.Equal(t, []any{"visible"}, all)
}

func TestStore_Get_Unknown(t *testing.T) {
	s := New(nil)
	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestStore_Invalidate(t *testing.T) {
	mapCalls := 0
	mapper := MapperFunc(func(obj *models.DataObject) (any, bool) {
		mapCalls++
		v, _ := models.GetPath(obj.Data, "v")
		return v, true
	})

	s := New(mapper)
	s.Add([]*models.DataObject{newObject("a", map[string]any{"v": 1})})

	v, _ := s.Get("a")
	assert.Equal(t, 1, v)

	// Прямая мутация через Raw + Invalidate (путь preemptive change)
	raw, ok := s.Raw("a")
	require.True(t, ok)
	require.True(t, models.SetPath(raw.Data, "v", 2))
	s.Invalidate("a")

	v, _ = s.Get("a")
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, mapCalls)
}

func TestStore_IDsAndSnapshot(t *testing.T) {
	s := New(nil)
	s.Add([]*models.DataObject{
		newObject("a", map[string]any{"v": 1}),
		newObject("b", map[string]any{"v": 2}),
	})

	assert.ElementsMatch(t, []string{"a", "b"}, s.IDs())

	snapshot := s.Snapshot()
	require.Len(t, snapshot, 2)

	// Snapshot отвязан от внутреннего состояния
	for _, obj := range snapshot {
		obj.Data["v"] = 99
	}
	raw, _ := s.Raw("a")
	assert.NotEqual(t, 99, raw.Data["v"])
}
