package models

// DataObject представляет один кэшированный объект коллекции.
// Data == nil означает "существование известно, содержимое ещё не загружено":
// такие объекты не участвуют в слиянии и не перезаписывают существующие данные.
type DataObject struct {
	Data map[string]any `json:"data"` // Data сырые поля объекта, владеет регион
	ID   string         `json:"id"`   // ID уникальный идентификатор объекта
	Type string         `json:"type"` // Type тип объекта (vatom, user, ...)
}

// DataObjectUpdate представляет частичное изменение одного объекта.
// Changes рекурсивно вливаются в Data существующего объекта (см. DeepMerge).
type DataObjectUpdate struct {
	Changes map[string]any `json:"new_object"` // Changes частичный набор полей для слияния
	ID      string         `json:"id"`         // ID идентификатор целевого объекта
}

// Clone создает глубокую копию объекта.
// Используется перед выдачей данных наружу, чтобы вызывающий код
// не мог мутировать состояние региона напрямую.
func (o *DataObject) Clone() *DataObject {
	return &DataObject{
		ID:   o.ID,
		Type: o.Type,
		Data: DeepCopy(o.Data),
	}
}

// DeepCopy создает глубокую копию JSON-совместимого mapping.
// Копируются вложенные map[string]any и []any; листовые значения
// (строки, числа, bool) иммутабельны и передаются как есть.
func DeepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CopyValue(v)
	}
	return out
}

// CopyValue создает глубокую копию одного JSON-совместимого значения.
func CopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopy(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CopyValue(item)
		}
		return out
	default:
		return v
	}
}

// DeepMerge рекурсивно вливает changes в dst и возвращает dst.
// Правила слияния:
//   - вложенные mapping сливаются по ключам
//   - любое не-mapping значение (включая nil) заменяет старое целиком
//
// Это позволяет присылать разреженные частичные обновления вложенных
// структур, не затирая соседние ключи.
func DeepMerge(dst, changes map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(changes))
	}
	for k, v := range changes {
		newMap, newIsMap := v.(map[string]any)
		oldMap, oldIsMap := dst[k].(map[string]any)
		if newIsMap && oldIsMap {
			dst[k] = DeepMerge(oldMap, newMap)
			continue
		}
		dst[k] = CopyValue(v)
	}
	return dst
}
