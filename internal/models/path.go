package models

import "strings"

// PathSeparator разделитель сегментов пути к полю объекта
const PathSeparator = "."

// GetPath возвращает значение по точечному пути внутри mapping
// ("private.state.count"). Второй результат false, если путь не существует
// или один из промежуточных сегментов не является mapping.
func GetPath(m map[string]any, path string) (any, bool) {
	if m == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, PathSeparator)
	cur := m
	for i, seg := range segments {
		v, ok := cur[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// SetPath записывает значение по точечному пути внутри mapping.
// Промежуточные сегменты должны существовать и быть mapping;
// иначе запись не выполняется и возвращается false.
func SetPath(m map[string]any, path string, value any) bool {
	if m == nil || path == "" {
		return false
	}
	segments := strings.Split(path, PathSeparator)
	cur := m
	for i, seg := range segments {
		if i == len(segments)-1 {
			cur[seg] = value
			return true
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return false
		}
		cur = next
	}
	return false
}
