package api

// Object представляет один объект коллекции в ответе сервера
type Object struct {
	ID   string         `json:"id"`             // уникальный идентификатор объекта
	Type string         `json:"type"`           // тип объекта (vatom, user, ...)
	Data map[string]any `json:"data,omitempty"` // сырые поля объекта; nil = содержимое не загружено
}

// CollectionRequest представляет запрос страницы коллекции
type CollectionRequest struct {
	Type   string `json:"type"`             // тип коллекции
	Filter string `json:"filter,omitempty"` // фильтр коллекции (descriptor региона)
	Cursor string `json:"cursor,omitempty"` // курсор пагинации, пустой для первой страницы
}

// CollectionResponse представляет одну страницу коллекции
type CollectionResponse struct {
	Objects    []Object `json:"objects"`               // объекты страницы
	NextCursor string   `json:"next_cursor,omitempty"` // курсор следующей страницы, пустой на последней
	Complete   bool     `json:"complete"`              // true если выдача покрывает всю коллекцию
}
