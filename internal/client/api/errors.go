package api

import "errors"

// Ошибки уровня HTTP транспорта
var (
	// ErrUnauthorized indicates the server rejected the access token (401)
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the request was refused outright (403),
	// например при превышении лимита запросов. Повтор не поможет.
	ErrForbidden = errors.New("forbidden")
)
