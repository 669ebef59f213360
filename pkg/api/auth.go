package api

// RefreshRequest представляет запрос на обмен refresh token на новый access token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"` // текущий refresh token
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`            // JWT access token
	RefreshToken string `json:"refresh_token,omitempty"` // refresh token (сервер может вернуть прежний)
	ExpiresIn    int64  `json:"expires_in"`              // время жизни access token в секундах
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
