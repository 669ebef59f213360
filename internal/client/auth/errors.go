package auth

import "errors"

// Ошибки координатора токенов
var (
	// ErrCoordinatorClosed indicates that the coordinator has been shut down
	ErrCoordinatorClosed = errors.New("token coordinator is closed")

	// ErrNotAuthenticated indicates that no refresh token is available
	ErrNotAuthenticated = errors.New("not authenticated")
)
