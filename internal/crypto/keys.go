package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id для деривации ключа шифрования токенов
const (
	// Argon2Time - количество итераций (time cost)
	Argon2Time = 1
	// Argon2Memory - объем памяти в KB (64MB = 64*1024 KB)
	Argon2Memory = 64 * 1024
	// Argon2Threads - количество параллельных потоков
	Argon2Threads = 4
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveStorageKey генерирует 32-байтовый ключ шифрования токенов at rest.
// clientSecret - локальный секрет приложения, clientID - идентификатор
// устройства; вместе они дают разные ключи для разных установок SDK
// при одинаковом секрете.
func DeriveStorageKey(clientSecret, clientID string, salt []byte) ([]byte, error) {
	if clientSecret == "" {
		return nil, fmt.Errorf("client secret cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	input := []byte(clientSecret + clientID)
	key := argon2.IDKey(input, salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize)

	return key, nil
}
