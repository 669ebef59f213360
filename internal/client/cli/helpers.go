package cli

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/datapool/internal/client/auth"
	"github.com/iudanet/datapool/internal/crypto"
)

// saltPath возвращает путь sidecar-файла с солью деривации ключа.
// Соль не секретна, но обязана переживать переустановку токенов.
func (c *Cli) saltPath() string {
	return c.dbPath + ".salt"
}

// loadSalt читает соль из sidecar-файла
func (c *Cli) loadSalt() ([]byte, error) {
	content, err := os.ReadFile(c.saltPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read salt file: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt file: %w", err)
	}
	return salt, nil
}

// createSalt генерирует новую соль и записывает ее рядом с базой
func (c *Cli) createSalt() ([]byte, error) {
	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(salt)
	if err := os.WriteFile(c.saltPath(), []byte(encoded+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write salt file: %w", err)
	}
	return salt, nil
}

// openTokenStore деривирует ключ хранилища и открывает TokenStore
func (c *Cli) openTokenStore(passphrase, clientID string) (*auth.TokenStore, error) {
	salt, err := c.loadSalt()
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveStorageKey(passphrase, clientID, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to derive storage key: %w", err)
	}

	tokenStore, err := auth.NewTokenStore(c.storage, key)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	return tokenStore, nil
}

// parseCollectionArgs разбирает аргументы <type> [descriptor]
func parseCollectionArgs(args []string) (collectionType, descriptor string, err error) {
	if len(args) < 1 || args[0] == "" {
		return "", "", fmt.Errorf("collection type is required")
	}
	collectionType = args[0]
	if len(args) > 1 {
		descriptor = args[1]
	}
	return collectionType, descriptor, nil
}
