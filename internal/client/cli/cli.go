// Package cli реализует консольные команды клиента datapool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/iudanet/datapool/internal/client/api"
	"github.com/iudanet/datapool/internal/client/auth"
	"github.com/iudanet/datapool/internal/client/iocli"
	"github.com/iudanet/datapool/internal/client/region"
	"github.com/iudanet/datapool/internal/client/storage"
	"github.com/iudanet/datapool/internal/client/storage/boltdb"
)

// Passphrase задает источники парольной фразы локального хранилища
type Passphrase struct {
	FromFile string
	FromArgs string
}

// Cli связывает команды с хранилищем и сервером.
// Сессия (координатор токенов, пул регионов) собирается лениво
// командами, которым она нужна.
type Cli struct {
	io        iocli.IO
	logger    *slog.Logger
	storage   *boltdb.Storage
	serverURL string
	dbPath    string

	// Поля сессии, заполняются unlock
	tokenStore  *auth.TokenStore
	coordinator *auth.Coordinator
	client      *api.Client
	pool        *region.Pool
}

// New создает Cli поверх открытого хранилища
func New(io iocli.IO, logger *slog.Logger, st *boltdb.Storage, serverURL, dbPath string) *Cli {
	return &Cli{
		io:        io,
		logger:    logger,
		storage:   st,
		serverURL: serverURL,
		dbPath:    dbPath,
	}
}

// Close освобождает ресурсы сессии, если она была собрана
func (c *Cli) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
	if c.coordinator != nil {
		c.coordinator.Close()
	}
}

// unlock восстанавливает сессию из локального хранилища: читает соль и
// clientID, деривирует ключ из парольной фразы, расшифровывает токены и
// собирает координатор с пулом регионов.
func (c *Cli) unlock(ctx context.Context, p Passphrase) error {
	raw, err := c.storage.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return fmt.Errorf("not authenticated. Please run 'datapool login' first")
		}
		return fmt.Errorf("failed to get auth data: %w", err)
	}

	passphrase, err := c.getPassphrase(p, false)
	if err != nil {
		return fmt.Errorf("failed to get passphrase: %w", err)
	}

	tokenStore, err := c.openTokenStore(passphrase, raw.ClientID)
	if err != nil {
		return err
	}

	tokens, clientID, err := tokenStore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to decrypt tokens (wrong passphrase?): %w", err)
	}

	return c.startSession(tokenStore, tokens, clientID)
}

// startSession собирает координатор, API клиент и пул регионов
func (c *Cli) startSession(tokenStore *auth.TokenStore, tokens auth.Tokens, clientID string) error {
	client := api.NewClient(c.serverURL, api.WithLogger(c.logger))

	coordinator, err := auth.NewCoordinator(auth.Config{
		Refresher: client,
		Store:     tokenStore,
		Logger:    c.logger,
		BaseURL:   c.serverURL,
		ClientID:  clientID,
		Tokens:    tokens,
	})
	if err != nil {
		return fmt.Errorf("failed to start token coordinator: %w", err)
	}
	client.SetAdapter(coordinator)

	c.tokenStore = tokenStore
	c.coordinator = coordinator
	c.client = client
	c.pool = region.NewPool(c.storage, c.logger)
	return nil
}

// openRegion регистрирует builder типа и открывает регион коллекции
func (c *Cli) openRegion(ctx context.Context, collectionType, descriptor string) (*region.Region, error) {
	c.pool.RegisterBuilder(collectionType, func(desc string) (region.Config, error) {
		return region.Config{
			Loader:        api.NewCollectionLoader(c.client, collectionType, desc),
			SessionScoped: true,
		}, nil
	})
	return c.pool.Region(ctx, collectionType, descriptor)
}

// getPassphrase получает парольную фразу в порядке приоритета:
// 1. Переменная окружения DATAPOOL_PASSPHRASE
// 2. Файл, указанный в --passphrase-file
// 3. Параметр --passphrase
// 4. Интерактивный запрос (с подтверждением при confirm)
func (c *Cli) getPassphrase(p Passphrase, confirm bool) (string, error) {
	if envPassphrase := os.Getenv("DATAPOOL_PASSPHRASE"); envPassphrase != "" {
		return envPassphrase, nil
	}

	if p.FromFile != "" {
		content, err := os.ReadFile(p.FromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase file: %w", err)
		}
		passphrase := strings.TrimSpace(string(content))
		if passphrase == "" {
			return "", fmt.Errorf("passphrase file is empty")
		}
		return passphrase, nil
	}

	if p.FromArgs != "" {
		return p.FromArgs, nil
	}

	passphrase, err := c.io.ReadPassword("Passphrase: ")
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	if passphrase == "" {
		return "", fmt.Errorf("passphrase cannot be empty")
	}

	if confirm {
		repeat, err := c.io.ReadPassword("Repeat passphrase: ")
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
		if passphrase != repeat {
			return "", fmt.Errorf("passphrases do not match")
		}
	}

	return passphrase, nil
}

func PrintUsage() {
	fmt.Println("Datapool Client")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  datapool [OPTIONS] COMMAND")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version                Show version information")
	fmt.Println("  --server URL             Server URL (default: http://localhost:8080)")
	fmt.Println("  --db PATH                Path to local database (default: datapool-client.db)")
	fmt.Println("  --passphrase PHRASE      Local storage passphrase (not recommended, use env var)")
	fmt.Println("  --passphrase-file PATH   Path to file containing the passphrase")
	fmt.Println()
	fmt.Println("Passphrase priority (highest to lowest):")
	fmt.Println("  1. DATAPOOL_PASSPHRASE environment variable")
	fmt.Println("  2. --passphrase-file (file path)")
	fmt.Println("  3. --passphrase (command line)")
	fmt.Println("  4. Interactive prompt (fallback)")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  login                       Store platform tokens locally")
	fmt.Println("  logout                      Remove stored tokens")
	fmt.Println("  status                      Show authentication status")
	fmt.Println("  list <type> [descriptor]    List objects of a collection")
	fmt.Println("  sync <type> [descriptor]    Force a full resync of a collection")
	fmt.Println("  watch <type> [descriptor]   Stream collection events until interrupted")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  datapool login")
	fmt.Println("  datapool list inventory owner=me")
	fmt.Println("  datapool --server https://platform.example.com sync inventory")
	fmt.Println()
	fmt.Println("  # Using environment variable (recommended)")
	fmt.Println("  export DATAPOOL_PASSPHRASE='mySecretPhrase'")
	fmt.Println("  datapool watch inventory owner=me")
}
