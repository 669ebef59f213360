// Package api реализует HTTP клиент платформы: выполнение запросов с
// подстановкой авторизации, однократный повтор после 401 через
// координатор токенов и отдельную сессию для refresh.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/iudanet/datapool/pkg/api"
)

// DefaultTimeout ограничивает длительность одного HTTP запроса
const DefaultTimeout = 30 * time.Second

// Adapter подставляет авторизацию в исходящий запрос и координирует
// повтор после 401. Реализуется координатором токенов.
type Adapter interface {
	// Adapt дополняет запрос (Authorization для базового хоста)
	Adapt(req *http.Request) error

	// RetryAfterRefresh ставит callback на исход ближайшего refresh
	RetryAfterRefresh(fn func(err error)) error
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient    *http.Client
	refreshClient *http.Client
	adapter       Adapter
	logger        *slog.Logger
	baseURL       string
}

// Option настраивает Client
type Option func(*Client)

// WithAdapter подключает координатор токенов: запросы получают
// Authorization, а 401 запускает refresh и один повтор
func WithAdapter(a Adapter) Option {
	return func(c *Client) {
		c.adapter = a
	}
}

// WithLogger задает логгер клиента
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient заменяет основной http.Client (для тестов)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// SetAdapter подключает координатор после создания клиента. Клиент
// нужен координатору как Refresher, поэтому связывание идет в два шага:
// сначала клиент, затем координатор, затем SetAdapter. Вызывается до
// первых запросов.
func (c *Client) SetAdapter(a Adapter) {
	c.adapter = a
}

// NewClient создает новый API клиент
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
		// Отдельная сессия для refresh: без адаптации и без повторов,
		// иначе истекший access token зациклит refresh сам на себя
		refreshClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Refresh обменивает refresh token на новую пару токенов.
// Выполняется через выделенную сессию без подстановки Authorization.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error) {
	body, err := json.Marshal(api.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.refreshClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer func() {
		_ = httpResp.Body.Close()
	}()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, statusError(httpResp.StatusCode, respBody)
	}

	var resp api.TokenResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}
	return &resp, nil
}

// QueryCollection запрашивает одну страницу коллекции объектов
func (c *Client) QueryCollection(ctx context.Context, req api.CollectionRequest) (*api.CollectionResponse, error) {
	var resp api.CollectionResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/objects/query", req, &resp); err != nil {
		return nil, fmt.Errorf("collection query failed: %w", err)
	}
	return &resp, nil
}

// GetObject запрашивает один объект по id
func (c *Client) GetObject(ctx context.Context, id string) (*api.Object, error) {
	var resp api.Object
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/objects/"+id, nil, &resp); err != nil {
		return nil, fmt.Errorf("get object failed: %w", err)
	}
	return &resp, nil
}

// doRequest выполняет HTTP запрос с адаптацией и однократным повтором
// после 401: координатор обновляет токены, запрос переигрывается с
// новым Authorization. Второй отказ подряд возвращается вызывающему.
// 403 не повторяется никогда.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	err := c.send(ctx, method, path, payload, result)
	if !errors.Is(err, ErrUnauthorized) || c.adapter == nil {
		if errors.Is(err, ErrForbidden) {
			c.logger.Warn("request forbidden, not retrying", "method", method, "path", path)
		}
		return err
	}

	c.logger.Debug("unauthorized, waiting for token refresh", "method", method, "path", path)

	refreshed := make(chan error, 1)
	if err := c.adapter.RetryAfterRefresh(func(e error) { refreshed <- e }); err != nil {
		return fmt.Errorf("failed to schedule retry: %w", err)
	}
	select {
	case err := <-refreshed:
		if err != nil {
			return fmt.Errorf("retry aborted: %w", err)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	return c.send(ctx, method, path, payload, result)
}

// send выполняет одну попытку запроса
func (c *Client) send(ctx context.Context, method, path string, payload []byte, result any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.adapter != nil {
		if err := c.adapter.Adapt(req); err != nil {
			return fmt.Errorf("failed to adapt request: %w", err)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, respBody)
	}

	// Декодируем успешный ответ
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// statusError переводит неуспешный статус в ошибку. 401 и 403 получают
// сентинели, по которым транспорт решает судьбу повтора.
func statusError(statusCode int, respBody []byte) error {
	message := string(respBody)
	var errResp api.ErrorResponse
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Message != "" {
		message = errResp.Message
	}

	switch statusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, message)
	default:
		return fmt.Errorf("server error (%d): %s", statusCode, message)
	}
}
