// Package auth реализует клиентский координатор access/refresh токенов.
//
// Координатор - одиночная горутина, владеющая состоянием токенов.
// Все обращения снаружи (подстановка Authorization, запросы на refresh,
// прямая установка токенов) идут через канал команд, поэтому никакие
// блокировки на состоянии не нужны, а одновременные 401 от нескольких
// запросов схлопываются в один сетевой refresh.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/datapool/pkg/api"
)

//go:generate moq -out refresher_mock.go . Refresher

// Refresher выполняет сетевой обмен refresh token на новую пару токенов.
// Реализация обязана ходить по сети без подстановки Authorization и без
// повторного входа в координатор, иначе истекший access token зациклит
// refresh сам на себя.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
}

// DefaultRefreshTimeout ограничивает длительность одного сетевого refresh
const DefaultRefreshTimeout = 30 * time.Second

// Config задает зависимости координатора
type Config struct {
	// Refresher выполняет сетевой refresh (обязателен)
	Refresher Refresher

	// Store сохраняет токены после успешного refresh.
	// nil - токены живут только в памяти процесса.
	Store *TokenStore

	// Logger для диагностики. nil - slog.Default().
	Logger *slog.Logger

	// BaseURL сервера платформы. Authorization подставляется только в
	// запросы к этому хосту (обязателен).
	BaseURL string

	// ClientID устройства, сохраняется вместе с токенами
	ClientID string

	// Tokens - начальное состояние (например, загруженное из Store)
	Tokens Tokens

	// RefreshTimeout ограничивает один сетевой refresh.
	// Ноль - DefaultRefreshTimeout.
	RefreshTimeout time.Duration
}

// waiter получает исход refresh, к которому он был привязан
type waiter func(err error)

// Coordinator serializes token state behind a single goroutine.
type Coordinator struct {
	refresher Refresher
	store     *TokenStore
	logger    *slog.Logger
	baseHost  string
	clientID  string
	timeout   time.Duration

	cmds chan func()
	done chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup

	// Поля ниже принадлежат горутине run и снаружи не читаются
	tokens     Tokens
	refreshing bool
	gen        int // растет при каждой внешней установке токенов
	waiters    []waiter
}

// NewCoordinator создает координатор и запускает его горутину.
// Вызывающий код обязан вызвать Close.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.Refresher == nil {
		return nil, fmt.Errorf("refresher is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}

	c := &Coordinator{
		refresher: cfg.Refresher,
		store:     cfg.Store,
		logger:    cfg.Logger.With("component", "token_coordinator"),
		baseHost:  u.Host,
		clientID:  cfg.ClientID,
		timeout:   cfg.RefreshTimeout,
		cmds:      make(chan func()),
		done:      make(chan struct{}),
		tokens:    cfg.Tokens,
	}

	c.wg.Add(1)
	go c.run()

	return c, nil
}

// run - единственная горутина, видящая состояние токенов
func (c *Coordinator) run() {
	defer c.wg.Done()
	for {
		select {
		case fn := <-c.cmds:
			fn()
		case <-c.done:
			c.failWaiters(ErrCoordinatorClosed)
			return
		}
	}
}

// post выполняет команду на горутине координатора
func (c *Coordinator) post(fn func()) error {
	select {
	case c.cmds <- fn:
		return nil
	case <-c.done:
		return ErrCoordinatorClosed
	}
}

// Close останавливает координатор. Ожидающие refresh вызовы получают
// ErrCoordinatorClosed. Уже начатый сетевой refresh доводится до конца,
// но его результат отбрасывается.
func (c *Coordinator) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
	c.wg.Wait()
}

// Tokens возвращает снимок текущего состояния токенов
func (c *Coordinator) Tokens() (Tokens, error) {
	var snapshot Tokens
	result := make(chan struct{})
	err := c.post(func() {
		snapshot = c.tokens
		close(result)
	})
	if err != nil {
		return Tokens{}, err
	}
	<-result
	return snapshot, nil
}

// AccessToken возвращает действующий access token. Если идет refresh
// или токен истек, вызов встает в общую очередь и разделяет исход
// ближайшего refresh с остальными ожидающими.
func (c *Coordinator) AccessToken(ctx context.Context) (string, error) {
	type outcome struct {
		token string
		err   error
	}
	result := make(chan outcome, 1)

	err := c.post(func() {
		if !c.refreshing && c.tokens.Valid() && !c.tokens.Expired(time.Now()) {
			result <- outcome{token: c.tokens.AccessToken}
			return
		}
		c.waiters = append(c.waiters, func(err error) {
			if err != nil {
				result <- outcome{err: err}
				return
			}
			// Waiter выполняется вне горутины координатора,
			// снимок берем обычным способом
			tokens, terr := c.Tokens()
			if terr != nil {
				result <- outcome{err: terr}
				return
			}
			result <- outcome{token: tokens.AccessToken}
		})
		c.startRefresh()
	})
	if err != nil {
		return "", err
	}

	select {
	case out := <-result:
		return out.token, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Adapt подставляет Authorization в запрос, если он адресован базовому
// хосту платформы. Запросы к чужим хостам не трогаются - bearer token
// не должен утекать на сторонние серверы (например, при скачивании
// ресурсов с CDN).
func (c *Coordinator) Adapt(req *http.Request) error {
	if req.URL == nil || !strings.EqualFold(req.URL.Host, c.baseHost) {
		return nil
	}

	tokens, err := c.Tokens()
	if err != nil {
		return err
	}
	if !tokens.Valid() {
		return nil
	}

	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	return nil
}

// Refresh выполняет (или присоединяется к идущему) refresh и ждет его
// исхода. Конкурентные вызовы разделяют один сетевой обмен.
func (c *Coordinator) Refresh(ctx context.Context) error {
	result := make(chan error, 1)
	err := c.post(func() {
		c.waiters = append(c.waiters, func(err error) { result <- err })
		c.startRefresh()
	})
	if err != nil {
		return err
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RetryAfterRefresh ставит callback в очередь на исход ближайшего
// refresh (запуская его при необходимости) и возвращается немедленно.
// Используется транспортом: получив 401, он откладывает повтор запроса
// до завершения refresh. Callback вызывается вне горутины координатора.
func (c *Coordinator) RetryAfterRefresh(fn func(err error)) error {
	return c.post(func() {
		c.waiters = append(c.waiters, fn)
		c.startRefresh()
	})
}

// SetTokens напрямую устанавливает пару токенов в обход refresh
// (вход по логину, токены из внешнего источника). Срок действия
// извлекается из exp claim access token без проверки подписи - клиент
// не владеет ключом сервера, а срок нужен только для диагностики.
// Ожидающие refresh вызовы завершаются успешно: свежие токены делают
// их повтор осмысленным.
func (c *Coordinator) SetTokens(ctx context.Context, accessToken, refreshToken string) error {
	tokens := Tokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    tokenExpiry(accessToken),
	}

	return c.post(func() {
		c.gen++
		c.tokens = tokens
		c.persist(ctx, tokens)
		c.drainWaiters(nil)
	})
}

// ClearTokens сбрасывает состояние и удаляет сохраненные токены (logout)
func (c *Coordinator) ClearTokens(ctx context.Context) error {
	return c.post(func() {
		c.gen++
		c.tokens = Tokens{}
		c.drainWaiters(ErrNotAuthenticated)
		if c.store == nil {
			return
		}
		if err := c.store.Delete(ctx); err != nil {
			c.logger.Warn("failed to delete stored tokens", "error", err)
		}
	})
}

// startRefresh запускает сетевой refresh, если он еще не идет.
// Выполняется на горутине координатора.
func (c *Coordinator) startRefresh() {
	if c.refreshing {
		return
	}
	if c.tokens.RefreshToken == "" {
		c.drainWaiters(ErrNotAuthenticated)
		return
	}

	// TODO: добавить backoff между подряд неудачными refresh, чтобы шторм
	// 401 при лежащем сервере авторизации не превращался в цикл запросов
	c.refreshing = true
	refreshToken := c.tokens.RefreshToken
	gen := c.gen

	c.logger.Debug("token refresh started")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		resp, err := c.refresher.Refresh(ctx, refreshToken)
		if postErr := c.post(func() { c.finishRefresh(gen, resp, err) }); postErr != nil {
			c.logger.Debug("refresh result dropped, coordinator closed")
		}
	}()
}

// finishRefresh применяет исход сетевого refresh и атомарно выгребает
// всю накопившуюся очередь ожидающих. Выполняется на горутине
// координатора.
func (c *Coordinator) finishRefresh(gen int, resp *api.TokenResponse, err error) {
	c.refreshing = false

	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		c.drainWaiters(fmt.Errorf("token refresh failed: %w", err))
		return
	}

	// Пока шел refresh, токены установили извне - их результат новее
	if gen != c.gen {
		c.logger.Debug("stale refresh result discarded")
		c.drainWaiters(nil)
		return
	}

	tokens := Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    tokenExpiry(resp.AccessToken),
	}
	// Сервер может не ротировать refresh token
	if tokens.RefreshToken == "" {
		tokens.RefreshToken = c.tokens.RefreshToken
	}
	if tokens.ExpiresAt.IsZero() && resp.ExpiresIn > 0 {
		tokens.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	c.tokens = tokens
	c.persist(context.Background(), tokens)

	c.logger.Debug("token refresh completed", "expires_at", tokens.ExpiresAt)
	c.drainWaiters(nil)
}

// drainWaiters атомарно забирает очередь и рассылает исход вне горутины
// координатора. Waiter, добавленный после этого момента, привяжется уже
// к следующему refresh.
func (c *Coordinator) drainWaiters(err error) {
	if len(c.waiters) == 0 {
		return
	}
	drained := c.waiters
	c.waiters = nil

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for _, w := range drained {
			w(err)
		}
	}()
}

// failWaiters завершает очередь синхронно при остановке координатора
func (c *Coordinator) failWaiters(err error) {
	drained := c.waiters
	c.waiters = nil
	for _, w := range drained {
		w(err)
	}
}

// persist сохраняет токены лучшим усилием: ошибка записи не должна
// ронять цикл авторизации
func (c *Coordinator) persist(ctx context.Context, tokens Tokens) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, tokens, c.clientID); err != nil {
		c.logger.Warn("failed to persist tokens", "error", err)
	}
}

// tokenExpiry извлекает exp claim из JWT без проверки подписи.
// Нулевое время - токен не JWT или без exp.
func tokenExpiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
