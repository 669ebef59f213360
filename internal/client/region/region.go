// Package region реализует синхронизируемый локальный кэш одной удаленной
// коллекции (Region) и реестр живых регионов (Pool).
//
// Регион владеет in-memory хранилищем объектов, ведет протокол
// синхронизации (полная сверка или инкрементальные дельты), поддерживает
// оптимистичные мутации с откатом и дебаунс-запись состояния на диск.
package region

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/datapool/internal/client/storage"
	"github.com/iudanet/datapool/internal/client/store"
	"github.com/iudanet/datapool/internal/models"
	"github.com/iudanet/datapool/internal/validation"
)

//go:generate moq -out loader_mock.go . Loader

// Loader выполняет полную выборку коллекции региона.
// По мере обнаружения объектов loader складывает их в sink (обычно
// батчами по страницам). Возвращаемый набор id - полное перечисление
// коллекции для сверки; nil означает, что полнота выборки неизвестна
// и вычищать локальные объекты нельзя.
type Loader interface {
	Load(ctx context.Context, sink Sink) ([]string, error)
}

// Sink принимает объекты, обнаруженные loader-ом во время синхронизации
type Sink interface {
	Add(objects []*models.DataObject)
}

// DefaultSaveDebounce период тишины перед записью состояния на диск
const DefaultSaveDebounce = 5 * time.Second

// Config описывает один регион.
// Вместо наследования с переопределением load()/map()/matches()
// конкретный тип коллекции внедряет свои capabilities: Loader, Mapper
// и (опционально) Matches.
type Config struct {
	// Loader выполняет сетевую выборку коллекции (обязателен)
	Loader Loader

	// Mapper преобразует сырые объекты в доменные представления;
	// nil - identity
	Mapper store.Mapper

	// Cache персистентное хранилище состояния; nil - регион не сохраняется
	Cache storage.RegionCache

	// Logger логгер региона; nil - slog.Default()
	Logger *slog.Logger

	// Matches дополнительный предикат дедупликации для Pool: регион
	// обслуживает ли запрос с таким descriptor. nil - точное совпадение.
	Matches func(descriptor string) bool

	// Type идентификатор типа коллекции (inventory, geo-pos, ...)
	Type string

	// Descriptor фильтр коллекции внутри типа (владелец, координаты, ...)
	Descriptor string

	// SaveDebounce период тишины перед записью; 0 - DefaultSaveDebounce
	SaveDebounce time.Duration

	// SessionScoped регион зависит от идентичности сессии и закрывается
	// при ее смене (logout)
	SessionScoped bool
}

// Region is a synchronized local mirror of one remote collection.
type Region struct {
	cfg      Config
	stateKey string
	logger   *slog.Logger

	// mu сериализует все мутации состояния региона
	mu           sync.Mutex
	objects      *store.Store
	synchronized bool
	closed       bool
	lastErr      error

	// sf обеспечивает single-flight синхронизацию: конкурентные вызовы
	// Synchronize разделяют один Load и один исход
	sf singleflight.Group

	notifier notifier

	// saveMu защищает дебаунс-таймер записи
	saveMu    sync.Mutex
	saveTimer *time.Timer

	// onClose вызывается при закрытии (Pool снимает регион с учета)
	onClose func(*Region)
}

// New создает регион по конфигурации. Регион создается в состоянии
// unsynchronized; наполнение из кэша и синхронизация - забота вызывающего
// кода (обычно Pool).
func New(cfg Config) (*Region, error) {
	if err := validation.ValidateRegionType(cfg.Type); err != nil {
		return nil, fmt.Errorf("invalid region type: %w", err)
	}
	if err := validation.ValidateDescriptor(cfg.Descriptor); err != nil {
		return nil, fmt.Errorf("invalid region descriptor: %w", err)
	}
	if cfg.Loader == nil {
		return nil, fmt.Errorf("region loader is required")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SaveDebounce == 0 {
		cfg.SaveDebounce = DefaultSaveDebounce
	}

	stateKey := cfg.Type + ":" + cfg.Descriptor

	return &Region{
		cfg:      cfg,
		stateKey: stateKey,
		logger:   cfg.Logger.With("region", stateKey),
		objects:  store.New(cfg.Mapper),
	}, nil
}

// StateKey возвращает уникальный идентификатор региона
// (ключ персистентности и дедупликации)
func (r *Region) StateKey() string {
	return r.stateKey
}

// Synchronized reports whether the region reflects the last successful
// full reconciliation plus applied deltas.
func (r *Region) Synchronized() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.synchronized
}

// Err возвращает ошибку последней неудачной синхронизации
func (r *Region) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Closed reports whether the region was closed.
func (r *Region) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// Subscribe подписывает слушателя на события региона.
// Возвращенная функция снимает подписку.
func (r *Region) Subscribe(fn func(Event)) func() {
	return r.notifier.subscribe(fn)
}

// Synchronize приводит регион в состояние synchronized.
// Конкурентные вызовы разделяют одну выборку и один исход (single-flight).
// Уже синхронизированный регион возвращает nil немедленно.
// ctx ограничивает только ожидание вызывающего: сама выборка, однажды
// начатая, доводится до конца и ее результат достается остальным.
func (r *Region) Synchronize(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRegionClosed
	}
	if r.synchronized {
		r.mu.Unlock()
		return nil
	}
	r.lastErr = nil
	r.mu.Unlock()

	ch := r.sf.DoChan("synchronize", func() (any, error) {
		return nil, r.runSync()
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ForceSynchronize сбрасывает флаг synchronized и запускает новую полную
// сверку, даже если регион был стабилен.
func (r *Region) ForceSynchronize(ctx context.Context) error {
	r.setSynchronized(false)
	return r.Synchronize(ctx)
}

// runSync выполняет одну синхронизацию: полная выборка через Loader
// с последующей сверкой состава.
func (r *Region) runSync() error {
	r.notifier.emit(Event{Type: EventSynchronizing})
	r.logger.Info("region synchronizing")

	// Выборка идет вне контекста конкретного вызывающего: отмена одного
	// из ожидающих не должна ронять общую для всех синхронизацию.
	ids, err := r.cfg.Loader.Load(context.Background(), r)
	if err != nil {
		r.mu.Lock()
		r.lastErr = err
		r.mu.Unlock()

		r.logger.Warn("region synchronization failed", "error", err)
		r.notifier.emit(Event{Type: EventError, Err: err})
		return err
	}

	if ids != nil {
		// Полная сверка: все, чего нет в свежей выборке, вычищается
		r.reconcile(ids)
	} else {
		r.logger.Debug("partial fetch, skipping eviction")
	}

	r.setSynchronized(true)
	r.logger.Info("region stabilized", "objects", r.Len())
	return nil
}

// reconcile удаляет объекты, отсутствующие в полном наборе id коллекции
func (r *Region) reconcile(ids []string) {
	fresh := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		fresh[id] = struct{}{}
	}

	r.mu.Lock()
	var stale []string
	for _, id := range r.objects.IDs() {
		if _, ok := fresh[id]; !ok {
			stale = append(stale, id)
		}
	}
	changes := r.objects.Remove(stale)
	r.mu.Unlock()

	if len(changes.Removed) > 0 {
		r.logger.Debug("evicted stale objects", "count", len(changes.Removed))
	}
	r.applyChanges(changes)
}

// setSynchronized переключает флаг и публикует stabilized/destabilized
// на переходах
func (r *Region) setSynchronized(v bool) {
	r.mu.Lock()
	changed := r.synchronized != v && !r.closed
	if changed {
		r.synchronized = v
	}
	r.mu.Unlock()

	if !changed {
		return
	}
	if v {
		r.notifier.emit(Event{Type: EventStabilized})
	} else {
		r.notifier.emit(Event{Type: EventDestabilized})
	}
}

// Add добавляет объекты (или заменяет данные существующих целиком).
// Вызывается loader-ом во время синхронизации и маршрутизатором
// инкрементальных событий.
func (r *Region) Add(objects []*models.DataObject) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	changes := r.objects.Add(objects)
	r.mu.Unlock()

	r.applyChanges(changes)
}

// Update вливает частичные изменения в существующие объекты.
// Неизвестные id игнорируются (идемпотентность при переупорядоченной
// доставке событий).
func (r *Region) Update(records []models.DataObjectUpdate) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	changes := r.objects.Update(records)
	r.mu.Unlock()

	r.applyChanges(changes)
}

// Remove удаляет объекты. Неизвестные id игнорируются.
func (r *Region) Remove(ids []string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	changes := r.objects.Remove(ids)
	r.mu.Unlock()

	r.applyChanges(changes)
}

// Get возвращает представление объекта без ожидания синхронизации
// (данные могут быть неполными или устаревшими)
func (r *Region) Get(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objects.Get(id)
}

// Raw возвращает исходный объект без применения mapper.
// Вызывающий не должен мутировать возвращенный объект.
func (r *Region) Raw(id string) (*models.DataObject, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objects.Raw(id)
}

// GetAll возвращает представления всех объектов без ожидания синхронизации
func (r *Region) GetAll() []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objects.GetAll()
}

// GetStable дожидается синхронизации и возвращает представление объекта.
// Returns ErrObjectNotFound if the object is absent after synchronization.
func (r *Region) GetStable(ctx context.Context, id string) (any, error) {
	if err := r.Synchronize(ctx); err != nil {
		return nil, err
	}
	v, ok := r.Get(id)
	if !ok {
		return nil, ErrObjectNotFound
	}
	return v, nil
}

// GetAllStable дожидается синхронизации и возвращает все представления
func (r *Region) GetAllStable(ctx context.Context) ([]any, error) {
	if err := r.Synchronize(ctx); err != nil {
		return nil, err
	}
	return r.GetAll(), nil
}

// Len возвращает количество объектов в регионе
func (r *Region) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.objects.Len()
}

// Close помечает регион закрытым и отменяет отложенную запись состояния.
// Начатые сетевые операции не прерываются: их результат попадет в уже
// отвязанный регион и будет отброшен.
func (r *Region) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancelPendingSave()

	if r.onClose != nil {
		r.onClose(r)
	}
	r.logger.Debug("region closed")
}

// applyChanges транслирует сводку изменений хранилища в события и
// планирование записи: по событию на объект, одно агрегированное событие
// и одна запись на батч
func (r *Region) applyChanges(changes store.Changes) {
	if changes.Empty() {
		return
	}

	for _, id := range changes.Updated {
		r.notifier.emit(Event{Type: EventObjectUpdated, ObjectID: id})
	}
	r.notifier.emit(Event{Type: EventUpdated})
	r.scheduleSave()
}
