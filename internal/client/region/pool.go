package region

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iudanet/datapool/internal/client/storage"
)

// Builder собирает конфигурацию региона данного типа под конкретный
// descriptor. Pool дополняет конфигурацию общим кэшем и логгером,
// если builder их не задал.
type Builder func(descriptor string) (Config, error)

// SessionInfo описывает текущую сессию SDK.
// Пустой UserID означает "сессии нет" (logout).
type SessionInfo struct {
	UserID string
}

// Pool is a registry of live regions, owned explicitly by the SDK session
// (no process-wide state). Одинаковые запросы разделяют один регион и
// один жизненный цикл синхронизации.
type Pool struct {
	cache  storage.RegionCache
	logger *slog.Logger

	mu       sync.Mutex
	builders map[string]Builder
	regions  map[string]*Region
}

// NewPool создает пустой реестр регионов.
// cache может быть nil - тогда регионы без собственного Cache
// не сохраняются на диск.
func NewPool(cache storage.RegionCache, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		cache:    cache,
		logger:   logger,
		builders: make(map[string]Builder),
		regions:  make(map[string]*Region),
	}
}

// RegisterBuilder регистрирует фабрику регионов для типа коллекции
func (p *Pool) RegisterBuilder(regionType string, b Builder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.builders[regionType] = b
}

// Region возвращает живой регион для (type, descriptor), создавая его при
// необходимости. Новый регион наполняется из кэша и синхронизируется в
// фоне; вызывающий код может сразу читать (возможно устаревшие) данные
// или дождаться их через GetAllStable.
func (p *Pool) Region(ctx context.Context, regionType, descriptor string) (*Region, error) {
	p.mu.Lock()

	// Дедупликация: существующий регион того же типа, считающий этот
	// descriptor своим, разделяется между вызывающими
	for _, reg := range p.regions {
		if reg.cfg.Type == regionType && reg.matches(descriptor) {
			p.mu.Unlock()
			return reg, nil
		}
	}

	builder, ok := p.builders[regionType]
	if !ok {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegionType, regionType)
	}

	cfg, err := builder(descriptor)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("failed to build region config: %w", err)
	}

	cfg.Type = regionType
	cfg.Descriptor = descriptor
	if cfg.Cache == nil {
		cfg.Cache = p.cache
	}
	if cfg.Logger == nil {
		cfg.Logger = p.logger
	}

	reg, err := New(cfg)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	reg.onClose = p.RemoveRegion

	p.regions[reg.stateKey] = reg
	p.mu.Unlock()

	p.logger.Info("region opened", "region", reg.stateKey)

	// Сначала кэш - мгновенные данные, затем сеть в фоне
	reg.LoadFromCache(ctx)
	go func() {
		_ = reg.Synchronize(context.Background())
	}()

	return reg, nil
}

// RemoveRegion снимает регион с учета (вызывается из Region.Close)
func (p *Pool) RemoveRegion(reg *Region) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if current, ok := p.regions[reg.stateKey]; ok && current == reg {
		delete(p.regions, reg.stateKey)
	}
}

// Len возвращает количество живых регионов
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.regions)
}

// OnSessionChanged рассылает смену сессии всем живым регионам.
// Регионы, привязанные к идентичности сессии, закрываются и вычищают
// свой персистентный кэш - так logout инвалидирует кэшированные
// коллекции.
func (p *Pool) OnSessionChanged(ctx context.Context, info SessionInfo) {
	p.mu.Lock()
	regions := make([]*Region, 0, len(p.regions))
	for _, reg := range p.regions {
		regions = append(regions, reg)
	}
	p.mu.Unlock()

	for _, reg := range regions {
		if !reg.cfg.SessionScoped {
			continue
		}
		p.logger.Info("closing session-scoped region", "region", reg.stateKey)
		reg.purge(ctx)
		reg.Close()
	}
}

// Close закрывает все живые регионы
func (p *Pool) Close() {
	p.mu.Lock()
	regions := make([]*Region, 0, len(p.regions))
	for _, reg := range p.regions {
		regions = append(regions, reg)
	}
	p.mu.Unlock()

	for _, reg := range regions {
		reg.Close()
	}
}

// matches сообщает, обслуживает ли регион запрос с данным descriptor
func (r *Region) matches(descriptor string) bool {
	if r.cfg.Matches != nil {
		return r.cfg.Matches(descriptor)
	}
	return r.cfg.Descriptor == descriptor
}
