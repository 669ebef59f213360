package region

import (
	"sync"

	"github.com/google/uuid"
)

// EventType тип события региона
type EventType string

// События жизненного цикла и изменений региона.
// Слушатели не могут отличить подтвержденное сервером изменение от
// оптимистичного (или его отката): обе ветки публикуют одинаковые события.
const (
	// EventSynchronizing регион начал синхронизацию
	EventSynchronizing EventType = "synchronizing"
	// EventStabilized регион перешел в состояние synchronized
	EventStabilized EventType = "stabilized"
	// EventDestabilized регион потерял состояние synchronized (force sync)
	EventDestabilized EventType = "destabilized"
	// EventUpdated агрегированное "содержимое региона изменилось", одно на батч
	EventUpdated EventType = "updated"
	// EventObjectUpdated изменился конкретный объект (см. Event.ObjectID)
	EventObjectUpdated EventType = "object.updated"
	// EventError синхронизация завершилась ошибкой (см. Event.Err)
	EventError EventType = "error"
)

// Event представляет одно событие региона
type Event struct {
	Err      error     // заполнено для EventError
	Type     EventType // тип события
	ObjectID string    // заполнено для EventObjectUpdated
}

// notifier рассылает события подписчикам.
// Подписки идентифицируются UUID; отписка - возвращенной функцией.
type notifier struct {
	mu        sync.Mutex
	listeners map[string]func(Event)
}

func (n *notifier) subscribe(fn func(Event)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.listeners == nil {
		n.listeners = make(map[string]func(Event))
	}

	id := uuid.New().String()
	n.listeners[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// emit вызывает слушателей синхронно, вне внутреннего lock,
// чтобы слушатель мог читать регион из callback.
func (n *notifier) emit(e Event) {
	n.mu.Lock()
	fns := make([]func(Event), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
