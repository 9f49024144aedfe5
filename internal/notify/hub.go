package notify

import (
	"sync"

	"taskManager/internal/logger"

	"go.uber.org/zap"
)

// Hub - внутрипроцессный сигнал "что-то изменилось" по темам.
// Заменяет STOMP-топик: подписчики получают строку-событие,
// медленный подписчик событие теряет, отправителя это не блокирует.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe возвращает канал событий и функцию отписки
func (h *Hub) Subscribe(topic string) (<-chan string, func()) {
	ch := make(chan string, 8)

	h.mu.Lock()
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan string]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[topic]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

func (h *Hub) Publish(topic, event string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[topic] {
		select {
		case ch <- event:
		default:
			logger.Warn("Notify: Подписчик не успевает, событие пропущено",
				zap.String("topic", topic))
		}
	}
}
