package ws

import (
	"log/slog"
	"sync"

	"github.com/mockpages/collab-service/internal/presence"
)

type Conn interface {
	ID() string
	Send(msg Message) error
	Close() error
}

// Hub — роутер рассылки. Членство в комнатах знает presence.Store;
// Hub держит только реестр живых соединений и раздаёт по нему.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]Conn

	store *presence.Store
}

func NewHub(store *presence.Store) *Hub {
	return &Hub{
		conns: make(map[string]Conn),
		store: store,
	}
}

func (h *Hub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.ID()] = c
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, connID)
}

// BroadcastPresence шлёт текущий Presence View всем участникам комнаты,
// включая инициатора: каждый должен видеть себя в списке.
func (h *Hub) BroadcastPresence(roomID string) {
	view := h.store.Snapshot(roomID)
	msg, err := NewMessage(TypeRoomUsersUpdated, view)
	if err != nil {
		slog.Error("encode presence view", "room", roomID, "err", err)
		return
	}
	h.sendToMembers(roomID, "", msg)
}

// Relay ретранслирует событие всем участникам комнаты, кроме отправителя.
// Fire-and-forget: доставка best-effort, отключившийся получатель молча
// теряет событие.
func (h *Hub) Relay(roomID, senderID string, msg Message) {
	h.sendToMembers(roomID, senderID, msg)
}

func (h *Hub) sendToMembers(roomID, excludeID string, msg Message) {
	members := h.store.Members(roomID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range members {
		if id == excludeID {
			continue
		}
		if c, ok := h.conns[id]; ok {
			_ = c.Send(msg) // best-effort
		}
	}
}
