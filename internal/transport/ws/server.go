package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mockpages/collab-service/internal/domain"
	"github.com/mockpages/collab-service/internal/presence"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	store    *presence.Store

	pingEvery time.Duration
	readLimit int64
}

type Options struct {
	PingInterval time.Duration
	ReadLimit    int64
}

func NewServer(hub *Hub, store *presence.Store, opts Options) *Server {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 15 * time.Second
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = 1 << 20
	}
	return &Server{
		hub:   hub,
		store: store,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Комнаты — не граница безопасности, origin не проверяем.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingEvery: opts.PingInterval,
		readLimit: opts.ReadLimit,
	}
}

// WS endpoint: GET /ws. Комната выбирается событием join-page,
// одно соединение может состоять в нескольких комнатах.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, uuid.New().String())
	s.store.Register(c.id)
	s.hub.Register(c)
	slog.Info("client connected", "conn", c.id)

	go s.writeLoop(c)
	s.readLoop(c)
	s.teardown(c)
}

func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadLimit(s.readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("malformed frame ignored", "conn", c.id, "err", err)
			continue
		}
		s.dispatch(c, msg)
	}
}

// dispatch обрабатывает одно входящее событие. Кривой payload логируется
// и игнорируется: клиентский ввод не доверен, соединение не рвём.
func (s *Server) dispatch(c *wsConn, msg Message) {
	switch msg.Type {
	case TypeJoinPage:
		pageID, ok := decodeJoinPage(msg.Payload)
		if !ok {
			slog.Warn("join-page without page id ignored", "conn", c.id)
			return
		}
		s.store.Join(pageID, c.id)
		s.store.AssignAttributesIfAbsent(c.id)
		slog.Info("joined page", "conn", c.id, "page", pageID)
		s.hub.BroadcastPresence(pageID)

	case TypeUpdateBlocks:
		s.relayVerbatim(c, msg, TypeBlocksUpdated)

	case TypeOrderChanged:
		s.relayVerbatim(c, msg, TypeOrderUpdated)

	case TypeMouseMove:
		var p MouseMovePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil || p.PageID == "" {
			slog.Warn("mouse-move without page id ignored", "conn", c.id)
			return
		}
		s.store.UpdateCursor(c.id, domain.Cursor{
			X: p.X, Y: p.Y, ScrollX: p.ScrollX, ScrollY: p.ScrollY,
		})
		// Участник мог уже отвалиться — тогда курсор просто не ретранслируем.
		attrs, ok := s.store.Attributes(c.id)
		if !ok {
			return
		}
		out, err := NewMessage(TypeCursorUpdated, CursorUpdatedPayload{
			ID: c.id,
			X:  p.X, Y: p.Y, ScrollX: p.ScrollX, ScrollY: p.ScrollY,
			Icon:  attrs.Icon,
			Color: attrs.Color,
		})
		if err != nil {
			slog.Error("encode cursor event", "conn", c.id, "err", err)
			return
		}
		s.hub.Relay(p.PageID, c.id, out)

	default:
		slog.Debug("unknown event ignored", "conn", c.id, "type", msg.Type)
	}
}

// relayVerbatim пересылает payload как есть под новым именем события.
func (s *Server) relayVerbatim(c *wsConn, msg Message, outType string) {
	roomID, ok := decodeRoomID(msg.Payload)
	if !ok {
		slog.Warn("relay event without page id ignored", "conn", c.id, "type", msg.Type)
		return
	}
	s.hub.Relay(roomID, c.id, Message{Type: outType, Payload: msg.Payload})
}

// teardown выполняет cleanup ровно один раз, сколько бы раз ни
// сигналился разрыв: leaveAll, presence в затронутые комнаты, снос атрибутов.
func (s *Server) teardown(c *wsConn) {
	c.cleanup.Do(func() {
		affected := s.store.LeaveAll(c.id)
		s.hub.Unregister(c.id)
		for _, roomID := range affected {
			s.hub.BroadcastPresence(roomID)
		}
		s.store.Forget(c.id)
		_ = c.Close()
		slog.Info("client disconnected", "conn", c.id, "rooms", len(affected))
	})
}

func (s *Server) writeLoop(c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-c.closed:
			return
		}
	}
}

type wsConn struct {
	conn    *websocket.Conn
	id      string
	sendMu  chan struct{}
	closed  chan struct{}
	cleanup sync.Once
}

func newWsConn(c *websocket.Conn, id string) *wsConn {
	return &wsConn{
		conn:   c,
		id:     id,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) ID() string { return c.id }
