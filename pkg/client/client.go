package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mockpages/collab-service/internal/domain"
	"github.com/mockpages/collab-service/internal/transport/ws"

	"github.com/cenkalti/backoff"
	"github.com/gorilla/websocket"
)

const (
	defaultRetryAttempts = 5
	defaultRetryDelay    = time.Second
)

type Options struct {
	// URL сервера, например ws://localhost:3001/ws.
	URL string

	// Повторы подключения: фиксированная задержка, ограниченное число
	// попыток. После исчерпания сессия остаётся отключённой навсегда.
	RetryAttempts uint64
	RetryDelay    time.Duration

	// OnEvent вызывается после применения события к состоянию
	// (из горутины чтения; не блокировать надолго).
	OnEvent func(Event)
}

// Session — клиентская сессия совместного редактирования. Оборачивает
// соединение так, что UI видит стабильный API независимо от состояния
// транспорта: emit при разрыве — тихий no-op, входящие события
// сворачиваются редьюсером в State.
type Session struct {
	opts   Options
	pageID string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	state     State

	done chan struct{}
}

func New(opts Options) *Session {
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	return &Session{
		opts: opts,
		done: make(chan struct{}),
	}
}

// Connect устанавливает соединение и входит в комнату страницы.
// join-page отправляется заново на каждом успешном переподключении:
// серверный presence не переживает старое соединение.
func (s *Session) Connect(ctx context.Context, pageID string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.pageID = pageID
	s.mu.Unlock()

	if err := s.dial(ctx); err != nil {
		return err
	}

	go s.readLoop()
	return nil
}

// Close — финальный teardown (аналог ухода со страницы): закрывает
// транспорт, останавливает чтение, без дальнейших ретраев.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.connected = false
	close(s.done)
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// State возвращает копию локальной проекции для рендера.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EmitBlockUpdate шлёт полный список блоков. При отключении — no-op:
// события не буферизуются, протокол fire-and-forget.
func (s *Session) EmitBlockUpdate(blocks json.RawMessage) error {
	return s.emit(ws.TypeUpdateBlocks, map[string]any{
		"pageId": s.pageID,
		"blocks": blocks,
	})
}

// EmitOrderChange шлёт полный результирующий порядок, не дельту:
// last-write-wins у получателей сходится только на полных списках.
func (s *Session) EmitOrderChange(blocks json.RawMessage) error {
	return s.emit(ws.TypeOrderChanged, map[string]any{
		"pageId": s.pageID,
		"blocks": blocks,
	})
}

func (s *Session) EmitCursorMove(x, y, scrollX, scrollY float64) error {
	return s.emit(ws.TypeMouseMove, ws.MouseMovePayload{
		PageID:  s.pageID,
		X:       x,
		Y:       y,
		ScrollX: scrollX,
		ScrollY: scrollY,
	})
}

func (s *Session) emit(typ string, payload any) error {
	msg, err := ws.NewMessage(typ, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", typ, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected || s.closed {
		slog.Debug("emit dropped while disconnected", "type", typ)
		return nil
	}
	return s.conn.WriteJSON(msg)
}

// dial подключается с ограниченным числом повторов и фиксированной
// задержкой, затем входит в комнату.
func (s *Session) dial(ctx context.Context) error {
	var conn *websocket.Conn
	op := func() error {
		c, _, err := websocket.DefaultDialer.DialContext(ctx, s.opts.URL, nil)
		if err != nil {
			slog.Warn("connect attempt failed", "url", s.opts.URL, "err", err)
			return err
		}
		conn = c
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.opts.RetryDelay), s.opts.RetryAttempts),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectExhausted, err)
	}

	s.mu.Lock()
	if s.closed {
		// Close пришёл, пока шли ретраи
		s.mu.Unlock()
		_ = conn.Close()
		return domain.ErrSessionClosed
	}
	s.conn = conn
	s.connected = true
	pageID := s.pageID
	s.mu.Unlock()

	slog.Info("connected", "url", s.opts.URL, "page", pageID)

	join, err := ws.NewMessage(ws.TypeJoinPage, ws.JoinPagePayload{PageID: pageID})
	if err != nil {
		return err
	}
	s.mu.Lock()
	err = s.conn.WriteJSON(join)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("join page: %w", err)
	}
	return nil
}

// readLoop владеет соединением на чтение. Разрыв транспорта ведёт к
// переподключению в рамках бюджета ретраев; явный Close — терминален.
func (s *Session) readLoop() {
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			s.connected = false
			closed := s.closed
			s.mu.Unlock()

			if closed {
				return
			}
			slog.Warn("connection lost, reconnecting", "err", err)
			if derr := s.dial(context.Background()); derr != nil {
				slog.Error("reconnect failed, giving up", "err", derr)
				return
			}
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("malformed server frame ignored", "err", err)
			continue
		}
		ev, err := decodeEvent(msg)
		if err != nil {
			slog.Debug("server event ignored", "err", err)
			continue
		}

		s.mu.Lock()
		s.state = reduce(s.state, ev)
		cb := s.opts.OnEvent
		s.mu.Unlock()

		if cb != nil {
			cb(ev)
		}
	}
}
