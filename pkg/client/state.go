package client

import (
	"encoding/json"
	"fmt"

	"github.com/mockpages/collab-service/internal/domain"
	"github.com/mockpages/collab-service/internal/transport/ws"
)

// Event — типизированное входящее событие сервера.
type Event interface {
	isEvent()
}

// PresenceEvent: полный presence-снапшот комнаты, замещает предыдущий.
type PresenceEvent struct {
	View domain.PresenceView
}

// BlocksEvent: полный список блоков от другого участника.
type BlocksEvent struct {
	Payload json.RawMessage
}

// OrderEvent: полный порядок блоков от другого участника.
type OrderEvent struct {
	Payload json.RawMessage
}

// CursorEvent: курсор другого участника.
type CursorEvent struct {
	Cursor ws.CursorUpdatedPayload
}

func (PresenceEvent) isEvent() {}
func (BlocksEvent) isEvent()   {}
func (OrderEvent) isEvent()    {}
func (CursorEvent) isEvent()   {}

// State — локальная проекция комнаты, которую читает UI.
type State struct {
	Users   []domain.Participant
	Count   int
	Blocks  json.RawMessage // последний полный payload блоков/порядка
	Cursors map[string]ws.CursorUpdatedPayload
}

func decodeEvent(msg ws.Message) (Event, error) {
	switch msg.Type {
	case ws.TypeRoomUsersUpdated:
		var view domain.PresenceView
		if err := json.Unmarshal(msg.Payload, &view); err != nil {
			return nil, fmt.Errorf("decode presence: %w", err)
		}
		return PresenceEvent{View: view}, nil

	case ws.TypeBlocksUpdated:
		return BlocksEvent{Payload: msg.Payload}, nil

	case ws.TypeOrderUpdated:
		return OrderEvent{Payload: msg.Payload}, nil

	case ws.TypeCursorUpdated:
		var c ws.CursorUpdatedPayload
		if err := json.Unmarshal(msg.Payload, &c); err != nil {
			return nil, fmt.Errorf("decode cursor: %w", err)
		}
		return CursorEvent{Cursor: c}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", msg.Type)
}

// reduce применяет событие к состоянию. Чистая функция, last-write-wins:
// более позднее событие полностью замещает то, что пришло раньше.
func reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case PresenceEvent:
		s.Users = e.View.Users
		s.Count = e.View.Count
		// курсоры ушедших больше не рисуем
		if len(s.Cursors) > 0 {
			present := make(map[string]struct{}, len(e.View.Users))
			for _, u := range e.View.Users {
				present[u.ID] = struct{}{}
			}
			next := make(map[string]ws.CursorUpdatedPayload, len(s.Cursors))
			for id, c := range s.Cursors {
				if _, ok := present[id]; ok {
					next[id] = c
				}
			}
			s.Cursors = next
		}

	case BlocksEvent:
		s.Blocks = e.Payload

	case OrderEvent:
		s.Blocks = e.Payload

	case CursorEvent:
		next := make(map[string]ws.CursorUpdatedPayload, len(s.Cursors)+1)
		for id, c := range s.Cursors {
			next[id] = c
		}
		next[e.Cursor.ID] = e.Cursor
		s.Cursors = next
	}
	return s
}
