package ws

import "encoding/json"

// Типы событий протокола.
const (
	TypeJoinPage         = "join-page"          // client -> server: вход в комнату страницы
	TypeRoomUsersUpdated = "room-users-updated" // server -> room: полный presence-снапшот
	TypeUpdateBlocks     = "update-blocks"      // client -> server
	TypeBlocksUpdated    = "blocks-updated"     // server -> остальным в комнате
	TypeOrderChanged     = "order-changed"      // client -> server
	TypeOrderUpdated     = "order-updated"      // server -> остальным в комнате
	TypeMouseMove        = "mouse-move"         // client -> server, высокочастотное
	TypeCursorUpdated    = "cursor-updated"     // server -> остальным в комнате
)

// Message — конверт протокола. Payload хранится сырым: блоки и порядок
// ретранслируются verbatim, сервер не трогает их внутреннюю форму.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewMessage(typ string, payload any) (Message, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: typ, Payload: b}, nil
}

// JoinPagePayload: `join-page` принимает и голую строку, и объект.
type JoinPagePayload struct {
	PageID string `json:"pageId"`
}

// routedPayload — минимальный взгляд на payload ради pageId.
type routedPayload struct {
	PageID string `json:"pageId"`
}

type MouseMovePayload struct {
	PageID  string  `json:"pageId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

type CursorUpdatedPayload struct {
	ID      string  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
	Icon    string  `json:"icon"`
	Color   string  `json:"color"`
}

// decodeJoinPage разбирает payload входа: строка или {pageId: ...}.
func decodeJoinPage(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s, true
	}
	var p JoinPagePayload
	if err := json.Unmarshal(raw, &p); err == nil && p.PageID != "" {
		return p.PageID, true
	}
	return "", false
}

func decodeRoomID(raw json.RawMessage) (string, bool) {
	var p routedPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.PageID == "" {
		return "", false
	}
	return p.PageID, true
}
