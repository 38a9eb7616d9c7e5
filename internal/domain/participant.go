package domain

import "time"

// Participant — одно живое соединение. Переподключение создаёт нового
// участника; атрибуты старого не переживают disconnect.
type Participant struct {
	ID       string    `json:"id"`
	Icon     string    `json:"icon"`
	Color    string    `json:"color"`
	Cursor   Cursor    `json:"cursor"`
	JoinedAt time.Time `json:"-"`
}

type Cursor struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	ScrollX float64 `json:"scrollX"`
	ScrollY float64 `json:"scrollY"`
}

// PresenceView — снапшот комнаты, рассылаемый всем её участникам.
// Users упорядочены по времени входа.
type PresenceView struct {
	Users []Participant `json:"users"`
	Count int           `json:"count"`
}
