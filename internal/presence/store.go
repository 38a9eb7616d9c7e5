package presence

import (
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/mockpages/collab-service/internal/domain"
)

// LifecycleHook получает явные события жизненного цикла комнаты.
// Комната создаётся при первом join и умирает при последнем leave.
type LifecycleHook interface {
	RoomCreated(roomID string)
	RoomClosed(roomID string)
}

// Store — единственное разделяемое состояние сервиса: roomID -> участники,
// participantID -> атрибуты. Все read-modify-write последовательности
// выполняются под одним мьютексом, снапшоты возвращают копии.
type Store struct {
	mu           sync.Mutex
	rooms        map[string]*room
	participants map[string]*participantState

	hook LifecycleHook
}

type room struct {
	order   []string // connection IDs в порядке входа
	members map[string]struct{}
}

type participantState struct {
	icon     string
	color    string
	assigned bool
	cursor   domain.Cursor
	joinedAt time.Time
}

func NewStore() *Store {
	return &Store{
		rooms:        make(map[string]*room),
		participants: make(map[string]*participantState),
	}
}

// SetLifecycleHook — опциональный хук; nil отключает уведомления.
func (s *Store) SetLifecycleHook(h LifecycleHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Register создаёт пустое состояние участника при установке соединения,
// до входа в какую-либо комнату. Повторный вызов — no-op.
func (s *Store) Register(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureParticipant(participantID)
}

// Join добавляет участника в комнату. Повторный join той же комнаты —
// no-op по членству (set-семантика). Всегда успешен.
func (s *Store) Join(roomID, participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ensureParticipant(participantID)

	r, ok := s.rooms[roomID]
	if !ok {
		r = &room{members: make(map[string]struct{})}
		s.rooms[roomID] = r
		if s.hook != nil {
			s.hook.RoomCreated(roomID)
		}
		slog.Debug("room created", "room", roomID)
	}
	if _, ok := r.members[participantID]; ok {
		return
	}
	r.members[participantID] = struct{}{}
	r.order = append(r.order, participantID)
}

// Leave убирает участника из комнаты; опустевшая комната удаляется.
// No-op, если участник в ней не состоял.
func (s *Store) Leave(roomID, participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveLocked(roomID, participantID)
}

// LeaveAll убирает участника из всех комнат и возвращает затронутые
// комнаты, чтобы вызывающий разослал в них обновлённый presence.
func (s *Store) LeaveAll(participantID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected []string
	for id, r := range s.rooms {
		if _, ok := r.members[participantID]; ok {
			affected = append(affected, id)
		}
	}
	for _, id := range affected {
		s.leaveLocked(id, participantID)
	}
	return affected
}

// Forget удаляет атрибуты участника после разрыва соединения.
func (s *Store) Forget(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, participantID)
}

// AssignAttributesIfAbsent выдаёт иконку и цвет из фиксированных палитр,
// если они ещё не назначены. Идемпотентен: раз выданные значения не меняются.
func (s *Store) AssignAttributesIfAbsent(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.ensureParticipant(participantID)
	if p.assigned {
		return
	}
	p.icon = domain.Icons[rand.IntN(len(domain.Icons))]
	p.color = domain.Colors[rand.IntN(len(domain.Colors))]
	p.assigned = true
}

// UpdateCursor перезаписывает позицию курсора. Неизвестный участник —
// no-op: событие могло прийти после disconnect, это не ошибка.
func (s *Store) UpdateCursor(participantID string, c domain.Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return
	}
	p.cursor = c
}

// Attributes возвращает публичный вид участника.
func (s *Store) Attributes(participantID string) (domain.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return domain.Participant{}, false
	}
	return s.viewLocked(participantID, p), true
}

// Snapshot возвращает Presence View комнаты: участники в порядке входа
// плюс количество. Для неизвестной комнаты — пустой список.
func (s *Store) Snapshot(roomID string) domain.PresenceView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := domain.PresenceView{Users: []domain.Participant{}}
	r, ok := s.rooms[roomID]
	if !ok {
		return view
	}
	for _, id := range r.order {
		p, ok := s.participants[id]
		if !ok {
			continue
		}
		view.Users = append(view.Users, s.viewLocked(id, p))
	}
	view.Count = len(view.Users)
	return view
}

// Members возвращает ID участников комнаты в порядке входа.
func (s *Store) Members(roomID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RoomCount — число живых комнат (для healthz/логов).
func (s *Store) RoomCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

func (s *Store) ensureParticipant(participantID string) *participantState {
	p, ok := s.participants[participantID]
	if !ok {
		p = &participantState{joinedAt: time.Now()}
		s.participants[participantID] = p
	}
	return p
}

func (s *Store) leaveLocked(roomID, participantID string) {
	r, ok := s.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := r.members[participantID]; !ok {
		return
	}
	delete(r.members, participantID)
	for i, id := range r.order {
		if id == participantID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if len(r.members) == 0 {
		delete(s.rooms, roomID)
		if s.hook != nil {
			s.hook.RoomClosed(roomID)
		}
		slog.Debug("room closed", "room", roomID)
	}
}

func (s *Store) viewLocked(id string, p *participantState) domain.Participant {
	return domain.Participant{
		ID:       id,
		Icon:     p.icon,
		Color:    p.color,
		Cursor:   p.cursor,
		JoinedAt: p.joinedAt,
	}
}
