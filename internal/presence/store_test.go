package presence

import (
	"testing"

	"github.com/mockpages/collab-service/internal/domain"
)

func TestJoinIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.Join("page-1", "a")
	s.Join("page-1", "a")

	view := s.Snapshot("page-1")
	if view.Count != 1 {
		t.Fatalf("count = %d, want 1", view.Count)
	}
	if len(view.Users) != 1 || view.Users[0].ID != "a" {
		t.Fatalf("users = %+v, want single participant a", view.Users)
	}
}

func TestSnapshotCountMatchesMembership(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.Join("page-1", "b")
	s.Join("page-1", "c")
	s.Leave("page-1", "b")

	view := s.Snapshot("page-1")
	if view.Count != 2 || len(view.Users) != 2 {
		t.Fatalf("count = %d, users = %d, want 2/2", view.Count, len(view.Users))
	}
}

func TestSnapshotOrderedByJoinTime(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "b")
	s.Join("page-1", "a")
	s.Join("page-1", "c")

	view := s.Snapshot("page-1")
	got := []string{view.Users[0].ID, view.Users[1].ID, view.Users[2].ID}
	want := []string{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestLeaveLastMemberClosesRoom(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.Leave("page-1", "a")

	if n := s.RoomCount(); n != 0 {
		t.Fatalf("room count = %d, want 0", n)
	}
	if view := s.Snapshot("page-1"); view.Count != 0 {
		t.Fatalf("snapshot of closed room: %+v", view)
	}
}

func TestLeaveUnknownMemberIsNoop(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.Leave("page-1", "b")
	s.Leave("page-2", "a")

	if view := s.Snapshot("page-1"); view.Count != 1 {
		t.Fatalf("count = %d, want 1", view.Count)
	}
}

func TestLeaveAllReturnsAffectedRooms(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.Join("page-2", "a")
	s.Join("page-2", "b")

	affected := s.LeaveAll("a")
	if len(affected) != 2 {
		t.Fatalf("affected = %v, want two rooms", affected)
	}

	// page-1 держался только на "a" и должен исчезнуть
	if n := s.RoomCount(); n != 1 {
		t.Fatalf("room count = %d, want 1", n)
	}
	view := s.Snapshot("page-2")
	if view.Count != 1 || view.Users[0].ID != "b" {
		t.Fatalf("page-2 view = %+v, want only b", view)
	}
	for _, roomID := range affected {
		for _, u := range s.Snapshot(roomID).Users {
			if u.ID == "a" {
				t.Fatalf("participant a still present in %s", roomID)
			}
		}
	}
}

func TestAssignAttributesIsStable(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.AssignAttributesIfAbsent("a")

	first, ok := s.Attributes("a")
	if !ok {
		t.Fatal("attributes missing after assignment")
	}
	if first.Icon == "" || first.Color == "" {
		t.Fatalf("empty attributes: %+v", first)
	}

	for i := 0; i < 20; i++ {
		s.AssignAttributesIfAbsent("a")
	}
	again, _ := s.Attributes("a")
	if again.Icon != first.Icon || again.Color != first.Color {
		t.Fatalf("attributes changed: %+v -> %+v", first, again)
	}
}

func TestAssignedAttributesComeFromPalettes(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.AssignAttributesIfAbsent("a")
	p, _ := s.Attributes("a")

	if !contains(domain.Icons, p.Icon) {
		t.Fatalf("icon %q not in palette", p.Icon)
	}
	if !contains(domain.Colors, p.Color) {
		t.Fatalf("color %q not in palette", p.Color)
	}
}

func TestUpdateCursorUnknownParticipant(t *testing.T) {
	s := NewStore()
	// Не должно паниковать и не должно создавать участника.
	s.UpdateCursor("ghost", domain.Cursor{X: 1, Y: 2})

	if _, ok := s.Attributes("ghost"); ok {
		t.Fatal("cursor update materialized unknown participant")
	}
}

func TestUpdateCursorOverwrites(t *testing.T) {
	s := NewStore()
	s.Join("page-1", "a")
	s.UpdateCursor("a", domain.Cursor{X: 10, Y: 20, ScrollY: 50})
	s.UpdateCursor("a", domain.Cursor{X: 100, Y: 200, ScrollY: 50})

	p, _ := s.Attributes("a")
	if p.Cursor.X != 100 || p.Cursor.Y != 200 || p.Cursor.ScrollY != 50 {
		t.Fatalf("cursor = %+v", p.Cursor)
	}
}

func TestForgetDropsAttributes(t *testing.T) {
	s := NewStore()
	s.Register("a")
	s.Join("page-1", "a")
	s.AssignAttributesIfAbsent("a")

	s.LeaveAll("a")
	s.Forget("a")

	if _, ok := s.Attributes("a"); ok {
		t.Fatal("attributes survived Forget")
	}
}

type recordingHook struct {
	created []string
	closed  []string
}

func (h *recordingHook) RoomCreated(roomID string) { h.created = append(h.created, roomID) }
func (h *recordingHook) RoomClosed(roomID string)  { h.closed = append(h.closed, roomID) }

func TestRoomLifecycleHook(t *testing.T) {
	s := NewStore()
	h := &recordingHook{}
	s.SetLifecycleHook(h)

	s.Join("page-1", "a")
	s.Join("page-1", "b") // уже существует, хук не дёргается
	s.Leave("page-1", "a")
	s.Leave("page-1", "b")

	if len(h.created) != 1 || h.created[0] != "page-1" {
		t.Fatalf("created = %v", h.created)
	}
	if len(h.closed) != 1 || h.closed[0] != "page-1" {
		t.Fatalf("closed = %v", h.closed)
	}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
