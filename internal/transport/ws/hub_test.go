package ws

import (
	"testing"

	"github.com/mockpages/collab-service/internal/presence"
)

type fakeConn struct {
	id   string
	sent []Message
}

func (c *fakeConn) ID() string             { return c.id }
func (c *fakeConn) Send(msg Message) error { c.sent = append(c.sent, msg); return nil }
func (c *fakeConn) Close() error           { return nil }

func TestRelayExcludesSender(t *testing.T) {
	store := presence.NewStore()
	hub := NewHub(store)

	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	hub.Register(a)
	hub.Register(b)
	store.Join("page-1", "a")
	store.Join("page-1", "b")

	hub.Relay("page-1", "a", Message{Type: TypeBlocksUpdated})

	if len(a.sent) != 0 {
		t.Fatalf("sender received own relay: %+v", a.sent)
	}
	if len(b.sent) != 1 {
		t.Fatalf("recipient got %d deliveries, want exactly 1", len(b.sent))
	}
}

func TestRelaySingleMemberRoom(t *testing.T) {
	store := presence.NewStore()
	hub := NewHub(store)

	a := &fakeConn{id: "a"}
	hub.Register(a)
	store.Join("page-1", "a")

	hub.Relay("page-1", "a", Message{Type: TypeOrderUpdated})

	if len(a.sent) != 0 {
		t.Fatalf("sole sender received own relay: %+v", a.sent)
	}
}

func TestBroadcastPresenceIncludesSender(t *testing.T) {
	store := presence.NewStore()
	hub := NewHub(store)

	a := &fakeConn{id: "a"}
	b := &fakeConn{id: "b"}
	hub.Register(a)
	hub.Register(b)
	store.Join("page-1", "a")
	store.Join("page-1", "b")

	hub.BroadcastPresence("page-1")

	for _, c := range []*fakeConn{a, b} {
		if len(c.sent) != 1 || c.sent[0].Type != TypeRoomUsersUpdated {
			t.Fatalf("conn %s: sent = %+v", c.id, c.sent)
		}
	}
}

func TestBroadcastSkipsUnregisteredMember(t *testing.T) {
	store := presence.NewStore()
	hub := NewHub(store)

	a := &fakeConn{id: "a"}
	hub.Register(a)
	store.Join("page-1", "a")
	store.Join("page-1", "gone") // участник без живого соединения

	hub.BroadcastPresence("page-1") // не должно паниковать

	if len(a.sent) != 1 {
		t.Fatalf("sent = %+v", a.sent)
	}
}
