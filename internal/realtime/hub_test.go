package realtime

import (
	"encoding/json"
	"testing"
)

func addClient(h *Hub, userID string, isAdmin bool) *Client {
	client := NewClient(h, nil, userID, isAdmin)
	set, ok := h.clients[userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[userID] = set
	}
	set[client] = struct{}{}
	if isAdmin {
		h.admins[client] = struct{}{}
	}
	return client
}

func receivedEvent(t *testing.T, c *Client) *Event {
	t.Helper()
	select {
	case payload := <-c.send:
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		return &event
	default:
		return nil
	}
}

func TestUserEventReachesOwnerAndAdmins(t *testing.T) {
	hub := NewHub()
	owner := addClient(hub, "42", false)
	other := addClient(hub, "7", false)
	admin := addClient(hub, "1", true)

	hub.PublishToUser(42, "purchases", "upsert", map[string]any{"id": 9})
	hub.deliver(<-hub.events)

	event := receivedEvent(t, owner)
	if event == nil {
		t.Fatal("expected owner to receive event")
	}
	if event.Table != "purchases" || event.Action != "upsert" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if receivedEvent(t, admin) == nil {
		t.Fatal("expected admin to receive user-scoped event")
	}
	if receivedEvent(t, other) != nil {
		t.Fatal("expected other client to receive nothing")
	}
}

func TestAdminOwnerIsNotDoubleDelivered(t *testing.T) {
	hub := NewHub()
	adminOwner := addClient(hub, "1", true)

	hub.PublishToUser(1, "bookings", "upsert", nil)
	hub.deliver(<-hub.events)

	if receivedEvent(t, adminOwner) == nil {
		t.Fatal("expected event")
	}
	if receivedEvent(t, adminOwner) != nil {
		t.Fatal("expected exactly one delivery")
	}
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()
	a := addClient(hub, "42", false)
	b := addClient(hub, "7", false)

	hub.Broadcast("services", "upsert", map[string]any{"id": 3})
	hub.deliver(<-hub.events)

	if receivedEvent(t, a) == nil || receivedEvent(t, b) == nil {
		t.Fatal("expected broadcast to reach all clients")
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub()
	slow := addClient(hub, "42", false)
	for i := 0; i < cap(slow.send); i++ {
		slow.send <- []byte("{}")
	}

	hub.PublishToUser(42, "purchases", "upsert", nil)
	hub.deliver(<-hub.events)

	if _, ok := hub.clients["42"]; ok {
		t.Fatal("expected slow client pruned")
	}
}

func TestDropClosesSendChannelOnce(t *testing.T) {
	hub := NewHub()
	client := addClient(hub, "42", true)

	hub.drop(client)
	hub.drop(client)

	if _, open := <-client.send; open {
		t.Fatal("expected send channel closed")
	}
	if len(hub.admins) != 0 {
		t.Fatal("expected admin set pruned")
	}
}
