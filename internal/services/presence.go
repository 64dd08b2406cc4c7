package services

import (
	"strings"
	"sync"
)

// ChatConn is the minimal interface our WebSocket implementation must satisfy.
type ChatConn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Event is the envelope for everything sent over a chat connection.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Event names on the wire. Inbound and outbound use the same envelope.
const (
	EventRegister            = "register"
	EventPrivateMessage      = "private message"
	EventReadMessage         = "read message"
	EventMessageRead         = "message read"
	EventUserStatus          = "user status"
	EventScheduleAppointment = "schedule_appointment"
)

// UserStatusPayload announces a presence change.
type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"` // "online" or "offline"
}

type presenceEntry struct {
	conn ChatConn
	role string
}

// PresenceRegistry tracks which users currently hold a live connection.
// At most one connection per user id: registering again evicts and closes
// the previous one. All mutations are serialized by the mutex.
type PresenceRegistry struct {
	mu      sync.RWMutex
	entries map[string]*presenceEntry
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{entries: make(map[string]*presenceEntry)}
}

// Register installs conn as the user's live connection, closing any prior
// one for the same id. Every other connected client is told the user is
// online, and the registering connection receives the full online set so
// a fresh client starts from a consistent presence snapshot.
func (p *PresenceRegistry) Register(userID, role string, conn ChatConn) {
	p.mu.Lock()
	var evict ChatConn
	if old, ok := p.entries[userID]; ok && old.conn != conn {
		evict = old.conn
	}
	p.entries[userID] = &presenceEntry{conn: conn, role: strings.ToLower(role)}

	others := make([]ChatConn, 0, len(p.entries)-1)
	online := make([]string, 0, len(p.entries))
	for id, e := range p.entries {
		online = append(online, id)
		if id != userID {
			others = append(others, e.conn)
		}
	}
	p.mu.Unlock()

	if evict != nil {
		evict.Close()
	}
	for _, c := range others {
		writeUserStatus(c, userID, "online")
	}
	for _, id := range online {
		writeUserStatus(conn, id, "online")
	}
}

// Lookup returns the live connection for a user, if any.
func (p *PresenceRegistry) Lookup(userID string) (ChatConn, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.entries[userID]
	if !ok {
		return nil, false
	}
	return e.conn, true
}

// Unregister removes the entry owned by conn and broadcasts the user
// going offline. No-op when conn was already superseded by a newer
// registration for the same user.
func (p *PresenceRegistry) Unregister(conn ChatConn) (string, bool) {
	p.mu.Lock()
	var userID string
	var found bool
	for id, e := range p.entries {
		if e.conn == conn {
			userID = id
			found = true
			delete(p.entries, id)
			break
		}
	}
	var remaining []ChatConn
	if found {
		remaining = make([]ChatConn, 0, len(p.entries))
		for _, e := range p.entries {
			remaining = append(remaining, e.conn)
		}
	}
	p.mu.Unlock()

	if !found {
		return "", false
	}
	for _, c := range remaining {
		writeUserStatus(c, userID, "offline")
	}
	return userID, true
}

// OnlineIDs returns a snapshot of all online user ids, for page render.
func (p *PresenceRegistry) OnlineIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	return ids
}

func writeUserStatus(c ChatConn, userID, status string) {
	// Best-effort: a failed write means the peer is going away and will be
	// cleaned up by its own read loop.
	_ = c.WriteJSON(Event{
		Event: EventUserStatus,
		Data:  UserStatusPayload{UserID: userID, Status: status},
	})
}
