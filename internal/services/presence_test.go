package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeConn records every payload written to it.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, v.(Event))
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) eventsNamed(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRegisterSendsSnapshotToNewConnection(t *testing.T) {
	req := require.New(t)
	reg := NewPresenceRegistry()

	first := &fakeConn{}
	reg.Register("u1", "doctor", first)

	second := &fakeConn{}
	reg.Register("u2", "patient", second)

	// The fresh connection gets the full online set, itself included.
	statuses := second.eventsNamed(EventUserStatus)
	req.Len(statuses, 2)
	seen := map[string]string{}
	for _, e := range statuses {
		p := e.Data.(UserStatusPayload)
		seen[p.UserID] = p.Status
	}
	req.Equal(map[string]string{"u1": "online", "u2": "online"}, seen)

	// The existing connection is told about the newcomer only.
	statuses = first.eventsNamed(EventUserStatus)
	req.Len(statuses, 2) // own snapshot + u2 joining
	last := statuses[len(statuses)-1].Data.(UserStatusPayload)
	req.Equal("u2", last.UserID)
	req.Equal("online", last.Status)
}

func TestRegisterEvictsPreviousConnection(t *testing.T) {
	req := require.New(t)
	reg := NewPresenceRegistry()

	old := &fakeConn{}
	reg.Register("u1", "doctor", old)

	replacement := &fakeConn{}
	reg.Register("u1", "doctor", replacement)

	req.True(old.isClosed())
	req.False(replacement.isClosed())

	conn, ok := reg.Lookup("u1")
	req.True(ok)
	req.Same(replacement, conn.(*fakeConn))
	req.Equal([]string{"u1"}, reg.OnlineIDs())
}

func TestUnregisterBroadcastsOffline(t *testing.T) {
	req := require.New(t)
	reg := NewPresenceRegistry()

	c1 := &fakeConn{}
	c2 := &fakeConn{}
	reg.Register("u1", "doctor", c1)
	reg.Register("u2", "patient", c2)

	userID, ok := reg.Unregister(c2)
	req.True(ok)
	req.Equal("u2", userID)

	_, found := reg.Lookup("u2")
	req.False(found)

	statuses := c1.eventsNamed(EventUserStatus)
	last := statuses[len(statuses)-1].Data.(UserStatusPayload)
	req.Equal("u2", last.UserID)
	req.Equal("offline", last.Status)
}

func TestUnregisterSupersededConnectionIsNoop(t *testing.T) {
	req := require.New(t)
	reg := NewPresenceRegistry()

	old := &fakeConn{}
	reg.Register("u1", "doctor", old)
	replacement := &fakeConn{}
	reg.Register("u1", "doctor", replacement)

	// The evicted connection's read loop tears down after the new one
	// registered; the newer entry must survive.
	_, ok := reg.Unregister(old)
	req.False(ok)

	conn, found := reg.Lookup("u1")
	req.True(found)
	req.Same(replacement, conn.(*fakeConn))
}
