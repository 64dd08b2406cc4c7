package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/medibridge/medibridge-backend/internal/services"
)

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// wsConn adapts a gorilla connection to services.ChatConn. Presence
// broadcasts write from other connections' goroutines, so writes are
// serialized with a mutex.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// wsEnvelope is the wire frame for every chat event in both directions.
type wsEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChatWebSocket is the real-time channel endpoint. Authentication uses
// the session token (Authorization header or token query parameter).
// A connection carries no identity until its register event arrives.
func ChatWebSocket(w http.ResponseWriter, r *http.Request) {
	token := requestToken(r)
	if token == "" {
		http.Error(w, "missing session token", http.StatusUnauthorized)
		return
	}
	if _, _, ok, err := services.ValidateSession(token); err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	raw, err := chatUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	conn := &wsConn{conn: raw}
	defer conn.Close()
	defer chatGateway.HandleDisconnect(conn)

	raw.SetReadLimit(64 * 1024)
	_ = raw.SetReadDeadline(time.Now().Add(90 * time.Second))
	raw.SetPongHandler(func(appData string) error {
		_ = raw.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			return
		}
		_ = raw.SetReadDeadline(time.Now().Add(90 * time.Second))

		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}

		dispatchChatEvent(r.Context(), conn, env)
	}
}

// dispatchChatEvent routes one inbound envelope to the gateway.
// Malformed payloads are dropped without closing the connection.
func dispatchChatEvent(ctx context.Context, conn services.ChatConn, env wsEnvelope) {
	handlerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	switch env.Event {
	case services.EventRegister:
		var in services.RegisterIn
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return
		}
		chatGateway.HandleRegister(conn, in)
	case services.EventPrivateMessage:
		var in services.PrivateMessageIn
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return
		}
		chatGateway.HandlePrivateMessage(handlerCtx, conn, in)
	case services.EventReadMessage:
		var in services.ReadMessageIn
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return
		}
		chatGateway.HandleReadMessage(handlerCtx, in)
	case services.EventScheduleAppointment:
		var in services.ScheduleAppointmentIn
		if err := json.Unmarshal(env.Data, &in); err != nil {
			return
		}
		chatGateway.HandleScheduleAppointment(handlerCtx, in)
	default:
		// Ignore unknown events.
	}
}
