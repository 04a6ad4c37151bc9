package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent. Any message or
	// pong from the client pushes the read deadline forward.
	pongWait = 60 * time.Second
	// PingPeriod must stay below pongWait.
	PingPeriod = pongWait * 9 / 10
)

// Conn is the subset of *websocket.Conn used by Writer.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v any) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
}

// ReadConn is the subset of *websocket.Conn used by KeepAlive.
type ReadConn interface {
	SetReadDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// Writer serializes writes to one connection. gorilla/websocket allows a
// single concurrent writer only.
type Writer struct {
	mu   sync.Mutex
	conn Conn
}

// NewWriter wraps conn.
func NewWriter(conn Conn) *Writer {
	return &Writer{conn: conn}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (w *Writer) WriteTyped(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return w.conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (w *Writer) WriteError(code, errMsg string) error {
	return w.WriteTyped(ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: errMsg,
	})
}

// WritePing sends a ping control frame. Clients answer with a pong even
// when they never send an action, which keeps KeepAlive's deadline fresh.
func (w *Writer) WritePing() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// KeepAlive arms the read deadline and extends it on every pong.
func KeepAlive(conn ReadConn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// Each message extends the read deadline.
func ReadJSON(conn *websocket.Conn, v any) error {
	if err := conn.ReadJSON(v); err != nil {
		return err
	}
	return conn.SetReadDeadline(time.Now().Add(pongWait))
}
