package channel

import (
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket is a Transport over a websocket connection, for peers that
// expose a socket endpoint instead of a FIFO pair. Frames are binary
// messages.
type WebSocket struct {
	conn *websocket.Conn
}

// DialWebSocket connects to a peer's websocket endpoint.
func DialWebSocket(url string) (*WebSocket, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}
	return &WebSocket{conn: conn}, nil
}

func (w *WebSocket) Send(p []byte) error {
	return w.conn.WriteMessage(websocket.BinaryMessage, p)
}

func (w *WebSocket) Recv(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		w.conn.SetReadDeadline(time.Now().Add(timeout))
	} else {
		w.conn.SetReadDeadline(time.Time{})
	}
	_, p, err := w.conn.ReadMessage()
	return p, err
}

func (w *WebSocket) Close() error {
	return w.conn.Close()
}
