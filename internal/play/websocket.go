package play

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MJE43/lilyhop/internal/game"
)

const (
	readLimit    = 1 << 20
	readTimeout  = 60 * time.Second
	helloTimeout = 10 * time.Second
	writeTimeout = 10 * time.Second
	pingEvery    = 25 * time.Second
)

var upgrader = websocket.Upgrader{
	// The game page may be served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn adapts a websocket connection to Conn.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// ServeWS upgrades the request and runs one play session on it. The first
// message must be a hello; afterwards input and reset messages are fed to
// the session until the connection drops.
func (m *Manager) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		m.logger.Printf("ws_upgrade_failed remote=%s error=%v", r.RemoteAddr, err)
		return
	}
	conn.SetReadLimit(readLimit)

	_ = conn.SetReadDeadline(time.Now().Add(helloTimeout))
	hello, err := readHello(conn)
	if err != nil {
		m.logger.Printf("ws_hello_failed remote=%s error=%v", r.RemoteAddr, err)
		if b, encErr := Encode(MsgError, ErrorMsg{Message: err.Error()}); encErr == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteMessage(websocket.TextMessage, b)
		}
		_ = conn.Close()
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	s := m.Start(&wsConn{conn: conn}, hello)

	go func() {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
					return
				}
			case <-s.Done():
				return
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		cmd, ok := decodeCommand(msg)
		if !ok {
			continue
		}
		if !s.Push(cmd) {
			break
		}
	}
	s.Push(Leave{})
	<-s.Done()
}

func readHello(conn *websocket.Conn) (Hello, error) {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return Hello{}, err
	}
	env, err := DecodeEnvelope(msg)
	if err != nil {
		return Hello{}, err
	}
	if env.T != MsgHello {
		return Hello{}, errExpectedHello
	}
	hello, err := DecodePayload[Hello](env)
	if err != nil {
		return Hello{}, err
	}
	if hello.V != ProtocolVersion {
		return Hello{}, errUnsupportedVersion
	}
	return hello, nil
}

// decodeCommand maps a client message to a session command. Unknown or
// malformed messages are dropped.
func decodeCommand(msg []byte) (any, bool) {
	env, err := DecodeEnvelope(msg)
	if err != nil {
		return nil, false
	}
	switch env.T {
	case MsgInput:
		in, err := DecodePayload[InputMsg](env)
		if err != nil {
			return nil, false
		}
		action, ok := game.ParseInput(in.Action)
		if !ok {
			return nil, false
		}
		return Input{Input: action}, true
	case MsgReset:
		return Reset{}, true
	}
	return nil, false
}
