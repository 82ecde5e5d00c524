package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WSChannel adapts a gorilla/websocket connection to the Channel
// interface. gorilla's *websocket.Conn permits at most one concurrent
// reader and one concurrent writer: the Receptor is the only reader, and
// every write (Effector events, Receptor responses, pings, the close
// frame) is serialized by writeMu.
type WSChannel struct {
	*stateTracker

	conn     *websocket.Conn
	writeMu  sync.Mutex
	pingStop chan struct{}
}

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongTimeout  = 60 * time.Second
)

// NewWSChannel wraps an already-upgraded websocket connection, starting
// in the connected state, and begins a background ping loop so a dead
// peer is detected even with no application traffic.
func NewWSChannel(conn *websocket.Conn) *WSChannel {
	c := &WSChannel{
		stateTracker: newStateTracker(StateConnected),
		conn:         conn,
		pingStop:     make(chan struct{}),
	}

	conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		return nil
	})

	go c.pingLoop()
	return c
}

func (c *WSChannel) pingLoop() {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.pingStop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// Send marshals and writes one Frame. Safe to call concurrently with Recv
// and with other Sends, which writeMu serializes.
func (c *WSChannel) Send(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Recv blocks for the next inbound Frame. Only the Receptor calls this.
func (c *WSChannel) Recv() (Frame, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		c.setState(StateDisconnecting)
		return Frame{}, err
	}
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Close gracefully closes the underlying connection.
func (c *WSChannel) Close() error {
	close(c.pingStop)
	c.setState(StateDisconnecting)
	c.writeMu.Lock()
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	c.setState(StateIdle)
	return c.conn.Close()
}
