// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the server.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the server.
	pongWait = 60 * time.Second

	// Send pings to the server with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from the server.
	maxMessageSize = 512 * 1024

	sendBufferSize = 256
)

// frame is the wire envelope for every realtime message in both
// directions. AckID correlates a request frame with its reply.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID string          `json:"ackId,omitempty"`
}

// Handler receives the raw data payload of one event occurrence.
// Handlers run on the connection's dispatch goroutine, so they observe
// events in arrival order and must not block.
type Handler func(data json.RawMessage)

// Subscription is the registration handle returned by Subscribe.
// Cancel is idempotent; every registered handler must be cancelled on
// consumer teardown so updates cannot leak into a torn-down consumer.
type Subscription struct {
	conn  *Conn
	event string
	id    uint64
}

// Cancel removes the handler.
func (s *Subscription) Cancel() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.handlerMu.Lock()
	if hs, ok := s.conn.handlers[s.event]; ok {
		delete(hs, s.id)
		if len(hs) == 0 {
			delete(s.conn.handlers, s.event)
		}
	}
	s.conn.handlerMu.Unlock()
	s.conn = nil
}

// Conn is a realtime connection to the match event server. It owns a
// read pump and a write pump, reconnects with bounded backoff when the
// transport drops, and rejoins previously joined rooms after a
// reconnect. Use a ConnManager to share one Conn across consumers.
type Conn struct {
	url     string
	tokens  TokenSource
	nowFunc func() time.Time

	reconnectAttempts int
	reconnectDelay    time.Duration

	send chan frame
	done chan struct{}

	closeOnce sync.Once

	handlerMu sync.Mutex
	handlers  map[string]map[uint64]Handler
	nextSubID uint64

	ackMu   sync.Mutex
	pending map[string]chan frame

	roomMu sync.Mutex
	rooms  map[RoomRef]struct{}
}

// DialSocket establishes a realtime connection. tokens may be nil.
func DialSocket(cfg *Config, tokens TokenSource) (*Conn, error) {
	c := &Conn{
		url:               cfg.SocketURL,
		tokens:            tokens,
		nowFunc:           time.Now,
		reconnectAttempts: cfg.ReconnectAttempts,
		reconnectDelay:    cfg.ReconnectDelay,
		send:              make(chan frame, sendBufferSize),
		done:              make(chan struct{}),
		handlers:          make(map[string]map[uint64]Handler),
		pending:           make(map[string]chan frame),
		rooms:             make(map[RoomRef]struct{}),
	}
	ws, err := c.dial()
	if err != nil {
		return nil, err
	}
	go c.run(ws)
	return c, nil
}

func (c *Conn) dial() (*websocket.Conn, error) {
	header := http.Header{}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("token source: %w", err)
		}
		if tok != "" {
			if tokenExpired(tok, c.nowFunc()) {
				return nil, fmt.Errorf("access token expired")
			}
			header.Set("Authorization", "Bearer "+tok)
		}
	}
	dialer := websocket.Dialer{HandshakeTimeout: writeWait}
	ws, _, err := dialer.Dial(c.url, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.url, err)
	}
	return ws, nil
}

// run serves one websocket session at a time, reconnecting between
// sessions until Close or the attempt budget runs out.
func (c *Conn) run(ws *websocket.Conn) {
	for {
		c.serve(ws)
		c.failPending()
		c.dispatch(EventDisconnected, nil)
		if c.isClosed() {
			return
		}

		next, err := c.reconnect()
		if err != nil {
			log.Printf("Socket: giving up on %s: %v", c.url, err)
			c.Close()
			return
		}
		if next == nil { // closed while waiting
			return
		}
		ws = next
		c.dispatch(EventConnected, nil)
		c.rejoinRooms()
	}
}

// serve pumps one established connection until it drops.
func (c *Conn) serve(ws *websocket.Conn) {
	stop := make(chan struct{})
	go c.writePump(ws, stop)
	c.readPump(ws)
	close(stop)
	ws.Close()
}

func (c *Conn) readPump(ws *websocket.Conn) {
	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error { ws.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		var f frame
		if err := ws.ReadJSON(&f); err != nil {
			if !c.isClosed() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Socket: read error: %v", err)
			}
			return
		}
		if f.AckID != "" && c.deliverAck(f) {
			continue
		}
		c.dispatch(f.Event, f.Data)
	}
}

func (c *Conn) writePump(ws *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case f := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(f); err != nil {
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-stop:
			return
		case <-c.done:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// reconnect retries the dial with a linearly growing delay, bounded by
// the configured attempt budget. Returns (nil, nil) if the connection
// was closed while waiting.
func (c *Conn) reconnect() (*websocket.Conn, error) {
	var lastErr error
	for attempt := 1; attempt <= c.reconnectAttempts; attempt++ {
		select {
		case <-c.done:
			return nil, nil
		case <-time.After(time.Duration(attempt) * c.reconnectDelay):
		}
		ws, err := c.dial()
		if err == nil {
			return ws, nil
		}
		lastErr = err
		log.Printf("Socket: reconnect attempt %d/%d failed: %v", attempt, c.reconnectAttempts, err)
	}
	return nil, fmt.Errorf("reconnect attempts exhausted: %w", lastErr)
}

// Subscribe registers a handler for one event name.
func (c *Conn) Subscribe(event string, fn Handler) *Subscription {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.nextSubID++
	id := c.nextSubID
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]Handler)
	}
	c.handlers[event][id] = fn
	return &Subscription{conn: c, event: event, id: id}
}

func (c *Conn) dispatch(event string, data json.RawMessage) {
	c.handlerMu.Lock()
	hs := c.handlers[event]
	fns := make([]Handler, 0, len(hs))
	for _, fn := range hs {
		fns = append(fns, fn)
	}
	c.handlerMu.Unlock()
	for _, fn := range fns {
		fn(data)
	}
}

// Emit sends one event with no acknowledgement. The send is
// best-effort: if the outbound buffer is full the frame is dropped,
// matching the transport's at-most-once delivery.
func (c *Conn) Emit(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	// Checked ahead of the send: with the buffer open and done closed
	// a combined select would pick between them at random.
	if c.isClosed() {
		return ErrNotConnected
	}
	select {
	case c.send <- frame{Event: event, Data: data}:
		return nil
	default:
		return fmt.Errorf("emit %s: outbound buffer full", event)
	}
}

// EmitWithAck sends one event and waits for the server's reply frame
// carrying the same ack id.
func (c *Conn) EmitWithAck(ctx context.Context, event string, v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	ackID := uuid.NewString()
	reply := make(chan frame, 1)

	c.ackMu.Lock()
	c.pending[ackID] = reply
	c.ackMu.Unlock()
	defer func() {
		c.ackMu.Lock()
		delete(c.pending, ackID)
		c.ackMu.Unlock()
	}()

	if c.isClosed() {
		return nil, ErrNotConnected
	}
	select {
	case c.send <- frame{Event: event, Data: data, AckID: ackID}:
	default:
		return nil, fmt.Errorf("emit %s: outbound buffer full", event)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrNotConnected
	case f, ok := <-reply:
		if !ok {
			return nil, ErrNotConnected
		}
		if f.Event == EventError {
			var se SocketError
			json.Unmarshal(f.Data, &se)
			return nil, fmt.Errorf("server error: %s", se.Message)
		}
		return f.Data, nil
	}
}

func (c *Conn) deliverAck(f frame) bool {
	c.ackMu.Lock()
	reply, ok := c.pending[f.AckID]
	if ok {
		delete(c.pending, f.AckID)
	}
	c.ackMu.Unlock()
	if ok {
		reply <- f
	}
	return ok
}

// failPending aborts every in-flight ack wait; EmitWithAck sees the
// closed channel and reports the connection as lost.
func (c *Conn) failPending() {
	c.ackMu.Lock()
	for id, reply := range c.pending {
		close(reply)
		delete(c.pending, id)
	}
	c.ackMu.Unlock()
}

// JoinRoom enters a match event room. The room is remembered and
// rejoined automatically after a reconnect.
func (c *Conn) JoinRoom(ref RoomRef) error {
	c.roomMu.Lock()
	c.rooms[ref] = struct{}{}
	c.roomMu.Unlock()
	return c.Emit(EventJoinRoom, ref)
}

// LeaveRoom exits a match event room.
func (c *Conn) LeaveRoom(ref RoomRef) error {
	c.roomMu.Lock()
	delete(c.rooms, ref)
	c.roomMu.Unlock()
	return c.Emit(EventLeaveRoom, ref)
}

func (c *Conn) rejoinRooms() {
	c.roomMu.Lock()
	refs := make([]RoomRef, 0, len(c.rooms))
	for ref := range c.rooms {
		refs = append(refs, ref)
	}
	c.roomMu.Unlock()
	for _, ref := range refs {
		if err := c.Emit(EventJoinRoom, ref); err != nil {
			log.Printf("Socket: rejoin %v: %v", ref, err)
		}
	}
}

// RequestLiveScore asks the server to push the current live score.
func (c *Conn) RequestLiveScore(matchID string) error {
	return c.Emit(EventRequestLiveScore, struct {
		MatchID string `json:"matchId"`
	}{matchID})
}

// SendChat posts a chat line to the match room.
func (c *Conn) SendChat(roomID, message string) error {
	return c.Emit(EventMatchChat, ChatMessage{RoomID: roomID, Message: message})
}

// SendReaction posts a quick emote to the match room.
func (c *Conn) SendReaction(roomID, reaction string) error {
	return c.Emit(EventMatchReaction, ReactionMessage{RoomID: roomID, Reaction: reaction})
}

func (c *Conn) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Close tears the connection down. Idempotent.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.failPending()
	})
}

// ConnManager shares one realtime connection process-wide. Screens
// acquire a reference on entry and release it on teardown; the
// connection is dialed on the first acquire and closed when the last
// reference goes away, never one connection per screen.
type ConnManager struct {
	mu     sync.Mutex
	cfg    *Config
	tokens TokenSource
	conn   *Conn
	refs   int

	// dialFunc is replaceable for tests.
	dialFunc func(*Config, TokenSource) (*Conn, error)
}

// NewConnManager returns a manager for the configured endpoint.
func NewConnManager(cfg *Config, tokens TokenSource) *ConnManager {
	return &ConnManager{cfg: cfg, tokens: tokens, dialFunc: DialSocket}
}

// Acquire returns the shared connection, dialing it if this is the
// first reference.
func (m *ConnManager) Acquire() (*Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil && !m.conn.isClosed() {
		m.refs++
		return m.conn, nil
	}
	conn, err := m.dialFunc(m.cfg, m.tokens)
	if err != nil {
		return nil, err
	}
	m.conn = conn
	m.refs = 1
	return conn, nil
}

// Release drops one reference; the last release closes the connection.
func (m *ConnManager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refs == 0 {
		return
	}
	m.refs--
	if m.refs == 0 && m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}
