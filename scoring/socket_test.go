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
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newSocketServer runs handler once per accepted websocket connection.
func newSocketServer(t *testing.T, handler func(*websocket.Conn)) (*httptest.Server, *Config) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade: %v", err)
			return
		}
		defer ws.Close()
		handler(ws)
	}))
	t.Cleanup(server.Close)
	cfg := &Config{
		SocketURL:         "ws" + strings.TrimPrefix(server.URL, "http"),
		ReconnectAttempts: 5,
		ReconnectDelay:    20 * time.Millisecond,
	}
	return server, cfg
}

func TestSocketDispatch(t *testing.T) {
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {
		ws.WriteJSON(frame{Event: EventBallUpdate, Data: json.RawMessage(`{"matchId":"m1"}`)})
		// Keep the connection open until the client goes away.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	conn, err := DialSocket(cfg, nil)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer conn.Close()

	got := make(chan json.RawMessage, 1)
	sub := conn.Subscribe(EventBallUpdate, func(data json.RawMessage) {
		got <- data
	})
	defer sub.Cancel()

	select {
	case data := <-got:
		var p struct {
			MatchID string `json:"matchId"`
		}
		if err := json.Unmarshal(data, &p); err != nil || p.MatchID != "m1" {
			t.Errorf("Payload = %s (err %v)", data, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for dispatch")
	}
}

func TestSubscriptionCancel(t *testing.T) {
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	conn, err := DialSocket(cfg, nil)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer conn.Close()

	var calls atomic.Int32
	sub := conn.Subscribe(EventBallUpdate, func(json.RawMessage) { calls.Add(1) })
	keep := conn.Subscribe(EventBallUpdate, func(json.RawMessage) { calls.Add(1) })
	defer keep.Cancel()

	sub.Cancel()
	sub.Cancel() // idempotent
	var nilSub *Subscription
	nilSub.Cancel() // nil-safe

	conn.dispatch(EventBallUpdate, nil)
	if n := calls.Load(); n != 1 {
		t.Errorf("Handler calls = %d, want 1 (cancelled handler ran)", n)
	}
}

func TestEmitWithAck(t *testing.T) {
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {
		for {
			var f frame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			switch f.Event {
			case EventRecordBall:
				ws.WriteJSON(frame{
					Event: EventRecordBall,
					Data:  json.RawMessage(`{"success":true,"data":{"innings":{"totalRuns":4,"overs":"0.1"}}}`),
					AckID: f.AckID,
				})
			case "fail_me":
				ws.WriteJSON(frame{
					Event: EventError,
					Data:  json.RawMessage(`{"message":"not your match"}`),
					AckID: f.AckID,
				})
			}
		}
	})

	conn, err := DialSocket(cfg, nil)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := conn.EmitWithAck(ctx, EventRecordBall, validDelivery())
	if err != nil {
		t.Fatalf("EmitWithAck: %v", err)
	}
	var ack RecordBallAck
	if err := json.Unmarshal(data, &ack); err != nil {
		t.Fatalf("Unmarshal ack: %v", err)
	}
	if !ack.Success || ack.Data == nil || ack.Data.Innings.TotalRuns != 4 {
		t.Errorf("Ack = %+v, want success with runs=4", ack)
	}

	// A reply frame carrying the error event fails the call.
	if _, err := conn.EmitWithAck(ctx, "fail_me", struct{}{}); err == nil ||
		!strings.Contains(err.Error(), "not your match") {
		t.Errorf("Error ack: got %v, want server error message", err)
	}
}

func TestEmitWithAckContextCancel(t *testing.T) {
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {
		// Swallow everything, never ack.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	conn, err := DialSocket(cfg, nil)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := conn.EmitWithAck(ctx, EventRecordBall, struct{}{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("EmitWithAck without ack = %v, want deadline exceeded", err)
	}
}

func TestReconnectRejoinsRooms(t *testing.T) {
	joins := make(chan RoomRef, 4)
	var connCount atomic.Int32
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {
		n := connCount.Add(1)
		for {
			var f frame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			if f.Event == EventJoinRoom {
				var ref RoomRef
				json.Unmarshal(f.Data, &ref)
				joins <- ref
				if n == 1 {
					// Drop the first connection to force a reconnect.
					return
				}
			}
		}
	})

	conn, err := DialSocket(cfg, nil)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	defer conn.Close()

	ref := RoomRef{MatchID: "m1"}
	if err := conn.JoinRoom(ref); err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}

	for i := 1; i <= 2; i++ {
		select {
		case got := <-joins:
			if got != ref {
				t.Errorf("Join %d = %+v, want %+v", i, got, ref)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("Timed out waiting for join %d", i)
		}
	}
}

func TestEmitAfterClose(t *testing.T) {
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})
	conn, err := DialSocket(cfg, nil)
	if err != nil {
		t.Fatalf("DialSocket: %v", err)
	}
	conn.Close()
	conn.Close() // idempotent

	// Repeated a few times: the outbound buffer stays open after
	// teardown, so a single attempt could get lucky.
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		if err := conn.Emit(EventMatchChat, ChatMessage{RoomID: "m1", Message: "hi"}); !errors.Is(err, ErrNotConnected) {
			t.Fatalf("Emit after close = %v, want ErrNotConnected", err)
		}
		if _, err := conn.EmitWithAck(ctx, EventRecordBall, struct{}{}); !errors.Is(err, ErrNotConnected) {
			t.Fatalf("EmitWithAck after close = %v, want ErrNotConnected", err)
		}
	}
}

func TestConnManager(t *testing.T) {
	var dials atomic.Int32
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	})

	m := NewConnManager(cfg, nil)
	m.dialFunc = func(cfg *Config, tokens TokenSource) (*Conn, error) {
		dials.Add(1)
		return DialSocket(cfg, tokens)
	}

	c1, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	c2, err := m.Acquire()
	if err != nil {
		t.Fatalf("Second Acquire: %v", err)
	}
	if c1 != c2 {
		t.Error("Two acquires should share one connection")
	}
	if n := dials.Load(); n != 1 {
		t.Errorf("Dials = %d, want 1", n)
	}

	m.Release()
	if c1.isClosed() {
		t.Error("Connection closed while a reference remains")
	}
	m.Release()
	if !c1.isClosed() {
		t.Error("Last release should close the connection")
	}
	m.Release() // extra release is a no-op

	// A fresh acquire after teardown dials again.
	c3, err := m.Acquire()
	if err != nil {
		t.Fatalf("Acquire after teardown: %v", err)
	}
	defer m.Release()
	if c3 == c1 || dials.Load() != 2 {
		t.Errorf("Acquire after teardown: conn reused=%v dials=%d", c3 == c1, dials.Load())
	}
}

func TestDialSocketExpiredToken(t *testing.T) {
	_, cfg := newSocketServer(t, func(ws *websocket.Conn) {})
	expired := signedToken(t, map[string]any{"exp": time.Now().Add(-time.Hour).Unix()})
	if _, err := DialSocket(cfg, StaticToken(expired)); err == nil {
		t.Error("DialSocket with an expired token should fail without dialing")
	}
}
