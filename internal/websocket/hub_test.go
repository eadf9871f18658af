// OreWatch - Anti X-Ray Mining Heuristics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/orewatch

package websocket

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/orewatch/internal/heuristics"
	"github.com/tomtom215/orewatch/internal/logging"
)

//nolint:gochecknoinits // init keeps test output quiet
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// startHub runs a hub behind an httptest server and returns its ws URL.
func startHub(t *testing.T) (*Hub, string, context.CancelFunc) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		cancel()
		<-done
		srv.Close()
	})

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http"), cancel
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg rawMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return msg
}

type rawMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func TestHub_BroadcastSignal(t *testing.T) {
	hub, url, _ := startHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	hub.BroadcastSignal(heuristics.Signal{
		Player:    "Steve",
		Suspicion: 104.5,
		Threshold: 100,
		Material:  "diamond_ore",
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	})

	msg := readMessage(t, conn)
	if msg.Type != MessageTypeEnforcement {
		t.Fatalf("Type = %q, want %q", msg.Type, MessageTypeEnforcement)
	}
	var sig heuristics.Signal
	if err := json.Unmarshal(msg.Data, &sig); err != nil {
		t.Fatalf("unmarshal signal: %v", err)
	}
	if sig.Player != "Steve" || sig.Suspicion != 104.5 {
		t.Errorf("signal = %+v", sig)
	}
}

func TestHub_PingPong(t *testing.T) {
	hub, url, _ := startHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	if err := conn.WriteJSON(Message{Type: MessageTypePing}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != MessageTypePong {
		t.Errorf("Type = %q, want pong", msg.Type)
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, url, _ := startHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	_ = conn.Close()
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, url, cancel := startHub(t)

	conn := dial(t, url)
	waitFor(t, func() bool { return hub.GetClientCount() == 1 })

	cancel()
	waitFor(t, func() bool { return hub.GetClientCount() == 0 })

	if err := conn.SetReadDeadline(time.Now().Add(5 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline() error = %v", err)
	}
	_, _, err := conn.ReadMessage()
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		t.Errorf("ReadMessage() error = %v, want close frame", err)
	}
}

func TestHub_RunReturnsContextError(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := hub.RunWithContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RunWithContext() error = %v, want deadline exceeded", err)
	}
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.BroadcastJSON(MessageTypeEnforcement, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("BroadcastJSON blocked with no running hub")
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	hub.Register(slow)

	hub.broadcastToClients(Message{Type: MessageTypeEnforcement})
	hub.broadcastToClients(Message{Type: MessageTypeEnforcement})

	if got := hub.GetClientCount(); got != 0 {
		t.Errorf("GetClientCount() = %d, want 0 after overflow", got)
	}
	if _, ok := <-slow.send; !ok {
		t.Fatal("first message missing")
	}
	if _, ok := <-slow.send; ok {
		t.Error("send channel not closed")
	}
}
