package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// logsServer answers one logsSubscribe and then calls handle with the
// established connection.
func logsServer(t *testing.T, subID int64, handle func(c *websocket.Conn)) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Method != "logsSubscribe" {
			t.Errorf("expected logsSubscribe, got %s", req.Method)
		}

		if err := c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: subID}); err != nil {
			return
		}

		if handle != nil {
			handle(c)
		}
	}))
}

func notification(subID int64, signature string, slot int64, logs []string) wsNotification {
	return wsNotification{
		JSONRPC: "2.0",
		Method:  "logsNotification",
		Params: &wsNotificationParams{
			Subscription: subID,
			Result: wsNotificationResult{
				Context: &wsContext{Slot: slot},
				Value:   wsLogsValue{Signature: signature, Logs: logs},
			},
		},
	}
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestLogStreamReceivesNotifications(t *testing.T) {
	server := logsServer(t, 7, func(c *websocket.Conn) {
		c.WriteJSON(notification(7, "sig1", 100, []string{"Program log: hello"}))
		c.WriteJSON(notification(7, "sig2", 101, []string{"Program log: world"}))

		// Hold the connection open until the client closes it.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	stream, err := NewLogStream(context.Background(), wsURL(server), LogsFilter{Mentions: []string{"Mint1"}}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogStream: %v", err)
	}
	defer stream.Close()

	first := <-stream.Events()
	if first.Signature != "sig1" || first.Slot != 100 {
		t.Errorf("unexpected first event: %+v", first)
	}
	second := <-stream.Events()
	if second.Signature != "sig2" {
		t.Errorf("unexpected second event: %+v", second)
	}
}

func TestLogStreamIgnoresOtherSubscriptions(t *testing.T) {
	server := logsServer(t, 7, func(c *websocket.Conn) {
		c.WriteJSON(notification(99, "other", 50, nil))
		c.WriteJSON(notification(7, "mine", 51, nil))
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	stream, err := NewLogStream(context.Background(), wsURL(server), LogsFilter{}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogStream: %v", err)
	}
	defer stream.Close()

	event := <-stream.Events()
	if event.Signature != "mine" {
		t.Errorf("expected event from own subscription, got %q", event.Signature)
	}
}

func TestLogStreamReconnects(t *testing.T) {
	var connCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		_, msg, err := c.ReadMessage()
		if err != nil {
			c.Close()
			return
		}
		var req wsRequest
		json.Unmarshal(msg, &req)
		c.WriteJSON(wsSubscribeResponse{JSONRPC: "2.0", ID: req.ID, Result: 5})

		// First connection drops right after confirming; later
		// connections deliver an event and stay up.
		if connCount.Add(1) == 1 {
			c.Close()
			return
		}
		c.WriteJSON(notification(5, "after-reconnect", 200, nil))
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	cfg := DefaultLogStreamConfig()
	cfg.ReconnectDelay = 10 * time.Millisecond

	stream, err := NewLogStream(context.Background(), wsURL(server), LogsFilter{}, &cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogStream: %v", err)
	}
	defer stream.Close()

	select {
	case event := <-stream.Events():
		if event.Signature != "after-reconnect" {
			t.Errorf("unexpected event: %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event after reconnect")
	}
}

func TestLogStreamClose(t *testing.T) {
	server := logsServer(t, 3, func(c *websocket.Conn) {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	stream, err := NewLogStream(context.Background(), wsURL(server), LogsFilter{}, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewLogStream: %v", err)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := stream.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, ok := <-stream.Events(); ok {
		t.Error("events channel should be closed")
	}
}
