package chain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestWSClient_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	client, err := NewWSClient(context.Background(), wsURL, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	if client.closed.Load() {
		t.Error("client should not be closed")
	}
}

func TestWSClient_SubscribeSignature(t *testing.T) {
	var sig solana.Signature
	sig[0] = 42

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
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
		if req.Method != "signatureSubscribe" {
			t.Errorf("expected signatureSubscribe, got %s", req.Method)
		}
		if req.Params[0] != sig.String() {
			t.Errorf("expected signature %s, got %v", sig, req.Params[0])
		}

		// Subscription id 0 is valid and must still be accepted.
		c.WriteJSON(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": 0})

		c.WriteJSON(map[string]interface{}{
			"jsonrpc": "2.0",
			"method":  "signatureNotification",
			"params": map[string]interface{}{
				"subscription": 0,
				"result": map[string]interface{}{
					"context": map[string]interface{}{"slot": 777},
					"value":   map[string]interface{}{"err": nil},
				},
			},
		})

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := NewWSClient(context.Background(), wsURL, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch, err := client.SubscribeSignature(ctx, sig)
	if err != nil {
		t.Fatalf("SubscribeSignature: %v", err)
	}

	select {
	case n, ok := <-ch:
		if !ok {
			t.Fatal("channel closed without notification")
		}
		if n.Slot != 777 {
			t.Errorf("expected slot 777, got %d", n.Slot)
		}
		if n.Failed() {
			t.Errorf("expected success, got err %v", n.Err)
		}
		if n.Signature != sig {
			t.Errorf("expected signature %s, got %s", sig, n.Signature)
		}
	case <-ctx.Done():
		t.Fatal("timeout waiting for notification")
	}
}

func TestWSClient_CloseTwice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	client, err := NewWSClient(context.Background(), wsURL, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewWSClient: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("first close: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}

	if _, err := client.SubscribeSignature(context.Background(), solana.Signature{}); err == nil {
		t.Error("expected error subscribing on closed client")
	}
}
