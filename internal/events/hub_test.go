package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHubDeliversEvents(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome map[string]string
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("reading welcome: %v", err)
	}
	if welcome["type"] != "connected" || welcome["id"] == "" {
		t.Fatalf("unexpected welcome %v", welcome)
	}
	if hub.Connected() != 1 {
		t.Errorf("expected 1 connected client, got %d", hub.Connected())
	}

	if err := hub.Publish(ctx, Event{ID: "e1", Type: BidAccepted, ItemID: 7, Amount: 500_000}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading event: %v", err)
	}
	var got Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decoding event: %v", err)
	}
	if got.Type != BidAccepted || got.ItemID != 7 || got.Amount != 500_000 {
		t.Errorf("unexpected event %+v", got)
	}
}

func TestHubPublishWithoutRunDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	done := make(chan struct{})
	go func() {
		for i := 0; i < sendBuffer+10; i++ {
			hub.Publish(context.Background(), Event{Type: BidAccepted})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked with a full backlog")
	}
}
