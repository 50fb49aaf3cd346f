// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package preview

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestPublishReachesOnlyOwnUser(t *testing.T) {
	bus := NewEventBus()
	alice, bob := uuid.New(), uuid.New()

	ca, cancelA := bus.Subscribe(alice)
	defer cancelA()
	cb, cancelB := bus.Subscribe(bob)
	defer cancelB()

	bus.Publish(alice, Event{Type: ContentChanged, Key: "link-1"})

	select {
	case msg := <-ca:
		if string(msg) != `{"type":"content.changed","key":"link-1"}` {
			t.Errorf("message: got %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("alice did not receive the event")
	}
	select {
	case msg := <-cb:
		t.Errorf("bob received %s", msg)
	default:
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	bus := NewEventBus()
	id := uuid.New()
	ch, cancel := bus.Subscribe(id)
	defer cancel()

	for i := 0; i < cap(ch)+5; i++ {
		bus.Publish(id, Event{Type: ContentChanged})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered: got %d, want %d", len(ch), cap(ch))
	}
}

func TestCancelRemovesSubscriber(t *testing.T) {
	bus := NewEventBus()
	id := uuid.New()
	_, cancel := bus.Subscribe(id)
	if n := bus.Subscribers(id); n != 1 {
		t.Fatalf("subscribers: got %d, want 1", n)
	}
	cancel()
	cancel()
	if n := bus.Subscribers(id); n != 0 {
		t.Errorf("subscribers after cancel: got %d, want 0", n)
	}
	bus.Publish(id, Event{Type: ContentChanged})
}

func TestServeSSE(t *testing.T) {
	bus := NewEventBus()
	id := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bus.ServeSSE(w, r, id)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type: got %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil || line != ": connected\n" {
		t.Fatalf("first line: got %q, %v", line, err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for bus.Subscribers(id) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	bus.Publish(id, Event{Type: ProfileChanged})

	for {
		line, err = r.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.HasPrefix(line, "data: ") {
			break
		}
	}
	if want := `data: {"type":"profile.changed"}` + "\n"; line != want {
		t.Errorf("event line: got %q, want %q", line, want)
	}
}
