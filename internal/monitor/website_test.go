package monitor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

func TestWebsiteSourceEmitsNewLinesOnly(t *testing.T) {
	var mu sync.Mutex
	body := "header\ncall one\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.Write([]byte(body))
	}))
	defer server.Close()

	src := NewWebsiteSource(server.URL, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan TextEvent, 8)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, out) }()

	// Baseline poll must not emit.
	select {
	case event := <-out:
		t.Fatalf("unexpected event from baseline poll: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}

	mu.Lock()
	body = "header\ncall one\ncall two ca: SomeMint\n"
	mu.Unlock()

	select {
	case event := <-out:
		if event.Platform != domain.PlatformWebsite {
			t.Errorf("platform = %s, want %s", event.Platform, domain.PlatformWebsite)
		}
		if event.Source != server.URL {
			t.Errorf("source = %s, want %s", event.Source, server.URL)
		}
		if !strings.Contains(event.Text, "call two") || strings.Contains(event.Text, "call one") {
			t.Errorf("unexpected diff text: %q", event.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for diff event")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestWebsiteSourceSurvivesServerErrors(t *testing.T) {
	var mu sync.Mutex
	failing := true
	body := "fresh line\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(body))
	}))
	defer server.Close()

	src := NewWebsiteSource(server.URL, 10*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan TextEvent, 8)
	go src.Run(ctx, out)

	// Let a few failing polls pass, then recover. The first good poll
	// is the baseline and must not emit.
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	failing = false
	mu.Unlock()
	time.Sleep(50 * time.Millisecond)

	select {
	case event := <-out:
		t.Fatalf("baseline after recovery must not emit, got %+v", event)
	default:
	}

	mu.Lock()
	body = "fresh line\nnew call\n"
	mu.Unlock()

	select {
	case event := <-out:
		if !strings.Contains(event.Text, "new call") {
			t.Errorf("unexpected diff text: %q", event.Text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event after recovery")
	}
}

func TestWebsiteSourceDiff(t *testing.T) {
	src := NewWebsiteSource("http://example.invalid", time.Second, zerolog.Nop())

	if fresh := src.diff("a\nb\n"); fresh != nil {
		t.Fatalf("baseline diff must be empty, got %v", fresh)
	}
	if fresh := src.diff("a\nb\n"); fresh != nil {
		t.Fatalf("unchanged page must diff empty, got %v", fresh)
	}

	fresh := src.diff("a\nb\nc\n  \nd\n")
	if len(fresh) != 2 || fresh[0] != "c" || fresh[1] != "d" {
		t.Fatalf("diff = %v, want [c d]", fresh)
	}

	if fresh := src.diff("c\nd\n"); fresh != nil {
		t.Fatalf("already seen lines must not repeat, got %v", fresh)
	}
}
