package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

// twitterAPI fakes the two v2 endpoints the source uses.
type twitterAPI struct {
	mu     sync.Mutex
	tweets []tweet // newest first
	auths  []string
}

func (a *twitterAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.auths = append(a.auths, r.Header.Get("Authorization"))

		switch {
		case r.URL.Path == "/2/users/by":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []twitterUser{{ID: "9001", Username: "alpha_caller"}},
			})
		case r.URL.Path == "/2/users/9001/tweets":
			since := r.URL.Query().Get("since_id")
			var fresh []tweet
			for _, tw := range a.tweets {
				if since == "" || tw.ID > since {
					fresh = append(fresh, tw)
				}
			}
			resp := map[string]interface{}{}
			if len(fresh) > 0 {
				resp["data"] = fresh
				resp["meta"] = map[string]string{"newest_id": fresh[0].ID}
			}
			json.NewEncoder(w).Encode(resp)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (a *twitterAPI) post(id, text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tweets = append([]tweet{{ID: id, Text: text}}, a.tweets...)
}

func TestTwitterSourceEmitsNewTweetsOnly(t *testing.T) {
	api := &twitterAPI{tweets: []tweet{{ID: "100", Text: "old call"}}}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	src := NewTwitterSource("test-token", []string{"alpha_caller"}, 10*time.Millisecond, zerolog.Nop())
	src.baseURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan TextEvent, 8)
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, out) }()

	// The baseline poll sees the existing tweet and must stay silent.
	select {
	case event := <-out:
		t.Fatalf("unexpected event from baseline poll: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}

	api.post("101", "new call ca: SomeMint")

	select {
	case event := <-out:
		if event.Platform != domain.PlatformTwitter {
			t.Errorf("platform = %s, want %s", event.Platform, domain.PlatformTwitter)
		}
		if event.Source != "@alpha_caller" {
			t.Errorf("source = %s, want @alpha_caller", event.Source)
		}
		if event.Text != "new call ca: SomeMint" {
			t.Errorf("text = %q", event.Text)
		}
		if event.SeenAt.IsZero() {
			t.Error("SeenAt not set")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tweet event")
	}

	// The same tweet must not be delivered twice.
	select {
	case event := <-out:
		t.Fatalf("duplicate delivery: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}

	api.mu.Lock()
	defer api.mu.Unlock()
	for _, auth := range api.auths {
		if auth != "Bearer test-token" {
			t.Fatalf("auth header = %q", auth)
		}
	}
}

func TestTwitterSourceDeliversInPostingOrder(t *testing.T) {
	api := &twitterAPI{}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	src := NewTwitterSource("tok", []string{"alpha_caller"}, 10*time.Millisecond, zerolog.Nop())
	src.baseURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan TextEvent, 8)
	go func() { src.Run(ctx, out) }()

	time.Sleep(30 * time.Millisecond) // past the empty baseline
	api.post("201", "first")
	api.post("202", "second")

	for _, want := range []string{"first", "second"} {
		select {
		case event := <-out:
			if event.Text != want {
				t.Fatalf("text = %q, want %q", event.Text, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestTwitterSourceResolveFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	src := NewTwitterSource("bad-token", []string{"alpha_caller"}, time.Minute, zerolog.Nop())
	src.baseURL = server.URL

	err := src.Run(context.Background(), make(chan TextEvent, 1))
	if err == nil {
		t.Fatal("expected an error for an unauthorized token")
	}
	if !strings.Contains(err.Error(), "resolve twitter users") {
		t.Errorf("err = %v, want a resolve failure", err)
	}
}
