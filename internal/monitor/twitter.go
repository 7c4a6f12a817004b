package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

const maxTwitterBody = 1 << 20

// TwitterSource polls the tweets of a fixed set of accounts through
// the Twitter API v2. The first poll per account is a baseline; only
// tweets newer than it are emitted. Retweets are excluded.
type TwitterSource struct {
	baseURL  string
	token    string
	handles  []string
	interval time.Duration
	client   *http.Client
	log      zerolog.Logger

	userIDs map[string]string // handle -> user id
	lastID  map[string]string // user id -> newest seen tweet id
}

// NewTwitterSource creates a source watching the given handles (without
// the @) every interval.
func NewTwitterSource(token string, handles []string, interval time.Duration, log zerolog.Logger) *TwitterSource {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &TwitterSource{
		baseURL:  "https://api.twitter.com",
		token:    token,
		handles:  handles,
		interval: interval,
		client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "twitter_monitor").Logger(),
		lastID:   make(map[string]string),
	}
}

// Name implements Source.
func (s *TwitterSource) Name() string { return "twitter" }

// Run implements Source. It resolves the handles to user IDs once,
// then polls each user until ctx is cancelled.
func (s *TwitterSource) Run(ctx context.Context, out chan<- TextEvent) error {
	if err := s.resolveUsers(ctx); err != nil {
		return fmt.Errorf("resolve twitter users: %w", err)
	}
	s.log.Info().Int("users", len(s.userIDs)).Msg("twitter monitor started")

	s.pollAll(ctx, out)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.pollAll(ctx, out)
		}
	}
}

type twitterUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type tweet struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (s *TwitterSource) resolveUsers(ctx context.Context) error {
	var payload struct {
		Data []twitterUser `json:"data"`
	}
	endpoint := s.baseURL + "/2/users/by?usernames=" + url.QueryEscape(strings.Join(s.handles, ","))
	if err := s.get(ctx, endpoint, &payload); err != nil {
		return err
	}
	s.userIDs = make(map[string]string, len(payload.Data))
	for _, u := range payload.Data {
		s.userIDs[u.Username] = u.ID
	}
	if len(s.userIDs) == 0 {
		return fmt.Errorf("none of %d handles resolved", len(s.handles))
	}
	return nil
}

func (s *TwitterSource) pollAll(ctx context.Context, out chan<- TextEvent) {
	for handle, id := range s.userIDs {
		if ctx.Err() != nil {
			return
		}
		if err := s.pollUser(ctx, handle, id, out); err != nil {
			s.log.Warn().Err(err).Str("handle", handle).Msg("poll failed")
		}
	}
}

func (s *TwitterSource) pollUser(ctx context.Context, handle, id string, out chan<- TextEvent) error {
	q := url.Values{}
	q.Set("max_results", "10")
	q.Set("exclude", "retweets")
	last, seeded := s.lastID[id]
	if seeded {
		q.Set("since_id", last)
	}

	var payload struct {
		Data []tweet `json:"data"`
		Meta struct {
			NewestID string `json:"newest_id"`
		} `json:"meta"`
	}
	endpoint := s.baseURL + "/2/users/" + id + "/tweets?" + q.Encode()
	if err := s.get(ctx, endpoint, &payload); err != nil {
		return err
	}
	if payload.Meta.NewestID != "" {
		s.lastID[id] = payload.Meta.NewestID
	} else if !seeded {
		// No tweets at all; remember that the baseline was taken.
		s.lastID[id] = "1"
	}
	if !seeded {
		// Everything before the first poll is history, not a signal.
		return nil
	}

	// The API returns newest first; deliver in posting order.
	for i := len(payload.Data) - 1; i >= 0; i-- {
		tw := payload.Data[i]
		if tw.Text == "" {
			continue
		}
		event := TextEvent{
			Platform: domain.PlatformTwitter,
			Source:   "@" + handle,
			Text:     tw.Text,
			SeenAt:   time.Now(),
		}
		select {
		case out <- event:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *TwitterSource) get(ctx context.Context, endpoint string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTwitterBody))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, v)
}
