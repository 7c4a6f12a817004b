package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

const maxWebsiteBody = 4 << 20 // 4 MiB

// WebsiteSource polls a page and emits lines that were not present on
// the previous poll. The first poll establishes the baseline without
// emitting, so restarting does not replay the whole page.
type WebsiteSource struct {
	url      string
	interval time.Duration
	client   *http.Client
	log      zerolog.Logger

	seen map[string]bool
}

// NewWebsiteSource creates a source polling url every interval.
func NewWebsiteSource(url string, interval time.Duration, log zerolog.Logger) *WebsiteSource {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &WebsiteSource{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log.With().Str("component", "website").Str("url", url).Logger(),
	}
}

// Name implements Source.
func (s *WebsiteSource) Name() string {
	return "website:" + s.url
}

// Run implements Source.
func (s *WebsiteSource) Run(ctx context.Context, out chan<- TextEvent) error {
	if err := s.poll(ctx, out); err != nil {
		s.log.Warn().Err(err).Msg("initial poll failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.poll(ctx, out); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Warn().Err(err).Msg("poll failed")
			}
		}
	}
}

func (s *WebsiteSource) poll(ctx context.Context, out chan<- TextEvent) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebsiteBody))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	fresh := s.diff(string(body))
	if len(fresh) == 0 {
		return nil
	}

	event := TextEvent{
		Platform: domain.PlatformWebsite,
		Source:   s.url,
		Text:     strings.Join(fresh, "\n"),
		SeenAt:   time.Now().UTC(),
	}
	select {
	case out <- event:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// diff returns lines not seen before and records them. The first call
// only records.
func (s *WebsiteSource) diff(body string) []string {
	baseline := s.seen == nil
	if baseline {
		s.seen = make(map[string]bool)
	}

	var fresh []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || s.seen[line] {
			continue
		}
		s.seen[line] = true
		if !baseline {
			fresh = append(fresh, line)
		}
	}
	return fresh
}
