package monitor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
	"solana-sniper/internal/solana"
)

// ChainLogSource streams program logs from a Solana WebSocket endpoint
// and forwards them as text signals. Useful for feeds that announce
// launches on chain before any social post lands.
type ChainLogSource struct {
	endpoint string
	filter   solana.LogsFilter
	config   *solana.LogStreamConfig
	log      zerolog.Logger
}

// NewChainLogSource creates a source subscribed to logs mentioning the
// given addresses.
func NewChainLogSource(endpoint string, mentions []string, config *solana.LogStreamConfig, log zerolog.Logger) *ChainLogSource {
	return &ChainLogSource{
		endpoint: endpoint,
		filter:   solana.LogsFilter{Mentions: mentions},
		config:   config,
		log:      log.With().Str("component", "chainlogs").Logger(),
	}
}

// Name implements Source.
func (s *ChainLogSource) Name() string {
	return "chainlogs:" + s.endpoint
}

// Run implements Source.
func (s *ChainLogSource) Run(ctx context.Context, out chan<- TextEvent) error {
	stream, err := solana.NewLogStream(ctx, s.endpoint, s.filter, s.config, s.log)
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-stream.Events():
			if !ok {
				return nil
			}
			// Failed transactions carry no tradable signal.
			if notif.Err != nil || len(notif.Logs) == 0 {
				continue
			}
			event := TextEvent{
				Platform: domain.PlatformWebsocket,
				Source:   s.endpoint,
				Text:     strings.Join(notif.Logs, "\n"),
				SeenAt:   time.Now().UTC(),
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
