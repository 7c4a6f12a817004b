package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// LogsFilter selects which program logs the stream receives.
type LogsFilter struct {
	// Mentions filters logs that mention any of these addresses.
	// Empty subscribes to all logs.
	Mentions []string
}

// LogNotification is one logsNotification message.
type LogNotification struct {
	Signature string
	Slot      int64
	Logs      []string
	Err       interface{}
}

// LogStreamConfig configures LogStream behavior.
type LogStreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is the interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is the timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is the timeout for writing messages.
	WriteTimeout time.Duration
	// Buffer is the event channel capacity.
	Buffer int
}

// DefaultLogStreamConfig returns default stream configuration.
func DefaultLogStreamConfig() LogStreamConfig {
	return LogStreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		Buffer:            1024,
	}
}

// LogStream holds one logsSubscribe subscription over a WebSocket
// endpoint and keeps it alive across connection drops. After a
// reconnect the same filter is subscribed again; events keep flowing
// on the channel returned by Events.
type LogStream struct {
	endpoint string
	filter   LogsFilter
	config   LogStreamConfig
	logger   zerolog.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64

	subID   atomic.Int64
	pending sync.Map // request ID -> chan int64

	events chan LogNotification
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewLogStream connects to the endpoint and subscribes with the filter.
func NewLogStream(ctx context.Context, endpoint string, filter LogsFilter, config *LogStreamConfig, logger zerolog.Logger) (*LogStream, error) {
	cfg := DefaultLogStreamConfig()
	if config != nil {
		cfg = *config
	}

	s := &LogStream{
		endpoint: endpoint,
		filter:   filter,
		config:   cfg,
		logger:   logger.With().Str("component", "logstream").Logger(),
		events:   make(chan LogNotification, cfg.Buffer),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	if err := s.subscribe(ctx); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

// Events returns the notification channel. It is closed by Close.
func (s *LogStream) Events() <-chan LogNotification {
	return s.events
}

// Close shuts the stream down and closes the event channel.
func (s *LogStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.events)
	return nil
}

func (s *LogStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.conn = conn
	return nil
}

// subscribe sends a logsSubscribe request and waits for its
// confirmation. The subscription ID is stored for dispatch.
func (s *LogStream) subscribe(ctx context.Context) error {
	reqID := s.requestID.Add(1)

	mentions := make(map[string]interface{})
	if len(s.filter.Mentions) > 0 {
		mentions["mentions"] = s.filter.Mentions
	} else {
		mentions["all"] = nil
	}

	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			mentions,
			map[string]string{"commitment": "confirmed"},
		},
	}

	confirmCh := make(chan int64, 1)
	s.pending.Store(reqID, confirmCh)
	defer s.pending.Delete(reqID)

	s.connMu.Lock()
	if s.conn == nil {
		s.connMu.Unlock()
		return fmt.Errorf("not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	err := s.conn.WriteJSON(req)
	s.connMu.Unlock()
	if err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	select {
	case subID := <-confirmCh:
		s.subID.Store(subID)
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("subscription timeout after 30s")
	case <-s.done:
		return fmt.Errorf("stream closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// readLoop reads messages and reconnects on failure with exponential
// backoff.
func (s *LogStream) readLoop() {
	defer s.wg.Done()

	delay := s.config.ReconnectDelay

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect(delay) {
				return
			}
			delay = delay * 2
			if delay > s.config.MaxReconnectDelay {
				delay = s.config.MaxReconnectDelay
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Warn().Err(err).Msg("websocket read failed, reconnecting")

			s.connMu.Lock()
			if s.conn != nil {
				s.conn.Close()
				s.conn = nil
			}
			s.connMu.Unlock()
			continue
		}

		delay = s.config.ReconnectDelay
		s.handleMessage(message)
	}
}

// reconnect dials the endpoint again and resubscribes. Returns false
// when the stream is shutting down.
func (s *LogStream) reconnect(delay time.Duration) bool {
	select {
	case <-s.done:
		return false
	case <-time.After(delay):
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.connect(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("reconnect failed")
		return true
	}

	if err := s.subscribe(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("resubscribe failed")
		s.connMu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.connMu.Unlock()
		return true
	}

	s.logger.Info().Msg("websocket reconnected")
	return true
}

func (s *LogStream) handleMessage(message []byte) {
	var resp wsSubscribeResponse
	if err := json.Unmarshal(message, &resp); err == nil && resp.Result > 0 && resp.ID > 0 {
		if ch, ok := s.pending.Load(resp.ID); ok {
			select {
			case ch.(chan int64) <- resp.Result:
			default:
			}
		}
		return
	}

	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err == nil && notif.Method == "logsNotification" {
		s.handleNotification(&notif)
		return
	}

	var errResp struct {
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(message, &errResp); err == nil && errResp.Error != nil {
		s.logger.Warn().
			Int("code", errResp.Error.Code).
			Str("message", errResp.Error.Message).
			Msg("websocket error response")
	}
}

func (s *LogStream) handleNotification(notif *wsNotification) {
	if notif.Params == nil || notif.Params.Subscription != s.subID.Load() {
		return
	}

	value := notif.Params.Result.Value
	event := LogNotification{
		Signature: value.Signature,
		Logs:      value.Logs,
		Err:       value.Err,
	}
	if notif.Params.Result.Context != nil {
		event.Slot = notif.Params.Result.Context.Slot
	}

	// Block rather than drop; the buffer absorbs bursts.
	select {
	case s.events <- event:
	case <-s.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *LogStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				// A dead connection surfaces in the read loop.
				s.conn.WriteMessage(websocket.PingMessage, nil)
			}
			s.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Result  int64  `json:"result"` // subscription ID
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
