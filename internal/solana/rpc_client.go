package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// LamportsPerSOL is the lamport denomination of one SOL.
const LamportsPerSOL = 1_000_000_000

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if rpcResp.Error != nil {
			// RPC errors are not retried
			return rpcResp.Error
		}

		if result != nil && rpcResp.Result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// contextValue is the {context, value} envelope most account queries
// return.
type contextValue[T any] struct {
	Value T `json:"value"`
}

// GetBalance returns an account's balance in lamports.
func (c *HTTPClient) GetBalance(ctx context.Context, pubkey string) (uint64, error) {
	var result contextValue[uint64]
	if err := c.call(ctx, "getBalance", []interface{}{pubkey}, &result); err != nil {
		return 0, err
	}
	return result.Value, nil
}

// Balance returns an account's balance in SOL. It adapts GetBalance to
// the funding pool's balance source.
func (c *HTTPClient) Balance(ctx context.Context, pubkey string) (float64, error) {
	lamports, err := c.GetBalance(ctx, pubkey)
	if err != nil {
		return 0, err
	}
	return float64(lamports) / LamportsPerSOL, nil
}

// SendTransaction submits a signed base64 transaction.
func (c *HTTPClient) SendTransaction(ctx context.Context, signedTxBase64 string, opts *SendOptions) (string, error) {
	config := map[string]interface{}{
		"encoding": "base64",
	}
	if opts != nil {
		if opts.SkipPreflight {
			config["skipPreflight"] = true
		}
		if opts.MaxRetries != nil {
			config["maxRetries"] = *opts.MaxRetries
		}
	}

	var signature string
	if err := c.call(ctx, "sendTransaction", []interface{}{signedTxBase64, config}, &signature); err != nil {
		return "", err
	}
	return signature, nil
}

// GetSignatureStatuses returns confirmation state for signatures.
func (c *HTTPClient) GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error) {
	params := []interface{}{
		signatures,
		map[string]interface{}{"searchTransactionHistory": true},
	}

	var result contextValue[[]*signatureStatusResult]
	if err := c.call(ctx, "getSignatureStatuses", params, &result); err != nil {
		return nil, err
	}

	statuses := make([]*SignatureStatus, len(result.Value))
	for i, r := range result.Value {
		if r == nil {
			continue
		}
		statuses[i] = &SignatureStatus{
			Slot:               r.Slot,
			Confirmations:      r.Confirmations,
			ConfirmationStatus: r.ConfirmationStatus,
			Err:                r.Err,
		}
	}
	return statuses, nil
}

// signatureStatusResult is the raw RPC response item for
// getSignatureStatuses.
type signatureStatusResult struct {
	Slot               int64       `json:"slot"`
	Confirmations      *int        `json:"confirmations"`
	ConfirmationStatus string      `json:"confirmationStatus"`
	Err                interface{} `json:"err"`
}

// GetSlot retrieves the current slot.
func (c *HTTPClient) GetSlot(ctx context.Context) (int64, error) {
	var result int64
	if err := c.call(ctx, "getSlot", nil, &result); err != nil {
		return 0, err
	}
	return result, nil
}

// TokenAccountCount counts token accounts for a mint via a filtered
// program account scan. The data slice keeps the response to account
// keys only; large mints still cost one heavy RPC call.
func (c *HTTPClient) TokenAccountCount(ctx context.Context, mint string) (int, error) {
	params := []interface{}{
		TokenProgramID,
		map[string]interface{}{
			"encoding": "base64",
			"filters": []interface{}{
				map[string]interface{}{"dataSize": tokenAccountDataSize},
				map[string]interface{}{
					"memcmp": map[string]interface{}{
						"offset": mintFieldOffset,
						"bytes":  mint,
					},
				},
			},
			"dataSlice": map[string]interface{}{"offset": 0, "length": 0},
		},
	}

	var result []json.RawMessage
	if err := c.call(ctx, "getProgramAccounts", params, &result); err != nil {
		return 0, err
	}
	return len(result), nil
}
