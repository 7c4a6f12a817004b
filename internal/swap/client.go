package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://lite-api.jup.ag/swap/v1"
	DefaultTimeout     = 10 * time.Second
	DefaultSlippageBps = 100
)

// LamportsPerSOL is the lamport denomination of one SOL.
const LamportsPerSOL = 1_000_000_000

// SolToLamports converts a SOL amount to lamports, rounding down.
func SolToLamports(sol float64) uint64 {
	if sol <= 0 {
		return 0
	}
	return uint64(math.Floor(sol * LamportsPerSOL))
}

// LamportsToSol converts lamports to a SOL amount.
func LamportsToSol(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSOL
}

// Client talks to the Jupiter aggregator HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithAPIKey sets the key sent on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a Jupiter API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QuoteParams describes the swap to price.
type QuoteParams struct {
	InputMint       string
	OutputMint      string
	AmountLamports  uint64
	SlippageBps     int
	SwapMode        string // ExactIn (default) or ExactOut
	OnlyDirectRoute bool
}

// Quote is a priced route. Raw keeps the untouched response body:
// the swap endpoint requires the quote exactly as it was returned.
type Quote struct {
	InputMint      string
	OutputMint     string
	InAmount       uint64
	OutAmount      uint64
	OtherThreshold uint64
	PriceImpactPct float64
	Raw            json.RawMessage
}

// quoteResponse is the wire shape of a Jupiter quote.
type quoteResponse struct {
	InputMint            string `json:"inputMint"`
	InAmount             string `json:"inAmount"`
	OutputMint           string `json:"outputMint"`
	OutAmount            string `json:"outAmount"`
	OtherAmountThreshold string `json:"otherAmountThreshold"`
	PriceImpactPct       string `json:"priceImpactPct"`
	ErrorMessage         string `json:"error"`
}

// GetQuote prices a swap. A missing route is returned as KindNoRoute.
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*Quote, error) {
	if p.SlippageBps <= 0 {
		p.SlippageBps = DefaultSlippageBps
	}

	q := url.Values{}
	q.Set("inputMint", p.InputMint)
	q.Set("outputMint", p.OutputMint)
	q.Set("amount", strconv.FormatUint(p.AmountLamports, 10))
	q.Set("slippageBps", strconv.Itoa(p.SlippageBps))
	if p.SwapMode != "" {
		q.Set("swapMode", p.SwapMode)
	}
	if p.OnlyDirectRoute {
		q.Set("onlyDirectRoutes", "true")
	}

	body, err := c.get(ctx, "/quote?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewError(KindUnknown, "decode quote response", err)
	}
	if resp.ErrorMessage != "" {
		return nil, Classify(resp.ErrorMessage, nil)
	}
	if resp.OutAmount == "" {
		return nil, NewError(KindNoRoute, fmt.Sprintf("no route for %s -> %s", p.InputMint, p.OutputMint), nil)
	}

	quote := &Quote{
		InputMint:  resp.InputMint,
		OutputMint: resp.OutputMint,
		Raw:        body,
	}
	if quote.InAmount, err = strconv.ParseUint(resp.InAmount, 10, 64); err != nil {
		return nil, NewError(KindUnknown, "parse inAmount "+resp.InAmount, err)
	}
	if quote.OutAmount, err = strconv.ParseUint(resp.OutAmount, 10, 64); err != nil {
		return nil, NewError(KindUnknown, "parse outAmount "+resp.OutAmount, err)
	}
	if resp.OtherAmountThreshold != "" {
		quote.OtherThreshold, _ = strconv.ParseUint(resp.OtherAmountThreshold, 10, 64)
	}
	if resp.PriceImpactPct != "" {
		if quote.PriceImpactPct, err = strconv.ParseFloat(resp.PriceImpactPct, 64); err != nil {
			return nil, NewError(KindUnknown, "parse priceImpactPct "+resp.PriceImpactPct, err)
		}
	}
	return quote, nil
}

// swapRequest is the wire shape of a swap build request.
type swapRequest struct {
	QuoteResponse             json.RawMessage `json:"quoteResponse"`
	UserPublicKey             string          `json:"userPublicKey"`
	WrapAndUnwrapSol          bool            `json:"wrapAndUnwrapSol"`
	DynamicComputeUnitLimit   bool            `json:"dynamicComputeUnitLimit"`
	PrioritizationFeeLamports uint64          `json:"prioritizationFeeLamports,omitempty"`
}

// swapResponse is the wire shape of a swap build response.
type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
	ErrorMessage    string `json:"error"`
}

// BuildSwap exchanges a quote for an unsigned base64 transaction.
func (c *Client) BuildSwap(ctx context.Context, quote *Quote, userPubkey string, priorityFeeLamports uint64) (string, error) {
	reqBody, err := json.Marshal(swapRequest{
		QuoteResponse:             quote.Raw,
		UserPublicKey:             userPubkey,
		WrapAndUnwrapSol:          true,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: priorityFeeLamports,
	})
	if err != nil {
		return "", NewError(KindUnknown, "marshal swap request", err)
	}

	body, err := c.post(ctx, "/swap", reqBody)
	if err != nil {
		return "", err
	}

	var resp swapResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", NewError(KindUnknown, "decode swap response", err)
	}
	if resp.ErrorMessage != "" {
		return "", Classify(resp.ErrorMessage, nil)
	}
	if resp.SwapTransaction == "" {
		return "", NewError(KindUnknown, "swap response missing transaction", nil)
	}
	return resp.SwapTransaction, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, NewError(KindUnknown, "create request", err)
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, NewError(KindUnknown, "create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewError(KindNetwork, "http request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewError(KindNetwork, "read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewError(KindRateLimited, "rate limited (429)", nil)
	case resp.StatusCode >= 500:
		return nil, NewError(KindNetwork, fmt.Sprintf("upstream status %d", resp.StatusCode), nil)
	default:
		return nil, Classify(fmt.Sprintf("status %d: %s", resp.StatusCode, body), nil)
	}
}
