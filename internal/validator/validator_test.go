package validator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-sniper/internal/domain"
)

const testMint = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"

var errUnavailable = errors.New("data source unavailable")

// stubMarket is a MarketData with canned values. A nil pointer means
// the lookup fails.
type stubMarket struct {
	liquidity *float64
	impact    *float64
	buyTax    *float64
	sellTax   *float64
	holders   *int
	sellable  *bool
	delay     time.Duration
}

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }
func b(v bool) *bool       { return &v }

func (m *stubMarket) wait(ctx context.Context) error {
	if m.delay == 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.delay):
		return nil
	}
}

func (m *stubMarket) Liquidity(ctx context.Context, mint string) (float64, error) {
	if err := m.wait(ctx); err != nil {
		return 0, err
	}
	if m.liquidity == nil {
		return 0, errUnavailable
	}
	return *m.liquidity, nil
}

func (m *stubMarket) PriceImpact(ctx context.Context, mint string, size float64) (float64, error) {
	if m.impact == nil {
		return 0, errUnavailable
	}
	return *m.impact, nil
}

func (m *stubMarket) Taxes(ctx context.Context, mint string) (float64, float64, error) {
	if m.buyTax == nil || m.sellTax == nil {
		return 0, 0, errUnavailable
	}
	return *m.buyTax, *m.sellTax, nil
}

func (m *stubMarket) HolderCount(ctx context.Context, mint string) (int, error) {
	if m.holders == nil {
		return 0, errUnavailable
	}
	return *m.holders, nil
}

func (m *stubMarket) SellQuote(ctx context.Context, mint string) (bool, error) {
	if m.sellable == nil {
		return false, errUnavailable
	}
	return *m.sellable, nil
}

func defaultThresholds() Thresholds {
	return Thresholds{
		MinLiquiditySOL:   10,
		MaxPriceImpactPct: 15,
		MaxBuyTaxPct:      10,
		MaxSellTaxPct:     10,
		MinHolders:        10,
		CheckHoneypot:     true,
		TradeSizeSOL:      0.1,
		Timeout:           2 * time.Second,
	}
}

func newValidator(m MarketData, th Thresholds) *Validator {
	return New(m, th, zerolog.Nop())
}

func TestValidate_AllMetricsPass(t *testing.T) {
	market := &stubMarket{
		liquidity: f(50), impact: f(2), buyTax: f(1), sellTax: f(1),
		holders: i(250), sellable: b(true),
	}
	v := newValidator(market, defaultThresholds())

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionAccept {
		t.Fatalf("expected Accept, got %s (%s)", result.Decision, result.Reason)
	}

	// Every metric present on an Accept satisfies its threshold.
	if result.Metrics.LiquiditySOL == nil || *result.Metrics.LiquiditySOL < 10 {
		t.Error("accepted result has liquidity below threshold")
	}
	if result.Metrics.HolderCount == nil || *result.Metrics.HolderCount < 10 {
		t.Error("accepted result has holders below threshold")
	}
}

func TestValidate_RejectLowLiquidity(t *testing.T) {
	market := &stubMarket{liquidity: f(2)}
	v := newValidator(market, defaultThresholds())

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionReject {
		t.Fatal("expected Reject")
	}
	// Reason names the violated metric and observed vs threshold values.
	if !strings.Contains(result.Reason, "liquidity") {
		t.Errorf("reason should name liquidity, got %q", result.Reason)
	}
	if !strings.Contains(result.Reason, "2.00") || !strings.Contains(result.Reason, "10.00") {
		t.Errorf("reason should carry observed and threshold values, got %q", result.Reason)
	}
}

func TestValidate_RejectShortCircuits(t *testing.T) {
	// Liquidity fails; later checks must not contribute metrics.
	market := &stubMarket{liquidity: f(1), holders: i(5000)}
	v := newValidator(market, defaultThresholds())

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionReject {
		t.Fatal("expected Reject")
	}
	if result.Metrics.HolderCount != nil {
		t.Error("holder lookup should not run after liquidity reject")
	}
}

func TestValidate_FailOpenOnMissingMetrics(t *testing.T) {
	// Every lookup fails: no metric is obtainable, so no threshold can
	// block acceptance.
	market := &stubMarket{}
	v := newValidator(market, defaultThresholds())

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionAccept {
		t.Fatalf("missing metrics must not block acceptance, got %s (%s)", result.Decision, result.Reason)
	}
	if result.Metrics.LiquiditySOL != nil {
		t.Error("unavailable metric should stay unset")
	}
}

func TestValidate_FailClosedOnTimeout(t *testing.T) {
	th := defaultThresholds()
	th.Timeout = 20 * time.Millisecond
	market := &stubMarket{liquidity: f(50), delay: 200 * time.Millisecond}
	v := newValidator(market, th)

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionReject {
		t.Fatal("expected Reject on timeout")
	}
	if result.Reason != "validation timeout" {
		t.Errorf("reason = %q, want \"validation timeout\"", result.Reason)
	}
}

func TestValidate_RejectHoneypot(t *testing.T) {
	market := &stubMarket{
		liquidity: f(50), impact: f(2), buyTax: f(1), sellTax: f(1),
		holders: i(250), sellable: b(false),
	}
	v := newValidator(market, defaultThresholds())

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionReject {
		t.Fatal("expected Reject")
	}
	if !strings.Contains(result.Reason, "honeypot") {
		t.Errorf("reason should name honeypot, got %q", result.Reason)
	}
}

func TestValidate_RejectBlacklisted(t *testing.T) {
	th := defaultThresholds()
	th.Blacklist = []string{testMint}
	v := newValidator(&stubMarket{}, th)

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionReject {
		t.Fatal("expected Reject for blacklisted mint")
	}
}

func TestValidate_DisabledChecksSkipped(t *testing.T) {
	// Zero thresholds disable checks entirely; a hostile market view
	// passes when nothing is configured.
	market := &stubMarket{liquidity: f(0.01), holders: i(1)}
	v := newValidator(market, Thresholds{Timeout: time.Second})

	result := v.Validate(context.Background(), testMint)
	if result.Decision != domain.DecisionAccept {
		t.Fatalf("expected Accept with no configured thresholds, got %s", result.Decision)
	}
}
