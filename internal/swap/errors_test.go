package swap

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		message  string
		wantKind ErrorKind
	}{
		{"Transaction simulation failed: insufficient lamports 4000000, need 100000000", KindInsufficientFunds},
		{"Error: insufficient funds for rent", KindInsufficientFunds},
		{"custom program error: 0x1", KindInsufficientFunds},
		{"Program failed: custom program error: 0x1771", KindSlippageExceeded},
		{"Slippage tolerance exceeded", KindSlippageExceeded},
		{"transaction failed on chain: map[InstructionError:[0 map[Custom:6001]]]", KindSlippageExceeded},
		{"status 429: too many requests", KindRateLimited},
		{"rate limit reached for rpc endpoint", KindRateLimited},
		{"Could not find any route", KindNoRoute},
		{"dial tcp: connection refused", KindNetwork},
		{"context deadline exceeded (Client.Timeout)", KindNetwork},
		{"Blockhash not found", KindNetwork},
		{"something entirely new", KindUnknown},
	}

	for _, tc := range cases {
		t.Run(string(tc.wantKind)+"/"+tc.message[:12], func(t *testing.T) {
			err := Classify(tc.message, nil)
			if err.Kind != tc.wantKind {
				t.Errorf("Classify(%q).Kind = %s, want %s", tc.message, err.Kind, tc.wantKind)
			}
		})
	}
}

func TestTransientKinds(t *testing.T) {
	transient := map[ErrorKind]bool{
		KindRateLimited:       true,
		KindNetwork:           true,
		KindSlippageExceeded:  false,
		KindInsufficientFunds: false,
		KindNoRoute:           false,
		KindUnknown:           false,
	}
	for kind, want := range transient {
		err := NewError(kind, "", nil)
		if err.Transient() != want {
			t.Errorf("Transient(%s) = %v, want %v", kind, err.Transient(), want)
		}
	}
}

func TestIsTransientUnwrapsChains(t *testing.T) {
	inner := NewError(KindRateLimited, "rate limited (429)", nil)
	wrapped := fmt.Errorf("leg 2: %w", inner)

	if !IsTransient(wrapped) {
		t.Error("IsTransient should see through fmt.Errorf wrapping")
	}
	if KindOf(wrapped) != KindRateLimited {
		t.Errorf("KindOf = %s, want %s", KindOf(wrapped), KindRateLimited)
	}

	if IsTransient(errors.New("plain error")) {
		t.Error("plain errors must be terminal")
	}
	if KindOf(errors.New("plain error")) != KindUnknown {
		t.Error("plain errors must classify as unknown")
	}
}
