package extractor

import "github.com/mr-tron/base58"

// WSOL is the Wrapped SOL mint address. It is the quote side of every
// swap link we parse and is never emitted as a candidate.
const WSOL = "So11111111111111111111111111111111111111112"

// baseTokens are quote mints that are never trading targets. System
// addresses like the all-ones system program need no entry: they fall
// below the unique-character floor in IsValidAddress.
var baseTokens = map[string]bool{
	WSOL: true,
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": true, // USDC
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": true, // USDT
}

// IsValidAddress reports whether s is a canonical Solana address:
// 32-44 base58 characters decoding to exactly 32 bytes.
func IsValidAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	// Reject degenerate strings before paying for a decode.
	uniq := make(map[rune]bool, len(s))
	for _, c := range s {
		uniq[c] = true
	}
	if len(uniq) < 8 {
		return false
	}

	decoded, err := base58.Decode(s)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}

// IsBaseToken reports whether the address is WSOL or another known
// quote/system mint excluded from trading.
func IsBaseToken(addr string) bool {
	return baseTokens[addr]
}
