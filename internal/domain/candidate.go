package domain

import "time"

// SourceFormat identifies which extraction pattern produced a candidate.
type SourceFormat string

const (
	FormatSwapLink     SourceFormat = "SWAP_LINK"     // jup.ag swap URL
	FormatExplorerLink SourceFormat = "EXPLORER_LINK" // dexscreener/birdeye URL
	FormatBareAddress  SourceFormat = "BARE_ADDRESS"  // whitespace-delimited base58 token
	FormatFreeText     SourceFormat = "FREE_TEXT"     // keyword-prefixed (ca:, mint:, ...)
)

// CandidateReference is a token mint extracted from monitored text.
type CandidateReference struct {
	RawText    string       // originating snippet
	Mint       string       // normalized base58 mint address
	Format     SourceFormat // which pattern matched
	Platform   Platform     // where the text came from
	Source     string       // channel name / URL / feed identifier
	DetectedAt time.Time
}
