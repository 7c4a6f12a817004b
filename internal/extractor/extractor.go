// Package extractor parses free-form text for token mint candidates.
// Extraction failure is not a fault: text with no valid address simply
// yields an empty result.
package extractor

import (
	"regexp"
	"sort"
	"strings"

	"solana-sniper/internal/domain"
)

const b58 = `[1-9A-HJ-NP-Za-km-z]{32,44}`

// Extractor extracts candidate mints from arbitrary text.
// Patterns are applied in priority order; the first pattern to claim a
// mint determines its source format, and each mint is emitted once.
type Extractor struct {
	swapPairPattern  *regexp.Regexp // jup.ag/swap/INPUT-OUTPUT or INPUT/OUTPUT
	swapQueryPattern *regexp.Regexp // jup.ag/swap?inputMint=..&outputMint=..
	explorerPatterns []*regexp.Regexp
	keywordPattern   *regexp.Regexp
	barePattern      *regexp.Regexp
}

// New creates an Extractor with the default pattern set.
func New() *Extractor {
	return &Extractor{
		swapPairPattern:  regexp.MustCompile(`(?i)jup\.ag/swap/(` + b58 + `)[-/](` + b58 + `)`),
		swapQueryPattern: regexp.MustCompile(`(?i)jup\.ag/swap\?[^\s]*?outputMint=(` + b58 + `)`),
		explorerPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)dexscreener\.com/solana/(` + b58 + `)`),
			regexp.MustCompile(`(?i)birdeye\.so/token/(` + b58 + `)`),
			regexp.MustCompile(`(?i)raydium\.io/[^\s]*?(` + b58 + `)`),
		},
		keywordPattern: regexp.MustCompile(`(?i)\b(?:ca|mint|address|contract|token)[:\s=]+(` + b58 + `)\b`),
		barePattern:    regexp.MustCompile(`\b` + b58 + `\b`),
	}
}

// match is one candidate occurrence before dedup.
type match struct {
	mint   string
	format domain.SourceFormat
	pos    int // byte offset of first appearance in text
}

// Extract returns candidate references found in text, one per distinct
// mint, ordered by first appearance. WSOL and other base tokens are
// filtered; malformed addresses are silently dropped.
func (e *Extractor) Extract(text string) []domain.CandidateReference {
	if text == "" {
		return nil
	}

	byMint := make(map[string]match)

	claim := func(mint string, format domain.SourceFormat, pos int) {
		if !IsValidAddress(mint) || IsBaseToken(mint) {
			return
		}
		existing, seen := byMint[mint]
		if seen {
			// Higher-priority pattern already claimed this mint;
			// only track an earlier position.
			if pos < existing.pos {
				existing.pos = pos
				byMint[mint] = existing
			}
			return
		}
		byMint[mint] = match{mint: mint, format: format, pos: pos}
	}

	// Rule 1: swap-aggregator links. The candidate is the output side;
	// the input side must be the native wrapper and is discarded.
	for _, m := range e.swapPairPattern.FindAllStringSubmatchIndex(text, -1) {
		input := text[m[2]:m[3]]
		output := text[m[4]:m[5]]
		if input == WSOL {
			claim(output, domain.FormatSwapLink, m[0])
		}
	}
	for _, m := range e.swapQueryPattern.FindAllStringSubmatchIndex(text, -1) {
		claim(text[m[2]:m[3]], domain.FormatSwapLink, m[0])
	}

	// Rule 2: market-explorer links.
	for _, p := range e.explorerPatterns {
		for _, m := range p.FindAllStringSubmatchIndex(text, -1) {
			claim(text[m[2]:m[3]], domain.FormatExplorerLink, m[0])
		}
	}

	// Rule 3: keyword-prefixed addresses in free text.
	for _, m := range e.keywordPattern.FindAllStringSubmatchIndex(text, -1) {
		claim(text[m[2]:m[3]], domain.FormatFreeText, m[0])
	}

	// Rule 4: bare whitespace-delimited addresses.
	for _, m := range e.barePattern.FindAllStringIndex(text, -1) {
		claim(text[m[0]:m[1]], domain.FormatBareAddress, m[0])
	}

	if len(byMint) == 0 {
		return nil
	}

	matches := make([]match, 0, len(byMint))
	for _, m := range byMint {
		matches = append(matches, m)
	}
	// Order of first appearance in the input.
	sort.Slice(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })

	refs := make([]domain.CandidateReference, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, domain.CandidateReference{
			RawText: snippet(text, m.pos),
			Mint:    m.mint,
			Format:  m.format,
		})
	}
	return refs
}

// snippet returns a short window of text around pos for diagnostics.
func snippet(text string, pos int) string {
	const window = 80
	start := pos - window/2
	if start < 0 {
		start = 0
	}
	end := start + window
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}
