package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"solana-sniper/internal/domain"
)

// ComputePlanID computes a deterministic plan_id using SHA256.
// Formula: SHA256(mint|platform|source|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputePlanID(
	mint string,
	platform domain.Platform,
	source string,
	createdAtMs int64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d",
		mint,
		string(platform),
		source,
		createdAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeLegID computes a deterministic leg_id using SHA256.
// Formula: SHA256(plan_id|account_ref|leg_index)
// Returns hex-encoded hash (64 characters).
func ComputeLegID(planID, accountRef string, legIndex int) string {
	data := fmt.Sprintf("%s|%s|%d", planID, accountRef, legIndex)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
