package solana

// SPL token program and account layout constants used for token
// account scans.
const (
	TokenProgramID       = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	tokenAccountDataSize = 165
	mintFieldOffset      = 0
)

// SendOptions tunes transaction submission.
type SendOptions struct {
	SkipPreflight bool
	MaxRetries    *int // validator-side resubmit attempts
}

// SignatureStatus is the confirmation state of a submitted transaction.
type SignatureStatus struct {
	Slot               int64
	Confirmations      *int
	ConfirmationStatus string // processed, confirmed or finalized
	Err                interface{}
}

// Confirmed reports whether the transaction reached at least the
// confirmed commitment without an execution error.
func (s *SignatureStatus) Confirmed() bool {
	if s == nil || s.Err != nil {
		return false
	}
	return s.ConfirmationStatus == "confirmed" || s.ConfirmationStatus == "finalized"
}

// Failed reports whether the transaction landed with an execution
// error.
func (s *SignatureStatus) Failed() bool {
	return s != nil && s.Err != nil
}
