package solana

import "context"

// RPCClient defines the Solana RPC HTTP surface the engine depends on.
type RPCClient interface {
	// GetBalance returns an account's balance in lamports.
	GetBalance(ctx context.Context, pubkey string) (uint64, error)

	// SendTransaction submits a signed base64 transaction and returns
	// its signature.
	SendTransaction(ctx context.Context, signedTxBase64 string, opts *SendOptions) (string, error)

	// GetSignatureStatuses returns confirmation state for signatures,
	// positionally matching the input. A nil entry means the cluster
	// does not know the signature yet.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)

	// GetSlot retrieves the current slot. Used as a liveness probe.
	GetSlot(ctx context.Context) (int64, error)

	// TokenAccountCount counts token accounts holding the given mint.
	TokenAccountCount(ctx context.Context, mint string) (int, error)
}
