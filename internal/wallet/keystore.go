package wallet

import (
	"crypto/ed25519"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"solana-sniper/internal/solana"
)

// ErrNoKey is returned when signing is requested for an account the
// keystore does not hold.
var ErrNoKey = errors.New("no key for account")

// Keystore holds the funding accounts' signing keys in memory. Keys
// are loaded once at startup and never serialized back out.
type Keystore struct {
	keys    map[string]ed25519.PrivateKey
	pubkeys []string
}

// NewKeystore parses base58 secret keys. Both the 64-byte form
// (seed followed by pubkey, the common export format) and the raw
// 32-byte seed are accepted.
func NewKeystore(secrets []string) (*Keystore, error) {
	if len(secrets) == 0 {
		return nil, errors.New("no signing keys configured")
	}

	ks := &Keystore{keys: make(map[string]ed25519.PrivateKey, len(secrets))}
	for i, secret := range secrets {
		raw, err := base58.Decode(secret)
		if err != nil {
			return nil, fmt.Errorf("key %d: decode: %w", i+1, err)
		}

		var priv ed25519.PrivateKey
		switch len(raw) {
		case ed25519.PrivateKeySize:
			priv = ed25519.PrivateKey(raw)
			// The trailing 32 bytes must be the pubkey the seed derives.
			derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
			if !priv.Public().(ed25519.PublicKey).Equal(derived.Public().(ed25519.PublicKey)) {
				return nil, fmt.Errorf("key %d: pubkey does not match seed", i+1)
			}
		case ed25519.SeedSize:
			priv = ed25519.NewKeyFromSeed(raw)
		default:
			return nil, fmt.Errorf("key %d: %d bytes, want 32 or 64", i+1, len(raw))
		}

		pubkey := base58.Encode(priv.Public().(ed25519.PublicKey))
		if _, dup := ks.keys[pubkey]; dup {
			return nil, fmt.Errorf("key %d: duplicate account %s", i+1, shorten(pubkey))
		}
		ks.keys[pubkey] = priv
		ks.pubkeys = append(ks.pubkeys, pubkey)
	}
	return ks, nil
}

// Pubkeys returns the account pubkeys in configuration order. The
// result seeds the funding pool.
func (k *Keystore) Pubkeys() []string {
	return append([]string(nil), k.pubkeys...)
}

// Sign signs a serialized transaction as accountRef and returns the
// signed transaction plus its signature.
func (k *Keystore) Sign(accountRef, txBase64 string) (signedTx, signature string, err error) {
	priv, ok := k.keys[accountRef]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrNoKey, shorten(accountRef))
	}
	return solana.SignTransaction(txBase64, priv)
}
