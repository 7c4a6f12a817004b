package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

const signatureLen = 64

// SignTransaction signs a serialized base64 transaction as the fee
// payer and returns the signed transaction with its signature. The
// wire layout is a shortvec signature array followed by the message;
// the fee payer always owns signature slot zero.
func SignTransaction(txBase64 string, key ed25519.PrivateKey) (signedTx, signature string, err error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return "", "", fmt.Errorf("decode transaction: %w", err)
	}

	numSigs, offset, err := decodeShortvecLen(raw)
	if err != nil {
		return "", "", fmt.Errorf("parse signature count: %w", err)
	}
	if numSigs == 0 {
		return "", "", errors.New("transaction reserves no signature slots")
	}
	msgStart := offset + numSigs*signatureLen
	if msgStart > len(raw) {
		return "", "", errors.New("transaction shorter than its signature table")
	}

	sig := ed25519.Sign(key, raw[msgStart:])
	copy(raw[offset:offset+signatureLen], sig)

	return base64.StdEncoding.EncodeToString(raw), base58.Encode(sig), nil
}

// decodeShortvecLen reads a shortvec (compact-u16) length prefix.
func decodeShortvecLen(raw []byte) (value, size int, err error) {
	for i := 0; i < 3; i++ {
		if i >= len(raw) {
			return 0, 0, errors.New("truncated shortvec")
		}
		b := int(raw[i])
		value |= (b & 0x7f) << (7 * i)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, errors.New("shortvec too long")
}
