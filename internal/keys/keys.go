// Package keys holds the deterministic key material a conformance run
// needs: the node-under-test's base secrets, shachain-derived
// per-commitment secrets, and secp256k1 point derivation.
//
// Test keys are deliberately trivial: short hex strings left-padded with
// zeroes, so tests can say Connect("03") and mean the obvious key.
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
)

// PrivkeyExpand left-pads a short hex private key with zeroes to the full
// 32-byte width. Odd-length input gets a leading zero nibble first.
func PrivkeyExpand(secret string) (string, error) {
	if len(secret)%2 == 1 {
		secret = "0" + secret
	}
	if len(secret) > 64 {
		return "", fmt.Errorf("privkey %q longer than 32 bytes", secret)
	}
	if _, err := hex.DecodeString(secret); err != nil {
		return "", fmt.Errorf("bad privkey %q: %w", secret, err)
	}
	return strings.Repeat("0", 64-len(secret)) + strings.ToLower(secret), nil
}

// Pubkey returns the compressed secp256k1 public key for a hex private
// key, as 33 bytes of hex.
func Pubkey(privHex string) (string, error) {
	expanded, err := PrivkeyExpand(privHex)
	if err != nil {
		return "", err
	}
	b, err := hex.DecodeString(expanded)
	if err != nil {
		return "", fmt.Errorf("bad privkey: %w", err)
	}
	_, pub := btcec.PrivKeyFromBytes(b)
	return hex.EncodeToString(pub.SerializeCompressed()), nil
}

// KeySet is the node-under-test's channel key material: the base secrets
// behind its channel basepoints plus the shachain seed its per-commitment
// secrets derive from. Runners expose this so tests can precompute the
// values the node will put on the wire.
type KeySet struct {
	RevocationBaseSecret     string
	PaymentBaseSecret        string
	DelayedPaymentBaseSecret string
	HTLCBaseSecret           string
	ShachainSeed             string
}

// RevocationBasepoint returns the public basepoint for the revocation base
// secret.
func (k KeySet) RevocationBasepoint() (string, error) {
	return Pubkey(k.RevocationBaseSecret)
}

// PaymentBasepoint returns the public basepoint for the payment base secret.
func (k KeySet) PaymentBasepoint() (string, error) {
	return Pubkey(k.PaymentBaseSecret)
}

// DelayedPaymentBasepoint returns the public basepoint for the delayed
// payment base secret.
func (k KeySet) DelayedPaymentBasepoint() (string, error) {
	return Pubkey(k.DelayedPaymentBaseSecret)
}

// HTLCBasepoint returns the public basepoint for the HTLC base secret.
func (k KeySet) HTLCBasepoint() (string, error) {
	return Pubkey(k.HTLCBaseSecret)
}

// PerCommitSecret returns the n'th per-commitment secret, derived from the
// shachain seed at index 2^48-1-n per BOLT 3.
func (k KeySet) PerCommitSecret(n uint64) (string, error) {
	seedHex, err := PrivkeyExpand(k.ShachainSeed)
	if err != nil {
		return "", err
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return "", fmt.Errorf("bad shachain seed: %w", err)
	}
	var s [32]byte
	copy(s[:], seed)
	secret := shachainDerive(s, (1<<48)-1-n)
	return hex.EncodeToString(secret[:]), nil
}

// PerCommitPoint returns the n'th per-commitment point.
func (k KeySet) PerCommitPoint(n uint64) (string, error) {
	secret, err := k.PerCommitSecret(n)
	if err != nil {
		return "", err
	}
	return Pubkey(secret)
}

// shachainDerive walks the BOLT 3 shachain tree: for each set bit of the
// index, high bit first, flip that bit in the current value and hash.
func shachainDerive(seed [32]byte, idx uint64) [32]byte {
	p := seed
	for b := 47; b >= 0; b-- {
		if idx&(1<<uint(b)) != 0 {
			p[b/8] ^= 1 << (uint(b) % 8)
			p = sha256.Sum256(p[:])
		}
	}
	return p
}
