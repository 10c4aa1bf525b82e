// Package keys generates the throwaway secp256k1 identities that sign each
// published note.
package keys

import (
	"errors"
	"fmt"
	"io"

	"github.com/Hubmakerlabs/scream/pkg/hex"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"lukechampine.com/frand"
)

const (
	// SecKeyLen is the length of a secret key in bytes.
	SecKeyLen = 32
	// PubKeyLen is the length of an x-only BIP-340 public key in bytes.
	PubKeyLen = 32
	// maxAttempts bounds the rejection sampling loop; a uniform source lands
	// outside [1, N-1] with probability ~2^-128 per draw.
	maxAttempts = 8
)

// ErrEntropyUnavailable is returned when the random source cannot supply a
// key. It is not retryable in place.
var ErrEntropyUnavailable = errors.New("entropy source unavailable")

// Pair is an ephemeral signing identity. It is created for exactly one publish
// and should be discarded with Zero when that publish is over.
type Pair struct {
	Sec *btcec.PrivateKey
	Pub []byte
}

// Generate draws a fresh key pair from rand, which must be a cryptographically
// secure source. A nil rand uses frand.
func Generate(rand io.Reader) (kp *Pair, err error) {
	if rand == nil {
		rand = frand.Reader
	}
	b := make([]byte, SecKeyLen)
	defer clear(b)
	for i := 0; i < maxAttempts; i++ {
		if _, err = io.ReadFull(rand, b); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEntropyUnavailable, err)
		}
		var k btcec.ModNScalar
		if overflow := k.SetByteSlice(b); overflow || k.IsZero() {
			continue
		}
		sk, pk := btcec.PrivKeyFromBytes(b)
		return &Pair{Sec: sk, Pub: schnorr.SerializePubKey(pk)}, nil
	}
	return nil, fmt.Errorf("%w: no valid scalar in %d draws",
		ErrEntropyUnavailable, maxAttempts)
}

// PubHex returns the public key as the lower case hex string used in events.
func (kp *Pair) PubHex() string { return hex.Enc(kp.Pub) }

// SecHex returns the secret key in hex.
func (kp *Pair) SecHex() string { return hex.Enc(kp.Sec.Serialize()) }

// Zero wipes the secret key. The pair cannot sign afterwards.
func (kp *Pair) Zero() {
	if kp == nil || kp.Sec == nil {
		return
	}
	kp.Sec.Zero()
	kp.Sec = nil
}

// FromSecHex rebuilds a pair from a hex encoded secret key.
func FromSecHex(sk string) (kp *Pair, err error) {
	var b []byte
	if b, err = hex.DecLen(sk, SecKeyLen); err != nil {
		return nil, fmt.Errorf("invalid secret key: %w", err)
	}
	defer clear(b)
	var k btcec.ModNScalar
	if overflow := k.SetByteSlice(b); overflow || k.IsZero() {
		return nil, errors.New("secret key out of range")
	}
	s, p := btcec.PrivKeyFromBytes(b)
	return &Pair{Sec: s, Pub: schnorr.SerializePubKey(p)}, nil
}

// ParsePubHex decodes an x-only public key in hex.
func ParsePubHex(pk string) (p *btcec.PublicKey, err error) {
	var b []byte
	if b, err = hex.DecLen(pk, PubKeyLen); err != nil {
		return nil, fmt.Errorf("invalid public key '%s': %w", pk, err)
	}
	return schnorr.ParsePubKey(b)
}
