// Package bech32encoding renders nostr identifiers in the checksummed,
// human shareable bech32 form of NIP-19 (note1..., npub1...).
package bech32encoding

import (
	"errors"
	"fmt"
	"os"

	"github.com/Hubmakerlabs/scream/pkg/hex"
	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/btcsuite/btcd/btcutil/bech32"
)

var log, chk = slog.New(os.Stderr)

const (
	NoteHRP = "note"
	NpubHRP = "npub"
	NsecHRP = "nsec"
	// DataLen is the length of the payload of all the simple entities.
	DataLen = 32
)

var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrMalformedInput   = errors.New("malformed input")
)

// Kind classifies a decoding failure.
type Kind int

const (
	MalformedInput Kind = iota + 1
	ChecksumMismatch
)

// EncodingError is returned by the decoders. It matches ErrChecksumMismatch
// or ErrMalformedInput with errors.Is depending on Kind.
type EncodingError struct {
	Kind  Kind
	Input string
	Err   error
}

func (e *EncodingError) Error() string {
	what := "malformed bech32 input"
	if e.Kind == ChecksumMismatch {
		what = "bech32 checksum mismatch"
	}
	return fmt.Sprintf("%s '%s': %v", what, e.Input, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

func (e *EncodingError) Is(target error) bool {
	switch target {
	case ErrChecksumMismatch:
		return e.Kind == ChecksumMismatch
	case ErrMalformedInput:
		return e.Kind == MalformedInput
	}
	return false
}

func malformed(input string, err error) error {
	return &EncodingError{Kind: MalformedInput, Input: input, Err: err}
}

// Encode converts raw bytes to bech32 under the given human readable part.
func Encode(hrp string, b8 []byte) (s string, err error) {
	if s, err = bech32.EncodeFromBase256(hrp, b8); chk.D(err) {
		return "", fmt.Errorf("failed to encode %s: %w", hrp, err)
	}
	return
}

// Decode returns the human readable part and the raw bytes of a bech32
// string.
func Decode(s string) (hrp string, b8 []byte, err error) {
	if hrp, b8, err = bech32.DecodeToBase256(s); err != nil {
		var ce bech32.ErrInvalidChecksum
		if errors.As(err, &ce) {
			return "", nil, &EncodingError{Kind: ChecksumMismatch, Input: s, Err: err}
		}
		return "", nil, malformed(s, err)
	}
	return
}

func decodeFixed(want, s string) (b []byte, err error) {
	var hrp string
	if hrp, b, err = Decode(s); err != nil {
		return nil, err
	}
	if hrp != want {
		return nil, malformed(s, fmt.Errorf(
			"wrong human readable part, got '%s' want '%s'", hrp, want))
	}
	if len(b) != DataLen {
		return nil, malformed(s, fmt.Errorf("%s data is %d bytes, want %d",
			want, len(b), DataLen))
	}
	return
}

// EncodeNote encodes a raw 32 byte event ID as note1...
func EncodeNote(id []byte) (string, error) {
	if len(id) != DataLen {
		return "", fmt.Errorf("event ID is %d bytes, want %d", len(id), DataLen)
	}
	return Encode(NoteHRP, id)
}

// DecodeNote is the inverse of EncodeNote.
func DecodeNote(s string) ([]byte, error) { return decodeFixed(NoteHRP, s) }

// EncodeNoteHex encodes a hex event ID as note1...
func EncodeNoteHex(id string) (s string, err error) {
	var b []byte
	if b, err = hex.DecLen(id, DataLen); err != nil {
		return "", fmt.Errorf("invalid event ID '%s': %w", id, err)
	}
	return EncodeNote(b)
}

// EncodePubKey encodes an x-only public key as npub1...
func EncodePubKey(pk []byte) (string, error) {
	if len(pk) != DataLen {
		return "", fmt.Errorf("public key is %d bytes, want %d", len(pk), DataLen)
	}
	return Encode(NpubHRP, pk)
}

// EncodePubKeyHex encodes a hex public key as npub1...
func EncodePubKeyHex(pk string) (s string, err error) {
	var b []byte
	if b, err = hex.DecLen(pk, DataLen); err != nil {
		return "", fmt.Errorf("invalid public key '%s': %w", pk, err)
	}
	return EncodePubKey(b)
}

// DecodePubKey is the inverse of EncodePubKey.
func DecodePubKey(s string) ([]byte, error) { return decodeFixed(NpubHRP, s) }

// EncodeSecKeyHex encodes a hex secret key as nsec1...
func EncodeSecKeyHex(sk string) (s string, err error) {
	var b []byte
	if b, err = hex.DecLen(sk, DataLen); err != nil {
		return "", fmt.Errorf("invalid secret key: %w", err)
	}
	defer clear(b)
	return Encode(NsecHRP, b)
}
