package event

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/Hubmakerlabs/scream/pkg/hex"
	"github.com/Hubmakerlabs/scream/pkg/nostr/eventid"
	"github.com/Hubmakerlabs/scream/pkg/nostr/keys"
	"github.com/Hubmakerlabs/scream/pkg/nostr/kind"
	"github.com/Hubmakerlabs/scream/pkg/nostr/tags"
	"github.com/Hubmakerlabs/scream/pkg/nostr/timestamp"
	"github.com/Hubmakerlabs/scream/pkg/nostr/wire/text"
	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/mailru/easyjson/jwriter"
	"github.com/minio/sha256-simd"
)

var log, chk = slog.New(os.Stderr)

// MaxContentLength is the largest content, in bytes, Build accepts. Most
// public relays refuse messages above 64KiB.
const MaxContentLength = 64 * 1024

var (
	ErrEmptyContent    = errors.New("content is empty")
	ErrContentTooLarge = fmt.Errorf("content exceeds %d bytes", MaxContentLength)
	ErrInvalidUTF8     = errors.New("content is not valid UTF-8")
)

func Hash(in []byte) (out []byte) {
	h := sha256.Sum256(in)
	return h[:]
}

// T is the primary datatype of nostr. This is the form of the structure
// that defines its JSON string based format.
type T struct {

	// ID is the SHA256 hash of the canonical encoding of the event
	ID eventid.T `json:"id"`

	// PubKey is the public key of the event creator in *hexadecimal* format
	PubKey string `json:"pubkey"`

	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt timestamp.T `json:"created_at"`

	// Kind is the nostr protocol code for the type of event. See kind.T
	Kind kind.T `json:"kind"`

	// Tags are a list of tags, which are a list of strings usually structured
	// as a 3 layer scheme indicating specific features of an event.
	Tags tags.T `json:"tags"`

	// Content is an arbitrary string that can contain anything, but usually
	// conforming to a specification relating to the Kind and the Tags.
	Content string `json:"content"`

	// Sig is the signature on the ID hash that validates as coming from the
	// Pubkey.
	Sig string `json:"sig"`
}

// CheckContent applies the content rules of Build without building anything.
func CheckContent(content string) (err error) {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyContent
	}
	if len(content) > MaxContentLength {
		return fmt.Errorf("%w: got %d", ErrContentTooLarge, len(content))
	}
	if !utf8.ValidString(content) {
		return ErrInvalidUTF8
	}
	return
}

// IsContentError reports whether err is one of the content rule violations of
// CheckContent.
func IsContentError(err error) bool {
	return errors.Is(err, ErrEmptyContent) ||
		errors.Is(err, ErrContentTooLarge) ||
		errors.Is(err, ErrInvalidUTF8)
}

// Build assembles a text note with no tags from content, stamps it with ts and
// signs it with kp. The returned event does not retain the secret key.
func Build(content string, kp *keys.Pair, ts timestamp.T) (ev *T, err error) {
	if err = CheckContent(content); err != nil {
		return
	}
	if kp == nil || kp.Sec == nil {
		return nil, errors.New("cannot build event without a secret key")
	}
	ev = &T{
		CreatedAt: ts,
		Kind:      kind.TextNote,
		Tags:      tags.T{},
		Content:   content,
	}
	if err = ev.SignWithSecKey(kp.Sec); chk.E(err) {
		return nil, err
	}
	return
}

// ToCanonical returns the canonical form used to generate the ID hash that
// can be signed: [0,"pubkey",created_at,kind,[tags],"content"] with no
// whitespace.
func (ev *T) ToCanonical() []byte {
	w := jwriter.Writer{}
	w.RawString(`[0,`)
	w.Buffer.AppendBytes(text.EscapeString(nil, ev.PubKey))
	w.RawByte(',')
	w.Int64(ev.CreatedAt.I64())
	w.RawByte(',')
	w.Uint16(ev.Kind.ToUint16())
	w.RawByte(',')
	w.Buffer.AppendBytes(ev.Tags.AppendJSON(nil))
	w.RawByte(',')
	w.Buffer.AppendBytes(text.EscapeString(nil, ev.Content))
	w.RawByte(']')
	return w.Buffer.BuildBytes()
}

// GetIDBytes returns the raw SHA256 hash of the canonical form of an T.
func (ev *T) GetIDBytes() []byte { return Hash(ev.ToCanonical()) }

// GetID serializes and returns the event ID as a hexadecimal string.
func (ev *T) GetID() eventid.T { return eventid.T(hex.Enc(ev.GetIDBytes())) }

// CheckID reports whether the ID field matches the hash of the other fields.
func (ev *T) CheckID() bool { return ev.ID == ev.GetID() }

// CheckSignature checks if the signature is valid for the id (which is a hash
// of the serialized event content). returns an error if the signature itself is
// invalid.
func (ev *T) CheckSignature() (valid bool, err error) {
	// decode and parse the pubkey
	var pk *btcec.PublicKey
	if pk, err = keys.ParsePubHex(ev.PubKey); chk.D(err) {
		err = fmt.Errorf("event has invalid pubkey '%s': %w", ev.PubKey, err)
		return
	}
	// decode signature hex to bytes.
	var sigBytes []byte
	if sigBytes, err = hex.DecLen(ev.Sig, schnorr.SignatureSize); chk.D(err) {
		err = fmt.Errorf("signature '%s' is invalid hex: %w", ev.Sig, err)
		return
	}
	// parse signature bytes.
	var sig *schnorr.Signature
	if sig, err = schnorr.ParseSignature(sigBytes); chk.D(err) {
		err = fmt.Errorf("failed to parse signature: %w", err)
		return
	}
	// the signature covers the recomputed hash, so a stale ID field fails too.
	id := ev.GetIDBytes()
	if string(id) != string(ev.ID.Bytes()) {
		return false, nil
	}
	valid = sig.Verify(id, pk)
	return
}

// SignWithSecKey sets the pubkey, id and signature of the event from sk.
func (ev *T) SignWithSecKey(sk *btcec.PrivateKey,
	so ...schnorr.SignOption) (err error) {

	// the pubkey is part of the canonical form so it must be set first.
	ev.PubKey = hex.Enc(schnorr.SerializePubKey(sk.PubKey()))
	id := ev.GetIDBytes()
	var sig *schnorr.Signature
	if sig, err = schnorr.Sign(sk, id, so...); chk.D(err) {
		return err
	}
	ev.ID = eventid.T(hex.Enc(id))
	ev.Sig = hex.Enc(sig.Serialize())
	log.T.C(func() string { return string(ev.Serialize()) })
	return nil
}
