package event_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/Hubmakerlabs/scream/pkg/hex"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/nostr/keys"
	"github.com/Hubmakerlabs/scream/pkg/nostr/kind"
	"github.com/Hubmakerlabs/scream/pkg/nostr/tag"
	"github.com/Hubmakerlabs/scream/pkg/nostr/tags"
	"github.com/Hubmakerlabs/scream/pkg/nostr/timestamp"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	TestSecHex = "1797f6f1d10593548b566ba32e81577aa4bc990eb0f16556bf884f1af4b17c25"
	TestPubHex = "4fdb07df4a683e3ee9b2a9d117e01bfe2548d7e8c0d4cb56d77e9c23091c3fc3"
)

var TestEventContent = `This event contains { braces } and [ brackets ] that must be properly
handled, as well as a line break, a dangling space and a
	tab, "quotes", a \ backslash, <html> & ünïcødé.`

func testPair(t *testing.T) *keys.Pair {
	t.Helper()
	kp, err := keys.FromSecHex(TestSecHex)
	require.NoError(t, err)
	require.Equal(t, TestPubHex, kp.PubHex())
	return kp
}

func TestBuild(t *testing.T) {
	kp := testPair(t)
	ev, err := event.Build("hello", kp, timestamp.FromUnix(1672068534))
	require.NoError(t, err)
	assert.Equal(t, TestPubHex, ev.PubKey)
	assert.Equal(t, kind.TextNote, ev.Kind)
	assert.Empty(t, ev.Tags)
	assert.NoError(t, ev.ID.Validate())
	assert.True(t, ev.CheckID())
	valid, err := ev.CheckSignature()
	require.NoError(t, err)
	assert.True(t, valid)
	assert.Equal(t,
		`[0,"`+TestPubHex+`",1672068534,1,[],"hello"]`,
		string(ev.ToCanonical()))
	// an empty tag list is an array on the wire, never null
	assert.Contains(t, ev.String(), `"tags":[]`)
}

func TestBuildRejectsContent(t *testing.T) {
	kp := testPair(t)
	for _, content := range []string{"", " ", "\n\t "} {
		_, err := event.Build(content, kp, timestamp.Now())
		assert.ErrorIs(t, err, event.ErrEmptyContent, "%q", content)
	}
	_, err := event.Build(strings.Repeat("a", event.MaxContentLength+1), kp,
		timestamp.Now())
	assert.ErrorIs(t, err, event.ErrContentTooLarge)
	_, err = event.Build(strings.Repeat("a", event.MaxContentLength), kp,
		timestamp.Now())
	assert.NoError(t, err)
	for _, content := range []string{"\xff", "ok \xc3\x28 not", "trunc \xe2\x82"} {
		_, err = event.Build(content, kp, timestamp.Now())
		assert.ErrorIs(t, err, event.ErrInvalidUTF8, "%q", content)
		assert.True(t, event.IsContentError(err))
	}
	_, err = event.Build("hi", nil, timestamp.Now())
	assert.Error(t, err)
}

func TestSignatureBoundToPubKey(t *testing.T) {
	kp := testPair(t)
	ev, err := event.Build(TestEventContent, kp, timestamp.Now())
	require.NoError(t, err)
	sigBytes, err := hex.Dec(ev.Sig)
	require.NoError(t, err)
	sig, err := schnorr.ParseSignature(sigBytes)
	require.NoError(t, err)
	for i := 0; i < 16; i++ {
		other, err := keys.Generate(nil)
		require.NoError(t, err)
		otherPub, err := keys.ParsePubHex(other.PubHex())
		require.NoError(t, err)
		assert.False(t, sig.Verify(ev.ID.Bytes(), otherPub))
		// substituting the author also breaks the event as a whole
		forged := *ev
		forged.PubKey = other.PubHex()
		valid, err := forged.CheckSignature()
		require.NoError(t, err)
		assert.False(t, valid)
	}
}

func TestMutationInvalidates(t *testing.T) {
	kp := testPair(t)
	ev, err := event.Build("original", kp, timestamp.FromUnix(1700000000))
	require.NoError(t, err)
	mutations := map[string]func(e *event.T){
		"content":    func(e *event.T) { e.Content = "edited" },
		"created_at": func(e *event.T) { e.CreatedAt++ },
		"kind":       func(e *event.T) { e.Kind = kind.ProfileMetadata },
		"tags":       func(e *event.T) { e.Tags = tags.T{tag.T{"t", "x"}} },
	}
	for name, mutate := range mutations {
		m := *ev
		mutate(&m)
		assert.False(t, m.CheckID(), name)
		valid, err := m.CheckSignature()
		assert.NoError(t, err, name)
		assert.False(t, valid, name)
	}
	bad := *ev
	bad.Sig = "zz"
	_, err = bad.CheckSignature()
	assert.Error(t, err)
}

func TestJSONRoundTrip(t *testing.T) {
	kp := testPair(t)
	ev, err := event.Build(TestEventContent, kp, timestamp.Now())
	require.NoError(t, err)
	b, err := json.Marshal(ev)
	require.NoError(t, err)
	var re event.T
	require.NoError(t, json.Unmarshal(b, &re))
	assert.Equal(t, ev.Serialize(), re.Serialize())
	valid, err := re.CheckSignature()
	require.NoError(t, err)
	assert.True(t, valid)

	assert.Error(t, re.UnmarshalJSON([]byte(`["not","an","object"]`)))
	assert.Error(t, re.UnmarshalJSON([]byte(`{"kind":70000}`)))
	assert.Error(t, re.UnmarshalJSON([]byte(`{"tags":"nope"}`)))
}

// TestInteropGoNostr checks the canonical form against an independent
// implementation of the protocol.
func TestInteropGoNostr(t *testing.T) {
	kp, err := keys.Generate(nil)
	require.NoError(t, err)
	for _, content := range []string{"hello", TestEventContent,
		"\x00\x1f control", "emoji 🎉 and   separators"} {
		ev, err := event.Build(content, kp, timestamp.Now())
		require.NoError(t, err)
		var ne nostr.Event
		require.NoError(t, json.Unmarshal(ev.Serialize(), &ne))
		assert.Equal(t, ev.ID.String(), ne.GetID(), "%q", content)
		ok, err := ne.CheckSignature()
		require.NoError(t, err)
		assert.True(t, ok, "%q", content)
		assert.Equal(t, string(ev.ToCanonical()), string(ne.Serialize()))
	}
}
