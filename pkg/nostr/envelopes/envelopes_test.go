package envelopes

import (
	"strings"
	"testing"

	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/closedenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/eventenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/labels"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/noticeenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/envelopes/okenvelope"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/nostr/keys"
	"github.com/Hubmakerlabs/scream/pkg/nostr/timestamp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const id = "5c83da77af1dec6d7289834998ad7aafbd9e2191396d75ec3cc27f5a77226f36"

func TestProcessOK(t *testing.T) {
	for _, msg := range []string{
		`["OK","` + id + `",true,""]`,
		`["OK","` + id + `",true]`,
		`["OK", "` + strings.ToUpper(id) + `", true, ""]`,
	} {
		env, label, err := ProcessEnvelope([]byte(msg))
		require.NoError(t, err, msg)
		assert.Equal(t, labels.OK, label)
		ok, is := env.(*okenvelope.T)
		require.True(t, is)
		assert.True(t, ok.OK)
		assert.Equal(t, id, ok.ID.String())
	}

	env, _, err := ProcessEnvelope([]byte(
		`["OK","` + id + `",false,"rate-limited: slow down \"friend\""]`))
	require.NoError(t, err)
	ok := env.(*okenvelope.T)
	assert.False(t, ok.OK)
	assert.Equal(t, `rate-limited: slow down "friend"`, ok.Reason)
	assert.Equal(t, okenvelope.RateLimited, ok.Prefix())

	// re-encoding gives the canonical four element form
	assert.Equal(t, `["OK","`+id+`",false,"rate-limited: slow down \"friend\""]`,
		ok.String())
}

func TestProcessMalformed(t *testing.T) {
	for _, msg := range []string{
		``,
		`{}`,
		`[]`,
		`[1,2]`,
		`["OK"]`,
		`["OK","` + id + `","yes",""]`,
		`["OK","nothex",true,""]`,
		`["NOTICE"]`,
		`["CLOSED","sub"]`,
	} {
		_, _, err := ProcessEnvelope([]byte(msg))
		assert.Error(t, err, msg)
	}
}

func TestProcessUnhandled(t *testing.T) {
	env, label, err := ProcessEnvelope([]byte(`["EOSE","sub"]`))
	require.NoError(t, err)
	assert.Nil(t, env)
	assert.Equal(t, labels.EOSE, label)
}

func TestNoticeAndClosed(t *testing.T) {
	env, _, err := ProcessEnvelope([]byte(`["NOTICE","slow\ndown"]`))
	require.NoError(t, err)
	assert.Equal(t, "slow\ndown", env.(*noticeenvelope.T).Text)
	assert.Equal(t, `["NOTICE","slow\ndown"]`, env.String())

	env, _, err = ProcessEnvelope([]byte(`["CLOSED","sub1","error: gone"]`))
	require.NoError(t, err)
	cl := env.(*closedenvelope.T)
	assert.Equal(t, "sub1", cl.ID)
	assert.Equal(t, "error: gone", cl.Reason)
	assert.Equal(t, `["CLOSED","sub1","error: gone"]`, cl.String())
}

func TestEventEnvelope(t *testing.T) {
	kp, err := keys.Generate(nil)
	require.NoError(t, err)
	ev, err := event.Build("hello", kp, timestamp.Now())
	require.NoError(t, err)

	out := &eventenvelope.T{Event: ev}
	b, err := out.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `["EVENT",`+ev.String()+`]`, string(b))

	env, label, err := ProcessEnvelope(b)
	require.NoError(t, err)
	assert.Equal(t, labels.EVENT, label)
	assert.Equal(t, ev.String(), env.(*eventenvelope.T).Event.String())

	withSub := &eventenvelope.T{SubscriptionID: "s", Event: ev}
	env, _, err = ProcessEnvelope([]byte(withSub.String()))
	require.NoError(t, err)
	assert.Equal(t, "s", env.(*eventenvelope.T).SubscriptionID)

	_, err = (&eventenvelope.T{}).MarshalJSON()
	assert.Error(t, err)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "blocked: no", okenvelope.Message(okenvelope.Blocked, "no"))
	assert.Equal(t, "pow: difficulty 10",
		okenvelope.Message(okenvelope.Error, "pow: difficulty 10"))
	assert.Equal(t, okenvelope.Reason(""),
		(&okenvelope.T{Reason: "some words: here"}).Prefix())
}
