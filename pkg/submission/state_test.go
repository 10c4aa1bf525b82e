package submission

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	allowed := map[State]map[Event]State{
		Idle:       {Submit: Sending},
		Sending:    {Succeeded: Confirming, Failed: Idle},
		Confirming: {Elapsed: Idle},
	}
	for _, s := range []State{Idle, Sending, Confirming} {
		for _, e := range []Event{Submit, Succeeded, Failed, Elapsed} {
			next, ok := Next(s, e)
			want, accept := allowed[s][e]
			assert.Equal(t, accept, ok, "%s on %s", e, s)
			if accept {
				assert.Equal(t, want, next, "%s on %s", e, s)
			} else {
				assert.Equal(t, s, next, "%s on %s", e, s)
			}
		}
	}
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "confirming", Confirming.String())
	assert.Equal(t, "elapsed", Elapsed.String())
	assert.Equal(t, "state(7)", State(7).String())
	b, err := Sending.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "sending", string(b))
}
