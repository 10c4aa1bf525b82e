package submission

import "fmt"

// State is the phase of a submission as shown to the user.
type State int

const (
	// Idle accepts edits and a submit.
	Idle State = iota
	// Sending has a publish in flight, the content is read only.
	Sending
	// Confirming shows the success notice until the confirm delay elapses.
	Confirming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Confirming:
		return "confirming"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Event drives a transition.
type Event int

const (
	Submit Event = iota
	Succeeded
	Failed
	Elapsed
)

func (e Event) String() string {
	switch e {
	case Submit:
		return "submit"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Elapsed:
		return "elapsed"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Next returns the state reached from s on e, and false if e is not
// accepted in s, in which case s is returned unchanged.
func Next(s State, e Event) (State, bool) {
	switch {
	case s == Idle && e == Submit:
		return Sending, true
	case s == Sending && e == Succeeded:
		return Confirming, true
	case s == Sending && e == Failed:
		return Idle, true
	case s == Confirming && e == Elapsed:
		return Idle, true
	}
	return s, false
}
