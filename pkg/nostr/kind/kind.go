package kind

// T - which will be externally referenced as kind.T is the event type in the
// nostr protocol, the use of the capital T signifying type, consistent with Go
// idiom.
type T uint16

func (ki T) ToInt() int       { return int(ki) }
func (ki T) ToUint16() uint16 { return uint16(ki) }

const (
	// ProfileMetadata is an event type that stores user profile data.
	ProfileMetadata T = 0
	// TextNote is a standard short text note of plain text a la twitter
	TextNote T = 1
)

var names = map[T]string{
	ProfileMetadata: "ProfileMetadata",
	TextNote:        "TextNote",
}

func (ki T) String() string {
	if n, ok := names[ki]; ok {
		return n
	}
	return "Unknown"
}
