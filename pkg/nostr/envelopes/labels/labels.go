// Package labels holds the sentinel strings that open every nostr envelope.
package labels

const (
	EVENT  = "EVENT"
	OK     = "OK"
	NOTICE = "NOTICE"
	CLOSED = "CLOSED"
	EOSE   = "EOSE"
	AUTH   = "AUTH"
	REQ    = "REQ"
	CLOSE  = "CLOSE"
	COUNT  = "COUNT"
)
