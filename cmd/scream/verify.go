package main

import (
	"fmt"

	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/urfave/cli/v2"
)

var verify = &cli.Command{
	Name:  "verify",
	Usage: "checks the hash and signature of an event given as JSON",
	Description: `reads the event from the argument or one event per line of stdin:
		scream verify '{"id":...}'

it outputs nothing if the verification is successful.`,
	ArgsUsage: "[event json]",
	Action: func(c *cli.Context) (err error) {
		lines := firstArgOrStdinLines(c, c.App.Reader)
		if len(lines) == 0 {
			return fmt.Errorf("no event to verify")
		}
		for _, line := range lines {
			var ev event.T
			if err = ev.UnmarshalJSON([]byte(line)); err != nil {
				return fmt.Errorf("invalid event: %w", err)
			}
			if !ev.CheckID() {
				return fmt.Errorf("invalid .id, expected %s, got %s",
					ev.GetID(), ev.ID)
			}
			var ok bool
			if ok, err = ev.CheckSignature(); err != nil {
				return fmt.Errorf("invalid signature: %w", err)
			}
			if !ok {
				return fmt.Errorf("invalid signature")
			}
		}
		return
	},
}
