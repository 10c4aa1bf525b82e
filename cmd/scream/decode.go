package main

import (
	"fmt"
	"strings"

	"github.com/Hubmakerlabs/scream/pkg/hex"
	"github.com/Hubmakerlabs/scream/pkg/nostr/bech32encoding"
	"github.com/urfave/cli/v2"
)

var decode = &cli.Command{
	Name:  "decode",
	Usage: "prints the hex event id of a note1 identifier",
	Description: `example usage:
		scream decode note1...
		echo note1... | scream decode`,
	ArgsUsage: "<note1...>",
	Action: func(c *cli.Context) (err error) {
		lines := firstArgOrStdinLines(c, c.App.Reader)
		if len(lines) == 0 {
			return fmt.Errorf("nothing to decode")
		}
		for _, input := range lines {
			input = strings.TrimPrefix(input, "nostr:")
			var id []byte
			if id, err = bech32encoding.DecodeNote(input); err != nil {
				return
			}
			fmt.Fprintln(c.App.Writer, hex.Enc(id))
		}
		return
	},
}
