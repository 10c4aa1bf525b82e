package main

import (
	"fmt"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/nostr/connection"
	"github.com/Hubmakerlabs/scream/pkg/publisher"
	"github.com/mdp/qrterminal/v3"
	"github.com/urfave/cli/v2"
)

var send = &cli.Command{
	Name:  "send",
	Usage: "publishes a note under a new one-time identity",
	Description: `the text is taken from the arguments, or from stdin when there are none:
		scream send hello world
		echo "hello world" | scream send --qr`,
	ArgsUsage: "[text...]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "relay",
			Aliases: []string{"r"},
			Usage:   "relay to publish to",
			Value:   publisher.DefaultRelay,
			EnvVars: []string{"SCREAM_RELAY"},
		},
		&cli.StringFlag{
			Name:    "transport",
			Aliases: []string{"t"},
			Usage:   "websocket implementation [gobwas,fasthttp,gorilla]",
			Value:   string(connection.Default),
			EnvVars: []string{"SCREAM_TRANSPORT"},
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "how long to wait for the relay to acknowledge the note",
			Value: 4 * time.Second,
		},
		&cli.BoolFlag{
			Name:  "qr",
			Usage: "also print the note id as a QR code",
		},
		&cli.BoolFlag{
			Name:  "author",
			Usage: "also print the one-time npub the note was signed with",
		},
	},
	Action: func(c *cli.Context) (err error) {
		var content string
		if content, err = argsOrStdin(c, c.App.Reader); err != nil {
			return
		}
		var t connection.Transport
		if t, err = connection.ParseTransport(c.String("transport")); err != nil {
			return
		}
		p := publisher.New(publisher.Config{
			RelayURL:       c.String("relay"),
			Transport:      t,
			PublishTimeout: c.Duration("timeout"),
		})
		var res *publisher.Result
		if res, err = p.Publish(c.Context, content); err != nil {
			return
		}
		out := c.App.Writer
		fmt.Fprintln(out, res.Note)
		if c.Bool("author") {
			fmt.Fprintln(out, res.Author)
		}
		if c.Bool("qr") {
			qrterminal.GenerateWithConfig("nostr:"+res.Note, qrterminal.Config{
				HalfBlocks: false,
				Level:      qrterminal.L,
				Writer:     out,
				WhiteChar:  qrterminal.WHITE,
				BlackChar:  qrterminal.BLACK,
				QuietZone:  2,
			})
		}
		log.D.Ln("sent", res.IDHex)
		return
	},
}
