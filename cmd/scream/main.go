package main

import (
	"fmt"
	"os"

	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/urfave/cli/v2"
)

var log, chk = slog.New(os.Stderr)

var app = &cli.App{
	Name:  "scream",
	Usage: "publish anonymous notes to a nostr relay",
	Commands: []*cli.Command{
		send,
		decode,
		verify,
	},
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "silent",
			Usage:   "do not print logs and info messages to stderr",
			Aliases: []string{"s"},
			Action: func(ctx *cli.Context, b bool) error {
				if b {
					slog.SetLogLevel(slog.Off)
				}
				return nil
			},
		},
		&cli.StringFlag{
			Name:    "loglevel",
			Usage:   "set log level [off,fatal,error,warn,info,debug,trace]",
			EnvVars: []string{slog.EnvLevel},
			Action: func(ctx *cli.Context, s string) error {
				if !slog.SetLogLevelString(s) {
					return fmt.Errorf("unknown log level '%s'", s)
				}
				return nil
			},
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
