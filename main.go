// Command screamd serves the anonymous note publisher to browser front ends.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Hubmakerlabs/scream/app"
	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/Hubmakerlabs/scream/pkg/interrupt"
	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/alexflint/go-arg"
)

var (
	AppName = "screamd"
	Version = "v0.0.1"
)

func main() {
	var log, chk = slog.New(os.Stderr)
	cfg, p, err := app.ParseConfig(os.Args[1:])
	switch {
	case errors.Is(err, arg.ErrHelp):
		p.WriteHelp(os.Stdout)
		os.Exit(0)
	case err != nil:
		if p != nil {
			p.Fail(err.Error())
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !slog.SetLogLevelString(cfg.LogLevel) {
		log.W.F("unknown log level '%s'", cfg.LogLevel)
	}
	log.T.S(cfg)
	if cfg.InitCfgCmd != nil {
		if cfg.ConfigFile == "" {
			log.F.Ln("initcfg needs a config file path, use --config")
			os.Exit(1)
		}
		if err = cfg.Save(cfg.ConfigFile); chk.E(err) {
			log.F.F("failed to write configuration: '%s'", err)
			os.Exit(1)
		}
		log.I.Ln("wrote configuration to", cfg.ConfigFile)
		return
	}
	log.I.F("%s %s publishing to %s over %s", AppName, Version, cfg.Relay,
		cfg.Transport)
	srv := app.NewServer(context.Bg(), cfg)
	interrupt.AddHandler(func() {
		c, cancel := context.Timeout(context.Bg(), 5*time.Second)
		defer cancel()
		done := make(chan struct{})
		go func() {
			srv.Shutdown(c)
			close(done)
		}()
		select {
		case <-done:
		case <-c.Done():
			log.E.Ln("shutdown timed out, still running:")
			log.E.Ln(interrupt.GoroutineDump())
		}
	})
	if err = srv.Start(); chk.E(err) {
		os.Exit(1)
	}
	<-interrupt.HandlersDone
}
