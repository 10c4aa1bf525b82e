package slog_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/stretchr/testify/assert"
)

func TestGetLogger(t *testing.T) {
	var buf bytes.Buffer
	log, chk := slog.New(&buf)
	defer slog.SetLogLevel(slog.GetLogLevel())
	slog.SetLogLevel(slog.Trace)
	log.T.Ln("testing log level", slog.LevelSpecs[slog.Trace].Name)
	log.D.Ln("testing log level", slog.LevelSpecs[slog.Debug].Name)
	log.I.Ln("testing log level", slog.LevelSpecs[slog.Info].Name)
	log.W.Ln("testing log level", slog.LevelSpecs[slog.Warn].Name)
	log.E.F("testing log level %s", slog.LevelSpecs[slog.Error].Name)
	assert.True(t, chk.E(errors.New("dummy error as error")))
	assert.False(t, chk.E(nil))
	assert.Error(t, log.I.Err("format string %d '%s'", 5, "testing"))
	log.I.S("`backtick wrapped string`")
	assert.Contains(t, buf.String(), "testing log level TRC")
	assert.Contains(t, buf.String(), "dummy error as error")
	assert.Contains(t, buf.String(), "format string 5 'testing'")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log, chk := slog.New(&buf)
	defer slog.SetLogLevel(slog.GetLogLevel())
	slog.SetLogLevel(slog.Warn)
	log.D.Ln("hidden debug")
	log.I.C(func() string {
		t.Error("closure evaluated below the log level")
		return ""
	})
	// a check below the level still reports the error to the caller
	assert.True(t, chk.T(errors.New("hidden trace")))
	log.W.Ln("visible warning")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible warning")
}

func TestSetLogLevelString(t *testing.T) {
	defer slog.SetLogLevel(slog.GetLogLevel())
	for in, want := range map[string]int{
		"trace": slog.Trace,
		"d":     slog.Debug,
		"INFO":  slog.Info,
		" warn": slog.Warn,
		"e":     slog.Error,
		"off":   slog.Off,
	} {
		assert.True(t, slog.SetLogLevelString(in), in)
		assert.Equal(t, want, slog.GetLogLevel(), in)
	}
	slog.SetLogLevel(slog.Info)
	assert.False(t, slog.SetLogLevelString("verbose"))
	assert.Equal(t, slog.Info, slog.GetLogLevel())
}
