package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/nostr/connection"
	"github.com/Hubmakerlabs/scream/pkg/nostr/normalize"
	"github.com/Hubmakerlabs/scream/pkg/publisher"
	"github.com/alexflint/go-arg"
)

type InitCfg struct{}

type Config struct {
	InitCfgCmd     *InitCfg      `arg:"subcommand:initcfg" json:"-" help:"write the effective configuration to the config file and exit"`
	ConfigFile     string        `arg:"-c,--config,env:SCREAM_CONFIG" json:"-" help:"JSON configuration file, flags and environment override it"`
	Listen         string        `arg:"-l,--listen,env:SCREAM_LISTEN" json:"listen" help:"network address to listen on"`
	Relay          string        `arg:"-r,--relay,env:SCREAM_RELAY" json:"relay" help:"relay notes are published to"`
	Transport      string        `arg:"-t,--transport,env:SCREAM_TRANSPORT" json:"transport" help:"websocket implementation [gobwas,fasthttp,gorilla]"`
	ConnectTimeout time.Duration `arg:"--connecttimeout" json:"connect_timeout" help:"limit on opening the relay connection"`
	PublishTimeout time.Duration `arg:"--publishtimeout" json:"publish_timeout" help:"limit on waiting for the relay to acknowledge a note"`
	ConfirmDelay   time.Duration `arg:"--confirmdelay" json:"confirm_delay" help:"how long the sent notice is shown"`
	ClearOnSuccess bool          `arg:"--clear" json:"clear_on_success" help:"empty the compose box after a note is sent"`
	SessionTTL     time.Duration `arg:"--sessionttl" json:"session_ttl" help:"idle time after which a browser session is dropped"`
	Origins        []string      `arg:"-o,--origin,separate" json:"origins" help:"origins allowed to call the API from a browser, any when empty"`
	LogLevel       string        `arg:"--loglevel,env:SCREAM_LOGLEVEL" json:"log_level" help:"set log level [off,fatal,error,warn,info,debug,trace]"`
}

// DefaultConfig returns the settings used for anything not given in a config
// file, flag or environment variable.
func DefaultConfig() Config {
	return Config{
		Listen:         "127.0.0.1:3335",
		Relay:          publisher.DefaultRelay,
		Transport:      string(connection.Default),
		ConnectTimeout: 7 * time.Second,
		PublishTimeout: 4 * time.Second,
		ConfirmDelay:   4 * time.Second,
		ClearOnSuccess: true,
		SessionTTL:     30 * time.Minute,
		LogLevel:       "info",
	}
}

// ParseConfig builds the configuration from the defaults, the config file
// named by args or the environment, and then args. It returns arg.ErrHelp
// when help was requested.
func ParseConfig(args []string) (cfg *Config, p *arg.Parser, err error) {
	pre := DefaultConfig()
	if p, err = arg.NewParser(arg.Config{Program: "screamd"}, &pre); chk.E(err) {
		return
	}
	if err = p.Parse(args); err != nil {
		return
	}
	c := DefaultConfig()
	if pre.ConfigFile != "" && pre.InitCfgCmd == nil {
		if err = c.Load(pre.ConfigFile); err != nil {
			return
		}
	}
	if p, err = arg.NewParser(arg.Config{Program: "screamd"}, &c); chk.E(err) {
		return
	}
	if err = p.Parse(args); err != nil {
		return
	}
	if err = c.Validate(); err != nil {
		return
	}
	return &c, p, nil
}

// Validate normalizes the relay URL and checks the transport name.
func (c *Config) Validate() (err error) {
	if c.Relay, err = normalize.RelayURL(c.Relay); err != nil {
		return
	}
	var t connection.Transport
	if t, err = connection.ParseTransport(c.Transport); err != nil {
		return
	}
	c.Transport = string(t)
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %v", c.SessionTTL)
	}
	return
}

// Publisher returns the publish settings of c.
func (c *Config) Publisher() publisher.Config {
	return publisher.Config{
		RelayURL:       c.Relay,
		Transport:      connection.Transport(c.Transport),
		ConnectTimeout: c.ConnectTimeout,
		PublishTimeout: c.PublishTimeout,
	}
}

// duration is a time.Duration written to the config file as text such as
// "4s". Plain nanosecond counts are still read.
type duration time.Duration

func (d duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *duration) UnmarshalJSON(b []byte) (err error) {
	var s string
	if err = json.Unmarshal(b, &s); err != nil {
		var ns int64
		if json.Unmarshal(b, &ns) != nil {
			return fmt.Errorf("invalid duration %s", b)
		}
		*d = duration(ns)
		return nil
	}
	var v time.Duration
	if v, err = time.ParseDuration(s); err != nil {
		return
	}
	*d = duration(v)
	return
}

type configJSON Config

// configFile is the on disk form of Config, its fields shadow the durations.
type configFile struct {
	*configJSON
	ConnectTimeout duration `json:"connect_timeout"`
	PublishTimeout duration `json:"publish_timeout"`
	ConfirmDelay   duration `json:"confirm_delay"`
	SessionTTL     duration `json:"session_ttl"`
}

func (c *Config) file() *configFile {
	return &configFile{
		configJSON:     (*configJSON)(c),
		ConnectTimeout: duration(c.ConnectTimeout),
		PublishTimeout: duration(c.PublishTimeout),
		ConfirmDelay:   duration(c.ConfirmDelay),
		SessionTTL:     duration(c.SessionTTL),
	}
}

func (c Config) MarshalJSON() ([]byte, error) { return json.Marshal(c.file()) }

func (c *Config) UnmarshalJSON(b []byte) (err error) {
	f := c.file()
	if err = json.Unmarshal(b, f); err != nil {
		return
	}
	c.ConnectTimeout = time.Duration(f.ConnectTimeout)
	c.PublishTimeout = time.Duration(f.PublishTimeout)
	c.ConfirmDelay = time.Duration(f.ConfirmDelay)
	c.SessionTTL = time.Duration(f.SessionTTL)
	return
}

func (c *Config) Save(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot save nil config")
		log.E.Ln(err)
		return
	}
	var b []byte
	if b, err = json.MarshalIndent(c, "", "    "); chk.E(err) {
		return
	}
	if err = os.WriteFile(filename, b, 0600); chk.E(err) {
		return
	}
	return
}

func (c *Config) Load(filename string) (err error) {
	if c == nil {
		err = errors.New("cannot load into nil config")
		chk.E(err)
		return
	}
	var b []byte
	if b, err = os.ReadFile(filename); chk.E(err) {
		return
	}
	log.T.F("configuration\n%s", string(b))
	if err = json.Unmarshal(b, c); chk.E(err) {
		return
	}
	return
}
