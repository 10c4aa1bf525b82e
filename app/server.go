// Package app is the HTTP front end of the publisher: a browser UI drives one
// submission machine per session through a small JSON API.
package app

import (
	"errors"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/Hubmakerlabs/scream/pkg/publisher"
	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/benbjohnson/clock"
	"github.com/gorilla/mux"
	"github.com/puzpuzpuz/xsync/v2"
	"github.com/rs/cors"
	"github.com/sebest/xff"
)

var log, chk = slog.New(os.Stderr)

type Server struct {
	Ctx        context.T
	Cancel     context.F
	WG         *sync.WaitGroup
	Config     *Config
	Addr       string
	publisher  publisher.I
	clock      clock.Clock
	sessions   *xsync.MapOf[string, *session]
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
}

type Option func(s *Server)

// WithPublisher replaces the relay publisher built from the config.
func WithPublisher(p publisher.I) Option { return func(s *Server) { s.publisher = p } }

func WithClock(c clock.Clock) Option { return func(s *Server) { s.clock = c } }

// NewServer creates the API handler. Sessions are swept until c is canceled
// or Shutdown is called.
func NewServer(c context.T, cfg *Config, opts ...Option) (s *Server) {
	s = &Server{
		Config:   cfg,
		WG:       &sync.WaitGroup{},
		clock:    clock.New(),
		sessions: xsync.NewMapOf[*session](),
	}
	s.Ctx, s.Cancel = context.Cancel(c)
	for _, opt := range opts {
		opt(s)
	}
	if s.publisher == nil {
		s.publisher = publisher.New(cfg.Publisher())
	}
	s.router = mux.NewRouter()
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.HandleState).Methods(http.MethodGet)
	api.HandleFunc("/content", s.HandleContent).Methods(http.MethodPut)
	api.HandleFunc("/submit", s.HandleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/events", s.HandleEvents).Methods(http.MethodGet)
	api.HandleFunc("/decode/{note}", s.HandleDecode).Methods(http.MethodGet)
	s.handler = cors.New(cors.Options{
		AllowedOrigins:   cfg.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPut, http.MethodPost},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: len(cfg.Origins) > 0,
	}).Handler(s.router)
	s.WG.Add(1)
	go s.sweep()
	return
}

// ServeHTTP implements http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.Ctx.Done():
		log.W.Ln("shutting down")
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	default:
	}
	log.D.F("%s %s %s", xff.GetRemoteAddr(r), r.Method, r.URL.Path)
	s.handler.ServeHTTP(w, r)
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start(started ...chan bool) (err error) {
	var ln net.Listener
	if ln, err = net.Listen("tcp", s.Config.Listen); chk.E(err) {
		return
	}
	s.Addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:     s,
		Addr:        s.Config.Listen,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 30 * time.Second,
		BaseContext: func(net.Listener) context.T { return s.Ctx },
	}
	log.I.Ln("listening on", s.Addr)
	for _, ch := range started {
		close(ch)
	}
	if err = s.httpServer.Serve(ln); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if chk.E(err) {
		return
	}
	return
}

// Shutdown stops accepting requests, aborts publishes in flight and drops
// every session.
func (s *Server) Shutdown(c context.T) {
	s.Cancel()
	if s.httpServer != nil {
		chk.E(s.httpServer.Shutdown(c))
	}
	s.sessions.Range(func(id string, ss *session) bool {
		ss.machine.Close()
		s.sessions.Delete(id)
		return true
	})
	s.WG.Wait()
}
