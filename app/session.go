package app

import (
	"net/http"
	"sync/atomic"

	"github.com/Hubmakerlabs/scream/pkg/hex"
	"github.com/Hubmakerlabs/scream/pkg/submission"
	"lukechampine.com/frand"
)

const SessionCookie = "scream_session"

type session struct {
	machine  *submission.Machine
	lastSeen atomic.Int64
	// open /api/events streams, a session being watched is never idle
	streams atomic.Int32
}

func (s *Server) touch(ss *session) { ss.lastSeen.Store(s.clock.Now().UnixNano()) }

func (s *Server) newMachine() *submission.Machine {
	return submission.New(s.Ctx, s.publisher,
		submission.WithClock(s.clock),
		submission.WithConfirmDelay(s.Config.ConfirmDelay),
		submission.WithClearOnSuccess(s.Config.ClearOnSuccess))
}

// session returns the caller's session, creating one and setting the cookie
// if the request carries none that is live.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (ss *session) {
	if ck, err := r.Cookie(SessionCookie); err == nil {
		// touched under the map's lock so a concurrent sweep sees it fresh
		var live bool
		if ss, live = s.sessions.Compute(ck.Value,
			func(old *session, loaded bool) (*session, bool) {
				if !loaded {
					return nil, true
				}
				s.touch(old)
				return old, false
			}); live {
			return
		}
	}
	id := hex.Enc(frand.Bytes(16))
	ss = &session{machine: s.newMachine()}
	s.touch(ss)
	s.sessions.Store(id, ss)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	log.D.F("new session %s from %s, %d open", id, r.RemoteAddr,
		s.sessions.Size())
	return
}

// sweep drops sessions not seen for the session TTL. A session with a
// publish in flight is kept until it settles.
func (s *Server) sweep() {
	defer s.WG.Done()
	ticker := s.clock.Ticker(s.Config.SessionTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.Ctx.Done():
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

func (s *Server) idle(ss *session, cutoff int64) bool {
	return ss.lastSeen.Load() <= cutoff && ss.streams.Load() == 0 &&
		ss.machine.Snapshot().State != submission.Sending
}

func (s *Server) evictIdle() (n int) {
	cutoff := s.clock.Now().Add(-s.Config.SessionTTL).UnixNano()
	s.sessions.Range(func(id string, _ *session) bool {
		var evicted *session
		s.sessions.Compute(id, func(old *session, loaded bool) (*session, bool) {
			if !loaded || !s.idle(old, cutoff) {
				return old, !loaded
			}
			evicted = old
			return nil, true
		})
		if evicted != nil {
			evicted.machine.Close()
			n++
		}
		return true
	})
	if n > 0 {
		log.D.F("evicted %d idle sessions, %d open", n, s.sessions.Size())
	}
	return
}
