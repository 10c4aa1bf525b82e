package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Hubmakerlabs/scream/pkg/hex"
	"github.com/Hubmakerlabs/scream/pkg/nostr/bech32encoding"
	"github.com/Hubmakerlabs/scream/pkg/nostr/client"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/nostr/keys"
	"github.com/Hubmakerlabs/scream/pkg/submission"
	"github.com/gorilla/mux"
)

// State is the JSON form of a submission snapshot.
type State struct {
	State     submission.State `json:"state"`
	Content   string           `json:"content"`
	Note      string           `json:"note,omitempty"`
	ID        string           `json:"id,omitempty"`
	Author    string           `json:"author,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"`
}

func NewState(snap submission.Snapshot) (st State) {
	st = State{State: snap.State, Content: snap.Content}
	if snap.Result != nil {
		st.Note = snap.Result.Note
		st.ID = snap.Result.IDHex
		st.Author = snap.Result.Author
	}
	if snap.Err != nil {
		st.Error = snap.Err.Error()
		st.ErrorKind = ErrorKind(snap.Err)
	}
	return
}

// ErrorKind classifies a submission error for display.
func ErrorKind(err error) string {
	var ce *client.ConnectionError
	var re *client.RejectedError
	var ee *bech32encoding.EncodingError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &re):
		return "rejected"
	case errors.Is(err, client.ErrPublishTimeout):
		return "timeout"
	case errors.As(err, &ce):
		return "connection"
	case errors.Is(err, keys.ErrEntropyUnavailable):
		return "entropy"
	case event.IsContentError(err):
		return "content"
	case errors.As(err, &ee):
		return "encoding"
	case errors.Is(err, submission.ErrBusy):
		return "busy"
	}
	return "internal"
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	chk.D(json.NewEncoder(w).Encode(v))
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error(), Kind: ErrorKind(err)})
}

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	ss := s.session(w, r)
	writeJSON(w, http.StatusOK, NewState(ss.machine.Snapshot()))
}

type contentRequest struct {
	Content string `json:"content"`
}

func (s *Server) HandleContent(w http.ResponseWriter, r *http.Request) {
	ss := s.session(w, r)
	var req contentRequest
	b, err := io.ReadAll(io.LimitReader(r.Body, event.MaxContentLength*8))
	if chk.D(err) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err = json.Unmarshal(b, &req); err != nil {
		writeError(w, http.StatusBadRequest,
			fmt.Errorf("invalid content request: %w", err))
		return
	}
	if err = ss.machine.SetContent(req.Content); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, NewState(ss.machine.Snapshot()))
}

func (s *Server) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ss := s.session(w, r)
	if err := ss.machine.Submit(); err != nil {
		code := http.StatusConflict
		if event.IsContentError(err) {
			code = http.StatusUnprocessableEntity
		}
		writeError(w, code, err)
		return
	}
	writeJSON(w, http.StatusAccepted, NewState(ss.machine.Snapshot()))
}

// HandleEvents streams the session's state as server-sent events until the
// client goes away.
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ss := s.session(w, r)
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError,
			errors.New("streaming unsupported"))
		return
	}
	ss.streams.Add(1)
	defer func() {
		ss.streams.Add(-1)
		s.touch(ss)
	}()
	updates, cancel := ss.machine.Subscribe()
	defer cancel()
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case snap, open := <-updates:
			if !open {
				return
			}
			b, err := json.Marshal(NewState(snap))
			if chk.E(err) {
				return
			}
			if _, err = fmt.Fprintf(w, "data: %s\n\n", b); chk.D(err) {
				return
			}
			flusher.Flush()
			s.touch(ss)
		}
	}
}

type decodeResponse struct {
	ID string `json:"id"`
}

func (s *Server) HandleDecode(w http.ResponseWriter, r *http.Request) {
	id, err := bech32encoding.DecodeNote(mux.Vars(r)["note"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, decodeResponse{ID: hex.Enc(id)})
}
