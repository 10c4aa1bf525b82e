// Package submission tracks a single compose box through sending a note and
// showing the confirmation, one publish at a time.
package submission

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/Hubmakerlabs/scream/pkg/context"
	"github.com/Hubmakerlabs/scream/pkg/nostr/event"
	"github.com/Hubmakerlabs/scream/pkg/publisher"
	"github.com/Hubmakerlabs/scream/pkg/slog"
	"github.com/benbjohnson/clock"
)

var log, chk = slog.New(os.Stderr)

// DefaultConfirmDelay is how long the success notice is shown.
const DefaultConfirmDelay = 4 * time.Second

var (
	ErrBusy   = errors.New("a submission is already in progress")
	ErrClosed = errors.New("submission machine is closed")
)

// Snapshot is a consistent view of a Machine. Err is the reason the last
// submission failed, and is cleared by the next submit.
type Snapshot struct {
	State   State
	Content string
	Result  *publisher.Result
	Err     error
}

type Option func(m *Machine)

func WithConfirmDelay(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.confirmDelay = d
		}
	}
}

// WithClearOnSuccess sets whether the content is emptied after a successful
// publish, the default is true.
func WithClearOnSuccess(clear bool) Option {
	return func(m *Machine) { m.clearOnSuccess = clear }
}

func WithClock(c clock.Clock) Option {
	return func(m *Machine) {
		if c != nil {
			m.clock = c
		}
	}
}

type Machine struct {
	mx             sync.Mutex
	pub            publisher.I
	clock          clock.Clock
	confirmDelay   time.Duration
	clearOnSuccess bool
	state          State
	content        string
	result         *publisher.Result
	err            error
	timer          *clock.Timer
	subs           map[chan Snapshot]struct{}
	closed         bool
	ctx            context.T
	cancel         context.F
	wg             sync.WaitGroup
}

// New creates a Machine in Idle that publishes with pub. Publishes are
// aborted when c is canceled or the Machine is closed.
func New(c context.T, pub publisher.I, opts ...Option) (m *Machine) {
	m = &Machine{
		pub:            pub,
		clock:          clock.New(),
		confirmDelay:   DefaultConfirmDelay,
		clearOnSuccess: true,
		subs:           make(map[chan Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.ctx, m.cancel = context.Cancel(c)
	return
}

func (m *Machine) Snapshot() Snapshot {
	m.mx.Lock()
	defer m.mx.Unlock()
	return m.snapshot()
}

func (m *Machine) snapshot() Snapshot {
	return Snapshot{State: m.state, Content: m.content, Result: m.result,
		Err: m.err}
}

// SetContent replaces the text to be sent. It is refused while sending.
func (m *Machine) SetContent(content string) (err error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.state == Sending {
		return ErrBusy
	}
	m.content = content
	m.notify()
	return
}

// Submit starts publishing the current content and returns without waiting
// for the relay. Only an Idle machine with non-empty content accepts it,
// otherwise nothing changes.
func (m *Machine) Submit() (err error) {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.state != Idle {
		return ErrBusy
	}
	if err = event.CheckContent(m.content); err != nil {
		return
	}
	m.transition(Submit)
	m.err = nil
	content := m.content
	m.wg.Add(1)
	go m.run(content)
	m.notify()
	return
}

func (m *Machine) run(content string) {
	defer m.wg.Done()
	res, err := m.pub.Publish(m.ctx, content)
	m.mx.Lock()
	defer m.mx.Unlock()
	if err != nil {
		log.W.F("submission failed: %v", err)
		m.err = err
		m.transition(Failed)
		m.notify()
		return
	}
	m.result = res
	if m.clearOnSuccess {
		m.content = ""
	}
	m.transition(Succeeded)
	if !m.closed {
		m.timer = m.clock.AfterFunc(m.confirmDelay, m.elapse)
	}
	m.notify()
}

func (m *Machine) elapse() {
	m.mx.Lock()
	defer m.mx.Unlock()
	m.timer = nil
	if m.state != Confirming {
		return
	}
	m.transition(Elapsed)
	m.notify()
}

// transition must be called with the lock held.
func (m *Machine) transition(e Event) {
	next, ok := Next(m.state, e)
	if !ok {
		log.E.F("ignoring %s in state %s", e, m.state)
		return
	}
	log.D.F("%s: %s -> %s", e, m.state, next)
	m.state = next
}

// Subscribe returns a channel carrying the latest snapshot after every
// change. A slow reader only misses intermediate snapshots. The channel is
// closed by cancel or Close.
func (m *Machine) Subscribe() (ch <-chan Snapshot, cancel func()) {
	m.mx.Lock()
	defer m.mx.Unlock()
	c := make(chan Snapshot, 1)
	if m.closed {
		close(c)
		return c, func() {}
	}
	m.subs[c] = struct{}{}
	c <- m.snapshot()
	return c, func() {
		m.mx.Lock()
		defer m.mx.Unlock()
		if _, ok := m.subs[c]; ok {
			delete(m.subs, c)
			close(c)
		}
	}
}

// notify must be called with the lock held.
func (m *Machine) notify() {
	s := m.snapshot()
	for c := range m.subs {
		select {
		case <-c:
		default:
		}
		select {
		case c <- s:
		default:
		}
	}
}

// Close aborts a publish in flight, stops the confirmation timer and closes
// subscriptions. It waits for the publish goroutine to finish.
func (m *Machine) Close() {
	m.mx.Lock()
	if m.closed {
		m.mx.Unlock()
		return
	}
	m.closed = true
	m.cancel()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.mx.Unlock()
	m.wg.Wait()
	m.mx.Lock()
	defer m.mx.Unlock()
	for c := range m.subs {
		delete(m.subs, c)
		close(c)
	}
}
