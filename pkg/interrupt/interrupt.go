// Package interrupt runs registered shutdown handlers once, on SIGINT, SIGTERM
// or a programmatic request.
package interrupt

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/Hubmakerlabs/scream/pkg/slog"
)

var log, chk = slog.New(os.Stderr)

type HandlerWithSource struct {
	Source string
	Fn     func()
}

var (
	requested atomic.Bool

	// signals is the list of signals that cause the interrupt
	signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

	// ch is used to receive signals.
	ch chan os.Signal

	// shutdownRequest is closed by Request.
	shutdownRequest = make(chan struct{})
	requestOnce     sync.Once

	// addHandlerChan is used to add an interrupt handler to the list of
	// handlers to be invoked on an interrupt.
	addHandlerChan = make(chan HandlerWithSource)

	// HandlersDone is closed after all interrupt handlers run the first time
	// an interrupt is signaled.
	HandlersDone = make(chan struct{})

	startOnce sync.Once

	interruptCallbacks       []func()
	interruptCallbackSources []string
)

// Listener listens for interrupt signals, registers interrupt callbacks,
// and responds to custom shutdown signals as required
func Listener() {
	invokeCallbacks := func() {
		log.D.Ln("running interrupt callbacks", len(interruptCallbacks),
			interruptCallbackSources)
		// run handlers in LIFO order.
		for i := range interruptCallbacks {
			idx := len(interruptCallbacks) - 1 - i
			log.D.Ln("running callback", idx, interruptCallbackSources[idx])
			interruptCallbacks[idx]()
		}
		log.D.Ln("interrupt handlers finished")
		close(HandlersDone)
	}
	for {
		select {
		case sig := <-ch:
			log.I.Ln("received interrupt signal", sig)
			requested.Store(true)
			invokeCallbacks()
			return
		case <-shutdownRequest:
			log.W.Ln("received shutdown request - shutting down...")
			invokeCallbacks()
			return
		case handler := <-addHandlerChan:
			interruptCallbacks = append(interruptCallbacks, handler.Fn)
			interruptCallbackSources = append(interruptCallbackSources,
				handler.Source)
		}
	}
}

func start() {
	startOnce.Do(func() {
		ch = make(chan os.Signal, 1)
		signal.Notify(ch, signals...)
		go Listener()
	})
}

// AddHandler adds a handler to call when an interrupt is received. Handlers
// added after the interrupt has been handled are not run.
func AddHandler(handler func()) {
	start()
	_, loc, line, _ := runtime.Caller(1)
	msg := fmt.Sprintf("%s:%d", loc, line)
	log.T.Ln("handler added by:", msg)
	select {
	case addHandlerChan <- HandlerWithSource{msg, handler}:
	case <-HandlersDone:
		log.W.Ln("interrupt already handled, not adding handler from", msg)
	}
}

// Request programmatically requests a shutdown
func Request() {
	start()
	_, f, l, _ := runtime.Caller(1)
	log.D.Ln("interrupt requested", f, l, requested.Load())
	requested.Store(true)
	requestOnce.Do(func() { close(shutdownRequest) })
}

// Requested returns true if an interrupt has been requested
func Requested() bool { return requested.Load() }

// GoroutineDump returns a string with the current goroutine dump in order to
// show what's going on in case of timeout.
func GoroutineDump() string {
	buf := make([]byte, 1<<18)
	n := runtime.Stack(buf, true)
	return string(buf[:n])
}
