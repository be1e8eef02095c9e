// internal/failover/notify.go
package failover

import (
	"sync"
	"sync/atomic"
	"time"
)

// ShutdownSignal is the one broadcast that stops every coordinator loop.
// Loops select on Done between iterations, so shutdown is cooperative: an
// in-flight decision completes before its loop exits.
//
// Two implementations exist so the coordinator logic stays independent of the
// scheduling model: a native close-based broadcast, and a cooperative poller
// for single-threaded deployment targets without real blocking waits.
type ShutdownSignal interface {
	// Notify raises the signal. Safe to call more than once.
	Notify()
	// Done returns a channel closed once the signal has been raised.
	Done() <-chan struct{}
}

// notifySignal is the native implementation: a channel closed exactly once.
type notifySignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewShutdownSignal returns the blocking-wait implementation.
func NewShutdownSignal() ShutdownSignal {
	return &notifySignal{ch: make(chan struct{})}
}

func (n *notifySignal) Notify() {
	n.once.Do(func() { close(n.ch) })
}

func (n *notifySignal) Done() <-chan struct{} {
	return n.ch
}

// pollSignal polls a flag on a short interval instead of blocking. The
// goroutine yields between polls, which is the best a cooperative runtime
// can do. The poller starts lazily on the first Done call and exits when the
// flag is raised, so a signal that is never waited on costs nothing. A signal
// that IS waited on must eventually be Notified; its owner holds that
// obligation.
type pollSignal struct {
	raised   atomic.Bool
	interval time.Duration

	startOnce sync.Once
	closeOnce sync.Once
	ch        chan struct{}
}

// NewPollingShutdownSignal returns the poll-with-yield implementation.
func NewPollingShutdownSignal(interval time.Duration) ShutdownSignal {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &pollSignal{interval: interval, ch: make(chan struct{})}
}

func (p *pollSignal) Notify() {
	p.raised.Store(true)
}

func (p *pollSignal) Done() <-chan struct{} {
	p.startOnce.Do(func() { go p.poll() })
	return p.ch
}

func (p *pollSignal) poll() {
	for !p.raised.Load() {
		time.Sleep(p.interval)
	}
	p.closeOnce.Do(func() { close(p.ch) })
}
