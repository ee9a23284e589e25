package rfid

import (
	"fmt"
	"github.com/sirupsen/logrus"
	"sync"
	"sync/atomic"
)

// Consumer receives the tag identifier surfaced by a trigger pull. It runs on the relay's dispatch
// goroutine, never on the transport's.
type Consumer func(tagID string)

type Outcome int

const (
	Delivered Outcome = iota
	Ignored
	TransportError
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Ignored:
		return "ignored"
	case TransportError:
		return "transport error"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Result is what happened to a single read notification.
type Result struct {
	Outcome Outcome
	// TagID is set whenever the tag was handed to the consumer queue, even if the purge afterwards failed.
	TagID  string
	Reason string
	Err    error
}

func ignored(reason string) Result {
	return Result{Outcome: Ignored, Reason: reason}
}

const relayQueueSize = 10

// ReasonQueueFull is reported when a successful read is dropped because the consumer has not kept up.
const ReasonQueueFull = "consumer queue full"

var relayLog = logrus.WithField("component", "relay")

// Relay forwards successful reads to the registered consumer and purges the reader queue after every
// notification, so at most one tag reaches the consumer per trigger pull.
type Relay struct {
	purger Purger

	mu       sync.RWMutex
	consumer Consumer

	tags    chan string
	stop    chan struct{}
	done    chan struct{}
	runMu   sync.Mutex
	started bool
	stopped bool

	// set while a consumer call is in progress
	dispatching atomic.Bool
}

func newRelay(p Purger) *Relay {
	return &Relay{
		purger: p,
		tags:   make(chan string, relayQueueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// RegisterConsumer replaces any previously registered consumer.
func (r *Relay) RegisterConsumer(c Consumer) {
	r.mu.Lock()
	r.consumer = c
	r.mu.Unlock()
}

func (r *Relay) currentConsumer() Consumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.consumer
}

func (r *Relay) clear() {
	r.RegisterConsumer(nil)
}

// Handle processes one read notification. It never panics and never returns before the purge has been
// issued.
func (r *Relay) Handle(ev ReadEvent) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Outcome: TransportError, TagID: res.TagID, Err: fmt.Errorf("read notification: %v", p)}
		}
		relayLog.Debugf("Read notification %v: tag %q %v", res.Outcome, res.TagID, res.Reason)
	}()

	res = r.filter(ev)
	if err := r.purger.PurgeTags(); err != nil {
		res.Outcome = TransportError
		res.Err = fmt.Errorf("purge tags: %w", err)
	}
	return res
}

func (r *Relay) filter(ev ReadEvent) Result {
	if r.currentConsumer() == nil {
		return ignored("no consumer registered")
	}
	if ev.Tag == nil {
		return ignored("no tag data attached")
	}
	if ev.Tag.Status != StatusSuccess {
		return ignored(fmt.Sprintf("read status %v", ev.Tag.Status))
	}

	select {
	case <-r.stop:
		return ignored("relay stopped")
	default:
	}

	select {
	case r.tags <- ev.Tag.ID:
		return Result{Outcome: Delivered, TagID: ev.Tag.ID}
	default:
		relayLog.Warnf("Dropped tag %v, consumer is not keeping up", ev.Tag.ID)
		return ignored(ReasonQueueFull)
	}
}

func (r *Relay) start() {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	go r.run()
}

// halt stops the dispatcher. It only waits for the dispatcher to exit when no consumer call is in
// progress, so a consumer may tear the session down from inside its own callback.
func (r *Relay) halt() {
	r.runMu.Lock()
	defer r.runMu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	close(r.stop)
	if r.started && !r.dispatching.Load() {
		<-r.done
	}
}

func (r *Relay) run() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		case id := <-r.tags:
			r.dispatch(id)
		}
	}
}

func (r *Relay) dispatch(id string) {
	r.dispatching.Store(true)
	defer r.dispatching.Store(false)
	c := r.currentConsumer()
	if c == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			relayLog.Debugf("Consumer failed for tag %v: %v", id, p)
		}
	}()
	c(id)
}
