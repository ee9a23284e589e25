package rfid

import (
	"context"
	"errors"
	"fmt"
	"github.com/sirupsen/logrus"
	"net"
	"sync"
	"time"
)

const DefaultReadInterval = 50 * time.Millisecond

var simLog = logrus.WithField("component", "simulator")

type SimulatorOption func(*Simulator)

// WithReadInterval sets how often a tag from the open scan window is reported.
func WithReadInterval(d time.Duration) SimulatorOption {
	return func(s *Simulator) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithFailEvery makes every nth report a failed read. 0 disables failures.
func WithFailEvery(n int) SimulatorOption {
	return func(s *Simulator) {
		if n >= 0 {
			s.failEvery = n
		}
	}
}

// Simulator is a Transport that runs a trigger driven inventory against a fixed set of tags in range of
// the antenna. Trigger presses and releases come from the given channel.
type Simulator struct {
	trigger   <-chan TriggerEvent
	tags      []string
	interval  time.Duration
	failEvery int

	mu        sync.Mutex
	connected bool
	handler   ReadHandler
	policy    *TriggerPolicy
	window    bool
	queue     []string
	reads     int
	stop      chan struct{}
	done      chan struct{}
}

func NewSimulator(trigger <-chan TriggerEvent, tags []string, opts ...SimulatorOption) *Simulator {
	s := &Simulator{
		trigger:  trigger,
		tags:     append([]string(nil), tags...),
		interval: DefaultReadInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Connect fails with the context error if the context is done before the simulator is marked connected.
func (s *Simulator) Connect(ctx context.Context, endpoint Endpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !isLoopback(endpoint.Host) {
		return fmt.Errorf("%w: %v", ErrUnreachable, endpoint.Address())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.connected {
		return errors.New("simulator already connected")
	}
	s.connected = true
	s.policy = nil
	s.window = false
	s.queue = nil
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)

	simLog.Debugf("Connected on %v with %v tags in range", endpoint.Address(), len(s.tags))
	return nil
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func (s *Simulator) Subscribe(handler ReadHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	s.handler = handler
	return nil
}

func (s *Simulator) Unsubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	s.handler = nil
	return nil
}

func (s *Simulator) ConfigureTrigger(policy TriggerPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	s.policy = &policy
	s.window = false
	s.queue = nil
	if policy.Start.Type == StartImmediate {
		s.openWindowLocked()
	}
	return nil
}

func (s *Simulator) PurgeTags() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}
	s.queue = nil
	return nil
}

func (s *Simulator) Disconnect() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return ErrNotConnected
	}
	s.connected = false
	s.handler = nil
	s.policy = nil
	s.window = false
	s.queue = nil
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	simLog.Debug("Disconnected")
	return nil
}

func (s *Simulator) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	trigger := s.trigger
	var expire <-chan time.Time
	var timer *time.Timer
	stopTimer := func() {
		if timer != nil {
			timer.Stop()
			timer, expire = nil, nil
		}
	}
	defer stopTimer()

	for {
		select {
		case <-stop:
			return
		case ev, ok := <-trigger:
			if !ok {
				trigger = nil
				continue
			}
			opened, timeout := s.onTrigger(ev)
			if opened {
				stopTimer()
				if timeout > 0 {
					timer = time.NewTimer(timeout)
					expire = timer.C
				}
			} else if !s.windowOpen() {
				stopTimer()
			}
		case <-expire:
			timer, expire = nil, nil
			s.closeWindow("stop timeout")
		case <-ticker.C:
			s.report()
		}
	}
}

func (s *Simulator) onTrigger(ev TriggerEvent) (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == nil {
		return false, 0
	}
	if !s.window && s.policy.opens(ev) {
		s.openWindowLocked()
		return true, s.policy.Stop.Timeout
	}
	if s.window && s.policy.closes(ev) {
		s.closeWindowLocked("trigger")
	}
	return false, 0
}

func (s *Simulator) openWindowLocked() {
	s.window = true
	s.queue = append([]string(nil), s.tags...)
	simLog.Debugf("Scan window opened, %v tags buffered", len(s.queue))
}

func (s *Simulator) closeWindow(reason string) {
	s.mu.Lock()
	s.closeWindowLocked(reason)
	s.mu.Unlock()
}

func (s *Simulator) closeWindowLocked(reason string) {
	if !s.window {
		return
	}
	s.window = false
	s.queue = nil
	simLog.Debugf("Scan window closed by %v", reason)
}

func (s *Simulator) windowOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// report hands the next buffered tag to the handler. The handler runs without the lock held so it can
// call back into PurgeTags.
func (s *Simulator) report() {
	s.mu.Lock()
	if !s.window || len(s.queue) == 0 || s.handler == nil {
		s.mu.Unlock()
		return
	}
	id := s.queue[0]
	s.queue = s.queue[1:]
	s.reads++
	status := StatusSuccess
	if s.failEvery > 0 && s.reads%s.failEvery == 0 {
		status = StatusFailure
	}
	h := s.handler
	s.mu.Unlock()

	h(ReadEvent{Tag: &TagData{ID: id, Status: status}})
}
