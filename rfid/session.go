package rfid

import (
	"context"
	"fmt"
	"github.com/sirupsen/logrus"
	"sync"
)

type State int

const (
	Uninitialized State = iota
	Connected
	Armed
	Disconnected
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Connected:
		return "connected"
	case Armed:
		return "armed"
	case Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Only one session may hold the reader at a time.
var slotLock sync.Mutex
var slotTaken bool

func claimSlot() error {
	slotLock.Lock()
	defer slotLock.Unlock()
	if slotTaken {
		return ErrReaderInUse
	}
	slotTaken = true
	return nil
}

func releaseSlot() {
	slotLock.Lock()
	slotTaken = false
	slotLock.Unlock()
}

var sessionLog = logrus.WithField("component", "session")

// Session owns the connection to the reader. It is created by the caller and connects lazily on the
// first IsConnected or RegisterConsumer call.
type Session struct {
	transport Transport
	endpoint  Endpoint
	policy    TriggerPolicy
	relay     *Relay

	mu    sync.Mutex
	state State
	armed *TriggerPolicy
}

func NewSession(t Transport, endpoint Endpoint, policy TriggerPolicy) *Session {
	return &Session{
		transport: t,
		endpoint:  endpoint,
		policy:    policy,
		relay:     newRelay(t),
	}
}

// IsConnected connects and arms the trigger if that has not happened yet. Any failure along the way is
// returned as an *InitError and nothing is retried. After Disconnect it reports false.
func (s *Session) IsConnected() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureConnected()
}

func (s *Session) ensureConnected() (bool, error) {
	switch s.state {
	case Connected, Armed:
		return true, nil
	case Disconnected:
		return false, nil
	}
	if err := s.initialize(); err != nil {
		return false, err
	}
	return true, nil
}

// RegisterConsumer replaces the consumer that receives tag identifiers, connecting first if needed.
func (s *Session) RegisterConsumer(c Consumer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	connected, err := s.ensureConnected()
	if err != nil {
		return err
	}
	if !connected {
		return ErrNotConnected
	}
	s.relay.RegisterConsumer(c)
	return nil
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Policy returns the trigger policy currently armed on the reader.
func (s *Session) Policy() (TriggerPolicy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.armed == nil {
		return TriggerPolicy{}, false
	}
	return *s.armed, true
}

func (s *Session) initialize() error {
	if err := claimSlot(); err != nil {
		return &InitError{Op: "claim reader", Err: err}
	}

	ctx := context.Background()
	if s.endpoint.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.endpoint.Timeout)
		defer cancel()
	}

	sessionLog.Infof("Connecting to RFID reader at %v", s.endpoint)
	if err := s.transport.Connect(ctx, s.endpoint); err != nil {
		releaseSlot()
		return &InitError{Op: "connect", Err: err}
	}
	s.state = Connected
	s.relay.start()

	relay := s.relay
	if err := s.transport.Subscribe(func(ev ReadEvent) { relay.Handle(ev) }); err != nil {
		s.abort()
		return &InitError{Op: "subscribe read notifications", Err: err}
	}
	if err := s.configure(s.policy); err != nil {
		s.abort()
		return &InitError{Op: "configure trigger", Err: err}
	}
	sessionLog.Infof("RFID reader armed (stop timeout %v)", s.policy.Stop.Timeout)
	return nil
}

// configure arms a standing inventory bound to the trigger policy.
func (s *Session) configure(p TriggerPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.transport.ConfigureTrigger(p); err != nil {
		return err
	}
	s.armed = &p
	s.state = Armed
	return nil
}

// abort undoes a partial initialization. A new relay is prepared so the next attempt starts clean.
func (s *Session) abort() {
	s.teardown()
	s.relay = newRelay(s.transport)
	s.state = Uninitialized
}

// Disconnect releases the reader. It is safe to call at any time, also from inside a consumer; errors
// from the transport are dropped so that shutdown is never blocked.
func (s *Session) Disconnect() {
	s.mu.Lock()
	if s.state != Connected && s.state != Armed {
		s.mu.Unlock()
		return
	}
	sessionLog.Info("RFID reader disconnecting")
	s.state = Disconnected
	s.armed = nil
	relay := s.relay
	s.mu.Unlock()

	// the dispatcher may be running a consumer that calls back into the session, so the lock is not
	// held from here on
	release(s.transport, relay)
	sessionLog.Info("RFID reader disconnected")
}

func (s *Session) teardown() {
	s.armed = nil
	release(s.transport, s.relay)
}

func release(t Transport, relay *Relay) {
	quietly("unsubscribe", t.Unsubscribe)
	relay.clear()
	relay.halt()
	quietly("disconnect", t.Disconnect)
	releaseSlot()
}

func quietly(op string, f func() error) {
	defer func() {
		if p := recover(); p != nil {
			sessionLog.Debugf("Error during %v: %v", op, p)
		}
	}()
	if err := f(); err != nil {
		sessionLog.Debugf("Error during %v: %v", op, err)
	}
}
