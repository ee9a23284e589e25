package rfid

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Onboard reader defaults. The reader is only ever reachable on loopback.
const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 5084
	DefaultTimeout = 5000 * time.Millisecond
)

var (
	ErrReaderInUse  = errors.New("reader already in use")
	ErrUnreachable  = errors.New("reader endpoint unreachable")
	ErrNotConnected = errors.New("reader not connected")
)

// Endpoint is where the reader transport listens.
type Endpoint struct {
	Host    string
	Port    int
	Timeout time.Duration
}

func DefaultEndpoint() Endpoint {
	return Endpoint{Host: DefaultHost, Port: DefaultPort, Timeout: DefaultTimeout}
}

func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%v (timeout %v)", e.Address(), e.Timeout)
}

type OpStatus int

const (
	StatusSuccess OpStatus = 0
	StatusFailure OpStatus = 1
)

func (s OpStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// TagData is the tag payload attached to a read notification.
type TagData struct {
	ID     string
	Status OpStatus
}

// ReadEvent is a single read notification from the transport. Tag is nil
// when the transport did not attach tag data to the event.
type ReadEvent struct {
	Tag *TagData
}

// TriggerEvent is a press or release of the handheld trigger.
type TriggerEvent struct {
	Pressed bool
}

// InitError wraps any failure during session construction.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("rfid reader initialization error: %v: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
