package rfid

import (
	"context"
	"errors"
	"sync"
)

type fakeTransport struct {
	mu sync.Mutex

	connectErr   error
	subscribeErr error
	triggerErr   error
	purgeErr     error
	closeErr     error

	connects     int
	subscribes   int
	unsubscribes int
	triggers     int
	purges       int
	disconnects  int

	endpoint Endpoint
	policy   *TriggerPolicy
	handler  ReadHandler
}

func (f *fakeTransport) Connect(ctx context.Context, endpoint Endpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
	f.endpoint = endpoint
	return f.connectErr
}

func (f *fakeTransport) Subscribe(handler ReadHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes++
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	f.handler = handler
	return nil
}

func (f *fakeTransport) Unsubscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes++
	f.handler = nil
	return f.closeErr
}

func (f *fakeTransport) ConfigureTrigger(policy TriggerPolicy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.policy = &policy
	return nil
}

func (f *fakeTransport) PurgeTags() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purges++
	return f.purgeErr
}

func (f *fakeTransport) Disconnect() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return f.closeErr
}

// fire delivers a read notification the way a transport does, on the caller's goroutine.
func (f *fakeTransport) fire(id string, status OpStatus) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h == nil {
		panic(errors.New("no handler subscribed"))
	}
	h(ReadEvent{Tag: &TagData{ID: id, Status: status}})
}

func (f *fakeTransport) counts() (connects, triggers, purges, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.triggers, f.purges, f.disconnects
}
