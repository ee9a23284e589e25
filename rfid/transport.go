package rfid

import "context"

// ReadHandler receives read notifications. Transports call it from their own goroutine, one event at a
// time, and wait for it to return before reporting the next one.
type ReadHandler func(ReadEvent)

// Purger discards any tags the reader still has queued.
type Purger interface {
	PurgeTags() error
}

// Transport is the reader SDK surface the session drives.
type Transport interface {
	Purger
	Connect(ctx context.Context, endpoint Endpoint) error
	// Subscribe registers the handler for read notifications with tag data attached.
	Subscribe(handler ReadHandler) error
	Unsubscribe() error
	// ConfigureTrigger arms a standing inventory: every press/release cycle produces a new scan window.
	ConfigureTrigger(policy TriggerPolicy) error
	Disconnect() error
}
