package rfid

import (
	"context"
	"fmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

type readRecorder struct {
	mu    sync.Mutex
	reads []TagData
}

func (r *readRecorder) handle(ev ReadEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads = append(r.reads, *ev.Tag)
}

func (r *readRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reads)
}

func (r *readRecorder) all() []TagData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]TagData(nil), r.reads...)
}

func manyTags(n int) []string {
	var tags []string
	for i := 0; i < n; i++ {
		tags = append(tags, fmt.Sprintf("E20034120000%04d", i))
	}
	return tags
}

func TestSimulatorRejectsRemoteEndpoint(t *testing.T) {
	s := NewSimulator(nil, nil)
	err := s.Connect(context.Background(), Endpoint{Host: "10.0.0.12", Port: DefaultPort})
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.ErrorIs(t, s.Subscribe(func(ReadEvent) {}), ErrNotConnected)
}

func TestSimulatorHonoursContext(t *testing.T) {
	s := NewSimulator(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Connect(ctx, DefaultEndpoint()), context.Canceled)
}

func TestSimulatorExpiredDeadline(t *testing.T) {
	s := NewSimulator(nil, nil)
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	assert.ErrorIs(t, s.Connect(ctx, DefaultEndpoint()), context.DeadlineExceeded)
	assert.ErrorIs(t, s.Subscribe(func(ReadEvent) {}), ErrNotConnected)
}

func TestSimulatorDisconnectTwice(t *testing.T) {
	s := NewSimulator(nil, nil)
	require.NoError(t, s.Connect(context.Background(), DefaultEndpoint()))
	assert.NoError(t, s.Disconnect())
	assert.ErrorIs(t, s.Disconnect(), ErrNotConnected)
}

func TestSimulatorScanWindow(t *testing.T) {
	trigger := make(chan TriggerEvent)
	s := NewSimulator(trigger, manyTags(3), WithReadInterval(5*time.Millisecond))
	require.NoError(t, s.Connect(context.Background(), DefaultEndpoint()))
	defer s.Disconnect()

	rec := &readRecorder{}
	require.NoError(t, s.Subscribe(rec.handle))
	require.NoError(t, s.ConfigureTrigger(HandheldTriggerPolicy(0)))

	// nothing is read until the trigger is pressed
	assert.Never(t, func() bool { return rec.count() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	trigger <- TriggerEvent{Pressed: true}
	assert.Eventually(t, func() bool { return rec.count() == 3 }, time.Second, 5*time.Millisecond)
	trigger <- TriggerEvent{Pressed: false}

	for i, r := range rec.all() {
		assert.Equal(t, fmt.Sprintf("E20034120000%04d", i), r.ID)
		assert.Equal(t, StatusSuccess, r.Status)
	}

	// a new pull reads the tags again
	trigger <- TriggerEvent{Pressed: true}
	assert.Eventually(t, func() bool { return rec.count() == 6 }, time.Second, 5*time.Millisecond)
	trigger <- TriggerEvent{Pressed: false}
}

func TestSimulatorStopTimeout(t *testing.T) {
	trigger := make(chan TriggerEvent)
	s := NewSimulator(trigger, manyTags(1000), WithReadInterval(5*time.Millisecond))
	require.NoError(t, s.Connect(context.Background(), DefaultEndpoint()))
	defer s.Disconnect()

	rec := &readRecorder{}
	require.NoError(t, s.Subscribe(rec.handle))
	require.NoError(t, s.ConfigureTrigger(HandheldTriggerPolicy(30*time.Millisecond)))

	trigger <- TriggerEvent{Pressed: true}
	time.Sleep(150 * time.Millisecond)

	// the trigger is still held, but the window has closed
	n := rec.count()
	assert.Greater(t, n, 0)
	assert.Less(t, n, 1000)
	assert.Never(t, func() bool { return rec.count() != n }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSimulatorFailEvery(t *testing.T) {
	trigger := make(chan TriggerEvent)
	s := NewSimulator(trigger, manyTags(4), WithReadInterval(5*time.Millisecond), WithFailEvery(2))
	require.NoError(t, s.Connect(context.Background(), DefaultEndpoint()))
	defer s.Disconnect()

	rec := &readRecorder{}
	require.NoError(t, s.Subscribe(rec.handle))
	require.NoError(t, s.ConfigureTrigger(HandheldTriggerPolicy(0)))

	trigger <- TriggerEvent{Pressed: true}
	assert.Eventually(t, func() bool { return rec.count() == 4 }, time.Second, 5*time.Millisecond)

	reads := rec.all()
	assert.Equal(t, StatusSuccess, reads[0].Status)
	assert.Equal(t, StatusFailure, reads[1].Status)
	assert.Equal(t, StatusSuccess, reads[2].Status)
	assert.Equal(t, StatusFailure, reads[3].Status)
}

func TestSimulatedSessionOneTagPerPull(t *testing.T) {
	trigger := make(chan TriggerEvent)
	sim := NewSimulator(trigger, manyTags(5), WithReadInterval(5*time.Millisecond))
	s := NewSession(sim, DefaultEndpoint(), HandheldTriggerPolicy(0))
	defer s.Disconnect()

	got := make(chan string, 10)
	require.NoError(t, s.RegisterConsumer(func(id string) { got <- id }))

	for pull := 0; pull < 2; pull++ {
		trigger <- TriggerEvent{Pressed: true}
		assert.Equal(t, "E200341200000000", receive(t, got))
		assert.Never(t, func() bool { return len(got) > 0 }, 60*time.Millisecond, 5*time.Millisecond)
		trigger <- TriggerEvent{Pressed: false}
	}
}

func TestSimulatedSessionUnreachable(t *testing.T) {
	sim := NewSimulator(nil, manyTags(1))
	s := NewSession(sim, Endpoint{Host: "192.168.1.20", Port: DefaultPort, Timeout: DefaultTimeout}, HandheldTriggerPolicy(0))

	ok, err := s.IsConnected()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.NotPanics(t, s.Disconnect)
}
