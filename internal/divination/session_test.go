package divination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// sequenceGenerator returns its values in order, cycling when exhausted.
type sequenceGenerator struct {
	mu     sync.Mutex
	values []int
	next   int
}

func (g *sequenceGenerator) Draw() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.values[g.next%len(g.values)]
	g.next++
	return v
}

// recordingObserver keeps every notification as a string.
type recordingObserver struct {
	mu     sync.Mutex
	events []string
}

func (o *recordingObserver) record(format string, args ...any) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, fmt.Sprintf(format, args...))
}

func (o *recordingObserver) OnDrawProgress(index, total int, phase Phase) {
	o.record("progress %d/%d phase=%d", index, total, phase)
}
func (o *recordingObserver) OnDrawRevealed(value, index int) { o.record("revealed %d at %d", value, index) }
func (o *recordingObserver) OnRitualComplete()               { o.record("complete") }

func (o *recordingObserver) Events() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.events...)
}

// gatedSleeper blocks every positive wait until released.
type gatedSleeper struct {
	entered chan time.Duration
	release chan struct{}
}

func newGatedSleeper() *gatedSleeper {
	return &gatedSleeper{entered: make(chan time.Duration, 8), release: make(chan struct{})}
}

func (g *gatedSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	g.entered <- d
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-g.release:
		return nil
	}
}

func noDelay(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func instantSession(t *testing.T, values []int, done CompletionFunc, opts ...Option) *Session {
	t.Helper()
	base := []Option{WithTiming(Timing{}), WithSleeper(noDelay)}
	return NewSession(&sequenceGenerator{values: values}, done, append(base, opts...)...)
}

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestSession_ThreeDrawsCompleteOnce(t *testing.T) {
	var (
		calls int
		got   Ritual
	)
	s := instantSession(t, []int{512, 101, 999}, func(_ context.Context, r Ritual) {
		calls++
		got = r
	})

	assert.Equal(t, StateEmpty, s.State())
	for i := 1; i <= RitualSize; i++ {
		require.NoError(t, s.RequestDraw(context.Background()))
		assert.Equal(t, i, s.Len())
		if i < RitualSize {
			assert.Equal(t, StatePartiallyDrawn, s.State())
			assert.Equal(t, 0, calls, "callback fired before third draw")
		}
	}

	assert.Equal(t, StateComplete, s.State())
	assert.Equal(t, 1, calls)
	assert.Equal(t, Ritual{512, 101, 999}, got)
	assert.True(t, s.Completed())
}

func TestSession_FourthDrawRejected(t *testing.T) {
	calls := 0
	s := instantSession(t, []int{300, 400, 500, 600}, func(context.Context, Ritual) { calls++ })
	for i := 0; i < RitualSize; i++ {
		require.NoError(t, s.RequestDraw(context.Background()))
	}

	before := s.Draws()
	for i := 0; i < 5; i++ {
		err := s.RequestDraw(context.Background())
		assert.ErrorIs(t, err, ErrAlreadyComplete)
	}
	assert.Empty(t, cmp.Diff(before, s.Draws()))
	assert.Equal(t, 1, calls)
}

func TestSession_RejectsDrawWhileDrawing(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := newGatedSleeper()
	s := NewSession(&sequenceGenerator{values: []int{123}}, nil,
		WithTiming(Timing{Shake: time.Second}),
		WithSleeper(gate.Sleep))

	errCh := make(chan error, 1)
	go func() { errCh <- s.RequestDraw(context.Background()) }()

	<-gate.entered
	assert.Equal(t, StateDrawing, s.State())
	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, s.RequestDraw(context.Background()), ErrAlreadyDrawing)
	}
	assert.Equal(t, 0, s.Len(), "rejected calls must not draw")

	close(gate.release)
	require.NoError(t, <-errCh)
	assert.Equal(t, []int{123}, s.Draws())
	assert.Equal(t, StatePartiallyDrawn, s.State())
}

func TestSession_RapidConcurrentRequestsDrawOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := newGatedSleeper()
	s := NewSession(&sequenceGenerator{values: []int{111, 222, 333}}, nil,
		WithTiming(Timing{Shake: time.Second}),
		WithSleeper(gate.Sleep))

	first := make(chan error, 1)
	go func() { first <- s.RequestDraw(context.Background()) }()
	<-gate.entered

	var wg sync.WaitGroup
	var mu sync.Mutex
	rejected := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if errors.Is(s.RequestDraw(context.Background()), ErrAlreadyDrawing) {
				mu.Lock()
				rejected++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(gate.release)
	require.NoError(t, <-first)

	assert.Equal(t, 20, rejected)
	assert.Equal(t, 1, s.Len())
}

func TestSession_CancelDuringShakeRestoresState(t *testing.T) {
	defer goleak.VerifyNone(t)

	gate := newGatedSleeper()
	s := NewSession(&sequenceGenerator{values: []int{700}}, nil,
		WithTiming(Timing{Shake: time.Second}),
		WithSleeper(gate.Sleep))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.RequestDraw(ctx) }()
	<-gate.entered
	cancel()

	err := <-errCh
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateEmpty, s.State())
	assert.Equal(t, 0, s.Len())

	// The session is still usable after an abandoned draw.
	s.sleep = noDelay
	require.NoError(t, s.RequestDraw(context.Background()))
	assert.Equal(t, []int{700}, s.Draws())
}

func TestSession_CancelDuringSettleSkipsCallback(t *testing.T) {
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(&sequenceGenerator{values: []int{100, 200, 300}},
		func(context.Context, Ritual) { calls++ },
		WithTiming(Timing{Settle: time.Second}),
		WithSleeper(func(ctx context.Context, d time.Duration) error {
			if d == time.Second {
				cancel()
			}
			return ctx.Err()
		}))

	require.NoError(t, s.RequestDraw(ctx))
	require.NoError(t, s.RequestDraw(ctx))
	err := s.RequestDraw(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, s.RequestDraw(context.Background()), ErrAlreadyComplete)
}

func TestSession_ObserverSequence(t *testing.T) {
	obs := &recordingObserver{}
	s := instantSession(t, []int{808, 404, 606}, nil, WithObserver(obs))
	for i := 0; i < RitualSize; i++ {
		require.NoError(t, s.RequestDraw(context.Background()))
	}

	want := []string{
		"progress 1/3 phase=0", "revealed 808 at 1", "progress 1/3 phase=1",
		"progress 2/3 phase=0", "revealed 404 at 2", "progress 2/3 phase=1",
		"progress 3/3 phase=0", "revealed 606 at 3", "progress 3/3 phase=1",
		"complete",
	}
	if diff := cmp.Diff(want, obs.Events()); diff != "" {
		t.Errorf("observer events mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_UsesConfiguredTiming(t *testing.T) {
	var mu sync.Mutex
	var waits []time.Duration
	timing := Timing{Shake: 3 * time.Millisecond, Reveal: 2 * time.Millisecond, Settle: time.Millisecond}
	s := NewSession(&sequenceGenerator{values: []int{150}}, nil,
		WithTiming(timing),
		WithSleeper(func(_ context.Context, d time.Duration) error {
			mu.Lock()
			waits = append(waits, d)
			mu.Unlock()
			return nil
		}))
	for i := 0; i < RitualSize; i++ {
		require.NoError(t, s.RequestDraw(context.Background()))
	}

	want := []time.Duration{
		timing.Shake, timing.Reveal,
		timing.Shake, timing.Reveal,
		timing.Shake, timing.Reveal, timing.Settle,
	}
	assert.Equal(t, want, waits)
}

func TestSleep_RespectsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "empty", StateEmpty.String())
	assert.Equal(t, "drawing", StateDrawing.String())
	assert.Equal(t, "partially_drawn", StatePartiallyDrawn.String())
	assert.Equal(t, "complete", StateComplete.String())
	assert.Equal(t, "unknown", State(42).String())
}
