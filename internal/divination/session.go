package divination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrAlreadyDrawing is returned when a draw is requested while another
	// draw is still animating. The request is ignored.
	ErrAlreadyDrawing = errors.New("divination: a draw is already in progress")

	// ErrAlreadyComplete is returned once the ritual holds all of its draws.
	ErrAlreadyComplete = errors.New("divination: ritual already complete")
)

// State is the position of a Session in the ritual.
type State int

const (
	StateEmpty State = iota
	StateDrawing
	StatePartiallyDrawn
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateDrawing:
		return "drawing"
	case StatePartiallyDrawn:
		return "partially_drawn"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Phase tells an Observer which side of the shake animation a progress
// report belongs to.
type Phase int

const (
	PhaseShaking Phase = iota
	PhaseSettled
)

// Ritual is the ordered triple of draws handed to the completion callback.
type Ritual [RitualSize]int

// Slice returns the draws as a slice, in draw order.
func (r Ritual) Slice() []int {
	return []int{r[0], r[1], r[2]}
}

// Observer receives progress notifications for the rendering surface.
type Observer interface {
	// OnDrawProgress is called twice per accepted draw: once before the
	// shake delay and once after the value has been revealed.
	OnDrawProgress(index, total int, phase Phase)
	OnDrawRevealed(value, index int)
	OnRitualComplete()
}

type nopObserver struct{}

func (nopObserver) OnDrawProgress(int, int, Phase) {}
func (nopObserver) OnDrawRevealed(int, int)        {}
func (nopObserver) OnRitualComplete()              {}

// Timing holds the durations of the named timed transitions.
type Timing struct {
	Shake  time.Duration // Drawing -> value appended
	Reveal time.Duration // value appended -> PartiallyDrawn/Complete
	Settle time.Duration // Complete -> completion callback
}

// DefaultTiming returns the ritual's design timing.
func DefaultTiming() Timing {
	return Timing{
		Shake:  2000 * time.Millisecond,
		Reveal: 800 * time.Millisecond,
		Settle: 1500 * time.Millisecond,
	}
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// CompletionFunc is invoked exactly once, with the full ritual, after the
// settle delay of the final draw.
type CompletionFunc func(ctx context.Context, ritual Ritual)

// Option configures a Session.
type Option func(*Session)

// WithTiming overrides the design timing.
func WithTiming(t Timing) Option {
	return func(s *Session) { s.timing = t }
}

// WithSleeper replaces the real-time sleeper.
func WithSleeper(sl Sleeper) Option {
	return func(s *Session) {
		if sl != nil {
			s.sleep = sl
		}
	}
}

// WithObserver attaches a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Session) {
		if o != nil {
			s.observer = o
		}
	}
}

// Session is the ritual state machine. One Session exists per divinatory
// question and is discarded once its completion callback has fired.
type Session struct {
	gen        Generator
	timing     Timing
	sleep      Sleeper
	observer   Observer
	onComplete CompletionFunc

	mu    sync.Mutex
	draws []int
	state State
	fired bool
}

// NewSession creates an empty session drawing from gen.
func NewSession(gen Generator, onComplete CompletionFunc, opts ...Option) *Session {
	s := &Session{
		gen:        gen,
		timing:     DefaultTiming(),
		sleep:      Sleep,
		observer:   nopObserver{},
		onComplete: onComplete,
		draws:      make([]int, 0, RitualSize),
		state:      StateEmpty,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestDraw performs one draw. It blocks through the shake and reveal
// delays and, for the final draw, through the settle delay and the
// completion callback.
//
// A call made while another draw is in flight returns ErrAlreadyDrawing and
// a call made after the ritual is full returns ErrAlreadyComplete; neither
// changes the session. Cancelling ctx during the shake delay abandons the
// draw and restores the previous idle state.
func (s *Session) RequestDraw(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.state == StateDrawing:
		s.mu.Unlock()
		return ErrAlreadyDrawing
	case s.state == StateComplete || s.fired || len(s.draws) >= RitualSize:
		s.mu.Unlock()
		return ErrAlreadyComplete
	}
	prev := s.state
	s.state = StateDrawing
	index := len(s.draws) + 1
	s.mu.Unlock()

	s.observer.OnDrawProgress(index, RitualSize, PhaseShaking)
	if err := s.sleep(ctx, s.timing.Shake); err != nil {
		s.mu.Lock()
		s.state = prev
		s.mu.Unlock()
		return fmt.Errorf("draw %d abandoned: %w", index, err)
	}

	value := s.gen.Draw()
	s.mu.Lock()
	s.draws = append(s.draws, value)
	s.mu.Unlock()
	s.observer.OnDrawRevealed(value, index)

	// The value is kept even if the reveal animation is cut short.
	_ = s.sleep(ctx, s.timing.Reveal)
	s.observer.OnDrawProgress(index, RitualSize, PhaseSettled)

	s.mu.Lock()
	if len(s.draws) < RitualSize {
		s.state = StatePartiallyDrawn
		s.mu.Unlock()
		return nil
	}
	s.state = StateComplete
	var ritual Ritual
	copy(ritual[:], s.draws)
	s.mu.Unlock()

	if err := s.sleep(ctx, s.timing.Settle); err != nil {
		return fmt.Errorf("ritual settle interrupted: %w", err)
	}
	s.complete(ctx, ritual)
	return nil
}

func (s *Session) complete(ctx context.Context, ritual Ritual) {
	s.mu.Lock()
	if s.fired {
		s.mu.Unlock()
		return
	}
	s.fired = true
	s.mu.Unlock()

	s.observer.OnRitualComplete()
	if s.onComplete != nil {
		s.onComplete(ctx, ritual)
	}
}

// Draws returns a copy of the draws made so far, in order.
func (s *Session) Draws() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, len(s.draws))
	copy(out, s.draws)
	return out
}

// Len returns the number of completed draws.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.draws)
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Completed reports whether the completion callback has fired.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}
