// Package orchestrator is the top-level session controller. It classifies
// submitted questions, answers informational ones directly, runs the draw
// ritual for divinatory ones and keeps the conversation log in step with
// the resolver's answers.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"yijing/internal/classify"
	"yijing/internal/conversation"
	"yijing/internal/divination"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput is returned for empty or whitespace-only questions.
	ErrInvalidInput = errors.New("orchestrator: empty question")

	// ErrModuleUnavailable is returned when a divinatory question arrives
	// and no ritual surface is attached.
	ErrModuleUnavailable = errors.New("orchestrator: ritual surface unavailable")

	// ErrRitualPending is returned when a divinatory question arrives while
	// another ritual is still pending.
	ErrRitualPending = errors.New("orchestrator: a ritual is already pending")

	// ErrNoRitual is returned by Draw when no ritual is active.
	ErrNoRitual = errors.New("orchestrator: no active ritual")
)

// User-visible texts.
const (
	MessageQuerying          = "正在查詢中..."
	MessageInterpreting      = "正在解卦中..."
	MessageResolverFailed    = "抱歉，發生錯誤。請確認後端 API 是否正在運行。"
	MessageRitualUnavailable = "系統錯誤：抽籤模組未載入。請重新整理頁面。"
	MessageRitualPending     = "請先完成目前的抽籤，再提出新的問題。"
	MessageHealthWarning     = "⚠️ 警告：無法連接到後端 API。請確認後端服務器是否正在運行（yijing serve）"
)

// Default timeouts used when Config leaves them zero.
const (
	DefaultResolveTimeout = 60 * time.Second
	DefaultHealthTimeout  = 5 * time.Second
)

// Resolver turns a question, and optionally its ritual, into an answer.
// A nil ritual means the question is informational.
type Resolver interface {
	Resolve(ctx context.Context, question string, ritual *divination.Ritual) (string, error)
	Health(ctx context.Context) error
}

// ScrollPosition tells the surface where to place the view after a change.
type ScrollPosition int

const (
	ScrollBottom ScrollPosition = iota
	ScrollTop
)

// Surface is the rendering side of the session.
type Surface interface {
	divination.Observer
	ShowRitual(question string)
	DismissRitual()
	LogChanged(entries []conversation.Entry, scroll ScrollPosition)
}

// Config wires an Orchestrator. Resolver is required; a nil Surface
// disables divinatory questions.
type Config struct {
	Resolver       Resolver
	Surface        Surface
	Classifier     *classify.Classifier
	Generator      divination.Generator
	Timing         divination.Timing
	Sleeper        divination.Sleeper
	ResolveTimeout time.Duration
	HealthTimeout  time.Duration
	Logger         *zap.Logger
	// RitualLogger receives per-draw events. Defaults to Logger.
	RitualLogger *zap.Logger
}

// Orchestrator owns the conversation log, the pending question and the
// active ritual session.
type Orchestrator struct {
	id         string
	resolver   Resolver
	surface    Surface
	classifier *classify.Classifier
	generator  divination.Generator
	timing     divination.Timing
	sleeper    divination.Sleeper
	timeout    time.Duration
	healthWait time.Duration
	logger     *zap.Logger
	ritualLog  *zap.Logger
	log        *conversation.Log

	mu         sync.Mutex
	pending    string
	hasPending bool
	session    *divination.Session
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("orchestrator: resolver is required")
	}
	o := &Orchestrator{
		id:         uuid.NewString(),
		resolver:   cfg.Resolver,
		surface:    cfg.Surface,
		classifier: cfg.Classifier,
		generator:  cfg.Generator,
		timing:     cfg.Timing,
		sleeper:    cfg.Sleeper,
		timeout:    cfg.ResolveTimeout,
		healthWait: cfg.HealthTimeout,
		logger:     cfg.Logger,
		ritualLog:  cfg.RitualLogger,
		log:        conversation.NewLog(),
	}
	if o.classifier == nil {
		o.classifier = classify.New()
	}
	if o.generator == nil {
		gen, err := divination.NewSeededGenerator()
		if err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		o.generator = gen
	}
	if o.sleeper == nil {
		o.sleeper = divination.Sleep
	}
	if o.timeout <= 0 {
		o.timeout = DefaultResolveTimeout
	}
	if o.healthWait <= 0 {
		o.healthWait = DefaultHealthTimeout
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.ritualLog == nil {
		o.ritualLog = o.logger
	}
	o.logger = o.logger.With(zap.String("session_id", o.id))
	o.ritualLog = o.ritualLog.With(zap.String("session_id", o.id))
	return o, nil
}

// ID returns the session identifier used in logs.
func (o *Orchestrator) ID() string { return o.id }

// Submit handles one user question. Resolver failures are rendered into the
// log and never returned; the returned errors are the ignored or rejected
// submissions (ErrInvalidInput, ErrRitualPending, ErrModuleUnavailable).
func (o *Orchestrator) Submit(ctx context.Context, question string) error {
	q := strings.TrimSpace(question)
	if q == "" {
		return ErrInvalidInput
	}

	kind := o.classifier.Classify(q)
	o.logger.Info("question submitted", zap.Stringer("kind", kind), zap.Int("length", len(q)))

	if kind == classify.Informational {
		o.append(conversation.UserEntry(q), ScrollBottom)
		o.answerDirectly(ctx, q)
		return nil
	}
	return o.beginRitual(q)
}

func (o *Orchestrator) answerDirectly(ctx context.Context, question string) {
	h := o.append(conversation.PlaceholderEntry(MessageQuerying), ScrollBottom)
	answer, err := o.resolve(ctx, question, nil)
	if err != nil {
		o.logger.Warn("direct answer failed", zap.Error(err))
		o.replace(h, conversation.ErrorEntry(MessageResolverFailed), ScrollBottom)
		return
	}
	o.replace(h, conversation.BotEntry(answer), ScrollBottom)
}

func (o *Orchestrator) beginRitual(question string) error {
	o.mu.Lock()
	if o.hasPending {
		o.mu.Unlock()
		o.logger.Info("divinatory question rejected: ritual pending")
		o.append(conversation.NoticeEntry(MessageRitualPending), ScrollBottom)
		return ErrRitualPending
	}
	if o.surface == nil {
		o.mu.Unlock()
		o.append(conversation.UserEntry(question), ScrollBottom)
		o.logger.Error("ritual surface missing")
		o.append(conversation.ErrorEntry(MessageRitualUnavailable), ScrollBottom)
		return ErrModuleUnavailable
	}

	var s *divination.Session
	obs := &sessionObserver{o: o, next: o.surface, logger: o.ritualLog}
	s = divination.NewSession(o.generator,
		func(ctx context.Context, r divination.Ritual) { o.completeRitual(ctx, s, r) },
		divination.WithTiming(o.timing),
		divination.WithSleeper(o.sleeper),
		divination.WithObserver(obs))
	obs.session = s
	o.session = s
	o.pending = question
	o.hasPending = true
	o.mu.Unlock()

	o.append(conversation.UserEntry(question), ScrollBottom)
	o.surface.ShowRitual(question)
	o.logger.Debug("ritual started")
	return nil
}

// Draw forwards one user-initiated draw to the active ritual. It blocks
// through the draw's animation and, for the last draw, through answer
// resolution.
func (o *Orchestrator) Draw(ctx context.Context) error {
	o.mu.Lock()
	s := o.session
	o.mu.Unlock()
	if s == nil {
		return ErrNoRitual
	}

	err := s.RequestDraw(ctx)
	switch {
	case err == nil:
	case errors.Is(err, divination.ErrAlreadyDrawing), errors.Is(err, divination.ErrAlreadyComplete):
		o.logger.Debug("draw ignored", zap.Error(err))
	default:
		o.logger.Info("draw interrupted", zap.Error(err))
	}
	return err
}

func (o *Orchestrator) completeRitual(ctx context.Context, s *divination.Session, r divination.Ritual) {
	o.mu.Lock()
	if o.session != s {
		o.mu.Unlock()
		o.logger.Debug("completion from abandoned ritual ignored")
		return
	}
	o.session = nil
	question := o.pending
	o.mu.Unlock()

	o.surface.DismissRitual()
	o.logger.Info("ritual complete", zap.Ints("draws", r.Slice()))

	h := o.append(conversation.PlaceholderEntry(MessageInterpreting), ScrollBottom)
	answer, err := o.resolve(ctx, question, &r)

	o.mu.Lock()
	if o.session == nil {
		o.pending = ""
		o.hasPending = false
	}
	o.mu.Unlock()

	if err != nil {
		o.logger.Warn("interpretation failed", zap.Error(err))
		o.replace(h, conversation.ErrorEntry(MessageResolverFailed), ScrollBottom)
		return
	}
	o.replace(h, conversation.BotEntry(answer), ScrollTop)
}

// Abandon drops the active ritual and the pending question.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	active := o.session != nil
	o.session = nil
	o.pending = ""
	o.hasPending = false
	o.mu.Unlock()

	if active && o.surface != nil {
		o.surface.DismissRitual()
		o.logger.Info("ritual abandoned")
	}
}

// Clear empties the conversation and abandons any ritual.
func (o *Orchestrator) Clear() {
	o.Abandon()
	o.log.Clear()
	o.notify(ScrollTop)
	o.logger.Info("conversation cleared")
}

// Pending returns the question awaiting its ritual, if any.
func (o *Orchestrator) Pending() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending, o.hasPending
}

// RitualActive reports whether a ritual is accepting draws.
func (o *Orchestrator) RitualActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.session != nil
}

// Snapshot returns the conversation in display order.
func (o *Orchestrator) Snapshot() []conversation.Entry {
	return o.log.Snapshot()
}

// Transcript renders the conversation as plain text.
func (o *Orchestrator) Transcript(generated time.Time) string {
	return conversation.Transcript(o.log.Snapshot(), generated)
}

// CheckHealth probes the resolver once. A failure is reported to the user
// as a warning entry and returned, but is not fatal to the session.
func (o *Orchestrator) CheckHealth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, o.healthWait)
	defer cancel()

	if err := o.resolver.Health(ctx); err != nil {
		o.logger.Warn("resolver health probe failed", zap.Error(err))
		o.append(conversation.NoticeEntry(MessageHealthWarning), ScrollBottom)
		return fmt.Errorf("health probe: %w", err)
	}
	o.logger.Debug("resolver healthy")
	return nil
}

func (o *Orchestrator) resolve(ctx context.Context, question string, r *divination.Ritual) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	answer, err := o.resolver.Resolve(ctx, question, r)
	o.logger.Debug("resolver call finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Bool("ritual", r != nil),
		zap.Error(err))
	if err != nil {
		return "", err
	}
	return answer, nil
}

func (o *Orchestrator) append(e conversation.Entry, scroll ScrollPosition) conversation.Handle {
	h := o.log.Append(e)
	o.notify(scroll)
	return h
}

func (o *Orchestrator) replace(h conversation.Handle, e conversation.Entry, scroll ScrollPosition) {
	if err := o.log.Replace(h, e); err != nil {
		// The log was cleared while the answer was in flight.
		o.logger.Warn("placeholder vanished before its answer arrived", zap.Error(err))
		return
	}
	o.notify(scroll)
}

func (o *Orchestrator) notify(scroll ScrollPosition) {
	if o.surface == nil {
		return
	}
	o.surface.LogChanged(o.log.Snapshot(), scroll)
}

// sessionObserver forwards one session's callbacks to the surface while
// that session is still the active one. A draw left running by Abandon
// must not show up in the next ritual's panel.
type sessionObserver struct {
	o       *Orchestrator
	session *divination.Session
	next    divination.Observer
	logger  *zap.Logger
}

func (so *sessionObserver) active() bool {
	so.o.mu.Lock()
	defer so.o.mu.Unlock()
	return so.o.session == so.session
}

func (so *sessionObserver) OnDrawProgress(index, total int, phase divination.Phase) {
	if !so.active() {
		return
	}
	so.next.OnDrawProgress(index, total, phase)
}

func (so *sessionObserver) OnDrawRevealed(value, index int) {
	if !so.active() {
		so.logger.Debug("draw from abandoned ritual dropped", zap.Int("index", index))
		return
	}
	so.logger.Debug("draw revealed", zap.Int("index", index), zap.Int("value", value))
	so.next.OnDrawRevealed(value, index)
}

func (so *sessionObserver) OnRitualComplete() {
	if !so.active() {
		return
	}
	so.next.OnRitualComplete()
}
