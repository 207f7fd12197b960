// Package interpret produces the text of the backend's answers: hexagram
// interpretations and persona replies, from an LLM provider when one is
// configured and from fixed fallback texts otherwise.
package interpret

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"yijing/internal/config"
	"yijing/internal/hexagram"

	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned by a Completer that produced no text.
var ErrEmptyCompletion = errors.New("interpret: empty completion")

// Interpreter never fails: provider errors degrade to fallback text.
type Interpreter interface {
	Interpret(ctx context.Context, question string, r hexagram.Reading) string
	Answer(ctx context.Context, question string) string
	Enabled() bool
}

// Request is one chat completion.
type Request struct {
	System      string
	Prompt      string
	Temperature float32
	MaxTokens   int32
}

// Completer is a single-shot chat completion backend.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// New builds the interpreter for the configured provider. Providers
// without credentials yield the offline interpreter.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (Interpreter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		logger.Info("interpretation offline", zap.String("provider", cfg.Provider))
		return Offline{}, nil
	}

	var (
		c   Completer
		err error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err = NewGemini(ctx, cfg.APIKey, cfg.Model)
	case config.ProviderAzure:
		deployment := cfg.Deployment
		if deployment == "" {
			deployment = cfg.Model
		}
		c, err = NewAzure(cfg.Endpoint, cfg.APIKey, deployment)
	default:
		return nil, fmt.Errorf("interpret: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("interpretation enabled", zap.String("provider", cfg.Provider))
	return NewLLM(c, cfg, logger), nil
}

// Offline answers with fixed texts.
type Offline struct{}

func (Offline) Interpret(context.Context, string, hexagram.Reading) string {
	return OfflineInterpretation
}

func (Offline) Answer(context.Context, string) string { return PersonaUnavailable }

func (Offline) Enabled() bool { return false }

// LLM answers through a Completer.
type LLM struct {
	completer   Completer
	timeout     time.Duration
	temperature float32
	maxTokens   int32
	logger      *zap.Logger
}

// NewLLM wraps a completer with the configured generation settings.
func NewLLM(c Completer, cfg config.LLMConfig, logger *zap.Logger) *LLM {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultInterpretTokens
	}
	return &LLM{
		completer:   c,
		timeout:     cfg.GetTimeout(),
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		logger:      logger,
	}
}

func (l *LLM) Enabled() bool { return true }

// Interpret asks the provider to read the hexagram for the question.
func (l *LLM) Interpret(ctx context.Context, question string, r hexagram.Reading) string {
	text, err := l.complete(ctx, Request{
		System:      interpreterSystem,
		Prompt:      interpretPrompt(question, r),
		Temperature: l.temperature,
		MaxTokens:   l.maxTokens,
	})
	if err != nil {
		l.logger.Warn("interpretation failed", zap.String("hexagram", r.Hexagram.Name), zap.Error(err))
		return degradedInterpretation(r)
	}
	return text
}

// Answer replies in persona.
func (l *LLM) Answer(ctx context.Context, question string) string {
	text, err := l.complete(ctx, Request{
		System:      PersonaSystem,
		Prompt:      question,
		Temperature: l.temperature,
		MaxTokens:   min(PersonaTokens, l.maxTokens),
	})
	if err != nil {
		l.logger.Warn("persona answer failed", zap.Error(err))
		return PersonaFailed
	}
	return text
}

func (l *LLM) complete(ctx context.Context, req Request) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := l.completer.Complete(ctx, req)
	l.logger.Debug("completion finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int32("max_tokens", req.MaxTokens),
		zap.Error(err))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
