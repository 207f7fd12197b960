// Package logging provides config-driven categorized logging for yijing.
// Each category gets its own zap logger. File output goes to
// <dir>/<date>_<category>.log and is controlled by logging.debug_mode;
// console output is opt-in per process (the server turns it on, the
// interactive client never does because the TUI owns the terminal).
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"yijing/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup, config, shutdown
	CategorySession   Category = "session"   // Orchestrator: questions, answers, clears
	CategoryRitual    Category = "ritual"    // Draw sessions
	CategoryResolver  Category = "resolver"  // Client-side resolver calls
	CategoryServer    Category = "server"    // HTTP backend
	CategoryInterpret Category = "interpret" // LLM interpretation
	CategoryUI        Category = "ui"        // Terminal client
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryBoot, CategorySession, CategoryRitual, CategoryResolver,
	CategoryServer, CategoryInterpret, CategoryUI,
}

// Options controls process-specific outputs.
type Options struct {
	// Console, when set, receives every enabled category at the configured
	// level regardless of debug_mode.
	Console zapcore.WriteSyncer

	// Now stamps log file names. Defaults to time.Now.
	Now func() time.Time
}

var (
	mu      sync.RWMutex
	cfg     config.LoggingConfig
	opts    Options
	level   = zap.NewAtomicLevelAt(zap.InfoLevel)
	logsDir string
	loggers = make(map[Category]*zap.Logger)
	files   = make(map[Category]*os.File)
)

// Initialize installs the logging configuration. It closes any loggers
// created under a previous configuration.
func Initialize(c config.LoggingConfig, o Options) error {
	CloseAll()

	lvl := zap.InfoLevel
	if c.Level != "" {
		parsed, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return fmt.Errorf("logging level: %w", err)
		}
		lvl = parsed
	}
	if o.Now == nil {
		o.Now = time.Now
	}

	mu.Lock()
	cfg = c
	opts = o
	level.SetLevel(lvl)
	logsDir = ""
	if c.DebugMode {
		dir := c.Dir
		if dir == "" {
			dir = config.DefaultConfig().Logging.Dir
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			mu.Unlock()
			return fmt.Errorf("failed to create logs directory: %w", err)
		}
		logsDir = dir
	}
	mu.Unlock()

	boot := Get(CategoryBoot)
	boot.Info("logging initialized",
		zap.Bool("debug_mode", c.DebugMode),
		zap.String("level", lvl.String()),
		zap.String("logs_dir", logsDir),
		zap.Bool("console", o.Console != nil))
	return nil
}

// IsCategoryEnabled returns whether a category produces any output.
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if opts.Console != nil {
		if cfg.Categories == nil {
			return true
		}
		enabled, exists := cfg.Categories[string(category)]
		return !exists || enabled
	}
	return cfg.IsCategoryEnabled(string(category))
}

// Get returns (or creates) the logger for the given category.
// Returns a no-op logger if the category is disabled.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	// Double-check after acquiring write lock
	if l, ok := loggers[category]; ok {
		return l
	}

	if !categoryEnabledLocked(category) {
		l := zap.NewNop()
		loggers[category] = l
		return l
	}

	var cores []zapcore.Core
	if opts.Console != nil {
		cores = append(cores, zapcore.NewCore(encoder(), opts.Console, level))
	}
	if logsDir != "" && cfg.IsCategoryEnabled(string(category)) {
		name := fmt.Sprintf("%s_%s.log", opts.Now().Format("2006-01-02"), category)
		path := filepath.Join(logsDir, name)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", path, err)
		} else {
			files[category] = f
			cores = append(cores, zapcore.NewCore(encoder(), zapcore.Lock(f), level))
		}
	}

	l := zap.NewNop()
	if len(cores) > 0 {
		l = zap.New(zapcore.NewTee(cores...)).Named(string(category))
	}
	loggers[category] = l
	return l
}

func encoder() zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Format == "console" {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

// CloseAll flushes and closes all log files and forgets every logger.
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()

	for _, l := range loggers {
		_ = l.Sync()
	}
	for cat, f := range files {
		_ = f.Close()
		delete(files, cat)
	}
	loggers = make(map[Category]*zap.Logger)
}

// Boot returns the boot category logger.
func Boot() *zap.Logger { return Get(CategoryBoot) }

// Session returns the session category logger.
func Session() *zap.Logger { return Get(CategorySession) }

// Server returns the server category logger.
func Server() *zap.Logger { return Get(CategoryServer) }

// UI returns the ui category logger.
func UI() *zap.Logger { return Get(CategoryUI) }
