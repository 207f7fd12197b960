// Package conversation holds the ordered, in-memory log of conversation
// turns and its plain-text transcript export.
package conversation

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a handle no longer refers to an entry.
var ErrNotFound = errors.New("conversation: entry not found")

// Role identifies who produced an entry.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Kind distinguishes ordinary bot replies from errors and notices so the
// surface can style them.
type Kind int

const (
	KindMessage Kind = iota
	KindError
	KindNotice
)

// Handle is a stable reference to an entry.
type Handle string

// Entry is one conversation turn.
type Entry struct {
	ID          Handle
	Role        Role
	Content     string
	Placeholder bool
	Kind        Kind
	Time        time.Time
}

// UserEntry returns a user turn.
func UserEntry(text string) Entry {
	return Entry{Role: RoleUser, Content: text}
}

// BotEntry returns a bot reply.
func BotEntry(text string) Entry {
	return Entry{Role: RoleBot, Content: text}
}

// PlaceholderEntry returns a transient "loading" bot entry.
func PlaceholderEntry(text string) Entry {
	return Entry{Role: RoleBot, Content: text, Placeholder: true}
}

// ErrorEntry returns a user-visible bot error.
func ErrorEntry(text string) Entry {
	return Entry{Role: RoleBot, Content: text, Kind: KindError}
}

// NoticeEntry returns a bot notice such as a startup warning.
func NoticeEntry(text string) Entry {
	return Entry{Role: RoleBot, Content: text, Kind: KindNotice}
}

// Log is an ordered sequence of entries; insertion order is display order.
// It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append adds e at the end and returns its handle.
func (l *Log) Append(e Entry) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.ID = Handle(uuid.NewString())
	if e.Time.IsZero() {
		e.Time = l.now()
	}
	l.entries = append(l.entries, e)
	return e.ID
}

// Replace overwrites the entry referenced by h in place. The handle and
// position are preserved.
func (l *Log) Replace(h Handle, e Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(h)
	if i < 0 {
		return fmt.Errorf("replace %s: %w", h, ErrNotFound)
	}
	e.ID = h
	if e.Time.IsZero() {
		e.Time = l.now()
	}
	l.entries[i] = e
	return nil
}

// Remove deletes the entry referenced by h.
func (l *Log) Remove(h Handle) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(h)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", h, ErrNotFound)
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return nil
}

// Clear empties the log.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Snapshot returns a copy of the entries in display order.
func (l *Log) Snapshot() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.entries)
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Settled reports whether no placeholder is waiting for replacement.
func (l *Log) Settled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return !slices.ContainsFunc(l.entries, func(e Entry) bool { return e.Placeholder })
}

func (l *Log) indexOf(h Handle) int {
	return slices.IndexFunc(l.entries, func(e Entry) bool { return e.ID == h })
}
