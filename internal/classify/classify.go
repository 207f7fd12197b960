// Package classify decides whether a question can be answered directly or
// needs a divination ritual.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
)

// Kind is the classification of a question.
type Kind int

const (
	Divinatory Kind = iota
	Informational
)

func (k Kind) String() string {
	switch k {
	case Informational:
		return "informational"
	case Divinatory:
		return "divinatory"
	default:
		return "unknown"
	}
}

// DefaultKeywords mark questions about the reader (contact, background,
// opening hours, fees) rather than questions for the oracle.
var DefaultKeywords = []string{
	"聯絡", "聯繫", "聯系", "電話", "地址", "信箱", "email",
	"背景", "介紹", "是誰", "專長", "經歷", "學歷",
	"工作室", "營業時間", "服務時間", "收費", "費用",
}

// Classifier matches questions against a fixed keyword set.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	keywords []string
}

// New returns a classifier using DefaultKeywords plus any extra keywords.
// Blank extras are ignored.
func New(extra ...string) *Classifier {
	seen := make(map[string]struct{}, len(DefaultKeywords)+len(extra))
	c := &Classifier{}
	for _, kw := range append(append([]string{}, DefaultKeywords...), extra...) {
		kw = fold(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		c.keywords = append(c.keywords, kw)
	}
	return c
}

// Classify returns Informational when the question contains any keyword,
// ignoring case, and Divinatory otherwise.
func (c *Classifier) Classify(question string) Kind {
	q := fold(question)
	for _, kw := range c.keywords {
		if strings.Contains(q, kw) {
			return Informational
		}
	}
	return Divinatory
}

// Keywords returns the folded keyword set.
func (c *Classifier) Keywords() []string {
	return append([]string(nil), c.keywords...)
}

// fold applies Unicode case folding. A Caser keeps state between calls, so
// a fresh one is used each time.
func fold(s string) string {
	return cases.Fold().String(s)
}
