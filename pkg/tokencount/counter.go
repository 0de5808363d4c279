// Package tokencount provides token counting for record bodies, so stored
// token counts line up with the budget arithmetic of pack assembly.
//
// The primary counter is tiktoken-based; an estimator fallback keeps the
// indexing path working when encoding data cannot be loaded.
package tokencount

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used when none is specified.
const DefaultEncoding = "cl100k_base"

// Counter counts tokens in text.
type Counter interface {
	// Count returns the number of tokens in the text.
	Count(text string) (int, error)
}

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding is
// initialized lazily because loading it may download data on first use.
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenCounter creates a counter for the given encoding name. An
// empty name uses DefaultEncoding.
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &TiktokenCounter{encoding: encoding}
}

func (c *TiktokenCounter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = fmt.Errorf("init tiktoken encoding %s: %w", c.encoding, err)
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// Count returns the token count of the text.
func (c *TiktokenCounter) Count(text string) (int, error) {
	if err := c.init(); err != nil {
		return 0, err
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}

// Estimator approximates token counts as ceil(runes / 4), the usual rough
// ratio for English prose. It never fails.
type Estimator struct{}

// Count returns the estimated token count of the text.
func (Estimator) Count(text string) (int, error) {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4, nil
}

// WithFallback returns a Counter that tries primary first and falls back
// to fallback when primary fails.
func WithFallback(primary, fallback Counter) Counter {
	return fallbackCounter{primary: primary, fallback: fallback}
}

type fallbackCounter struct {
	primary  Counter
	fallback Counter
}

func (f fallbackCounter) Count(text string) (int, error) {
	if n, err := f.primary.Count(text); err == nil {
		return n, nil
	}
	return f.fallback.Count(text)
}
