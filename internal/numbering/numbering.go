// Package numbering assigns sequential document numbers (invoices, quotes)
// per user. Uniqueness is guaranteed by the persistence layer, not by an
// in-process lock: allocation optimistically creates the document under a
// (user, number) unique constraint and retries with an advanced counter on
// conflict, so concurrent instances converge without coordination.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrExhausted is returned when allocation still conflicts after the
	// bounded retry budget.
	ErrExhausted = errors.New("numbering: attempts exhausted")
	// ErrTaken is returned when a number already exists for the user.
	ErrTaken = errors.New("numbering: number already taken")
	// ErrBadFormat is returned for manual numbers failing the pattern.
	ErrBadFormat = errors.New("numbering: invalid number format")
)

// Retry budgets. Duplication gets more attempts: duplicated documents are
// created in bursts right after the original, so conflicts are likelier.
const (
	CreateAttempts    = 3
	DuplicateAttempts = 10
)

var manualPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,40}$`)

// Counter is the per-user numbering state.
type Counter struct {
	Prefix  string
	Padding int
	Next    int
}

// Store is the persistence contract the allocator runs against.
type Store interface {
	// Counter reads the current counter state.
	Counter(ctx context.Context) (Counter, error)
	// Create persists the document under number. Must return an error
	// wrapping ErrTaken when (user, number) already exists.
	Create(ctx context.Context, number string) error
	// SetNext advances the stored counter.
	SetNext(ctx context.Context, next int) error
	// Exists reports whether the user already has a document with number.
	Exists(ctx context.Context, number string) (bool, error)
}

// Format renders a counter value: zero-padded to padding width, with
// "prefix-" prepended when a prefix is configured.
func Format(prefix string, next, padding int) string {
	num := fmt.Sprintf("%0*d", padding, next)
	if prefix == "" {
		return num
	}
	return prefix + "-" + num
}

// Allocate assigns the next free number, retrying up to attempts times on
// uniqueness conflicts. On success the stored counter is advanced past the
// used value.
func Allocate(ctx context.Context, s Store, attempts int) (string, error) {
	for i := 0; i < attempts; i++ {
		c, err := s.Counter(ctx)
		if err != nil {
			return "", err
		}
		if c.Next < 1 {
			c.Next = 1
		}
		candidate := Format(c.Prefix, c.Next, c.Padding)
		if err := s.Create(ctx, candidate); err != nil {
			if errors.Is(err, ErrTaken) {
				// someone used this number first: advance and retry
				if err := s.SetNext(ctx, c.Next+1); err != nil {
					return "", err
				}
				continue
			}
			return "", err
		}
		if err := s.SetNext(ctx, c.Next+1); err != nil {
			return "", err
		}
		return candidate, nil
	}
	return "", ErrExhausted
}

// UseManual persists a caller-chosen number, bypassing the counter entirely.
// The counter is neither consulted nor advanced.
func UseManual(ctx context.Context, s Store, number string) error {
	number = strings.TrimSpace(number)
	if !manualPattern.MatchString(number) {
		return ErrBadFormat
	}
	taken, err := s.Exists(ctx, number)
	if err != nil {
		return err
	}
	if taken {
		return ErrTaken
	}
	return s.Create(ctx, number)
}

// EmbeddedNumber extracts the counter value embedded in an allocated number
// for the given prefix. Used to re-sync a counter against manually edited or
// partially failed documents.
func EmbeddedNumber(number, prefix string) (int, bool) {
	digits := number
	if prefix != "" {
		if !strings.HasPrefix(number, prefix+"-") {
			return 0, false
		}
		digits = strings.TrimPrefix(number, prefix+"-")
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Sync advances the counter when latest (the most recent existing number for
// the current prefix) embeds a value at or past the stored Next. Self-healing
// against manual edits: the next allocation will not regenerate a used number.
func Sync(ctx context.Context, s Store, latest string) error {
	c, err := s.Counter(ctx)
	if err != nil {
		return err
	}
	n, ok := EmbeddedNumber(latest, c.Prefix)
	if !ok {
		return nil
	}
	if n >= c.Next {
		return s.SetNext(ctx, n+1)
	}
	return nil
}
