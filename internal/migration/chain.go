// Package migration bridges stored payloads from older schema versions to
// the current one through an ordered chain of transforms.
package migration

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrMigration wraps a transform that failed
	ErrMigration = errors.New("migration failed")

	// ErrDowngrade is returned when the target version is lower than the source
	ErrDowngrade = errors.New("downgrade is not supported")

	// ErrOvershoot is returned when a migrator jumps past the target version
	ErrOvershoot = errors.New("migration overshoots target version")
)

// Func transforms a payload from one schema version to the next
type Func func(payload string) (string, error)

// Migrator moves a payload from version From to version To
type Migrator struct {
	From int
	To   int
	Fn   Func
}

// Step records one applied migrator
type Step struct {
	From int
	To   int
}

// Gap records a hop that had no registered migrator and was passed through unchanged
type Gap struct {
	From int
	To   int
}

// Result is the outcome of Migrate
type Result struct {
	Payload string
	Version int
	Applied []Step
	Gaps    []Gap
}

// Chain holds migrators sorted by From. Lookup is by exact From; registering
// the same From twice replaces the earlier migrator.
type Chain struct {
	mu        sync.RWMutex
	migrators []Migrator
}

// NewChain returns a chain holding migrators
func NewChain(migrators ...Migrator) (*Chain, error) {
	c := &Chain{}
	for _, m := range migrators {
		if err := c.Register(m.From, m.To, m.Fn); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds a migrator for from -> to
func (c *Chain) Register(from, to int, fn Func) error {
	if from < 0 {
		return fmt.Errorf("migrator from version must be non-negative, got %d", from)
	}
	if to <= from {
		return fmt.Errorf("migrator %d -> %d must move forward", from, to)
	}
	if fn == nil {
		return fmt.Errorf("migrator %d -> %d has no transform", from, to)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i := sort.Search(len(c.migrators), func(i int) bool { return c.migrators[i].From >= from })
	m := Migrator{From: from, To: to, Fn: fn}
	if i < len(c.migrators) && c.migrators[i].From == from {
		c.migrators[i] = m
		return nil
	}
	c.migrators = append(c.migrators, Migrator{})
	copy(c.migrators[i+1:], c.migrators[i:])
	c.migrators[i] = m
	return nil
}

// Steps lists registered hops in From order
func (c *Chain) Steps() []Step {
	c.mu.RLock()
	defer c.mu.RUnlock()
	steps := make([]Step, len(c.migrators))
	for i, m := range c.migrators {
		steps[i] = Step{From: m.From, To: m.To}
	}
	return steps
}

// Len returns the number of registered migrators
func (c *Chain) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.migrators)
}

func (c *Chain) lookup(from int) (Migrator, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i := sort.Search(len(c.migrators), func(i int) bool { return c.migrators[i].From >= from })
	if i < len(c.migrators) && c.migrators[i].From == from {
		return c.migrators[i], true
	}
	return Migrator{}, false
}

// Migrate walks payload from version from up to version to one hop at a
// time. A hop with no migrator passes the payload through unchanged and is
// reported in Result.Gaps. A nil chain only produces gaps.
func (c *Chain) Migrate(payload string, from, to int) (Result, error) {
	res := Result{Payload: payload, Version: from}
	if to < from {
		return res, fmt.Errorf("%w: %d -> %d", ErrDowngrade, from, to)
	}

	for res.Version < to {
		v := res.Version
		var (
			m  Migrator
			ok bool
		)
		if c != nil {
			m, ok = c.lookup(v)
		}
		if !ok {
			res.Gaps = append(res.Gaps, Gap{From: v, To: v + 1})
			res.Version = v + 1
			continue
		}
		if m.To > to {
			return res, fmt.Errorf("%w: migrator %d -> %d, target %d", ErrOvershoot, m.From, m.To, to)
		}
		out, err := m.Fn(res.Payload)
		if err != nil {
			return res, fmt.Errorf("%w: %d -> %d: %w", ErrMigration, m.From, m.To, err)
		}
		res.Payload = out
		res.Version = m.To
		res.Applied = append(res.Applied, Step{From: m.From, To: m.To})
	}
	return res, nil
}
