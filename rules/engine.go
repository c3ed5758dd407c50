package rules

import (
	"fmt"
	"sync"
	"time"
)

// Engine binds a district's rule store, cache, and holiday calendar
// into one evaluation surface. Evaluation itself is purely functional
// over the loaded snapshot; the engine only adds snapshot loading and
// cache maintenance. Safe for concurrent use.
type Engine struct {
	store RuleStore
	cache RulesCache

	mu       sync.RWMutex
	holidays []FederalHoliday // district-configured; empty means generated federal list
}

// NewEngine creates a rules engine with an in-memory cache and warms it
// from the store.
func NewEngine(store RuleStore) (*Engine, error) {
	return NewEngineWithCache(store, NewInMemoryRulesCache(DefaultCacheConfig()))
}

// NewEngineWithCache creates a rules engine with a caller-supplied cache
// implementation (e.g. Redis for multi-instance deployments).
func NewEngineWithCache(store RuleStore, cache RulesCache) (*Engine, error) {
	en := &Engine{
		store: store,
		cache: cache,
	}

	if err := en.RefreshRules(); err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	return en, nil
}

// SetHolidays installs a district-specific holiday calendar. When none
// is set, the generated federal holiday list is used.
func (en *Engine) SetHolidays(holidays []FederalHoliday) {
	en.mu.Lock()
	en.holidays = holidays
	en.mu.Unlock()
}

// RefreshRules reloads the active rule snapshot from the store into the
// cache.
func (en *Engine) RefreshRules() error {
	rules, err := en.store.ListActive()
	if err != nil {
		return err
	}
	en.cache.Set(rules)
	return nil
}

// activeRules returns the active snapshot, cache-first.
func (en *Engine) activeRules() ([]*Rule, error) {
	if rules := en.cache.Get(); rules != nil {
		return rules, nil
	}

	rules, err := en.store.ListActive()
	if err != nil {
		return nil, err
	}
	en.cache.Set(rules)
	return rules, nil
}

// Holidays returns the holiday snapshot used for deadline computation
// around the given trigger date: the configured district calendar when
// present, otherwise the generated federal holidays for the trigger year
// and the following year (periods never span more than one year-end).
func (en *Engine) Holidays(triggerDate time.Time) []FederalHoliday {
	en.mu.RLock()
	holidays := en.holidays
	en.mu.RUnlock()

	if len(holidays) > 0 {
		return holidays
	}
	year := triggerDate.Year()
	return append(FederalHolidays(year), FederalHolidays(year+1)...)
}

// EvaluateEvent loads the active rule snapshot and runs the full
// evaluation for one trigger event: selection, priority ordering, and
// action resolution into deadlines and effects.
func (en *Engine) EvaluateEvent(event TriggerEvent, ctx Context, triggerDate time.Time, method ServiceMethod, asOf time.Time) (Resolution, error) {
	rules, err := en.activeRules()
	if err != nil {
		return Resolution{}, fmt.Errorf("failed to load rules: %w", err)
	}

	return EvaluateAndResolve(rules, event, ctx, triggerDate, method, asOf, en.Holidays(triggerDate)), nil
}

// ComputeDeadline computes a standalone deadline using the engine's
// holiday calendar, without involving the rule set.
func (en *Engine) ComputeDeadline(triggerDate time.Time, periodDays int, method ServiceMethod) (DeadlineResult, error) {
	return ComputeDeadline(triggerDate, periodDays, method, en.Holidays(triggerDate))
}

// AddRule adds a new rule to the store and invalidates the cache.
// Callers are expected to validate the rule first.
func (en *Engine) AddRule(r *Rule) error {
	if err := en.store.Add(r); err != nil {
		return err
	}
	en.cache.Invalidate()
	return nil
}

// UpdateRule updates an existing rule and invalidates the cache
func (en *Engine) UpdateRule(r *Rule) error {
	if err := en.store.Update(r); err != nil {
		return err
	}
	en.cache.Invalidate()
	return nil
}

// DeleteRule removes a rule and invalidates the cache
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}
	en.cache.Invalidate()
	return nil
}

// Store exposes the underlying rule store for read paths that need
// non-active rules (listing, fetch by ID).
func (en *Engine) Store() RuleStore {
	return en.store
}
