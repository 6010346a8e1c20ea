package config

import (
	"sync"
)

// Observer is called after the active options change.
type Observer func(old, new Options)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	provider *Provider
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.provider != nil {
		s.provider.unsubscribe(s.id)
	}
}

// Provider holds the validated, active options and notifies observers when
// they are replaced (live reload, programmatic update). Readers always see
// a complete, validated snapshot.
type Provider struct {
	mu        sync.RWMutex
	current   Options
	observers map[uint64]Observer
	nextID    uint64
}

// NewProvider creates a provider seeded with the given options. The seed is
// validated; invalid fields silently take their defaults here, since the
// caller is expected to have already reported FieldErrors from Validate or
// Loader.Load.
func NewProvider(opts Options) *Provider {
	validated, _ := Validate(opts)
	return &Provider{
		current:   validated,
		observers: make(map[uint64]Observer),
	}
}

// Current returns the active options snapshot.
func (p *Provider) Current() Options {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Update validates and installs new options, returning any per-field
// rejections. Observers run after the swap, outside the lock.
func (p *Provider) Update(opts Options) []FieldError {
	validated, errs := Validate(opts)

	p.mu.Lock()
	old := p.current
	p.current = validated
	observers := make([]Observer, 0, len(p.observers))
	for _, obs := range p.observers {
		observers = append(observers, obs)
	}
	p.mu.Unlock()

	for _, obs := range observers {
		obs(old, validated)
	}
	return errs
}

// Subscribe registers an observer for option changes.
func (p *Provider) Subscribe(obs Observer) *Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.observers[id] = obs
	return &Subscription{id: id, provider: p}
}

func (p *Provider) unsubscribe(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.observers, id)
}
