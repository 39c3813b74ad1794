package palette

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownScheme indicates a scheme name with no palette.
var ErrUnknownScheme = errors.New("unknown color scheme")

// Notifier reports color scheme changes.
type Notifier interface {
	Subscribe(fn func()) *Subscription
}

// Subscription is returned by Subscribe.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe stops notifications. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.once.Do(s.cancel)
}

// Theme holds one palette per scheme and the active scheme. It resolves
// colors from the active palette and notifies subscribers whenever the
// active colors may have changed.
type Theme struct {
	mu      sync.RWMutex
	schemes map[string]Palette
	active  string

	listenersMu sync.Mutex
	listeners   map[uint64]func()
	nextID      uint64
}

// NewTheme returns a theme over the given schemes with active selected.
func NewTheme(schemes map[string]Palette, active string) (*Theme, error) {
	if _, ok := schemes[active]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, active)
	}
	return &Theme{
		schemes:   schemes,
		active:    active,
		listeners: make(map[uint64]func()),
	}, nil
}

// DefaultTheme returns the built-in schemes with the light scheme active.
func DefaultTheme() *Theme {
	theme, _ := NewTheme(BuiltinSchemes(), SchemeLight)
	return theme
}

// Resolve implements Resolver against the active scheme.
func (t *Theme) Resolve(cssVar string) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.schemes[t.active].Resolve(cssVar)
}

// Scheme returns the active scheme name.
func (t *Theme) Scheme() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// Schemes returns the known scheme names sorted.
func (t *Theme) Schemes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.schemes))
	for name := range t.schemes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Palette returns a copy of a scheme's palette.
func (t *Theme) Palette(scheme string) (Palette, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.schemes[scheme]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// SetScheme switches the active scheme and notifies subscribers.
func (t *Theme) SetScheme(name string) error {
	t.mu.Lock()
	if _, ok := t.schemes[name]; !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownScheme, name)
	}
	changed := t.active != name
	t.active = name
	t.mu.Unlock()

	if changed {
		t.notify()
	}
	return nil
}

// Merge overlays the given schemes onto the theme. Colors present in an
// overlay replace the existing ones; schemes not yet known are added.
// Subscribers are notified.
func (t *Theme) Merge(schemes map[string]Palette) {
	t.mu.Lock()
	for name, overlay := range schemes {
		current, ok := t.schemes[name]
		if !ok {
			current = make(Palette, len(overlay))
			t.schemes[name] = current
		}
		for k, v := range overlay {
			current[k] = v
		}
	}
	t.mu.Unlock()

	t.notify()
}

// Subscribe implements Notifier.
func (t *Theme) Subscribe(fn func()) *Subscription {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()

	id := t.nextID
	t.nextID++
	t.listeners[id] = fn

	return &Subscription{cancel: func() {
		t.listenersMu.Lock()
		delete(t.listeners, id)
		t.listenersMu.Unlock()
	}}
}

// Subscribers returns the current number of subscriptions.
func (t *Theme) Subscribers() int {
	t.listenersMu.Lock()
	defer t.listenersMu.Unlock()
	return len(t.listeners)
}

func (t *Theme) notify() {
	t.listenersMu.Lock()
	ids := make([]uint64, 0, len(t.listeners))
	for id := range t.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, t.listeners[id])
	}
	t.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
