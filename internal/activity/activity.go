// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package activity defines the user-interaction signals that keep a session
// alive and the capability interfaces a host implements to deliver them.
//
// A host that cannot produce a given kind is not an error: subscribing to an
// unsupported kind returns a no-op unsubscribe function and the handler is
// simply never called.
package activity

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind identifies one class of interaction event.
type Kind string

// Supported activity kinds.
const (
	PointerDown Kind = "pointer-down"
	PointerMove Kind = "pointer-move"
	KeyPress    Kind = "key-press"
	Scroll      Kind = "scroll"
	TouchStart  Kind = "touch-start"
	Click       Kind = "click"
)

var knownKinds = map[Kind]bool{
	PointerDown: true,
	PointerMove: true,
	KeyPress:    true,
	Scroll:      true,
	TouchStart:  true,
	Click:       true,
}

// DefaultKinds returns the kinds that reset the idle clock by default.
func DefaultKinds() []Kind {
	return []Kind{PointerDown, PointerMove, KeyPress, Scroll, TouchStart, Click}
}

// Valid reports whether k is a recognized kind.
func (k Kind) Valid() bool {
	return knownKinds[k]
}

// ParseKind parses a kind name. Underscores and case are normalized, so
// "KEY_PRESS" and "key-press" are the same kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !k.Valid() {
		return "", fmt.Errorf("unknown activity signal %q (valid: %s)", s, strings.Join(kindNames(), ", "))
	}
	return k, nil
}

// ParseKinds parses a comma separated list of kinds.
func ParseKinds(s string) ([]Kind, error) {
	var kinds []Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func kindNames() []string {
	names := make([]string, 0, len(knownKinds))
	for k := range knownKinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// Handler is invoked once per delivered event.
type Handler func(kind Kind)

// Source delivers interaction events.
type Source interface {
	// Subscribe registers h for events of the given kind and returns a
	// function that removes the registration. The returned function is
	// never nil and is safe to call more than once.
	Subscribe(kind Kind, h Handler) (unsubscribe func())
}

// VisibilitySource is implemented by hosts that can report when the
// application moves between foreground and background.
type VisibilitySource interface {
	SubscribeVisibility(h func(visible bool)) (unsubscribe func())
}

// =============================================================================
// NOP SOURCE
// =============================================================================

// Nop is a Source that never delivers anything and has no visibility support.
type Nop struct{}

// Subscribe implements Source.
func (Nop) Subscribe(Kind, Handler) func() {
	return func() {}
}

// =============================================================================
// BUS
// =============================================================================

// Bus is an in-process Source fed by the host through Publish and
// SetVisible. Handlers run synchronously on the publishing goroutine.
type Bus struct {
	mu         sync.Mutex
	supported  map[Kind]bool
	nextID     uint64
	handlers   map[Kind]map[uint64]Handler
	visibility map[uint64]func(bool)
	visible    bool
}

// NewBus creates a Bus that supports the given kinds. With no arguments
// every known kind is supported.
func NewBus(kinds ...Kind) *Bus {
	if len(kinds) == 0 {
		kinds = DefaultKinds()
	}
	supported := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		supported[k] = true
	}
	return &Bus{
		supported:  supported,
		handlers:   make(map[Kind]map[uint64]Handler),
		visibility: make(map[uint64]func(bool)),
		visible:    true,
	}
}

// Supports reports whether the bus can deliver kind.
func (b *Bus) Supports(kind Kind) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.supported[kind]
}

// Subscribe implements Source.
func (b *Bus) Subscribe(kind Kind, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.supported[kind] || h == nil {
		return func() {}
	}

	b.nextID++
	id := b.nextID
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[uint64]Handler)
	}
	b.handlers[kind][id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[kind], id)
			b.mu.Unlock()
		})
	}
}

// SubscribeVisibility implements VisibilitySource.
func (b *Bus) SubscribeVisibility(h func(visible bool)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if h == nil {
		return func() {}
	}
	b.nextID++
	id := b.nextID
	b.visibility[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.visibility, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers one event of the given kind. Unsupported kinds are dropped.
// It returns the number of handlers that received the event.
func (b *Bus) Publish(kind Kind) int {
	b.mu.Lock()
	if !b.supported[kind] {
		b.mu.Unlock()
		return 0
	}
	hs := make([]Handler, 0, len(b.handlers[kind]))
	for _, h := range b.handlers[kind] {
		hs = append(hs, h)
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(kind)
	}
	return len(hs)
}

// SetVisible records a foreground/background transition and notifies
// visibility subscribers. Repeating the current state is a no-op.
func (b *Bus) SetVisible(visible bool) {
	b.mu.Lock()
	if b.visible == visible {
		b.mu.Unlock()
		return
	}
	b.visible = visible
	hs := make([]func(bool), 0, len(b.visibility))
	for _, h := range b.visibility {
		hs = append(hs, h)
	}
	b.mu.Unlock()

	for _, h := range hs {
		h(visible)
	}
}

// Visible reports the last visibility state set on the bus.
func (b *Bus) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Subscribers returns the number of live activity and visibility handlers.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.visibility)
	for _, hs := range b.handlers {
		n += len(hs)
	}
	return n
}
