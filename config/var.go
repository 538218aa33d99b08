package config

import (
	"reflect"
	"slices"
	"sync"
	"sync/atomic"
)

// VarBase is the type-erased view of a configuration variable. The
// registry stores every variable behind this interface; typed access is
// recovered with Get / GetOrCreate.
type VarBase interface {
	// Name returns the dotted variable name, fixed for the life of the
	// variable.
	Name() string
	// Description returns the human-readable description.
	Description() string
	// TypeName returns a readable identifier of the value's type.
	TypeName() string
	// ToString renders the current value as YAML text. On codec failure
	// it logs and returns the empty string.
	ToString() string
	// FromString parses YAML text into the value type and assigns it.
	// It reports false on codec failure; the value is then unchanged.
	FromString(text string) bool
	// ValueAny returns the current value without type information.
	ValueAny() any
}

// Listener is a change callback receiving the previous and new value.
type Listener[T any] func(oldValue, newValue T)

// Listener ids come from a single process-global counter, so an id is
// unique across all variables, never reused, and strictly increasing.
var listenerSeq atomic.Uint64

// Var is a named, typed configuration cell with change notification.
type Var[T any] struct {
	name        string
	description string

	mu        sync.RWMutex
	value     T
	listeners map[uint64]Listener[T]
}

func newVar[T any](name string, defaultValue T, description string) *Var[T] {
	return &Var[T]{
		name:        name,
		description: description,
		value:       defaultValue,
		listeners:   make(map[uint64]Listener[T]),
	}
}

func (v *Var[T]) Name() string        { return v.name }
func (v *Var[T]) Description() string { return v.description }

func (v *Var[T]) TypeName() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

// Value returns the current value.
func (v *Var[T]) Value() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.value
}

func (v *Var[T]) ValueAny() any { return v.Value() }

func (v *Var[T]) ToString() string {
	text, err := encodeValue(v.Value())
	if err != nil {
		logger().Error("config var encode failed",
			"name", v.name, "type", v.TypeName(), "error", err)
		return ""
	}
	return text
}

func (v *Var[T]) FromString(text string) bool {
	var parsed T
	if err := decodeValue(text, &parsed); err != nil {
		logger().Error("config var decode failed",
			"name", v.name, "type", v.TypeName(), "text", text, "error", err)
		return false
	}
	v.SetValue(parsed)
	return true
}

// SetValue installs a new value. If the new value equals the current one
// the call is a no-op; otherwise every registered listener is invoked in
// ascending id order with the old and new value, inline on the calling
// goroutine. The listener set is snapshotted before dispatch, so a
// callback may add or remove listeners.
func (v *Var[T]) SetValue(newValue T) {
	v.mu.Lock()
	if valuesEqual(v.value, newValue) {
		v.mu.Unlock()
		return
	}
	oldValue := v.value
	v.value = newValue

	ids := make([]uint64, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	callbacks := make([]Listener[T], len(ids))
	for i, id := range ids {
		callbacks[i] = v.listeners[id]
	}
	v.mu.Unlock()

	for _, cb := range callbacks {
		cb(oldValue, newValue)
	}
}

// AddListener registers a change callback and returns its id.
func (v *Var[T]) AddListener(cb Listener[T]) uint64 {
	id := listenerSeq.Add(1)
	v.mu.Lock()
	v.listeners[id] = cb
	v.mu.Unlock()
	return id
}

// DelListener removes the callback with the given id, if present.
func (v *Var[T]) DelListener(id uint64) {
	v.mu.Lock()
	delete(v.listeners, id)
	v.mu.Unlock()
}

// GetListener returns the callback with the given id, or nil.
func (v *Var[T]) GetListener(id uint64) Listener[T] {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.listeners[id]
}

// ClearAllListeners removes every registered callback.
func (v *Var[T]) ClearAllListeners() {
	v.mu.Lock()
	v.listeners = make(map[uint64]Listener[T])
	v.mu.Unlock()
}

// valuesEqual compares by a type-provided Equal method when available,
// reflect.DeepEqual otherwise.
func valuesEqual[T any](a, b T) bool {
	if eq, ok := any(a).(interface{ Equal(T) bool }); ok {
		return eq.Equal(b)
	}
	return reflect.DeepEqual(a, b)
}
