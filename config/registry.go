package config

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// The registry is a process-wide table of variables plus the per-file
// modification-time cache used by LoadFromConfDir. It is built lazily on
// first access and torn down only by ClearAll.
type registry struct {
	mu     sync.RWMutex
	vars   map[string]VarBase
	mtimes map[string]int64
}

var (
	regOnce sync.Once
	reg     *registry
)

func defaultRegistry() *registry {
	regOnce.Do(func() {
		reg = &registry{
			vars:   make(map[string]VarBase),
			mtimes: make(map[string]int64),
		}
	})
	return reg
}

// GetOrCreate returns the variable registered under name, creating it
// with defaultValue and description if absent.
//
// If name exists with the requested type, the existing handle is returned
// and defaultValue/description are ignored. If name exists with a
// different type, the handle is nil and the error wraps ErrTypeMismatch;
// the registry is not mutated. If name is absent and invalid, the error
// wraps ErrInvalidName.
func GetOrCreate[T any](name string, defaultValue T, description string) (*Var[T], error) {
	r := defaultRegistry()

	r.mu.RLock()
	existing, ok := r.vars[name]
	r.mu.RUnlock()
	if ok {
		return asTyped[T](name, existing)
	}

	if !isValidName(name) {
		logger().Error("config var name invalid", "name", name)
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.vars[name]; ok {
		return asTyped[T](name, existing)
	}

	v := newVar(name, defaultValue, description)
	r.vars[name] = v
	return v, nil
}

func asTyped[T any](name string, base VarBase) (*Var[T], error) {
	typed, ok := base.(*Var[T])
	if !ok {
		requested := reflect.TypeOf((*T)(nil)).Elem().String()
		logger().Error("config var exists with different type",
			"name", name, "requested", requested,
			"actual", base.TypeName(), "value", base.ToString())
		return nil, fmt.Errorf("%w: %s is %s, not %s",
			ErrTypeMismatch, name, base.TypeName(), requested)
	}
	return typed, nil
}

// Get returns the variable registered under name if it exists with the
// requested type, nil otherwise. It never creates.
func Get[T any](name string) *Var[T] {
	base := GetBase(name)
	if base == nil {
		return nil
	}
	typed, _ := base.(*Var[T])
	return typed
}

// GetBase returns the type-erased variable registered under name, or nil.
func GetBase(name string) VarBase {
	r := defaultRegistry()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vars[name]
}

// ClearAll drops every registered variable and the file timestamp cache.
func ClearAll() {
	r := defaultRegistry()
	r.mu.Lock()
	r.vars = make(map[string]VarBase)
	r.mtimes = make(map[string]int64)
	r.mu.Unlock()
}

// Scan decodes the registered values under basePath into target, which
// must be a non-nil pointer to a struct or map. Field mapping uses the
// "yaml" struct tag. An empty basePath scans the whole registry.
func Scan(basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("scan target must be a non-nil pointer, got %T", target)
	}

	r := defaultRegistry()
	r.mu.RLock()
	nested := make(map[string]any)
	for name, base := range r.vars {
		setNestedValue(nested, name, base.ValueAny())
	}
	r.mu.RUnlock()

	var section any = nested
	basePath = strings.TrimSuffix(basePath, ".")
	if basePath != "" {
		current := any(nested)
		found := true
		for _, segment := range strings.Split(basePath, ".") {
			currentMap, ok := current.(map[string]any)
			if !ok {
				found = false
				break
			}
			value, exists := currentMap[segment]
			if !exists {
				found = false
				break
			}
			current = value
		}
		if found {
			section = current
		} else {
			section = make(map[string]any)
		}
	}

	sectionMap, ok := section.(map[string]any)
	if !ok {
		return fmt.Errorf("config path %q does not refer to a scannable section, but to %T", basePath, section)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(sectionMap); err != nil {
		return fmt.Errorf("failed to scan section %q into %T: %w", basePath, target, err)
	}
	return nil
}
