package config

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// encodeValue renders v as a YAML document without the trailing newline.
func encodeValue(v any) (string, error) {
	out, err := yaml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("yaml encode failed: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

// decodeValue parses YAML text into out, which must be a non-nil pointer.
// Numeric and boolean targets take a strict scalar path: the entire input
// must parse, so trailing garbage is an error. Everything else — strings,
// sequences, maps, sets, record types — goes through the YAML decoder,
// which recurses into nested containers.
func decodeValue(text string, out any) error {
	s := strings.TrimSpace(text)

	switch p := out.(type) {
	case *bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("cannot parse %q as bool: %w", s, err)
		}
		*p = b
	case *int:
		n, err := strconv.ParseInt(s, 10, strconv.IntSize)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int: %w", s, err)
		}
		*p = int(n)
	case *int8:
		n, err := strconv.ParseInt(s, 10, 8)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int8: %w", s, err)
		}
		*p = int8(n)
	case *int16:
		n, err := strconv.ParseInt(s, 10, 16)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int16: %w", s, err)
		}
		*p = int16(n)
	case *int32:
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int32: %w", s, err)
		}
		*p = int32(n)
	case *int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as int64: %w", s, err)
		}
		*p = n
	case *uint:
		n, err := strconv.ParseUint(s, 10, strconv.IntSize)
		if err != nil {
			return fmt.Errorf("cannot parse %q as uint: %w", s, err)
		}
		*p = uint(n)
	case *uint8:
		n, err := strconv.ParseUint(s, 10, 8)
		if err != nil {
			return fmt.Errorf("cannot parse %q as uint8: %w", s, err)
		}
		*p = uint8(n)
	case *uint16:
		n, err := strconv.ParseUint(s, 10, 16)
		if err != nil {
			return fmt.Errorf("cannot parse %q as uint16: %w", s, err)
		}
		*p = uint16(n)
	case *uint32:
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return fmt.Errorf("cannot parse %q as uint32: %w", s, err)
		}
		*p = uint32(n)
	case *uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as uint64: %w", s, err)
		}
		*p = n
	case *float32:
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("cannot parse %q as float32: %w", s, err)
		}
		*p = float32(f)
	case *float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as float64: %w", s, err)
		}
		*p = f
	default:
		if err := yaml.Unmarshal([]byte(text), out); err != nil {
			return fmt.Errorf("yaml decode failed: %w", err)
		}
	}
	return nil
}

// Set is an unordered collection of unique elements. In YAML a Set is a
// sequence; emission order is deterministic (sorted by each element's
// YAML form) but carries no meaning, and round-trips preserve multiset
// equality.
type Set[T comparable] map[T]struct{}

// NewSet builds a Set from the given elements.
func NewSet[T comparable](elems ...T) Set[T] {
	s := make(Set[T], len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Contains reports whether v is in the set.
func (s Set[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s Set[T]) Add(v T) { s[v] = struct{}{} }

func (s Set[T]) MarshalYAML() (any, error) {
	type pair struct {
		key string
		val T
	}
	pairs := make([]pair, 0, len(s))
	for v := range s {
		text, err := encodeValue(v)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{key: text, val: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	out := make([]T, len(pairs))
	for i, p := range pairs {
		out[i] = p.val
	}
	return out, nil
}

func (s *Set[T]) UnmarshalYAML(node *yaml.Node) error {
	var elems []T
	if err := node.Decode(&elems); err != nil {
		return err
	}
	m := make(Set[T], len(elems))
	for _, e := range elems {
		m[e] = struct{}{}
	}
	*s = m
	return nil
}

// SortedSet is an ordered collection of unique elements; its YAML form is
// a sequence in ascending element order.
type SortedSet[T cmp.Ordered] map[T]struct{}

// NewSortedSet builds a SortedSet from the given elements.
func NewSortedSet[T cmp.Ordered](elems ...T) SortedSet[T] {
	s := make(SortedSet[T], len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Contains reports whether v is in the set.
func (s SortedSet[T]) Contains(v T) bool {
	_, ok := s[v]
	return ok
}

// Add inserts v.
func (s SortedSet[T]) Add(v T) { s[v] = struct{}{} }

// Elems returns the elements in ascending order.
func (s SortedSet[T]) Elems() []T {
	out := make([]T, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func (s SortedSet[T]) MarshalYAML() (any, error) {
	return s.Elems(), nil
}

func (s *SortedSet[T]) UnmarshalYAML(node *yaml.Node) error {
	var elems []T
	if err := node.Decode(&elems); err != nil {
		return err
	}
	m := make(SortedSet[T], len(elems))
	for _, e := range elems {
		m[e] = struct{}{}
	}
	*s = m
	return nil
}
