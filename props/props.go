// Package props implements Properties, the typed key-value bag that
// events, constraints, and hooks all match against (spec §4.1).
package props

import (
	"wireplumber/internal/werror"
)

// Properties is a mapping from string keys to string values. Insertion
// order is irrelevant; keys are unique and case-sensitive.
//
// A Properties value uses copy-on-write: Clone shares the underlying
// map cheaply, and a subsequent Set or Unset on either the original or
// the clone copies the map first, so neither observer ever sees the
// other's mutation. Once a Properties has been handed to a hook for
// matching, callers should treat it as immutable for the duration of
// that match.
type Properties struct {
	m map[string]string
}

// New returns an empty Properties.
func New() *Properties {
	return &Properties{m: map[string]string{}}
}

// FromPairs builds a Properties from alternating key, value strings.
// Fails with InvalidArgumentError if given an odd number of arguments.
func FromPairs(pairs ...string) (*Properties, error) {
	if len(pairs)%2 != 0 {
		return nil, &werror.InvalidArgumentError{What: "odd number of arguments to FromPairs"}
	}
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return &Properties{m: m}, nil
}

// Set stores value under key, copying the underlying map first so any
// clone sharing it is unaffected.
func (p *Properties) Set(key, value string) {
	m := make(map[string]string, len(p.m)+1)
	for k, v := range p.m {
		m[k] = v
	}
	m[key] = value
	p.m = m
}

// Unset removes key, copying the underlying map first.
func (p *Properties) Unset(key string) {
	if _, have := p.m[key]; !have {
		return
	}
	m := make(map[string]string, len(p.m))
	for k, v := range p.m {
		if k != key {
			m[k] = v
		}
	}
	p.m = m
}

// Get returns the value for key and whether it was present.
func (p *Properties) Get(key string) (string, bool) {
	v, have := p.m[key]
	return v, have
}

// Len returns the number of entries.
func (p *Properties) Len() int {
	return len(p.m)
}

// Each calls fn for every (key, value) pair in unspecified order. It is
// the lazy-iteration primitive §4.1 calls for.
func (p *Properties) Each(fn func(key, value string)) {
	for k, v := range p.m {
		fn(k, v)
	}
}

// Equal reports whether p and other have exactly the same entries.
func (p *Properties) Equal(other *Properties) bool {
	if p == other {
		return true
	}
	if other == nil || len(p.m) != len(other.m) {
		return false
	}
	for k, v := range p.m {
		if ov, have := other.m[k]; !have || ov != v {
			return false
		}
	}
	return true
}

// Clone returns a Properties sharing this one's underlying storage. The
// clone is cheap: no entries are copied until either value is mutated.
func (p *Properties) Clone() *Properties {
	return &Properties{m: p.m}
}

// DeepCopy returns a Properties with its own independent copy of every
// entry.
func (p *Properties) DeepCopy() *Properties {
	m := make(map[string]string, len(p.m))
	for k, v := range p.m {
		m[k] = v
	}
	return &Properties{m: m}
}
