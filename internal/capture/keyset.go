package capture

import (
	"sort"

	"keylatch/internal/keys"
)

// KeySet is an unordered set of keys.
type KeySet map[keys.Key]struct{}

func NewKeySet(ks ...keys.Key) KeySet {
	s := make(KeySet, len(ks))
	for _, k := range ks {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts k and reports whether it was absent.
func (s KeySet) Add(k keys.Key) bool {
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}

// Remove deletes k and reports whether it was present.
func (s KeySet) Remove(k keys.Key) bool {
	if _, ok := s[k]; !ok {
		return false
	}
	delete(s, k)
	return true
}

func (s KeySet) Has(k keys.Key) bool {
	_, ok := s[k]
	return ok
}

func (s KeySet) HasAny(ks ...keys.Key) bool {
	for _, k := range ks {
		if s.Has(k) {
			return true
		}
	}
	return false
}

func (s KeySet) Clone() KeySet {
	out := make(KeySet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// Without returns the keys of s that are not in other.
func (s KeySet) Without(other KeySet) KeySet {
	out := make(KeySet)
	for k := range s {
		if !other.Has(k) {
			out[k] = struct{}{}
		}
	}
	return out
}

// Sorted returns the keys in a stable order.
func (s KeySet) Sorted() []keys.Key {
	out := make([]keys.Key, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Codes returns the sorted logical codes of the keys in s.
func (s KeySet) Codes() []string {
	sorted := s.Sorted()
	out := make([]string, len(sorted))
	for i, k := range sorted {
		out[i] = k.Code()
	}
	return out
}
