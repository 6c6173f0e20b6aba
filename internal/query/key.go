// Package query implements the process-wide content cache: keyed entries
// with staleness windows, in-flight request de-duplication, bounded retry,
// mutation-driven invalidation, and garbage collection of unused entries.
package query

import "strings"

// keySep separates tuple parts in the canonical form. A non-printing
// separator keeps distinct tuples distinct even when parts contain slashes.
const keySep = "\x1f"

// Key is an ordered tuple identifying one cached resource/parameter
// combination. Two keys address the same entry iff their tuples are equal.
type Key []string

// K builds a Key from its parts.
func K(parts ...string) Key { return Key(parts) }

// canonical returns the map-addressing form of the key.
func (k Key) canonical() string { return strings.Join(k, keySep) }

// String renders the key for logs and events.
func (k Key) String() string { return strings.Join(k, "/") }

// Equal reports deep tuple equality.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}
