package internal

import (
	"k8s.io/apimachinery/pkg/util/sets"
)

// DefaultWhitelistKeys are attributes SEMP accepts on write but never returns on read.
var DefaultWhitelistKeys = []string{"password"}

// Whitelist is an immutable set of keys excluded from the comparison between
// desired and current settings. They are still sent on create and update.
type Whitelist struct {
	keys sets.Set[string]
}

// NewWhitelist returns the union of all key groups.
func NewWhitelist(groups ...[]string) Whitelist {
	keys := sets.New[string]()
	for _, g := range groups {
		keys.Insert(g...)
	}
	return Whitelist{keys: keys}
}

func (w Whitelist) Has(key string) bool {
	return w.keys.Has(key)
}

func (w Whitelist) Union(other Whitelist) Whitelist {
	return Whitelist{keys: w.keys.Union(other.keys)}
}

func (w Whitelist) Keys() []string {
	return sets.List(w.keys)
}

// Strip returns a copy of s without whitelisted top level keys.
func (w Whitelist) Strip(s Settings) Settings {
	if s == nil {
		return nil
	}
	out := make(Settings, len(s))
	for k, v := range s {
		if w.keys.Has(k) {
			continue
		}
		out[k] = v
	}
	return out
}
