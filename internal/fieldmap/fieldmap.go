// Package fieldmap maps attribute keys to the synthetic kind that replaces
// them, or marks them for deletion.
//
// Keys are matched after normalization: a single leading underscore (the
// "hidden" form some plugins use) is ignored, so "billing_city" and
// "_billing_city" resolve to the same rule.
package fieldmap

import (
	"sort"
	"strings"

	"github.com/vvka-141/pgsanitize/pkg/sanitize"
)

// Action tells the caller what to do with a matched attribute.
type Action int

const (
	// Replace rewrites the value with a synthetic value of Rule.Kind.
	Replace Action = iota
	// Delete removes the attribute entry.
	Delete
)

func (a Action) String() string {
	if a == Delete {
		return "delete"
	}
	return "replace"
}

// Rule is the treatment of one attribute key.
type Rule struct {
	Action Action
	Kind   sanitize.Kind
}

// Registry is an immutable key to rule lookup.
type Registry struct {
	name  string
	rules map[string]Rule
}

// NewRegistry builds a registry. Keys are stored normalized.
func NewRegistry(name string, rules map[string]Rule) *Registry {
	normalized := make(map[string]Rule, len(rules))
	for k, r := range rules {
		normalized[NormalizeKey(k)] = r
	}
	return &Registry{name: name, rules: normalized}
}

// Name identifies the registry in log output.
func (r *Registry) Name() string { return r.name }

// KindFor returns the rule for key, normalizing it first.
func (r *Registry) KindFor(key string) (Rule, bool) {
	rule, ok := r.rules[NormalizeKey(key)]
	return rule, ok
}

// Keys returns the normalized keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.rules))
	for k := range r.rules {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of keys.
func (r *Registry) Len() int { return len(r.rules) }

// NormalizeKey strips one leading underscore.
func NormalizeKey(key string) string {
	return strings.TrimPrefix(key, "_")
}

// Variants returns the plain and underscore-prefixed forms of key.
func Variants(key string) []string {
	plain := NormalizeKey(key)
	return []string{plain, "_" + plain}
}
