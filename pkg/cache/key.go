package cache

import (
	"fmt"
	"sort"
	"strings"
)

// Key identifies a cached storefront view model.
type Key struct {
	// Kind names the view-model family (e.g. "order_confirmation",
	// "cart").
	Kind string

	// Scope is the tenant/catalog partition the value belongs to.
	Scope string

	// ID is the entity identifier within the kind (cart id, order
	// number).
	ID string

	// Qualifiers are optional extra dimensions (e.g. {"culture": "en-CA"}).
	Qualifiers map[string]string
}

// String generates a deterministic cache key string.
// Format: storefront:kind:scope:id:qual1=val1:qual2=val2
//
// Example:
//
//	storefront:order_confirmation:Canada:cart-42:culture=en-CA
func (k Key) String() string {
	parts := []string{"storefront"}

	if k.Kind != "" {
		parts = append(parts, k.Kind)
	}
	if k.Scope != "" {
		parts = append(parts, k.Scope)
	}
	if k.ID != "" {
		parts = append(parts, k.ID)
	}

	// Qualifiers sorted for determinism
	if len(k.Qualifiers) > 0 {
		names := make([]string, 0, len(k.Qualifiers))
		for name := range k.Qualifiers {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, k.Qualifiers[name]))
		}
	}

	return strings.Join(parts, ":")
}
