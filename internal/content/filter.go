package content

// Filter selects the content items an operation processes.
type Filter func(item Item) bool

// All accepts every item.
func All(Item) bool { return true }

// MiscOnly accepts misc items.
func MiscOnly(item Item) bool { return item.Type == TypeMisc }

// ModulesOnly accepts modules.
func ModulesOnly(item Item) bool { return item.Type == TypeModule }

// BundlesOnly accepts bundles.
func BundlesOnly(item Item) bool { return item.Type == TypeBundle }

// Types accepts items of any of the given types.
func Types(types ...Type) Filter {
	return func(item Item) bool {
		for _, t := range types {
			if item.Type == t {
				return true
			}
		}
		return false
	}
}

// Accepts reports whether the filter accepts the item. A nil filter accepts everything.
func (f Filter) Accepts(item Item) bool {
	if f == nil {
		return true
	}
	return f(item)
}
