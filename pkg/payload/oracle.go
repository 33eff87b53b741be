// Package payload implements the payload-synthesis engine: a backtracking
// resolver that expands a requirement tree into a template expression
// accepted by a caller-supplied oracle, plus the full-payload facade that
// wraps accepted expressions in an outer template pattern.
package payload

import "strings"

// Oracle decides whether a rendered candidate is acceptable. For offline
// synthesis it is a pure blocklist check; for live synthesis it wraps a
// submitter round trip. A non-nil error means the check itself could not be
// completed (transport failure) and is distinct from a confirmed rejection.
type Oracle func(candidate string) (bool, error)

// StaticOracle returns an oracle accepting exactly the strings containing
// none of the given keywords.
func StaticOracle(keywords []string) Oracle {
	block := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			block = append(block, k)
		}
	}
	return func(candidate string) (bool, error) {
		for _, k := range block {
			if strings.Contains(candidate, k) {
				return false, nil
			}
		}
		return true, nil
	}
}

// AcceptAll is the trivial oracle, useful when no filter is known.
func AcceptAll(string) (bool, error) { return true, nil }
