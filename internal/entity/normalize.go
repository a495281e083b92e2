package entity

import "strings"

// Normalize maps a free-text mention to a canonical entity name. It first
// tests exact equality against each canonical name, then falls back to
// bidirectional substring containment against that entity's variations: the
// mention matches when the lowercased mention contains the variation or the
// variation contains the mention. The first catalog entry with any match
// wins. A false second return means the mention is not a curated entity;
// callers treat that as a silent filter, not a failure.
func Normalize(mention string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(mention))
	if normalized == "" {
		return "", false
	}

	for _, def := range Catalog {
		if normalized == strings.ToLower(def.Name) {
			return def.Name, true
		}

		for _, variation := range def.Variations {
			variationLower := strings.ToLower(variation)
			if strings.Contains(normalized, variationLower) || strings.Contains(variationLower, normalized) {
				return def.Name, true
			}
		}
	}

	return "", false
}
