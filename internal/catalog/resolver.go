package catalog

import "strings"

// NormalizeKey lowercases an identifier and strips every character outside
// [a-z0-9], so differently cased, spaced, or punctuated spellings of the
// same identifier compare equal.
func NormalizeKey(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve maps a possibly-malformed (type, name) pair to a canonical catalog
// entry. The cascade stops at the first success:
//
//  1. Verbatim (type, name) match.
//  2. Normalize the type to a canonical type, then normalize the name
//     against that type's name index.
//  3. Normalize the name alone and look it up across the whole catalog;
//     succeeds only when exactly one entry shares that normalized name.
//
// Ambiguous cross-type matches stay unresolved.
// Returns (key, true) on success, (zero, false) if unresolved.
func (c *Catalog) Resolve(rawType, rawName string) (MethodKey, bool) {
	resolved := MethodKey{Type: rawType, Name: rawName}
	if _, ok := c.exact[resolved]; ok {
		return resolved, true
	}

	if canonicalType, ok := c.typeIndex[NormalizeKey(rawType)]; ok {
		resolved.Type = canonicalType
	}
	normalizedName := NormalizeKey(rawName)
	if nameMap, ok := c.nameIndexByType[resolved.Type]; ok {
		if canonicalName, ok := nameMap[normalizedName]; ok {
			resolved.Name = canonicalName
		}
	}
	if _, ok := c.exact[resolved]; ok {
		return resolved, true
	}

	// Last resort: the name is recognizable but the type is not. Accept the
	// match only when the catalog holds a single entry under that name.
	if candidates := c.nameIndex[normalizedName]; len(candidates) == 1 {
		return candidates[0], true
	}

	return MethodKey{}, false
}
