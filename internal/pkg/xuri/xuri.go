// Package xuri normalizes URLs between their fully-qualified http(s) form
// and the unit-relative personium-localunit: form. Stored documents use the
// localunit form so they survive a unit base-URL change; wire responses use
// the http form unless the caller itself speaks localunit.
package xuri

import "strings"

// SchemeLocalUnit is the scheme of unit-relative URLs, e.g.
// "personium-localunit:/cell1/".
const SchemeLocalUnit = "personium-localunit"

const localUnitPrefix = SchemeLocalUnit + ":"

// IsLocalUnit reports whether u uses the localunit scheme.
func IsLocalUnit(u string) bool {
	return strings.HasPrefix(u, localUnitPrefix)
}

// IsHTTP reports whether u is an absolute http(s) URL.
func IsHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// EnsureTrailingSlash appends a trailing slash unless one is present.
func EnsureTrailingSlash(u string) string {
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}

	return u + "/"
}

// ToHTTP resolves a localunit URL against the unit base URL. URLs in any
// other form are returned unchanged.
func ToHTTP(unitBase, u string) string {
	if !IsLocalUnit(u) {
		return u
	}

	rest := strings.TrimPrefix(u, localUnitPrefix)
	rest = strings.TrimPrefix(rest, "/")

	return EnsureTrailingSlash(unitBase) + rest
}

// ToLocalUnit rewrites an absolute URL addressed at this unit to the
// localunit form. URLs outside the unit, or already in localunit form, are
// returned unchanged.
func ToLocalUnit(unitBase, u string) string {
	if IsLocalUnit(u) {
		return u
	}

	base := EnsureTrailingSlash(unitBase)
	if !strings.HasPrefix(u, base) {
		return u
	}

	return localUnitPrefix + "/" + strings.TrimPrefix(u, base)
}

// Equivalent reports whether a and b identify the same resource on this
// unit, regardless of which scheme form each uses. Trailing slashes are not
// significant.
func Equivalent(unitBase, a, b string) bool {
	na := strings.TrimSuffix(ToHTTP(unitBase, a), "/")
	nb := strings.TrimSuffix(ToHTTP(unitBase, b), "/")

	return na == nb
}
