package domain

import "strings"

// ParseScopes splits a space-delimited scope string into tokens, dropping empties
func ParseScopes(scope string) []string {
	if scope == "" {
		return nil
	}
	return strings.Fields(scope)
}

// JoinScopes renders scope tokens back into the space-delimited wire form
func JoinScopes(scopes []string) string {
	return strings.Join(scopes, " ")
}

// ScopesContain reports whether every requested scope is present in allowed
func ScopesContain(allowed, requested []string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}
