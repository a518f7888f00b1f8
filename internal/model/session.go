package model

import "strings"

// MaxSessionLen bounds session names used in storage keys and room names.
const MaxSessionLen = 64

// NormalizeSession maps arbitrary client input onto a safe key segment.
// Anything outside [A-Za-z0-9_-] is dropped so a session name cannot
// spill into other Redis key namespaces; when nothing survives the scrub
// the fallback session is used. Post and subscribe paths must both go
// through this so a viewer always sits in the room messages land in.
func NormalizeSession(session, fallback string) string {
	var b strings.Builder
	for _, r := range session {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return fallback
	}
	return Truncate(cleaned, MaxSessionLen)
}
