// Package naming derives the unique, identifier-safe names a provisioning
// run needs. The same generated name becomes the GitHub repository name, a
// container image tag component, and the Cloud Run service name, so it must
// satisfy the strictest of the three: lowercase, hyphen-separated, at most
// 63 characters.
package naming

import (
	"strings"

	"github.com/google/uuid"
)

// maxServiceNameLen is the hosting platform's service-name limit.
const maxServiceNameLen = 63

const (
	suffixLen    = 6
	sessionIDLen = 8
)

// Identity is the set of names derived from a user-supplied display name.
type Identity struct {
	BaseName    string
	Suffix      string
	ServiceName string
}

// GenerateIdentity sanitizes the display name and appends a random suffix.
// It always returns a value; the name is not reserved anywhere, so two
// concurrent calls with the same display name could in principle collide,
// which the suffix entropy makes negligible in practice.
func GenerateIdentity(displayName string) Identity {
	base := sanitize(displayName)
	suffix := randomToken(suffixLen)

	// Leave room for the suffix and its joining hyphen.
	if max := maxServiceNameLen - suffixLen - 1; len(base) > max {
		base = base[:max]
	}

	return Identity{
		BaseName:    base,
		Suffix:      suffix,
		ServiceName: base + "-" + suffix,
	}
}

// NewSessionID returns a fresh identifier for one live-editing session.
func NewSessionID() string {
	return randomToken(sessionIDLen)
}

// sanitize lowercases the name and substitutes every character outside
// [a-z0-9] with a hyphen. Substitution is direct and positional; runs of
// invalid characters are not collapsed.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// randomToken returns n characters of a fresh UUID with the hyphens removed.
// UUID hex is a subset of [a-z0-9], so tokens stay identifier-safe.
func randomToken(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}
