package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns the hex SHA-256 of the normalized text, the
// equivalence key used to align identical questions across platforms.
// Empty or whitespace-only input has no fingerprint: ok is false and
// callers must not treat two textless questions as matching.
func Fingerprint(text string) (string, bool) {
	normalized := Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), true
}
