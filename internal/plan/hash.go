package plan

import (
	"crypto/sha256"
	"encoding/hex"
)

// sha256Hex hashes a rendered Storage Format string using the same
// "sha256:" + lowercase-hex format as document content hashes. The format
// alone does not tell a render hash from a source hash.
func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return "sha256:" + hex.EncodeToString(sum[:])
}
