package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Key prefixes. A layout key covers a catalog and the generation options; an
// artifact key covers a layout and the drawing options.
const (
	PrefixLayout   = "layout"
	PrefixArtifact = "artifact"
)

// hashKey joins prefix and the SHA-256 of the JSON-encoded parts, e.g.
// "layout:3f2a...". Parts must be JSON-encodable; option structs are.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return prefix + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. The pipeline feeds it the canonical
// JSON of a catalog or of a layout with its run ID cleared, so equal content
// always hashes equal.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
