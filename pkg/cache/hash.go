package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey builds "prefix:<sha256>" over the JSON encoding of parts, so a
// dialogue hash and its render options map to one export entry.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

// Hash returns the hex SHA-256 of data. The export pipeline hashes the
// canonical dialogue document with it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
