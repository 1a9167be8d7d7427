package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Key derives a filesystem-safe cache key for an endpoint of the API at baseURL.
// Trailing slashes and letter case in the base URL do not change the key.
func Key(baseURL, endpoint string) string {
	base := strings.ToLower(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	path := "/" + strings.TrimLeft(strings.TrimSpace(endpoint), "/")
	sum := sha256.Sum256([]byte(base + path))
	return hex.EncodeToString(sum[:])
}
