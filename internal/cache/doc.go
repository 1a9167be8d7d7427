// Package cache stores vocabulary responses on disk with a TTL.
//
// Type and project vocabularies change rarely, so the gateway keeps a copy of each response
// under ~/.pubscope/cache/ and serves it until it expires:
//   - one JSON file per entry, written atomically via rename
//   - keys derived from the API base URL and endpoint with SHA256
//   - expired entries are removed lazily on read or by CleanupExpired
package cache
