// Package credentials holds the client's access credential.
//
// # Overview
//
// Store is the minimal contract the request dispatcher and the refresh
// coordinator depend on: Get returns the current bearer token (if any) and
// Set replaces it atomically, so no reader ever observes a partial write.
// Clearer is an optional extension used by logout flows; the dispatcher
// itself never deletes a credential.
//
// Backings:
//
//   - MemoryStore: process-local value guarded by a RWMutex.
//   - CookieStore: an "access_token" cookie in an http.CookieJar scoped to the
//     API base URL, so the token travels the same way a browser session would.
//   - FileStore:   a JSON file replaced via temp-file + rename, optionally sealed
//     with AES-GCM under an argon2id-derived key.
//   - SQLiteStore: a row in a local SQLite database migrated with goose.
//   - RedisStore:  a single Redis key shared by several processes.
//
// Open builds one of them from Options.
//
// Inspect decodes (without verifying) JWT claims of a credential for
// display purposes only. Expiry is never tracked client-side: it is
// discovered when the server answers 401.
package credentials
