// Package sanitizer normalizes user supplied values before validation,
// comparison and storage.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once.
//
//   - Room names: lowercase, spaces become underscores ("Room A" -> "room_a")
//   - Identities (owner, pin): surrounding whitespace removed
//   - Free text: whitespace collapsed and trimmed
//   - Base URLs: scheme enforced, host lowercased, trailing slashes removed
package sanitizer
