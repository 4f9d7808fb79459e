// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized becomes the empty string, which validation then rejects where
// the field is required.
package sanitizer
