// Package store holds processed uploads for the lifetime of the process.
//
// Entries are keyed by the upload time in whole Unix seconds. Two uploads
// within the same second share a key and the later one replaces the earlier;
// Put reports the replacement so callers can surface it.
package store
