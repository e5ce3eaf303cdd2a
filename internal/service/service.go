// Package service implements the mutation API: every operation validates its
// input, applies a single read-full/replace-full update to one collection,
// and on success broadcasts the entire updated collection to all connected
// clients. Failed persists return an error to the caller and suppress the
// broadcast.
package service

import "time"

// collectionTTL bounds how long a GET may serve a cached collection. Every
// mutation refreshes the cache with the authoritative post-write state, so
// the TTL only matters for reads racing an out-of-band store edit.
const collectionTTL = 30 * time.Second

// nextID returns a millisecond-timestamp identifier, advanced past any
// collision with an existing record.
func nextID(taken func(int64) bool) int64 {
	id := time.Now().UnixMilli()
	for taken(id) {
		id++
	}
	return id
}
