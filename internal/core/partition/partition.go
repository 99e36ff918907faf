package partition

import "hash/fnv"

// Count is the fixed number of lock shards for per-user state.
const Count = 32

// For returns the shard for a user ID.
// Stable and deterministic: the same userID always maps to the same shard.
func For(userID string) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return int(h.Sum32() % Count)
}
