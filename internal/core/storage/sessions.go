package storage

import (
	"sync"

	"github.com/fanzdash/pulse/internal/core/partition"
)

// SessionIndex maps a user to the distinct sessions observed for them.
// It only grows; entries are never pruned, even when events are cleared.
type SessionIndex struct {
	shards [partition.Count]sessionShard
}

type sessionShard struct {
	mu    sync.RWMutex
	users map[string]map[string]struct{}
}

func NewSessionIndex() *SessionIndex {
	idx := &SessionIndex{}
	for i := range idx.shards {
		idx.shards[i].users = make(map[string]map[string]struct{})
	}
	return idx
}

// Register records sessionID for userID. Empty identifiers are ignored.
func (idx *SessionIndex) Register(userID, sessionID string) {
	if userID == "" || sessionID == "" {
		return
	}
	shard := &idx.shards[partition.For(userID)]
	shard.mu.Lock()
	defer shard.mu.Unlock()

	sessions, ok := shard.users[userID]
	if !ok {
		sessions = make(map[string]struct{})
		shard.users[userID] = sessions
	}
	sessions[sessionID] = struct{}{}
}

// SessionCount returns the number of sessions seen for userID.
func (idx *SessionIndex) SessionCount(userID string) int {
	shard := &idx.shards[partition.For(userID)]
	shard.mu.RLock()
	defer shard.mu.RUnlock()
	return len(shard.users[userID])
}

// Total returns the number of sessions across all users.
func (idx *SessionIndex) Total() int {
	total := 0
	for i := range idx.shards {
		shard := &idx.shards[i]
		shard.mu.RLock()
		for _, sessions := range shard.users {
			total += len(sessions)
		}
		shard.mu.RUnlock()
	}
	return total
}
