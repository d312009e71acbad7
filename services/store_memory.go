// ABOUTME: In-memory session store over the TTL cache
// ABOUTME: Suitable for single-instance deployments and tests

package services

import (
	"context"

	"github.com/censusops/respondent-home/cache"
	"github.com/censusops/respondent-home/models"
)

// MemoryStore keeps sessions in process memory with idle-timeout
// eviction handled by the cache. Sessions are copied on the way in and
// out so concurrent requests never mutate shared state; the Redis
// store gets the same isolation from its JSON round-trip.
type MemoryStore struct {
	cache *cache.Cache
}

func NewMemoryStore(c *cache.Cache) *MemoryStore {
	return &MemoryStore{cache: c}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*models.Session, error) {
	val, ok := m.cache.Get(sessionKey(id))
	if !ok {
		return nil, ErrSessionNotFound
	}
	session, ok := val.(*models.Session)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, session *models.Session) error {
	m.cache.Set(sessionKey(session.ID), session.Clone())
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(sessionKey(id))
	return nil
}

// sessionKey returns the store key for a session ID.
func sessionKey(id string) string {
	return "session:" + id
}
