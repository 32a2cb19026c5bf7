package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryService é um CacheService em processo, usado quando não há memcache configurado
type MemoryService struct {
	items *ttlcache.Cache[string, []byte]
}

// NewMemoryService cria um cache em memória.
// Leituras não renovam a expiração, como no memcache.
func NewMemoryService() *MemoryService {
	return &MemoryService{
		items: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

// Get recupera um valor ainda válido
func (m *MemoryService) Get(key string) ([]byte, error) {
	item := m.items.Get(key)
	if item == nil {
		return nil, ErrMiss
	}
	return item.Value(), nil
}

// Set armazena um valor; expiração zero nunca expira
func (m *MemoryService) Set(key string, value []byte, expiration time.Duration) error {
	ttl := expiration
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	m.items.Set(key, value, ttl)
	return nil
}

// Delete remove um valor
func (m *MemoryService) Delete(key string) error {
	m.items.Delete(key)
	return nil
}
