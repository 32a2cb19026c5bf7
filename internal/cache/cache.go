package cache

import (
	"errors"
	"time"
)

// ErrMiss é retornado quando a chave não existe ou expirou
var ErrMiss = errors.New("cache miss")

// CacheService representa um cache genérico com expiração
type CacheService interface {
	// Get recupera um valor; retorna ErrMiss quando ausente
	Get(key string) ([]byte, error)

	// Set armazena um valor com tempo de expiração
	Set(key string, value []byte, expiration time.Duration) error

	// Delete remove um valor
	Delete(key string) error
}
