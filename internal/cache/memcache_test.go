package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Este teste requer um memcached rodando em localhost:11211
func TestMemcacheService(t *testing.T) {
	mc := NewMemcacheService("localhost:11211")
	if err := mc.Ping(); err != nil {
		t.Skip("Memcached is not available, skipping test")
	}

	require.NoError(t, mc.Set("ofertas_test_key", []byte("test_value"), 5*time.Second))

	value, err := mc.Get("ofertas_test_key")
	require.NoError(t, err)
	assert.Equal(t, "test_value", string(value))

	require.NoError(t, mc.Delete("ofertas_test_key"))
	require.NoError(t, mc.Delete("ofertas_test_key"))

	_, err = mc.Get("ofertas_test_key")
	assert.ErrorIs(t, err, ErrMiss)
}
