package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bot-ofertas/internal/models"

	"github.com/redis/go-redis/v9"
)

const seenTTL = 7 * 24 * time.Hour

// RedisArchive publica as ofertas num stream do Redis
type RedisArchive struct {
	client    *redis.Client
	stream    string
	maxLength int64
}

// NewRedisArchive cria um arquivo de ofertas em stream do Redis
func NewRedisArchive(addr string, db int, stream string, maxLength int64) *RedisArchive {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisArchive{
		client:    client,
		stream:    stream,
		maxLength: maxLength,
	}
}

// Ping verifica a conexão com o Redis
func (a *RedisArchive) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Save adiciona ao stream as ofertas com ASIN ainda não visto e apara o stream
func (a *RedisArchive) Save(ctx context.Context, offers []models.Offer) (int, error) {
	added := 0
	for _, o := range offers {
		if o.ProductID == "" {
			continue
		}

		fresh, err := a.client.SetNX(ctx, a.seenKey(o.ProductID), time.Now().Unix(), seenTTL).Result()
		if err != nil {
			return added, fmt.Errorf("checking archived offer: %w", err)
		}
		if !fresh {
			continue
		}

		payload, err := json.Marshal(o)
		if err != nil {
			return added, err
		}

		if err := a.client.XAdd(ctx, &redis.XAddArgs{
			Stream: a.stream,
			Values: map[string]interface{}{
				"asin":  o.ProductID,
				"offer": payload,
			},
		}).Err(); err != nil {
			return added, fmt.Errorf("publishing offer to stream: %w", err)
		}
		added++
	}

	if added > 0 && a.maxLength > 0 {
		if err := a.client.XTrimMaxLen(ctx, a.stream, a.maxLength).Err(); err != nil {
			return added, fmt.Errorf("trimming offers stream: %w", err)
		}
	}
	return added, nil
}

// Close fecha a conexão com o Redis
func (a *RedisArchive) Close() error {
	return a.client.Close()
}

func (a *RedisArchive) seenKey(asin string) string {
	return a.stream + ":seen:" + asin
}
