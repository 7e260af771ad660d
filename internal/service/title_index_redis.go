package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TitleIndex mantiene el indice secundario no-unico titulo -> ids de sesion.
// La logica central no depende de el; es un componente opcional.
type TitleIndex interface {
	Add(ctx context.Context, title, id string) error
	Remove(ctx context.Context, title, id string) error
	IDs(ctx context.Context, title string) ([]string, error)
}

type redisSetClient interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
}

type redisTitleIndex struct {
	client redisSetClient
	prefix string
}

func NewRedisTitleIndex(client *redis.Client) TitleIndex {
	if client == nil {
		return nil
	}
	return &redisTitleIndex{
		client: client,
		prefix: "chat:title:",
	}
}

func (i *redisTitleIndex) Add(ctx context.Context, title, id string) error {
	key := i.key(title)
	if key == "" || id == "" {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return i.client.SAdd(opCtx, key, id).Err()
}

func (i *redisTitleIndex) Remove(ctx context.Context, title, id string) error {
	key := i.key(title)
	if key == "" || id == "" {
		return nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return i.client.SRem(opCtx, key, id).Err()
}

func (i *redisTitleIndex) IDs(ctx context.Context, title string) ([]string, error) {
	key := i.key(title)
	if key == "" {
		return nil, nil
	}
	opCtx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	return i.client.SMembers(opCtx, key).Result()
}

func (i *redisTitleIndex) key(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}
	return i.prefix + title
}
