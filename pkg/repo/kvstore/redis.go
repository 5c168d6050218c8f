package kvstore

import (
	"context"
	"errors"

	"github.com/crowelm/crowelm/pkg/common/code"
	"github.com/crowelm/crowelm/pkg/repo"
	r "github.com/redis/go-redis/v9"
)

type redisImpl struct {
	client *r.Client
	prefix string
}

func NewRedis(client *r.Client, prefix string) repo.KVStore {
	return &redisImpl{client: client, prefix: prefix}
}

func (s *redisImpl) name(key string) string {
	return s.prefix + key
}

func (s *redisImpl) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.name(key)).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, code.NotFoundErr.WithMsgf("key %s", key)
	}
	if err != nil {
		return nil, code.StorageErr.WithErr(err)
	}
	return v, nil
}

func (s *redisImpl) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.name(key), value, 0).Err(); err != nil {
		return code.StorageErr.WithErr(err)
	}
	return nil
}

func (s *redisImpl) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.name(key)).Err(); err != nil {
		return code.StorageErr.WithErr(err)
	}
	return nil
}
