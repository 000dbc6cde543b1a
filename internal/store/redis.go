package store

import (
	"time"

	"github.com/go-redis/redis"
)

const redisKeyPrefix = "previewd:"

type Redis struct {
	client *redis.Client
}

func NewRedis(addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		MaxRetries:      5,
		MaxRetryBackoff: time.Second * 3,
		MinRetryBackoff: time.Millisecond * 100,
		ReadTimeout:     time.Second * 3,
		WriteTimeout:    time.Second * 3,
		PoolSize:        10,
		MinIdleConns:    5,
	})

	if err := client.Ping().Err(); err != nil {
		return nil, err
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Get(key string) ([]byte, error) {
	data, err := r.client.Get(redisKeyPrefix + key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *Redis) Set(key string, value []byte) error {
	return r.client.Set(redisKeyPrefix+key, value, 0).Err()
}

func (r *Redis) Delete(key string) error {
	return r.client.Del(redisKeyPrefix + key).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
