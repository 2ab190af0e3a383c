package utils

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

// RedisStatusStore keeps per-owner read flags for responses, so the
// self-service view can show unread markers without hitting postgres.
// The durable read_at column stays the source of truth.
type RedisStatusStore struct {
	inner     *redis.Client
	keyParser RedisKeyParser
}

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	RedisTrue  = "1"
	RedisFalse = "0"
)

var ctx = context.Background()

func GetRedisStatusStore() (*RedisStatusStore, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	_, err := redisClient.Ping(ctx).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStatusStore{
		inner:     redisClient,
		keyParser: RedisKeyParser{delimiter: "__"},
	}, nil
}

type RedisKeyParser struct {
	delimiter string
}

func (r RedisKeyParser) DecodeResponseKey(key string) (string, string, error) {
	splits := strings.Split(key, r.delimiter)
	if (len(splits)) != 2 {
		return "", "", fmt.Errorf("invalid key: %s", key)
	}
	return splits[0], splits[1], nil
}

func (r RedisKeyParser) ValidateId(id string) bool {
	return !strings.Contains(id, r.delimiter)
}

func (r RedisKeyParser) EncodeResponseKey(ownerId string, responseId string) (string, error) {
	if !r.ValidateId(ownerId) || !r.ValidateId(responseId) {
		return "", fmt.Errorf("invalid ownerId or responseId")
	}
	return fmt.Sprintf("%s%s%s", ownerId, r.delimiter, responseId), nil
}

func (r RedisKeyParser) MustEncodeResponseKey(ownerId string, responseId string) string {
	if !r.ValidateId(ownerId) || !r.ValidateId(responseId) {
		panic(fmt.Errorf("invalid ownerId or responseId with delimiter: %s, %s, %s", ownerId, responseId, r.delimiter))
	}
	return fmt.Sprintf("%s%s%s", ownerId, r.delimiter, responseId)
}

func (r *RedisStatusStore) GetResponsesReadStatus(responseIds []string, ownerId string) ([]bool, error) {
	if len(responseIds) == 0 {
		return []bool{}, nil
	}

	keys := []string{}

	for _, rid := range responseIds {
		keys = append(keys, r.keyParser.MustEncodeResponseKey(ownerId, rid))
	}

	res, err := r.inner.MGet(ctx, keys...).Result()
	status := []bool{}
	for _, v := range res {
		if v == nil {
			status = append(status, false)
			continue
		}

		if v == RedisTrue {
			status = append(status, true)
			continue
		}
		status = append(status, false)
	}
	return status, err
}

func (r RedisStatusStore) SetResponsesReadStatus(responseIds []string, ownerId string, read bool) error {
	if len(responseIds) == 0 {
		return nil
	}

	if read {
		keyValues := []interface{}{}
		for _, rid := range responseIds {
			keyValues = append(keyValues, r.keyParser.MustEncodeResponseKey(ownerId, rid))
			keyValues = append(keyValues, RedisTrue)
		}
		return r.inner.MSetNX(ctx, keyValues...).Err()
	}

	keys := []string{}
	for _, rid := range responseIds {
		keys = append(keys, r.keyParser.MustEncodeResponseKey(ownerId, rid))
	}
	return r.inner.Del(ctx, keys...).Err()
}
