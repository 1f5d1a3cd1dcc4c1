// Package redis implements the page store on Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/harridge/fetchmill/internal/sched"
)

const scanBatch = 256

// Store keeps each page record as a JSON value under a prefixed key. Redis
// serves deployments where the page table must be shared by several
// machines without running a relational database.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects a Redis-backed store and pings the server.
func New(ctx context.Context, addr, prefix string) (*Store, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Store{client: client, prefix: prefix}, nil
}

// Get reads one record.
func (s *Store) Get(ctx context.Context, urlKey string) (sched.PageRecord, bool, error) {
	val, err := s.client.Get(ctx, s.key(urlKey)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sched.PageRecord{}, false, nil
		}
		return sched.PageRecord{}, false, fmt.Errorf("get page %q: %w", urlKey, err)
	}
	page, err := decodePage([]byte(val))
	if err != nil {
		return sched.PageRecord{}, false, fmt.Errorf("decode page %q: %w", urlKey, err)
	}
	return page, true, nil
}

// Put writes one record. Records have no TTL; pages persist across crawl
// cycles until explicitly removed.
func (s *Store) Put(ctx context.Context, urlKey string, page sched.PageRecord) error {
	payload, err := encodePage(page)
	if err != nil {
		return fmt.Errorf("encode page %q: %w", urlKey, err)
	}
	if err := s.client.Set(ctx, s.key(urlKey), payload, 0).Err(); err != nil {
		return fmt.Errorf("set page %q: %w", urlKey, err)
	}
	return nil
}

// Scan walks the keyspace under the prefix with cursor-based SCAN and
// feeds every record to fn. No ordering is guaranteed.
func (s *Store) Scan(ctx context.Context, fn func(urlKey string, page sched.PageRecord) error) error {
	iter := s.client.Scan(ctx, 0, s.prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		fullKey := iter.Val()
		val, err := s.client.Get(ctx, fullKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue // deleted between SCAN and GET
			}
			return fmt.Errorf("get page %q: %w", fullKey, err)
		}
		page, err := decodePage([]byte(val))
		if err != nil {
			return fmt.Errorf("decode page %q: %w", fullKey, err)
		}
		if err := fn(s.unkey(fullKey), page); err != nil {
			return err
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan pages: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(urlKey string) string {
	return s.prefix + urlKey
}

func (s *Store) unkey(fullKey string) string {
	return strings.TrimPrefix(fullKey, s.prefix)
}

func encodePage(page sched.PageRecord) ([]byte, error) {
	return json.Marshal(page)
}

func decodePage(raw []byte) (sched.PageRecord, error) {
	var page sched.PageRecord
	if err := json.Unmarshal(raw, &page); err != nil {
		return sched.PageRecord{}, err
	}
	return page, nil
}
