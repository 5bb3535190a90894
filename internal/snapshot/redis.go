package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier shares loaded frames between dashboard replicas.
type RedisTier struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewRedisTier stores frames under <prefix>:frame:<table> for ttl.
func NewRedisTier(client redis.Cmdable, prefix string, ttl time.Duration) *RedisTier {
	return &RedisTier{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisTier) Name() string { return "redis" }

func (r *RedisTier) key(table string) string {
	return fmt.Sprintf("%s:frame:%s", r.prefix, table)
}

// Get returns nil without error on a cache miss.
func (r *RedisTier) Get(ctx context.Context, table string) (*Entry, error) {
	data, err := r.client.Get(ctx, r.key(table)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return decodeEntry(data)
}

func (r *RedisTier) Set(ctx context.Context, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Frame.Table, err)
	}
	return r.client.Set(ctx, r.key(e.Frame.Table), data, r.ttl).Err()
}

func (r *RedisTier) Delete(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	keys := make([]string, len(tables))
	for i, t := range tables {
		keys[i] = r.key(t)
	}
	return r.client.Del(ctx, keys...).Err()
}

// decodeEntry restores integer cells as int64 and other numbers as float64.
// Timestamps come back as RFC 3339 strings.
func decodeEntry(data []byte) (*Entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var e Entry
	if err := dec.Decode(&e); err != nil {
		return nil, fmt.Errorf("decode cached frame: %w", err)
	}
	if e.Frame == nil {
		return nil, errors.New("decode cached frame: missing frame")
	}
	if e.Frame.Rows == nil {
		e.Frame.Rows = [][]any{}
	}

	for _, row := range e.Frame.Rows {
		for i, v := range row {
			n, ok := v.(json.Number)
			if !ok {
				continue
			}
			if iv, err := n.Int64(); err == nil {
				row[i] = iv
			} else if fv, err := n.Float64(); err == nil {
				row[i] = fv
			} else {
				row[i] = nil
			}
		}
	}
	return &e, nil
}

var _ Tier = (*RedisTier)(nil)
