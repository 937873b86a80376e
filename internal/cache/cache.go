// Package cache memoises rendered tool results keyed by their full input,
// seed included. Identical inputs always produce identical results, so a hit is
// always safe to serve.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	json "github.com/goccy/go-json"
)

// Cache stores opaque payloads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
}

// Key builds a compact key from the operation name and its inputs.
func Key(op string, parts ...any) string {
	var sb strings.Builder
	for i, p := range parts {
		if i > 0 {
			sb.WriteByte('|')
		}
		switch v := p.(type) {
		case float64:
			sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		case string:
			sb.WriteString(strconv.Quote(v))
		default:
			fmt.Fprint(&sb, v)
		}
	}
	return op + ":" + strconv.FormatUint(xxhash.Sum64String(sb.String()), 16)
}

// GetJSON decodes a cached value into T. Undecodable entries count as misses.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, bool) {
	var out T
	if c == nil {
		return out, false
	}
	raw, ok := c.Get(ctx, key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, false
	}
	return out, true
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any) error {
	if c == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.Set(ctx, key, raw)
}
