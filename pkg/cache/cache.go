package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service defines cache operations. Values are JSON encoded on Set and
// decoded into dest on Get, except *string and []byte which pass through.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Close() error
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(value)
	}
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	default:
		return json.Unmarshal(data, dest)
	}
}

// Noop never stores anything; every Get is a miss.
type Noop struct{}

func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Get(context.Context, string, interface{}) error                 { return ErrCacheMiss }
func (Noop) Delete(context.Context, ...string) error                        { return nil }
func (Noop) Exists(context.Context, ...string) (bool, error)                { return false, nil }
func (Noop) Close() error                                                   { return nil }
