package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rayjuxtnx/restaurant-server/pkg/config"
)

type stubStore struct {
	setNXCalls  []string
	setNXValue  bool
	delCalls    []string
	counts      map[string]int64
	expireCalls []string
}

func (s *stubStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (s *stubStore) Set(context.Context, string, any, time.Duration) *redis.StatusCmd {
	return redis.NewStatusResult("OK", nil)
}

func (s *stubStore) Get(context.Context, string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (s *stubStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) *redis.BoolCmd {
	s.setNXCalls = append(s.setNXCalls, key)
	return redis.NewBoolResult(s.setNXValue, nil)
}

func (s *stubStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	s.delCalls = append(s.delCalls, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (s *stubStore) Incr(_ context.Context, key string) *redis.IntCmd {
	if s.counts == nil {
		s.counts = map[string]int64{}
	}
	s.counts[key]++
	return redis.NewIntResult(s.counts[key], nil)
}

func (s *stubStore) Expire(_ context.Context, key string, _ time.Duration) *redis.BoolCmd {
	s.expireCalls = append(s.expireCalls, key)
	return redis.NewBoolResult(true, nil)
}

func TestIncrWithTTLSetsExpiryOnFirstIncrement(t *testing.T) {
	store := &stubStore{}
	c := &Client{store: store}

	for want := int64(1); want <= 3; want++ {
		got, err := c.IncrWithTTL(context.Background(), "rl:ip:login:1.2.3.4", time.Minute)
		if err != nil {
			t.Fatalf("IncrWithTTL: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}
	if len(store.expireCalls) != 1 {
		t.Fatalf("expected a single expire call, got %d", len(store.expireCalls))
	}
}

func TestIdempotencyKeyNamespacing(t *testing.T) {
	c := &Client{store: &stubStore{}}
	key := c.IdempotencyKey("mpesa", "ws_CO_1:0")
	if key != "resto:idempotency:mpesa:ws_CO_1:0" {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestSetNXDelegates(t *testing.T) {
	store := &stubStore{setNXValue: true}
	c := &Client{store: store}

	ok, err := c.SetNX(context.Background(), "k", "1", time.Minute)
	if err != nil {
		t.Fatalf("SetNX: %v", err)
	}
	if !ok {
		t.Fatal("expected SetNX true")
	}
	if len(store.setNXCalls) != 1 || store.setNXCalls[0] != "k" {
		t.Fatalf("unexpected calls %v", store.setNXCalls)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	c := &Client{}
	if _, err := c.SetNX(context.Background(), "k", "1", 0); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error from uninitialized client")
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when no url or address configured")
	}
}
