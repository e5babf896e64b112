package noop_test

import (
	"context"
	"errors"
	"testing"

	repocache "github.com/goliatone/go-repository-cache/cache"

	"github.com/goliatone/go-ike/internal/adapters/noop"
)

func TestCacheAlwaysFetches(t *testing.T) {
	cache := noop.Cache()
	ctx := context.Background()

	calls := 0
	fetch := func(context.Context) ([]byte, error) {
		calls++
		return []byte("v"), nil
	}
	for i := 0; i < 2; i++ {
		value, err := repocache.GetOrFetch(ctx, cache, "k", repocache.FetchFn[[]byte](fetch))
		if err != nil {
			t.Fatalf("GetOrFetch: %v", err)
		}
		if string(value) != "v" {
			t.Fatalf("unexpected value %q", value)
		}
	}
	if calls != 2 {
		t.Fatalf("expected every call to fetch, got %d", calls)
	}
}

func TestCachePassesFetchErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := repocache.GetOrFetch(context.Background(), noop.Cache(), "k", repocache.FetchFn[string](func(context.Context) (string, error) {
		return "", boom
	}))
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}
