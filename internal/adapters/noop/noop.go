package noop

import (
	"context"
	"fmt"
	"reflect"

	"github.com/goliatone/go-ike/pkg/interfaces"
)

// Cache returns an interfaces.CacheService that stores nothing. Every
// GetOrFetch runs the fetch function.
func Cache() interfaces.CacheService {
	return cacheAdapter{}
}

type cacheAdapter struct{}

func (cacheAdapter) GetOrFetch(ctx context.Context, key string, fetchFn any) (any, error) {
	fn := reflect.ValueOf(fetchFn)
	if fn.Kind() != reflect.Func || fn.Type().NumIn() != 1 || fn.Type().NumOut() != 2 {
		return nil, fmt.Errorf("noop cache: invalid fetch function for %s", key)
	}
	out := fn.Call([]reflect.Value{reflect.ValueOf(ctx)})
	var err error
	if errValue := out[1]; !errValue.IsNil() {
		err = errValue.Interface().(error)
	}
	return out[0].Interface(), err
}

func (cacheAdapter) Delete(context.Context, string) error {
	return nil
}

func (cacheAdapter) DeleteByPrefix(context.Context, string) error {
	return nil
}

func (cacheAdapter) InvalidateKeys(context.Context, []string) error {
	return nil
}
