package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.Equal(t, ":memory:", store.Path())
	assert.NoError(t, store.Load())
}

func TestNewConfigStoreFrom_CopiesValues(t *testing.T) {
	seed := map[string]any{"elasticsearch.host": "http://es:9200"}
	store := NewConfigStoreFrom(seed)

	seed["elasticsearch.host"] = "changed"

	assert.Equal(t, "http://es:9200", store.GetString("elasticsearch.host"))
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("key", "v1"))
	require.NoError(t, store.Set("key", "v2"))

	val, ok := store.Get("key")
	assert.True(t, ok)
	assert.Equal(t, "v2", val)
}

func TestConfigStore_Get_NotFound(t *testing.T) {
	store := NewConfigStore()

	val, ok := store.Get("missing")

	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{
		"str":    "hello",
		"int":    42,
		"int64":  int64(7),
		"float":  2.5,
		"bool":   true,
		"number": "12",
	})

	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "string", got: store.GetString("str"), want: "hello"},
		{name: "string wrong type", got: store.GetString("int"), want: ""},
		{name: "int", got: store.GetInt("int"), want: 42},
		{name: "int from int64", got: store.GetInt("int64"), want: 7},
		{name: "int from float truncates", got: store.GetInt("float"), want: 2},
		{name: "int wrong type", got: store.GetInt("number"), want: 0},
		{name: "float", got: store.GetFloat("float"), want: 2.5},
		{name: "float from int", got: store.GetFloat("int"), want: 42.0},
		{name: "float missing", got: store.GetFloat("missing"), want: 0.0},
		{name: "bool", got: store.GetBool("bool"), want: true},
		{name: "bool wrong type", got: store.GetBool("str"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_Watch_NotifiesOnSave(t *testing.T) {
	store := NewConfigStore()
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- store.Watch(ctx, func() { calls.Add(1) })
	}()

	require.Eventually(t, func() bool {
		store.mu.RLock()
		defer store.mu.RUnlock()
		return len(store.watchers) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Set("indexing.interval_minutes", 5))
	require.NoError(t, store.Save())

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	err := <-done
	assert.True(t, errors.Is(err, context.Canceled))

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.watchers)
}

func TestConfigStore_Save_WithoutWatchers(t *testing.T) {
	assert.NoError(t, NewConfigStore().Save())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set(fmt.Sprintf("key-%d", n), n)
		}(i)
		go func(n int) {
			defer wg.Done()
			_ = store.GetInt(fmt.Sprintf("key-%d", n))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.Equal(t, i, store.GetInt(fmt.Sprintf("key-%d", i)))
	}
}
