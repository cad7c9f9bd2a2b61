package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/viant/exclusor/service/dao"
)

type record struct {
	ID    string
	Value int
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string, record](func(r *record) string { return r.ID })

	assert.NoError(t, store.Save(ctx, &record{ID: "a", Value: 1}))
	assert.True(t, errors.Is(store.Save(ctx, nil), dao.ErrNilEntity))

	loaded, err := store.Load(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, &record{ID: "a", Value: 1}, loaded)

	assert.True(t, errors.Is(store.Create(ctx, &record{ID: "a", Value: 2}), dao.ErrAlreadyExists))
	assert.NoError(t, store.Create(ctx, &record{ID: "b", Value: 2}))

	list, _ := store.List(ctx)
	assert.Len(t, list, 2)

	assert.NoError(t, store.Delete(ctx, "a"))
	assert.NoError(t, store.Delete(ctx, "a"))
	loaded, _ = store.Load(ctx, "a")
	assert.Nil(t, loaded)
}

func TestMemoryStore_CreateRace(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string, record](func(r *record) string { return r.ID })
	var created int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if store.Create(ctx, &record{ID: "same", Value: i}) == nil {
				atomic.AddInt32(&created, 1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, created)
}
