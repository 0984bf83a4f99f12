package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/adesaini/sweetshop-client/internal/model"
)

type fakeAPI struct {
	mu       sync.Mutex
	listFn   func(ctx context.Context) ([]model.Sweet, error)
	searchFn func(ctx context.Context, f model.SearchFilter) ([]model.Sweet, error)
	lastF    model.SearchFilter
}

var _ API = (*fakeAPI)(nil)

func (f *fakeAPI) ListSweets(ctx context.Context) ([]model.Sweet, error) {
	f.mu.Lock()
	fn := f.listFn
	f.mu.Unlock()
	return fn(ctx)
}

func (f *fakeAPI) SearchSweets(ctx context.Context, filter model.SearchFilter) ([]model.Sweet, error) {
	f.mu.Lock()
	f.lastF = filter
	fn := f.searchFn
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, filter)
}

func sweets(ids ...int64) []model.Sweet {
	out := make([]model.Sweet, len(ids))
	for i, id := range ids {
		out[i] = model.Sweet{ID: id}
	}
	return out
}

func TestCatalog_LoadAll_ReplacesItems(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{listFn: func(context.Context) ([]model.Sweet, error) {
		return sweets(1, 2, 3), nil
	}}
	c := New(api, nil)

	require.NoError(t, c.LoadAll(context.Background()))
	require.Len(t, c.Items(), 3)
	require.Empty(t, c.Err())
	require.False(t, c.Loading())

	api.listFn = func(context.Context) ([]model.Sweet, error) { return sweets(9), nil }
	require.NoError(t, c.LoadAll(context.Background()))
	require.Equal(t, sweets(9), c.Items())
}

func TestCatalog_FailureKeepsPriorItems(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{listFn: func(context.Context) ([]model.Sweet, error) {
		return nil, errors.New("connection refused")
	}}
	c := New(api, nil)

	// first failure: no prior copy, stays empty
	require.Error(t, c.LoadAll(context.Background()))
	require.Empty(t, c.Items())
	require.Equal(t, "failed to load sweets", c.Err())

	api.listFn = func(context.Context) ([]model.Sweet, error) { return sweets(1, 2), nil }
	require.NoError(t, c.LoadAll(context.Background()))
	require.Empty(t, c.Err(), "success clears the error")

	// later failure keeps the cached copy
	api.listFn = func(context.Context) ([]model.Sweet, error) { return nil, errors.New("boom") }
	require.Error(t, c.LoadAll(context.Background()))
	require.Equal(t, sweets(1, 2), c.Items())
	require.Equal(t, "failed to load sweets", c.Err())
}

func TestCatalog_SearchFailureMessage(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{searchFn: func(context.Context, model.SearchFilter) ([]model.Sweet, error) {
		return nil, errors.New("boom")
	}}
	c := New(api, nil)

	require.Error(t, c.Search(context.Background(), model.SearchFilter{Name: "ladoo"}))
	require.Equal(t, "search failed", c.Err())
	require.Equal(t, "ladoo", api.lastF.Name)
}

func TestCatalog_StaleResponseIsDiscarded(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true

	api := &fakeAPI{}
	api.listFn = func(context.Context) ([]model.Sweet, error) {
		api.mu.Lock()
		mine := first
		first = false
		api.mu.Unlock()
		if mine {
			close(entered)
			<-release // resolve only after the newer call finished
			return sweets(1), nil
		}
		return sweets(2, 3), nil
	}
	c := New(api, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.LoadAll(context.Background())
	}()

	<-entered
	require.True(t, c.Loading())

	// newer request issued while the first is still in flight
	require.NoError(t, c.LoadAll(context.Background()))
	require.Equal(t, sweets(2, 3), c.Items())

	close(release)
	wg.Wait()

	require.Equal(t, sweets(2, 3), c.Items(), "slow stale response must not overwrite newer result")
	require.False(t, c.Loading())
}

func TestCatalog_StaleErrorIsDiscardedToo(t *testing.T) {
	t.Parallel()
	entered := make(chan struct{})
	release := make(chan struct{})
	first := true

	api := &fakeAPI{}
	api.listFn = func(context.Context) ([]model.Sweet, error) {
		api.mu.Lock()
		mine := first
		first = false
		api.mu.Unlock()
		if mine {
			close(entered)
			<-release
			return nil, errors.New("timeout")
		}
		return sweets(5), nil
	}
	c := New(api, nil)

	done := make(chan error, 1)
	go func() { done <- c.LoadAll(context.Background()) }()

	<-entered
	require.NoError(t, c.LoadAll(context.Background()))

	close(release)
	require.NoError(t, <-done, "superseded call reports nothing")
	require.Empty(t, c.Err(), "stale error must not surface")
	require.Equal(t, sweets(5), c.Items())
}

func TestCatalog_LoadingFlagDuringCall(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	api := &fakeAPI{listFn: func(context.Context) ([]model.Sweet, error) {
		<-release
		return nil, nil
	}}
	c := New(api, nil)

	require.False(t, c.Loading())
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	done := make(chan struct{})
	go func() {
		_ = c.LoadAll(context.Background())
		close(done)
	}()

	require.Eventually(t, c.Loading, time.Second, time.Millisecond, "loading should be set while in flight")
	<-done
	require.False(t, c.Loading())
}
