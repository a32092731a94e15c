package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/supportiq/internal/observability"
)

func TestDetachedDoesNotBlockCaller(t *testing.T) {
	d := NewDetached(time.Second, observability.DiscardLogger())
	release := make(chan struct{})
	var ran int32

	start := time.Now()
	d.Go("slow", func(ctx context.Context) error {
		<-release
		atomic.StoreInt32(&ran, 1)
		return nil
	})
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	require.NoError(t, d.Wait(context.Background()))
	assert.EqualValues(t, 1, atomic.LoadInt32(&ran))
}

func TestDetachedSwallowsFailuresAndPanics(t *testing.T) {
	d := NewDetached(time.Second, observability.DiscardLogger())
	d.Go("fails", func(ctx context.Context) error { return errors.New("boom") })
	d.Go("panics", func(ctx context.Context) error { panic("bad") })
	assert.NoError(t, d.Wait(context.Background()))
}

func TestDetachedTimeout(t *testing.T) {
	d := NewDetached(50*time.Millisecond, observability.DiscardLogger())
	var ctxErr atomic.Value
	d.Go("stuck", func(ctx context.Context) error {
		<-ctx.Done()
		ctxErr.Store(ctx.Err())
		return ctx.Err()
	})
	require.NoError(t, d.Wait(context.Background()))
	assert.Equal(t, context.DeadlineExceeded, ctxErr.Load())
}

func TestDetachedWaitHonoursContext(t *testing.T) {
	d := NewDetached(time.Minute, observability.DiscardLogger())
	release := make(chan struct{})
	defer close(release)
	d.Go("blocked", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Wait(ctx), context.DeadlineExceeded)
}

func TestInline(t *testing.T) {
	var in Inline
	in.Go("a", func(ctx context.Context) error { return nil })
	in.Go("a", func(ctx context.Context) error { return errors.New("x") })
	in.Go("b", func(ctx context.Context) error { return nil })

	assert.Equal(t, 2, in.Count("a"))
	assert.Len(t, in.Errors, 1)
}
