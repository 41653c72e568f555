package outbound

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(8, 2, time.Millisecond, time.Second)
}

func TestDispatcher_DeliversTask(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	d.Start()

	var calls int32
	ok := d.Enqueue(Task{Name: "test:deliver", Fn: func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}})
	assert.True(t, ok)

	d.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDispatcher_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	d.Start()

	var calls int32
	d.Enqueue(Task{Name: "test:flaky", Fn: func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("temporarily unavailable")
		}
		return nil
	}})

	d.Stop()
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDispatcher_DeadLettersAfterExhaustion(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	d.Start()

	var calls int32
	d.Enqueue(Task{Name: "test:down", Fn: func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("endpoint unreachable")
	}})

	d.Stop()
	// initial attempt + 2 retries, then dead-lettered
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDispatcher_RejectsAfterStop(t *testing.T) {
	t.Parallel()
	d := newTestDispatcher()
	d.Start()
	d.Stop()

	ok := d.Enqueue(Task{Name: "test:late", Fn: func(ctx context.Context) error { return nil }})
	assert.False(t, ok)
}
