package workpool

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitResult(t *testing.T) {
	p := newTestPool(t, staticConfig(2))
	defer p.Shutdown()

	fut, err := Submit(p, func() (string, error) { return "done", nil })
	require.NoError(t, err)

	val, err := fut.Wait()
	require.NoError(t, err)
	assert.Equal(t, "done", val)
}

func TestSubmitPropagatesError(t *testing.T) {
	p := newTestPool(t, staticConfig(2))
	defer p.Shutdown()

	sentinel := errors.New("task failed")
	fut, err := Submit(p, func() (int, error) { return 0, sentinel })
	require.NoError(t, err)

	_, err = fut.Wait()
	assert.ErrorIs(t, err, sentinel)
}

func TestTaskPanicIsSurfaced(t *testing.T) {
	p := newTestPool(t, staticConfig(1))
	defer p.Shutdown()

	fut, err := Submit(p, func() (int, error) { panic("boom") })
	require.NoError(t, err)

	_, err = fut.Wait()
	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "boom", panicErr.Value)

	// The worker survives the panic and keeps serving tasks.
	after, err := Submit(p, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	val, err := after.Wait()
	require.NoError(t, err)
	assert.Equal(t, 7, val)
}

func TestWaitContext(t *testing.T) {
	p := newTestPool(t, staticConfig(1))
	defer p.Shutdown()

	release := make(chan struct{})
	fut, err := p.Execute(func() { <-release })
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = fut.WaitContext(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	_, err = fut.WaitContext(context.Background())
	assert.NoError(t, err)

	select {
	case <-fut.Done():
	default:
		t.Fatal("Done channel not closed after completion")
	}
}
