package workerpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunAllExecutesEveryFn(t *testing.T) {
	p := New(4)
	var count int64

	fns := make([]func(ctx context.Context) error, 10)
	for i := range fns {
		fns[i] = func(ctx context.Context) error {
			atomic.AddInt64(&count, 1)
			return nil
		}
	}

	require.NoError(t, p.RunAll(context.Background(), fns))
	require.EqualValues(t, 10, count)
}

func TestRunAllReturnsFirstError(t *testing.T) {
	p := New(2)
	sentinel := errors.New("boom")

	fns := []func(ctx context.Context) error{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return sentinel },
		func(ctx context.Context) error { return nil },
	}

	err := p.RunAll(context.Background(), fns)
	require.ErrorIs(t, err, sentinel)
}

func TestNewClampsNonPositiveLimit(t *testing.T) {
	require.Equal(t, 1, New(0).Limit)
	require.Equal(t, 1, New(-5).Limit)
}
