package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"lbtrend/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

type testUnit int

func (u testUnit) String() string {
	return fmt.Sprintf("unit-%d", int(u))
}

func units(n int) []testUnit {
	out := make([]testUnit, n)
	for i := range out {
		out[i] = testUnit(i)
	}
	return out
}

func collect[U, R any](ch <-chan Result[U, R]) []Result[U, R] {
	var out []Result[U, R]
	for res := range ch {
		out = append(out, res)
	}
	return out
}

func TestPoolRunsEveryUnit(t *testing.T) {
	tel := &telemetry.Recorder{}
	pool := NewPool(Options{Workers: 3}, func(ctx context.Context, u testUnit) ([]string, error) {
		return []string{u.String() + "/a", u.String() + "/b"}, nil
	}, tel)

	results := collect(pool.Run(context.Background(), units(20)))
	require.Len(t, results, 20)

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	for i, res := range results {
		require.Equal(t, i, res.Index)
		require.NoError(t, res.Err)
		// order inside a unit is preserved
		require.Equal(t, []string{res.Unit.String() + "/a", res.Unit.String() + "/b"}, res.Rows)
	}
	require.Empty(t, tel.Reports("broken"))
}

func TestPoolIsolatesFailures(t *testing.T) {
	tel := &telemetry.Recorder{}
	pool := NewPool(Options{Workers: 2}, func(ctx context.Context, u testUnit) ([]string, error) {
		switch u {
		case 1:
			panic("index out of range")
		case 2:
			return []string{"partial"}, errors.New("boom")
		}
		return []string{u.String()}, nil
	}, tel)

	results := collect(pool.Run(context.Background(), units(5)))
	require.Len(t, results, 5)

	failed := 0
	for _, res := range results {
		switch res.Unit {
		case 1, 2:
			failed++
			require.ErrorIs(t, res.Err, ErrUnit)
			require.Empty(t, res.Rows)
		default:
			require.NoError(t, res.Err)
			require.Equal(t, []string{res.Unit.String()}, res.Rows)
		}
	}
	require.Equal(t, 2, failed)
	require.Len(t, tel.Broken(report_pool_unit), 2)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int64
	pool := NewPool(Options{Workers: 4, ProgressEvery: 5}, func(ctx context.Context, u testUnit) ([]int, error) {
		n := running.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil, nil
	}, &telemetry.Recorder{})

	results := collect(pool.Run(context.Background(), units(40)))
	require.Len(t, results, 40)
	require.LessOrEqual(t, peak.Load(), int64(4))
	require.Greater(t, peak.Load(), int64(0))
}

func TestPoolDispatchesInOrder(t *testing.T) {
	var order []testUnit
	// a single worker makes completion order equal to dispatch order
	pool := NewPool(Options{Workers: 1}, func(ctx context.Context, u testUnit) ([]int, error) {
		order = append(order, u)
		return nil, nil
	}, &telemetry.Recorder{})

	collect(pool.Run(context.Background(), units(10)))
	require.Equal(t, units(10), order)
}

func TestPoolStopsDispatchOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var processed atomic.Int64
	pool := NewPool(Options{Workers: 1}, func(ctx context.Context, u testUnit) ([]int, error) {
		if processed.Add(1) == 3 {
			cancel()
		}
		return nil, nil
	}, &telemetry.Recorder{})

	results := collect(pool.Run(ctx, units(100)))
	require.Less(t, len(results), 100)
	require.GreaterOrEqual(t, len(results), 3)
}
