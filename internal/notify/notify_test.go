package notify

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestFeed_PushAndDrain(t *testing.T) {
	t.Parallel()

	f := NewFeed(10, nil)
	ctx := context.Background()

	f.Success(ctx, "Article created successfully")
	f.Error(ctx, "Failed to fetch articles: 500")

	list := f.List()
	require.Len(t, list, 2)
	require.Equal(t, LevelSuccess, list[0].Level)
	require.Equal(t, LevelError, list[1].Level)
	require.Less(t, list[0].ID, list[1].ID)

	drained := f.Drain()
	require.Equal(t, list, drained)
	require.Empty(t, f.Drain())
	require.NotNil(t, f.Drain())
}

func TestFeed_CapacityEvictsOldest(t *testing.T) {
	t.Parallel()

	f := NewFeed(2, nil)
	ctx := context.Background()

	f.Error(ctx, "a")
	f.Error(ctx, "b")
	f.Error(ctx, "c")

	list := f.List()
	require.Len(t, list, 2)
	require.Equal(t, "b", list[0].Message)
	require.Equal(t, "c", list[1].Message)
}

func TestFeed_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	f := NewFeed(0, reg)
	require.Equal(t, DefaultCapacity, f.capacity)

	ctx := context.Background()
	f.Error(ctx, "x")
	f.Error(ctx, "y")
	f.Success(ctx, "z")

	require.Equal(t, 2.0, testutil.ToFloat64(f.counter.WithLabelValues(string(LevelError))))
	require.Equal(t, 1.0, testutil.ToFloat64(f.counter.WithLabelValues(string(LevelSuccess))))
}
