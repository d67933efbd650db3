package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type row struct {
	ID     string
	Tenant string
}

func tenantLoader(data map[string][]row) Loader[row] {
	return func(_ context.Context, institutionID string) ([]row, error) {
		return data[institutionID], nil
	}
}

func TestStoreInitializeIsIdempotent(t *testing.T) {
	calls := 0
	s := New(func(_ context.Context, institutionID string) ([]row, error) {
		calls++
		return []row{{ID: "r1", Tenant: institutionID}}, nil
	})

	require.NoError(t, s.Initialize(context.Background(), "inst-1"))
	require.NoError(t, s.Initialize(context.Background(), "inst-1"))
	require.Equal(t, 1, calls)
	require.Len(t, s.Snapshot(), 1)
}

func TestStoreTenantSwitchReplacesData(t *testing.T) {
	data := map[string][]row{
		"inst-1": {{ID: "a", Tenant: "inst-1"}, {ID: "b", Tenant: "inst-1"}},
		"inst-2": {{ID: "c", Tenant: "inst-2"}},
	}
	s := New(tenantLoader(data))

	require.NoError(t, s.Initialize(context.Background(), "inst-1"))
	require.Len(t, s.Snapshot(), 2)

	require.NoError(t, s.Initialize(context.Background(), "inst-2"))
	snapshot := s.Snapshot()
	require.Len(t, snapshot, 1)
	for _, r := range snapshot {
		require.Equal(t, "inst-2", r.Tenant)
	}
	require.Equal(t, "inst-2", s.InstitutionID())
}

func TestStoreInvalidateFansOutToSubscribers(t *testing.T) {
	data := map[string][]row{"inst-1": {{ID: "a", Tenant: "inst-1"}}}
	s := New(tenantLoader(data))
	require.NoError(t, s.Initialize(context.Background(), "inst-1"))

	ch, cancel := s.Subscribe()
	defer cancel()

	data["inst-1"] = append(data["inst-1"], row{ID: "b", Tenant: "inst-1"})
	require.NoError(t, s.Invalidate(context.Background()))

	select {
	case snapshot := <-ch:
		require.Len(t, snapshot, 2)
	case <-time.After(time.Second):
		t.Fatal("expected snapshot after invalidate")
	}
}

func TestStoreSlowSubscriberKeepsLatestSnapshot(t *testing.T) {
	data := map[string][]row{"inst-1": {{ID: "a", Tenant: "inst-1"}}}
	s := New(tenantLoader(data))
	require.NoError(t, s.Initialize(context.Background(), "inst-1"))

	ch, cancel := s.Subscribe()
	defer cancel()

	data["inst-1"] = []row{{ID: "a", Tenant: "inst-1"}, {ID: "b", Tenant: "inst-1"}}
	require.NoError(t, s.Invalidate(context.Background()))
	data["inst-1"] = []row{{ID: "c", Tenant: "inst-1"}}
	require.NoError(t, s.Invalidate(context.Background()))

	snapshot := <-ch
	require.Len(t, snapshot, 1)
	require.Equal(t, "c", snapshot[0].ID)
}

func TestStoreInvalidateBeforeInitializeIsNoop(t *testing.T) {
	calls := 0
	s := New(func(_ context.Context, _ string) ([]row, error) {
		calls++
		return nil, nil
	})

	require.NoError(t, s.Invalidate(context.Background()))
	require.Equal(t, 0, calls)
	require.False(t, s.Initialized())
}

func TestStoreResetClearsTenant(t *testing.T) {
	data := map[string][]row{"inst-1": {{ID: "a", Tenant: "inst-1"}}}
	s := New(tenantLoader(data))
	require.NoError(t, s.Initialize(context.Background(), "inst-1"))

	s.Reset()
	require.Empty(t, s.Snapshot())
	require.Empty(t, s.InstitutionID())
	require.False(t, s.Initialized())
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	data := map[string][]row{"inst-1": {{ID: "a", Tenant: "inst-1"}}}
	s := New(tenantLoader(data))
	require.NoError(t, s.Initialize(context.Background(), "inst-1"))

	snapshot := s.Snapshot()
	snapshot[0].ID = "mutated"
	require.Equal(t, "a", s.Snapshot()[0].ID)
}
