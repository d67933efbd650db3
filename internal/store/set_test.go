package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linguahub/institute-api/internal/models"
)

func emptyRegistry() *Registry {
	return &Registry{
		Students:    New(func(_ context.Context, _ string) ([]models.Student, error) { return nil, nil }),
		Courses:     New(func(_ context.Context, _ string) ([]models.Course, error) { return nil, nil }),
		Enrollments: New(func(_ context.Context, _ string) ([]models.Enrollment, error) { return nil, nil }),
		Payments:    New(func(_ context.Context, _ string) ([]models.Payment, error) { return nil, nil }),
		Attendance:  New(func(_ context.Context, _ string) ([]models.Attendance, error) { return nil, nil }),
	}
}

func TestSetForReusesTenantRegistry(t *testing.T) {
	created := 0
	set := NewSet(func() *Registry {
		created++
		return emptyRegistry()
	})

	first, err := set.For(context.Background(), "inst-1")
	require.NoError(t, err)
	again, err := set.For(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Same(t, first, again)
	require.Equal(t, 1, created)

	_, err = set.For(context.Background(), "inst-2")
	require.NoError(t, err)
	require.Equal(t, 2, created)
}

func TestSetDropRemovesTenantRegistry(t *testing.T) {
	created := 0
	set := NewSet(func() *Registry {
		created++
		return emptyRegistry()
	})

	reg, err := set.For(context.Background(), "inst-1")
	require.NoError(t, err)
	require.True(t, reg.Students.Initialized())

	set.Drop("inst-1")
	require.False(t, reg.Students.Initialized())

	// The next request for the tenant rebuilds from scratch.
	fresh, err := set.For(context.Background(), "inst-1")
	require.NoError(t, err)
	require.NotSame(t, reg, fresh)
	require.Equal(t, 2, created)
}

func TestSetCloseDropsAllTenants(t *testing.T) {
	set := NewSet(emptyRegistry)

	one, err := set.For(context.Background(), "inst-1")
	require.NoError(t, err)
	two, err := set.For(context.Background(), "inst-2")
	require.NoError(t, err)

	set.Close()
	require.False(t, one.Students.Initialized())
	require.False(t, two.Students.Initialized())
	require.Empty(t, set.registries)
}
