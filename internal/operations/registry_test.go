package operations_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"povcli/internal/operations"
	"povcli/internal/operations/testutil"
)

func TestRegistry_Register(t *testing.T) {
	r := operations.NewRegistry()

	require.NoError(t, r.Register(testutil.NewMockStage("combine")))
	assert.True(t, r.Has("combine"))
	assert.Equal(t, 1, r.Count())

	assert.Error(t, r.Register(testutil.NewMockStage("combine")), "duplicate ID")
	assert.Error(t, r.Register(testutil.NewMockStage("")), "empty ID")
	assert.Error(t, r.Register(nil))

	_, err := r.Get("export")
	assert.Error(t, err)
}

func TestRegistry_GetDependencyOrder(t *testing.T) {
	r := operations.NewRegistry()
	require.NoError(t, r.Register(testutil.NewMockStage("export", "combine")))
	require.NoError(t, r.Register(testutil.NewMockStage("standardize_2011")))
	require.NoError(t, r.Register(testutil.NewMockStage("combine", "standardize_2011", "standardize_2017")))
	require.NoError(t, r.Register(testutil.NewMockStage("standardize_2017")))

	ordered, err := r.GetDependencyOrder()
	require.NoError(t, err)

	ids := make([]string, len(ordered))
	for i, s := range ordered {
		ids[i] = s.ID()
	}
	assert.Equal(t, []string{"standardize_2011", "standardize_2017", "combine", "export"}, ids)
}

func TestRegistry_DependencyErrors(t *testing.T) {
	t.Run("missing dependency", func(t *testing.T) {
		r := operations.NewRegistry()
		require.NoError(t, r.Register(testutil.NewMockStage("export", "combine")))
		err := r.ValidateDependencies()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "combine")
	})

	t.Run("cycle", func(t *testing.T) {
		r := operations.NewRegistry()
		require.NoError(t, r.Register(testutil.NewMockStage("a", "b")))
		require.NoError(t, r.Register(testutil.NewMockStage("b", "a")))
		assert.ErrorContains(t, r.ValidateDependencies(), "cycle")
	})
}

func TestRegistry_GetDependents(t *testing.T) {
	r := operations.NewRegistry()
	require.NoError(t, r.Register(testutil.NewMockStage("combine")))
	require.NoError(t, r.Register(testutil.NewMockStage("export", "combine")))
	require.NoError(t, r.Register(testutil.NewMockStage("upload", "export")))

	dependents := r.GetDependents("combine")
	require.Len(t, dependents, 1)
	assert.Equal(t, "export", dependents[0].ID())
	assert.Empty(t, r.GetDependents("upload"))
	assert.Equal(t, []string{"combine", "export", "upload"}, r.ListIDs())
}
