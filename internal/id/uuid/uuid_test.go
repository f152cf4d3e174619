package uuid

import (
	"sort"
	"testing"

	goUUID "github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewIDProducesValidV7(t *testing.T) {
	t.Parallel()

	gen := New()
	id, err := gen.NewID()
	require.NoError(t, err)

	parsed, err := goUUID.Parse(id)
	require.NoError(t, err)
	require.Equal(t, goUUID.Version(7), parsed.Version())
}

// Run identifiers prefix archive object names and log lines, so they must
// be unique and sort in generation order.
func TestNewIDsAreUniqueAndTimeOrdered(t *testing.T) {
	t.Parallel()

	gen := New()
	ids := make([]string, 0, 20)
	seen := make(map[string]bool, 20)
	for i := 0; i < 20; i++ {
		id, err := gen.NewID()
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate run id %s", id)
		seen[id] = true
		ids = append(ids, id)
	}

	require.True(t, sort.StringsAreSorted(ids), "v7 ids should sort in generation order: %v", ids)
}
