package eurlex

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryReserveIfAbsent(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.True(t, reg.ReserveIfAbsent("32016R0679"))
	require.False(t, reg.ReserveIfAbsent("32016R0679"))
	require.Equal(t, 1, reg.Size())
}

func TestRegistrySeedBlocksReservation(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Seed([]string{"32016R0679", "32019L0790"})
	require.Equal(t, 2, reg.Size())

	require.False(t, reg.ReserveIfAbsent("32016R0679"))
	require.True(t, reg.ReserveIfAbsent("32014D0025"))

	// Seeding is a union, never a reset.
	reg.Seed([]string{"32016R0679"})
	require.Equal(t, 3, reg.Size())
}

// TestRegistryConcurrentReservation hammers the same identifiers from many
// goroutines; each identifier must be won exactly once.
func TestRegistryConcurrentReservation(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	ids := make([]string, 10)
	for i := range ids {
		ids[i] = fmt.Sprintf("32024R%04d", i+1)
	}

	var wins atomic.Int64
	var wg sync.WaitGroup
	for g := 0; g < 50; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				if reg.ReserveIfAbsent(id) {
					wins.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int64(len(ids)), wins.Load())
	require.Equal(t, len(ids), reg.Size())
}
