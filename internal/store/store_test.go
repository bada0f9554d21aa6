package store

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNextReceiptNumberFormat(t *testing.T) {
	s := openTestStore(t)
	day := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	n1, err := s.NextReceiptNumber(day)
	require.NoError(t, err)
	require.Equal(t, "20260803-0001", n1)

	n2, err := s.NextReceiptNumber(day)
	require.NoError(t, err)
	require.Equal(t, "20260803-0002", n2)
}

// TestNextReceiptNumberConcurrent verifies property #8: 1000 concurrent
// calls on the same date produce 1000 distinct values forming a
// contiguous range starting at 1.
func TestNextReceiptNumberConcurrent(t *testing.T) {
	s := openTestStore(t)
	day := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	const n = 1000
	results := make([]string, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			r, err := s.NextReceiptNumber(day)
			require.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for _, r := range results {
		require.False(t, seen[r], "duplicate receipt number %s", r)
		seen[r] = true
	}
	require.Len(t, seen, n)
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("20260803-%04d", i)
		require.True(t, seen[want], "missing contiguous value %s", want)
	}
}

func TestNewIDUnique(t *testing.T) {
	s := openTestStore(t)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id := s.NewID()
		require.False(t, seen[id])
		seen[id] = true
	}
}
