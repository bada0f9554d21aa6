package session

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMRUCachePromoteMovesToFront(t *testing.T) {
	c := newMRUCache(5)
	c.Promote("u1", "h1")
	c.Promote("u2", "h2")
	c.Promote("u1", "h1")

	entries := c.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "u1", entries[0].userID)
}

func TestMRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newMRUCache(2)
	c.Promote("u1", "h1")
	c.Promote("u2", "h2")
	c.Promote("u3", "h3")

	entries := c.Entries()
	require.Len(t, entries, 2)
	ids := []string{entries[0].userID, entries[1].userID}
	require.ElementsMatch(t, []string{"u3", "u2"}, ids)
}

func TestMRUCacheInvalidateClears(t *testing.T) {
	c := newMRUCache(5)
	c.Promote("u1", "h1")
	c.Invalidate()
	require.Empty(t, c.Entries())
}
