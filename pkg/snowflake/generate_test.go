package snowflake

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesIDs(t *testing.T) {
	_, err := New(32, 1)
	assert.ErrorIs(t, err, errInvalidMachineID)

	_, err = New(1, -1)
	assert.ErrorIs(t, err, errInvalidDataCenterID)
}

func TestIDsAreUniqueAndPrefixed(t *testing.T) {
	g, err := New(1, 1)
	require.NoError(t, err)

	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		id := g.NextID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}

	assert.True(t, strings.HasPrefix(g.NextString("notify"), "notify_"))
	assert.NotContains(t, g.NextString(""), "_")
}
