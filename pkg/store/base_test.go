package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopack/memopack-go/pkg/memory"
	"github.com/memopack/memopack-go/pkg/store"
)

func TestStaticProviderSwap(t *testing.T) {
	first := &memory.Snapshot{Version: "1"}
	second := &memory.Snapshot{Version: "2"}

	provider := store.NewStaticProvider(first)

	snap, err := provider.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", snap.Version)

	old := provider.Swap(second)
	assert.Equal(t, "1", old.Version)

	snap, err = provider.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2", snap.Version)

	// The reference handed out before the swap is untouched.
	assert.Equal(t, "1", first.Version)
}

func TestDiscardSink(t *testing.T) {
	err := store.DiscardSink{}.RecordUsage(context.Background(), []memory.UsageEvent{{RecordID: "r1"}})
	assert.NoError(t, err)
}
