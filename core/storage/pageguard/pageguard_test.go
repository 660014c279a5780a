package pageguard_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sushant-115/gojodb/core/storage/bufferpool"
	"github.com/sushant-115/gojodb/core/storage/diskio"
	"github.com/sushant-115/gojodb/core/storage/pageguard"
)

const testPageSize = 64

func newTestBPM(t *testing.T, poolSize, k int) *bufferpool.BufferPoolManager {
	t.Helper()
	sched := diskio.NewMemScheduler(testPageSize)
	t.Cleanup(sched.Shutdown)
	return bufferpool.New(bufferpool.Config{
		PoolSize:  poolSize,
		ReplacerK: k,
		PageSize:  testPageSize,
	}, sched, nil, nil, nil)
}

// S6 — scope-exit auto-unpin and unlatch for a read guard.
func TestReadGuardDropUnpinsAndUnlatches(t *testing.T) {
	ctx := context.Background()
	bpm := newTestBPM(t, 1, 1)

	_, pageID, err := bpm.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown))

	func() {
		g, err := bpm.FetchPageRead(ctx, pageID)
		require.NoError(t, err)
		defer g.Drop()
		require.True(t, g.Engaged())
	}()

	// Pin count must be back to 0, and the exclusive latch must be
	// acquirable (i.e. the shared latch from the guard was released).
	require.False(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown), "page should be fully unpinned")
	frame2, err := bpm.FetchPageWrite(ctx, pageID)
	require.NoError(t, err)
	require.True(t, frame2.Engaged())
	frame2.Drop()
}

// S7 — move semantics: exactly one unpin happens, and the moved-from guard
// is a no-op on Drop.
func TestMoveTransfersOwnershipExactlyOnce(t *testing.T) {
	ctx := context.Background()
	bpm := newTestBPM(t, 1, 1)

	_, pageID, err := bpm.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown))

	g1, err := bpm.FetchPageBasic(ctx, pageID)
	require.NoError(t, err)
	g2 := g1.Move()

	require.False(t, g1.Engaged(), "moved-from guard must be empty")
	require.True(t, g2.Engaged())

	// Dropping the empty source must be a no-op: it must not double-unpin.
	g1.Drop()
	frame, err := bpm.FetchPage(ctx, pageID, diskio.AccessTypeUnknown)
	require.NoError(t, err)
	require.Equal(t, uint32(2), frame.PinCount(), "g1.Drop must leave g2's pin in place")
	require.True(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown))

	g2.Drop()
	require.False(t, g2.Engaged())

	// Exactly one unpin happened: the page is fully unpinned and
	// evictable, not pin-count-underflowed.
	require.False(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown), "page should already be fully unpinned")
}

// Idempotent Drop: calling it twice only unpins once.
func TestDropIsIdempotent(t *testing.T) {
	ctx := context.Background()
	bpm := newTestBPM(t, 1, 1)

	_, pageID, err := bpm.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown))

	g, err := bpm.FetchPageBasic(ctx, pageID)
	require.NoError(t, err)
	// A second pin held outside the guard shows how many pins the drops release.
	frame, err := bpm.FetchPage(ctx, pageID, diskio.AccessTypeUnknown)
	require.NoError(t, err)
	g.Drop()
	require.NotPanics(t, func() { g.Drop() })
	require.False(t, g.Engaged())
	require.Equal(t, uint32(1), frame.PinCount(), "only the guard's own pin should have been released")
}

func TestUpgradeReadTransfersPinAndAcquiresLatch(t *testing.T) {
	ctx := context.Background()
	bpm := newTestBPM(t, 1, 1)

	_, pageID, err := bpm.NewPage(ctx)
	require.NoError(t, err)
	require.True(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown))

	basic, err := bpm.FetchPageBasic(ctx, pageID)
	require.NoError(t, err)

	rg := basic.UpgradeRead()
	require.False(t, basic.Engaged())
	require.True(t, rg.Engaged())

	frame, err := bpm.FetchPage(ctx, pageID, diskio.AccessTypeUnknown)
	require.NoError(t, err)
	require.Equal(t, uint32(2), frame.PinCount(), "the upgraded guard should still hold the original pin")
	require.False(t, frame.TryLock(), "the shared latch should be held")
	require.True(t, bpm.UnpinPage(pageID, false, diskio.AccessTypeUnknown))
	rg.Drop()
}

func TestUpgradeOnEmptyGuardYieldsEmpty(t *testing.T) {
	var empty pageguard.BasicPageGuard
	rg := empty.UpgradeRead()
	require.False(t, rg.Engaged())

	wg := empty.UpgradeWrite()
	require.False(t, wg.Engaged())
}
