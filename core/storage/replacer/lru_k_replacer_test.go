package replacer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sushant-115/gojodb/core/storage/diskio"
	"github.com/sushant-115/gojodb/core/storage/page"
	"github.com/sushant-115/gojodb/core/storage/replacer"
)

func TestEvictPrefersLargestKDistance(t *testing.T) {
	// S3 from the spec: touch frames 0,1,2 once each, then re-touch 0 and 1.
	// Frame 2 has an infinite k-distance (fewer than k accesses) and must
	// be the first victim.
	r := replacer.New(3, 2, nil)

	r.RecordAccess(0, diskio.AccessTypeUnknown)
	r.RecordAccess(1, diskio.AccessTypeUnknown)
	r.RecordAccess(2, diskio.AccessTypeUnknown)
	r.RecordAccess(0, diskio.AccessTypeUnknown)
	r.RecordAccess(1, diskio.AccessTypeUnknown)

	r.SetEvictable(0, true)
	r.SetEvictable(1, true)
	r.SetEvictable(2, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(2), victim)
}

func TestEvictTieBreaksByOldestAccess(t *testing.T) {
	// S1 from the spec: three frames each touched once (all infinite
	// k-distance under k=2). The one accessed first is evicted first.
	r := replacer.New(3, 2, nil)

	r.RecordAccess(0, diskio.AccessTypeUnknown) // ts=1
	r.RecordAccess(1, diskio.AccessTypeUnknown) // ts=2
	r.RecordAccess(2, diskio.AccessTypeUnknown) // ts=3

	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(0), victim)
}

func TestEvictReturnsFalseWhenNothingEvictable(t *testing.T) {
	r := replacer.New(1, 2, nil)
	r.RecordAccess(0, diskio.AccessTypeUnknown)

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestSetEvictableIsNoOpForUnknownFrame(t *testing.T) {
	r := replacer.New(2, 2, nil)
	r.SetEvictable(1, true)
	require.Equal(t, 0, r.Size())
}

func TestSizeTracksEvictableCount(t *testing.T) {
	r := replacer.New(3, 2, nil)
	r.RecordAccess(0, diskio.AccessTypeUnknown)
	r.RecordAccess(1, diskio.AccessTypeUnknown)

	r.SetEvictable(0, true)
	require.Equal(t, 1, r.Size())

	r.SetEvictable(1, true)
	require.Equal(t, 2, r.Size())

	r.SetEvictable(0, false)
	require.Equal(t, 1, r.Size())
}

func TestRemoveEvictableFrame(t *testing.T) {
	r := replacer.New(2, 2, nil)
	r.RecordAccess(0, diskio.AccessTypeUnknown)
	r.SetEvictable(0, true)

	r.Remove(0)
	require.Equal(t, 0, r.Size())

	_, ok := r.Evict()
	require.False(t, ok)
}

func TestRemoveNonEvictableFramePanics(t *testing.T) {
	r := replacer.New(2, 2, nil)
	r.RecordAccess(0, diskio.AccessTypeUnknown)

	require.Panics(t, func() { r.Remove(0) })
}

func TestRemoveUnknownFrameIsNoOp(t *testing.T) {
	r := replacer.New(2, 2, nil)
	require.NotPanics(t, func() { r.Remove(1) })
}

func TestRecordAccessOutOfRangePanics(t *testing.T) {
	r := replacer.New(2, 2, nil)
	require.Panics(t, func() { r.RecordAccess(2, diskio.AccessTypeUnknown) })
}

func TestHistoryTrimmedToK(t *testing.T) {
	r := replacer.New(2, 2, nil)
	r.RecordAccess(0, diskio.AccessTypeUnknown) // ts=1
	r.RecordAccess(1, diskio.AccessTypeUnknown) // ts=2
	r.RecordAccess(0, diskio.AccessTypeUnknown) // ts=3
	r.RecordAccess(0, diskio.AccessTypeUnknown) // ts=4, frame 0's history should now be [3,4]
	r.RecordAccess(1, diskio.AccessTypeUnknown) // ts=5, frame 1's history is [2,5]
	r.SetEvictable(0, true)
	r.SetEvictable(1, true)

	// Trimmed, frame 0's k-distance is 5-3=2 and frame 1's is 5-2=3, so
	// frame 1 goes; an untrimmed history would give frame 0 5-1=4 instead.
	victim, ok := r.Evict()
	require.True(t, ok)
	require.Equal(t, page.FrameID(1), victim)
}
