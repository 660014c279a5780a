package diskio_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sushant-115/gojodb/core/storage/diskio"
	"github.com/sushant-115/gojodb/core/storage/page"
)

const testPageSize = 64

func TestMemSchedulerRoundTrip(t *testing.T) {
	s := diskio.NewMemScheduler(testPageSize)
	defer s.Shutdown()

	want := make([]byte, testPageSize)
	copy(want, "hello frame")

	require.NoError(t, diskio.Write(context.Background(), s, page.PageID(3), diskio.AccessTypeUnknown, want))

	got := make([]byte, testPageSize)
	require.NoError(t, diskio.Read(context.Background(), s, page.PageID(3), diskio.AccessTypeUnknown, got))
	require.Equal(t, want, got)
}

func TestMemSchedulerUnwrittenPageReadsZero(t *testing.T) {
	s := diskio.NewMemScheduler(testPageSize)
	defer s.Shutdown()

	buf := make([]byte, testPageSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	require.NoError(t, diskio.Read(context.Background(), s, page.PageID(9), diskio.AccessTypeUnknown, buf))
	require.Equal(t, make([]byte, testPageSize), buf)
}

func TestFileSchedulerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := diskio.NewFileScheduler(filepath.Join(dir, "pages.db"), testPageSize, 0, nil)
	require.NoError(t, err)
	defer s.Shutdown()

	want := make([]byte, testPageSize)
	copy(want, "on disk")

	require.NoError(t, diskio.Write(context.Background(), s, page.PageID(1), diskio.AccessTypeUnknown, want))

	got := make([]byte, testPageSize)
	require.NoError(t, diskio.Read(context.Background(), s, page.PageID(1), diskio.AccessTypeUnknown, got))
	require.Equal(t, want, got)
}

func TestFileSchedulerShutdownFailsPendingWork(t *testing.T) {
	dir := t.TempDir()
	s, err := diskio.NewFileScheduler(filepath.Join(dir, "pages.db"), testPageSize, 0, nil)
	require.NoError(t, err)

	s.Shutdown()

	buf := make([]byte, testPageSize)
	err = diskio.Read(context.Background(), s, page.PageID(0), diskio.AccessTypeUnknown, buf)
	require.ErrorIs(t, err, diskio.ErrSchedulerClosed)
}
