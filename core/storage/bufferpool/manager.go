// Package bufferpool implements the buffer pool manager: it mediates
// access between a fixed-size set of in-memory frames and a disk
// scheduler, admitting and evicting pages under an LRU-K replacement
// policy and handing callers pin-scoped page guards.
package bufferpool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sushant-115/gojodb/core/storage/bpmetrics"
	"github.com/sushant-115/gojodb/core/storage/diskio"
	"github.com/sushant-115/gojodb/core/storage/page"
	"github.com/sushant-115/gojodb/core/storage/pageguard"
	"github.com/sushant-115/gojodb/core/storage/replacer"
)

// BufferPoolManager owns a fixed array of frames, the page table mapping
// resident page ids to frames, a free list of untouched frames, and
// orchestrates fetch/new/unpin/flush/delete against the replacer and the
// disk scheduler. Every exported method that touches the page table, free
// list or replacer does so under the BPM-wide mutex, held across any disk
// I/O it performs — the same choice BufferPoolManager::FetchPage makes in
// the source this was ported from. FlushAllPages takes the mutex once to
// snapshot page ids and then once per page it flushes; the guarded
// variants acquire page latches after the mutex is released.
type BufferPoolManager struct {
	mu sync.Mutex

	poolSize  int
	pageSize  int
	pages     []*page.Page
	pageTable map[page.PageID]page.FrameID
	freeList  []page.FrameID

	replacer  *replacer.LRUKReplacer
	scheduler diskio.Scheduler
	logSink   LogSink

	nextPageID page.PageID

	log     *zap.Logger
	metrics *bpmetrics.Recorder
}

// New constructs a BufferPoolManager. logSink may be nil, in which case a
// NoopLogSink is used. metrics may be nil, in which case every recorded
// metric is silently dropped.
func New(cfg Config, scheduler diskio.Scheduler, logSink LogSink, logger *zap.Logger, metrics *bpmetrics.Recorder) *BufferPoolManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if logSink == nil {
		logSink = NoopLogSink{}
	}

	pages := make([]*page.Page, cfg.PoolSize)
	freeList := make([]page.FrameID, cfg.PoolSize)
	for i := 0; i < cfg.PoolSize; i++ {
		pages[i] = page.New(cfg.PageSize)
		freeList[i] = page.FrameID(i)
	}

	return &BufferPoolManager{
		poolSize:  cfg.PoolSize,
		pageSize:  cfg.PageSize,
		pages:     pages,
		pageTable: make(map[page.PageID]page.FrameID),
		freeList:  freeList,
		replacer:  replacer.New(cfg.PoolSize, cfg.ReplacerK, logger),
		scheduler: scheduler,
		logSink:   logSink,
		log:       logger,
		metrics:   metrics,
	}
}

// PoolSize returns the number of frames the pool holds.
func (bpm *BufferPoolManager) PoolSize() int { return bpm.poolSize }

// acquireFrame finds a frame to hand to a new or fetched page: pop the
// free list if non-empty, else ask the replacer for a victim, writing it
// back first if dirty. ok is false only when neither the free list nor
// the replacer can produce a frame (pool exhausted, nothing evictable).
func (bpm *BufferPoolManager) acquireFrame(ctx context.Context) (frameID page.FrameID, ok bool, err error) {
	if n := len(bpm.freeList); n > 0 {
		frameID = bpm.freeList[n-1]
		bpm.freeList = bpm.freeList[:n-1]
		return frameID, true, nil
	}

	frameID, ok = bpm.replacer.Evict()
	if !ok {
		return page.InvalidFrameID, false, nil
	}

	victim := bpm.pages[frameID]
	oldPageID := victim.GetPageID()
	if oldPageID != page.InvalidPageID {
		if victim.IsDirty() {
			if err := bpm.writeFrame(ctx, frameID, oldPageID); err != nil {
				return page.InvalidFrameID, false, err
			}
		}
		delete(bpm.pageTable, oldPageID)
	}
	bpm.metrics.Eviction(ctx)
	return frameID, true, nil
}

func (bpm *BufferPoolManager) readFrame(ctx context.Context, frameID page.FrameID, pageID page.PageID) error {
	return diskio.Read(ctx, bpm.scheduler, pageID, diskio.AccessTypeUnknown, bpm.pages[frameID].GetData())
}

func (bpm *BufferPoolManager) writeFrame(ctx context.Context, frameID page.FrameID, pageID page.PageID) error {
	frame := bpm.pages[frameID]
	if err := bpm.logSink.RecordPageWrite(pageID, frame.GetData()); err != nil {
		return fmt.Errorf("log sink rejected write-back of page %d: %w", pageID, err)
	}
	return diskio.Write(ctx, bpm.scheduler, pageID, diskio.AccessTypeUnknown, frame.GetData())
}

// allocatePageID hands out the next page id. The buffer pool core owns
// this counter; persisting it across restarts is an external concern.
func (bpm *BufferPoolManager) allocatePageID() page.PageID {
	id := bpm.nextPageID
	bpm.nextPageID++
	return id
}

// NewPage admits a brand-new, all-zero page into the pool, pinned once.
// It returns (nil, InvalidPageID, nil) if the pool has no frame to give it.
func (bpm *BufferPoolManager) NewPage(ctx context.Context) (*page.Page, page.PageID, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok, err := bpm.acquireFrame(ctx)
	if err != nil {
		return nil, page.InvalidPageID, fmt.Errorf("new page: %w", err)
	}
	if !ok {
		return nil, page.InvalidPageID, nil
	}

	newID := bpm.allocatePageID()
	frame := bpm.pages[frameID]
	frame.ResetMemory()
	frame.SetPageID(newID)
	frame.SetPinCount(1)
	frame.SetDirty(false)

	bpm.pageTable[newID] = frameID
	bpm.replacer.RecordAccess(frameID, diskio.AccessTypeUnknown)
	bpm.replacer.SetEvictable(frameID, false)
	bpm.metrics.FramePinned(ctx)

	return frame, newID, nil
}

// FetchPage returns the frame holding pageID, pinning it — reading it from
// disk and admitting a frame for it first if it isn't already resident.
// It returns (nil, nil) if no frame is available.
func (bpm *BufferPoolManager) FetchPage(ctx context.Context, pageID page.PageID, accessType diskio.AccessType) (*page.Page, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	if frameID, ok := bpm.pageTable[pageID]; ok {
		frame := bpm.pages[frameID]
		if frame.PinCount() == 0 {
			bpm.replacer.SetEvictable(frameID, false)
			bpm.metrics.FramePinned(ctx)
		}
		frame.Pin()
		bpm.replacer.RecordAccess(frameID, accessType)
		bpm.metrics.Hit(ctx)
		return frame, nil
	}

	frameID, ok, err := bpm.acquireFrame(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", pageID, err)
	}
	if !ok {
		return nil, nil
	}

	frame := bpm.pages[frameID]
	frame.ResetMemory()
	if err := bpm.readFrame(ctx, frameID, pageID); err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", pageID, err)
	}
	frame.SetPageID(pageID)
	frame.SetPinCount(1)
	frame.SetDirty(false)

	bpm.pageTable[pageID] = frameID
	bpm.replacer.RecordAccess(frameID, accessType)
	bpm.replacer.SetEvictable(frameID, false)
	bpm.metrics.Miss(ctx)
	bpm.metrics.FramePinned(ctx)

	return frame, nil
}

// UnpinPage decrements pageID's pin count, marking it dirty if isDirty is
// set. It returns false if the page isn't resident or was already fully
// unpinned — both legitimate outcomes when other subsystems race, not
// crashes.
func (bpm *BufferPoolManager) UnpinPage(pageID page.PageID, isDirty bool, accessType diskio.AccessType) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return false
	}
	frame := bpm.pages[frameID]
	if frame.PinCount() == 0 {
		return false
	}

	if isDirty {
		frame.SetDirty(true)
	}
	frame.Unpin()

	if frame.PinCount() == 0 {
		bpm.replacer.SetEvictable(frameID, true)
		bpm.metrics.FrameUnpinned(context.Background())
	}
	return true
}

// FlushPage writes pageID's frame to disk unconditionally and clears its
// dirty flag, regardless of pin state. It returns false if the page isn't
// resident.
func (bpm *BufferPoolManager) FlushPage(ctx context.Context, pageID page.PageID) (bool, error) {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()
	return bpm.flushPageLocked(ctx, pageID)
}

func (bpm *BufferPoolManager) flushPageLocked(ctx context.Context, pageID page.PageID) (bool, error) {
	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return false, nil
	}
	frame := bpm.pages[frameID]
	if err := bpm.writeFrame(ctx, frameID, pageID); err != nil {
		return false, fmt.Errorf("flush page %d: %w", pageID, err)
	}
	frame.SetDirty(false)
	return true, nil
}

// FlushAllPages flushes every currently resident page.
//
// The source this was ported from has FlushAllPages iterate the page table
// while re-entering FlushPage, which acquires the same non-recursive lock
// — fine in C++ with a recursive mutex, a deadlock with Go's sync.Mutex.
// This instead snapshots the resident page ids while holding the lock
// once, releases it, then flushes each snapshotted id through its own
// locked call (see spec.md §9 Open Questions).
func (bpm *BufferPoolManager) FlushAllPages(ctx context.Context) error {
	bpm.mu.Lock()
	ids := make([]page.PageID, 0, len(bpm.pageTable))
	for id := range bpm.pageTable {
		ids = append(ids, id)
	}
	bpm.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var firstErr error
	for _, id := range ids {
		if _, err := bpm.FlushPage(ctx, id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeletePage removes pageID from the pool, discarding its contents even if
// dirty, and returns its frame to the free list. It returns true if the
// page ends up not resident, whether because it already wasn't or because
// this call removed it; it returns false only if the page is still pinned.
func (bpm *BufferPoolManager) DeletePage(pageID page.PageID) bool {
	bpm.mu.Lock()
	defer bpm.mu.Unlock()

	frameID, ok := bpm.pageTable[pageID]
	if !ok {
		return true
	}
	frame := bpm.pages[frameID]
	if frame.PinCount() > 0 {
		return false
	}

	bpm.replacer.Remove(frameID)
	delete(bpm.pageTable, pageID)
	frame.Reset()
	bpm.freeList = append(bpm.freeList, frameID)
	return true
}

// FetchPageBasic fetches pageID and wraps it in a BasicPageGuard.
func (bpm *BufferPoolManager) FetchPageBasic(ctx context.Context, pageID page.PageID) (pageguard.BasicPageGuard, error) {
	frame, err := bpm.FetchPage(ctx, pageID, diskio.AccessTypeUnknown)
	if err != nil || frame == nil {
		return pageguard.BasicPageGuard{}, err
	}
	return pageguard.NewBasic(bpm, frame), nil
}

// FetchPageRead fetches pageID, acquires its shared latch after pinning
// and before returning, and wraps it in a ReadPageGuard.
func (bpm *BufferPoolManager) FetchPageRead(ctx context.Context, pageID page.PageID) (pageguard.ReadPageGuard, error) {
	frame, err := bpm.FetchPage(ctx, pageID, diskio.AccessTypeUnknown)
	if err != nil || frame == nil {
		return pageguard.ReadPageGuard{}, err
	}
	frame.RLock()
	return pageguard.NewRead(bpm, frame), nil
}

// FetchPageWrite fetches pageID, acquires its exclusive latch after
// pinning and before returning, and wraps it in a WritePageGuard.
func (bpm *BufferPoolManager) FetchPageWrite(ctx context.Context, pageID page.PageID) (pageguard.WritePageGuard, error) {
	frame, err := bpm.FetchPage(ctx, pageID, diskio.AccessTypeUnknown)
	if err != nil || frame == nil {
		return pageguard.WritePageGuard{}, err
	}
	frame.Lock()
	return pageguard.NewWrite(bpm, frame), nil
}

// NewPageGuarded allocates a new page and wraps it in a BasicPageGuard.
func (bpm *BufferPoolManager) NewPageGuarded(ctx context.Context) (pageguard.BasicPageGuard, page.PageID, error) {
	frame, pageID, err := bpm.NewPage(ctx)
	if err != nil || frame == nil {
		return pageguard.BasicPageGuard{}, page.InvalidPageID, err
	}
	return pageguard.NewBasic(bpm, frame), pageID, nil
}

var _ pageguard.Pinner = (*BufferPoolManager)(nil)
