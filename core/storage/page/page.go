// Package page defines the in-memory frame representation shared by the
// buffer pool manager, the replacer, and page guards.
package page

import (
	"sync"

	commonutils "github.com/sushant-115/gojodb/internal/common_utils"
)

// PageID identifies a logical page stored on disk. It is allocated by a
// monotonic counter owned by the buffer pool manager.
type PageID uint64

// InvalidPageID marks a frame that holds no resident page. It must never
// collide with a real page id, so it is not the zero value: the allocator
// (core/storage/bufferpool) hands out page id 0 as the very first page,
// matching the original's next_page_id_ counter starting at 0.
const InvalidPageID PageID = ^PageID(0)

// FrameID identifies a slot in the buffer pool's fixed frame array.
type FrameID int32

// InvalidFrameID is returned when no frame could be obtained.
const InvalidFrameID FrameID = -1

// LSN is a log sequence number. The buffer pool core never interprets it;
// it only carries the value a log manager hook assigns.
type LSN uint64

// InvalidLSN is the zero value for a page that has never been logged.
const InvalidLSN LSN = 0

// Page is a fixed-size in-memory frame: a byte buffer plus the metadata
// that tracks which logical page currently occupies it.
type Page struct {
	id       PageID
	data     []byte
	pinCount uint32
	dirty    bool
	lsn      LSN

	// latch is the per-page reader-writer lock acquired only by page
	// guards, outside the buffer pool manager's own mutex.
	latch sync.RWMutex
}

// New allocates a frame of the given size, initially holding no page.
func New(size int) *Page {
	return &Page{
		id:   InvalidPageID,
		data: make([]byte, size),
	}
}

// ResetMemory zeroes the frame's buffer without touching pin/dirty/lsn
// state. Both NewPage and FetchPage call this before handing the frame a
// new identity.
func (p *Page) ResetMemory() {
	for i := range p.data {
		p.data[i] = 0
	}
}

// Reset fully wipes the frame, returning it to the state a never-used
// frame would have. Called when a page is explicitly deleted.
func (p *Page) Reset() {
	p.id = InvalidPageID
	p.pinCount = 0
	p.dirty = false
	p.lsn = InvalidLSN
	p.ResetMemory()
}

func (p *Page) GetData() []byte     { return p.data }
func (p *Page) GetPageID() PageID   { return p.id }
func (p *Page) SetPageID(id PageID) { p.id = id }
func (p *Page) IsDirty() bool       { return p.dirty }
func (p *Page) SetDirty(dirty bool) { p.dirty = dirty }
func (p *Page) GetLSN() LSN         { return p.lsn }
func (p *Page) SetLSN(lsn LSN)      { p.lsn = lsn }

func (p *Page) Pin() { p.pinCount++ }

func (p *Page) Unpin() {
	if p.pinCount > 0 {
		p.pinCount--
	}
}

func (p *Page) PinCount() uint32         { return p.pinCount }
func (p *Page) SetPinCount(count uint32) { p.pinCount = count }

// RLock acquires the page's shared latch. Held by ReadPageGuard.
func (p *Page) RLock() { p.latch.RLock() }

// RUnlock releases the page's shared latch.
func (p *Page) RUnlock() { p.latch.RUnlock() }

// Lock acquires the page's exclusive latch. Held by WritePageGuard.
func (p *Page) Lock() {
	commonutils.PrintCaller("page latch acquired from", uint64(p.id), 2)
	p.latch.Lock()
}

// TryLock attempts to acquire the exclusive latch without blocking.
func (p *Page) TryLock() bool { return p.latch.TryLock() }

// Unlock releases the page's exclusive latch.
func (p *Page) Unlock() {
	commonutils.PrintCaller("page latch released from", uint64(p.id), 2)
	p.latch.Unlock()
}
