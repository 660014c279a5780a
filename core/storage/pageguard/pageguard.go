// Package pageguard implements the three scoped page handles the buffer
// pool manager hands out: a basic pin-only guard, and read/write variants
// that additionally hold the page's latch. Go has no destructors, so the
// "moveable, not copyable" contract the spec describes is emulated the way
// its own design notes suggest: an explicit Drop method, an engaged/empty
// flag, and a Move method callers must use instead of a plain assignment.
package pageguard

import (
	"github.com/sushant-115/gojodb/core/storage/diskio"
	"github.com/sushant-115/gojodb/core/storage/page"
)

// Pinner is the slice of BufferPoolManager a guard needs to release its
// pin. Defining it here rather than importing the bufferpool package keeps
// pageguard free of an import cycle: bufferpool constructs guards and
// passes itself as a Pinner.
type Pinner interface {
	UnpinPage(pageID page.PageID, isDirty bool, accessType diskio.AccessType) bool
}

// BasicPageGuard holds a pin on a page but no latch. Its zero value is an
// empty guard whose Drop is a no-op.
type BasicPageGuard struct {
	bpm   Pinner
	frame *page.Page
	dirty bool
}

// NewBasic wraps an already-pinned frame. Called by
// BufferPoolManager.FetchPageBasic / NewPageGuarded.
func NewBasic(bpm Pinner, frame *page.Page) BasicPageGuard {
	return BasicPageGuard{bpm: bpm, frame: frame}
}

// Engaged reports whether the guard holds a live pin.
func (g *BasicPageGuard) Engaged() bool { return g.frame != nil }

// PageID returns the guarded page's id, or InvalidPageID if empty.
func (g *BasicPageGuard) PageID() page.PageID {
	if g.frame == nil {
		return page.InvalidPageID
	}
	return g.frame.GetPageID()
}

// Data returns the guarded frame's buffer, or nil if empty.
func (g *BasicPageGuard) Data() []byte {
	if g.frame == nil {
		return nil
	}
	return g.frame.GetData()
}

// SetDirty records the dirty hint consumed on unpin.
func (g *BasicPageGuard) SetDirty(dirty bool) { g.dirty = dirty }

// Drop releases the pin through the owning BufferPoolManager. It is
// idempotent: calling it twice only unpins once.
func (g *BasicPageGuard) Drop() {
	if g.bpm == nil || g.frame == nil {
		return
	}
	g.bpm.UnpinPage(g.frame.GetPageID(), g.dirty, diskio.AccessTypeUnknown)
	g.bpm = nil
	g.frame = nil
	g.dirty = false
}

// Move transfers ownership of the pin to the returned guard and empties
// the receiver. Callers must use the result in place of g; g itself must
// not be used again except to let it go out of scope.
func (g *BasicPageGuard) Move() BasicPageGuard {
	moved := BasicPageGuard{bpm: g.bpm, frame: g.frame, dirty: g.dirty}
	g.bpm = nil
	g.frame = nil
	g.dirty = false
	return moved
}

// UpgradeRead acquires the page's shared latch and yields a ReadPageGuard
// holding the same pin, emptying the receiver. An empty source yields an
// empty ReadPageGuard.
func (g *BasicPageGuard) UpgradeRead() ReadPageGuard {
	if g.bpm == nil || g.frame == nil {
		return ReadPageGuard{}
	}
	g.frame.RLock()
	inner := BasicPageGuard{bpm: g.bpm, frame: g.frame, dirty: g.dirty}
	g.bpm = nil
	g.frame = nil
	g.dirty = false
	return ReadPageGuard{inner: inner}
}

// UpgradeWrite acquires the page's exclusive latch and yields a
// WritePageGuard holding the same pin, emptying the receiver. An empty
// source yields an empty WritePageGuard.
func (g *BasicPageGuard) UpgradeWrite() WritePageGuard {
	if g.bpm == nil || g.frame == nil {
		return WritePageGuard{}
	}
	g.frame.Lock()
	inner := BasicPageGuard{bpm: g.bpm, frame: g.frame, dirty: g.dirty}
	g.bpm = nil
	g.frame = nil
	g.dirty = false
	return WritePageGuard{inner: inner}
}

// ReadPageGuard additionally holds the page's shared latch. Its inner
// BasicPageGuard is populated at construction time (unlike the source this
// was ported from, whose ReadPageGuard/WritePageGuard constructors left
// the inner guard empty — a bug this port does not reproduce, see
// DESIGN.md).
type ReadPageGuard struct {
	inner BasicPageGuard
}

// NewRead wraps an already-pinned, already-RLock'd frame.
func NewRead(bpm Pinner, frame *page.Page) ReadPageGuard {
	return ReadPageGuard{inner: BasicPageGuard{bpm: bpm, frame: frame}}
}

func (g *ReadPageGuard) Engaged() bool     { return g.inner.Engaged() }
func (g *ReadPageGuard) PageID() page.PageID { return g.inner.PageID() }
func (g *ReadPageGuard) Data() []byte      { return g.inner.Data() }

// Drop releases the shared latch, then the pin. Idempotent.
func (g *ReadPageGuard) Drop() {
	if g.inner.frame == nil {
		return
	}
	frame := g.inner.frame
	frame.RUnlock()
	g.inner.Drop()
}

// Move transfers ownership to the returned guard and empties the receiver.
func (g *ReadPageGuard) Move() ReadPageGuard {
	return ReadPageGuard{inner: g.inner.Move()}
}

// WritePageGuard additionally holds the page's exclusive latch.
type WritePageGuard struct {
	inner BasicPageGuard
}

// NewWrite wraps an already-pinned, already-Lock'd frame.
func NewWrite(bpm Pinner, frame *page.Page) WritePageGuard {
	return WritePageGuard{inner: BasicPageGuard{bpm: bpm, frame: frame}}
}

func (g *WritePageGuard) Engaged() bool     { return g.inner.Engaged() }
func (g *WritePageGuard) PageID() page.PageID { return g.inner.PageID() }
func (g *WritePageGuard) Data() []byte      { return g.inner.Data() }
func (g *WritePageGuard) SetDirty(dirty bool) { g.inner.SetDirty(dirty) }

// Drop releases the exclusive latch, then the pin. Idempotent.
func (g *WritePageGuard) Drop() {
	if g.inner.frame == nil {
		return
	}
	frame := g.inner.frame
	frame.Unlock()
	g.inner.Drop()
}

// Move transfers ownership to the returned guard and empties the receiver.
func (g *WritePageGuard) Move() WritePageGuard {
	return WritePageGuard{inner: g.inner.Move()}
}
