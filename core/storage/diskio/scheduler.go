// Package diskio is the asynchronous contract the buffer pool manager uses
// to read and write page-granular frames. It is deliberately thin: the
// core never parses page contents and never spawns I/O threads of its
// own, it only schedules requests against whatever Scheduler a caller
// wires in.
package diskio

import (
	"context"

	"github.com/google/uuid"
	"github.com/sushant-115/gojodb/core/storage/page"
)

// AccessType hints at why a page is being touched. The replacer accepts it
// but, per the K-distance algorithm, never branches on it; it exists so
// callers above the buffer pool can carry intent through RecordAccess.
type AccessType int

const (
	AccessTypeUnknown AccessType = iota
	AccessTypeLookUp
	AccessTypeScan
	AccessTypeIndex
)

// Promise is the write side of a single disk request's completion signal.
type Promise struct {
	ch chan error
}

// NewPromise creates a Promise/Future pair backed by a buffered channel, so
// Fulfill never blocks even if nobody is waiting yet.
func NewPromise() Promise {
	return Promise{ch: make(chan error, 1)}
}

// Fulfill completes the promise. It must be called at most once: a second
// call is not detected and does not panic; it blocks until the first value
// has been received from the paired Future.
func (p Promise) Fulfill(err error) {
	p.ch <- err
}

// Future returns the read side paired with this promise.
func (p Promise) Future() Future {
	return Future{ch: p.ch}
}

// Future is the read side of a disk request's completion signal.
type Future struct {
	ch chan error
}

// Wait blocks until the paired promise is fulfilled or ctx is done.
func (f Future) Wait(ctx context.Context) error {
	select {
	case err := <-f.ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DiskRequest describes a single page-granular read or write.
type DiskRequest struct {
	IsWrite    bool
	Data       []byte
	PageID     page.PageID
	AccessType AccessType
	RequestID  uuid.UUID
	Callback   Promise
}

// Scheduler is the disk I/O backend the buffer pool core consumes. It is a
// capability, not a concrete type, so tests can hand the buffer pool
// manager an in-memory double instead of a real file.
type Scheduler interface {
	CreatePromise() Promise
	Schedule(req DiskRequest)
	Shutdown()
}

// Read performs a synchronous read through an async Scheduler, following
// the BufferPoolManager::ReadFrame pattern: create a promise, schedule,
// block on the future.
func Read(ctx context.Context, s Scheduler, pageID page.PageID, accessType AccessType, buf []byte) error {
	promise := s.CreatePromise()
	s.Schedule(DiskRequest{
		IsWrite:    false,
		Data:       buf,
		PageID:     pageID,
		AccessType: accessType,
		RequestID:  uuid.New(),
		Callback:   promise,
	})
	return promise.Future().Wait(ctx)
}

// Write performs a synchronous write through an async Scheduler, following
// the BufferPoolManager::WriteFrame pattern.
func Write(ctx context.Context, s Scheduler, pageID page.PageID, accessType AccessType, buf []byte) error {
	promise := s.CreatePromise()
	s.Schedule(DiskRequest{
		IsWrite:    true,
		Data:       buf,
		PageID:     pageID,
		AccessType: accessType,
		RequestID:  uuid.New(),
		Callback:   promise,
	})
	return promise.Future().Wait(ctx)
}
