package diskio

import (
	"sync"

	"github.com/sushant-115/gojodb/core/storage/page"
)

// MemScheduler is an in-memory Scheduler double: it fulfills every request
// synchronously against a map instead of a file. It exists so the buffer
// pool manager, the replacer's interaction with it, and page guards can be
// tested without touching disk.
type MemScheduler struct {
	mu       sync.Mutex
	store    map[page.PageID][]byte
	pageSize int
}

// NewMemScheduler creates an empty in-memory backing store. Pages that have
// never been written read back as all zeros, matching what a freshly
// allocated region of a real file would contain.
func NewMemScheduler(pageSize int) *MemScheduler {
	return &MemScheduler{
		store:    make(map[page.PageID][]byte),
		pageSize: pageSize,
	}
}

func (s *MemScheduler) CreatePromise() Promise { return NewPromise() }

func (s *MemScheduler) Schedule(req DiskRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.IsWrite {
		buf := make([]byte, len(req.Data))
		copy(buf, req.Data)
		s.store[req.PageID] = buf
		req.Callback.Fulfill(nil)
		return
	}

	if data, ok := s.store[req.PageID]; ok {
		copy(req.Data, data)
	} else {
		for i := range req.Data {
			req.Data[i] = 0
		}
	}
	req.Callback.Fulfill(nil)
}

func (s *MemScheduler) Shutdown() {}

var _ Scheduler = (*MemScheduler)(nil)
