package diskio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// requestQueueDepth bounds how many in-flight requests FileScheduler will
// buffer before Schedule blocks the caller.
const requestQueueDepth = 256

// FileScheduler is the real disk backend: a single paged file, read and
// written at page_id*pageSize offsets, serviced by one background worker
// goroutine pulling requests off a queue — the Go rendition of BusTub's
// DiskScheduler background thread.
type FileScheduler struct {
	file     *os.File
	pageSize int
	limiter  *rate.Limiter
	log      *zap.Logger

	reqCh  chan DiskRequest
	done   chan struct{}
	closer sync.Once
	wg     sync.WaitGroup
}

// NewFileScheduler opens (creating if necessary) a page-granular file at
// path. bytesPerSec, if > 0, throttles I/O throughput using the same
// golang.org/x/time/rate pattern as core/storage_engine/common.CopyThrottled
// elsewhere in this tree; 0 means unlimited.
func NewFileScheduler(path string, pageSize int, bytesPerSec int64, logger *zap.Logger) (*FileScheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}

	var limiter *rate.Limiter
	if bytesPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(bytesPerSec), pageSize)
	}

	s := &FileScheduler{
		file:     f,
		pageSize: pageSize,
		limiter:  limiter,
		log:      logger,
		reqCh:    make(chan DiskRequest, requestQueueDepth),
		done:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.worker()
	return s, nil
}

func (s *FileScheduler) CreatePromise() Promise { return NewPromise() }

func (s *FileScheduler) Schedule(req DiskRequest) {
	select {
	case <-s.done:
		req.Callback.Fulfill(ErrSchedulerClosed)
		return
	default:
	}
	select {
	case s.reqCh <- req:
	case <-s.done:
		req.Callback.Fulfill(ErrSchedulerClosed)
	}
}

func (s *FileScheduler) worker() {
	defer s.wg.Done()
	for {
		select {
		case req := <-s.reqCh:
			s.handle(req)
		case <-s.done:
			// Drain whatever is left so no caller blocks forever on a future.
			for {
				select {
				case req := <-s.reqCh:
					req.Callback.Fulfill(ErrSchedulerClosed)
				default:
					return
				}
			}
		}
	}
}

func (s *FileScheduler) handle(req DiskRequest) {
	if s.limiter != nil {
		if err := s.limiter.WaitN(context.Background(), len(req.Data)); err != nil {
			req.Callback.Fulfill(fmt.Errorf("%w: rate limiter: %v", ErrIO, err))
			return
		}
	}

	offset := int64(req.PageID) * int64(s.pageSize)
	var err error
	if req.IsWrite {
		_, err = s.file.WriteAt(req.Data, offset)
		s.log.Debug("wrote frame", zap.Uint64("page_id", uint64(req.PageID)), zap.Int("bytes", len(req.Data)))
	} else {
		_, err = s.file.ReadAt(req.Data, offset)
		// A page that was allocated but never written reads as a short
		// read or EOF; the caller already zeroed the frame buffer before
		// scheduling the read, so treat both as success.
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = nil
		}
		s.log.Debug("read frame", zap.Uint64("page_id", uint64(req.PageID)), zap.Int("bytes", len(req.Data)))
	}
	if err != nil {
		err = fmt.Errorf("%w: page %d: %v", ErrIO, req.PageID, err)
	}
	req.Callback.Fulfill(err)
}

// Shutdown drains in-flight requests, stops the worker, and closes the
// backing file. It is safe to call once; subsequent calls are no-ops.
func (s *FileScheduler) Shutdown() {
	s.closer.Do(func() {
		close(s.done)
		s.wg.Wait()
		_ = s.file.Sync()
		_ = s.file.Close()
	})
}

var _ Scheduler = (*FileScheduler)(nil)
