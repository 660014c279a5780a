package bufferpool

import "github.com/sushant-115/gojodb/core/storage/page"

// LogSink is the buffer pool manager's only hook into write-ahead logging.
// Durability and recovery are explicitly out of scope for this core (see
// spec §1); the BPM calls RecordPageWrite immediately before it writes a
// frame back to disk — on every flush, dirty or not, and on every eviction
// of a dirty frame — giving a real log manager the chance to make sure the frame's log
// records are durable first. The core does not implement that guarantee
// itself.
type LogSink interface {
	RecordPageWrite(pageID page.PageID, data []byte) error
}

// NoopLogSink satisfies LogSink without doing anything, for callers that
// don't wire in a log manager.
type NoopLogSink struct{}

func (NoopLogSink) RecordPageWrite(page.PageID, []byte) error { return nil }
