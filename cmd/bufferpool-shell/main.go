// Command bufferpool-shell is an interactive REPL over a live
// BufferPoolManager, for exercising fetch/new/unpin/flush/delete by hand
// against either an in-memory or on-disk scheduler backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/sushant-115/gojodb/core/storage/bufferpool"
	"github.com/sushant-115/gojodb/core/storage/diskio"
	"github.com/sushant-115/gojodb/core/storage/page"
	"github.com/sushant-115/gojodb/pkg/logger"
)

func main() {
	var (
		poolSize = flag.Int("pool-size", 16, "number of frames in the pool")
		k        = flag.Int("k", 2, "LRU-K history depth")
		pageSize = flag.Int("page-size", 4096, "frame size in bytes")
		dbFile   = flag.String("file", "", "path to a page file; empty uses an in-memory scheduler")
		logLevel = flag.String("log-level", "warn", "zap log level")
	)
	flag.Parse()

	log, err := logger.New(logger.Config{Level: *logLevel, Format: "console", OutputFile: "stderr"})
	if err != nil {
		fmt.Printf("starting logger: %v\n", err)
		log = zap.NewNop()
	}
	defer log.Sync()

	var scheduler diskio.Scheduler
	if *dbFile == "" {
		scheduler = diskio.NewMemScheduler(*pageSize)
	} else {
		fileSched, err := diskio.NewFileScheduler(*dbFile, *pageSize, 0, log)
		if err != nil {
			fmt.Printf("opening %s: %v\n", *dbFile, err)
			return
		}
		scheduler = fileSched
	}
	defer scheduler.Shutdown()

	bpm := bufferpool.New(bufferpool.Config{
		PoolSize:  *poolSize,
		ReplacerK: *k,
		PageSize:  *pageSize,
	}, scheduler, nil, log, nil)

	rl, err := readline.New("bufferpool> ")
	if err != nil {
		fmt.Printf("starting readline: %v\n", err)
		return
	}
	defer rl.Close()

	sh := &shell{bpm: bpm, out: rl.Stdout()}
	fmt.Fprintln(sh.out, "bufferpool-shell. Type 'help' for commands, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or readline.ErrInterrupt
			return
		}
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			return
		}
		sh.dispatch(fields)
	}
}

// shell holds the REPL's only piece of state across commands: the last
// page id touched, so "unpin" and "flush" default to it when called bare.
type shell struct {
	bpm     *bufferpool.BufferPoolManager
	out     io.Writer
	lastID  page.PageID
	hasLast bool
}

func (s *shell) dispatch(fields []string) {
	ctx := context.Background()
	switch fields[0] {
	case "help":
		s.help()
	case "new":
		frame, id, err := s.bpm.NewPage(ctx)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		if frame == nil {
			fmt.Fprintln(s.out, "no frame available")
			return
		}
		s.remember(id)
		fmt.Fprintf(s.out, "new page %d, pin_count=%d\n", id, frame.PinCount())
	case "fetch":
		id, ok := s.parsePageID(fields)
		if !ok {
			return
		}
		frame, err := s.bpm.FetchPage(ctx, id, diskio.AccessTypeUnknown)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		if frame == nil {
			fmt.Fprintln(s.out, "no frame available")
			return
		}
		s.remember(id)
		fmt.Fprintf(s.out, "fetched page %d, pin_count=%d, dirty=%v\n", id, frame.PinCount(), frame.IsDirty())
	case "unpin":
		id, ok := s.parsePageID(fields)
		if !ok {
			return
		}
		dirty := len(fields) > 2 && fields[2] == "dirty"
		fmt.Fprintf(s.out, "%v\n", s.bpm.UnpinPage(id, dirty, diskio.AccessTypeUnknown))
	case "flush":
		id, ok := s.parsePageID(fields)
		if !ok {
			return
		}
		ok2, err := s.bpm.FlushPage(ctx, id)
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		fmt.Fprintf(s.out, "%v\n", ok2)
	case "flushall":
		if err := s.bpm.FlushAllPages(ctx); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return
		}
		fmt.Fprintln(s.out, "ok")
	case "delete":
		id, ok := s.parsePageID(fields)
		if !ok {
			return
		}
		fmt.Fprintf(s.out, "%v\n", s.bpm.DeletePage(id))
	case "write":
		id, ok := s.parsePageID(fields)
		if !ok || len(fields) < 3 {
			fmt.Fprintln(s.out, "usage: write <page_id> <text>")
			return
		}
		frame, err := s.bpm.FetchPage(ctx, id, diskio.AccessTypeUnknown)
		if err != nil || frame == nil {
			fmt.Fprintf(s.out, "page %d is not resident; fetch it first\n", id)
			return
		}
		text := strings.Join(fields[2:], " ")
		n := copy(frame.GetData(), text)
		if n < len(text) {
			fmt.Fprintf(s.out, "warning: truncated to %d bytes (frame size)\n", n)
		}
		s.bpm.UnpinPage(id, true, diskio.AccessTypeUnknown)
		fmt.Fprintln(s.out, "ok")
	case "read":
		id, ok := s.parsePageID(fields)
		if !ok {
			return
		}
		frame, err := s.bpm.FetchPage(ctx, id, diskio.AccessTypeUnknown)
		if err != nil || frame == nil {
			fmt.Fprintf(s.out, "page %d is not resident\n", id)
			return
		}
		fmt.Fprintf(s.out, "%q\n", strings.TrimRight(string(frame.GetData()), "\x00"))
		s.bpm.UnpinPage(id, false, diskio.AccessTypeUnknown)
	case "poolsize":
		fmt.Fprintln(s.out, s.bpm.PoolSize())
	default:
		fmt.Fprintf(s.out, "unknown command %q; type 'help'\n", fields[0])
	}
}

// parsePageID reads a page id from fields[1], defaulting to the last page
// id touched if fields has no second argument.
func (s *shell) parsePageID(fields []string) (page.PageID, bool) {
	if len(fields) < 2 {
		if s.hasLast {
			return s.lastID, true
		}
		fmt.Fprintln(s.out, "no page id given and nothing fetched yet")
		return 0, false
	}
	n, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		fmt.Fprintf(s.out, "bad page id %q: %v\n", fields[1], err)
		return 0, false
	}
	return page.PageID(n), true
}

func (s *shell) remember(id page.PageID) {
	s.lastID = id
	s.hasLast = true
}

func (s *shell) help() {
	fmt.Fprintln(s.out, `commands:
  new                       admit a brand new page, pinned once
  fetch <page_id>           pin a resident or on-disk page
  unpin <page_id> [dirty]   drop one pin, optionally marking dirty
  flush <page_id>           write a page to disk and clear its dirty flag
  flushall                  flush every resident page
  delete <page_id>          reclaim an unpinned page's frame
  write <page_id> <text>    fetch, overwrite the buffer, mark dirty, unpin
  read <page_id>            fetch, print the buffer, unpin
  poolsize                  print the configured pool size
  exit / quit               leave the shell`)
}
