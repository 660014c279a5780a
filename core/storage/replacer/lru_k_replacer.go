// Package replacer implements the LRU-K eviction policy the buffer pool
// manager uses to choose which resident frame to reclaim.
package replacer

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sushant-115/gojodb/core/storage/diskio"
	"github.com/sushant-115/gojodb/core/storage/page"
)

// node tracks the bounded access history of a single frame the replacer
// knows about. history is kept oldest-first and trimmed to at most k
// entries.
type node struct {
	history   []uint64
	evictable bool
}

// LRUKReplacer tracks up to replacerSize frames, keeping at most k recent
// access timestamps per frame, and selects the frame with the largest
// backward k-distance as its eviction victim.
type LRUKReplacer struct {
	mu sync.Mutex

	nodeStore map[page.FrameID]*node
	currTS    uint64
	currSize  int

	k            int
	replacerSize int

	log *zap.Logger
}

// New creates a replacer that will track at most replacerSize distinct
// frame ids, each with up to k recorded accesses.
func New(replacerSize, k int, logger *zap.Logger) *LRUKReplacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LRUKReplacer{
		nodeStore:    make(map[page.FrameID]*node),
		k:            k,
		replacerSize: replacerSize,
		log:          logger,
	}
}

func (r *LRUKReplacer) checkFrameID(frameID page.FrameID) {
	if int(frameID) < 0 || int(frameID) >= r.replacerSize {
		panic(fmt.Sprintf("replacer: frame id %d out of range [0,%d)", frameID, r.replacerSize))
	}
}

// RecordAccess appends an access timestamp to frameID's history, evicting
// the oldest entry once the history exceeds k entries. frameID must be
// strictly less than replacerSize; violating that is a programming error
// and panics rather than returning an error, matching the fatal-usage-error
// contract the rest of the replacer's range checks use.
func (r *LRUKReplacer) RecordAccess(frameID page.FrameID, accessType diskio.AccessType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkFrameID(frameID)

	r.currTS++

	n, ok := r.nodeStore[frameID]
	if !ok {
		n = &node{}
		r.nodeStore[frameID] = n
	}

	n.history = append(n.history, r.currTS)
	if len(n.history) > r.k {
		n.history = n.history[1:]
	}
}

// SetEvictable flips whether frameID may be chosen by Evict. It is a no-op
// for a frame the replacer has never recorded an access for.
func (r *LRUKReplacer) SetEvictable(frameID page.FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if n.evictable == evictable {
		return
	}
	n.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Evict selects the evictable frame with the largest backward k-distance,
// breaking ties by the smallest oldest-access timestamp (classical LRU
// among frames with fewer than k accesses), removes it from the replacer,
// and returns it. ok is false if no evictable frame exists.
func (r *LRUKReplacer) Evict() (frameID page.FrameID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]page.FrameID, 0, len(r.nodeStore))
	for id := range r.nodeStore {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var (
		victim         page.FrameID
		found          bool
		maxKDistance   uint64 = 0
		oldestOfVictim uint64 = math.MaxUint64
	)

	for _, id := range ids {
		n := r.nodeStore[id]
		if !n.evictable {
			continue
		}

		var kDistance uint64
		if len(n.history) >= r.k {
			kDistance = r.currTS - n.history[0]
		} else {
			kDistance = math.MaxUint64
		}

		if !found || kDistance > maxKDistance ||
			(kDistance == maxKDistance && n.history[0] < oldestOfVictim) {
			found = true
			victim = id
			maxKDistance = kDistance
			oldestOfVictim = n.history[0]
		}
	}

	if !found {
		return page.InvalidFrameID, false
	}

	delete(r.nodeStore, victim)
	r.currSize--
	r.log.Debug("evicted frame", zap.Int32("frame_id", int32(victim)))
	return victim, true
}

// Remove drops frameID from the replacer outright. It is a no-op if the
// frame isn't tracked, and panics if the frame is tracked but not
// evictable — the caller has violated the pin/evict contract by asking to
// discard replacer state for a frame that's still pinned.
func (r *LRUKReplacer) Remove(frameID page.FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.checkFrameID(frameID)

	n, ok := r.nodeStore[frameID]
	if !ok {
		return
	}
	if !n.evictable {
		panic(fmt.Sprintf("replacer: attempted to remove non-evictable frame %d", frameID))
	}
	delete(r.nodeStore, frameID)
	r.currSize--
}

// Size returns the number of frames currently marked evictable.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.currSize
}
