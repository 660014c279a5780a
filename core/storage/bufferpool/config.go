package bufferpool

// Config configures a BufferPoolManager. It is a plain struct literal, not
// a loaded file — the same pattern the teacher tree uses to configure
// page_manager and flush_manager call sites; no config-file loader exists
// at this layer of the stack.
type Config struct {
	// PoolSize is the number of frames the pool holds, bounding how many
	// pages can be resident at once.
	PoolSize int
	// ReplacerK is the K in LRU-K: how many recent accesses the replacer
	// remembers per frame.
	ReplacerK int
	// PageSize is the size in bytes of each frame's buffer.
	PageSize int
}
