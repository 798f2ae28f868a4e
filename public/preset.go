package public

const (
	// ChunkFilePrefix marks the chunk files a sorter owns in its working directory
	ChunkFilePrefix = "bigsort-"
	ChunkFileSuffix = ".chunk"
	TempFileSuffix  = ".tmp"
	FileLockName    = "sorter.lock"

	// RecordSeparator splits the integer key from the payload
	RecordSeparator = '.'
	LineSeparator   = '\n'
)

const (
	DefaultMaxConcurrency = 40
	DefaultMaxChunkBytes  = 50 * 1024 * 1024
	DefaultBufferSize     = 64 * 1024

	// MaxLineSize is the longest single record the line scanner accepts
	MaxLineSize = 16 * 1024 * 1024

	FilePerm = 0644
)
