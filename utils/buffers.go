package utils

import (
	"bytes"
	"sync"
)

// bufPool reuses encode buffers across batch workers to reduce GC pressure.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// AcquireBuffer returns a reset buffer from the pool.
func AcquireBuffer() *bytes.Buffer {
	b := bufPool.Get().(*bytes.Buffer)
	b.Reset()
	return b
}

// ReleaseBuffer returns b to the pool.  Callers must not use b after this call.
func ReleaseBuffer(b *bytes.Buffer) {
	// Cap large buffers to avoid pinning excessive memory.
	if b.Cap() > 8*1024*1024 {
		return
	}
	bufPool.Put(b)
}

// DrainBuffer copies the contents of b out and releases b to the pool.
func DrainBuffer(b *bytes.Buffer) []byte {
	out := CloneBytes(b.Bytes())
	ReleaseBuffer(b)
	return out
}
