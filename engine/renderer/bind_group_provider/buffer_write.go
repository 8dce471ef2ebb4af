package bind_group_provider

import "github.com/cogentcore/webgpu/wgpu"

// BufferWrite describes a single GPU buffer write operation targeting a specific binding
// on a BindGroupProvider at a given byte offset.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// WriteBuffers queues every write. Writes to bindings without a buffer are skipped.
//
// Parameters:
//   - queue: the device queue
//   - writes: the writes in submission order
//
// Returns:
//   - int: the number of bytes queued
func WriteBuffers(queue *wgpu.Queue, writes []BufferWrite) int {
	n := 0
	for _, w := range writes {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil || len(w.Data) == 0 {
			continue
		}
		queue.WriteBuffer(buf, w.Offset, w.Data)
		n += len(w.Data)
	}
	return n
}
