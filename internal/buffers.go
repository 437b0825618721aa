package internal

import (
	"fmt"
	"syscall"

	"github.com/neurlang/wayland/wl"
	"golang.org/x/sys/unix"
)

// maxPoolBuffers is the buffer count per surface. Two is enough to paint
// one frame while the compositor still reads the previous one.
const maxPoolBuffers = 2

// poolBuffer is one shared-memory buffer. busy is set when the buffer is
// attached and cleared only once the compositor sends wl_buffer.release.
// drawn records the dirty generation the buffer contents were painted at.
type poolBuffer struct {
	wlBuf    *wl.Buffer
	wlPool   *wl.ShmPool
	data     []byte
	width    int
	height   int
	stride   int
	capBytes int
	busy     bool
	drawn    uint64
	mapped   bool
	release  func(*poolBuffer)
}

var _ wl.BufferReleaseHandler = (*poolBuffer)(nil)

// HandleBufferRelease marks the buffer reusable. It runs on the dispatch
// goroutine, so it only forwards; ownership stays with the event loop.
func (b *poolBuffer) HandleBufferRelease(wl.BufferReleaseEvent) {
	if b.release != nil {
		b.release(b)
	}
}

func (b *poolBuffer) image() *Image {
	return newImage(b.data[:b.height*b.stride], b.stride, b.width, b.height)
}

func (b *poolBuffer) destroy() {
	if b.wlBuf != nil {
		b.wlBuf.Destroy()
		b.wlBuf = nil
	}
	if b.wlPool != nil {
		b.wlPool.Destroy()
		b.wlPool = nil
	}
	if b.mapped && b.data != nil {
		if err := syscall.Munmap(b.data); err != nil {
			Warn("Failed to unmap buffer memory: %v", err)
		}
		b.mapped = false
	}
	b.data = nil
}

// bufferPool hands out buffers for one surface. A freed buffer of
// sufficient capacity is always reused before anything new is allocated,
// and no more than maxPoolBuffers exist at a time.
type bufferPool struct {
	limit     int
	bufs      []*poolBuffer
	onRelease func(*poolBuffer)

	alloc   func(width, height int) (*poolBuffer, error)
	reshape func(b *poolBuffer, width, height int) error
}

func newBufferPool(shm *wl.Shm, onRelease func(*poolBuffer)) *bufferPool {
	p := &bufferPool{limit: maxPoolBuffers, onRelease: onRelease}
	p.alloc = func(width, height int) (*poolBuffer, error) {
		return newShmBuffer(shm, width, height)
	}
	p.reshape = reshapeShmBuffer
	return p
}

// acquire returns a buffer of the given size ready for painting, marked
// busy. It returns (nil, nil) when every buffer is still held by the
// compositor, which means the caller should skip this frame. An
// allocation error is returned only after retrying once with the pool
// shrunk, and is fatal to the surface.
func (p *bufferPool) acquire(width, height int) (*poolBuffer, error) {
	for _, b := range p.bufs {
		if !b.busy && b.width == width && b.height == height {
			b.busy = true
			return b, nil
		}
	}

	need := width * height * 4
	for _, b := range p.bufs {
		if b.busy || b.capBytes < need {
			continue
		}
		if err := p.reshape(b, width, height); err != nil {
			Warn("Failed to reshape buffer, replacing it: %v", err)
			p.drop(b)
			break
		}
		b.drawn = 0
		b.busy = true
		return b, nil
	}

	// Free buffers that can never fit the new size again.
	for _, b := range p.bufs {
		if !b.busy && b.capBytes < need {
			p.drop(b)
		}
	}

	if len(p.bufs) < p.limit {
		b, err := p.allocWithRetry(width, height)
		if err != nil {
			return nil, err
		}
		b.busy = true
		p.bufs = append(p.bufs, b)
		return b, nil
	}

	return nil, nil
}

func (p *bufferPool) allocWithRetry(width, height int) (*poolBuffer, error) {
	b, err := p.alloc(width, height)
	if err == nil {
		b.release = p.onRelease
		return b, nil
	}
	Warn("Buffer allocation failed, dropping free buffers and retrying: %v", err)
	for _, old := range p.bufs {
		if !old.busy {
			p.drop(old)
		}
	}
	b, err = p.alloc(width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate %dx%d buffer: %w", width, height, err)
	}
	b.release = p.onRelease
	return b, nil
}

func (p *bufferPool) drop(b *poolBuffer) {
	for i, cur := range p.bufs {
		if cur == b {
			p.bufs = append(p.bufs[:i], p.bufs[i+1:]...)
			break
		}
	}
	b.destroy()
}

func (p *bufferPool) destroy() {
	for _, b := range p.bufs {
		b.destroy()
	}
	p.bufs = nil
}

// newShmBuffer allocates a memfd-backed wl_buffer in ARGB8888.
func newShmBuffer(shm *wl.Shm, width, height int) (*poolBuffer, error) {
	stride := width * 4
	size := stride * height

	fd, err := unix.MemfdCreate("fancydash-buffer", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("failed to create memfd: %w", err)
	}
	defer unix.Close(fd)

	if err = syscall.Ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("failed to truncate memfd: %w", err)
	}

	data, err := syscall.Mmap(fd, 0, size, syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap buffer: %w", err)
	}

	pool, err := shm.CreatePool(uintptr(fd), int32(size))
	if err != nil {
		syscall.Munmap(data)
		return nil, fmt.Errorf("failed to create shm pool: %w", err)
	}

	buffer, err := pool.CreateBuffer(0, int32(width), int32(height), int32(stride), wl.ShmFormatArgb8888)
	if err != nil {
		pool.Destroy()
		syscall.Munmap(data)
		return nil, fmt.Errorf("failed to create buffer: %w", err)
	}

	b := &poolBuffer{
		wlBuf:    buffer,
		wlPool:   pool,
		data:     data,
		width:    width,
		height:   height,
		stride:   stride,
		capBytes: size,
		mapped:   true,
	}
	buffer.AddReleaseHandler(b)
	return b, nil
}

// reshapeShmBuffer re-declares an existing pool's bytes as a wl_buffer
// with new dimensions. The pool must already hold enough bytes.
func reshapeShmBuffer(b *poolBuffer, width, height int) error {
	stride := width * 4
	if stride*height > b.capBytes {
		return fmt.Errorf("pool too small for %dx%d", width, height)
	}
	buffer, err := b.wlPool.CreateBuffer(0, int32(width), int32(height), int32(stride), wl.ShmFormatArgb8888)
	if err != nil {
		return fmt.Errorf("failed to create resized buffer: %w", err)
	}
	if b.wlBuf != nil {
		b.wlBuf.Destroy()
	}
	b.wlBuf = buffer
	b.width = width
	b.height = height
	b.stride = stride
	buffer.AddReleaseHandler(b)
	return nil
}
