// Package allocator manages a single fixed-capacity region carved into
// chunks kept on a free list and a used list. Chunk headers live inside the
// region and link to each other by offset.
package allocator

import (
	"math"
	"unsafe"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

const (
	// Alignment is the boundary every chunk size and data address is aligned to.
	Alignment uint32 = 8

	nullPtr uint32 = math.MaxUint32

	regionHeaderSize = uint32(unsafe.Sizeof(regionHeader{}))
	chunkHeaderSize  = uint32(unsafe.Sizeof(chunkHeader{}))

	// MinCapacity is the smallest capacity able to hold the region header and
	// one chunk of the minimum aligned size.
	MinCapacity = regionHeaderSize + chunkHeaderSize + Alignment
)

// ErrCapacityTooSmall is returned by New when the region cannot hold a single chunk.
var ErrCapacityTooSmall = errors.New("allocator: capacity too small")

// Addr is the offset of a block's data area inside its region.
type Addr uint32

type regionHeader struct {
	capacity uint32
	free     uint32 // first free chunk header
	used     uint32 // first used chunk header
	chunks   uint32 // number of chunk headers carved so far
}

// Region ...
type Region struct {
	data []uint64
	mem  []byte

	memoryUsage uint64
}

func alignSize(size uint32) uint32 {
	return (size + Alignment - 1) &^ (Alignment - 1)
}

func allocateData(capacity uint32) []uint64 {
	return make([]uint64, capacity/8)
}

// New creates a region of capacity bytes, rounded down to the alignment
// boundary. The whole space after the region header starts as one free chunk.
func New(capacity uint32) (*Region, error) {
	rounded := capacity &^ (Alignment - 1)
	if rounded < MinCapacity {
		return nil, errors.Wrapf(ErrCapacityTooSmall, "capacity %d, need at least %d", capacity, MinCapacity)
	}

	data := allocateData(rounded)
	r := &Region{
		data: data,
		mem:  unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), rounded),
	}

	h := r.header()
	*h = regionHeader{
		capacity: rounded,
		free:     regionHeaderSize,
		used:     nullPtr,
		chunks:   1,
	}

	c := r.chunkAt(regionHeaderSize)
	c.size = rounded - regionHeaderSize - chunkHeaderSize
	c.next = nullPtr

	if ce := Logger().Check(zap.DebugLevel, "region created"); ce != nil {
		ce.Write(zap.Uint32("capacity", rounded), zap.Uint32("free", c.size))
	}
	return r, nil
}

// Destroy releases the whole region. Every address obtained from it becomes
// invalid and any further operation on the region panics.
func (r *Region) Destroy() {
	if r.mem == nil {
		return
	}
	if ce := Logger().Check(zap.DebugLevel, "region destroyed"); ce != nil {
		ce.Write(zap.Uint32("capacity", r.header().capacity), zap.Uint64("inUse", r.memoryUsage))
	}
	r.data = nil
	r.mem = nil
	r.memoryUsage = 0
}

func (r *Region) checkAlive() {
	if r.mem == nil {
		panic("allocator: use after Destroy()")
	}
}

func (r *Region) header() *regionHeader {
	return (*regionHeader)(unsafe.Pointer(&r.mem[0]))
}

// Capacity ...
func (r *Region) Capacity() uint32 {
	r.checkAlive()
	return r.header().capacity
}

// Allocate returns the first free chunk, in free-list order, whose size
// covers the aligned request. Chunks with enough spare room are split and the
// remainder takes the chunk's place in the free list.
func (r *Region) Allocate(size uint32) (Addr, bool) {
	r.checkAlive()

	h := r.header()
	if size == 0 || size > h.capacity {
		return 0, false
	}
	size = alignSize(size)

	link := &h.free
	for *link != nullPtr && r.chunkAt(*link).size < size {
		link = &r.chunkAt(*link).next
	}
	if *link == nullPtr {
		if ce := Logger().Check(zap.DebugLevel, "region exhausted"); ce != nil {
			ce.Write(zap.Uint32("size", size), zap.Uint64("inUse", r.memoryUsage))
		}
		return 0, false
	}

	offset := *link
	c := r.chunkAt(offset)
	r.splitChunk(offset, c, size)

	*link = c.next
	c.next = h.used
	h.used = offset

	r.memoryUsage += uint64(c.size)
	return dataAddr(offset), true
}

// ZeroAllocate allocates count*size bytes and clears only the first size
// bytes of the block.
func (r *Region) ZeroAllocate(count uint32, size uint32) (Addr, bool) {
	addr, ok := r.Allocate(count * size)
	if !ok {
		return 0, false
	}

	n := min(size, r.chunkAt(r.header().used).size)
	clear(r.mem[addr : addr+Addr(n)])
	return addr, true
}

// Reallocate grows the block at addr to at least size bytes. A block that
// already fits is returned unchanged. Otherwise the contents move to a new
// block and the old one is freed; when no block is available the old one is
// left intact and false is returned.
func (r *Region) Reallocate(addr Addr, size uint32) (Addr, bool) {
	r.checkAlive()
	if size == 0 {
		return addr, true
	}

	link, ok := r.usedLink(addr)
	if !ok {
		return 0, false
	}

	c := r.chunkAt(*link)
	if c.size >= size {
		return addr, true
	}

	newAddr, ok := r.Allocate(size)
	if !ok {
		return 0, false
	}

	copy(r.mem[newAddr:newAddr+Addr(c.size)], r.mem[addr:addr+Addr(c.size)])
	r.Free(addr)

	return newAddr, true
}

// Free moves the block at addr to the tail of the free list. Addresses that
// are not currently allocated are ignored.
func (r *Region) Free(addr Addr) {
	r.checkAlive()

	link, ok := r.usedLink(addr)
	if !ok {
		return
	}

	offset := *link
	c := r.chunkAt(offset)
	*link = c.next
	c.next = nullPtr

	tail := &r.header().free
	for *tail != nullPtr {
		tail = &r.chunkAt(*tail).next
	}
	*tail = offset

	r.memoryUsage -= uint64(c.size)
}

// Bytes returns a view of n bytes starting at addr. It does not check that
// addr belongs to a live block.
func (r *Region) Bytes(addr Addr, n uint32) []byte {
	r.checkAlive()
	return r.mem[addr : uint64(addr)+uint64(n)]
}

// Block returns a view over the whole data area of the allocated block at addr.
func (r *Region) Block(addr Addr) ([]byte, bool) {
	r.checkAlive()

	link, ok := r.usedLink(addr)
	if !ok {
		return nil, false
	}
	c := r.chunkAt(*link)
	return r.mem[addr : addr+Addr(c.size)], true
}
