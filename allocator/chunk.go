package allocator

import "unsafe"

type chunkHeader struct {
	size uint32 // size of the data area, excluding the header
	next uint32
}

// ChunkInfo describes one chunk header in list order.
type ChunkInfo struct {
	Offset uint32
	Addr   Addr
	Size   uint32
	Next   uint32 // math.MaxUint32 for the last chunk of a list
}

func dataAddr(offset uint32) Addr {
	return Addr(offset + chunkHeaderSize)
}

func (r *Region) chunkAt(offset uint32) *chunkHeader {
	return (*chunkHeader)(unsafe.Pointer(&r.mem[offset]))
}

// splitChunk shrinks c to size and links the remainder right after it, when
// the remainder can hold a header and the minimum aligned block.
func (r *Region) splitChunk(offset uint32, c *chunkHeader, size uint32) bool {
	if c.size-size < chunkHeaderSize+alignSize(1) {
		return false
	}

	restOffset := offset + chunkHeaderSize + size
	rest := r.chunkAt(restOffset)
	rest.size = c.size - chunkHeaderSize - size
	rest.next = c.next

	c.size = size
	c.next = restOffset

	r.header().chunks++
	return true
}

// usedLink returns the link that points at the used chunk owning addr.
func (r *Region) usedLink(addr Addr) (*uint32, bool) {
	link := &r.header().used
	for *link != nullPtr {
		if dataAddr(*link) == addr {
			return link, true
		}
		link = &r.chunkAt(*link).next
	}
	return nil, false
}

func (r *Region) contentOfList(head uint32) []uint32 {
	var result []uint32
	for offset := head; offset != nullPtr; offset = r.chunkAt(offset).next {
		result = append(result, offset)
	}
	return result
}

func (r *Region) chunkInfos(head uint32) []ChunkInfo {
	var result []ChunkInfo
	for _, offset := range r.contentOfList(head) {
		c := r.chunkAt(offset)
		result = append(result, ChunkInfo{
			Offset: offset,
			Addr:   dataAddr(offset),
			Size:   c.size,
			Next:   c.next,
		})
	}
	return result
}

// Chunks returns the free and used lists in list order.
func (r *Region) Chunks() (free []ChunkInfo, used []ChunkInfo) {
	r.checkAlive()
	h := r.header()
	return r.chunkInfos(h.free), r.chunkInfos(h.used)
}
