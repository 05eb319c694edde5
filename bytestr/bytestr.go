// Package bytestr implements a length-prefixed byte string stored in a
// single allocator.Region block.
package bytestr

import (
	"math"
	"unsafe"

	"github.com/QuangTung97/regionarena/allocator"
)

// header keeps the payload on the alignment boundary.
type header struct {
	size uint32
	_    uint32
}

const headerSize = uint32(unsafe.Sizeof(header{}))

// String is a handle to a byte string living in a region. Append may move
// the string, so the handle it returns replaces the old one.
type String struct {
	region *allocator.Region
	addr   allocator.Addr
}

func fitsLength(n int) bool {
	return uint64(n) <= uint64(math.MaxUint32-headerSize)
}

// New copies data into a new string allocated from r.
func New(r *allocator.Region, data []byte) (String, bool) {
	if !fitsLength(len(data)) {
		return String{}, false
	}
	n := uint32(len(data))

	addr, ok := r.Allocate(headerSize + n)
	if !ok {
		return String{}, false
	}

	s := String{region: r, addr: addr}
	s.header().size = n
	copy(s.payload(n), data)
	return s, true
}

// NewFromText ...
func NewFromText(r *allocator.Region, text string) (String, bool) {
	return New(r, unsafe.Slice(unsafe.StringData(text), len(text)))
}

func (s String) header() *header {
	return (*header)(unsafe.Pointer(&s.region.Bytes(s.addr, headerSize)[0]))
}

func (s String) payload(n uint32) []byte {
	return s.region.Bytes(s.addr+allocator.Addr(headerSize), n)
}

// Append grows the string by data and returns the handle to use from now on.
// On failure the original string is left untouched.
func (s String) Append(data []byte) (String, bool) {
	size := s.header().size
	if !fitsLength(int(size) + len(data)) {
		return String{}, false
	}
	n := uint32(len(data))

	addr, ok := s.region.Reallocate(s.addr, headerSize+size+n)
	if !ok {
		return String{}, false
	}

	// the prefix was carried over by Reallocate
	next := String{region: s.region, addr: addr}
	copy(next.region.Bytes(addr+allocator.Addr(headerSize+size), n), data)
	next.header().size = size + n
	return next, true
}

// AppendText ...
func (s String) AppendText(text string) (String, bool) {
	return s.Append(unsafe.Slice(unsafe.StringData(text), len(text)))
}

// Free ...
func (s String) Free() {
	s.region.Free(s.addr)
}

// Len ...
func (s String) Len() uint32 {
	return s.header().size
}

// Data returns a view of the string bytes inside the region. It is only
// valid until the string is freed or appended to.
func (s String) Data() []byte {
	return s.payload(s.header().size)
}

// String returns a copy of the bytes.
func (s String) String() string {
	return string(s.Data())
}

// Addr ...
func (s String) Addr() allocator.Addr {
	return s.addr
}
