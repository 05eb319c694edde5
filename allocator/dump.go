package allocator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Printable renders b with every byte outside the visible ASCII range as '.'.
func Printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c > 0x20 && c < 0x7f {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// FormatOffset formats a chunk offset or list link, printing the null link as "nil".
func FormatOffset(offset uint32) string {
	if offset == nullPtr {
		return "nil"
	}
	return strconv.FormatUint(uint64(offset), 10)
}

// Dump writes the list structure and the raw data of every chunk to w.
func (r *Region) Dump(w io.Writer) error {
	r.checkAlive()
	h := r.header()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "Region: capacity: %d, free: %s, used: %s\n",
		h.capacity, FormatOffset(h.free), FormatOffset(h.used))

	r.dumpList(bw, "Free", h.free)
	r.dumpList(bw, "Used", h.used)

	return bw.Flush()
}

func (r *Region) dumpList(w io.Writer, name string, head uint32) {
	fmt.Fprintf(w, "%s: %s\n", name, FormatOffset(head))
	for _, info := range r.chunkInfos(head) {
		fmt.Fprintf(w, "    Chunk: %d, size: %d, next: %s, data: %s\n",
			info.Offset, info.Size, FormatOffset(info.Next), Printable(r.Bytes(info.Addr, info.Size)))
	}
}
