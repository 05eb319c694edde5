package allocator

import (
	"github.com/cockroachdb/errors"
	"github.com/kelindar/bitmap"
	"go.uber.org/zap"
)

// ErrCorrupted is wrapped by every error returned from Verify.
var ErrCorrupted = errors.New("allocator: region corrupted")

type verifier struct {
	r        *Region
	capacity uint32
	headers  bitmap.Bitmap // chunk headers already visited, by 8 byte granule
	granules bitmap.Bitmap // 8 byte granules owned by some chunk
}

// Verify walks both chunk lists and checks that the chunks tile the region
// exactly once: every header is in range and aligned, no list has a cycle, no
// chunk is on both lists and no two spans overlap.
func (r *Region) Verify() error {
	r.checkAlive()

	err := r.verify()
	if err != nil {
		if ce := Logger().Check(zap.DebugLevel, "region verification failed"); ce != nil {
			ce.Write(zap.Error(err))
		}
	}
	return err
}

func (r *Region) verify() error {
	h := r.header()
	if h.capacity != uint32(len(r.mem)) {
		return errors.Wrapf(ErrCorrupted, "header capacity %d, region has %d bytes", h.capacity, len(r.mem))
	}

	n := h.capacity / Alignment
	v := &verifier{
		r:        r,
		capacity: h.capacity,
		headers:  make(bitmap.Bitmap, (n>>6)+1),
		granules: make(bitmap.Bitmap, (n>>6)+1),
	}

	freeCount, _, err := v.walk("free", h.free)
	if err != nil {
		return err
	}
	usedCount, usedBytes, err := v.walk("used", h.used)
	if err != nil {
		return err
	}

	if owned, want := v.granules.Count(), int((h.capacity-regionHeaderSize)/Alignment); owned != want {
		return errors.Wrapf(ErrCorrupted, "chunks cover %d bytes, want %d", owned*int(Alignment), want*int(Alignment))
	}
	if count := freeCount + usedCount; count != int(h.chunks) {
		return errors.Wrapf(ErrCorrupted, "lists hold %d chunks, header counts %d", count, h.chunks)
	}
	if usedBytes != r.memoryUsage {
		return errors.Wrapf(ErrCorrupted, "used chunks hold %d bytes, accounted %d", usedBytes, r.memoryUsage)
	}
	return nil
}

func (v *verifier) walk(list string, head uint32) (count int, bytes uint64, err error) {
	for offset := head; offset != nullPtr; {
		if offset < regionHeaderSize || offset%Alignment != 0 || uint64(offset)+uint64(chunkHeaderSize) > uint64(v.capacity) {
			return 0, 0, errors.Wrapf(ErrCorrupted, "%s list: invalid chunk offset %d", list, offset)
		}
		if v.headers.Contains(offset / Alignment) {
			return 0, 0, errors.Wrapf(ErrCorrupted, "%s list: chunk %d reached twice", list, offset)
		}
		v.headers.Set(offset / Alignment)

		c := v.r.chunkAt(offset)
		if c.size%Alignment != 0 {
			return 0, 0, errors.Wrapf(ErrCorrupted, "%s list: chunk %d has unaligned size %d", list, offset, c.size)
		}
		end := uint64(offset) + uint64(chunkHeaderSize) + uint64(c.size)
		if end > uint64(v.capacity) {
			return 0, 0, errors.Wrapf(ErrCorrupted, "%s list: chunk %d runs past the region end", list, offset)
		}
		for g := offset / Alignment; g < uint32(end/uint64(Alignment)); g++ {
			if v.granules.Contains(g) {
				return 0, 0, errors.Wrapf(ErrCorrupted, "%s list: chunk %d overlaps byte %d", list, offset, g*Alignment)
			}
			v.granules.Set(g)
		}

		count++
		bytes += uint64(c.size)
		offset = c.next
	}
	return count, bytes, nil
}
