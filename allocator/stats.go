package allocator

// Stats is a snapshot of region usage.
type Stats struct {
	Capacity    uint32
	SizeInUse   uint64 // sum of the data sizes of used chunks
	FreeBytes   uint64 // sum of the data sizes of free chunks
	UsedChunks  int
	FreeChunks  int
	LargestFree uint32
	Utilization float64 // SizeInUse / Capacity
}

// GetMemUsage ...
func (r *Region) GetMemUsage() uint64 {
	return r.memoryUsage
}

// Stats ...
func (r *Region) Stats() Stats {
	r.checkAlive()
	h := r.header()

	s := Stats{
		Capacity:  h.capacity,
		SizeInUse: r.memoryUsage,
	}
	for offset := h.free; offset != nullPtr; offset = r.chunkAt(offset).next {
		c := r.chunkAt(offset)
		s.FreeChunks++
		s.FreeBytes += uint64(c.size)
		if c.size > s.LargestFree {
			s.LargestFree = c.size
		}
	}
	for offset := h.used; offset != nullPtr; offset = r.chunkAt(offset).next {
		s.UsedChunks++
	}
	s.Utilization = float64(s.SizeInUse) / float64(s.Capacity)
	return s
}
