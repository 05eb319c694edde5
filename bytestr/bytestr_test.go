package bytestr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/QuangTung97/regionarena/allocator"
)

func newTestRegion(t *testing.T, capacity uint32) *allocator.Region {
	t.Helper()
	r, err := allocator.New(capacity)
	require.NoError(t, err)
	t.Cleanup(r.Destroy)
	return r
}

func TestHeaderSize(t *testing.T) {
	assert.Equal(t, uint32(8), headerSize)
}

func TestNew(t *testing.T) {
	table := []struct {
		name string
		data []byte
	}{
		{name: "text", data: []byte("ASDF")},
		{name: "binary", data: []byte{0, 1, 2, 0xff, 0, 'x'}},
		{name: "empty", data: []byte{}},
		{name: "nil", data: nil},
	}

	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			r := newTestRegion(t, 256)

			s, ok := New(r, e.data)
			require.True(t, ok)
			assert.Equal(t, uint32(len(e.data)), s.Len())
			assert.Equal(t, len(e.data), len(s.Data()))
			assert.Equal(t, string(e.data), s.String())
			assert.NoError(t, r.Verify())
		})
	}
}

func TestNewFromText(t *testing.T) {
	r := newTestRegion(t, 256)

	s, ok := NewFromText(r, "ASDF")
	require.True(t, ok)
	assert.Equal(t, allocator.Addr(24), s.Addr())
	assert.Equal(t, []byte("ASDF"), s.Data())
	assert.Equal(t, uint32(4), s.Len())

	block, ok := r.Block(s.Addr())
	require.True(t, ok)
	assert.Equal(t, 16, len(block))
}

func TestNew_Exhausted(t *testing.T) {
	r := newTestRegion(t, 64)

	_, ok := NewFromText(r, "this text does not fit into the region at all")
	assert.False(t, ok)
	assert.Equal(t, uint64(0), r.GetMemUsage())
}

func TestAppend(t *testing.T) {
	r := newTestRegion(t, 256)

	s, ok := NewFromText(r, "ASDF")
	require.True(t, ok)

	// 8 + 8 bytes still fit the 16 byte chunk
	s2, ok := s.AppendText("asdf")
	require.True(t, ok)
	assert.Equal(t, s.Addr(), s2.Addr())
	assert.Equal(t, "ASDFasdf", s2.String())
	assert.Equal(t, uint32(8), s2.Len())

	s3, ok := s2.AppendText("AaSsDdFf")
	require.True(t, ok)
	assert.NotEqual(t, s2.Addr(), s3.Addr())
	assert.Equal(t, allocator.Addr(48), s3.Addr())
	assert.Equal(t, "ASDFasdfAaSsDdFf", s3.String())
	assert.Equal(t, uint32(16), s3.Len())

	// the superseded block went back to the free list
	_, ok = r.Block(s2.Addr())
	assert.False(t, ok)
	assert.NoError(t, r.Verify())
}

func TestAppend_Empty(t *testing.T) {
	r := newTestRegion(t, 256)

	s, ok := NewFromText(r, "hello")
	require.True(t, ok)

	for _, data := range [][]byte{nil, {}} {
		next, ok := s.Append(data)
		require.True(t, ok)
		assert.Equal(t, s.Addr(), next.Addr())
		assert.Equal(t, uint32(5), next.Len())
		assert.Equal(t, "hello", next.String())
	}
}

func TestAppend_Compose(t *testing.T) {
	table := []struct {
		name  string
		parts []string
	}{
		{name: "short", parts: []string{"a", "b", "c"}},
		{name: "grow-each-time", parts: []string{"first", " second part", " and a much longer third part"}},
		{name: "binary", parts: []string{"\x00\x01", "\xff", "\x00"}},
	}

	for _, e := range table {
		t.Run(e.name, func(t *testing.T) {
			r := newTestRegion(t, 512)

			s, ok := NewFromText(r, e.parts[0])
			require.True(t, ok)

			expected := e.parts[0]
			for _, part := range e.parts[1:] {
				s, ok = s.AppendText(part)
				require.True(t, ok)
				expected += part
			}

			assert.Equal(t, expected, s.String())
			assert.Equal(t, uint32(len(expected)), s.Len())
			assert.NoError(t, r.Verify())
		})
	}
}

func TestAppend_Failure(t *testing.T) {
	r := newTestRegion(t, 64)

	s, ok := NewFromText(r, "hello")
	require.True(t, ok)

	next, ok := s.AppendText("a tail that cannot fit anywhere")
	assert.False(t, ok)
	assert.Equal(t, String{}, next)

	assert.Equal(t, "hello", s.String())
	assert.Equal(t, uint32(5), s.Len())
	assert.NoError(t, r.Verify())
}

func TestAppend_Self(t *testing.T) {
	r := newTestRegion(t, 256)

	s, ok := NewFromText(r, "abcdefgh")
	require.True(t, ok)

	s, ok = s.Append(s.Data())
	require.True(t, ok)
	assert.Equal(t, "abcdefghabcdefgh", s.String())
}

func TestFree(t *testing.T) {
	r := newTestRegion(t, 256)

	s, ok := NewFromText(r, "ASDF")
	require.True(t, ok)
	assert.Equal(t, uint64(16), r.GetMemUsage())

	s.Free()
	assert.Equal(t, uint64(0), r.GetMemUsage())
	_, ok = r.Block(s.Addr())
	assert.False(t, ok)
}
