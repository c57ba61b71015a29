package aml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPkgLength(t *testing.T) {
	specs := []struct {
		descr   string
		data    []byte
		wantLen uint32
		wantEnd uint32
	}{
		{
			descr:   "single-byte encoding, low six bits",
			data:    []byte{0x05, 1, 2, 3, 4},
			wantLen: 5,
			wantEnd: 5,
		},
		{
			descr:   "single-byte maximum",
			data:    append([]byte{0x3f}, make([]byte, 0x3e)...),
			wantLen: 0x3f,
			wantEnd: 0x3f,
		},
		{
			descr:   "two-byte encoding",
			data:    append([]byte{0x48, 0x02}, make([]byte, 38)...),
			wantLen: 40,
			wantEnd: 40,
		},
		{
			descr:   "three-byte encoding",
			data:    append([]byte{0x84, 0x10, 0x01}, make([]byte, 0x1101)...),
			wantLen: 0x4 | 0x10<<4 | 0x01<<12,
			wantEnd: 0x4 | 0x10<<4 | 0x01<<12,
		},
	}

	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			r := newByteReader(spec.data)
			gotLen, gotEnd, err := r.readPkgLength()
			require.Nil(t, err)
			assert.Equal(t, spec.wantLen, gotLen)
			assert.Equal(t, spec.wantEnd, gotEnd)
		})
	}
}

func TestReadPkgLengthOverrun(t *testing.T) {
	// Declares 0x3f bytes but only the prefix byte is present.
	r := newByteReader([]byte{0x3f})
	_, _, err := r.readPkgLength()
	require.NotNil(t, err)
	assert.Equal(t, ErrKindParse, err.Kind)
}

func TestReadPkgLengthEOF(t *testing.T) {
	// Two-byte encoding with the follow-on byte missing.
	r := newByteReader([]byte{0x48})
	_, _, err := r.readPkgLength()
	require.NotNil(t, err)
	assert.Equal(t, ErrKindParse, err.Kind)
}

func TestReadPkgValueIgnoresStreamBounds(t *testing.T) {
	// Field-list bit counts reuse the PkgLength encoding but are not spans:
	// a width of 40 bits must decode even when fewer than 40 bytes remain.
	r := newByteReader([]byte{0x48, 0x02})
	v, err := r.readPkgValue()
	require.Nil(t, err)
	assert.Equal(t, uint32(40), v)
}

func TestPkgLengthRoundTrip(t *testing.T) {
	// For every encodable size, the decoded length equals the prefix plus
	// the body, and the end offset lands exactly on the package boundary.
	for bodyLen := 0; bodyLen < 300; bodyLen++ {
		data := pkg(make([]byte, bodyLen))
		r := newByteReader(data)
		gotLen, gotEnd, err := r.readPkgLength()
		require.Nil(t, err, "body length %d", bodyLen)
		require.Equal(t, uint32(len(data)), gotLen, "body length %d", bodyLen)
		require.Equal(t, uint32(len(data)), gotEnd, "body length %d", bodyLen)
	}
}

func TestReadNumConstant(t *testing.T) {
	r := newByteReader([]byte{0x78, 0x56, 0x34, 0x12})
	v, err := r.readNumConstant(4)
	require.Nil(t, err)
	assert.Equal(t, uint64(0x12345678), v)

	r = newByteReader([]byte{0xab})
	v, err = r.readNumConstant(1)
	require.Nil(t, err)
	assert.Equal(t, uint64(0xab), v)

	r = newByteReader([]byte{0xab})
	_, err = r.readNumConstant(2)
	require.NotNil(t, err)
}
