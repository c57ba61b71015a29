package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryReadWriteWidths(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.WriteU64(0x100, 0x1122334455667788))
	v8, _ := m.ReadU8(0x100)
	assert.Equal(t, uint8(0x88), v8)
	v16, _ := m.ReadU16(0x100)
	assert.Equal(t, uint16(0x7788), v16)
	v32, _ := m.ReadU32(0x100)
	assert.Equal(t, uint32(0x55667788), v32)
	v64, _ := m.ReadU64(0x100)
	assert.Equal(t, uint64(0x1122334455667788), v64)
}

func TestMemorySetBytes(t *testing.T) {
	m := NewMemory()
	m.SetBytes(0x10, []byte{0xaa, 0xbb})
	v, _ := m.ReadU16(0x10)
	assert.Equal(t, uint16(0xbbaa), v)
}

func TestIOPortIsolation(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WriteIOU8(0x70, 5))
	require.NoError(t, m.WriteIOU8(0x71, 7))
	a, _ := m.ReadIOU8(0x70)
	b, _ := m.ReadIOU8(0x71)
	assert.Equal(t, uint8(5), a)
	assert.Equal(t, uint8(7), b)
}

func TestPCIConfigAddressing(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.WritePCIU32(0, 0, 3, 0, 0x10, 0xfebc0000))
	v, _ := m.ReadPCIU32(0, 0, 3, 0, 0x10)
	assert.Equal(t, uint32(0xfebc0000), v)

	// A different function does not alias.
	other, _ := m.ReadPCIU32(0, 0, 3, 1, 0x10)
	assert.Equal(t, uint32(0), other)
}

func TestFatalRecording(t *testing.T) {
	m := NewMemory()
	err := m.HandleFatalError(1, 0xdead, 42)
	require.Error(t, err)
	require.Len(t, m.Fatal, 1)
	assert.Equal(t, FatalCall{Type: 1, Code: 0xdead, Arg: 42}, m.Fatal[0])
}
