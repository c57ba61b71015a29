package aml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/amlgo/aml/internal/aml/host"
)

// Hand-rolled AML encoding helpers. The retrieval pack carries no compiled
// .aml fixtures and no iasl, so tests assemble the byte streams they need
// directly, mirroring the grammar of ACPI sec. 20.2.

// seg encodes a NameSeg, padding to four characters with underscores.
func seg(name string) []byte {
	for len(name) < nameSegLen {
		name += "_"
	}
	return []byte(name[:nameSegLen])
}

// cat concatenates byte slices.
func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// by builds a byte slice from literals.
func by(bs ...byte) []byte { return bs }

// pkg prefixes body with a PkgLength that covers the prefix itself plus the
// body, choosing the shortest encoding.
func pkg(parts ...[]byte) []byte {
	body := cat(parts...)
	if len(body)+1 <= 0x3f {
		return append([]byte{byte(len(body) + 1)}, body...)
	}
	total := len(body) + 2
	if total <= 0xfff {
		return append([]byte{0x40 | byte(total&0xf), byte(total >> 4)}, body...)
	}
	panic("test package too large for a two-byte PkgLength")
}

// rootName encodes '\' + a single NameSeg.
func rootName(name string) []byte {
	return append([]byte{'\\'}, seg(name)...)
}

// byteConst encodes BytePrefix + the value.
func byteConst(v byte) []byte { return []byte{0x0a, v} }

// strConst encodes StringPrefix + NUL-terminated ASCII.
func strConst(s string) []byte {
	return append(append([]byte{0x0d}, s...), 0)
}

// method encodes Method(name, argCount) { body }.
func method(name string, flags byte, body ...[]byte) []byte {
	return cat(by(0x14), pkg(seg(name), by(flags), cat(body...)))
}

// device encodes Device(name) { body }.
func device(name string, body ...[]byte) []byte {
	return cat(by(0x5b, 0x82), pkg(seg(name), cat(body...)))
}

// opRegion encodes OperationRegion(name, space, offset, length) with
// byte-constant operands.
func opRegion(name string, space byte, offset, length byte) []byte {
	return cat(by(0x5b, 0x80), seg(name), by(space), byteConst(offset), byteConst(length))
}

// fieldDef encodes Field(region, flags) { name1, bits1, name2, bits2, ... }.
func fieldDef(region string, flags byte, units ...[]byte) []byte {
	return cat(by(0x5b, 0x81), pkg(seg(region), by(flags), cat(units...)))
}

// fieldUnitDef encodes one NamedField element with a single-byte width.
func fieldUnitDef(name string, bits byte) []byte {
	return cat(seg(name), by(bits))
}

// parseTestTable builds a Context over the in-memory host and feeds data
// through ParseTable with ACPI 2.0 (64-bit integer) semantics.
func parseTestTable(t *testing.T, data []byte) (*Context, *host.Memory) {
	t.Helper()
	h := host.NewMemory()
	c := NewContext(h, nil, DefaultConfig())
	perr := c.ParseTable(data, 2)
	require.Nil(t, perr, "ParseTable: %v", perr)
	return c, h
}

// invokeInt invokes path and converts the result to an integer.
func invokeInt(t *testing.T, c *Context, path string, args ...interface{}) uint64 {
	t.Helper()
	v, err := c.InvokeMethod(context.Background(), path, args...)
	require.Nil(t, err, "InvokeMethod(%s): %v", path, err)
	n, cerr := toInteger(v, 64)
	require.Nil(t, cerr, "result of %s is not integer-convertible: %v", path, cerr)
	return n
}
