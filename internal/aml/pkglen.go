package aml

// byteReader is a cursor over an owned AML byte stream. It plays the role of
// the teacher's amlStreamReader, minus the unsafe physical-memory overlay:
// this interpreter is always handed a []byte slice it already owns (the host
// supplies DSDT/SSDT bytes directly), so there is nothing to map.
type byteReader struct {
	data   []byte
	offset uint32
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) eof() bool { return int(r.offset) >= len(r.data) }

func (r *byteReader) readByte() (byte, *Error) {
	if r.eof() {
		return 0, newParseError(r.offset, "unexpected end of stream")
	}
	b := r.data[r.offset]
	r.offset++
	return b, nil
}

func (r *byteReader) peekByte() (byte, bool) {
	if r.eof() {
		return 0, false
	}
	return r.data[r.offset], true
}

func (r *byteReader) unreadByte() {
	if r.offset > 0 {
		r.offset--
	}
}

func (r *byteReader) readBytes(n uint32) ([]byte, *Error) {
	if uint32(len(r.data))-r.offset < n {
		return nil, newParseError(r.offset, "unexpected end of stream reading %d bytes", n)
	}
	b := r.data[r.offset : r.offset+n]
	r.offset += n
	return b, nil
}

// readPkgLength decodes an ACPI PkgLength field: the top two bits of the lead
// byte select how many follow-on bytes extend it (0-3), and the low six bits
// of the lead byte are either the whole length (zero follow-ons) or the
// lowest 4 bits of the length, with follow-on bytes supplying higher bits
// most-significant-byte-last. Returns the decoded package length (which
// includes the bytes used to encode the PkgLength itself, per ACPI sec.
// 20.2.4) and the stream offset at which the package ends.
func (r *byteReader) readPkgLength() (length uint32, pkgEnd uint32, err *Error) {
	start := r.offset
	length, err = r.readPkgValue()
	if err != nil {
		return 0, 0, err
	}
	pkgEnd = start + length
	if pkgEnd < r.offset || pkgEnd > uint32(len(r.data)) {
		return 0, 0, newParseError(start, "package length %d overruns stream", length)
	}
	return length, pkgEnd, nil
}

// readPkgValue decodes the PkgLength varint encoding without treating the
// result as a span of the stream. Field-list elements reuse the encoding for
// plain bit counts (ACPI sec. 20.2.4), which must not be bounds-checked
// against the remaining input.
func (r *byteReader) readPkgValue() (uint32, *Error) {
	lead, err := r.readByte()
	if err != nil {
		return 0, err
	}
	followCount := lead >> 6
	if followCount == 0 {
		return uint32(lead & 0x3f), nil
	}
	length := uint32(lead & 0x0f)
	shift := uint(4)
	for i := byte(0); i < followCount; i++ {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		length |= uint32(b) << shift
		shift += 8
	}
	return length, nil
}

// readNumConstant reads a little-endian integer constant of the given byte
// width (1, 2, 4 or 8), as used for ByteData/WordData/DWordData/QWordData.
func (r *byteReader) readNumConstant(width int) (uint64, *Error) {
	b, err := r.readBytes(uint32(width))
	if err != nil {
		return 0, err
	}
	var v uint64
	for i := width - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v, nil
}
