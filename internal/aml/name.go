package aml

import "strings"

const nameSegLen = 4

// AmlName is a parsed AML NameString: a root/parent prefix followed by zero
// or more four-character name segments, per ACPI sec. 20.2.2. It is kept as
// a structured value (rather than a bare string, as the teacher's Entity
// tree uses internally) so prefix counting, segment validation and
// normalization can be checked independent of any namespace state.
type AmlName struct {
	Absolute   bool // NameString began with '\'
	ParentUps  int  // number of leading '^' before the first segment
	Segments   []string
}

// ParseAmlName parses a textual path: root/caret prefixes followed by
// dot-separated segments ("\\_SB.PCI0._ADR"). Segments shorter than four
// characters are padded with trailing underscores, so callers may write
// "\\_SB.FOO" for what the byte stream encodes as "_SB_"/"FOO_".
func ParseAmlName(s string) AmlName {
	var n AmlName
	i := 0
	if i < len(s) && s[i] == '\\' {
		n.Absolute = true
		i++
	}
	for i < len(s) && s[i] == '^' {
		n.ParentUps++
		i++
	}
	for _, seg := range strings.Split(s[i:], ".") {
		if seg == "" {
			continue
		}
		if len(seg) > nameSegLen {
			seg = seg[:nameSegLen]
		}
		for len(seg) < nameSegLen {
			seg += "_"
		}
		n.Segments = append(n.Segments, seg)
	}
	return n
}

func (n AmlName) String() string {
	var b strings.Builder
	if n.Absolute {
		b.WriteByte('\\')
	}
	for i := 0; i < n.ParentUps; i++ {
		b.WriteByte('^')
	}
	b.WriteString(strings.Join(n.Segments, "."))
	return b.String()
}

func (n AmlName) IsNull() bool {
	return !n.Absolute && n.ParentUps == 0 && len(n.Segments) == 0
}

// readNameString parses the NameString grammar directly off the byte
// stream: NameString := RootChar NamePath | PrefixPath NamePath, PrefixPath
// := Nothing | '^' PrefixPath, NamePath := NameSeg | DualNamePath |
// MultiNamePath | NullName. Grounded on the teacher's parser.go
// parseNameString, adapted to build an AmlName instead of an index-tree
// lookup key.
func readNameString(r *byteReader) (AmlName, *Error) {
	var n AmlName
	b, ok := r.peekByte()
	if !ok {
		return n, newParseError(r.offset, "expected NameString, got EOF")
	}
	if b == '\\' {
		n.Absolute = true
		r.readByte()
	}
	for {
		b, ok = r.peekByte()
		if !ok || b != '^' {
			break
		}
		n.ParentUps++
		r.readByte()
	}
	b, err := r.readByte()
	if err != nil {
		return n, err
	}
	switch b {
	case 0x00: // NullName
		return n, nil
	case 0x2e: // DualNamePrefix
		for i := 0; i < 2; i++ {
			seg, err := readNameSeg(r)
			if err != nil {
				return n, err
			}
			n.Segments = append(n.Segments, seg)
		}
		return n, nil
	case 0x2f: // MultiNamePrefix
		count, err := r.readByte()
		if err != nil {
			return n, err
		}
		for i := byte(0); i < count; i++ {
			seg, err := readNameSeg(r)
			if err != nil {
				return n, err
			}
			n.Segments = append(n.Segments, seg)
		}
		return n, nil
	default:
		r.unreadByte()
		seg, err := readNameSeg(r)
		if err != nil {
			return n, err
		}
		n.Segments = append(n.Segments, seg)
		return n, nil
	}
}

func readNameSeg(r *byteReader) (string, *Error) {
	b, err := r.readBytes(nameSegLen)
	if err != nil {
		return "", err
	}
	for i, c := range b {
		validLead := (c >= 'A' && c <= 'Z') || c == '_'
		validTail := validLead || (c >= '0' && c <= '9')
		if i == 0 && !validLead {
			return "", newParseError(r.offset, "invalid leading name segment byte 0x%x", c)
		}
		if i > 0 && !validTail {
			return "", newParseError(r.offset, "invalid name segment byte 0x%x", c)
		}
	}
	return string(b), nil
}
