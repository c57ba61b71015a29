package aml

import (
	"fmt"
	"strconv"
	"strings"
)

// kindOf reports the runtime Kind of any value flowing through the
// evaluator: a namespace Entity, a Local/Arg slot's contents (which may be a
// bare Go value rather than an Entity if it was never stored), or a literal.
// Grounded on the teacher's vm_convert.go vmTypeOf, extended to cover this
// package's richer Entity set.
func kindOf(v interface{}) Kind {
	switch t := v.(type) {
	case Entity:
		return t.Kind()
	case uint64:
		return KindInteger
	case bool:
		return KindBoolean
	case string:
		return KindString
	case []byte:
		return KindBuffer
	case nil:
		return KindUninitialized
	default:
		return KindUninitialized
	}
}

// toInteger implements the Integer conversion rules of ACPI sec. 19.3.5.8:
// Integer passes through; String is parsed as hex if prefixed with "0x",
// otherwise as decimal, stopping at the first non-digit (objects like _STA
// may implicitly convert this way); Buffer is read little-endian up to the
// interpreter's current integer width. vmConvert itself is absent from the
// retrieved teacher snapshot (referenced from vm.go's checkEntities but
// never defined); this is authored fresh against the ACPI conversion table,
// cross-checked against original_source/aml/src/lib.rs's AmlValue::as_integer.
func toInteger(v interface{}, width int) (uint64, *Error) {
	switch t := v.(type) {
	case uint64:
		return maskWidth(t, width), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case *Integer:
		return maskWidth(t.Val, width), nil
	case *Boolean:
		if t.Val {
			return 1, nil
		}
		return 0, nil
	case string:
		return stringToInteger(t)
	case *String:
		return stringToInteger(t.Val)
	case []byte:
		return bufferToInteger(t, width), nil
	case *Buffer:
		return bufferToInteger(t.Data, width), nil
	default:
		return 0, newTypeError("cannot convert %T to Integer", v)
	}
}

func stringToInteger(s string) (uint64, *Error) {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		n, err := strconv.ParseUint(trimmed[2:], 16, 64)
		if err != nil {
			return 0, newTypeError("cannot convert %q to Integer: %v", s, err)
		}
		return n, nil
	}
	// Decimal, stopping at the first non-digit, per ACPI's "convert as much
	// of the string as looks like a valid number" rule.
	end := 0
	for end < len(trimmed) && trimmed[end] >= '0' && trimmed[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, newTypeError("cannot convert %q to Integer", s)
	}
	n, err := strconv.ParseUint(trimmed[:end], 10, 64)
	if err != nil {
		return 0, newTypeError("cannot convert %q to Integer: %v", s, err)
	}
	return n, nil
}

func bufferToInteger(b []byte, width int) uint64 {
	n := width / 8
	if n > len(b) {
		n = len(b)
	}
	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func maskWidth(v uint64, width int) uint64 {
	if width == 32 {
		return v & 0xffffffff
	}
	return v
}

// toAmlString implements the String conversion rules: Integer renders as
// "0x"-prefixed upper-case hex without zero padding (ACPI sec. 19.6.136's
// ToHexString shape, applied implicitly here to match what firmware
// actually expects from an implicit conversion), Buffer renders as
// comma-separated "0x"-prefixed hex bytes ("0x0A, 0xFF").
func toAmlString(v interface{}, width int) (string, *Error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case *String:
		return t.Val, nil
	case uint64:
		return fmt.Sprintf("0x%X", maskWidth(t, width)), nil
	case *Integer:
		return fmt.Sprintf("0x%X", maskWidth(t.Val, width)), nil
	case []byte:
		return bufferToHexString(t), nil
	case *Buffer:
		return bufferToHexString(t.Data), nil
	default:
		return "", newTypeError("cannot convert %T to String", v)
	}
}

func bufferToHexString(b []byte) string {
	parts := make([]string, len(b))
	for i, by := range b {
		parts[i] = fmt.Sprintf("0x%02X", by)
	}
	return strings.Join(parts, ", ")
}

// toBuffer implements the Buffer conversion rules: Buffer passes through,
// Integer renders little-endian at the interpreter's integer width, String
// renders as its bytes plus a trailing NUL.
func toBuffer(v interface{}, width int) ([]byte, *Error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case *Buffer:
		return t.Data, nil
	case uint64:
		return integerToBuffer(t, width), nil
	case *Integer:
		return integerToBuffer(t.Val, width), nil
	case string:
		return append([]byte(t), 0), nil
	case *String:
		return append([]byte(t.Val), 0), nil
	default:
		return nil, newTypeError("cannot convert %T to Buffer", v)
	}
}

func integerToBuffer(v uint64, width int) []byte {
	n := width / 8
	b := make([]byte, n)
	for i := 0; i < n; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// toBCD and fromBCD implement the BCD conversion opcodes.
func toBCD(v uint64) (uint64, *Error) {
	var result uint64
	shift := uint(0)
	for v > 0 {
		digit := v % 10
		result |= digit << shift
		shift += 4
		v /= 10
	}
	return result, nil
}

func fromBCD(v uint64) (uint64, *Error) {
	var result uint64
	mul := uint64(1)
	for v > 0 {
		digit := v & 0xf
		if digit > 9 {
			return 0, newArithError("invalid BCD digit %d", digit)
		}
		result += digit * mul
		mul *= 10
		v >>= 4
	}
	return result, nil
}
