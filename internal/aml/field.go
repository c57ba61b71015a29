package aml

import (
	"context"

	"github.com/amlgo/aml/internal/aml/host"
)

// accessWidthBits returns the bit width a FieldAccessType implies, choosing
// a sensible default for AccessAny based on the field's own bit width, per
// ACPI sec. 19.6.50's "automatic" access-width selection.
func accessWidthBits(t FieldAccessType, fieldBitWidth uint64) uint64 {
	switch t {
	case AccessByte:
		return 8
	case AccessWord:
		return 16
	case AccessDword:
		return 32
	case AccessQword:
		return 64
	case AccessBuffer:
		return 8
	default: // AccessAny: smallest access width that covers the field in one go
		switch {
		case fieldBitWidth <= 8:
			return 8
		case fieldBitWidth <= 16:
			return 16
		case fieldBitWidth <= 32:
			return 32
		default:
			return 64
		}
	}
}

// readRegion reads a naturally-aligned access-width-sized unit at the given
// byte offset from an OpRegion's backing address space.
func readRegion(ctx context.Context, h host.Interface, r *OpRegion, byteOffset uint64, widthBits uint64) (uint64, *Error) {
	addr := r.Offset + byteOffset
	switch r.Space {
	case RegionSystemMemory:
		return readMemWidth(h, addr, widthBits)
	case RegionSystemIO:
		return readIOWidth(h, uint16(addr), widthBits)
	case RegionPCIConfig:
		if !r.pciResolved {
			return 0, newFieldError("PCIConfig region %s accessed before its config-space address was resolved", r.Name())
		}
		return readPCIWidth(h, r.pciSeg, r.pciBus, r.pciDev, r.pciFn, uint16(addr), widthBits)
	default:
		return 0, newUnsupportedError("region space %s is not implemented by this host binding", r.Space)
	}
}

func writeRegion(ctx context.Context, h host.Interface, r *OpRegion, byteOffset uint64, widthBits uint64, v uint64) *Error {
	addr := r.Offset + byteOffset
	switch r.Space {
	case RegionSystemMemory:
		return writeMemWidth(h, addr, widthBits, v)
	case RegionSystemIO:
		return writeIOWidth(h, uint16(addr), widthBits, v)
	case RegionPCIConfig:
		if !r.pciResolved {
			return newFieldError("PCIConfig region %s accessed before its config-space address was resolved", r.Name())
		}
		return writePCIWidth(h, r.pciSeg, r.pciBus, r.pciDev, r.pciFn, uint16(addr), widthBits, v)
	default:
		return newUnsupportedError("region space %s is not implemented by this host binding", r.Space)
	}
}

func readMemWidth(h host.Interface, addr, widthBits uint64) (uint64, *Error) {
	switch widthBits {
	case 8:
		v, err := h.ReadU8(addr)
		return uint64(v), hostErr(err)
	case 16:
		v, err := h.ReadU16(addr)
		return uint64(v), hostErr(err)
	case 32:
		v, err := h.ReadU32(addr)
		return uint64(v), hostErr(err)
	default:
		v, err := h.ReadU64(addr)
		return v, hostErr(err)
	}
}

func writeMemWidth(h host.Interface, addr, widthBits, v uint64) *Error {
	switch widthBits {
	case 8:
		return hostErr(h.WriteU8(addr, uint8(v)))
	case 16:
		return hostErr(h.WriteU16(addr, uint16(v)))
	case 32:
		return hostErr(h.WriteU32(addr, uint32(v)))
	default:
		return hostErr(h.WriteU64(addr, v))
	}
}

func readIOWidth(h host.Interface, port uint16, widthBits uint64) (uint64, *Error) {
	switch widthBits {
	case 8:
		v, err := h.ReadIOU8(port)
		return uint64(v), hostErr(err)
	case 16:
		v, err := h.ReadIOU16(port)
		return uint64(v), hostErr(err)
	default:
		v, err := h.ReadIOU32(port)
		return uint64(v), hostErr(err)
	}
}

func writeIOWidth(h host.Interface, port uint16, widthBits, v uint64) *Error {
	switch widthBits {
	case 8:
		return hostErr(h.WriteIOU8(port, uint8(v)))
	case 16:
		return hostErr(h.WriteIOU16(port, uint16(v)))
	default:
		return hostErr(h.WriteIOU32(port, uint32(v)))
	}
}

func readPCIWidth(h host.Interface, seg, bus, dev, fn uint8, offset uint16, widthBits uint64) (uint64, *Error) {
	switch widthBits {
	case 8:
		v, err := h.ReadPCIU8(seg, bus, dev, fn, offset)
		return uint64(v), hostErr(err)
	case 16:
		v, err := h.ReadPCIU16(seg, bus, dev, fn, offset)
		return uint64(v), hostErr(err)
	default:
		v, err := h.ReadPCIU32(seg, bus, dev, fn, offset)
		return uint64(v), hostErr(err)
	}
}

func writePCIWidth(h host.Interface, seg, bus, dev, fn uint8, offset uint16, widthBits, v uint64) *Error {
	switch widthBits {
	case 8:
		return hostErr(h.WritePCIU8(seg, bus, dev, fn, offset, uint8(v)))
	case 16:
		return hostErr(h.WritePCIU16(seg, bus, dev, fn, offset, uint16(v)))
	default:
		return hostErr(h.WritePCIU32(seg, bus, dev, fn, offset, uint32(v)))
	}
}

func hostErr(err error) *Error {
	if err == nil {
		return nil
	}
	return newHostError("%v", err)
}

// readFieldUnit performs a full field read: selects the access width,
// derives the aligned unit(s) of the backing region that overlap
// [BitOffset, BitOffset+BitWidth), reads each, and assembles the field's
// own value by shifting and masking. Grounded on ACPI sec. 19.6.50's access
// rules; the teacher's entity.go defines the field entity shapes but (per
// DESIGN.md) never implemented a read/write engine over them.
func readFieldUnit(ctx context.Context, h host.Interface, f *FieldUnit) (uint64, *Error) {
	return readBits(ctx, h, f.Region, f.BitOffset, f.BitWidth, f.AccessType)
}

func readBits(ctx context.Context, h host.Interface, r *OpRegion, bitOffset, bitWidth uint64, accessType FieldAccessType) (uint64, *Error) {
	widthBits := accessWidthBits(accessType, bitWidth)
	unitIndex := bitOffset / widthBits
	bitInUnit := bitOffset % widthBits
	if bitInUnit+bitWidth > widthBits {
		return 0, newFieldError("field spans multiple access-width units; unsupported unaligned multi-unit read")
	}
	raw, err := readRegion(ctx, h, r, unitIndex*(widthBits/8), widthBits)
	if err != nil {
		return 0, err
	}
	mask := uint64(1)<<bitWidth - 1
	if bitWidth == 64 {
		mask = ^uint64(0)
	}
	return (raw >> bitInUnit) & mask, nil
}

// writeFieldUnit performs a read-modify-write respecting the field's update
// rule for the bits outside [BitOffset, BitOffset+BitWidth) within the
// access-width unit touched, per ACPI sec. 19.6.50.
func writeFieldUnit(ctx context.Context, h host.Interface, f *FieldUnit, v uint64) *Error {
	return writeBits(ctx, h, f.Region, f.BitOffset, f.BitWidth, f.AccessType, f.UpdateRule, v)
}

func writeBits(ctx context.Context, h host.Interface, r *OpRegion, bitOffset, bitWidth uint64, accessType FieldAccessType, updateRule FieldUpdateRule, v uint64) *Error {
	widthBits := accessWidthBits(accessType, bitWidth)
	unitIndex := bitOffset / widthBits
	bitInUnit := bitOffset % widthBits
	if bitInUnit+bitWidth > widthBits {
		return newFieldError("field spans multiple access-width units; unsupported unaligned multi-unit write")
	}
	mask := uint64(1)<<bitWidth - 1
	if bitWidth == 64 {
		mask = ^uint64(0)
	}
	shiftedMask := mask << bitInUnit
	shiftedVal := (v & mask) << bitInUnit

	if bitInUnit == 0 && bitWidth == widthBits {
		// Whole-unit write: no surrounding bits to preserve.
		return writeRegion(ctx, h, r, unitIndex*(widthBits/8), widthBits, shiftedVal)
	}

	var base uint64
	switch updateRule {
	case UpdateWriteAsOnes:
		base = ^uint64(0)
	case UpdateWriteAsZeros:
		base = 0
	default: // UpdatePreserve
		existing, err := readRegion(ctx, h, r, unitIndex*(widthBits/8), widthBits)
		if err != nil {
			return err
		}
		base = existing
	}
	newVal := (base &^ shiftedMask) | shiftedVal
	return writeRegion(ctx, h, r, unitIndex*(widthBits/8), widthBits, newVal)
}

// indexedAccessBits returns the total transfer size of one indexed-field
// access: the larger of the access type's minimum width and the spanned bits
// rounded up to the next power of two.
func indexedAccessBits(t FieldAccessType, spanBits uint64) uint64 {
	min := uint64(8)
	switch t {
	case AccessWord:
		min = 16
	case AccessDword:
		min = 32
	case AccessQword:
		min = 64
	}
	n := uint64(1)
	for n < spanBits {
		n <<= 1
	}
	if n < min {
		n = min
	}
	return n
}

// readIndexChunks accumulates accessBytes little-endian bytes through the
// index/data register pair: each iteration writes the byte's offset into the
// index register, then reads one byte from the data register.
func readIndexChunks(ctx context.Context, h host.Interface, f *IndexField, base, accessBytes uint64) (uint64, *Error) {
	var acc uint64
	for i := uint64(0); i < accessBytes; i++ {
		if err := writeFieldUnit(ctx, h, f.IndexReg, base+i); err != nil {
			return 0, err
		}
		b, err := readFieldUnit(ctx, h, f.DataReg)
		if err != nil {
			return 0, err
		}
		acc |= (b & 0xff) << (i * 8)
	}
	return acc, nil
}

// readIndexField implements the indexed-field protocol of ACPI sec. 19.6.63:
// accumulate access-size bytes through the index/data register pair, then
// mask the field's bits out of the little-endian result.
func readIndexField(ctx context.Context, h host.Interface, f *IndexField) (uint64, *Error) {
	shift := f.BitOffset % 8
	if shift+f.BitWidth > 64 {
		return 0, newFieldError("indexed field spans more than 64 bits; unsupported")
	}
	acc, err := readIndexChunks(ctx, h, f, f.BitOffset/8, indexedAccessBits(f.AccessType, shift+f.BitWidth)/8)
	if err != nil {
		return 0, err
	}
	mask := uint64(1)<<f.BitWidth - 1
	if f.BitWidth == 64 {
		mask = ^uint64(0)
	}
	return (acc >> shift) & mask, nil
}

// writeIndexField splits the value across access-size byte stores, writing
// the index register before each data-register store. Preserve first reads
// the covering bytes back so the bits around the field survive.
func writeIndexField(ctx context.Context, h host.Interface, f *IndexField, v uint64) *Error {
	shift := f.BitOffset % 8
	if shift+f.BitWidth > 64 {
		return newFieldError("indexed field spans more than 64 bits; unsupported")
	}
	base := f.BitOffset / 8
	accessBytes := indexedAccessBits(f.AccessType, shift+f.BitWidth) / 8
	mask := uint64(1)<<f.BitWidth - 1
	if f.BitWidth == 64 {
		mask = ^uint64(0)
	}

	var acc uint64
	switch f.UpdateRule {
	case UpdateWriteAsOnes:
		acc = ^uint64(0)
	case UpdateWriteAsZeros:
		acc = 0
	default: // UpdatePreserve
		if shift != 0 || f.BitWidth < accessBytes*8 {
			cur, err := readIndexChunks(ctx, h, f, base, accessBytes)
			if err != nil {
				return err
			}
			acc = cur
		}
	}
	acc = (acc &^ (mask << shift)) | ((v & mask) << shift)

	for i := uint64(0); i < accessBytes; i++ {
		if err := writeFieldUnit(ctx, h, f.IndexReg, base+i); err != nil {
			return err
		}
		if err := writeFieldUnit(ctx, h, f.DataReg, (acc>>(i*8))&0xff); err != nil {
			return err
		}
	}
	return nil
}

// readBankField selects the bank by writing BankValue into the bank
// register, then reads through the shared region exactly like a FieldUnit,
// per ACPI sec. 19.6.12.
func readBankField(ctx context.Context, h host.Interface, f *BankField) (uint64, *Error) {
	if err := writeFieldUnit(ctx, h, f.Bank, f.BankValue); err != nil {
		return 0, err
	}
	return readBits(ctx, h, f.Region, f.BitOffset, f.BitWidth, f.AccessType)
}

func writeBankField(ctx context.Context, h host.Interface, f *BankField, v uint64) *Error {
	if err := writeFieldUnit(ctx, h, f.Bank, f.BankValue); err != nil {
		return err
	}
	return writeBits(ctx, h, f.Region, f.BitOffset, f.BitWidth, f.AccessType, f.UpdateRule, v)
}
