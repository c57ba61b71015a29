package aml

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMethodImplicitReturn(t *testing.T) {
	// Method(M000, 0) { Store(0x99, Local0) } returns Integer 0.
	data := method("M000", 0, by(0x70), byteConst(0x99), by(0x60))
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0), invokeInt(t, c, "\\M000"))
}

func TestMethodExplicitReturn(t *testing.T) {
	// Method(M001, 1) { Return(Add(Arg0, 1)) }
	data := method("M001", 1, by(0xa4, 0x72, 0x68, 0x01, 0x00))
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(42), invokeInt(t, c, "\\M001", uint64(41)))
}

func TestInvokeNonMethodReturnsValue(t *testing.T) {
	data := nameOp("VAL1", byteConst(0x55))
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0x55), invokeInt(t, c, "\\VAL1"))
}

func TestIfElse(t *testing.T) {
	// Method(MIF0, 1) { If (LEqual(Arg0, 1)) { Return(0x11) } Else { Return(0x22) } }
	data := method("MIF0", 1,
		by(0xa0), pkg(by(0x93, 0x68, 0x01), by(0xa4), byteConst(0x11)),
		by(0xa1), pkg(by(0xa4), byteConst(0x22)),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0x11), invokeInt(t, c, "\\MIF0", uint64(1)))
	assert.Equal(t, uint64(0x22), invokeInt(t, c, "\\MIF0", uint64(7)))
}

func TestWhileLoopSum(t *testing.T) {
	// Method(MSUM, 1) {
	//   Store(Zero, Local0)
	//   Store(Zero, Local1)
	//   While (LLess(Local1, Arg0)) {
	//     Add(Local0, Local1, Local0)
	//     Increment(Local1)
	//   }
	//   Return(Local0)
	// }
	data := method("MSUM", 1,
		by(0x70, 0x00, 0x60),
		by(0x70, 0x00, 0x61),
		by(0xa2), pkg(
			by(0x95, 0x61, 0x68),
			by(0x72, 0x60, 0x61, 0x60),
			by(0x75, 0x61),
		),
		by(0xa4, 0x60),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(10), invokeInt(t, c, "\\MSUM", uint64(5)))
	assert.Equal(t, uint64(0), invokeInt(t, c, "\\MSUM", uint64(0)))
}

func TestBreakTerminatesLoop(t *testing.T) {
	// Method(MBRK, 0) {
	//   Store(Zero, Local0)
	//   While (One) { Increment(Local0) Break }
	//   Return(Local0)
	// }
	data := method("MBRK", 0,
		by(0x70, 0x00, 0x60),
		by(0xa2), pkg(by(0x01), by(0x75, 0x60), by(0xa5)),
		by(0xa4, 0x60),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(1), invokeInt(t, c, "\\MBRK"))
}

func TestContinueSkipsRestOfIteration(t *testing.T) {
	// Method(MCNT, 0) {
	//   Store(Zero, Local0)
	//   Store(Zero, Local1)
	//   While (LLess(Local1, 5)) {
	//     Increment(Local1)
	//     If (LEqual(Local1, 3)) { Continue }
	//     Increment(Local0)
	//   }
	//   Return(Local0)
	// }
	data := method("MCNT", 0,
		by(0x70, 0x00, 0x60),
		by(0x70, 0x00, 0x61),
		by(0xa2), pkg(
			cat(by(0x95, 0x61), byteConst(5)),
			by(0x75, 0x61),
			by(0xa0), pkg(cat(by(0x93, 0x61), byteConst(3)), by(0x9f)),
			by(0x75, 0x60),
		),
		by(0xa4, 0x60),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(4), invokeInt(t, c, "\\MCNT"))
}

func TestBreakOutsideLoopErrors(t *testing.T) {
	data := method("MBAD", 0, by(0xa5))
	c, _ := parseTestTable(t, data)
	_, err := c.InvokeMethod(context.Background(), "\\MBAD")
	require.NotNil(t, err)
	assert.Equal(t, ErrKindMethod, err.Kind)
	assert.Contains(t, err.Message, "Break")
}

func TestMethodInvocationWithArgs(t *testing.T) {
	// Method(MADD, 2) { Return(Add(Arg0, Arg1)) }
	// Method(MCAL, 0) { Return(MADD(2, 3)) }
	data := cat(
		method("MADD", 2, by(0xa4, 0x72, 0x68, 0x69, 0x00)),
		method("MCAL", 0, cat(by(0xa4), seg("MADD"), byteConst(2), byteConst(3))),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(5), invokeInt(t, c, "\\MCAL"))
}

func TestRecursionLimit(t *testing.T) {
	// Method(MREC, 0) { Return(MREC()) }
	data := method("MREC", 0, cat(by(0xa4), seg("MREC")))
	c, _ := parseTestTable(t, data)
	_, err := c.InvokeMethod(context.Background(), "\\MREC")
	require.NotNil(t, err)
	assert.Equal(t, ErrKindMethod, err.Kind)
	assert.Contains(t, err.Message, "recursion")

	// The interpreter is still usable after the error unwinds.
	data2 := method("MOK0", 0, cat(by(0xa4), byteConst(7)))
	require.Nil(t, c.ParseTable(data2, 2))
	assert.Equal(t, uint64(7), invokeInt(t, c, "\\MOK0"))
}

func TestALUOpcodes(t *testing.T) {
	specs := []struct {
		descr string
		body  []byte
		want  uint64
	}{
		{"Subtract", cat(by(0xa4, 0x74), byteConst(9), byteConst(3), by(0x00)), 6},
		{"Multiply", cat(by(0xa4, 0x77), byteConst(6), byteConst(7), by(0x00)), 42},
		{"Divide", cat(by(0xa4, 0x78), byteConst(17), byteConst(5), by(0x00, 0x00)), 3},
		{"Mod", cat(by(0xa4, 0x85), byteConst(17), byteConst(5), by(0x00)), 2},
		{"ShiftLeft", cat(by(0xa4, 0x79), byteConst(1), byteConst(4), by(0x00)), 16},
		{"ShiftRight", cat(by(0xa4, 0x7a), byteConst(0x80), byteConst(3), by(0x00)), 0x10},
		{"And", cat(by(0xa4, 0x7b), byteConst(0xf0), byteConst(0x3c), by(0x00)), 0x30},
		{"Or", cat(by(0xa4, 0x7d), byteConst(0xf0), byteConst(0x0f), by(0x00)), 0xff},
		{"Xor", cat(by(0xa4, 0x7f), byteConst(0xff), byteConst(0x0f), by(0x00)), 0xf0},
		{"Nand", cat(by(0xa4, 0x7c), byteConst(0xff), byteConst(0xff), by(0x00)), ^uint64(0xff)},
		{"Not", cat(by(0xa4, 0x80), byteConst(0x00), by(0x00)), ^uint64(0)},
		{"FindSetLeftBit", cat(by(0xa4, 0x81), byteConst(0x40), by(0x00)), 7},
		{"FindSetRightBit", cat(by(0xa4, 0x82), byteConst(0x28), by(0x00)), 4},
	}
	for _, spec := range specs {
		t.Run(spec.descr, func(t *testing.T) {
			data := method("MALU", 0, spec.body)
			c, _ := parseTestTable(t, data)
			assert.Equal(t, spec.want, invokeInt(t, c, "\\MALU"))
		})
	}
}

func TestDivideByZero(t *testing.T) {
	data := method("MDV0", 0, cat(by(0xa4, 0x78), byteConst(1), byteConst(0), by(0x00, 0x00)))
	c, _ := parseTestTable(t, data)
	_, err := c.InvokeMethod(context.Background(), "\\MDV0")
	require.NotNil(t, err)
	assert.Equal(t, ErrKindArith, err.Kind)
}

func TestDivideStoresRemainder(t *testing.T) {
	// Method(MDIV, 0) { Divide(17, 5, Local0, Local1) Return(Local0) }
	data := method("MDIV", 0,
		cat(by(0x78), byteConst(17), byteConst(5), by(0x60, 0x61)),
		by(0xa4, 0x60),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(2), invokeInt(t, c, "\\MDIV"))
}

func TestLogicalOpcodes(t *testing.T) {
	// Method(MLGC, 2) { Return(LAnd(LGreater(Arg0, 2), LNot(LEqual(Arg1, 0)))) }
	data := method("MLGC", 2,
		by(0xa4, 0x90, 0x94, 0x68), append(byteConst(2), by(0x92, 0x93, 0x69, 0x00)...),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(1), invokeInt(t, c, "\\MLGC", uint64(5), uint64(3)))
	assert.Equal(t, uint64(0), invokeInt(t, c, "\\MLGC", uint64(1), uint64(3)))
	assert.Equal(t, uint64(0), invokeInt(t, c, "\\MLGC", uint64(5), uint64(0)))
}

func TestStringComparison(t *testing.T) {
	// Method(MSTR, 1) { Return(LEqual(Arg0, "ACPI")) }
	data := method("MSTR", 1, cat(by(0xa4, 0x93, 0x68), strConst("ACPI")))
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(1), invokeInt(t, c, "\\MSTR", "ACPI"))
	assert.Equal(t, uint64(0), invokeInt(t, c, "\\MSTR", "UEFI"))
}

func TestDerefOfIndexIntoBuffer(t *testing.T) {
	// Name(BUFC, Buffer(4){...}) Method(MIX0, 1) { Return(DerefOf(Index(BUFC, Arg0))) }
	data := cat(
		nameOp("BUFC", cat(by(0x11), pkg(byteConst(4), by(0x10, 0x20, 0x30, 0x40)))),
		method("MIX0", 1, cat(by(0xa4, 0x83, 0x88), seg("BUFC"), by(0x68, 0x00))),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0x30), invokeInt(t, c, "\\MIX0", uint64(2)))
}

func TestDerefOfIndexIntoPackage(t *testing.T) {
	data := cat(
		nameOp("PKGB", cat(by(0x12), pkg(by(2), byteConst(0x0b), byteConst(0x16)))),
		method("MIX1", 1, cat(by(0xa4, 0x83, 0x88), seg("PKGB"), by(0x68, 0x00))),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0x0b), invokeInt(t, c, "\\MIX1", uint64(0)))
	assert.Equal(t, uint64(0x16), invokeInt(t, c, "\\MIX1", uint64(1)))
}

func TestIndexOutOfBounds(t *testing.T) {
	data := cat(
		nameOp("BUFD", cat(by(0x11), pkg(byteConst(2), by(1, 2)))),
		method("MIX2", 1, cat(by(0xa4, 0x88), seg("BUFD"), by(0x68, 0x00))),
	)
	c, _ := parseTestTable(t, data)
	_, err := c.InvokeMethod(context.Background(), "\\MIX2", uint64(5))
	require.NotNil(t, err)
	assert.Equal(t, ErrKindField, err.Kind)
}

func TestSizeOf(t *testing.T) {
	data := cat(
		nameOp("BUFE", cat(by(0x11), pkg(byteConst(3), by(1, 2, 3)))),
		nameOp("STRE", strConst("hello")),
		nameOp("PKGE", cat(by(0x12), pkg(by(2), byteConst(1), byteConst(2)))),
		method("MSZ0", 0, cat(by(0xa4, 0x87), seg("BUFE"))),
		method("MSZ1", 0, cat(by(0xa4, 0x87), seg("STRE"))),
		method("MSZ2", 0, cat(by(0xa4, 0x87), seg("PKGE"))),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(3), invokeInt(t, c, "\\MSZ0"))
	assert.Equal(t, uint64(5), invokeInt(t, c, "\\MSZ1"))
	assert.Equal(t, uint64(2), invokeInt(t, c, "\\MSZ2"))
}

func TestObjectType(t *testing.T) {
	data := cat(
		nameOp("INTF", byteConst(1)),
		nameOp("STRF", strConst("x")),
		method("MOT0", 0, cat(by(0xa4, 0x8e), seg("INTF"))),
		method("MOT1", 0, cat(by(0xa4, 0x8e), seg("STRF"))),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(1), invokeInt(t, c, "\\MOT0"))
	assert.Equal(t, uint64(2), invokeInt(t, c, "\\MOT1"))
}

func TestCondRefOf(t *testing.T) {
	// Method(MCR0, 0) { If (CondRefOf(EXIS, Local0)) { Return(1) } Return(0) }
	data := cat(
		nameOp("EXIS", byteConst(9)),
		method("MCR0", 0,
			by(0xa0), pkg(cat(by(0x5b, 0x12), seg("EXIS"), by(0x60)), by(0xa4, 0x01)),
			by(0xa4, 0x00),
		),
		method("MCR1", 0,
			by(0xa0), pkg(cat(by(0x5b, 0x12), seg("GONE"), by(0x60)), by(0xa4, 0x01)),
			by(0xa4, 0x00),
		),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(1), invokeInt(t, c, "\\MCR0"))
	assert.Equal(t, uint64(0), invokeInt(t, c, "\\MCR1"))
}

func TestConcatStrings(t *testing.T) {
	// Method(MCAT, 0) { Return(Concatenate("AB", "CD")) }
	data := method("MCAT", 0, cat(by(0xa4, 0x73), strConst("AB"), strConst("CD"), by(0x00)))
	c, _ := parseTestTable(t, data)
	v, err := c.InvokeMethod(context.Background(), "\\MCAT")
	require.Nil(t, err)
	assert.Equal(t, "ABCD", v.(*String).Val)
}

func TestMid(t *testing.T) {
	// Method(MMID, 0) { Return(Mid("firmware", 4, 4)) }
	data := method("MMID", 0, cat(by(0x9e), strConst("firmware"), byteConst(4), byteConst(4), by(0x60), by(0xa4, 0x60)))
	c, _ := parseTestTable(t, data)
	v, err := c.InvokeMethod(context.Background(), "\\MMID")
	require.Nil(t, err)
	assert.Equal(t, "ware", v.(*String).Val)
}

func TestToIntegerOpcode(t *testing.T) {
	data := method("MTI0", 0, cat(by(0xa4, 0x99), strConst("0x2A"), by(0x00)))
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0x2a), invokeInt(t, c, "\\MTI0"))
}

func TestToBufferStoresResult(t *testing.T) {
	// Method(MTB0, 0) { ToBuffer(0x0102, Local0) Return(SizeOf(Local0)) }
	data := method("MTB0", 0,
		cat(by(0x96), by(0x0b, 0x02, 0x01), by(0x60)),
		by(0xa4, 0x87, 0x60),
	)
	c, _ := parseTestTable(t, data)
	// A 64-bit integer renders as an 8-byte little-endian buffer.
	v, err := c.InvokeMethod(context.Background(), "\\MTB0")
	require.Nil(t, err)
	n, cerr := toInteger(v, 64)
	require.Nil(t, cerr)
	assert.Equal(t, uint64(8), n)
}

func TestMatchPackage(t *testing.T) {
	// Method(MMAT, 1) { Return(Match(PKGM, MEQ, Arg0, MTR, 0, 0)) }
	data := cat(
		nameOp("PKGM", cat(by(0x12), pkg(by(3), byteConst(5), byteConst(10), byteConst(15)))),
		method("MMAT", 1, cat(by(0xa4, 0x89), seg("PKGM"), by(0x01), by(0x68), by(0x00), byteConst(0), byteConst(0))),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(1), invokeInt(t, c, "\\MMAT", uint64(10)))
	assert.Equal(t, ^uint64(0), invokeInt(t, c, "\\MMAT", uint64(11)))
}

func TestMutexAcquireRelease(t *testing.T) {
	data := cat(
		by(0x5b, 0x01), seg("MTX1"), by(0x00),
		method("MMX0", 0,
			cat(by(0x5b, 0x23), seg("MTX1"), by(0xff, 0xff)),
			cat(by(0x5b, 0x27), seg("MTX1")),
			by(0xa4, 0x01),
		),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(1), invokeInt(t, c, "\\MMX0"))
}

func TestEventSignalWait(t *testing.T) {
	// Signal then Wait consumes the pending signal (returns 0); a second
	// Wait reports timeout (Ones) immediately.
	data := cat(
		by(0x5b, 0x02), seg("EVT1"),
		method("MEV0", 0,
			cat(by(0x5b, 0x24), seg("EVT1")),
			cat(by(0xa4, 0x5b, 0x25), seg("EVT1"), byteConst(10)),
		),
		method("MEV1", 0,
			cat(by(0xa4, 0x5b, 0x25), seg("EVT1"), byteConst(10)),
		),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0), invokeInt(t, c, "\\MEV0"))
	assert.Equal(t, ^uint64(0), invokeInt(t, c, "\\MEV1"))
}

func TestFatalOpcode(t *testing.T) {
	// Method(MFAT, 0) { Fatal(1, 0xDEAD, 0x2A) }
	data := method("MFAT", 0, cat(by(0x5b, 0x32), by(0x01), by(0xad, 0xde, 0x00, 0x00), byteConst(0x2a)))
	c, h := parseTestTable(t, data)
	_, err := c.InvokeMethod(context.Background(), "\\MFAT")
	require.NotNil(t, err)
	assert.Equal(t, ErrKindFatal, err.Kind)
	require.Len(t, h.Fatal, 1)
	assert.Equal(t, uint8(1), h.Fatal[0].Type)
	assert.Equal(t, uint32(0xdead), h.Fatal[0].Code)
	assert.Equal(t, uint64(0x2a), h.Fatal[0].Arg)
}

func TestStoreToNamedObject(t *testing.T) {
	// Method(MST0, 0) { Store(0x77, GVAR) Return(GVAR) }
	data := cat(
		nameOp("GVAR", byteConst(0)),
		method("MST0", 0,
			cat(by(0x70), byteConst(0x77), seg("GVAR")),
			cat(by(0xa4), seg("GVAR")),
		),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0x77), invokeInt(t, c, "\\MST0"))
	// The store is visible outside the invocation too.
	assert.Equal(t, uint64(0x77), invokeInt(t, c, "\\GVAR"))
}

func TestStoreToBufferFieldViaIndex(t *testing.T) {
	// Method(MST1, 0) { Store(0xAA, Index(BUFS, 1)) Return(DerefOf(Index(BUFS, 1))) }
	data := cat(
		nameOp("BUFS", cat(by(0x11), pkg(byteConst(3), by(0, 0, 0)))),
		method("MST1", 0,
			cat(by(0x70), byteConst(0xaa), by(0x88), seg("BUFS"), byteConst(1), by(0x00)),
			cat(by(0xa4, 0x83, 0x88), seg("BUFS"), byteConst(1), by(0x00)),
		),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0xaa), invokeInt(t, c, "\\MST1"))
}

func TestNestedMethodSeesCallerSideEffects(t *testing.T) {
	// MOUT stores to GSH0 then calls MINR, which reads it back.
	data := cat(
		nameOp("GSH0", byteConst(0)),
		method("MINR", 0, cat(by(0xa4), seg("GSH0"))),
		method("MOUT", 0,
			cat(by(0x70), byteConst(0x5c), seg("GSH0")),
			cat(by(0xa4), seg("MINR")),
		),
	)
	c, _ := parseTestTable(t, data)
	assert.Equal(t, uint64(0x5c), invokeInt(t, c, "\\MOUT"))
}
