package aml

import "context"

// evalRef implements the reference/introspection opcodes of ACPI sec. 19.6:
// RefOf, CondRefOf, DerefOf, Index, SizeOf, ObjectType. Per spec.md sec. 1's
// explicit Non-goal ("No attempt to fully model Object References with
// automatic dereference on Arg stores"), references to Local/Arg slots are
// snapshots of the slot's value at RefOf time rather than live aliases --
// this module does not carry the heavier live-binding machinery a fuller
// implementation would need. Authored fresh: none of this family existed in
// the teacher's retrieved snapshot (see DESIGN.md).
func (c *Context) evalRef(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	switch n.Op {
	case opRefOf:
		target, err := c.refOfTarget(goCtx, ec, n.Args[0])
		if err != nil {
			return nil, err
		}
		return &ObjectReference{Target: target}, nil
	case opCondRefOf:
		target, err := c.refOfTarget(goCtx, ec, n.Args[0])
		if err != nil || target == nil {
			return NewBoolean("", false), nil
		}
		ref := &ObjectReference{Target: target}
		if len(n.Args) > 1 {
			if dst, ok := n.Args[1].(Entity); ok && dst != nil {
				if err := c.storeTo(goCtx, ec, dst, ref); err != nil {
					return nil, err
				}
			}
		}
		return NewBoolean("", true), nil
	case opDerefOf:
		srcEnt, _ := n.Args[0].(Entity)
		v, err := c.eval(goCtx, ec, srcEnt)
		if err != nil {
			return nil, err
		}
		switch t := v.(type) {
		case *ObjectReference:
			return c.eval(goCtx, ec, t.Target)
		case *BufferField:
			return c.readBufferField(t)
		default:
			return v, nil
		}
	case opIndex:
		return c.evalIndex(goCtx, ec, n)
	case opSizeOf:
		return c.evalSizeOf(goCtx, ec, n)
	case opObjectType:
		return c.evalObjectType(goCtx, ec, n)
	default:
		return nil, newUnsupportedError("ref opcode %v not implemented", n.Op)
	}
}

// refOfTarget resolves a SuperName operand to the raw Entity it names,
// without invoking it even if it is a Method (RefOf never calls a method;
// it only ever produces a handle to one). Local/Arg operands are wrapped by
// toEntity, snapshotting their current contents.
func (c *Context) refOfTarget(goCtx context.Context, ec *execContext, arg interface{}) (Entity, *Error) {
	switch t := arg.(type) {
	case *namedReference:
		target, err := c.ns.Search(ec.curScope, t.Target)
		if err != nil {
			return nil, nil // CondRefOf treats "not found" as false, not an error
		}
		return target, nil
	case *OpNode:
		switch {
		case isLocalOpcode(t.Op):
			return toEntity(ec.localArg[t.Op-opLocal0]), nil
		case isArgOpcode(t.Op):
			return toEntity(ec.methodArg[t.Op-opArg0]), nil
		}
	case Entity:
		return t, nil
	}
	return nil, newTypeError("RefOf: unsupported operand")
}

// evalIndex implements Index(Source, Index, Result): Buffer indexing
// produces a byte-wide BufferField view; Package indexing produces an
// ObjectReference to the element so Store-through-the-reference can replace
// it; String indexing copies the addressed byte into a standalone one-byte
// Buffer (this module does not support writing back through a String
// index, matching spec.md's reduced reference model).
func (c *Context) evalIndex(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	srcEnt, _ := n.Args[0].(Entity)
	src, err := c.eval(goCtx, ec, srcEnt)
	if err != nil {
		return nil, err
	}
	idxEnt, _ := n.Args[1].(Entity)
	idxVal, err := c.eval(goCtx, ec, idxEnt)
	if err != nil {
		return nil, err
	}
	idx, cerr := toInteger(idxVal, c.intWidth)
	if cerr != nil {
		return nil, cerr
	}

	var res Entity
	switch t := src.(type) {
	case *Buffer:
		if int(idx) >= len(t.Data) {
			return nil, newFieldError("buffer field index %d out of bounds (length %d)", idx, len(t.Data))
		}
		res = &BufferField{Source: t, BitOffset: idx * 8, BitWidth: 8}
	case *Package:
		if int(idx) >= len(t.Elements) {
			return nil, newFieldError("package index %d out of bounds (length %d)", idx, len(t.Elements))
		}
		res = &ObjectReference{Target: t.Elements[idx]}
	case *String:
		if int(idx) >= len(t.Val) {
			return nil, newFieldError("string index %d out of bounds (length %d)", idx, len(t.Val))
		}
		res = NewBuffer("", []byte{t.Val[idx]})
	default:
		return nil, newTypeError("Index: type %T cannot be sliced", src)
	}
	if len(n.Args) > 2 {
		if dst, ok := n.Args[2].(Entity); ok && dst != nil {
			if err := c.storeTo(goCtx, ec, dst, res); err != nil {
				return nil, err
			}
		}
	}
	return res, nil
}

// evalSizeOf implements SizeOf(SuperName): element count for Package, byte
// length for Buffer, character length for String, per ACPI sec. 19.6.124.
func (c *Context) evalSizeOf(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	srcEnt, _ := n.Args[0].(Entity)
	v, err := c.eval(goCtx, ec, srcEnt)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case *Buffer:
		return NewInteger("", uint64(len(t.Data)), c.intWidth), nil
	case *String:
		return NewInteger("", uint64(len(t.Val)), c.intWidth), nil
	case *Package:
		return NewInteger("", uint64(len(t.Elements)), c.intWidth), nil
	default:
		return nil, newTypeError("SizeOf: invalid application to type %T", v)
	}
}

// objectTypeCode maps a Kind to the ACPI ObjectType() integer encoding of
// sec. 19.6.85.
func objectTypeCode(k Kind) uint64 {
	switch k {
	case KindUninitialized:
		return 0
	case KindInteger:
		return 1
	case KindString:
		return 2
	case KindBuffer:
		return 3
	case KindPackage:
		return 4
	case KindFieldUnit, KindIndexField, KindBankField:
		return 5
	case KindDevice:
		return 6
	case KindEvent:
		return 7
	case KindMethod:
		return 8
	case KindMutex:
		return 9
	case KindOpRegion:
		return 10
	case KindPowerResource:
		return 11
	case KindProcessor:
		return 12
	case KindThermalZone:
		return 13
	case KindBufferField:
		return 14
	default:
		return 0
	}
}

func (c *Context) evalObjectType(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	target, err := c.refOfTarget(goCtx, ec, n.Args[0])
	if err != nil {
		return nil, err
	}
	if target == nil {
		return NewInteger("", 0, c.intWidth), nil
	}
	return NewInteger("", objectTypeCode(target.Kind()), c.intWidth), nil
}
