package aml

import "context"

// evalStore implements Store and CopyObject: evaluate the source, then
// write it to the destination target. Grounded on the teacher's
// vm_op_store.go vmOpStore/vm_load_store.go vmStore, generalized from
// "Local/Arg destinations only" (the only cases the retrieved snapshot
// implemented) to named values and field units too, per spec.md §4.5's
// implicit-conversion-on-store rules.
func (c *Context) evalStore(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	if len(n.Args) != 2 {
		return nil, errArgIndexOutOfBounds
	}
	srcEnt, _ := n.Args[0].(Entity)
	val, err := c.eval(goCtx, ec, srcEnt)
	if err != nil {
		return nil, err
	}
	dst, _ := n.Args[1].(Entity)
	if err := c.storeTo(goCtx, ec, dst, val); err != nil {
		return nil, err
	}
	return val, nil
}

// storeTo writes val into the SuperName target dst, per ACPI sec. 19.3.5.8:
// Local targets are overwritten unconditionally; Arg targets dereference an
// existing ObjectReference before overwriting, per p.896/897; Debug is a
// diagnostic sink and silently discards; FieldUnit/IndexField/BankField
// targets perform a real hardware write with implicit Integer conversion;
// any other named value is overwritten in place.
func (c *Context) storeTo(goCtx context.Context, ec *execContext, dst Entity, val interface{}) *Error {
	if dst == nil {
		return errInvalidStoreDestination
	}
	switch t := dst.(type) {
	case *OpNode:
		switch {
		case isLocalOpcode(t.Op):
			ec.localArg[t.Op-opLocal0] = val
			return nil
		case isArgOpcode(t.Op):
			idx := t.Op - opArg0
			if ref, ok := ec.methodArg[idx].(*ObjectReference); ok {
				ref.Target = toEntity(val)
				return nil
			}
			ec.methodArg[idx] = val
			return nil
		case t.Op == opDebug:
			return nil
		case t.Op == opIndex || t.Op == opDerefOf || t.Op == opRefOf:
			// The destination is itself a reference expression (e.g.
			// Store(x, Index(BUF, 1))): evaluate it to the place it names.
			v, err := c.evalOp(goCtx, ec, t)
			if err != nil {
				return err
			}
			if ent, ok := v.(Entity); ok {
				return c.storeTo(goCtx, ec, ent, val)
			}
			return errInvalidStoreDestination
		}
		return newTypeError("cannot store to opcode %v", t.Op)
	case *namedReference:
		target, err := c.ns.Search(ec.curScope, t.Target)
		if err != nil {
			return err
		}
		return c.storeTo(goCtx, ec, target, val)
	case *FieldUnit:
		if t.Region == nil {
			if err := c.resolveFieldUnit(t); err != nil {
				return err
			}
		}
		iv, cerr := toInteger(val, c.intWidth)
		if cerr != nil {
			return cerr
		}
		return writeFieldUnit(goCtx, c.host, t, iv)
	case *IndexField:
		if t.IndexReg == nil || t.DataReg == nil {
			if err := c.resolveIndexField(t); err != nil {
				return err
			}
		}
		iv, cerr := toInteger(val, c.intWidth)
		if cerr != nil {
			return cerr
		}
		return writeIndexField(goCtx, c.host, t, iv)
	case *BankField:
		if t.Region == nil || t.Bank == nil {
			if err := c.resolveBankField(t); err != nil {
				return err
			}
		}
		iv, cerr := toInteger(val, c.intWidth)
		if cerr != nil {
			return cerr
		}
		return writeBankField(goCtx, c.host, t, iv)
	case *BufferField:
		return c.storeBufferField(t, val)
	case *ObjectReference:
		return c.storeTo(goCtx, ec, t.Target, val)
	case *Integer:
		iv, cerr := toInteger(val, c.intWidth)
		if cerr != nil {
			return cerr
		}
		t.Val = iv
		return nil
	case *String:
		sv, cerr := toAmlString(val, c.intWidth)
		if cerr != nil {
			return cerr
		}
		t.Val = sv
		return nil
	case *Buffer:
		bv, cerr := toBuffer(val, c.intWidth)
		if cerr != nil {
			return cerr
		}
		t.Data = bv
		return nil
	default:
		return newTypeError("unsupported store destination %T", dst)
	}
}

func (c *Context) storeBufferField(bf *BufferField, val interface{}) *Error {
	if err := c.resolveBufferField(bf); err != nil {
		return err
	}
	if bf.Source == nil {
		return newTypeError("buffer field %s has no backing buffer", bf.Name())
	}
	iv, err := toInteger(val, c.intWidth)
	if err != nil {
		return err
	}
	widthBits := bf.BitWidth
	if widthBits > 64 {
		widthBits = 64
	}
	needed := int((bf.BitOffset+widthBits+7)/8)
	if len(bf.Source.Data) < needed {
		grown := make([]byte, needed)
		copy(grown, bf.Source.Data)
		bf.Source.Data = grown
	}
	for i := uint64(0); i < widthBits; i++ {
		bit := bf.BitOffset + i
		byteIdx := bit / 8
		bitInByte := bit % 8
		if iv&(1<<i) != 0 {
			bf.Source.Data[byteIdx] |= 1 << bitInByte
		} else {
			bf.Source.Data[byteIdx] &^= 1 << bitInByte
		}
	}
	return nil
}

func toEntity(v interface{}) Entity {
	if e, ok := v.(Entity); ok {
		return e
	}
	switch t := v.(type) {
	case uint64:
		return NewInteger("", t, 64)
	case string:
		return NewString("", t)
	case []byte:
		return NewBuffer("", t)
	default:
		return nil
	}
}
