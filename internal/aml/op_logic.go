package aml

import "context"

// evalLogic implements the logical opcodes of ACPI sec. 19.6: LAnd, LOr,
// LNot, LEqual, LGreater, LLess. Each produces a Boolean. Comparisons accept
// Integer/String/Buffer operands, converting the second operand to match the
// first's type per ACPI sec. 19.3.5.8's comparison rules (spec.md's
// TypeCannotBeCompared error covers the remaining mismatches). Grounded on
// the teacher's vm_op_flow.go shape (none of these opcodes existed in the
// retrieved snapshot -- see DESIGN.md -- so this is authored fresh against
// spec.md sec. 4.7's expression list).
func (c *Context) evalLogic(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	switch n.Op {
	case opLnot:
		srcEnt, _ := n.Args[0].(Entity)
		v, err := c.eval(goCtx, ec, srcEnt)
		if err != nil {
			return nil, err
		}
		return NewBoolean("", !truthyValue(v)), nil
	case opLand, opLor:
		aEnt, _ := n.Args[0].(Entity)
		a, err := c.eval(goCtx, ec, aEnt)
		if err != nil {
			return nil, err
		}
		if n.Op == opLand && !truthyValue(a) {
			return NewBoolean("", false), nil
		}
		if n.Op == opLor && truthyValue(a) {
			return NewBoolean("", true), nil
		}
		bEnt, _ := n.Args[1].(Entity)
		b, err := c.eval(goCtx, ec, bEnt)
		if err != nil {
			return nil, err
		}
		return NewBoolean("", truthyValue(b)), nil
	}

	aEnt, _ := n.Args[0].(Entity)
	a, err := c.eval(goCtx, ec, aEnt)
	if err != nil {
		return nil, err
	}
	bEnt, _ := n.Args[1].(Entity)
	b, err := c.eval(goCtx, ec, bEnt)
	if err != nil {
		return nil, err
	}
	cmp, cerr := compareValues(a, b, c.intWidth)
	if cerr != nil {
		return nil, cerr
	}
	switch n.Op {
	case opLEqual:
		return NewBoolean("", cmp == 0), nil
	case opLGreater:
		return NewBoolean("", cmp > 0), nil
	case opLLess:
		return NewBoolean("", cmp < 0), nil
	default:
		return nil, newUnsupportedError("logic opcode %v not implemented", n.Op)
	}
}

// compareValues compares a against b, converting b to a's Kind first per
// ACPI sec. 19.3.5.8, and returns -1/0/1 the way bytes.Compare does.
func compareValues(a, b interface{}, width int) (int, *Error) {
	switch kindOf(a) {
	case KindString:
		as, err := toAmlString(a, width)
		if err != nil {
			return 0, err
		}
		bs, err := toAmlString(b, width)
		if err != nil {
			return 0, err
		}
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		default:
			return 0, nil
		}
	case KindBuffer:
		ab, err := toBuffer(a, width)
		if err != nil {
			return 0, err
		}
		bb, err := toBuffer(b, width)
		if err != nil {
			return 0, err
		}
		n := len(ab)
		if len(bb) < n {
			n = len(bb)
		}
		for i := 0; i < n; i++ {
			if ab[i] != bb[i] {
				if ab[i] < bb[i] {
					return -1, nil
				}
				return 1, nil
			}
		}
		switch {
		case len(ab) < len(bb):
			return -1, nil
		case len(ab) > len(bb):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		ai, err := toInteger(a, width)
		if err != nil {
			return 0, newTypeError("values of type %T cannot be compared", a)
		}
		bi, err := toInteger(b, width)
		if err != nil {
			return 0, newTypeError("values of type %T cannot be compared", b)
		}
		switch {
		case ai < bi:
			return -1, nil
		case ai > bi:
			return 1, nil
		default:
			return 0, nil
		}
	}
}
