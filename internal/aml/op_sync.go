package aml

import (
	"context"
	"time"
)

// evalSync implements the statement/synchronization opcodes of ACPI sec.
// 19.6 that talk to the host or to another in-flight method: Notify, Sleep,
// Stall, Fatal, Release, Reset, Signal, Wait, Acquire, Load, LoadTable,
// Unload, plus the Debug/Timer/Match expression opcodes, which are grouped
// here because they share this file's host-facing or cooperative-scheduling
// character. Per spec.md sec. 5 ("Scheduling model"), this interpreter is
// single-threaded and cooperative: Wait/Acquire cannot block waiting on
// another goroutine signalling the same Context, so both are satisfied
// immediately from the Event/Mutex object's own state rather than by
// suspending the caller. None of this family existed in the teacher's
// retrieved snapshot (see DESIGN.md); authored fresh against spec.md sec.
// 4.7/5/6.
func (c *Context) evalSync(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	switch n.Op {
	case opNotify:
		return c.evalNotify(goCtx, ec, n)
	case opSleep:
		return c.evalSleep(goCtx, ec, n)
	case opStall:
		return c.evalStall(goCtx, ec, n)
	case opFatal:
		return c.evalFatal(goCtx, ec, n)
	case opRelease:
		return c.evalRelease(goCtx, ec, n)
	case opReset:
		return c.evalReset(goCtx, ec, n)
	case opSignal:
		return c.evalSignal(goCtx, ec, n)
	case opWait:
		return c.evalWait(goCtx, ec, n)
	case opAcquire:
		return c.evalAcquire(goCtx, ec, n)
	case opLoad, opLoadTable, opUnload:
		// Dynamic table load/unload requires a table-locating collaborator
		// this module does not carry (spec.md sec. 1); recognized but
		// unimplemented, per spec.md sec. 7's Unimplemented error kind.
		return nil, newUnsupportedError("%s is not implemented (no table-locating host)", opcodeTable[n.Op].name)
	case opDebug:
		return &Uninitialized{}, nil
	case opTimer:
		return NewInteger("", uint64(time.Now().UnixNano()/100), c.intWidth), nil
	case opMatch:
		return c.evalMatch(goCtx, ec, n)
	default:
		return nil, newUnsupportedError("sync opcode %v not implemented", n.Op)
	}
}

// evalNotify implements Notify(Object, Value). There is no OS-side consumer
// of ACPI notifications wired into this module (spec.md's host interface has
// no notify hook), so it is logged at trace level and otherwise a no-op.
func (c *Context) evalNotify(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	target, err := c.refOfTarget(goCtx, ec, n.Args[0])
	if err != nil {
		return nil, err
	}
	valEnt, _ := n.Args[1].(Entity)
	val, err := c.eval(goCtx, ec, valEnt)
	if err != nil {
		return nil, err
	}
	v, _ := toInteger(val, c.intWidth)
	name := ""
	if target != nil {
		name = target.Name()
	}
	c.log.Tracef("Notify(%s, 0x%x)", name, v)
	return nil, nil
}

func (c *Context) evalSleep(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	msEnt, _ := n.Args[0].(Entity)
	v, err := c.eval(goCtx, ec, msEnt)
	if err != nil {
		return nil, err
	}
	ms, cerr := toInteger(v, c.intWidth)
	if cerr != nil {
		return nil, cerr
	}
	if herr := c.host.Sleep(goCtx, ms); herr != nil {
		return nil, hostErr(herr)
	}
	return nil, nil
}

// evalStall implements Stall(MicroSeconds): per ACPI sec. 19.6.132 the host
// must busy-wait, never yield, and the operand is bounded to 255
// microseconds (ByteConst-sized in well-formed AML). host.Interface's Stall
// takes 100ns ticks, so the evaluated microsecond count is scaled by 10.
func (c *Context) evalStall(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	usEnt, _ := n.Args[0].(Entity)
	v, err := c.eval(goCtx, ec, usEnt)
	if err != nil {
		return nil, err
	}
	us, cerr := toInteger(v, c.intWidth)
	if cerr != nil {
		return nil, cerr
	}
	if herr := c.host.Stall(goCtx, us*10); herr != nil {
		return nil, hostErr(herr)
	}
	return nil, nil
}

func (c *Context) evalFatal(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	fatalType, _ := n.Args[0].(uint64)
	codeVal, _ := n.Args[1].(uint64)
	argEnt, _ := n.Args[2].(Entity)
	argVal, err := c.eval(goCtx, ec, argEnt)
	if err != nil {
		return nil, err
	}
	arg, cerr := toInteger(argVal, c.intWidth)
	if cerr != nil {
		return nil, cerr
	}
	_ = c.host.HandleFatalError(uint8(fatalType), uint32(codeVal), arg)
	return nil, newFatalError("Fatal(type=%d, code=%d, arg=0x%x)", fatalType, codeVal, arg)
}

func (c *Context) evalRelease(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	target, err := c.refOfTarget(goCtx, ec, n.Args[0])
	if err != nil {
		return nil, err
	}
	mtx, ok := target.(*Mutex)
	if !ok {
		return nil, newTypeError("Release: %T is not a Mutex", target)
	}
	if mtx.depth > 0 {
		mtx.depth--
	}
	return nil, nil
}

func (c *Context) evalReset(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	target, err := c.refOfTarget(goCtx, ec, n.Args[0])
	if err != nil {
		return nil, err
	}
	ev, ok := target.(*Event)
	if !ok {
		return nil, newTypeError("Reset: %T is not an Event", target)
	}
	ev.signaled = 0
	return nil, nil
}

func (c *Context) evalSignal(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	target, err := c.refOfTarget(goCtx, ec, n.Args[0])
	if err != nil {
		return nil, err
	}
	ev, ok := target.(*Event)
	if !ok {
		return nil, newTypeError("Signal: %T is not an Event", target)
	}
	ev.signaled++
	return nil, nil
}

// evalWait implements Wait(EventObject, Timeout). Since this interpreter
// cannot suspend a method invocation and resume it when another goroutine
// calls Signal (sec. 5's single-threaded cooperative model -- the host must
// serialize entries), Wait is satisfied immediately: a pending signal is
// consumed and zero (no timeout) is returned, otherwise the "timed out"
// value is returned at once rather than actually waiting out Timeout.
func (c *Context) evalWait(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	target, err := c.refOfTarget(goCtx, ec, n.Args[0])
	if err != nil {
		return nil, err
	}
	ev, ok := target.(*Event)
	if !ok {
		return nil, newTypeError("Wait: %T is not an Event", target)
	}
	if ev.signaled > 0 {
		ev.signaled--
		return NewInteger("", 0, c.intWidth), nil
	}
	return NewInteger("", ^uint64(0), c.intWidth), nil // timed out
}

// evalAcquire implements Acquire(MutexObject, Timeout). Mutex acquisition is
// depth-counted and always succeeds immediately -- there is no second
// thread of AML execution within one Context to contend with (sec. 5), and
// spec.md's Non-goals explicitly exclude multi-processor Global Lock
// arbitration.
func (c *Context) evalAcquire(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	target, err := c.refOfTarget(goCtx, ec, n.Args[0])
	if err != nil {
		return nil, err
	}
	mtx, ok := target.(*Mutex)
	if !ok {
		return nil, newTypeError("Acquire: %T is not a Mutex", target)
	}
	mtx.depth++
	return NewBoolean("", false), nil // false == not timed out
}

// Match comparison operators, per ACPI sec. 19.6.77 Table 19-435.
const (
	matchTR = 0 // always true
	matchEQ = 1
	matchLE = 2
	matchLT = 3
	matchGE = 4
	matchGT = 5
)

// evalMatch implements Match(SearchPkg, MatchOp1, MatchObj1, MatchOp2,
// MatchObj2, StartIndex): returns the index of the first package element
// satisfying both conditions at or after StartIndex, or Ones if none do.
func (c *Context) evalMatch(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	pkgEnt, _ := n.Args[0].(Entity)
	pkgVal, err := c.eval(goCtx, ec, pkgEnt)
	if err != nil {
		return nil, err
	}
	pkg, ok := pkgVal.(*Package)
	if !ok {
		return nil, newTypeError("Match: first operand must be a Package, got %T", pkgVal)
	}
	op1, _ := n.Args[1].(uint64)
	obj1Ent, _ := n.Args[2].(Entity)
	obj1, err := c.eval(goCtx, ec, obj1Ent)
	if err != nil {
		return nil, err
	}
	op2, _ := n.Args[3].(uint64)
	obj2Ent, _ := n.Args[4].(Entity)
	obj2, err := c.eval(goCtx, ec, obj2Ent)
	if err != nil {
		return nil, err
	}
	startEnt, _ := n.Args[5].(Entity)
	startVal, err := c.eval(goCtx, ec, startEnt)
	if err != nil {
		return nil, err
	}
	start, cerr := toInteger(startVal, c.intWidth)
	if cerr != nil {
		return nil, cerr
	}

	for i := int(start); i < len(pkg.Elements); i++ {
		elem := pkg.Elements[i]
		ok1, err := matchOne(elem, uint8(op1), obj1, c.intWidth)
		if err != nil {
			continue
		}
		ok2, err := matchOne(elem, uint8(op2), obj2, c.intWidth)
		if err != nil {
			continue
		}
		if ok1 && ok2 {
			return NewInteger("", uint64(i), c.intWidth), nil
		}
	}
	return NewInteger("", ^uint64(0), c.intWidth), nil
}

func matchOne(elem Entity, op uint8, operand interface{}, width int) (bool, *Error) {
	if op == matchTR {
		return true, nil
	}
	cmp, err := compareValues(elem, operand, width)
	if err != nil {
		return false, err
	}
	switch op {
	case matchEQ:
		return cmp == 0, nil
	case matchLE:
		return cmp <= 0, nil
	case matchLT:
		return cmp < 0, nil
	case matchGE:
		return cmp >= 0, nil
	case matchGT:
		return cmp > 0, nil
	default:
		return false, newTypeError("Match: unknown comparator %d", op)
	}
}
