package aml

import "context"

// evalFlow implements Return, Break, Continue, Noop and BreakPoint: the
// non-error control-flow opcodes of spec.md sec. 4.3/4.7. Return/Break/
// Continue do not themselves raise errors here -- they set ec.ctrlFlow and
// let execBlock (exec.go) propagate the signal up to the nearest enclosing
// While (Break/Continue) or method invocation (Return); a Break/Continue
// reaching invokeMethodEntity with no enclosing While converts to
// BreakInInvalidPosition/ContinueInInvalidPosition there, per spec.md sec.
// 4.7's state machine. Grounded on the teacher's vm_op_flow.go vmOpReturn,
// the only opcode of this family the retrieved snapshot implemented; Break/
// Continue/Noop/BreakPoint are authored fresh in its shape.
func (c *Context) evalFlow(goCtx context.Context, ec *execContext, n *OpNode) (interface{}, *Error) {
	switch n.Op {
	case opReturn:
		var retVal interface{} = uint64(0)
		if len(n.Args) > 0 {
			if srcEnt, ok := n.Args[0].(Entity); ok && srcEnt != nil {
				v, err := c.eval(goCtx, ec, srcEnt)
				if err != nil {
					return nil, err
				}
				retVal = v
			}
		}
		ec.retVal = retVal
		ec.ctrlFlow = ctrlFlowReturn
		return retVal, nil
	case opBreak:
		ec.ctrlFlow = ctrlFlowBreak
		return nil, nil
	case opContinue:
		ec.ctrlFlow = ctrlFlowContinue
		return nil, nil
	case opNoop, opBreakPoint:
		return nil, nil
	default:
		return nil, newUnsupportedError("flow opcode %v not implemented", n.Op)
	}
}
