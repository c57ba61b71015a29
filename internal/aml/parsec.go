package aml

// This file is the parser-combinator substrate: every sub-parser and every
// opcode handler reports its result through one of four channels, grounded
// on two teacher enums fused together -- parser.go's parseResult
// (parseResultFailed/Ok/ShortCircuit/RequireExtraPass) for the parse-time
// half, and vm.go's ctrlFlowType (ctrlFlowTypeNextOpcode/Break/Continue/
// FnReturn) for the evaluation-time half.
//
//   - accepted: the parser matched and produced a value.
//   - declined: a private "try the next alternative" signal used inside
//     alt(); it must never escape to a caller outside this package.
//   - failed: a user-visible *Error that aborts the surrounding parse or
//     evaluation.
//   - ctrlFlow: non-error control flow (Return/Break/Continue) that must be
//     consumed by the nearest enclosing method body or loop, not treated as
//     a failure; it travels on execContext rather than on parseAttempt
//     because it only arises at evaluation time.

type ctrlFlow uint8

const (
	ctrlFlowNext ctrlFlow = iota
	ctrlFlowBreak
	ctrlFlowContinue
	ctrlFlowReturn
)

// parseAttempt is the result of trying one alternative inside alt(). A
// parser that cannot even start (wrong leading byte for this alternative)
// declines so alt() tries the next one; any other failure is a real *Error
// and aborts the whole parse.
type parseAttempt struct {
	value    Entity
	declined bool
	err      *Error
}

func accepted(v Entity) parseAttempt { return parseAttempt{value: v} }
func declined() parseAttempt         { return parseAttempt{declined: true} }
func failed(e *Error) parseAttempt   { return parseAttempt{err: e} }

// alt tries each parser in order, moving to the next on declined and
// stopping on the first accepted or real error. Grounded on parser.go's
// multi-pass "try this production, fall through on mismatch" dispatch
// shape, generalized into a single combinator.
func alt(offset uint32, parsers ...func() parseAttempt) parseAttempt {
	for _, p := range parsers {
		res := p()
		if res.declined {
			continue
		}
		return res
	}
	return failed(newParseError(offset, "no alternative matched"))
}
