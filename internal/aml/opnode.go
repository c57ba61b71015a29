package aml

// OpNode is a generic, not-yet-evaluated executable term: an expression or
// statement opcode together with its parsed arguments. Grounded on the
// teacher's entity.go unnamedEntity (an Entity that merely carries args for
// later evaluation, with no name or scope of its own); this package
// generalizes it to carry any TermArg/Target/NameString/literal argument
// uniformly, since value.go's concrete leaf types (Integer, String, ...)
// already cover every kind of produced *value*, leaving OpNode to cover
// everything still awaiting evaluation.
type OpNode struct {
	baseEntity
	Op   Opcode
	Args []interface{} // Entity | AmlName | uint64 | []byte
}

func (n *OpNode) Kind() Kind { return KindUninitialized }

func newOpNode(op Opcode, args []interface{}) *OpNode {
	return &OpNode{Op: op, Args: args}
}

// CondBlock represents If/While/Else: a scoped body with an optional
// leading condition TermArg. Kept separate from Scope/Method/Device because
// it participates in control flow (execBlock re-evaluates Cond on every
// While iteration) rather than simply being a namespace container.
type CondBlock struct {
	baseScope
	Op   Opcode // opIf, opWhile or opElse
	Cond Entity // nil for opElse
}

func (c *CondBlock) Kind() Kind { return KindUninitialized }

// namedReference is an unresolved NameString appearing in TermArg/SuperName
// position: either a variable read or (if the name resolves to a Method) an
// invocation. Grounded on the teacher's namedReference/
// methodInvocationEntity pair, merged into one node since both are resolved
// identically at evaluation time by looking the name up and branching on
// its Kind.
type namedReference struct {
	baseEntity
	Target AmlName
	Args   []Entity // only used if resolution finds a Method
}

func (n *namedReference) Kind() Kind { return KindUninitialized }
