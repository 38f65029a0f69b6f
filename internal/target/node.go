// Package target models the statement and expression tree handed to a code
// emission backend. Statement nodes are a closed tagged variant stored in an
// arena and addressed by NodeID; reusing a subtree in several places goes
// through CloneSubtree so no two parents ever alias the same mutable node.
package target

// Kind tags a statement node.
type Kind uint8

const (
	KindDecl      Kind = iota // variable declaration with initializer
	KindAssign                // assignment to an existing variable
	KindFor                   // counted loop
	KindBlock                 // brace-scoped statement list
	KindCall                  // function call statement
	KindDirective             // symbolic compilation / parallel-region marker
)

func (k Kind) String() string {
	switch k {
	case KindDecl:
		return "decl"
	case KindAssign:
		return "assign"
	case KindFor:
		return "for"
	case KindBlock:
		return "block"
	case KindCall:
		return "call"
	case KindDirective:
		return "directive"
	}
	return "unknown"
}

// DeclType is the declared type of a loop or bookkeeping variable.
type DeclType uint8

const (
	TypeSize DeclType = iota // unsigned index type
	TypeInt                  // signed (work-shared loops require signed counters)
	TypeNone                 // no declaration: assign an already-declared variable
)

// AssignOp distinguishes plain assignment from compound addition.
type AssignOp uint8

const (
	AssignSet AssignOp = iota
	AssignAdd
)

// CallKind separates nonterminal evaluation calls from runtime helpers such
// as assertions and lock operations. Call placement and dead-loop pruning
// only consider evaluation calls.
type CallKind uint8

const (
	CallEval    CallKind = iota // tabulated nonterminal evaluation
	CallRuntime                 // assert, lock/unlock, other runtime support
)

// DirectiveKind enumerates the symbolic markers a backend maps onto its own
// conditional-compilation and parallel-region syntax. They carry no free-form
// text so a backend is not locked to one concurrency technology.
type DirectiveKind uint8

const (
	DirectiveVariantSingle     DirectiveKind = iota // begin single-thread code variant
	DirectiveVariantMulti                           // begin multi-thread code variant
	DirectiveVariantEnd                             // close the variant bracket
	DirectiveTileOverrideBegin                      // begin optional tile-size override
	DirectiveTileOverrideEnd                        // end optional tile-size override
	DirectiveParallelBegin                          // open a parallel region (next block)
	DirectiveWorkShare                              // work-share the following loop
	DirectiveWorkShareOrdered                       // work-share with ordered commits
	DirectiveOrderedCommit                          // ordered commit step (next block)
)

// CmpOp is the loop continuation comparison.
type CmpOp uint8

const (
	CmpLess CmpOp = iota
	CmpGreater
)

// Node is one statement. The populated fields depend on Kind:
//
//	Decl      Var, Type, Init
//	Assign    Var, AssignOp, Init
//	For       Var, Type, Init (start), CondOp, Bound, Step, Reuse, Children
//	Block     Children
//	Call      Name, CallKind, Args, Method
//	Directive Directive
//
// A For with Step == nil increments its variable by one per iteration; a
// Const step of -1 decrements; any other step is a compound addition.
// Reuse marks loops (and their end-state declarations) that bind a variable
// declared earlier in the function, which the checkpoint injector needs to
// avoid redeclaring a restorable index.
type Node struct {
	Kind Kind

	Var      string
	Type     DeclType
	Init     Expr
	AssignOp AssignOp

	CondOp CmpOp
	Bound  Expr
	Step   Expr
	Reuse  bool

	Name     string
	CallKind CallKind
	Args     []Expr
	Method   bool

	Directive DirectiveKind

	Children []NodeID
}
