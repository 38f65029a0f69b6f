package target

// Expr is a target-language expression. Expressions are immutable once built
// and may be shared freely between statements; only statement nodes live in
// the arena and require cloning.
type Expr interface {
	isExpr()
}

// Const is an integer literal.
type Const struct {
	Value int
}

// Var reads a named variable.
type Var struct {
	Name string
}

// SeqLen is the length accessor of a named input sequence, rendered by the
// backend as a size() call on the sequence object.
type SeqLen struct {
	Seq string
}

// BinOp enumerates the arithmetic operators used in bound expressions.
type BinOp uint8

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
)

// Binary applies an arithmetic operator to two operands.
type Binary struct {
	Op   BinOp
	L, R Expr
}

// Cond is a ternary conditional expression.
type Cond struct {
	If   Expr
	Then Expr
	Else Expr
}

// PostInc reads a variable and increments it afterwards. The checkpoint
// injector relies on this to consume a restored loop start at most once: the
// first read of a "loaded" flag flips it permanently.
type PostInc struct {
	Name string
}

// Not is logical negation (zero becomes one, non-zero becomes zero).
type Not struct {
	X Expr
}

// Or is logical disjunction.
type Or struct {
	L, R Expr
}

func (*Const) isExpr()   {}
func (*Var) isExpr()     {}
func (*SeqLen) isExpr()  {}
func (*Binary) isExpr()  {}
func (*Cond) isExpr()    {}
func (*PostInc) isExpr() {}
func (*Not) isExpr()     {}
func (*Or) isExpr()      {}

// Add returns l + r.
func Add(l, r Expr) Expr { return &Binary{Op: OpAdd, L: l, R: r} }

// Sub returns l - r.
func Sub(l, r Expr) Expr { return &Binary{Op: OpSub, L: l, R: r} }

// Mul returns l * r.
func Mul(l, r Expr) Expr { return &Binary{Op: OpMul, L: l, R: r} }

// Div returns l / r.
func Div(l, r Expr) Expr { return &Binary{Op: OpDiv, L: l, R: r} }

// Num returns an integer literal.
func Num(v int) Expr { return &Const{Value: v} }

// Ref returns a variable read.
func Ref(name string) Expr { return &Var{Name: name} }
