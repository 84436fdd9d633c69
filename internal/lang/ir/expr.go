package ir

// Expr is the sum type of lowered expressions. Exactly one field is populated
// per the Kind tag.
type Expr struct {
	Kind ExprKind

	IntLiteral    string // ExprIntLiteral: raw digits/prefix, parsed lazily by eval via internal/bigint
	StringLiteral string // ExprStringLiteral: with escapes already resolved
	BoolLiteral   bool   // ExprBoolLiteral
	Bytes         []byte // ExprByteConcat
	Ident         string // ExprIdent (variable/field reference, or "last")
	Peek          bool   // not set by lowering: a `peek` atom lowers to ExprIdent "peek"
	PeekOf        *Expr

	Field *FieldAccess // ExprFieldAccess
	Unary *UnaryExpr   // ExprUnary
	Binop *BinaryExpr  // ExprBinary
	If    *IfExpr      // ExprIf
	Paren *Expr        // ExprParen
}

type ExprKind int

const (
	ExprIntLiteral ExprKind = iota
	ExprStringLiteral
	ExprBoolLiteral
	ExprByteConcat
	ExprIdent
	ExprFieldAccess
	ExprUnary
	ExprBinary
	ExprIf
	ExprParen
)

type FieldAccess struct {
	Base  *Expr
	Field string
}

type UnaryOp int

const (
	UnaryNeg UnaryOp = iota
	UnaryPlus
	UnaryNot
)

type UnaryExpr struct {
	Op      UnaryOp
	Operand *Expr
}

type BinaryOp int

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinMod
	BinAnd
	BinOr
	BinEq
	BinNeq
	BinLt
	BinGt
	BinLe
	BinGe
)

type BinaryExpr struct {
	Op  BinaryOp
	Lhs *Expr
	Rhs *Expr
}

type IfExpr struct {
	Cond      *Expr
	Then      *Expr
	Else      *Expr
}
