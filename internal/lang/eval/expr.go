package eval

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/standardbeagle/hexbait/internal/bigint"
	"github.com/standardbeagle/hexbait/internal/lang/ir"
)

// evalExpr evaluates an expression against the given parse scope. Expression
// evaluation never consumes bytes from the source; only Field/Type evaluation
// does.
func (ev *Evaluator) evalExpr(ps *parseScope, e *ir.Expr) Value {
	if e == nil {
		return Value{Err: ev.recordError("nil expression")}
	}
	switch e.Kind {
	case ir.ExprIntLiteral:
		n, err := parseIntLiteral(e.IntLiteral)
		if err != nil {
			return Value{Kind: ValueInteger, Err: ev.recordError(err.Error())}
		}
		return Value{Kind: ValueInteger, Integer: n, Err: NoError}
	case ir.ExprStringLiteral:
		return Value{Kind: ValueBytes, Bytes: []byte(e.StringLiteral), Err: NoError}
	case ir.ExprBoolLiteral:
		return Value{Kind: ValueBool, Bool: e.BoolLiteral, Err: NoError}
	case ir.ExprByteConcat:
		return Value{Kind: ValueBytes, Bytes: append([]byte(nil), e.Bytes...), Err: NoError}
	case ir.ExprIdent:
		if e.Ident == "peek" {
			if b, ok := ps.peekByte(); ok {
				return Value{Kind: ValueInteger, Integer: bigint.FromUint64(uint64(b)), Err: NoError}
			}
			return Value{Err: ev.recordError("peek past end of view")}
		}
		if v, ok := ps.scope.resolve(e.Ident); ok {
			return v
		}
		return Value{Err: ev.recordError(fmt.Sprintf("undefined identifier %q", e.Ident))}
	case ir.ExprFieldAccess:
		base := ev.evalExpr(ps, e.Field.Base)
		if v, ok := base.Lookup(e.Field.Field); ok {
			return v
		}
		return Value{Err: ev.recordError(fmt.Sprintf("no field %q", e.Field.Field))}
	case ir.ExprUnary:
		return ev.evalUnary(ps, e.Unary)
	case ir.ExprBinary:
		return ev.evalBinary(ps, e.Binop)
	case ir.ExprIf:
		cond := ev.evalExpr(ps, e.If.Cond)
		if asBool(cond) {
			return ev.evalExpr(ps, e.If.Then)
		}
		return ev.evalExpr(ps, e.If.Else)
	case ir.ExprParen:
		return ev.evalExpr(ps, e.Paren)
	default:
		return Value{Err: ev.recordError("unhandled expression kind")}
	}
}

func (ev *Evaluator) evalUnary(ps *parseScope, u *ir.UnaryExpr) Value {
	v := ev.evalExpr(ps, u.Operand)
	switch u.Op {
	case ir.UnaryNeg:
		if v.Kind != ValueInteger {
			return Value{Err: ev.recordError("unary '-' on non-integer value")}
		}
		return Value{Kind: ValueInteger, Integer: bigint.Neg(v.Integer), Err: NoError}
	case ir.UnaryNot:
		return Value{Kind: ValueBool, Bool: !asBool(v), Err: NoError}
	default: // UnaryPlus
		return v
	}
}

func (ev *Evaluator) evalBinary(ps *parseScope, b *ir.BinaryExpr) Value {
	lhs := ev.evalExpr(ps, b.Lhs)
	rhs := ev.evalExpr(ps, b.Rhs)

	switch b.Op {
	case ir.BinEq:
		return Value{Kind: ValueBool, Bool: valuesEqual(lhs, rhs), Err: NoError}
	case ir.BinNeq:
		return Value{Kind: ValueBool, Bool: !valuesEqual(lhs, rhs), Err: NoError}
	}

	if lhs.Kind != ValueInteger || rhs.Kind != ValueInteger {
		return Value{Err: ev.recordError("binary arithmetic/comparison on non-integer operand")}
	}

	switch b.Op {
	case ir.BinAdd:
		return Value{Kind: ValueInteger, Integer: bigint.Add(lhs.Integer, rhs.Integer), Err: NoError}
	case ir.BinSub:
		return Value{Kind: ValueInteger, Integer: bigint.Sub(lhs.Integer, rhs.Integer), Err: NoError}
	case ir.BinMul:
		return Value{Kind: ValueInteger, Integer: bigint.Mul(lhs.Integer, rhs.Integer), Err: NoError}
	case ir.BinDiv:
		n, err := bigint.Div(lhs.Integer, rhs.Integer)
		if err != nil {
			return Value{Err: ev.recordError(err.Error())}
		}
		return Value{Kind: ValueInteger, Integer: n, Err: NoError}
	case ir.BinMod:
		n, err := bigint.Mod(lhs.Integer, rhs.Integer)
		if err != nil {
			return Value{Err: ev.recordError(err.Error())}
		}
		return Value{Kind: ValueInteger, Integer: n, Err: NoError}
	case ir.BinAnd:
		return Value{Kind: ValueInteger, Integer: bigint.And(lhs.Integer, rhs.Integer), Err: NoError}
	case ir.BinOr:
		return Value{Kind: ValueInteger, Integer: bigint.Or(lhs.Integer, rhs.Integer), Err: NoError}
	case ir.BinLt:
		return Value{Kind: ValueBool, Bool: bigint.Cmp(lhs.Integer, rhs.Integer) < 0, Err: NoError}
	case ir.BinGt:
		return Value{Kind: ValueBool, Bool: bigint.Cmp(lhs.Integer, rhs.Integer) > 0, Err: NoError}
	case ir.BinLe:
		return Value{Kind: ValueBool, Bool: bigint.Cmp(lhs.Integer, rhs.Integer) <= 0, Err: NoError}
	case ir.BinGe:
		return Value{Kind: ValueBool, Bool: bigint.Cmp(lhs.Integer, rhs.Integer) >= 0, Err: NoError}
	default:
		return Value{Err: ev.recordError("unknown binary operator")}
	}
}

func asBool(v Value) bool {
	switch v.Kind {
	case ValueBool:
		return v.Bool
	case ValueInteger:
		return v.Integer.Sign() != 0
	default:
		return false
	}
}

// valuesEqual implements "comparing a Value for equality to a literal
// compares structurally": kind-aware deep equality, ignoring provenance and
// error handles.
func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ValueInteger:
		return bigint.Eq(a.Integer, b.Integer)
	case ValueBytes:
		return bytes.Equal(a.Bytes, b.Bytes)
	case ValueBool:
		return a.Bool == b.Bool
	case ValueArray:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !valuesEqual(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case ValueStruct:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || !valuesEqual(a.Fields[i].Value, b.Fields[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func parseIntLiteral(raw string) (bigint.Int, error) {
	s := raw
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		base, s = 16, s[2:]
	case strings.HasPrefix(s, "0b") || strings.HasPrefix(s, "0B"):
		base, s = 2, s[2:]
	case strings.HasPrefix(s, "0o") || strings.HasPrefix(s, "0O"):
		base, s = 8, s[2:]
	}
	return bigint.ParseString(s, base)
}
