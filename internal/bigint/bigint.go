// Package bigint wraps math/big.Int with the arithmetic and comparison
// operators the grammar language's integer type needs: arbitrary precision,
// signed, never silently wrapping.
package bigint

import (
	"fmt"
	"math/big"
)

// Int is an arbitrary-precision signed integer, immutable from the
// caller's perspective: every operation returns a new Int rather than
// mutating its receiver, matching the value semantics the grammar
// evaluator expects of ValueKind.Integer.
type Int struct {
	v *big.Int
}

// Zero is the additive identity.
var Zero = Int{v: big.NewInt(0)}

// FromInt64 builds an Int from a native signed 64-bit value.
func FromInt64(n int64) Int {
	return Int{v: big.NewInt(n)}
}

// FromUint64 builds an Int from a native unsigned 64-bit value.
func FromUint64(n uint64) Int {
	return Int{v: new(big.Int).SetUint64(n)}
}

// FromBytes builds an Int from a big-endian byte slice, signed per the
// two's-complement convention used by parsed Integer{width,signed} fields
// . If signed is false the bytes are interpreted as unsigned.
func FromBytes(data []byte, signed bool) Int {
	v := new(big.Int).SetBytes(data)
	if signed && len(data) > 0 && data[0]&0x80 != 0 {
		// Two's complement: subtract 2^(8*len(data)).
		bound := new(big.Int).Lsh(big.NewInt(1), uint(len(data))*8)
		v.Sub(v, bound)
	}
	return Int{v: v}
}

// ParseString parses a base-2, base-8, base-10, or base-16 literal, per the
// lexer's integer-literal token classes. base must be one of 2, 8, 10, 16.
func ParseString(s string, base int) (Int, error) {
	v, ok := new(big.Int).SetString(s, base)
	if !ok {
		return Int{}, fmt.Errorf("bigint: invalid base-%d literal %q", base, s)
	}
	return Int{v: v}, nil
}

func (i Int) ensure() *big.Int {
	if i.v == nil {
		return big.NewInt(0)
	}
	return i.v
}

// Add returns a + b.
func Add(a, b Int) Int { return Int{v: new(big.Int).Add(a.ensure(), b.ensure())} }

// Sub returns a - b.
func Sub(a, b Int) Int { return Int{v: new(big.Int).Sub(a.ensure(), b.ensure())} }

// Mul returns a * b.
func Mul(a, b Int) Int { return Int{v: new(big.Int).Mul(a.ensure(), b.ensure())} }

// Div returns the truncated quotient a / b. Returns an error if b is zero.
func Div(a, b Int) (Int, error) {
	if b.ensure().Sign() == 0 {
		return Int{}, fmt.Errorf("bigint: division by zero")
	}
	return Int{v: new(big.Int).Quo(a.ensure(), b.ensure())}, nil
}

// Mod returns the truncated remainder a % b. Returns an error if b is zero.
// Uses truncated (not Euclidean) semantics, matching Rust's `%` on signed
// integers, which the grammar language's `%` operator follows.
func Mod(a, b Int) (Int, error) {
	if b.ensure().Sign() == 0 {
		return Int{}, fmt.Errorf("bigint: modulo by zero")
	}
	return Int{v: new(big.Int).Rem(a.ensure(), b.ensure())}, nil
}

// And returns the bitwise AND of a and b's two's-complement representations.
func And(a, b Int) Int { return Int{v: new(big.Int).And(a.ensure(), b.ensure())} }

// Or returns the bitwise OR of a and b's two's-complement representations.
func Or(a, b Int) Int { return Int{v: new(big.Int).Or(a.ensure(), b.ensure())} }

// Neg returns -a.
func Neg(a Int) Int { return Int{v: new(big.Int).Neg(a.ensure())} }

// Cmp returns -1, 0, or 1 as a is less than, equal to, or greater than b.
func Cmp(a, b Int) int { return a.ensure().Cmp(b.ensure()) }

// Eq reports whether a == b.
func Eq(a, b Int) bool { return Cmp(a, b) == 0 }

// Sign returns -1, 0, or 1 per the sign of the value.
func (i Int) Sign() int { return i.ensure().Sign() }

// String renders the value in base 10.
func (i Int) String() string { return i.ensure().String() }

// Hex renders the absolute value in base 16, without a sign or prefix; the
// caller composes the `0x`/`-0x` presentation.
func (i Int) Hex() string {
	abs := new(big.Int).Abs(i.ensure())
	return abs.Text(16)
}

// ToUint64 converts to a native unsigned 64-bit value, failing if the value
// is negative or does not fit.
func (i Int) ToUint64() (uint64, error) {
	v := i.ensure()
	if v.Sign() < 0 {
		return 0, fmt.Errorf("bigint: %s does not fit in u64: negative", v)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("bigint: %s does not fit in u64: overflow", v)
	}
	return v.Uint64(), nil
}

// ToInt64 converts to a native signed 64-bit value, failing if the value
// overflows the range of an int64.
func (i Int) ToInt64() (int64, error) {
	v := i.ensure()
	if !v.IsInt64() {
		return 0, fmt.Errorf("bigint: %s does not fit in i64: overflow", v)
	}
	return v.Int64(), nil
}
