package bigint

import "testing"

func TestArithmeticNeverWraps(t *testing.T) {
	maxU64 := FromUint64(^uint64(0))
	one := FromInt64(1)
	sum := Add(maxU64, one)

	got, err := sum.ToUint64()
	if err == nil {
		t.Fatalf("expected overflow converting %s to u64, got %d", sum, got)
	}
	if sum.String() != "18446744073709551616" {
		t.Fatalf("expected exact arbitrary-precision sum, got %s", sum)
	}
}

func TestFromBytesSignExtension(t *testing.T) {
	unsigned := FromBytes([]byte{0xff}, false)
	if unsigned.String() != "255" {
		t.Fatalf("unsigned 0xff should be 255, got %s", unsigned)
	}

	signed := FromBytes([]byte{0xff}, true)
	if signed.String() != "-1" {
		t.Fatalf("signed 0xff should be -1, got %s", signed)
	}
}

func TestParseStringBases(t *testing.T) {
	cases := []struct {
		s    string
		base int
		want string
	}{
		{"1010", 2, "10"},
		{"17", 8, "15"},
		{"42", 10, "42"},
		{"ff", 16, "255"},
	}
	for _, c := range cases {
		got, err := ParseString(c.s, c.base)
		if err != nil {
			t.Fatalf("ParseString(%q, %d): %v", c.s, c.base, err)
		}
		if got.String() != c.want {
			t.Fatalf("ParseString(%q, %d) = %s, want %s", c.s, c.base, got, c.want)
		}
	}
}

func TestDivModByZero(t *testing.T) {
	a := FromInt64(10)
	zero := Zero
	if _, err := Div(a, zero); err == nil {
		t.Fatalf("expected division by zero to error")
	}
	if _, err := Mod(a, zero); err == nil {
		t.Fatalf("expected modulo by zero to error")
	}
}

func TestModTruncatesTowardZero(t *testing.T) {
	a := FromInt64(-7)
	b := FromInt64(2)
	got, err := Mod(a, b)
	if err != nil {
		t.Fatalf("Mod: %v", err)
	}
	if got.String() != "-1" {
		t.Fatalf("truncated -7 %% 2 should be -1, got %s", got)
	}
}

func TestBitwiseAndOr(t *testing.T) {
	a := FromInt64(0b1100)
	b := FromInt64(0b1010)
	if got := And(a, b); got.String() != "8" {
		t.Fatalf("0b1100 & 0b1010 should be 8, got %s", got)
	}
	if got := Or(a, b); got.String() != "14" {
		t.Fatalf("0b1100 | 0b1010 should be 14, got %s", got)
	}
}

func TestComparisons(t *testing.T) {
	a := FromInt64(5)
	b := FromInt64(7)
	if Cmp(a, b) >= 0 {
		t.Fatalf("expected 5 < 7")
	}
	if !Eq(a, FromInt64(5)) {
		t.Fatalf("expected 5 == 5")
	}
	if Neg(a).Sign() != -1 {
		t.Fatalf("expected -5 to have negative sign")
	}
}
