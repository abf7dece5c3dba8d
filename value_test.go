// value_test.go
package jssandbox

import (
	"math"
	"testing"
)

func Test_Value_TypeOf(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Undefined, "undefined"},
		{Null, "object"},
		{BoolVal(true), "boolean"},
		{NumberVal(1), "number"},
		{StringVal(""), "string"},
		{ObjVal(&Object{}), "object"},
	}
	for _, c := range cases {
		if got := c.v.TypeOf(); got != c.want {
			t.Fatalf("TypeOf(%v): want %q, got %q", c.v, c.want, got)
		}
	}
	fn := ObjVal(&Object{Class: ClassFunction, fun: &Fun{Name: "f"}})
	if got := fn.TypeOf(); got != "function" {
		t.Fatalf("TypeOf(function): want function, got %q", got)
	}
}

func Test_Value_ToBoolean(t *testing.T) {
	falsy := []Value{Undefined, Null, BoolVal(false), NumberVal(0), NumberVal(math.NaN()), StringVal("")}
	for _, v := range falsy {
		if v.ToBoolean() {
			t.Fatalf("%v must be falsy", v)
		}
	}
	truthy := []Value{BoolVal(true), NumberVal(-1), StringVal("0"), StringVal("false"), ObjVal(&Object{})}
	for _, v := range truthy {
		if !v.ToBoolean() {
			t.Fatalf("%v must be truthy", v)
		}
	}
}

func Test_Value_ToNumber(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
	}{
		{Null, 0},
		{BoolVal(true), 1},
		{BoolVal(false), 0},
		{StringVal(""), 0},
		{StringVal("  42  "), 42},
		{StringVal("3.5e2"), 350},
		{StringVal("0x10"), 16},
		{StringVal("0b101"), 5},
		{StringVal("0o17"), 15},
		{StringVal("Infinity"), math.Inf(1)},
		{StringVal("-Infinity"), math.Inf(-1)},
	}
	for _, c := range cases {
		if got := c.v.ToNumber(); got != c.want {
			t.Fatalf("ToNumber(%v): want %v, got %v", c.v, c.want, got)
		}
	}
	nans := []Value{Undefined, StringVal("abc"), StringVal("12px"), StringVal("-0x10"), StringVal("1.2.3")}
	for _, v := range nans {
		if !math.IsNaN(v.ToNumber()) {
			t.Fatalf("ToNumber(%v): want NaN, got %v", v, v.ToNumber())
		}
	}
}

func Test_Value_NumberToString(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-1.5, "-1.5"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{1e-6, "0.000001"},
		{1e-7, "1e-7"},
		{1.5e-8, "1.5e-8"},
		{123456789, "123456789"},
	}
	for _, c := range cases {
		if got := numberToString(c.n); got != c.want {
			t.Fatalf("numberToString(%v): want %q, got %q", c.n, c.want, got)
		}
	}
}

func Test_Value_FixExponent(t *testing.T) {
	cases := map[string]string{
		"1.5e-08": "1.5e-8",
		"1e+21":   "1e+21",
		"2e-07":   "2e-7",
		"3.25":    "3.25",
	}
	for in, want := range cases {
		if got := fixExponent(in); got != want {
			t.Fatalf("fixExponent(%q): want %q, got %q", in, want, got)
		}
	}
}

func Test_Value_StrictEquals(t *testing.T) {
	o := ObjVal(&Object{})
	if !StrictEquals(NumberVal(1), NumberVal(1)) ||
		!StrictEquals(StringVal("a"), StringVal("a")) ||
		!StrictEquals(Undefined, Undefined) ||
		!StrictEquals(Null, Null) ||
		!StrictEquals(o, o) {
		t.Fatal("identical values must be strictly equal")
	}
	if StrictEquals(NumberVal(math.NaN()), NumberVal(math.NaN())) {
		t.Fatal("NaN === NaN must be false")
	}
	if !StrictEquals(NumberVal(0), NumberVal(math.Copysign(0, -1))) {
		t.Fatal("0 === -0 must be true")
	}
	if StrictEquals(Null, Undefined) {
		t.Fatal("null === undefined must be false")
	}
	if StrictEquals(o, ObjVal(&Object{})) {
		t.Fatal("distinct objects must not be strictly equal")
	}
}

func Test_Value_SameValueZero(t *testing.T) {
	if !SameValueZero(NumberVal(math.NaN()), NumberVal(math.NaN())) {
		t.Fatal("SameValueZero(NaN, NaN) must be true")
	}
	if !SameValueZero(NumberVal(0), NumberVal(math.Copysign(0, -1))) {
		t.Fatal("SameValueZero(0, -0) must be true")
	}
}

func Test_Value_LooseEquals(t *testing.T) {
	eq := [][2]Value{
		{Null, Undefined},
		{NumberVal(1), StringVal("1")},
		{BoolVal(true), NumberVal(1)},
		{BoolVal(false), StringVal("0")},
		{StringVal(""), NumberVal(0)},
	}
	for _, p := range eq {
		if !LooseEquals(p[0], p[1]) || !LooseEquals(p[1], p[0]) {
			t.Fatalf("%v == %v must hold both ways", p[0], p[1])
		}
	}
	ne := [][2]Value{
		{Null, NumberVal(0)},
		{Undefined, NumberVal(0)},
		{NumberVal(math.NaN()), NumberVal(math.NaN())},
		{StringVal("a"), NumberVal(0)},
	}
	for _, p := range ne {
		if LooseEquals(p[0], p[1]) {
			t.Fatalf("%v == %v must be false", p[0], p[1])
		}
	}
}

func Test_Value_ToInt32_ToUint32(t *testing.T) {
	if got := NumberVal(math.Pow(2, 32) + 5).ToInt32(); got != 5 {
		t.Fatalf("ToInt32(2^32+5): want 5, got %d", got)
	}
	if got := NumberVal(-1).ToUint32(); got != math.MaxUint32 {
		t.Fatalf("ToUint32(-1): want %d, got %d", uint32(math.MaxUint32), got)
	}
	if got := NumberVal(math.NaN()).ToInt32(); got != 0 {
		t.Fatalf("ToInt32(NaN): want 0, got %d", got)
	}
	if got := NumberVal(3.9).ToInt32(); got != 3 {
		t.Fatalf("ToInt32(3.9): want 3, got %d", got)
	}
}

func Test_Value_U16_Helpers(t *testing.T) {
	// "😀" is one code point encoded as a surrogate pair
	s := "a😀b"
	if got := u16Len(s); got != 4 {
		t.Fatalf("u16Len: want 4, got %d", got)
	}
	if got := u16Slice(s, 1, 3); got != "😀" {
		t.Fatalf("u16Slice over the pair: want the emoji, got %q", got)
	}
	if got := u16CodeUnitAt(s, 0); got != 'a' {
		t.Fatalf("u16CodeUnitAt(0): want 'a', got %d", got)
	}
	if got := u16CodeUnitAt(s, 1); got != 0xD83D {
		t.Fatalf("u16CodeUnitAt(1): want high surrogate 0xD83D, got %#x", got)
	}
	if got := u16CodeUnitAt(s, 9); got != -1 {
		t.Fatalf("u16CodeUnitAt out of range: want -1, got %d", got)
	}
}

func Test_Value_TagString(t *testing.T) {
	cases := map[ValueTag]string{
		TagUndefined: "UNDEFINED",
		TagNull:      "NULL",
		TagBool:      "BOOLEAN",
		TagNumber:    "NUMBER",
		TagString:    "STRING",
		TagObject:    "OBJECT",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Fatalf("ValueTag(%d).String(): want %q, got %q", tag, want, got)
		}
	}
}
