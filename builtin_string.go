// builtin_string.go — the String constructor and string methods.
//
// All indexing is in UTF-16 code units (u16* helpers in value.go). Every
// produced string goes through ec.Str so its bytes are charged.
package jssandbox

import (
	"math"
	"strings"
	"unicode/utf16"
)

func registerStringBuiltins(ec *EvalCtx) {
	ctor := func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		if len(args) == 0 {
			return ec.Str(""), nil
		}
		return ec.Str(args[0].ToString()), nil
	}
	fn := ec.NewNative("String", ctor)
	f := fn.Obj

	ec.setOwn(f, "fromCharCode", ec.NewNative("fromCharCode", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		units := make([]uint16, len(args))
		for i, a := range args {
			units[i] = uint16(a.ToUint32())
		}
		return ec.Str(string(utf16.Decode(units))), nil
	}))

	ec.global.define("String", BindVar, fn)
}

// stringMethods dispatches `"...".method`; the receiver arrives as this.
// Assigned in init: stringReplace calls back into the evaluator, and a
// composite-literal initializer would form an initialization cycle.
var stringMethods map[string]NativeFn

func init() {
	stringMethods = map[string]NativeFn{
		"charAt":      stringCharAt,
		"charCodeAt":  stringCharCodeAt,
		"indexOf":     stringIndexOf,
		"lastIndexOf": stringLastIndexOf,
		"includes":    stringIncludes,
		"startsWith":  stringStartsWith,
		"endsWith":    stringEndsWith,
		"slice":       stringSlice,
		"substring":   stringSubstring,
		"toUpperCase": stringToUpperCase,
		"toLowerCase": stringToLowerCase,
		"trim":        stringTrim,
		"split":       stringSplit,
		"repeat":      stringRepeat,
		"concat":      stringConcat,
		"padStart":    stringPadStart,
		"padEnd":      stringPadEnd,
		"replace":     stringReplace,
		"match":       stringNoRegexp,
		"search":      stringNoRegexp,
		"toString":    stringToStringM,
		"valueOf":     stringToStringM,
	}
}

func stringToStringM(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	return this, nil
}

func stringNoRegexp(ec *EvalCtx, _ Value, _ []Value) (Value, *completion) {
	return Undefined, ec.TypeError("RegExp is not supported")
}

// relIndex clamps an ES relative index (negative counts from the end).
func relIndex(v Value, length int, def int) int {
	if v.IsUndefined() {
		return def
	}
	f := v.ToNumber()
	if math.IsNaN(f) {
		return 0
	}
	n := int(math.Trunc(f))
	if n < 0 {
		n += length
	}
	if n < 0 {
		return 0
	}
	if n > length {
		return length
	}
	return n
}

func stringCharAt(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	s := this.Str
	i := int(arg(args, 0).ToInt32())
	if i < 0 || i >= u16Len(s) {
		return ec.Str(""), nil
	}
	return ec.Str(u16Slice(s, i, i+1)), nil
}

func stringCharCodeAt(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	u := u16CodeUnitAt(this.Str, int(arg(args, 0).ToInt32()))
	if u < 0 {
		return NumberVal(math.NaN()), nil
	}
	return IntVal(int64(u)), nil
}

func stringIndexOf(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	s, sub := this.Str, arg(args, 0).ToString()
	if isASCII(s) && isASCII(sub) {
		return IntVal(int64(strings.Index(s, sub))), nil
	}
	return IntVal(int64(u16Index(s, sub, 0))), nil
}

func stringLastIndexOf(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	s, sub := this.Str, arg(args, 0).ToString()
	if isASCII(s) && isASCII(sub) {
		return IntVal(int64(strings.LastIndex(s, sub))), nil
	}
	units := utf16.Encode([]rune(s))
	needle := utf16.Encode([]rune(sub))
	for i := len(units) - len(needle); i >= 0; i-- {
		if u16Match(units, needle, i) {
			return IntVal(int64(i)), nil
		}
	}
	return IntVal(-1), nil
}

// u16Index finds sub in s from code-unit offset from, in UTF-16 units.
func u16Index(s, sub string, from int) int {
	units := utf16.Encode([]rune(s))
	needle := utf16.Encode([]rune(sub))
	for i := from; i+len(needle) <= len(units); i++ {
		if u16Match(units, needle, i) {
			return i
		}
	}
	return -1
}

func u16Match(units, needle []uint16, at int) bool {
	for j := range needle {
		if units[at+j] != needle[j] {
			return false
		}
	}
	return true
}

func stringIncludes(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	return BoolVal(strings.Contains(this.Str, arg(args, 0).ToString())), nil
}

func stringStartsWith(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	return BoolVal(strings.HasPrefix(this.Str, arg(args, 0).ToString())), nil
}

func stringEndsWith(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	return BoolVal(strings.HasSuffix(this.Str, arg(args, 0).ToString())), nil
}

func stringSlice(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	n := u16Len(this.Str)
	start := relIndex(arg(args, 0), n, 0)
	end := relIndex(arg(args, 1), n, n)
	if start >= end {
		return ec.Str(""), nil
	}
	return ec.Str(u16Slice(this.Str, start, end)), nil
}

func stringSubstring(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	n := u16Len(this.Str)
	a := clampIndex(arg(args, 0), n, 0)
	b := clampIndex(arg(args, 1), n, n)
	if a > b {
		a, b = b, a
	}
	return ec.Str(u16Slice(this.Str, a, b)), nil
}

// clampIndex is relIndex without the from-the-end behavior (substring).
func clampIndex(v Value, length, def int) int {
	if v.IsUndefined() {
		return def
	}
	f := v.ToNumber()
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	n := int(math.Trunc(f))
	if n > length {
		return length
	}
	return n
}

func stringToUpperCase(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	return ec.Str(strings.ToUpper(this.Str)), nil
}

func stringToLowerCase(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	return ec.Str(strings.ToLower(this.Str)), nil
}

func stringTrim(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	return ec.Str(strings.TrimSpace(this.Str)), nil
}

func stringSplit(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	sep := arg(args, 0)
	if sep.IsUndefined() {
		return ObjVal(ec.NewArray([]Value{this})), nil
	}
	var parts []string
	if s := sep.ToString(); s == "" {
		runes := []rune(this.Str)
		parts = make([]string, len(runes))
		for i, r := range runes {
			parts[i] = string(r)
		}
	} else {
		parts = strings.Split(this.Str, s)
	}
	limit := len(parts)
	if len(args) > 1 && !args[1].IsUndefined() {
		if l := int(args[1].ToUint32()); l < limit {
			limit = l
		}
	}
	elems := make([]Value, limit)
	for i := 0; i < limit; i++ {
		elems[i] = ec.Str(parts[i])
	}
	return ObjVal(ec.NewArray(elems)), nil
}

// stringRepeat charges memory as repeated concatenation: each round charges
// the running length, mirroring what a script loop doing s += s would pay.
// Large counts therefore hit the memory limit long before the final string
// is materialized.
func stringRepeat(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	f := arg(args, 0).ToNumber()
	if f < 0 || math.IsInf(f, 0) {
		return Undefined, ec.throwError("RangeError", "Invalid count value", ec.curPos())
	}
	count := int(f)
	step := len(this.Str)
	// An empty receiver produces nothing no matter the count; bail before
	// the charging loop, which would otherwise spin count times charging
	// zero bytes.
	if step == 0 || count == 0 {
		return ec.Str(""), nil
	}
	for i, running := 1, step; i <= count; i, running = i+1, running+step {
		ec.meter.step()
		ec.meter.charge(int64(running))
	}
	return StringVal(strings.Repeat(this.Str, count)), nil
}

func stringConcat(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	var b strings.Builder
	b.WriteString(this.Str)
	for _, a := range args {
		b.WriteString(a.ToString())
	}
	return ec.Str(b.String()), nil
}

func stringPadStart(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	return stringPad(ec, this, args, true)
}

func stringPadEnd(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	return stringPad(ec, this, args, false)
}

func stringPad(ec *EvalCtx, this Value, args []Value, start bool) (Value, *completion) {
	target := int(arg(args, 0).ToInt32())
	fill := " "
	if len(args) > 1 && !args[1].IsUndefined() {
		fill = args[1].ToString()
	}
	n := u16Len(this.Str)
	if target <= n || fill == "" {
		return this, nil
	}
	need := target - n
	var b strings.Builder
	for u16Len(b.String()) < need {
		ec.meter.chargeString(len(fill))
		b.WriteString(fill)
	}
	pad := u16Slice(b.String(), 0, need)
	if start {
		return ec.Str(pad + this.Str), nil
	}
	return ec.Str(this.Str + pad), nil
}

// stringReplace supports string patterns only; the first occurrence is
// replaced, per ES.
func stringReplace(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	pat := arg(args, 0)
	if pat.Tag == TagObject {
		return Undefined, ec.TypeError("RegExp is not supported")
	}
	p := pat.ToString()
	idx := strings.Index(this.Str, p)
	if idx < 0 {
		return this, nil
	}
	rep := arg(args, 1)
	var replacement string
	if rep.IsFunction() {
		rv, c := ec.Call(rep, Undefined, ec.Str(p))
		if c != nil {
			return Undefined, c
		}
		replacement = rv.ToString()
	} else {
		replacement = rep.ToString()
	}
	return ec.Str(this.Str[:idx] + replacement + this.Str[idx+len(p):]), nil
}
