// builtin_number.go — the Number and Boolean constructors and the methods
// reachable on number and boolean primitives.
package jssandbox

import (
	"math"
	"strconv"
)

func registerNumberBuiltins(ec *EvalCtx) {
	ctor := func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		if len(args) == 0 {
			return IntVal(0), nil
		}
		return NumberVal(args[0].ToNumber()), nil
	}
	fn := ec.NewNative("Number", ctor)
	f := fn.Obj

	ec.setOwn(f, "MAX_SAFE_INTEGER", NumberVal(9007199254740991))
	ec.setOwn(f, "MIN_SAFE_INTEGER", NumberVal(-9007199254740991))
	ec.setOwn(f, "MAX_VALUE", NumberVal(math.MaxFloat64))
	ec.setOwn(f, "MIN_VALUE", NumberVal(5e-324))
	ec.setOwn(f, "EPSILON", NumberVal(2.220446049250313e-16))
	ec.setOwn(f, "POSITIVE_INFINITY", NumberVal(math.Inf(1)))
	ec.setOwn(f, "NEGATIVE_INFINITY", NumberVal(math.Inf(-1)))
	ec.setOwn(f, "NaN", NumberVal(math.NaN()))

	ec.setOwn(f, "isInteger", ec.NewNative("isInteger", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		v := arg(args, 0)
		return BoolVal(v.IsNumber() && !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0) && v.Num == math.Trunc(v.Num)), nil
	}))
	ec.setOwn(f, "isFinite", ec.NewNative("isFinite", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		v := arg(args, 0)
		return BoolVal(v.IsNumber() && !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0)), nil
	}))
	ec.setOwn(f, "isNaN", ec.NewNative("isNaN", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		v := arg(args, 0)
		return BoolVal(v.IsNumber() && math.IsNaN(v.Num)), nil
	}))
	ec.setOwn(f, "parseFloat", ec.NewNative("parseFloat", builtinParseFloat))
	ec.setOwn(f, "parseInt", ec.NewNative("parseInt", builtinParseInt))

	ec.global.define("Number", BindVar, fn)
}

func registerBooleanBuiltins(ec *EvalCtx) {
	ctor := func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		return BoolVal(arg(args, 0).ToBoolean()), nil
	}
	ec.global.define("Boolean", BindVar, ec.NewNative("Boolean", ctor))
}

var numberMethods = map[string]NativeFn{
	"toString":    numberToStringM,
	"valueOf":     numberValueOf,
	"toFixed":     numberToFixed,
	"toPrecision": numberToPrecision,
}

// primitiveCommonMethods back boolean receivers.
var primitiveCommonMethods = map[string]NativeFn{
	"toString": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return ec.Str(this.ToString()), nil
	},
	"valueOf": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return this, nil
	},
}

func numberValueOf(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	return this, nil
}

func numberToStringM(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	if len(args) == 0 || args[0].IsUndefined() {
		return ec.Str(numberToString(this.Num)), nil
	}
	radix := int(args[0].ToInt32())
	if radix < 2 || radix > 36 {
		return Undefined, ec.throwError("RangeError",
			"toString() radix must be between 2 and 36", ec.curPos())
	}
	if radix == 10 {
		return ec.Str(numberToString(this.Num)), nil
	}
	f := this.Num
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ec.Str(numberToString(f)), nil
	}
	neg := f < 0
	n := int64(math.Trunc(math.Abs(f)))
	s := strconv.FormatInt(n, radix)
	if neg {
		s = "-" + s
	}
	return ec.Str(s), nil
}

func numberToFixed(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	d := int(arg(args, 0).ToInt32())
	if d < 0 || d > 100 {
		return Undefined, ec.throwError("RangeError",
			"toFixed() digits argument must be between 0 and 100", ec.curPos())
	}
	return ec.Str(strconv.FormatFloat(this.Num, 'f', d, 64)), nil
}

func numberToPrecision(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	if len(args) == 0 || args[0].IsUndefined() {
		return ec.Str(numberToString(this.Num)), nil
	}
	p := int(args[0].ToInt32())
	if p < 1 || p > 100 {
		return Undefined, ec.throwError("RangeError",
			"toPrecision() argument must be between 1 and 100", ec.curPos())
	}
	s := strconv.FormatFloat(this.Num, 'g', p, 64)
	return ec.Str(fixExponent(s)), nil
}
