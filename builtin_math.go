// builtin_math.go — the Math namespace. Semantics follow ES6 defaults;
// Math.round rounds half toward positive infinity, unlike Go's math.Round.
package jssandbox

import (
	"math"
	"math/rand"
)

func registerMathBuiltins(ec *EvalCtx) {
	m := ec.NewObject()

	ec.setOwn(m, "PI", NumberVal(math.Pi))
	ec.setOwn(m, "E", NumberVal(math.E))
	ec.setOwn(m, "LN2", NumberVal(math.Ln2))
	ec.setOwn(m, "LN10", NumberVal(math.Log(10)))
	ec.setOwn(m, "LOG2E", NumberVal(1/math.Ln2))
	ec.setOwn(m, "LOG10E", NumberVal(1/math.Log(10)))
	ec.setOwn(m, "SQRT2", NumberVal(math.Sqrt2))
	ec.setOwn(m, "SQRT1_2", NumberVal(1/math.Sqrt2))

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"trunc": math.Trunc,
		"sqrt":  math.Sqrt,
		"cbrt":  math.Cbrt,
		"exp":   math.Exp,
		"log":   math.Log,
		"log2":  math.Log2,
		"log10": math.Log10,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"asin":  math.Asin,
		"acos":  math.Acos,
		"atan":  math.Atan,
		"sinh":  math.Sinh,
		"cosh":  math.Cosh,
		"tanh":  math.Tanh,
	}
	for name, f := range unary {
		fn := f
		ec.setOwn(m, name, ec.NewNative(name, func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			return NumberVal(fn(arg(args, 0).ToNumber())), nil
		}))
	}

	ec.setOwn(m, "round", ec.NewNative("round", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		f := arg(args, 0).ToNumber()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return NumberVal(f), nil
		}
		return NumberVal(math.Floor(f + 0.5)), nil
	}))

	ec.setOwn(m, "sign", ec.NewNative("sign", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		f := arg(args, 0).ToNumber()
		switch {
		case math.IsNaN(f):
			return NumberVal(f), nil
		case f > 0:
			return IntVal(1), nil
		case f < 0:
			return IntVal(-1), nil
		default:
			return NumberVal(f), nil // preserves signed zero
		}
	}))

	ec.setOwn(m, "pow", ec.NewNative("pow", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		return NumberVal(math.Pow(arg(args, 0).ToNumber(), arg(args, 1).ToNumber())), nil
	}))

	ec.setOwn(m, "atan2", ec.NewNative("atan2", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		return NumberVal(math.Atan2(arg(args, 0).ToNumber(), arg(args, 1).ToNumber())), nil
	}))

	ec.setOwn(m, "hypot", ec.NewNative("hypot", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		sum := 0.0
		for _, a := range args {
			f := a.ToNumber()
			sum += f * f
		}
		return NumberVal(math.Sqrt(sum)), nil
	}))

	ec.setOwn(m, "min", ec.NewNative("min", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		out := math.Inf(1)
		for _, a := range args {
			f := a.ToNumber()
			if math.IsNaN(f) {
				return NumberVal(f), nil
			}
			if f < out {
				out = f
			}
		}
		return NumberVal(out), nil
	}))

	ec.setOwn(m, "max", ec.NewNative("max", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		out := math.Inf(-1)
		for _, a := range args {
			f := a.ToNumber()
			if math.IsNaN(f) {
				return NumberVal(f), nil
			}
			if f > out {
				out = f
			}
		}
		return NumberVal(out), nil
	}))

	ec.setOwn(m, "random", ec.NewNative("random", func(ec *EvalCtx, _ Value, _ []Value) (Value, *completion) {
		return NumberVal(rand.Float64()), nil
	}))

	m.frozen = true
	ec.global.define("Math", BindVar, ObjVal(m))
}
