// builtin_global.go — global scope setup: top-level functions, constants,
// constructors and namespaces.
package jssandbox

import (
	"math"
	"strings"
)

// setupGlobals seeds the global scope of a fresh EvalCtx. Caller globals are
// installed afterwards and may shadow anything registered here.
func setupGlobals(ec *EvalCtx) {
	g := ec.global

	g.define("NaN", BindConst, NumberVal(math.NaN()))
	g.define("Infinity", BindConst, NumberVal(math.Inf(1)))
	g.define("globalThis", BindConst, Undefined)

	g.define("parseInt", BindVar, ec.NewNative("parseInt", builtinParseInt))
	g.define("parseFloat", BindVar, ec.NewNative("parseFloat", builtinParseFloat))
	g.define("isNaN", BindVar, ec.NewNative("isNaN", builtinIsNaN))
	g.define("isFinite", BindVar, ec.NewNative("isFinite", builtinIsFinite))

	registerObjectBuiltins(ec)
	registerArrayBuiltins(ec)
	registerStringBuiltins(ec)
	registerNumberBuiltins(ec)
	registerBooleanBuiltins(ec)
	registerMathBuiltins(ec)
	registerDateBuiltins(ec)
	registerJSONBuiltins(ec)
	registerErrorBuiltins(ec)
	registerConsoleBuiltins(ec)

	// Regular expressions are excluded from the engine; the constructor
	// exists only to fail with a clear message.
	regexp := ec.NewNative("RegExp", func(ec *EvalCtx, _ Value, _ []Value) (Value, *completion) {
		return Undefined, ec.TypeError("RegExp is not supported")
	})
	regexp.Obj.fun.Ctor = regexp.Obj.fun.Native
	g.define("RegExp", BindVar, regexp)
}

////////////////////////////////////////////////////////////////////////////////
//                          TOP-LEVEL NUMERIC PARSING
////////////////////////////////////////////////////////////////////////////////

func builtinParseInt(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	s := strings.TrimSpace(arg(args, 0).ToString())
	radix := 0
	if len(args) > 1 && !args[1].IsUndefined() {
		radix = int(args[1].ToInt32())
	}

	sign := 1.0
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = -1
		}
		s = s[1:]
	}
	if radix == 16 || radix == 0 {
		if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
			s = s[2:]
			radix = 16
		}
	}
	if radix == 0 {
		radix = 10
	}
	if radix < 2 || radix > 36 {
		return NumberVal(math.NaN()), nil
	}

	var n float64
	digits := 0
	for i := 0; i < len(s); i++ {
		d := digitValue(s[i])
		if d < 0 || d >= radix {
			break
		}
		n = n*float64(radix) + float64(d)
		digits++
	}
	if digits == 0 {
		return NumberVal(math.NaN()), nil
	}
	return NumberVal(sign * n), nil
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return -1
	}
}

func builtinParseFloat(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	s := strings.TrimSpace(arg(args, 0).ToString())

	// Longest prefix that is a valid decimal literal (with optional sign,
	// Infinity included).
	end := 0
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	if strings.HasPrefix(s[i:], "Infinity") {
		end = i + len("Infinity")
	} else {
		sawDigit := false
		sawDot := false
		for ; i < len(s); i++ {
			c := s[i]
			if c >= '0' && c <= '9' {
				sawDigit = true
				end = i + 1
				continue
			}
			if c == '.' && !sawDot {
				sawDot = true
				continue
			}
			if (c == 'e' || c == 'E') && sawDigit {
				j := i + 1
				if j < len(s) && (s[j] == '+' || s[j] == '-') {
					j++
				}
				if j < len(s) && s[j] >= '0' && s[j] <= '9' {
					for j < len(s) && s[j] >= '0' && s[j] <= '9' {
						j++
					}
					end = j
				}
			}
			break
		}
	}
	if end == 0 {
		return NumberVal(math.NaN()), nil
	}
	return NumberVal(stringToNumber(s[:end])), nil
}

func builtinIsNaN(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	return BoolVal(math.IsNaN(arg(args, 0).ToNumber())), nil
}

func builtinIsFinite(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	f := arg(args, 0).ToNumber()
	return BoolVal(!math.IsNaN(f) && !math.IsInf(f, 0)), nil
}

////////////////////////////////////////////////////////////////////////////////
//                                   ERRORS
////////////////////////////////////////////////////////////////////////////////

func registerErrorBuiltins(ec *EvalCtx) {
	for _, name := range []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError"} {
		n := name
		ctor := func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			msg := ""
			if len(args) > 0 && !args[0].IsUndefined() {
				msg = args[0].ToString()
			}
			return ec.NewError(n, msg), nil
		}
		fn := ec.NewNative(n, ctor)
		fn.Obj.fun.Ctor = ctor
		ec.global.define(n, BindVar, fn)
	}
}

////////////////////////////////////////////////////////////////////////////////
//                                   CONSOLE
////////////////////////////////////////////////////////////////////////////////

// registerConsoleBuiltins routes console output to the context's structured
// logger. Scripts cannot reach host I/O; the log sink is the host's choice.
func registerConsoleBuiltins(ec *EvalCtx) {
	console := ec.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		lv := level
		ec.setOwn(console, lv, ec.NewNative(lv, func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			if ec.logger == nil {
				return Undefined, nil
			}
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.ToString()
			}
			msg := strings.Join(parts, " ")
			switch lv {
			case "warn":
				ec.logger.Warn(msg)
			case "error":
				ec.logger.Error(msg)
			case "debug":
				ec.logger.Debug(msg)
			default:
				ec.logger.Info(msg)
			}
			return Undefined, nil
		}))
	}
	console.frozen = true
	ec.global.define("console", BindVar, ObjVal(console))
}
