// builtin_date.go — the Date constructor and date methods.
//
// A Date is just epoch milliseconds; component accessors use UTC. The spec
// surface leaves locale behavior open, so there is none: toString is the
// ISO form and no locale-dependent method exists.
package jssandbox

import (
	"math"
	"time"
)

func registerDateBuiltins(ec *EvalCtx) {
	ctor := func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		switch len(args) {
		case 0:
			return ec.NewDate(float64(time.Now().UnixMilli())), nil
		case 1:
			a := args[0]
			if a.IsString() {
				return ec.NewDate(parseDateString(a.Str)), nil
			}
			if a.Tag == TagObject && a.Obj.Class == ClassDate {
				return ec.NewDate(a.Obj.dateMs), nil
			}
			return ec.NewDate(a.ToNumber()), nil
		default:
			// year, month[, day, hours, minutes, seconds, ms]
			get := func(i int, def int) int {
				if i < len(args) {
					return int(args[i].ToInt32())
				}
				return def
			}
			t := time.Date(get(0, 0), time.Month(get(1, 0)+1), get(2, 1),
				get(3, 0), get(4, 0), get(5, 0), get(6, 0)*int(time.Millisecond), time.UTC)
			return ec.NewDate(float64(t.UnixMilli())), nil
		}
	}
	fn := ec.NewNative("Date", func(ec *EvalCtx, _ Value, _ []Value) (Value, *completion) {
		// Date() without new returns the current time as a string, per ES.
		return ec.Str(dateToString(float64(time.Now().UnixMilli()))), nil
	})
	fn.Obj.fun.Ctor = ctor

	ec.setOwn(fn.Obj, "now", ec.NewNative("now", func(ec *EvalCtx, _ Value, _ []Value) (Value, *completion) {
		return NumberVal(float64(time.Now().UnixMilli())), nil
	}))
	ec.setOwn(fn.Obj, "parse", ec.NewNative("parse", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		return NumberVal(parseDateString(arg(args, 0).ToString())), nil
	}))

	ec.global.define("Date", BindVar, fn)
}

func parseDateString(s string) float64 {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.000Z0700",
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixMilli())
		}
	}
	return math.NaN()
}

// dateToString renders the ISO-8601 form used by toString/toISOString and
// string coercion.
func dateToString(ms float64) string {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return "Invalid Date"
	}
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02T15:04:05.000Z")
}

func dateTime(this Value) time.Time {
	return time.UnixMilli(int64(this.Obj.dateMs)).UTC()
}

var dateMethods = map[string]NativeFn{
	"getTime": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return NumberVal(this.Obj.dateMs), nil
	},
	"valueOf": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return NumberVal(this.Obj.dateMs), nil
	},
	"getFullYear": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Year())), nil
	},
	"getMonth": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Month() - 1)), nil
	},
	"getDate": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Day())), nil
	},
	"getDay": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Weekday())), nil
	},
	"getHours": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Hour())), nil
	},
	"getMinutes": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Minute())), nil
	},
	"getSeconds": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Second())), nil
	},
	"getMilliseconds": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return IntVal(int64(dateTime(this).Nanosecond() / int(time.Millisecond))), nil
	},
	"toISOString": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		if math.IsNaN(this.Obj.dateMs) {
			return Undefined, ec.throwError("RangeError", "Invalid time value", ec.curPos())
		}
		return ec.Str(dateToString(this.Obj.dateMs)), nil
	},
	"toString": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
		return ec.Str(dateToString(this.Obj.dateMs)), nil
	},
}
