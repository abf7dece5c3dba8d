// builtin_json.go — the JSON namespace.
//
// stringify walks script values directly (with cycle detection and
// indentation); parse drives a json-iterator tokenizer so object keys keep
// their document order in the resulting script object.
package jssandbox

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

func registerJSONBuiltins(ec *EvalCtx) {
	j := ec.NewObject()
	ec.setOwn(j, "stringify", ec.NewNative("stringify", jsonStringify))
	ec.setOwn(j, "parse", ec.NewNative("parse", jsonParse))
	j.frozen = true
	ec.global.define("JSON", BindVar, ObjVal(j))
}

////////////////////////////////////////////////////////////////////////////////
//                                  STRINGIFY
////////////////////////////////////////////////////////////////////////////////

func jsonStringify(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	v := arg(args, 0)

	indent := ""
	if len(args) > 2 {
		sp := args[2]
		if sp.IsNumber() {
			n := int(sp.ToInt32())
			if n > 10 {
				n = 10
			}
			if n > 0 {
				indent = strings.Repeat(" ", n)
			}
		} else if sp.IsString() {
			indent = sp.Str
			if len(indent) > 10 {
				indent = indent[:10]
			}
		}
	}

	w := &jsonWriter{ec: ec, indent: indent, seen: make(map[*Object]bool)}
	ok, c := w.write(v, "")
	if c != nil {
		return Undefined, c
	}
	if !ok {
		return Undefined, nil // undefined / function at the top level
	}
	return ec.Str(w.b.String()), nil
}

type jsonWriter struct {
	ec     *EvalCtx
	b      strings.Builder
	indent string
	seen   map[*Object]bool
}

// write serializes v; ok=false means the value is not JSON-representable
// (undefined, function) and the caller must omit it.
func (w *jsonWriter) write(v Value, prefix string) (ok bool, c *completion) {
	w.ec.meter.step()

	switch v.Tag {
	case TagUndefined:
		return false, nil
	case TagNull:
		w.b.WriteString("null")
		return true, nil
	case TagBool:
		if v.B {
			w.b.WriteString("true")
		} else {
			w.b.WriteString("false")
		}
		return true, nil
	case TagNumber:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			w.b.WriteString("null")
		} else {
			w.b.WriteString(numberToString(v.Num))
		}
		return true, nil
	case TagString:
		w.writeQuoted(v.Str)
		return true, nil
	}

	o := v.Obj
	switch o.Class {
	case ClassFunction:
		return false, nil
	case ClassDate:
		w.writeQuoted(dateToString(o.dateMs))
		return true, nil
	}

	if w.seen[o] {
		return false, w.ec.TypeError("Converting circular structure to JSON")
	}
	w.seen[o] = true
	defer delete(w.seen, o)

	inner := prefix + w.indent
	open, closing := "", ""
	if w.indent != "" {
		open, closing = "\n"+inner, "\n"+prefix
	}

	if o.Class == ClassArray {
		w.b.WriteByte('[')
		for i, el := range o.elems {
			if i > 0 {
				w.b.WriteByte(',')
			}
			w.b.WriteString(open)
			ok, c := w.write(el, inner)
			if c != nil {
				return false, c
			}
			if !ok {
				w.b.WriteString("null")
			}
		}
		if len(o.elems) > 0 {
			w.b.WriteString(closing)
		}
		w.b.WriteByte(']')
		return true, nil
	}

	keys := w.ec.enumerateKeys(v)
	w.b.WriteByte('{')
	first := true
	for _, k := range keys {
		pv, c := w.ec.getProperty(v, k, w.ec.curPos())
		if c != nil {
			return false, c
		}
		if pv.IsUndefined() || pv.IsFunction() {
			continue
		}
		if !first {
			w.b.WriteByte(',')
		}
		first = false
		w.b.WriteString(open)
		w.writeQuoted(k)
		w.b.WriteByte(':')
		if w.indent != "" {
			w.b.WriteByte(' ')
		}
		if _, c := w.write(pv, inner); c != nil {
			return false, c
		}
	}
	if !first {
		w.b.WriteString(closing)
	}
	w.b.WriteByte('}')
	return true, nil
}

func (w *jsonWriter) writeQuoted(s string) {
	w.b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			w.b.WriteString(`\"`)
		case '\\':
			w.b.WriteString(`\\`)
		case '\n':
			w.b.WriteString(`\n`)
		case '\r':
			w.b.WriteString(`\r`)
		case '\t':
			w.b.WriteString(`\t`)
		case '\b':
			w.b.WriteString(`\b`)
		case '\f':
			w.b.WriteString(`\f`)
		default:
			if r < 0x20 {
				w.b.WriteString(`\u`)
				hex := strconv.FormatInt(int64(r), 16)
				for len(hex) < 4 {
					hex = "0" + hex
				}
				w.b.WriteString(hex)
			} else {
				w.b.WriteRune(r)
			}
		}
	}
	w.b.WriteByte('"')
}

////////////////////////////////////////////////////////////////////////////////
//                                    PARSE
////////////////////////////////////////////////////////////////////////////////

func jsonParse(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	src := arg(args, 0).ToString()
	it := jsoniter.ParseString(jsoniter.ConfigDefault, src)
	v, c := decodeJSON(ec, it)
	if c != nil {
		return Undefined, c
	}
	if it.Error != nil && !errors.Is(it.Error, io.EOF) {
		return Undefined, jsonSyntaxError(ec, it.Error)
	}
	// Only whitespace may follow the top-level value. A clean end leaves the
	// iterator at io.EOF; anything else is trailing input.
	if it.WhatIsNext() != jsoniter.InvalidValue || it.Error == nil {
		return Undefined, ec.throwError("SyntaxError",
			"Unexpected non-whitespace character after JSON data", ec.curPos())
	}
	return v, nil
}

func jsonSyntaxError(ec *EvalCtx, err error) *completion {
	return ec.throwError("SyntaxError", "Unexpected token in JSON: "+err.Error(), ec.curPos())
}

func decodeJSON(ec *EvalCtx, it *jsoniter.Iterator) (Value, *completion) {
	ec.meter.step()

	switch it.WhatIsNext() {
	case jsoniter.NilValue:
		it.ReadNil()
		return Null, nil
	case jsoniter.BoolValue:
		return BoolVal(it.ReadBool()), nil
	case jsoniter.NumberValue:
		return NumberVal(it.ReadFloat64()), nil
	case jsoniter.StringValue:
		return ec.Str(it.ReadString()), nil
	case jsoniter.ArrayValue:
		var elems []Value
		var fail *completion
		it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			v, c := decodeJSON(ec, it)
			if c != nil {
				fail = c
				return false
			}
			elems = append(elems, v)
			return true
		})
		if fail != nil {
			return Undefined, fail
		}
		return ObjVal(ec.NewArray(elems)), nil
	case jsoniter.ObjectValue:
		o := ec.NewObject()
		var fail *completion
		it.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			v, c := decodeJSON(ec, it)
			if c != nil {
				fail = c
				return false
			}
			ec.setOwn(o, key, v)
			return true
		})
		if fail != nil {
			return Undefined, fail
		}
		return ObjVal(o), nil
	default:
		if it.Error != nil && !errors.Is(it.Error, io.EOF) {
			return Undefined, jsonSyntaxError(ec, it.Error)
		}
		return Undefined, ec.throwError("SyntaxError", "Unexpected end of JSON input", ec.curPos())
	}
}
