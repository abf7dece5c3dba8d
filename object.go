// object.go — heap objects: plain objects, arrays, functions, dates, host
// objects and dynamic-property objects.
//
// Every object is a string-keyed property table with insertion-order
// iteration (integer-like keys enumerate first in ascending numeric order,
// matching ES), plus optional indexed storage for arrays. `length` of an
// array is reified: it is derived from the element slice and maintained on
// every indexed write.
//
// Objects never leave their EvalCtx; the interpreter is the only writer, so
// there is no locking here.
package jssandbox

import (
	"sort"
	"strconv"
)

// Class is the internal class tag of an object.
type Class uint8

const (
	ClassObject Class = iota
	ClassArray
	ClassString // boxed string (internal use by primitives)
	ClassDate
	ClassFunction
	ClassError
	ClassHost        // opaque host handle
	ClassDynamicHost // properties resolved through a DynamicPropResolver
)

func (c Class) String() string {
	switch c {
	case ClassArray:
		return "Array"
	case ClassString:
		return "String"
	case ClassDate:
		return "Date"
	case ClassFunction:
		return "Function"
	case ClassError:
		return "Error"
	case ClassHost:
		return "Host"
	case ClassDynamicHost:
		return "DynamicHost"
	default:
		return "Object"
	}
}

// Object is a heap slot. Which fields are meaningful depends on Class.
type Object struct {
	Class Class

	props propTable

	// ClassArray
	elems []Value

	// ClassFunction
	fun *Fun

	// ClassDate: milliseconds since the Unix epoch
	dateMs float64

	// ClassHost: the opaque host value, identity-preserved
	host any

	// ClassDynamicHost
	dyn DynamicPropResolver

	// script constructor this object was built with, for instanceof
	ctor *Fun

	frozen bool
}

// Fun is the payload of a function object: either a script closure or a
// native (host/builtin) implementation.
type Fun struct {
	Name string

	// Script function.
	Decl *FuncLit
	Env  *Env // captured lexical scope

	// Arrow functions capture `this` from the defining activation.
	This     Value
	HasThis  bool

	// Native function; nil for script functions.
	Native NativeFn

	// Ctor, when set on a native, services `new` (Date, Error, ...).
	Ctor NativeFn
}

// NativeFn is the calling convention of builtins and host methods. A non-nil
// completion is always a throw.
type NativeFn func(ec *EvalCtx, this Value, args []Value) (Value, *completion)

////////////////////////////////////////////////////////////////////////////////
//                            ORDERED PROPERTY TABLE
////////////////////////////////////////////////////////////////////////////////

type propTable struct {
	keys []string
	vals map[string]Value
}

func (t *propTable) len() int { return len(t.keys) }

func (t *propTable) get(k string) (Value, bool) {
	if t.vals == nil {
		return Undefined, false
	}
	v, ok := t.vals[k]
	return v, ok
}

// set stores k=v and reports whether the key is new.
func (t *propTable) set(k string, v Value) bool {
	if t.vals == nil {
		t.vals = make(map[string]Value, 4)
	}
	if _, exists := t.vals[k]; exists {
		t.vals[k] = v
		return false
	}
	t.vals[k] = v
	t.keys = append(t.keys, k)
	return true
}

func (t *propTable) delete(k string) bool {
	if t.vals == nil {
		return false
	}
	if _, ok := t.vals[k]; !ok {
		return false
	}
	delete(t.vals, k)
	for i, key := range t.keys {
		if key == k {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// names returns keys in ES enumeration order: integer-like keys ascending
// first, then the rest in insertion order.
func (t *propTable) names() []string {
	var ints []string
	var rest []string
	for _, k := range t.keys {
		if _, ok := arrayIndex(k); ok {
			ints = append(ints, k)
		} else {
			rest = append(rest, k)
		}
	}
	sort.Slice(ints, func(i, j int) bool {
		a, _ := arrayIndex(ints[i])
		b, _ := arrayIndex(ints[j])
		return a < b
	})
	return append(ints, rest...)
}

// arrayIndex reports whether k is a canonical array index ("0", "17", ...).
func arrayIndex(k string) (uint32, bool) {
	if k == "" || len(k) > 10 {
		return 0, false
	}
	if len(k) > 1 && k[0] == '0' {
		return 0, false
	}
	for i := 0; i < len(k); i++ {
		if k[i] < '0' || k[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(k, 10, 64)
	if err != nil || n >= 1<<32-1 {
		return 0, false
	}
	return uint32(n), true
}

////////////////////////////////////////////////////////////////////////////////
//                               OBJECT BEHAVIOR
////////////////////////////////////////////////////////////////////////////////

// getOwn reads a property without dynamic dispatch or prototype lookup.
// Array element reads and `length` are handled here.
func (o *Object) getOwn(key string) (Value, bool) {
	if o.Class == ClassArray {
		if key == "length" {
			return IntVal(int64(len(o.elems))), true
		}
		if idx, ok := arrayIndex(key); ok {
			if int(idx) < len(o.elems) {
				return o.elems[idx], true
			}
			return Undefined, false
		}
	}
	if o.Class == ClassFunction && key == "name" {
		return StringVal(o.fun.Name), true
	}
	return o.props.get(key)
}

// hasOwn mirrors getOwn without materializing the value.
func (o *Object) hasOwn(key string) bool {
	if o.Class == ClassArray {
		if key == "length" {
			return true
		}
		if idx, ok := arrayIndex(key); ok {
			return int(idx) < len(o.elems)
		}
	}
	_, ok := o.props.get(key)
	return ok
}

// enumKeys returns the enumerable key list: array indices first, then named
// properties in ES order. Dynamic-host objects are resolved by the caller.
func (o *Object) enumKeys() []string {
	if o.Class == ClassArray {
		keys := make([]string, 0, len(o.elems)+o.props.len())
		for i := range o.elems {
			keys = append(keys, strconv.Itoa(i))
		}
		return append(keys, o.props.names()...)
	}
	return o.props.names()
}

type primitiveHint uint8

const (
	hintDefault primitiveHint = iota
	hintNumber
	hintString
)

// toPrimitive converts an object to a primitive value. There are no
// script-visible valueOf/toString overrides in this engine, so conversion is
// fixed per class: dates prefer their time value, arrays join, everything
// else stringifies to the ES default.
func (o *Object) toPrimitive(hint primitiveHint) Value {
	switch o.Class {
	case ClassDate:
		if hint == hintString {
			return StringVal(dateToString(o.dateMs))
		}
		return NumberVal(o.dateMs)
	case ClassArray:
		parts := make([]string, len(o.elems))
		for i, el := range o.elems {
			if !el.IsNullish() {
				parts[i] = el.ToString()
			}
		}
		return StringVal(joinStrings(parts, ","))
	case ClassFunction:
		name := o.fun.Name
		if o.fun.Native != nil {
			return StringVal("function " + name + "() { [native code] }")
		}
		return StringVal("function " + name + "() { ... }")
	case ClassError:
		name := "Error"
		if n, ok := o.props.get("name"); ok {
			name = n.ToString()
		}
		if m, ok := o.props.get("message"); ok && m.ToString() != "" {
			return StringVal(name + ": " + m.ToString())
		}
		return StringVal(name)
	default:
		return StringVal("[object Object]")
	}
}

func joinStrings(parts []string, sep string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	n := len(sep) * (len(parts) - 1)
	for _, p := range parts {
		n += len(p)
	}
	b := make([]byte, 0, n)
	b = append(b, parts[0]...)
	for _, p := range parts[1:] {
		b = append(b, sep...)
		b = append(b, p...)
	}
	return string(b)
}
