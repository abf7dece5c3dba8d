// host.go — the host-interop layer.
//
// Three mechanisms expose host state to scripts: plain value globals
// (marshalled through Make), static objects declared with ObjectDef
// (constants plus typed or varargs methods), and dynamic-property objects
// whose reads, writes and enumeration dispatch through a caller-supplied
// DynamicPropResolver.
//
// Method binding is signature-switched, not reflective: every supported
// shape is enumerated below and adapted to the internal calling convention
// when the definition is built, so the execution path never touches
// reflection.
package jssandbox

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// PropEntry is one name/value pair produced by Enumerate, in the order the
// resolver wants properties listed.
type PropEntry struct {
	Name  string
	Value Value
}

// DynamicPropResolver drives a single script object's properties. Get
// reports whether the property exists; Set and Delete report acceptance.
// Enumerate lists the enumerable properties for for-in and Object.keys.
type DynamicPropResolver interface {
	Get(ec *EvalCtx, name string) (Value, bool)
	Set(ec *EvalCtx, name string, v Value) bool
	Delete(ec *EvalCtx, name string) bool
	Enumerate(ec *EvalCtx) []PropEntry
}

// NewDynamicObject wraps a resolver as a script object.
func (ec *EvalCtx) NewDynamicObject(r DynamicPropResolver) Value {
	ec.meter.chargeObject()
	return ObjVal(&Object{Class: ClassDynamicHost, dyn: r})
}

// NewHost wraps an opaque host value, preserving its identity. Scripts can
// pass it around and hand it back but see no properties on it.
func (ec *EvalCtx) NewHost(v any) Value {
	ec.meter.chargeObject()
	return ObjVal(&Object{Class: ClassHost, host: v})
}

// HostValue extracts the value wrapped by NewHost, or nil.
func HostValue(v Value) any {
	if v.Tag == TagObject && v.Obj.Class == ClassHost {
		return v.Obj.host
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
//                            STATIC-OBJECT BUILDER
////////////////////////////////////////////////////////////////////////////////

// ObjectDef declares a host-backed global object: named constants
// (marshalled once when the execution starts) and methods. Definitions are
// reusable across executions; the script object is built per EvalCtx.
type ObjectDef struct {
	name    string
	consts  []hostConst
	methods []hostMethod
}

type hostConst struct {
	name  string
	value any
}

type hostMethod struct {
	name string
	fn   NativeFn
}

// NewObjectDef starts a definition for a global named name.
func NewObjectDef(name string) *ObjectDef {
	return &ObjectDef{name: name}
}

// Const adds a constant, marshalled with Make at execution start.
func (d *ObjectDef) Const(name string, value any) *ObjectDef {
	d.consts = append(d.consts, hostConst{name: name, value: value})
	return d
}

// Method adds a callable. fn must have one of the supported shapes: fixed
// arity zero through five Value parameters after the *EvalCtx, or a single
// []Value parameter for varargs, each optionally returning an error after
// the Value. Unsupported shapes panic here, at registration time.
func (d *ObjectDef) Method(name string, fn any) *ObjectDef {
	d.methods = append(d.methods, hostMethod{name: name, fn: adaptMethod(name, fn)})
	return d
}

// Build materializes the definition as a script object in ec.
func (d *ObjectDef) Build(ec *EvalCtx) Value {
	o := ec.NewObject()
	o.Class = ClassHost
	for _, c := range d.consts {
		ec.setOwn(o, c.name, ec.Make(c.value))
	}
	for _, m := range d.methods {
		ec.setOwn(o, m.name, ec.NewNative(m.name, m.fn))
	}
	o.frozen = true
	return ObjVal(o)
}

// Name returns the global identifier the definition binds to.
func (d *ObjectDef) Name() string { return d.name }

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

// adaptMethod lowers a typed host function to the internal calling
// convention. Missing arguments arrive as undefined; extras are dropped.
func adaptMethod(name string, fn any) NativeFn {
	switch f := fn.(type) {
	case func(*EvalCtx) Value:
		return func(ec *EvalCtx, _ Value, _ []Value) (Value, *completion) {
			return f(ec), nil
		}
	case func(*EvalCtx, Value) Value:
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			return f(ec, arg(args, 0)), nil
		}
	case func(*EvalCtx, Value, Value) Value:
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			return f(ec, arg(args, 0), arg(args, 1)), nil
		}
	case func(*EvalCtx, Value, Value, Value) Value:
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			return f(ec, arg(args, 0), arg(args, 1), arg(args, 2)), nil
		}
	case func(*EvalCtx, Value, Value, Value, Value) Value:
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			return f(ec, arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3)), nil
		}
	case func(*EvalCtx, Value, Value, Value, Value, Value) Value:
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			return f(ec, arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3), arg(args, 4)), nil
		}
	case func(*EvalCtx, []Value) Value:
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			return f(ec, args), nil
		}

	case func(*EvalCtx) (Value, error):
		return func(ec *EvalCtx, _ Value, _ []Value) (Value, *completion) {
			v, err := f(ec)
			return hostResult(ec, v, err)
		}
	case func(*EvalCtx, Value) (Value, error):
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			v, err := f(ec, arg(args, 0))
			return hostResult(ec, v, err)
		}
	case func(*EvalCtx, Value, Value) (Value, error):
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			v, err := f(ec, arg(args, 0), arg(args, 1))
			return hostResult(ec, v, err)
		}
	case func(*EvalCtx, Value, Value, Value) (Value, error):
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			v, err := f(ec, arg(args, 0), arg(args, 1), arg(args, 2))
			return hostResult(ec, v, err)
		}
	case func(*EvalCtx, Value, Value, Value, Value) (Value, error):
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			v, err := f(ec, arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3))
			return hostResult(ec, v, err)
		}
	case func(*EvalCtx, Value, Value, Value, Value, Value) (Value, error):
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			v, err := f(ec, arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3), arg(args, 4))
			return hostResult(ec, v, err)
		}
	case func(*EvalCtx, []Value) (Value, error):
		return func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
			v, err := f(ec, args)
			return hostResult(ec, v, err)
		}
	}
	panic(fmt.Sprintf("jssandbox: unsupported method signature for %q: %T", name, fn))
}

// hostResult converts a host error into a catchable script Error.
func hostResult(ec *EvalCtx, v Value, err error) (Value, *completion) {
	if err != nil {
		return Undefined, ec.throwError("Error", err.Error(), ec.curPos())
	}
	return v, nil
}

////////////////////////////////////////////////////////////////////////////////
//                                 MARSHALLING
////////////////////////////////////////////////////////////////////////////////

// Make marshals a host value into a script Value, charging allocations.
// Maps and slices convert deeply; map keys sort lexicographically so the
// resulting property order is deterministic. Anything unrecognized becomes
// an opaque host handle.
func (ec *EvalCtx) Make(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return BoolVal(x)
	case int:
		return IntVal(int64(x))
	case int8:
		return IntVal(int64(x))
	case int16:
		return IntVal(int64(x))
	case int32:
		return IntVal(int64(x))
	case int64:
		return IntVal(x)
	case uint:
		return NumberVal(float64(x))
	case uint8:
		return IntVal(int64(x))
	case uint16:
		return IntVal(int64(x))
	case uint32:
		return IntVal(int64(x))
	case uint64:
		return NumberVal(float64(x))
	case float32:
		return NumberVal(float64(x))
	case float64:
		return NumberVal(x)
	case string:
		return ec.Str(x)
	case time.Time:
		return ec.NewDate(float64(x.UnixMilli()))
	case []Value:
		elems := make([]Value, len(x))
		copy(elems, x)
		return ObjVal(ec.NewArray(elems))
	case []any:
		elems := make([]Value, len(x))
		for i, el := range x {
			elems[i] = ec.Make(el)
		}
		return ObjVal(ec.NewArray(elems))
	case []string:
		elems := make([]Value, len(x))
		for i, el := range x {
			elems[i] = ec.Str(el)
		}
		return ObjVal(ec.NewArray(elems))
	case []float64:
		elems := make([]Value, len(x))
		for i, el := range x {
			elems[i] = NumberVal(el)
		}
		return ObjVal(ec.NewArray(elems))
	case []int:
		elems := make([]Value, len(x))
		for i, el := range x {
			elems[i] = IntVal(int64(el))
		}
		return ObjVal(ec.NewArray(elems))
	case map[string]any:
		o := ec.NewObject()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ec.setOwn(o, k, ec.Make(x[k]))
		}
		return ObjVal(o)
	case map[string]Value:
		o := ec.NewObject()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ec.setOwn(o, k, x[k])
		}
		return ObjVal(o)
	case DynamicPropResolver:
		return ec.NewDynamicObject(x)
	case *ObjectDef:
		return x.Build(ec)
	case error:
		return ec.NewError("Error", x.Error())
	default:
		return ec.NewHost(x)
	}
}

////////////////////////////////////////////////////////////////////////////////
//                           SCRIPT-TO-HOST EXTRACTION
////////////////////////////////////////////////////////////////////////////////

// AsNumber coerces to an IEEE-754 double.
func (v Value) AsNumber() float64 { return v.ToNumber() }

// AsInt64 coerces to an integer, truncating toward zero. The full float64
// integer range is preserved; NaN and infinities coerce to zero.
func (v Value) AsInt64() int64 {
	f := v.ToNumber()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Trunc(f))
}

// AsString coerces to a string with script ToString semantics.
func (v Value) AsString() string { return v.ToString() }

// AsBool coerces with script truthiness.
func (v Value) AsBool() bool { return v.ToBoolean() }

// Export converts a script value to plain Go data: nil, bool, float64,
// string, []any, or map[string]any (insertion order is lost in maps).
// Functions export as nil; host handles export their wrapped value.
func (v Value) Export() any {
	switch v.Tag {
	case TagUndefined, TagNull:
		return nil
	case TagBool:
		return v.B
	case TagNumber:
		return v.Num
	case TagString:
		return v.Str
	}
	o := v.Obj
	switch o.Class {
	case ClassArray:
		out := make([]any, len(o.elems))
		for i, el := range o.elems {
			out[i] = el.Export()
		}
		return out
	case ClassDate:
		return time.UnixMilli(int64(o.dateMs)).UTC()
	case ClassFunction:
		return nil
	case ClassHost:
		if o.host != nil {
			return o.host
		}
		return exportProps(o)
	case ClassDynamicHost:
		return nil
	default:
		return exportProps(o)
	}
}

func exportProps(o *Object) map[string]any {
	out := make(map[string]any, o.props.len())
	for _, k := range o.props.names() {
		if pv, ok := o.props.get(k); ok {
			out[k] = pv.Export()
		}
	}
	return out
}
