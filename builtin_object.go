// builtin_object.go — the Object namespace, shared object methods, and the
// Function method set (call/apply/bind).
package jssandbox

func registerObjectBuiltins(ec *EvalCtx) {
	ctor := func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		if len(args) > 0 && args[0].Tag == TagObject {
			return args[0], nil
		}
		return ObjVal(ec.NewObject()), nil
	}
	fn := ec.NewNative("Object", ctor)
	fn.Obj.fun.Ctor = ctor
	f := fn.Obj

	ec.setOwn(f, "keys", ec.NewNative("keys", objectKeys))
	ec.setOwn(f, "values", ec.NewNative("values", objectValues))
	ec.setOwn(f, "entries", ec.NewNative("entries", objectEntries))
	ec.setOwn(f, "assign", ec.NewNative("assign", objectAssign))
	ec.setOwn(f, "freeze", ec.NewNative("freeze", objectFreeze))
	ec.setOwn(f, "isFrozen", ec.NewNative("isFrozen", objectIsFrozen))
	ec.setOwn(f, "getOwnPropertyNames", ec.NewNative("getOwnPropertyNames", objectKeys))

	ec.global.define("Object", BindVar, fn)
}

func objectKeys(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	v := arg(args, 0)
	if v.IsNullish() {
		return Undefined, ec.TypeError("Cannot convert " + v.ToString() + " to object")
	}
	keys := ec.enumerateKeys(v)
	elems := make([]Value, len(keys))
	for i, k := range keys {
		elems[i] = ec.Str(k)
	}
	return ObjVal(ec.NewArray(elems)), nil
}

func objectValues(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	v := arg(args, 0)
	if v.IsNullish() {
		return Undefined, ec.TypeError("Cannot convert " + v.ToString() + " to object")
	}
	var elems []Value
	if v.Tag == TagObject && v.Obj.Class == ClassDynamicHost {
		for _, p := range v.Obj.dyn.Enumerate(ec) {
			elems = append(elems, p.Value)
		}
	} else {
		for _, k := range ec.enumerateKeys(v) {
			pv, c := ec.getProperty(v, k, ec.curPos())
			if c != nil {
				return Undefined, c
			}
			elems = append(elems, pv)
		}
	}
	return ObjVal(ec.NewArray(elems)), nil
}

func objectEntries(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	v := arg(args, 0)
	if v.IsNullish() {
		return Undefined, ec.TypeError("Cannot convert " + v.ToString() + " to object")
	}
	var elems []Value
	appendEntry := func(k string, pv Value) {
		pair := ec.NewArray([]Value{ec.Str(k), pv})
		elems = append(elems, ObjVal(pair))
	}
	if v.Tag == TagObject && v.Obj.Class == ClassDynamicHost {
		for _, p := range v.Obj.dyn.Enumerate(ec) {
			appendEntry(p.Name, p.Value)
		}
	} else {
		for _, k := range ec.enumerateKeys(v) {
			pv, c := ec.getProperty(v, k, ec.curPos())
			if c != nil {
				return Undefined, c
			}
			appendEntry(k, pv)
		}
	}
	return ObjVal(ec.NewArray(elems)), nil
}

func objectAssign(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	target := arg(args, 0)
	if target.Tag != TagObject {
		return Undefined, ec.TypeError("Object.assign target must be an object")
	}
	for _, src := range args[1:] {
		if src.IsNullish() {
			continue
		}
		for _, k := range ec.enumerateKeys(src) {
			pv, c := ec.getProperty(src, k, ec.curPos())
			if c != nil {
				return Undefined, c
			}
			if c := ec.setProperty(target, k, pv, ec.curPos()); c != nil {
				return Undefined, c
			}
		}
	}
	return target, nil
}

func objectFreeze(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	v := arg(args, 0)
	if v.Tag == TagObject {
		v.Obj.frozen = true
	}
	return v, nil
}

func objectIsFrozen(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
	v := arg(args, 0)
	if v.Tag != TagObject {
		return True, nil
	}
	return BoolVal(v.Obj.frozen), nil
}

// objectCommonMethods are reachable on every object kind. Both tables are
// assigned in init: call/apply/bind dispatch back into the evaluator, and a
// composite-literal initializer would form an initialization cycle.
var objectCommonMethods map[string]NativeFn

// functionMethods implement call/apply/bind on function values; the
// receiver is the function itself.
var functionMethods map[string]NativeFn

func init() {
	objectCommonMethods = map[string]NativeFn{
		"hasOwnProperty": func(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
			key := toPropertyKey(arg(args, 0))
			if this.Tag != TagObject {
				return False, nil
			}
			if this.Obj.Class == ClassDynamicHost {
				_, ok := this.Obj.dyn.Get(ec, key)
				return BoolVal(ok), nil
			}
			return BoolVal(this.Obj.hasOwn(key)), nil
		},
		"toString": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
			return ec.Str(this.ToString()), nil
		},
		"valueOf": func(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
			return this, nil
		},
	}

	functionMethods = map[string]NativeFn{
		"call": func(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
			thisArg := arg(args, 0)
			var rest []Value
			if len(args) > 1 {
				rest = args[1:]
			}
			return ec.callFunction(this, thisArg, rest, ec.curPos(), this.Obj.fun.Name)
		},
		"apply": func(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
			thisArg := arg(args, 0)
			var rest []Value
			if len(args) > 1 && !args[1].IsNullish() {
				av := args[1]
				if av.Tag != TagObject || av.Obj.Class != ClassArray {
					return Undefined, ec.TypeError("CreateListFromArrayLike called on non-object")
				}
				rest = av.Obj.elems
			}
			return ec.callFunction(this, thisArg, rest, ec.curPos(), this.Obj.fun.Name)
		},
		"bind": func(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
			boundThis := arg(args, 0)
			var boundArgs []Value
			if len(args) > 1 {
				boundArgs = append(boundArgs, args[1:]...)
			}
			target := this
			name := "bound " + this.Obj.fun.Name
			return ec.NewNative(name, func(ec *EvalCtx, _ Value, callArgs []Value) (Value, *completion) {
				all := append(append([]Value{}, boundArgs...), callArgs...)
				return ec.callFunction(target, boundThis, all, ec.curPos(), name)
			}), nil
		},
	}
}
