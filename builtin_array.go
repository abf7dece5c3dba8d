// builtin_array.go — the Array constructor and array methods.
package jssandbox

import (
	"sort"
	"strings"
)

func registerArrayBuiltins(ec *EvalCtx) {
	ctor := func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		if len(args) == 1 && args[0].IsNumber() {
			f := args[0].Num
			n := int(f)
			if f != float64(n) || n < 0 {
				return Undefined, ec.throwError("RangeError", "Invalid array length", ec.curPos())
			}
			// charge before allocating so an oversized length trips the
			// limit instead of exhausting host memory
			ec.meter.chargeSlots(n)
			elems := make([]Value, n)
			for i := range elems {
				elems[i] = Undefined
			}
			return ObjVal(ec.NewArray(elems)), nil
		}
		elems := make([]Value, len(args))
		copy(elems, args)
		return ObjVal(ec.NewArray(elems)), nil
	}
	fn := ec.NewNative("Array", ctor)
	fn.Obj.fun.Ctor = ctor

	ec.setOwn(fn.Obj, "isArray", ec.NewNative("isArray", func(ec *EvalCtx, _ Value, args []Value) (Value, *completion) {
		a := arg(args, 0)
		return BoolVal(a.Tag == TagObject && a.Obj.Class == ClassArray), nil
	}))

	ec.global.define("Array", BindVar, fn)
}

// arrayMethods is assigned in init: the natives reach back into the
// evaluator, so a composite-literal initializer would form an
// initialization cycle.
var arrayMethods map[string]NativeFn

func init() {
	arrayMethods = map[string]NativeFn{
		"push":        arrayPush,
		"pop":         arrayPop,
		"shift":       arrayShift,
		"unshift":     arrayUnshift,
		"slice":       arraySlice,
		"splice":      arraySplice,
		"concat":      arrayConcat,
		"join":        arrayJoin,
		"indexOf":     arrayIndexOf,
		"lastIndexOf": arrayLastIndexOf,
		"includes":    arrayIncludes,
		"find":        arrayFind,
		"findIndex":   arrayFindIndex,
		"forEach":     arrayForEach,
		"map":         arrayMap,
		"filter":      arrayFilter,
		"reduce":      arrayReduce,
		"some":        arraySome,
		"every":       arrayEvery,
		"reverse":     arrayReverse,
		"sort":        arraySort,
		"fill":        arrayFill,
		"toString":    arrayToStringM,
	}
}

func arrayReceiver(ec *EvalCtx, this Value) (*Object, *completion) {
	if this.Tag != TagObject || this.Obj.Class != ClassArray {
		return nil, ec.TypeError("receiver is not an array")
	}
	return this.Obj, nil
}

func arrayPush(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	for _, a := range args {
		ec.arrayAppend(o, a)
	}
	return IntVal(int64(len(o.elems))), nil
}

func arrayPop(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	if len(o.elems) == 0 {
		return Undefined, nil
	}
	v := o.elems[len(o.elems)-1]
	o.elems = o.elems[:len(o.elems)-1]
	return v, nil
}

func arrayShift(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	if len(o.elems) == 0 {
		return Undefined, nil
	}
	v := o.elems[0]
	o.elems = o.elems[1:]
	return v, nil
}

func arrayUnshift(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	ec.meter.chargeSlots(len(args))
	o.elems = append(append([]Value{}, args...), o.elems...)
	return IntVal(int64(len(o.elems))), nil
}

func arraySlice(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	n := len(o.elems)
	start := relIndex(arg(args, 0), n, 0)
	end := relIndex(arg(args, 1), n, n)
	if start >= end {
		return ObjVal(ec.NewArray(nil)), nil
	}
	out := make([]Value, end-start)
	copy(out, o.elems[start:end])
	return ObjVal(ec.NewArray(out)), nil
}

func arraySplice(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	n := len(o.elems)
	start := relIndex(arg(args, 0), n, 0)
	del := n - start
	if len(args) > 1 {
		d := int(args[1].ToInt32())
		if d < 0 {
			d = 0
		}
		if d < del {
			del = d
		}
	}
	removed := make([]Value, del)
	copy(removed, o.elems[start:start+del])

	insert := args
	if len(insert) > 2 {
		insert = insert[2:]
	} else {
		insert = nil
	}
	ec.meter.chargeSlots(len(insert))

	tail := make([]Value, n-start-del)
	copy(tail, o.elems[start+del:])
	o.elems = append(append(o.elems[:start], insert...), tail...)
	return ObjVal(ec.NewArray(removed)), nil
}

func arrayConcat(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	out := make([]Value, len(o.elems))
	copy(out, o.elems)
	for _, a := range args {
		if a.Tag == TagObject && a.Obj.Class == ClassArray {
			out = append(out, a.Obj.elems...)
		} else {
			out = append(out, a)
		}
	}
	return ObjVal(ec.NewArray(out)), nil
}

func arrayJoin(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	sep := ","
	if len(args) > 0 && !args[0].IsUndefined() {
		sep = args[0].ToString()
	}
	parts := make([]string, len(o.elems))
	for i, el := range o.elems {
		if !el.IsNullish() {
			parts[i] = el.ToString()
		}
	}
	return ec.Str(strings.Join(parts, sep)), nil
}

func arrayToStringM(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	return arrayJoin(ec, this, nil)
}

func arrayIndexOf(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	needle := arg(args, 0)
	for i, el := range o.elems {
		if StrictEquals(el, needle) {
			return IntVal(int64(i)), nil
		}
	}
	return IntVal(-1), nil
}

func arrayLastIndexOf(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	needle := arg(args, 0)
	for i := len(o.elems) - 1; i >= 0; i-- {
		if StrictEquals(o.elems[i], needle) {
			return IntVal(int64(i)), nil
		}
	}
	return IntVal(-1), nil
}

func arrayIncludes(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	needle := arg(args, 0)
	for _, el := range o.elems {
		if SameValueZero(el, needle) {
			return True, nil
		}
	}
	return False, nil
}

// eachElem runs cb(element, index, array) for every element, stepping the
// meter per iteration so callback-free loops stay bounded too.
func eachElem(ec *EvalCtx, o *Object, this Value, cb Value, f func(v Value, i int) (bool, *completion)) *completion {
	if !cb.IsFunction() {
		return ec.TypeError(renderCallbackName(cb) + " is not a function")
	}
	for i := 0; i < len(o.elems); i++ {
		ec.meter.step()
		stop, c := f(o.elems[i], i)
		if c != nil {
			return c
		}
		if stop {
			return nil
		}
	}
	return nil
}

func renderCallbackName(v Value) string {
	if v.IsUndefined() {
		return "undefined"
	}
	return v.ToString()
}

func arrayFind(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	found := Undefined
	c = eachElem(ec, o, this, cb, func(v Value, i int) (bool, *completion) {
		r, cc := ec.Call(cb, Undefined, v, IntVal(int64(i)), this)
		if cc != nil {
			return true, cc
		}
		if r.ToBoolean() {
			found = v
			return true, nil
		}
		return false, nil
	})
	return found, c
}

func arrayFindIndex(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	idx := -1
	c = eachElem(ec, o, this, cb, func(v Value, i int) (bool, *completion) {
		r, cc := ec.Call(cb, Undefined, v, IntVal(int64(i)), this)
		if cc != nil {
			return true, cc
		}
		if r.ToBoolean() {
			idx = i
			return true, nil
		}
		return false, nil
	})
	return IntVal(int64(idx)), c
}

func arrayForEach(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	c = eachElem(ec, o, this, cb, func(v Value, i int) (bool, *completion) {
		_, cc := ec.Call(cb, Undefined, v, IntVal(int64(i)), this)
		return false, cc
	})
	return Undefined, c
}

func arrayMap(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	out := make([]Value, 0, len(o.elems))
	c = eachElem(ec, o, this, cb, func(v Value, i int) (bool, *completion) {
		r, cc := ec.Call(cb, Undefined, v, IntVal(int64(i)), this)
		if cc != nil {
			return true, cc
		}
		out = append(out, r)
		return false, nil
	})
	if c != nil {
		return Undefined, c
	}
	return ObjVal(ec.NewArray(out)), nil
}

func arrayFilter(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	var out []Value
	c = eachElem(ec, o, this, cb, func(v Value, i int) (bool, *completion) {
		r, cc := ec.Call(cb, Undefined, v, IntVal(int64(i)), this)
		if cc != nil {
			return true, cc
		}
		if r.ToBoolean() {
			out = append(out, v)
		}
		return false, nil
	})
	if c != nil {
		return Undefined, c
	}
	return ObjVal(ec.NewArray(out)), nil
}

func arrayReduce(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	if !cb.IsFunction() {
		return Undefined, ec.TypeError(renderCallbackName(cb) + " is not a function")
	}
	start := 0
	var acc Value
	if len(args) > 1 {
		acc = args[1]
	} else {
		if len(o.elems) == 0 {
			return Undefined, ec.TypeError("Reduce of empty array with no initial value")
		}
		acc = o.elems[0]
		start = 1
	}
	for i := start; i < len(o.elems); i++ {
		ec.meter.step()
		r, cc := ec.Call(cb, Undefined, acc, o.elems[i], IntVal(int64(i)), this)
		if cc != nil {
			return Undefined, cc
		}
		acc = r
	}
	return acc, nil
}

func arraySome(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	result := False
	c = eachElem(ec, o, this, cb, func(v Value, i int) (bool, *completion) {
		r, cc := ec.Call(cb, Undefined, v, IntVal(int64(i)), this)
		if cc != nil {
			return true, cc
		}
		if r.ToBoolean() {
			result = True
			return true, nil
		}
		return false, nil
	})
	return result, c
}

func arrayEvery(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cb := arg(args, 0)
	result := True
	c = eachElem(ec, o, this, cb, func(v Value, i int) (bool, *completion) {
		r, cc := ec.Call(cb, Undefined, v, IntVal(int64(i)), this)
		if cc != nil {
			return true, cc
		}
		if !r.ToBoolean() {
			result = False
			return true, nil
		}
		return false, nil
	})
	return result, c
}

func arrayReverse(ec *EvalCtx, this Value, _ []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	for i, j := 0, len(o.elems)-1; i < j; i, j = i+1, j-1 {
		o.elems[i], o.elems[j] = o.elems[j], o.elems[i]
	}
	return this, nil
}

// arraySort sorts in place. Without a comparator elements order by their
// string form, per ES. A throwing or limit-tripping comparator aborts the
// sort midway; the array is left in a valid but unspecified order.
func arraySort(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	cmp := arg(args, 0)
	var failure *completion

	if cmp.IsFunction() {
		sort.SliceStable(o.elems, func(i, j int) bool {
			if failure != nil {
				return false
			}
			ec.meter.step()
			r, cc := ec.Call(cmp, Undefined, o.elems[i], o.elems[j])
			if cc != nil {
				failure = cc
				return false
			}
			return r.ToNumber() < 0
		})
	} else {
		sort.SliceStable(o.elems, func(i, j int) bool {
			ec.meter.step()
			a, b := o.elems[i], o.elems[j]
			if a.IsUndefined() {
				return false
			}
			if b.IsUndefined() {
				return true
			}
			return a.ToString() < b.ToString()
		})
	}
	if failure != nil {
		return Undefined, failure
	}
	return this, nil
}

func arrayFill(ec *EvalCtx, this Value, args []Value) (Value, *completion) {
	o, c := arrayReceiver(ec, this)
	if c != nil {
		return Undefined, c
	}
	v := arg(args, 0)
	n := len(o.elems)
	start := relIndex(arg(args, 1), n, 0)
	end := relIndex(arg(args, 2), n, n)
	for i := start; i < end; i++ {
		o.elems[i] = v
	}
	return this, nil
}
