// interp_expr.go — expression evaluation, property access and calls.
//
// Expressions evaluate left to right. eval returns (Value, *completion);
// a non-nil completion is always a throw and must be propagated unchanged
// so the stack captured at the throw site survives to the handler.
package jssandbox

import (
	"math"
	"strings"
)

func (ec *EvalCtx) eval(env *Env, e Expr) (Value, *completion) {
	ec.meter.step()

	switch x := e.(type) {
	case *NumberLit:
		return NumberVal(x.Value), nil
	case *StringLit:
		return ec.Str(x.Value), nil
	case *BoolLit:
		return BoolVal(x.Value), nil
	case *NullLit:
		return Null, nil
	case *UndefinedLit:
		return Undefined, nil
	case *ThisExpr:
		return ec.act().this, nil

	case *Ident:
		b, ok := env.lookup(x.Name)
		if !ok {
			return Undefined, ec.throwError("ReferenceError", x.Name+" is not defined", x.NodePos())
		}
		if !b.initialized {
			return Undefined, ec.throwError("ReferenceError",
				"Cannot access '"+x.Name+"' before initialization", x.NodePos())
		}
		return b.value, nil

	case *TemplateLit:
		var b strings.Builder
		b.WriteString(x.Quasis[0])
		for i, sub := range x.Exprs {
			v, c := ec.eval(env, sub)
			if c != nil {
				return Undefined, c
			}
			b.WriteString(v.ToString())
			b.WriteString(x.Quasis[i+1])
		}
		return ec.Str(b.String()), nil

	case *ArrayLit:
		var elems []Value
		for _, el := range x.Elems {
			if el == nil {
				elems = append(elems, Undefined)
				continue
			}
			if sp, ok := el.(*SpreadExpr); ok {
				v, c := ec.eval(env, sp.X)
				if c != nil {
					return Undefined, c
				}
				vals, cc := ec.iterableValues(v, sp.NodePos())
				if cc != nil {
					return Undefined, cc
				}
				elems = append(elems, vals...)
				continue
			}
			v, c := ec.eval(env, el)
			if c != nil {
				return Undefined, c
			}
			elems = append(elems, v)
		}
		return ObjVal(ec.NewArray(elems)), nil

	case *ObjectLit:
		o := ec.NewObject()
		for _, prop := range x.Props {
			key := prop.Key
			if prop.Computed != nil {
				kv, c := ec.eval(env, prop.Computed)
				if c != nil {
					return Undefined, c
				}
				key = toPropertyKey(kv)
			}
			v, c := ec.eval(env, prop.Value)
			if c != nil {
				return Undefined, c
			}
			ec.setOwn(o, key, v)
		}
		return ObjVal(o), nil

	case *FuncLit:
		return ec.closure(env, x), nil

	case *UnaryExpr:
		return ec.evalUnary(env, x)

	case *UpdateExpr:
		return ec.evalUpdate(env, x)

	case *BinaryExpr:
		a, c := ec.eval(env, x.L)
		if c != nil {
			return Undefined, c
		}
		b, c := ec.eval(env, x.R)
		if c != nil {
			return Undefined, c
		}
		return ec.binaryOp(x.Op, a, b, x.NodePos())

	case *LogicalExpr:
		a, c := ec.eval(env, x.L)
		if c != nil {
			return Undefined, c
		}
		if x.Op == "&&" {
			if !a.ToBoolean() {
				return a, nil
			}
		} else if a.ToBoolean() {
			return a, nil
		}
		return ec.eval(env, x.R)

	case *CondExpr:
		cond, c := ec.eval(env, x.Cond)
		if c != nil {
			return Undefined, c
		}
		if cond.ToBoolean() {
			return ec.eval(env, x.Then)
		}
		return ec.eval(env, x.Else)

	case *SeqExpr:
		var v Value
		for _, sub := range x.Exprs {
			var c *completion
			v, c = ec.eval(env, sub)
			if c != nil {
				return Undefined, c
			}
		}
		return v, nil

	case *AssignExpr:
		return ec.evalAssign(env, x)

	case *MemberExpr:
		obj, c := ec.eval(env, x.Obj)
		if c != nil {
			return Undefined, c
		}
		return ec.getProperty(obj, x.Prop, x.NodePos())

	case *IndexExpr:
		obj, c := ec.eval(env, x.Obj)
		if c != nil {
			return Undefined, c
		}
		idx, c := ec.eval(env, x.Index)
		if c != nil {
			return Undefined, c
		}
		return ec.getProperty(obj, toPropertyKey(idx), x.NodePos())

	case *CallExpr:
		return ec.evalCall(env, x)

	case *NewExpr:
		return ec.evalNew(env, x)

	case *SpreadExpr:
		return Undefined, ec.throwError("SyntaxError", "unexpected spread element", x.NodePos())
	}
	return Undefined, ec.throwError("InternalError", "unknown expression", e.NodePos())
}

// closure builds a function value capturing env (and, for arrows, `this`).
func (ec *EvalCtx) closure(env *Env, lit *FuncLit) Value {
	f := &Fun{Name: lit.Name, Decl: lit, Env: env}
	if lit.Arrow {
		f.HasThis = true
		f.This = ec.act().this
	}
	return ec.NewFunc(f)
}

////////////////////////////////////////////////////////////////////////////////
//                              UNARY AND UPDATE
////////////////////////////////////////////////////////////////////////////////

func (ec *EvalCtx) evalUnary(env *Env, x *UnaryExpr) (Value, *completion) {
	if x.Op == "typeof" {
		// typeof never faults on unresolved identifiers.
		if id, ok := x.X.(*Ident); ok {
			b, found := env.lookup(id.Name)
			if !found || !b.initialized {
				return ec.Str("undefined"), nil
			}
			return ec.Str(b.value.TypeOf()), nil
		}
		v, c := ec.eval(env, x.X)
		if c != nil {
			return Undefined, c
		}
		return ec.Str(v.TypeOf()), nil
	}

	if x.Op == "delete" {
		return ec.evalDelete(env, x)
	}

	v, c := ec.eval(env, x.X)
	if c != nil {
		return Undefined, c
	}
	switch x.Op {
	case "-":
		return NumberVal(-v.ToNumber()), nil
	case "+":
		return NumberVal(v.ToNumber()), nil
	case "!":
		return BoolVal(!v.ToBoolean()), nil
	case "~":
		return NumberVal(float64(^v.ToInt32())), nil
	case "void":
		return Undefined, nil
	}
	return Undefined, ec.throwError("InternalError", "unknown unary operator "+x.Op, x.NodePos())
}

func (ec *EvalCtx) evalDelete(env *Env, x *UnaryExpr) (Value, *completion) {
	switch target := x.X.(type) {
	case *MemberExpr:
		obj, c := ec.eval(env, target.Obj)
		if c != nil {
			return Undefined, c
		}
		return ec.deleteProperty(obj, target.Prop, x.NodePos())
	case *IndexExpr:
		obj, c := ec.eval(env, target.Obj)
		if c != nil {
			return Undefined, c
		}
		idx, c := ec.eval(env, target.Index)
		if c != nil {
			return Undefined, c
		}
		return ec.deleteProperty(obj, toPropertyKey(idx), x.NodePos())
	case *Ident:
		return Undefined, ec.throwError("SyntaxError",
			"Delete of an unqualified identifier in strict mode", x.NodePos())
	default:
		if _, c := ec.eval(env, x.X); c != nil {
			return Undefined, c
		}
		return True, nil
	}
}

func (ec *EvalCtx) deleteProperty(obj Value, key string, pos Pos) (Value, *completion) {
	if obj.IsNullish() {
		return Undefined, ec.throwError("TypeError", "Type "+obj.Tag.String()+" has no properties", pos)
	}
	if obj.Tag != TagObject {
		return True, nil
	}
	o := obj.Obj
	if o.Class == ClassDynamicHost {
		return BoolVal(o.dyn.Delete(ec, key)), nil
	}
	if o.frozen {
		return False, nil
	}
	if o.Class == ClassArray {
		if idx, ok := arrayIndex(key); ok && int(idx) < len(o.elems) {
			o.elems[idx] = Undefined // leaves a hole; length unchanged
			return True, nil
		}
	}
	return BoolVal(o.props.delete(key)), nil
}

func (ec *EvalCtx) evalUpdate(env *Env, x *UpdateExpr) (Value, *completion) {
	ref, c := ec.evalRef(env, x.X)
	if c != nil {
		return Undefined, c
	}
	old, c := ec.loadRef(env, ref)
	if c != nil {
		return Undefined, c
	}
	n := old.ToNumber()
	delta := 1.0
	if x.Op == "--" {
		delta = -1
	}
	nv := NumberVal(n + delta)
	if c := ec.storeRef(env, ref, nv); c != nil {
		return Undefined, c
	}
	if x.Prefix {
		return nv, nil
	}
	return NumberVal(n), nil
}

////////////////////////////////////////////////////////////////////////////////
//                                 ASSIGNMENT
////////////////////////////////////////////////////////////////////////////////

func (ec *EvalCtx) evalAssign(env *Env, x *AssignExpr) (Value, *completion) {
	ref, c := ec.evalRef(env, x.Target)
	if c != nil {
		return Undefined, c
	}
	var v Value
	if x.Op == "=" {
		nv, c := ec.eval(env, x.Value)
		if c != nil {
			return Undefined, c
		}
		v = nv
	} else {
		old, c := ec.loadRef(env, ref)
		if c != nil {
			return Undefined, c
		}
		rhs, c := ec.eval(env, x.Value)
		if c != nil {
			return Undefined, c
		}
		nv, cc := ec.binaryOp(strings.TrimSuffix(x.Op, "="), old, rhs, x.NodePos())
		if cc != nil {
			return Undefined, cc
		}
		v = nv
	}
	if c := ec.storeRef(env, ref, v); c != nil {
		return Undefined, c
	}
	return v, nil
}

// reference is an evaluated assignment target: a binding name, or an
// object/key pair whose operand expressions have already run. ++/-- and
// compound assignment evaluate the target once and reuse the reference for
// both the read and the write.
type reference struct {
	name string // identifier target when non-empty
	obj  Value
	key  string
	pos  Pos
}

func (ec *EvalCtx) evalRef(env *Env, target Expr) (reference, *completion) {
	switch t := target.(type) {
	case *Ident:
		return reference{name: t.Name, pos: t.NodePos()}, nil
	case *MemberExpr:
		obj, c := ec.eval(env, t.Obj)
		if c != nil {
			return reference{}, c
		}
		return reference{obj: obj, key: t.Prop, pos: t.NodePos()}, nil
	case *IndexExpr:
		obj, c := ec.eval(env, t.Obj)
		if c != nil {
			return reference{}, c
		}
		idx, c := ec.eval(env, t.Index)
		if c != nil {
			return reference{}, c
		}
		return reference{obj: obj, key: toPropertyKey(idx), pos: t.NodePos()}, nil
	}
	return reference{}, ec.throwError("SyntaxError", "invalid assignment target", target.NodePos())
}

func (ec *EvalCtx) loadRef(env *Env, r reference) (Value, *completion) {
	if r.name != "" {
		b, ok := env.lookup(r.name)
		if !ok {
			return Undefined, ec.throwError("ReferenceError", r.name+" is not defined", r.pos)
		}
		if !b.initialized {
			return Undefined, ec.throwError("ReferenceError",
				"Cannot access '"+r.name+"' before initialization", r.pos)
		}
		return b.value, nil
	}
	return ec.getProperty(r.obj, r.key, r.pos)
}

func (ec *EvalCtx) storeRef(env *Env, r reference, v Value) *completion {
	if r.name != "" {
		return ec.assignIdent(env, r.name, v, r.pos)
	}
	return ec.setProperty(r.obj, r.key, v, r.pos)
}

func (ec *EvalCtx) assignIdent(env *Env, name string, v Value, pos Pos) *completion {
	b, ok := env.lookup(name)
	if !ok {
		return ec.throwError("ReferenceError", name+" is not defined", pos)
	}
	if !b.initialized {
		return ec.throwError("ReferenceError",
			"Cannot access '"+name+"' before initialization", pos)
	}
	if !b.mutable {
		return ec.throwError("TypeError", "Assignment to constant variable.", pos)
	}
	b.value = v
	return nil
}

////////////////////////////////////////////////////////////////////////////////
//                              PROPERTY ACCESS
////////////////////////////////////////////////////////////////////////////////

// getProperty implements MemberExpr/IndexExpr reads for every value kind,
// auto-boxing primitives and dispatching builtin methods.
func (ec *EvalCtx) getProperty(obj Value, key string, pos Pos) (Value, *completion) {
	switch obj.Tag {
	case TagUndefined, TagNull:
		return Undefined, ec.throwError("TypeError",
			"Type "+obj.Tag.String()+" has no properties", pos)

	case TagString:
		if key == "length" {
			return IntVal(int64(u16Len(obj.Str))), nil
		}
		if idx, ok := arrayIndex(key); ok {
			n := u16Len(obj.Str)
			if int(idx) < n {
				return ec.Str(u16Slice(obj.Str, int(idx), int(idx)+1)), nil
			}
			return Undefined, nil
		}
		if m, ok := stringMethods[key]; ok {
			return ec.bindMethod(key, obj, m), nil
		}
		return Undefined, nil

	case TagNumber:
		if m, ok := numberMethods[key]; ok {
			return ec.bindMethod(key, obj, m), nil
		}
		return Undefined, nil

	case TagBool:
		if m, ok := primitiveCommonMethods[key]; ok {
			return ec.bindMethod(key, obj, m), nil
		}
		return Undefined, nil
	}

	o := obj.Obj
	switch o.Class {
	case ClassDynamicHost:
		if v, ok := o.dyn.Get(ec, key); ok {
			return v, nil
		}
		return Undefined, nil

	case ClassArray:
		if v, ok := o.getOwn(key); ok {
			return v, nil
		}
		if m, ok := arrayMethods[key]; ok {
			return ec.bindMethod(key, obj, m), nil
		}

	case ClassDate:
		if v, ok := o.getOwn(key); ok {
			return v, nil
		}
		if m, ok := dateMethods[key]; ok {
			return ec.bindMethod(key, obj, m), nil
		}

	case ClassFunction:
		if v, ok := o.getOwn(key); ok {
			return v, nil
		}
		if m, ok := functionMethods[key]; ok {
			return ec.bindMethod(key, obj, m), nil
		}

	default:
		if v, ok := o.getOwn(key); ok {
			return v, nil
		}
	}

	if m, ok := objectCommonMethods[key]; ok {
		return ec.bindMethod(key, obj, m), nil
	}
	return Undefined, nil
}

// bindMethod wraps a builtin method with its receiver, so that methods read
// off an object behave when called later.
func (ec *EvalCtx) bindMethod(name string, this Value, m NativeFn) Value {
	return ec.NewNative(name, func(ec2 *EvalCtx, _ Value, args []Value) (Value, *completion) {
		return m(ec2, this, args)
	})
}

func (ec *EvalCtx) setProperty(obj Value, key string, v Value, pos Pos) *completion {
	switch obj.Tag {
	case TagUndefined, TagNull:
		return ec.throwError("TypeError", "Type "+obj.Tag.String()+" has no properties", pos)
	case TagObject:
	default:
		return ec.throwError("TypeError",
			"Cannot create property '"+key+"' on "+strings.ToLower(obj.Tag.String()), pos)
	}
	o := obj.Obj
	if o.Class == ClassDynamicHost {
		if !o.dyn.Set(ec, key, v) {
			return ec.throwError("TypeError", "Cannot set property '"+key+"'", pos)
		}
		return nil
	}
	ec.setOwn(o, key, v)
	return nil
}

// hasProperty implements the `in` operator.
func (ec *EvalCtx) hasProperty(obj Value, key string) (bool, *completion) {
	if obj.Tag != TagObject {
		return false, ec.TypeError("Cannot use 'in' operator to search for '" + key + "'")
	}
	o := obj.Obj
	if o.Class == ClassDynamicHost {
		_, ok := o.dyn.Get(ec, key)
		return ok, nil
	}
	return o.hasOwn(key), nil
}

////////////////////////////////////////////////////////////////////////////////
//                                 OPERATORS
////////////////////////////////////////////////////////////////////////////////

func (ec *EvalCtx) binaryOp(op string, a, b Value, pos Pos) (Value, *completion) {
	switch op {
	case "+":
		pa, pb := a, b
		if pa.Tag == TagObject {
			pa = pa.Obj.toPrimitive(hintDefault)
		}
		if pb.Tag == TagObject {
			pb = pb.Obj.toPrimitive(hintDefault)
		}
		if pa.Tag == TagString || pb.Tag == TagString {
			return ec.Str(pa.ToString() + pb.ToString()), nil
		}
		return NumberVal(pa.ToNumber() + pb.ToNumber()), nil
	case "-":
		return NumberVal(a.ToNumber() - b.ToNumber()), nil
	case "*":
		return NumberVal(a.ToNumber() * b.ToNumber()), nil
	case "/":
		return NumberVal(a.ToNumber() / b.ToNumber()), nil
	case "%":
		return NumberVal(math.Mod(a.ToNumber(), b.ToNumber())), nil
	case "**":
		return NumberVal(math.Pow(a.ToNumber(), b.ToNumber())), nil

	case "<", "<=", ">", ">=":
		return compareValues(op, a, b), nil

	case "==":
		return BoolVal(LooseEquals(a, b)), nil
	case "!=":
		return BoolVal(!LooseEquals(a, b)), nil
	case "===":
		return BoolVal(StrictEquals(a, b)), nil
	case "!==":
		return BoolVal(!StrictEquals(a, b)), nil

	case "&":
		return NumberVal(float64(a.ToInt32() & b.ToInt32())), nil
	case "|":
		return NumberVal(float64(a.ToInt32() | b.ToInt32())), nil
	case "^":
		return NumberVal(float64(a.ToInt32() ^ b.ToInt32())), nil
	case "<<":
		return NumberVal(float64(a.ToInt32() << (b.ToUint32() & 31))), nil
	case ">>":
		return NumberVal(float64(a.ToInt32() >> (b.ToUint32() & 31))), nil
	case ">>>":
		return NumberVal(float64(a.ToUint32() >> (b.ToUint32() & 31))), nil

	case "in":
		ok, c := ec.hasProperty(b, toPropertyKey(a))
		if c != nil {
			return Undefined, c
		}
		return BoolVal(ok), nil

	case "instanceof":
		return ec.instanceOf(a, b, pos)
	}
	return Undefined, ec.throwError("InternalError", "unknown operator "+op, pos)
}

func compareValues(op string, a, b Value) Value {
	pa, pb := a, b
	if pa.Tag == TagObject {
		pa = pa.Obj.toPrimitive(hintNumber)
	}
	if pb.Tag == TagObject {
		pb = pb.Obj.toPrimitive(hintNumber)
	}
	if pa.Tag == TagString && pb.Tag == TagString {
		switch op {
		case "<":
			return BoolVal(pa.Str < pb.Str)
		case "<=":
			return BoolVal(pa.Str <= pb.Str)
		case ">":
			return BoolVal(pa.Str > pb.Str)
		default:
			return BoolVal(pa.Str >= pb.Str)
		}
	}
	x, y := pa.ToNumber(), pb.ToNumber()
	if math.IsNaN(x) || math.IsNaN(y) {
		return False
	}
	switch op {
	case "<":
		return BoolVal(x < y)
	case "<=":
		return BoolVal(x <= y)
	case ">":
		return BoolVal(x > y)
	default:
		return BoolVal(x >= y)
	}
}

func (ec *EvalCtx) instanceOf(a, b Value, pos Pos) (Value, *completion) {
	if !b.IsFunction() {
		return Undefined, ec.throwError("TypeError",
			"Right-hand side of 'instanceof' is not callable", pos)
	}
	if a.Tag != TagObject {
		return False, nil
	}
	f := b.Obj.fun
	if f.Native != nil {
		switch f.Name {
		case "Object":
			return True, nil
		case "Array":
			return BoolVal(a.Obj.Class == ClassArray), nil
		case "Date":
			return BoolVal(a.Obj.Class == ClassDate), nil
		case "Function":
			return BoolVal(a.Obj.Class == ClassFunction), nil
		case "Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError":
			return BoolVal(a.Obj.Class == ClassError), nil
		}
		return False, nil
	}
	return BoolVal(a.Obj.ctor == f), nil
}

////////////////////////////////////////////////////////////////////////////////
//                                CALLS AND NEW
////////////////////////////////////////////////////////////////////////////////

func (ec *EvalCtx) evalArgs(env *Env, args []Expr) ([]Value, *completion) {
	out := make([]Value, 0, len(args))
	for _, a := range args {
		if sp, ok := a.(*SpreadExpr); ok {
			v, c := ec.eval(env, sp.X)
			if c != nil {
				return nil, c
			}
			vals, cc := ec.iterableValues(v, sp.NodePos())
			if cc != nil {
				return nil, cc
			}
			out = append(out, vals...)
			continue
		}
		v, c := ec.eval(env, a)
		if c != nil {
			return nil, c
		}
		out = append(out, v)
	}
	return out, nil
}

func (ec *EvalCtx) evalCall(env *Env, x *CallExpr) (Value, *completion) {
	var fn Value
	var this Value
	var c *completion

	switch callee := x.Callee.(type) {
	case *MemberExpr:
		this, c = ec.eval(env, callee.Obj)
		if c != nil {
			return Undefined, c
		}
		fn, c = ec.getProperty(this, callee.Prop, callee.NodePos())
		if c != nil {
			return Undefined, c
		}
	case *IndexExpr:
		this, c = ec.eval(env, callee.Obj)
		if c != nil {
			return Undefined, c
		}
		var idx Value
		idx, c = ec.eval(env, callee.Index)
		if c != nil {
			return Undefined, c
		}
		fn, c = ec.getProperty(this, toPropertyKey(idx), callee.NodePos())
		if c != nil {
			return Undefined, c
		}
	default:
		fn, c = ec.eval(env, x.Callee)
		if c != nil {
			return Undefined, c
		}
		this = Undefined
	}

	args, c := ec.evalArgs(env, x.Args)
	if c != nil {
		return Undefined, c
	}
	return ec.callFunction(fn, this, args, x.NodePos(), renderExpr(x.Callee))
}

// callFunction invokes fn with this and args. what is a rendered source
// fragment used in "... is not a function" faults.
func (ec *EvalCtx) callFunction(fn Value, this Value, args []Value, pos Pos, what string) (v Value, out *completion) {
	if !fn.IsFunction() {
		return Undefined, ec.throwError("TypeError", what+" is not a function", pos)
	}
	f := fn.Obj.fun

	ec.meter.enterCall()
	defer ec.meter.leaveCall()

	if f.Native != nil {
		return f.Native(ec, this, args)
	}

	env := NewEnv(f.Env)
	thisVal := this
	if f.HasThis {
		thisVal = f.This
	}

	// Named function expressions can refer to themselves.
	if f.Decl.Name != "" && !f.Decl.Arrow {
		env.define(f.Decl.Name, BindFn, fn)
	}

	ec.stack = append(ec.stack, &activation{fnName: f.Name, this: thisVal})
	defer func() { ec.stack = ec.stack[:len(ec.stack)-1] }()

	if c := ec.bindParams(env, f.Decl.Params, args); c != nil {
		return Undefined, c
	}
	if !f.Decl.Arrow {
		argv := make([]Value, len(args))
		copy(argv, args)
		env.define("arguments", BindVar, ObjVal(ec.NewArray(argv)))
	}

	if f.Decl.ExprBody != nil {
		return ec.eval(env, f.Decl.ExprBody)
	}

	if c := ec.hoist(env, f.Decl.Body.Body, true); c.kind != compNormal {
		return Undefined, &c
	}
	c := ec.execStmts(env, f.Decl.Body.Body)
	switch c.kind {
	case compReturn:
		return c.value, nil
	case compThrow:
		return Undefined, &c
	default:
		return Undefined, nil
	}
}

func (ec *EvalCtx) bindParams(env *Env, params []*Param, args []Value) *completion {
	for i, p := range params {
		if p.Rest {
			var rest []Value
			if i < len(args) {
				rest = append(rest, args[i:]...)
			}
			return ec.bindPattern(env, p.Target, nil, ObjVal(ec.NewArray(rest)), DeclVar, true)
		}
		v := Undefined
		if i < len(args) {
			v = args[i]
		}
		if c := ec.bindPattern(env, p.Target, p.Default, v, DeclVar, true); c != nil {
			return c
		}
	}
	return nil
}

// Call invokes a script function value from host code (used by host natives
// that accept callbacks, e.g. Array.prototype.map adapters).
func (ec *EvalCtx) Call(fn Value, this Value, args ...Value) (Value, *completion) {
	return ec.callFunction(fn, this, args, ec.curPos(), "callback")
}

func (ec *EvalCtx) evalNew(env *Env, x *NewExpr) (Value, *completion) {
	callee, c := ec.eval(env, x.Callee)
	if c != nil {
		return Undefined, c
	}
	args, c := ec.evalArgs(env, x.Args)
	if c != nil {
		return Undefined, c
	}
	return ec.construct(callee, args, x.NodePos(), renderExpr(x.Callee))
}

func (ec *EvalCtx) construct(callee Value, args []Value, pos Pos, what string) (Value, *completion) {
	if !callee.IsFunction() {
		return Undefined, ec.throwError("TypeError", what+" is not a constructor", pos)
	}
	f := callee.Obj.fun

	if f.Native != nil {
		if f.Ctor == nil {
			return Undefined, ec.throwError("TypeError", what+" is not a constructor", pos)
		}
		ec.meter.enterCall()
		defer ec.meter.leaveCall()
		return f.Ctor(ec, Undefined, args)
	}

	if f.Decl.Arrow {
		return Undefined, ec.throwError("TypeError", what+" is not a constructor", pos)
	}

	obj := ec.NewObject()
	obj.ctor = f
	ret, c := ec.callFunction(callee, ObjVal(obj), args, pos, what)
	if c != nil {
		return Undefined, c
	}
	if ret.Tag == TagObject {
		return ret, nil
	}
	return ObjVal(obj), nil
}
