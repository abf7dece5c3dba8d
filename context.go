// context.go — EvalCtx: one script execution's runtime state.
//
// An EvalCtx is created per eval invocation, is confined to a single
// goroutine for its lifetime, and is discarded wholesale when the
// invocation ends. Two executions of the same *Program share nothing but
// the immutable AST. The context owns the scope chain root, the metering
// state, the running call stack used for script-level stack traces, and the
// per-execution cancel flag.
//
// All script-value construction funnels through the factory methods here so
// that every allocation is charged against the memory budget at creation
// time.
package jssandbox

import (
	"go.uber.org/zap"
)

// EvalCtx is the execution context handed to host natives and dynamic
// property resolvers. It is not safe for concurrent use; the only method
// another goroutine may call is Cancel.
type EvalCtx struct {
	filename string
	src      string

	global *Env
	meter  meter
	stack  []*activation

	logger *zap.Logger
}

// activation is one script call-stack record.
type activation struct {
	fnName string
	this   Value
	cur    Stmt // statement currently executing, for stack traces
}

// Cancel requests termination of the running execution. It may be called
// from any goroutine; the interpreter observes it at the next ops check and
// terminates with the timeout limit error.
func (ec *EvalCtx) Cancel() {
	ec.meter.cancelled.Store(true)
}

// Filename returns the script name used in diagnostics.
func (ec *EvalCtx) Filename() string { return ec.filename }

// Stats is the resource-usage snapshot of a finished execution.
type Stats struct {
	Ops      int64
	MemBytes int64
}

////////////////////////////////////////////////////////////////////////////////
//                       METERED VALUE FACTORIES
////////////////////////////////////////////////////////////////////////////////

// Str builds a script string, charging its bytes to the memory budget.
func (ec *EvalCtx) Str(s string) Value {
	ec.meter.chargeString(len(s))
	return StringVal(s)
}

// NewObject builds an empty plain object.
func (ec *EvalCtx) NewObject() *Object {
	ec.meter.chargeObject()
	return &Object{Class: ClassObject}
}

// NewArray builds an array with the given elements (the slice is owned by
// the array afterwards).
func (ec *EvalCtx) NewArray(elems []Value) *Object {
	ec.meter.chargeObject()
	ec.meter.chargeSlots(len(elems))
	return &Object{Class: ClassArray, elems: elems}
}

// NewFunc wraps a Fun into a function object, charging closure costs.
func (ec *EvalCtx) NewFunc(f *Fun) Value {
	captured := 0
	if f.Env != nil {
		captured = len(f.Env.vars)
	}
	ec.meter.chargeClosure(captured)
	return ObjVal(&Object{Class: ClassFunction, fun: f})
}

// NewNative wraps a native implementation as a function value.
func (ec *EvalCtx) NewNative(name string, fn NativeFn) Value {
	ec.meter.chargeClosure(0)
	return ObjVal(&Object{Class: ClassFunction, fun: &Fun{Name: name, Native: fn}})
}

// NewError builds an Error object with name and message properties.
func (ec *EvalCtx) NewError(name, message string) Value {
	o := ec.NewObject()
	o.Class = ClassError
	ec.setOwn(o, "name", ec.Str(name))
	ec.setOwn(o, "message", ec.Str(message))
	return ObjVal(o)
}

// NewDate builds a Date object for the given epoch milliseconds.
func (ec *EvalCtx) NewDate(ms float64) Value {
	ec.meter.chargeObject()
	return ObjVal(&Object{Class: ClassDate, dateMs: ms})
}

// setOwn writes a plain property, charging a slot when the key is new.
// Frozen objects ignore the write (strict-mode would throw; the engine
// follows the documented silent-ignore behavior of Object.freeze here).
func (ec *EvalCtx) setOwn(o *Object, key string, v Value) {
	if o.frozen {
		return
	}
	if o.Class == ClassArray {
		if key == "length" {
			ec.arraySetLength(o, v)
			return
		}
		if idx, ok := arrayIndex(key); ok {
			ec.arraySetIndex(o, int(idx), v)
			return
		}
	}
	if o.props.set(key, v) {
		ec.meter.chargeSlots(1)
	}
}

// arraySetIndex writes elems[idx], growing with undefined holes and
// maintaining the reified length.
func (ec *EvalCtx) arraySetIndex(o *Object, idx int, v Value) {
	if idx < len(o.elems) {
		o.elems[idx] = v
		return
	}
	grow := idx + 1 - len(o.elems)
	ec.meter.chargeSlots(grow)
	for len(o.elems) < idx {
		o.elems = append(o.elems, Undefined)
	}
	o.elems = append(o.elems, v)
}

func (ec *EvalCtx) arraySetLength(o *Object, v Value) {
	n := int(v.ToUint32())
	switch {
	case n < len(o.elems):
		o.elems = o.elems[:n]
	case n > len(o.elems):
		ec.meter.chargeSlots(n - len(o.elems))
		for len(o.elems) < n {
			o.elems = append(o.elems, Undefined)
		}
	}
}

// arrayAppend pushes one element, charging its slot.
func (ec *EvalCtx) arrayAppend(o *Object, v Value) {
	ec.meter.chargeSlots(1)
	o.elems = append(o.elems, v)
}

////////////////////////////////////////////////////////////////////////////////
//                           COMPLETIONS AND THROWS
////////////////////////////////////////////////////////////////////////////////

type compKind uint8

const (
	compNormal compKind = iota
	compBreak
	compContinue
	compReturn
	compThrow
)

// completion is the tagged result of evaluating a statement. Expression
// evaluation returns (Value, *completion) where a non-nil completion is
// always a throw. Control flow propagates these values explicitly; the host
// stack is never unwound for script-visible control transfer.
type completion struct {
	kind  compKind
	value Value
	label string

	// throw metadata, captured at the throw site
	msg    string
	pos    Pos
	frames []Frame
}

var completionNormal = completion{}

// throwValue raises a script value (the `throw` statement).
func (ec *EvalCtx) throwValue(v Value, pos Pos) *completion {
	msg := v.ToString()
	return &completion{kind: compThrow, value: v, msg: msg, pos: pos, frames: ec.captureStack()}
}

// throwError raises an engine fault carrying a catchable Error object whose
// message is exactly msg.
func (ec *EvalCtx) throwError(name, msg string, pos Pos) *completion {
	errObj := ec.NewError(name, msg)
	return &completion{kind: compThrow, value: errObj, msg: msg, pos: pos, frames: ec.captureStack()}
}

// TypeError raises the engine's type-fault with the exact message given.
// Exposed for host natives.
func (ec *EvalCtx) TypeError(msg string) *completion {
	return ec.throwError("TypeError", msg, ec.curPos())
}

func (ec *EvalCtx) curPos() Pos {
	if n := len(ec.stack); n > 0 && ec.stack[n-1].cur != nil {
		return ec.stack[n-1].cur.NodePos()
	}
	return Pos{}
}

// captureStack snapshots the script call stack, innermost frame first.
func (ec *EvalCtx) captureStack() []Frame {
	frames := make([]Frame, 0, len(ec.stack))
	for i := len(ec.stack) - 1; i >= 0; i-- {
		act := ec.stack[i]
		if act.cur == nil {
			continue
		}
		frames = append(frames, Frame{
			FuncName: act.fnName,
			Source:   renderStmt(act.cur),
			Filename: ec.filename,
			Line:     act.cur.NodePos().Line,
			Col:      act.cur.NodePos().Col,
		})
	}
	return frames
}

// evalErrorFrom converts an uncaught throw completion into the host-facing
// *EvalError.
func (ec *EvalCtx) evalErrorFrom(c *completion) *EvalError {
	return &EvalError{
		Message: c.msg,
		Pos:     c.pos,
		Stack:   c.frames,
		Thrown:  c.value,
	}
}
