// env.go — lexical environments.
//
// An Env is one frame of the scope chain: a map from identifier to a binding
// record. Function calls push a frame whose parent is the function's
// captured scope (not the caller's); blocks push lightweight frames for
// let/const. TDZ is modeled with the `initialized` flag: let/const bindings
// exist from block entry but fault on any access before their declaration
// statement runs.
package jssandbox

// BindKind classifies how an identifier was introduced.
type BindKind uint8

const (
	BindVar BindKind = iota
	BindLet
	BindConst
	BindParam
	BindFn
)

type binding struct {
	kind        BindKind
	mutable     bool
	initialized bool
	value       Value
}

// Env is one frame of the scope chain.
type Env struct {
	parent *Env
	vars   map[string]*binding
}

// NewEnv returns a fresh frame chained to parent (nil for the global scope).
func NewEnv(parent *Env) *Env {
	return &Env{parent: parent, vars: make(map[string]*binding, 8)}
}

// define introduces (or, for var, re-uses) a binding in this frame.
func (e *Env) define(name string, kind BindKind, v Value) {
	if kind == BindVar || kind == BindFn {
		// var/function redeclaration in the same scope is permitted.
		if b, ok := e.vars[name]; ok {
			b.value = v
			b.initialized = true
			return
		}
	}
	e.vars[name] = &binding{
		kind:        kind,
		mutable:     kind != BindConst,
		initialized: true,
		value:       v,
	}
}

// declareTDZ creates an uninitialized let/const binding at block entry.
func (e *Env) declareTDZ(name string, kind BindKind) {
	e.vars[name] = &binding{kind: kind, mutable: kind != BindConst}
}

// lookup walks the chain for name.
func (e *Env) lookup(name string) (*binding, bool) {
	for env := e; env != nil; env = env.parent {
		if b, ok := env.vars[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// lookupLocal checks only this frame.
func (e *Env) lookupLocal(name string) (*binding, bool) {
	b, ok := e.vars[name]
	return b, ok
}
