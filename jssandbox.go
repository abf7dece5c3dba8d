// jssandbox.go — the host-facing entry points.
//
// Parse compiles a source string into an immutable, shareable ParsedScript;
// Eval runs it in a fresh EvalCtx under the configured limits. A parsed
// script can be evaluated any number of times, concurrently, with different
// globals; executions share nothing but the AST.
package jssandbox

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ScriptInfo carries script metadata used in diagnostics.
type ScriptInfo struct {
	Filename string
}

// ParsedScript is a reusable handle to a parsed program.
type ParsedScript struct {
	prog     *Program
	src      string
	filename string
}

// Filename returns the script name used in stack traces.
func (p *ParsedScript) Filename() string { return p.filename }

// Source returns the original source text.
func (p *ParsedScript) Source() string { return p.src }

// Parse compiles src, returning *SyntaxError on malformed input.
func Parse(src string, info ...ScriptInfo) (*ParsedScript, error) {
	filename := "<script>"
	if len(info) > 0 && info[0].Filename != "" {
		filename = info[0].Filename
	}
	prog, err := ParseProgram(src)
	if err != nil {
		return nil, err
	}
	return &ParsedScript{prog: prog, src: src, filename: filename}, nil
}

// EvalOpts configures one execution. The zero value uses the default
// limits, no custom globals and no logger.
type EvalOpts struct {
	// Globals are installed in the global scope after the builtins, so
	// they may shadow them. Values marshal through EvalCtx.Make.
	Globals map[string]any

	// Definitions build structural host objects (constants plus typed or
	// varargs methods) per execution.
	Definitions []*ObjectDef

	MaxOps       int64         // default DefaultMaxOps
	MaxMemBytes  int64         // default DefaultMaxMemBytes
	Timeout      time.Duration // default DefaultTimeout; <0 disables
	MaxCallDepth int           // default DefaultMaxCallDepth

	// Context, when set, cancels the execution with the timeout error.
	Context context.Context

	// Logger receives script console output. Nil discards it.
	Logger *zap.Logger
}

// Result pairs a script value with the execution's resource usage.
type Result struct {
	Value Value
	Stats Stats
}

// Eval runs the script and returns its result value: the value of the last
// top-level expression statement, or undefined. Failure is *EvalError or
// *LimitsError.
func (p *ParsedScript) Eval(opts ...EvalOpts) (Value, error) {
	r, err := p.EvalWithDetails(opts...)
	return r.Value, err
}

// EvalWithDetails is Eval plus the final ops and memory counters. Stats are
// populated even when the execution fails.
func (p *ParsedScript) EvalWithDetails(opts ...EvalOpts) (Result, error) {
	var o EvalOpts
	if len(opts) > 0 {
		o = opts[0]
	}
	ec := newEvalCtx(p, o)
	v, err := ec.run(p.prog)
	return Result{Value: v, Stats: Stats{Ops: ec.meter.ops, MemBytes: ec.meter.allocated}}, err
}

// Eval parses and evaluates src in one step.
func Eval(src string, opts ...EvalOpts) (Value, error) {
	p, err := Parse(src)
	if err != nil {
		return Undefined, err
	}
	return p.Eval(opts...)
}

// newEvalCtx builds the per-execution context: meter from limits, global
// scope seeded with builtins, then definitions, then caller globals.
func newEvalCtx(p *ParsedScript, o EvalOpts) *EvalCtx {
	ec := &EvalCtx{
		filename: p.filename,
		src:      p.src,
		global:   NewEnv(nil),
		logger:   o.Logger,
	}

	ec.meter.maxOps = DefaultMaxOps
	if o.MaxOps > 0 {
		ec.meter.maxOps = o.MaxOps
	}
	ec.meter.maxMem = DefaultMaxMemBytes
	if o.MaxMemBytes > 0 {
		ec.meter.maxMem = o.MaxMemBytes
	}
	ec.meter.maxDepth = DefaultMaxCallDepth
	if o.MaxCallDepth > 0 {
		ec.meter.maxDepth = o.MaxCallDepth
	}
	timeout := DefaultTimeout
	if o.Timeout != 0 {
		timeout = o.Timeout
	}
	if timeout > 0 {
		ec.meter.deadline = time.Now().Add(timeout)
		ec.meter.hasDeadline = true
	}
	ec.meter.ctx = o.Context

	setupGlobals(ec)
	for _, def := range o.Definitions {
		ec.global.define(def.Name(), BindVar, def.Build(ec))
	}
	for name, hv := range o.Globals {
		ec.global.define(name, BindVar, ec.Make(hv))
	}
	return ec
}

// run executes the program, converting uncaught throws into *EvalError and
// recovering the *LimitsError panic that metering raises.
func (ec *EvalCtx) run(prog *Program) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			le, ok := r.(*LimitsError)
			if !ok {
				panic(r)
			}
			le.Pos = ec.curPos()
			le.Stack = ec.captureStack()
			v, err = Undefined, le
		}
	}()

	c := ec.execProgram(prog)
	if c.kind == compThrow {
		return Undefined, ec.evalErrorFrom(&c)
	}
	return c.value, nil
}
