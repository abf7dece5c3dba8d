// interp.go — tree-walking interpreter: statements, hoisting, control flow.
//
// Every statement produces a completion (normal / break / continue / return
// / throw) that the enclosing construct inspects and propagates; the host
// stack is never used for script-visible control transfer, so `finally`
// ordering and stack traces stay deterministic. The one exception is
// *LimitsError, which panics through everything by design: scripts cannot
// catch resource exhaustion and pending finally blocks are skipped.
//
// The metering contract: meter.step() runs before every statement, before
// every expression node (see interp_expr.go), and at every loop-iteration
// head, so any script terminates within max_ops node-steps.
package jssandbox

// execProgram runs the top level of a script in the global scope.
func (ec *EvalCtx) execProgram(prog *Program) completion {
	act := &activation{fnName: "<main>"}
	ec.stack = append(ec.stack, act)
	defer func() { ec.stack = ec.stack[:len(ec.stack)-1] }()

	if c := ec.hoist(ec.global, prog.Body, true); c.kind != compNormal {
		return c
	}
	return ec.execStmts(ec.global, prog.Body)
}

func (ec *EvalCtx) act() *activation { return ec.stack[len(ec.stack)-1] }

// execStmts runs a statement list, returning the completion of the list and
// the value of the last expression statement (the script result).
func (ec *EvalCtx) execStmts(env *Env, body []Stmt) completion {
	out := completionNormal
	for _, s := range body {
		c := ec.execStmt(env, s)
		if c.kind != compNormal {
			return c
		}
		if c.value.Tag != TagUndefined || isExprStmt(s) {
			out.value = c.value
		}
	}
	return out
}

func isExprStmt(s Stmt) bool {
	_, ok := s.(*ExprStmt)
	return ok
}

func (ec *EvalCtx) execStmt(env *Env, s Stmt) completion {
	ec.meter.step()
	ec.act().cur = s

	switch st := s.(type) {
	case *EmptyStmt, *FuncDecl:
		return completionNormal

	case *ExprStmt:
		v, c := ec.eval(env, st.X)
		if c != nil {
			return *c
		}
		return completion{value: v}

	case *VarDecl:
		return ec.execVarDecl(env, st)

	case *BlockStmt:
		inner := NewEnv(env)
		if c := ec.hoist(inner, st.Body, false); c.kind != compNormal {
			return c
		}
		return ec.execStmts(inner, st.Body)

	case *IfStmt:
		cond, c := ec.eval(env, st.Cond)
		if c != nil {
			return *c
		}
		if cond.ToBoolean() {
			return ec.execStmt(env, st.Then)
		}
		if st.Else != nil {
			return ec.execStmt(env, st.Else)
		}
		return completionNormal

	case *WhileStmt:
		return ec.execWhile(env, st, "")

	case *DoWhileStmt:
		return ec.execDoWhile(env, st, "")

	case *ForStmt:
		return ec.execFor(env, st, "")

	case *ForInStmt:
		return ec.execForIn(env, st, "")

	case *SwitchStmt:
		return ec.execSwitch(env, st, "")

	case *LabeledStmt:
		return ec.execLabeled(env, st)

	case *BreakStmt:
		return completion{kind: compBreak, label: st.Label}

	case *ContinueStmt:
		return completion{kind: compContinue, label: st.Label}

	case *ReturnStmt:
		v := Undefined
		if st.Value != nil {
			var c *completion
			v, c = ec.eval(env, st.Value)
			if c != nil {
				return *c
			}
		}
		return completion{kind: compReturn, value: v}

	case *ThrowStmt:
		v, c := ec.eval(env, st.Value)
		if c != nil {
			return *c
		}
		return *ec.throwValue(v, st.NodePos())

	case *TryStmt:
		return ec.execTry(env, st)
	}
	return *ec.throwError("InternalError", "unknown statement", s.NodePos())
}

////////////////////////////////////////////////////////////////////////////////
//                                  HOISTING
////////////////////////////////////////////////////////////////////////////////

// hoist prepares a scope before its statements run: at function (or program)
// level all `var` declarations become undefined bindings and all function
// declarations bind fully; in any block, let/const enter their temporal dead
// zone and block-level function declarations bind.
func (ec *EvalCtx) hoist(env *Env, body []Stmt, fnScope bool) completion {
	if fnScope {
		for _, name := range collectVarNames(body) {
			if _, ok := env.lookupLocal(name); !ok {
				env.define(name, BindVar, Undefined)
			}
		}
	}
	for _, s := range body {
		switch st := s.(type) {
		case *VarDecl:
			if st.Kind != DeclVar {
				for _, d := range st.Decls {
					for _, name := range patternNames(d.Target) {
						kind := BindLet
						if st.Kind == DeclConst {
							kind = BindConst
						}
						env.declareTDZ(name, kind)
					}
				}
			}
		case *FuncDecl:
			fn := ec.closure(env, st.Fn)
			env.define(st.Name, BindFn, fn)
		}
	}
	return completionNormal
}

// collectVarNames gathers var-declared names in body without descending
// into nested functions.
func collectVarNames(body []Stmt) []string {
	var names []string
	var walk func(s Stmt)
	walkBody := func(b []Stmt) {
		for _, s := range b {
			walk(s)
		}
	}
	walk = func(s Stmt) {
		switch st := s.(type) {
		case *VarDecl:
			if st.Kind == DeclVar {
				for _, d := range st.Decls {
					names = append(names, patternNames(d.Target)...)
				}
			}
		case *BlockStmt:
			walkBody(st.Body)
		case *IfStmt:
			walk(st.Then)
			if st.Else != nil {
				walk(st.Else)
			}
		case *WhileStmt:
			walk(st.Body)
		case *DoWhileStmt:
			walk(st.Body)
		case *ForStmt:
			if st.Init != nil {
				walk(st.Init)
			}
			walk(st.Body)
		case *ForInStmt:
			if st.Decl == DeclVar && !st.Plain {
				names = append(names, patternNames(st.Target)...)
			}
			walk(st.Body)
		case *SwitchStmt:
			for _, c := range st.Cases {
				walkBody(c.Body)
			}
		case *TryStmt:
			walkBody(st.Block.Body)
			if st.Catch != nil {
				walkBody(st.Catch.Body)
			}
			if st.Finally != nil {
				walkBody(st.Finally.Body)
			}
		case *LabeledStmt:
			walk(st.Body)
		}
	}
	walkBody(body)
	return names
}

// patternNames lists the identifiers a binding pattern introduces.
func patternNames(p Pattern) []string {
	switch pat := p.(type) {
	case *IdentPat:
		return []string{pat.Name}
	case *ArrayPat:
		var names []string
		for _, el := range pat.Elems {
			if el != nil {
				names = append(names, patternNames(el)...)
			}
		}
		if pat.Rest != nil {
			names = append(names, patternNames(pat.Rest)...)
		}
		return names
	case *ObjectPat:
		var names []string
		for _, prop := range pat.Props {
			names = append(names, patternNames(prop.Target)...)
		}
		return names
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
//                                DECLARATIONS
////////////////////////////////////////////////////////////////////////////////

func (ec *EvalCtx) execVarDecl(env *Env, st *VarDecl) completion {
	for _, d := range st.Decls {
		v := Undefined
		if d.Init != nil {
			var c *completion
			v, c = ec.eval(env, d.Init)
			if c != nil {
				return *c
			}
		}
		if c := ec.bindPattern(env, d.Target, nil, v, st.Kind, false); c != nil {
			return *c
		}
	}
	return completionNormal
}

// bindPattern assigns v through a binding pattern. For let/const the TDZ
// binding created at hoist time is initialized; for var the hoisted
// function-scope binding is assigned; params define directly.
func (ec *EvalCtx) bindPattern(env *Env, p Pattern, def Expr, v Value, kind DeclKind, param bool) *completion {
	if v.IsUndefined() && def != nil {
		dv, c := ec.eval(env, def)
		if c != nil {
			return c
		}
		v = dv
	}
	switch pat := p.(type) {
	case *IdentPat:
		ec.bindName(env, pat.Name, v, kind, param)
		return nil

	case *ArrayPat:
		if v.Tag != TagObject || v.Obj.Class != ClassArray {
			if v.Tag == TagString {
				return ec.bindArrayPatString(env, pat, v.Str, kind, param)
			}
			return ec.TypeError(v.Tag.String() + " is not iterable")
		}
		elems := v.Obj.elems
		for i, el := range pat.Elems {
			if el == nil {
				continue
			}
			ev := Undefined
			if i < len(elems) {
				ev = elems[i]
			}
			if c := ec.bindPattern(env, el, pat.Defaults[i], ev, kind, param); c != nil {
				return c
			}
		}
		if pat.Rest != nil {
			var rest []Value
			if len(pat.Elems) < len(elems) {
				rest = append(rest, elems[len(pat.Elems):]...)
			}
			rv := ObjVal(ec.NewArray(rest))
			if c := ec.bindPattern(env, pat.Rest, nil, rv, kind, param); c != nil {
				return c
			}
		}
		return nil

	case *ObjectPat:
		if v.IsNullish() {
			return ec.TypeError("Cannot destructure " + v.ToString())
		}
		for _, prop := range pat.Props {
			pv, c := ec.getProperty(v, prop.Key, p.NodePos())
			if c != nil {
				return c
			}
			if c := ec.bindPattern(env, prop.Target, prop.Default, pv, kind, param); c != nil {
				return c
			}
		}
		return nil
	}
	return ec.TypeError("invalid binding pattern")
}

func (ec *EvalCtx) bindArrayPatString(env *Env, pat *ArrayPat, s string, kind DeclKind, param bool) *completion {
	runes := []rune(s)
	for i, el := range pat.Elems {
		if el == nil {
			continue
		}
		ev := Undefined
		if i < len(runes) {
			ev = ec.Str(string(runes[i]))
		}
		if c := ec.bindPattern(env, el, pat.Defaults[i], ev, kind, param); c != nil {
			return c
		}
	}
	if pat.Rest != nil {
		var rest []Value
		if len(pat.Elems) < len(runes) {
			for _, r := range runes[len(pat.Elems):] {
				rest = append(rest, ec.Str(string(r)))
			}
		}
		return ec.bindPattern(env, pat.Rest, nil, ObjVal(ec.NewArray(rest)), kind, param)
	}
	return nil
}

func (ec *EvalCtx) bindName(env *Env, name string, v Value, kind DeclKind, param bool) {
	if param {
		env.define(name, BindParam, v)
		return
	}
	switch kind {
	case DeclVar:
		if b, ok := env.lookup(name); ok {
			b.value = v
			b.initialized = true
			return
		}
		env.define(name, BindVar, v)
	default:
		if b, ok := env.lookupLocal(name); ok {
			b.value = v
			b.initialized = true
			return
		}
		k := BindLet
		if kind == DeclConst {
			k = BindConst
		}
		env.define(name, k, v)
	}
}

////////////////////////////////////////////////////////////////////////////////
//                                   LOOPS
////////////////////////////////////////////////////////////////////////////////

// loopDone interprets a loop body completion; done means leave the loop,
// and a non-nil out is propagated to the caller.
func loopDone(c completion, label string) (done bool, out *completion) {
	switch c.kind {
	case compNormal:
		return false, nil
	case compContinue:
		if c.label == "" || c.label == label {
			return false, nil
		}
		return true, &c
	case compBreak:
		if c.label == "" || c.label == label {
			return true, nil
		}
		return true, &c
	default:
		return true, &c
	}
}

func (ec *EvalCtx) execLabeled(env *Env, st *LabeledStmt) completion {
	switch body := st.Body.(type) {
	case *WhileStmt:
		return ec.execWhile(env, body, st.Label)
	case *DoWhileStmt:
		return ec.execDoWhile(env, body, st.Label)
	case *ForStmt:
		return ec.execFor(env, body, st.Label)
	case *ForInStmt:
		return ec.execForIn(env, body, st.Label)
	case *SwitchStmt:
		return ec.execSwitch(env, body, st.Label)
	default:
		return ec.execStmt(env, st.Body)
	}
}

func (ec *EvalCtx) execWhile(env *Env, st *WhileStmt, label string) completion {
	for {
		ec.meter.step()
		cond, c := ec.eval(env, st.Cond)
		if c != nil {
			return *c
		}
		if !cond.ToBoolean() {
			return completionNormal
		}
		if done, out := loopDone(ec.execStmt(env, st.Body), label); done {
			if out != nil {
				return *out
			}
			return completionNormal
		}
	}
}

func (ec *EvalCtx) execDoWhile(env *Env, st *DoWhileStmt, label string) completion {
	for {
		ec.meter.step()
		if done, out := loopDone(ec.execStmt(env, st.Body), label); done {
			if out != nil {
				return *out
			}
			return completionNormal
		}
		cond, c := ec.eval(env, st.Cond)
		if c != nil {
			return *c
		}
		if !cond.ToBoolean() {
			return completionNormal
		}
	}
}

func (ec *EvalCtx) execFor(env *Env, st *ForStmt, label string) completion {
	loopEnv := env
	var letNames []string
	if init, ok := st.Init.(*VarDecl); ok && init.Kind != DeclVar {
		loopEnv = NewEnv(env)
		for _, d := range init.Decls {
			letNames = append(letNames, patternNames(d.Target)...)
		}
		kind := BindLet
		if init.Kind == DeclConst {
			kind = BindConst
		}
		for _, n := range letNames {
			loopEnv.declareTDZ(n, kind)
		}
	}
	if st.Init != nil {
		if c := ec.execStmt(loopEnv, st.Init); c.kind != compNormal {
			return c
		}
	}
	first := true
	for {
		ec.meter.step()

		// Per-iteration copy of let bindings so closures created in the
		// body capture this iteration's values. The update expression runs
		// in the next iteration's copy, after the previous body's bindings
		// were snapshotted.
		iterEnv := loopEnv
		if len(letNames) > 0 && loopEnv != env {
			iterEnv = NewEnv(env)
			for _, n := range letNames {
				if b, ok := loopEnv.lookupLocal(n); ok {
					iterEnv.define(n, b.kind, b.value)
				}
			}
		}

		if !first && st.Post != nil {
			if _, c := ec.eval(iterEnv, st.Post); c != nil {
				return *c
			}
		}
		first = false

		if st.Cond != nil {
			cond, c := ec.eval(iterEnv, st.Cond)
			if c != nil {
				return *c
			}
			if !cond.ToBoolean() {
				return completionNormal
			}
		}
		if done, out := loopDone(ec.execStmt(iterEnv, st.Body), label); done {
			if out != nil {
				return *out
			}
			return completionNormal
		}

		// Snapshot mutated bindings so the next iteration starts from them.
		if iterEnv != loopEnv {
			for _, n := range letNames {
				if b, ok := iterEnv.lookupLocal(n); ok {
					if lb, ok2 := loopEnv.lookupLocal(n); ok2 {
						lb.value = b.value
					}
				}
			}
		}
	}
}

func (ec *EvalCtx) execForIn(env *Env, st *ForInStmt, label string) completion {
	obj, c := ec.eval(env, st.Object)
	if c != nil {
		return *c
	}

	var items []Value
	if st.Of {
		vals, cc := ec.iterableValues(obj, st.Object.NodePos())
		if cc != nil {
			return *cc
		}
		items = vals
	} else {
		if obj.IsNullish() {
			return completionNormal
		}
		for _, k := range ec.enumerateKeys(obj) {
			items = append(items, ec.Str(k))
		}
	}

	for _, item := range items {
		ec.meter.step()
		iterEnv := env
		if !st.Plain {
			iterEnv = NewEnv(env)
			kind := st.Decl
			if kind != DeclVar {
				for _, n := range patternNames(st.Target) {
					k := BindLet
					if kind == DeclConst {
						k = BindConst
					}
					iterEnv.declareTDZ(n, k)
				}
			}
			if cc := ec.bindPattern(iterEnv, st.Target, nil, item, kind, false); cc != nil {
				return *cc
			}
		} else {
			if cc := ec.assignPattern(env, st.Target, item); cc != nil {
				return *cc
			}
		}
		if done, out := loopDone(ec.execStmt(iterEnv, st.Body), label); done {
			if out != nil {
				return *out
			}
			return completionNormal
		}
	}
	return completionNormal
}

// assignPattern writes item through a pre-existing binding target
// (`for (x of xs)` with x declared earlier).
func (ec *EvalCtx) assignPattern(env *Env, p Pattern, v Value) *completion {
	switch pat := p.(type) {
	case *IdentPat:
		return ec.assignIdent(env, pat.Name, v, p.NodePos())
	default:
		return ec.bindPattern(env, p, nil, v, DeclVar, false)
	}
}

// iterableValues materializes the for-of sequence for arrays and strings.
func (ec *EvalCtx) iterableValues(v Value, pos Pos) ([]Value, *completion) {
	switch {
	case v.Tag == TagString:
		var out []Value
		for _, r := range v.Str {
			out = append(out, ec.Str(string(r)))
		}
		return out, nil
	case v.Tag == TagObject && v.Obj.Class == ClassArray:
		out := make([]Value, len(v.Obj.elems))
		copy(out, v.Obj.elems)
		return out, nil
	default:
		return nil, ec.throwError("TypeError", v.Tag.String()+" is not iterable", pos)
	}
}

// enumerateKeys lists enumerable property names, dispatching through the
// dynamic resolver for DynamicHost objects.
func (ec *EvalCtx) enumerateKeys(v Value) []string {
	switch v.Tag {
	case TagString:
		keys := make([]string, u16Len(v.Str))
		for i := range keys {
			keys[i] = numberToString(float64(i))
		}
		return keys
	case TagObject:
		if v.Obj.Class == ClassDynamicHost {
			props := v.Obj.dyn.Enumerate(ec)
			keys := make([]string, len(props))
			for i, p := range props {
				keys[i] = p.Name
			}
			return keys
		}
		return v.Obj.enumKeys()
	default:
		return nil
	}
}

////////////////////////////////////////////////////////////////////////////////
//                              SWITCH AND TRY
////////////////////////////////////////////////////////////////////////////////

func (ec *EvalCtx) execSwitch(env *Env, st *SwitchStmt, label string) completion {
	disc, c := ec.eval(env, st.Disc)
	if c != nil {
		return *c
	}
	inner := NewEnv(env)
	for _, cs := range st.Cases {
		if c := ec.hoistCase(inner, cs.Body); c.kind != compNormal {
			return c
		}
	}

	match := -1
	for i, cs := range st.Cases {
		if cs.Test == nil {
			continue
		}
		tv, cc := ec.eval(inner, cs.Test)
		if cc != nil {
			return *cc
		}
		if StrictEquals(disc, tv) {
			match = i
			break
		}
	}
	if match < 0 {
		for i, cs := range st.Cases {
			if cs.Test == nil {
				match = i
				break
			}
		}
	}
	if match < 0 {
		return completionNormal
	}

	for _, cs := range st.Cases[match:] {
		for _, s := range cs.Body {
			cc := ec.execStmt(inner, s)
			switch cc.kind {
			case compNormal:
			case compBreak:
				if cc.label == "" || cc.label == label {
					return completionNormal
				}
				return cc
			default:
				return cc
			}
		}
	}
	return completionNormal
}

func (ec *EvalCtx) hoistCase(env *Env, body []Stmt) completion {
	return ec.hoist(env, body, false)
}

func (ec *EvalCtx) execTry(env *Env, st *TryStmt) completion {
	c := ec.execStmt(env, st.Block)

	if c.kind == compThrow && st.Catch != nil {
		catchEnv := NewEnv(env)
		var bindErr *completion
		if st.CatchParam != nil {
			bindErr = ec.bindPattern(catchEnv, st.CatchParam, nil, c.value, DeclLet, true)
		}
		if bindErr != nil {
			c = *bindErr
		} else {
			if hc := ec.hoist(catchEnv, st.Catch.Body, false); hc.kind != compNormal {
				c = hc
			} else {
				c = ec.execStmts(catchEnv, st.Catch.Body)
			}
		}
	}

	// finally always runs (unless a LimitsError unwound past us); an
	// abrupt finally completion supersedes the try/catch result.
	if st.Finally != nil {
		fc := ec.execStmt(env, st.Finally)
		if fc.kind != compNormal {
			return fc
		}
	}
	return c
}
