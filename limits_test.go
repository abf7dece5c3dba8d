// limits_test.go
package jssandbox

import (
	"context"
	"testing"
	"time"
)

func wantLimit(t *testing.T, src, msg string, opts ...EvalOpts) *LimitsError {
	t.Helper()
	_, err := Eval(src, opts...)
	if err == nil {
		t.Fatalf("source %q: expected the limit error %q", src, msg)
	}
	le, ok := err.(*LimitsError)
	if !ok {
		t.Fatalf("source %q: expected *LimitsError, got %T: %v", src, err, err)
	}
	if le.Message != msg {
		t.Fatalf("source %q: want message %q, got %q", src, msg, le.Message)
	}
	if !IsLimits(err) {
		t.Fatalf("IsLimits must report true for %T", err)
	}
	return le
}

func Test_Limits_Ops_Default(t *testing.T) {
	wantLimit(t, "while (true) {}", MsgOpsLimit)
}

func Test_Limits_Ops_Custom(t *testing.T) {
	wantLimit(t, "for (let i = 0; ; i++) {}", MsgOpsLimit, EvalOpts{MaxOps: 1000})
}

func Test_Limits_Ops_Message_Is_Exact(t *testing.T) {
	_, err := Eval("while (true) {}", EvalOpts{MaxOps: 100})
	if err == nil || err.Error() != "Reached the execution limit!" {
		t.Fatalf("want the exact ops message, got %v", err)
	}
}

func Test_Limits_Memory_Default(t *testing.T) {
	// repeated growth is charged per step, so the default 8 MiB budget trips
	wantLimit(t, "'x'.repeat(1000000)", MsgMemLimit)
}

func Test_Limits_Memory_Custom(t *testing.T) {
	wantLimit(t, "let s = 'x'; while (true) { s = s + s; }", MsgMemLimit,
		EvalOpts{MaxMemBytes: 64 * 1024})
}

func Test_Limits_Memory_Array_Preallocation(t *testing.T) {
	// the slot cost is charged before the backing store is allocated
	wantLimit(t, "new Array(100000000)", MsgMemLimit)
}

func Test_Limits_CallDepth_Default(t *testing.T) {
	wantLimit(t, "function f() { return f(); } f()", MsgCallStackLimit)
}

func Test_Limits_CallDepth_Custom(t *testing.T) {
	wantLimit(t, "function f(n) { return f(n + 1); } f(0)", MsgCallStackLimit,
		EvalOpts{MaxCallDepth: 10})
	// depth 10 still admits a 9-deep recursion
	v, err := Eval("function f(n) { return n < 8 ? f(n + 1) : n; } f(0)",
		EvalOpts{MaxCallDepth: 10})
	if err != nil {
		t.Fatalf("recursion within the budget failed: %v", err)
	}
	if v.Num != 8 {
		t.Fatalf("want 8, got %v", v.Num)
	}
}

func Test_Limits_Timeout(t *testing.T) {
	wantLimit(t, "while (true) {}", MsgTimeout,
		EvalOpts{Timeout: 30 * time.Millisecond, MaxOps: 1 << 40})
}

func Test_Limits_Context_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()
	_, err := Eval("while (true) {}", EvalOpts{
		Context: ctx,
		Timeout: -1,
		MaxOps:  1 << 40,
	})
	le, ok := err.(*LimitsError)
	if !ok {
		t.Fatalf("expected *LimitsError, got %T: %v", err, err)
	}
	if le.Message != MsgTimeout {
		t.Fatalf("cancellation must surface as the timeout error, got %q", le.Message)
	}
}

func Test_Limits_Not_Catchable_By_Script(t *testing.T) {
	// a script try/catch must not observe resource exhaustion
	_, err := Eval("try { while (true) {} } catch (e) { 'caught' }",
		EvalOpts{MaxOps: 1000})
	le, ok := err.(*LimitsError)
	if !ok {
		t.Fatalf("limit leaked into script catch: %v (%T)", err, err)
	}
	if le.Message != MsgOpsLimit {
		t.Fatalf("want %q, got %q", MsgOpsLimit, le.Message)
	}
}

func Test_Limits_Finally_Skipped(t *testing.T) {
	// the unwind skips pending finally blocks; side effects must not run
	called := false
	def := NewObjectDef("probe").Method("note", func(ec *EvalCtx) Value {
		called = true
		return Undefined
	})
	_, err := Eval("try { while (true) {} } finally { probe.note(); }", EvalOpts{
		MaxOps:      1000,
		Definitions: []*ObjectDef{def},
	})
	if !IsLimits(err) {
		t.Fatalf("expected a limits error, got %v", err)
	}
	if called {
		t.Fatal("finally block ran during the limit unwind")
	}
}

func Test_Limits_Stats_On_Failure(t *testing.T) {
	script, err := Parse("while (true) {}")
	if err != nil {
		t.Fatal(err)
	}
	r, err := script.EvalWithDetails(EvalOpts{MaxOps: 500})
	if !IsLimits(err) {
		t.Fatalf("expected a limits error, got %v", err)
	}
	if r.Stats.Ops <= 500 {
		t.Fatalf("stats must reflect the work done before the trip: %+v", r.Stats)
	}
}

func Test_Limits_IsLimits_Discriminates(t *testing.T) {
	_, err := Eval("null.x")
	if IsLimits(err) {
		t.Fatalf("plain runtime faults must not be limits errors: %v", err)
	}
}

func Test_Limits_Disabled_Timeout(t *testing.T) {
	v, err := Eval("let n = 0; for (let i = 0; i < 100; i++) n += i; n",
		EvalOpts{Timeout: -1})
	if err != nil {
		t.Fatal(err)
	}
	if v.Num != 4950 {
		t.Fatalf("want 4950, got %v", v.Num)
	}
}

func Test_Limits_Empty_String_Repeat_Terminates(t *testing.T) {
	v, err := Eval("''.repeat(1e15)", EvalOpts{MaxOps: 10000})
	if err != nil {
		t.Fatal(err)
	}
	if v.Str != "" {
		t.Fatalf("want the empty string, got %q", v.Str)
	}
}

func Test_Limits_Huge_Repeat_Trips_Memory(t *testing.T) {
	wantLimit(t, "'x'.repeat(1e15)", MsgMemLimit)
}
