// limits.go — the resource-metering subsystem.
//
// One meter instance lives inside each EvalCtx. The interpreter calls step()
// before evaluating every AST node and at every loop-iteration head; value
// construction calls the charge* methods at allocation time. Memory
// accounting is monotonic: bytes are never credited back when values become
// unreachable, so a loop that keeps allocating large strings trips the
// memory limit even though the intermediates are garbage. This is the
// documented behavior and removes any need for a collector: a bounded
// evaluation runs to completion and the whole context is discarded.
//
// All limit violations panic with *LimitsError. That panic is the single
// host-stack unwind in the engine: it skips script finally blocks by design
// (scripts must not be able to intercept resource exhaustion) and is
// recovered at the EvalCtx entry point.
//
// Check order on each step is deterministic: ops first, then deadline, then
// the cancel flag. Wall-clock and cancellation are only sampled every 64 ops
// to bound the cost of time.Now(); the resulting jitter is covered by the
// documented epsilon on the deadline guarantee.
package jssandbox

import (
	"context"
	"sync/atomic"
	"time"
)

// Default per-execution budgets.
const (
	DefaultMaxOps       = 10_000_000
	DefaultMaxMemBytes  = 1 << 23 // 8 MiB
	DefaultTimeout      = 5 * time.Second
	DefaultMaxCallDepth = 300
)

// Allocation cost schedule (bytes). Headers are flat approximations of the
// runtime footprint; slots cover one property or array element.
const (
	costObjectHeader  = 32
	costStringHeader  = 16
	costSlot          = 8
	costClosureHeader = 32
)

// timeCheckMask: wall clock and cancel flag are sampled when
// ops&timeCheckMask == 0.
const timeCheckMask = 63

type meter struct {
	ops    int64
	maxOps int64

	allocated int64
	maxMem    int64

	deadline    time.Time
	hasDeadline bool

	depth    int
	maxDepth int

	ctx       context.Context
	cancelled atomic.Bool
}

func limitErr(msg string) *LimitsError {
	return &LimitsError{EvalError{Message: msg}}
}

// step accounts one unit of AST-node work and enforces every budget.
func (m *meter) step() {
	m.ops++
	if m.ops > m.maxOps {
		panic(limitErr(MsgOpsLimit))
	}
	if m.ops&timeCheckMask == 0 {
		m.checkTime()
	}
}

func (m *meter) checkTime() {
	if m.cancelled.Load() {
		panic(limitErr(MsgTimeout))
	}
	if m.ctx != nil {
		select {
		case <-m.ctx.Done():
			panic(limitErr(MsgTimeout))
		default:
		}
	}
	if m.hasDeadline && time.Now().After(m.deadline) {
		panic(limitErr(MsgTimeout))
	}
}

// charge accounts n freshly allocated bytes.
func (m *meter) charge(n int64) {
	m.allocated += n
	if m.allocated > m.maxMem {
		panic(limitErr(MsgMemLimit))
	}
}

func (m *meter) chargeString(byteLen int) {
	m.charge(costStringHeader + int64(byteLen))
}

func (m *meter) chargeObject() {
	m.charge(costObjectHeader)
}

func (m *meter) chargeSlots(n int) {
	m.charge(costSlot * int64(n))
}

func (m *meter) chargeClosure(captured int) {
	m.charge(costClosureHeader + costSlot*int64(captured))
}

func (m *meter) enterCall() {
	m.depth++
	if m.depth > m.maxDepth {
		panic(limitErr(MsgCallStackLimit))
	}
}

func (m *meter) leaveCall() {
	m.depth--
}
