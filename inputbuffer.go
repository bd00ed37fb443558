// MIT License
//
// Copyright (c) 2016-2017 xtaci
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package processor

import (
	"go.uber.org/zap"
)

// UpstreamHandle is the opaque capability an InputBuffer holds toward
// its upstream publisher: request(n) and cancel(), both idempotent
// after cancel.
type UpstreamHandle interface {
	Request(n int64)
	Cancel()
}

// Inputs is the narrow surface ProcessorActor needs from whatever is
// currently standing in for "the primary input side": either a live
// InputBuffer or the EmptyInputs sentinel.
type Inputs interface {
	Enqueue(element any) error
	Dequeue() (any, bool)
	IsEmpty() bool
	Complete()
	Cancel()
	Clear()
	IsOpen() bool
	NeedsInput() TransferState
}

// InputBuffer is the bounded FIFO absorbing upstream onNext signals,
// emitting request(n) upstream in low-water batches, and exposing a
// NeedsInput readiness signal.
//
// Grounded on smux's Session token bucket (bucket/bucketNotify/
// notifyBucket): here the "bucket" is occupancy headroom instead of
// byte credits, and the refill threshold is the low-water batch B
// instead of an immediate per-read replenishment.
type InputBuffer struct {
	upstream UpstreamHandle
	log      *zap.Logger
	metrics  *Recorder

	capacity int   // C_in
	lowWater int   // B = max(1, C_in/2)
	queue    []any // occupancy <= capacity always

	dequeuesSinceRequest int

	upstreamFinished bool
	terminalErr      error
}

// NewInputBuffer constructs an InputBuffer over upstream with initial
// size initialSize and hard cap capacity, issuing the sole prefetch
// request(initialSize) upstream immediately.
func NewInputBuffer(upstream UpstreamHandle, initialSize, capacity int, log *zap.Logger, metrics *Recorder) *InputBuffer {
	if log == nil {
		log = zap.NewNop()
	}
	b := &InputBuffer{
		upstream: upstream,
		log:      log,
		metrics:  metrics,
		capacity: capacity,
		lowWater: lowWaterOf(capacity),
		queue:    make([]any, 0, capacity),
	}
	b.log.Debug("input buffer prefetch", zap.Int("n", initialSize))
	b.upstream.Request(int64(initialSize))
	return b
}

func lowWaterOf(capacity int) int {
	b := capacity / 2
	if b < 1 {
		b = 1
	}
	return b
}

// Enqueue appends an upstream element. It is a protocol violation to
// enqueue after upstream has finished.
func (b *InputBuffer) Enqueue(element any) error {
	if b.upstreamFinished {
		return ErrProtocolViolation
	}
	b.queue = append(b.queue, element)
	b.metrics.setInputOccupancy(len(b.queue))
	return nil
}

// Dequeue removes and returns the head element. Each dequeue that
// crosses the low-water threshold since the last request re-issues
// request(B) upstream.
func (b *InputBuffer) Dequeue() (any, bool) {
	if len(b.queue) == 0 {
		return nil, false
	}
	e := b.queue[0]
	b.queue = b.queue[1:]
	b.metrics.setInputOccupancy(len(b.queue))

	b.dequeuesSinceRequest++
	if b.dequeuesSinceRequest >= b.lowWater && !b.upstreamFinished {
		b.log.Debug("input buffer low-water request", zap.Int("n", b.lowWater))
		b.upstream.Request(int64(b.lowWater))
		b.dequeuesSinceRequest = 0
	}
	return e, true
}

// IsEmpty reports whether the buffer currently holds no elements.
func (b *InputBuffer) IsEmpty() bool { return len(b.queue) == 0 }

// Complete marks upstream as finished without discarding buffered
// elements; they continue to drain via Dequeue.
func (b *InputBuffer) Complete() {
	b.upstreamFinished = true
}

// Cancel calls upstream.Cancel() at most once (not at all if upstream
// has already finished), marks upstream finished, and discards any
// buffered elements.
func (b *InputBuffer) Cancel() {
	if !b.upstreamFinished {
		b.upstreamFinished = true
		b.upstream.Cancel()
	}
	b.Clear()
}

// Clear drops buffered contents without signalling upstream.
func (b *InputBuffer) Clear() {
	b.queue = b.queue[:0]
	b.metrics.setInputOccupancy(0)
}

// IsOpen reports whether this buffer can still accept input (always
// true for a live InputBuffer; EmptyInputs overrides to false).
func (b *InputBuffer) IsOpen() bool { return true }

// NeedsInput is ready iff the buffer is non-empty; completed iff it is
// both empty and upstream has finished.
func (b *InputBuffer) NeedsInput() TransferState {
	return TransferState{
		isReady:     !b.IsEmpty(),
		isCompleted: b.IsEmpty() && b.upstreamFinished,
	}
}

// EmptyInputs is the sentinel used when upstream completes before ever
// sending a subscription: it never has input, reports itself
// immediately completed, and every operation except IsOpen/Cancel is a
// no-op.
type EmptyInputs struct{}

func (EmptyInputs) Enqueue(any) error { return ErrNotOpen }
func (EmptyInputs) Dequeue() (any, bool) { return nil, false }
func (EmptyInputs) IsEmpty() bool        { return true }
func (EmptyInputs) Complete()            {}
func (EmptyInputs) Cancel()              {}
func (EmptyInputs) Clear()               {}
func (EmptyInputs) IsOpen() bool         { return false }
func (EmptyInputs) NeedsInput() TransferState {
	return TransferState{isReady: false, isCompleted: true}
}
