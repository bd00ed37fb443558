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

// RecoverFunc is consulted when the upstream publisher calls onError.
// Returning (substitute, true) emits substitute as the final element
// before completing gracefully; returning (_, false) re-raises cause
// as the processor's own failure.
type RecoverFunc func(cause error) (substitute any, ok bool)

// Recover behaves exactly like Transform on the happy path, but
// implements ErrorRecoverer so a ProcessorActor consults it before
// failing on an upstream onError, turning a recoverable failure into
// one final substitute element followed by graceful completion.
type Recover struct {
	BaseVariant
	fn      TransformFunc
	recover RecoverFunc

	armed    bool
	fallback any
	emitted  bool
}

// NewRecover builds a Recover variant: fn maps elements on the happy
// path, recover decides what (if anything) to emit on upstream error.
func NewRecover(fn TransformFunc, recover RecoverFunc) *Recover {
	return &Recover{fn: fn, recover: recover}
}

func (r *Recover) InitialTransferState(a *ProcessorActor) TransferState {
	return r.readiness(a)
}

// readiness must account for armed/emitted, the same state Transfer
// branches on, since this is also called to recheck readiness any
// time the pump is re-run outside the Transfer loop itself (runPump
// refreshes from this on every signal). Once armed, the primary
// input is irrelevant: only downstream demand still matters.
func (r *Recover) readiness(a *ProcessorActor) TransferState {
	if r.emitted {
		return NewTransferState(true, true)
	}
	if r.armed {
		demand := a.Output().NeedsDemandOrCancel()
		return NewTransferState(demand.IsReady(), demand.IsCompleted())
	}
	return a.PrimaryInput().NeedsInput().And(a.Output().NeedsDemandOrCancel())
}

// RecoverFromUpstreamError implements ErrorRecoverer. It is consulted
// by ProcessorActor.handleUpstreamError on an upstream OnError, before
// the actor falls back to fail.
func (r *Recover) RecoverFromUpstreamError(cause error) bool {
	substitute, ok := r.recover(cause)
	if !ok {
		return false
	}
	r.armed = true
	r.fallback = substitute
	return true
}

// Transfer mirrors Transform.Transfer on the happy path. Once armed by
// a successful RecoverFromUpstreamError, it emits the substitute
// element as soon as downstream has demand, then completes.
func (r *Recover) Transfer(a *ProcessorActor) TransferState {
	out := a.Output()

	if r.emitted {
		return NewTransferState(true, true)
	}
	if r.armed {
		if !out.NeedsDemandOrCancel().IsReady() {
			return r.readiness(a)
		}
		out.EnqueueOutputElement(r.fallback)
		r.emitted = true
		return r.readiness(a)
	}

	in := a.PrimaryInput()
	if out.DownstreamClosed() {
		in.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	element, ok := in.Dequeue()
	if ok {
		mapped, err := r.fn(element)
		if err != nil {
			panic(err)
		}
		out.EnqueueOutputElement(mapped)
	}

	return in.NeedsInput().And(out.NeedsDemandOrCancel())
}
