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
	"time"

	"golang.org/x/time/rate"
)

// Throttle paces element delivery using golang.org/x/time/rate so a
// burst of buffered input cannot be drained faster than a configured
// rate: the limiter is consulted as an additional
// readiness condition ANDed into the returned TransferState.
type Throttle struct {
	BaseVariant
	limiter *rate.Limiter
}

// NewThrottle builds a Throttle variant allowing at most rate events
// per second with the given burst size.
func NewThrottle(eventsPerSecond float64, burst int) *Throttle {
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(eventsPerSecond), burst)}
}

func (t *Throttle) InitialTransferState(a *ProcessorActor) TransferState {
	return t.readiness(a)
}

// readiness peeks at the limiter without consuming a token: it is
// called far more often than an element is actually emitted (every
// runPump recheck, not just every successful transfer), so it must not
// have the side effect of draining the rate budget itself. When input
// and demand are both ready and only the limiter blocks, it schedules
// a recheck, since the pump will not call Transfer in that state.
func (t *Throttle) readiness(a *ProcessorActor) TransferState {
	in := a.PrimaryInput().NeedsInput()
	demand := a.Output().NeedsDemandOrCancel()
	allowed := t.peekAllowed()
	if !allowed && in.IsReady() && demand.IsReady() {
		t.scheduleRecheck(a)
	}
	limiterReady := TransferState{isReady: allowed, isCompleted: false}
	return in.And(demand).And(limiterReady)
}

func (t *Throttle) peekAllowed() bool {
	reservation := t.limiter.Reserve()
	ok := reservation.OK() && reservation.Delay() <= 0
	reservation.Cancel()
	return ok
}

// Transfer emits at most one element per cycle, gated by both buffer
// readiness and the rate limiter. When the limiter is the only thing
// blocking, it schedules a wakeup once the next token would be
// available, since nothing else will re-trigger the pump on a pure
// timer expiry.
func (t *Throttle) Transfer(a *ProcessorActor) TransferState {
	in := a.PrimaryInput()
	out := a.Output()

	if out.DownstreamClosed() {
		in.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	if !in.IsEmpty() && out.NeedsDemandOrCancel().IsReady() && t.limiter.Allow() {
		e, _ := in.Dequeue()
		out.EnqueueOutputElement(e)
	} else if !in.IsEmpty() {
		t.scheduleRecheck(a)
	}

	return t.readiness(a)
}

// scheduleRecheck wakes the pump again once the limiter's reservation
// would succeed, so a throttled burst still eventually drains instead
// of waiting for an unrelated signal to arrive and re-trigger it.
// Goes through RequestRecheck (mailbox send, safe from any goroutine)
// rather than touching Pump directly: Pump state is owned by the
// actor's single goroutine, and a timer fires on its own goroutine.
func (t *Throttle) scheduleRecheck(a *ProcessorActor) {
	reservation := t.limiter.Reserve()
	delay := reservation.Delay()
	reservation.Cancel()
	if delay <= 0 {
		return
	}
	time.AfterFunc(delay, a.RequestRecheck)
}
