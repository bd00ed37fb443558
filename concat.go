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

// Concat drains the primary upstream to completion before emitting
// anything from the secondary. The secondary subscription itself
// happens immediately, from PublisherExposed, the same as every other
// fan-in variant — only consumption is deferred, so elements the
// secondary produces early are simply buffered in its own InputBuffer
// until the primary finishes.
type Concat struct {
	secondary      SecondaryPublisher
	primaryDrained bool
}

// NewConcat builds a Concat variant appending secondary after the
// processor's primary upstream.
func NewConcat(secondary SecondaryPublisher) *Concat {
	return &Concat{secondary: secondary}
}

func (c *Concat) PublisherExposed(a *ProcessorActor) {
	c.secondary.Subscribe(a.SecondaryUpstreamSubscriber(secondarySource))
}

func (c *Concat) InitialTransferState(a *ProcessorActor) TransferState {
	return c.readiness(a)
}

func (c *Concat) readiness(a *ProcessorActor) TransferState {
	demand := a.Output().NeedsDemandOrCancel()
	if !c.primaryDrained {
		primary := a.PrimaryInput().NeedsInput()
		if !primary.IsCompleted() {
			return primary.And(demand)
		}
		c.primaryDrained = true
	}
	secondaryIn := a.SecondaryInput(secondarySource)
	if !secondaryIn.IsOpen() {
		// Not subscribed yet: nothing buffered, but not finished either.
		return NotInitialized.And(demand)
	}
	return secondaryIn.NeedsInput().And(demand)
}

// Transfer drains the primary until it completes, then switches over
// to the secondary for the remainder of the processor's lifetime.
func (c *Concat) Transfer(a *ProcessorActor) TransferState {
	out := a.Output()
	if out.DownstreamClosed() {
		a.PrimaryInput().Cancel()
		a.SecondaryInput(secondarySource).Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	if !c.primaryDrained {
		primary := a.PrimaryInput()
		if e, ok := primary.Dequeue(); ok {
			out.EnqueueOutputElement(e)
		} else if primary.NeedsInput().IsCompleted() {
			c.primaryDrained = true
		}
		return c.readiness(a)
	}

	secondary := a.SecondaryInput(secondarySource)
	if e, ok := secondary.Dequeue(); ok {
		out.EnqueueOutputElement(e)
	}
	return c.readiness(a)
}
