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

// Pair is the element Zip emits: one buffered element from each side.
type Pair struct {
	Primary   any
	Secondary any
}

// Zip fans two upstreams into one output, emitting a Pair only once
// both sides have at least one buffered element, and completing as
// soon as either side completes: two upstreams of differing length
// produce exactly min(len) pairs then complete.
type Zip struct {
	secondary SecondaryPublisher
}

// NewZip builds a Zip variant pairing the processor's primary upstream
// with secondary.
func NewZip(secondary SecondaryPublisher) *Zip {
	return &Zip{secondary: secondary}
}

func (z *Zip) PublisherExposed(a *ProcessorActor) {
	z.secondary.Subscribe(a.SecondaryUpstreamSubscriber(secondarySource))
}

func (z *Zip) InitialTransferState(a *ProcessorActor) TransferState {
	return z.readiness(a)
}

func (z *Zip) readiness(a *ProcessorActor) TransferState {
	primary := a.PrimaryInput().NeedsInput()
	secondary := a.SecondaryInput(secondarySource).NeedsInput()
	if !a.SecondaryInput(secondarySource).IsOpen() {
		// Not subscribed yet: nothing buffered, but not finished either.
		secondary = NotInitialized
	}
	demand := a.Output().NeedsDemandOrCancel()

	ready := !a.PrimaryInput().IsEmpty() && !a.SecondaryInput(secondarySource).IsEmpty() && demand.IsReady()
	completed := primary.IsCompleted() || secondary.IsCompleted() || demand.IsCompleted()
	return TransferState{isReady: ready, isCompleted: completed}
}

// Transfer emits exactly one Pair per cycle, draining one element from
// each side in lockstep.
func (z *Zip) Transfer(a *ProcessorActor) TransferState {
	primary := a.PrimaryInput()
	secondary := a.SecondaryInput(secondarySource)
	out := a.Output()

	if out.DownstreamClosed() {
		primary.Cancel()
		secondary.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	if !primary.IsEmpty() && !secondary.IsEmpty() {
		p, _ := primary.Dequeue()
		s, _ := secondary.Dequeue()
		out.EnqueueOutputElement(Pair{Primary: p, Secondary: s})
	}

	return z.readiness(a)
}
