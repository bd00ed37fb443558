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

const secondarySource = 1

// Merge fans two upstreams into one output, interleaving whichever
// side currently has buffered input. The secondary
// upstream is subscribed to from PublisherExposed, never from the
// constructor, so a secondary signal can never arrive before the actor
// is ready to receive it.
type Merge struct {
	secondary SecondaryPublisher
}

// NewMerge builds a Merge variant draining secondary alongside the
// processor's own primary upstream.
func NewMerge(secondary SecondaryPublisher) *Merge {
	return &Merge{secondary: secondary}
}

// PublisherExposed subscribes to the secondary upstream exactly once,
// immediately after ExposedPublisher is stored.
func (m *Merge) PublisherExposed(a *ProcessorActor) {
	m.secondary.Subscribe(a.SecondaryUpstreamSubscriber(secondarySource))
}

func (m *Merge) InitialTransferState(a *ProcessorActor) TransferState {
	return m.readiness(a)
}

func (m *Merge) readiness(a *ProcessorActor) TransferState {
	primary := a.PrimaryInput().NeedsInput()
	secondary := a.SecondaryInput(secondarySource).NeedsInput()
	if !a.SecondaryInput(secondarySource).IsOpen() {
		// Not subscribed yet: nothing buffered, but not finished either.
		secondary = NotInitialized
	}
	demand := a.Output().NeedsDemandOrCancel()
	return primary.Or(secondary).And(demand)
}

// Transfer prefers whichever side has input available this cycle,
// checking primary first; ties resolve to primary. Both sides must
// independently reach completion before Merge completes.
func (m *Merge) Transfer(a *ProcessorActor) TransferState {
	primary := a.PrimaryInput()
	secondary := a.SecondaryInput(secondarySource)
	out := a.Output()

	if out.DownstreamClosed() {
		primary.Cancel()
		secondary.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	if !primary.IsEmpty() {
		e, _ := primary.Dequeue()
		out.EnqueueOutputElement(e)
	} else if !secondary.IsEmpty() {
		e, _ := secondary.Dequeue()
		out.EnqueueOutputElement(e)
	}

	return m.readiness(a)
}
