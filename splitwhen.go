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

// SplitFunc reports whether element should start a fresh output epoch:
// when it flips true, the current downstream is completed and a fresh
// one opens.
type SplitFunc func(element any) bool

// SplitWhen partitions one upstream into a sequence of output epochs
// without tearing down the ProcessorActor between them: whenever the
// predicate flips true, every subscriber registered against the
// current epoch receives onComplete, and a fresh OutputFanOut becomes
// the actor's current one via ReplaceOutput, so Request/Cancel/new
// registrations and the actor's own shutdown bookkeeping all move
// atomically to the new epoch.
//
// PublisherExposed has nothing to do here: there is no secondary
// upstream, only output epoch management on the one primary stream.
type SplitWhen struct {
	BaseVariant
	predicate SplitFunc

	settings MaterializerSettings
	started  bool
}

// NewSplitWhen builds a SplitWhen variant. settings supplies the sizes
// for each fresh epoch's OutputFanOut; it must be the same value the
// owning ProcessorActor was built with.
func NewSplitWhen(predicate SplitFunc, settings MaterializerSettings) *SplitWhen {
	return &SplitWhen{predicate: predicate, settings: settings}
}

func (s *SplitWhen) InitialTransferState(a *ProcessorActor) TransferState {
	return a.PrimaryInput().NeedsInput().And(a.Output().NeedsDemandOrCancel())
}

// Transfer dequeues one element; if the predicate flips true on it (and
// this is not the very first element), the current epoch's subscribers
// are completed and a fresh OutputFanOut replaces the actor's current
// one before the element is emitted into it.
func (s *SplitWhen) Transfer(a *ProcessorActor) TransferState {
	in := a.PrimaryInput()
	out := a.Output()

	if out.DownstreamClosed() {
		in.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	element, ok := in.Dequeue()
	if !ok {
		return in.NeedsInput().And(out.NeedsDemandOrCancel())
	}

	if s.started && s.predicate(element) {
		out.Complete()
		out = NewOutputFanOut(s.settings.InitialFanOutBufferSize, s.settings.MaxFanOutBufferSize, out.mailbox, a.Logger(), nil)
		a.ReplaceOutput(out)
	}
	s.started = true

	out.EnqueueOutputElement(element)
	return in.NeedsInput().And(out.NeedsDemandOrCancel())
}
