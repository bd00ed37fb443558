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

// PredicateFunc reports whether element should pass downstream.
type PredicateFunc func(element any) bool

// Filter is the one-to-zero-or-one variant: elements failing the
// predicate are dropped without consuming any downstream demand.
type Filter struct {
	BaseVariant
	predicate PredicateFunc
}

// NewFilter builds a Filter variant around predicate.
func NewFilter(predicate PredicateFunc) *Filter {
	return &Filter{predicate: predicate}
}

func (f *Filter) InitialTransferState(a *ProcessorActor) TransferState {
	return a.PrimaryInput().NeedsInput().And(a.Output().NeedsDemandOrCancel())
}

// Transfer dequeues and discards non-matching elements in the same
// cycle, only ever emitting downstream once a match is found or input
// is exhausted, so a run of dropped elements never stalls waiting for
// downstream demand it does not need.
func (f *Filter) Transfer(a *ProcessorActor) TransferState {
	in := a.PrimaryInput()
	out := a.Output()

	if out.DownstreamClosed() {
		in.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	for {
		element, ok := in.Dequeue()
		if !ok {
			break
		}
		if f.predicate(element) {
			out.EnqueueOutputElement(element)
			break
		}
	}

	return in.NeedsInput().And(out.NeedsDemandOrCancel())
}
