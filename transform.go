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

// TransformFunc maps one upstream element to one downstream element,
// or returns an error to fail the whole processor.
type TransformFunc func(element any) (any, error)

// Transform is the one-to-one mapping variant: it dequeues exactly one
// input element per transfer cycle, applies fn, and enqueues the
// result downstream.
type Transform struct {
	BaseVariant
	fn TransformFunc
}

// NewTransform builds a Transform variant around fn.
func NewTransform(fn TransformFunc) *Transform {
	return &Transform{fn: fn}
}

// InitialTransferState is ready iff there is already buffered input
// and downstream demand.
func (t *Transform) InitialTransferState(a *ProcessorActor) TransferState {
	return a.PrimaryInput().NeedsInput().And(a.Output().NeedsDemandOrCancel())
}

// Transfer dequeues one element, maps it, and enqueues the result.
// A transform error is returned via panic so Pump.Run converts it
// into a transfer failure.
func (t *Transform) Transfer(a *ProcessorActor) TransferState {
	in := a.PrimaryInput()
	out := a.Output()

	if out.DownstreamClosed() {
		in.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	element, ok := in.Dequeue()
	if ok {
		mapped, err := t.fn(element)
		if err != nil {
			panic(err)
		}
		out.EnqueueOutputElement(mapped)
	}

	return in.NeedsInput().And(out.NeedsDemandOrCancel())
}
