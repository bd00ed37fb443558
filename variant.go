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

// Variant is the narrow capability a concrete processor kind (transform,
// recover, merge, zip, concat, groupBy, splitWhen, throttle, ...)
// supplies to a ProcessorActor.
//
// A Variant works through the methods ProcessorActor, InputBuffer, and
// OutputFanOut expose (Inputs.Dequeue, OutputFanOut.EnqueueOutputElement,
// ...). The one exception is SplitWhen, which reads the current
// OutputFanOut's unexported mailbox to build its replacement.
type Variant interface {
	// InitialTransferState is the TransferState the Pump starts with
	// once the actor enters Running.
	InitialTransferState(a *ProcessorActor) TransferState

	// Transfer is the pure transfer function: read from a's input
	// buffer(s), write to a's OutputFanOut, return the next
	// TransferState.
	Transfer(a *ProcessorActor) TransferState

	// PublisherExposed is invoked once, right after ExposedPublisher
	// is stored, before any other signal can be processed. Fan-in
	// variants use it to subscribe to secondary upstreams, which must
	// never happen from the constructor.
	PublisherExposed(a *ProcessorActor)
}

// BaseVariant gives PublisherExposed a no-op default; embed it in
// variants that only ever have one upstream.
type BaseVariant struct{}

func (BaseVariant) PublisherExposed(*ProcessorActor) {}

// ErrorRecoverer is an optional capability a Variant may additionally
// implement (Recover does) to intercept an upstream OnError before the
// actor fails: if RecoverFromUpstreamError returns true, the actor
// keeps running so a subsequent Transfer call can emit a substitute
// element and complete gracefully instead of propagating the error
// downstream.
type ErrorRecoverer interface {
	RecoverFromUpstreamError(cause error) bool
}
