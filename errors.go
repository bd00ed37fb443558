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
	"errors"
	"fmt"
)

// Sentinel errors describing the failure taxonomy: protocol violations,
// upstream failures, transfer failures, and abrupt termination.
var (
	// ErrProtocolViolation is returned/delivered when a signal arrives
	// out of sequence: a first signal other than ExposedPublisher, a
	// new subscription during Flushing, onNext before onSubscribe, or
	// a non-positive RequestMore.
	ErrProtocolViolation = errors.New("processor: protocol violation")

	// ErrAlreadyTerminated names an operation attempted on a processor
	// that has already reached ShutDown. No function in this package
	// returns it: signals sent after ShutDown are dropped.
	ErrAlreadyTerminated = errors.New("processor: already shut down")

	// ErrIllegalState names an abrupt termination that skipped
	// graceful shutdown. No function in this package delivers it: the
	// actor ends only through its fail and shutdown paths.
	ErrIllegalState = errors.New("processor: illegal state, abrupt termination")

	// ErrNonPositiveDemand is the cause recorded when a subscriber
	// calls RequestMore with n <= 0. It wraps ErrProtocolViolation.
	ErrNonPositiveDemand = fmt.Errorf("%w: request(n) with n <= 0", ErrProtocolViolation)

	// ErrNotOpen is returned by EmptyInputs operations that require an
	// open buffer.
	ErrNotOpen = errors.New("processor: input buffer not open")
)
