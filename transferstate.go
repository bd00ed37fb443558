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

// TransferState describes whether the transfer function may run now
// and whether it has terminated.
type TransferState struct {
	isReady     bool
	isCompleted bool
}

// NotInitialized is the distinguished zero instance: not ready, not
// completed.
var NotInitialized = TransferState{isReady: false, isCompleted: false}

// NewTransferState builds an explicit readiness/termination pair.
func NewTransferState(ready, completed bool) TransferState {
	return TransferState{isReady: ready, isCompleted: completed}
}

// IsReady reports whether the transfer function may run.
func (t TransferState) IsReady() bool { return t.isReady }

// IsCompleted reports whether the transfer function has nothing left
// to ever do again.
func (t TransferState) IsCompleted() bool { return t.isCompleted }

// IsExecutable is isReady && !isCompleted.
func (t TransferState) IsExecutable() bool { return t.isReady && !t.isCompleted }

// And composes two states conjunctively: ready iff both ready,
// completed iff either completed.
func (t TransferState) And(o TransferState) TransferState {
	return TransferState{
		isReady:     t.isReady && o.isReady,
		isCompleted: t.isCompleted || o.isCompleted,
	}
}

// Or composes two states disjunctively: ready iff either ready,
// completed iff both completed.
func (t TransferState) Or(o TransferState) TransferState {
	return TransferState{
		isReady:     t.isReady || o.isReady,
		isCompleted: t.isCompleted && o.isCompleted,
	}
}
