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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPumpRunsUntilNotExecutable(t *testing.T) {
	calls := 0
	transfer := func(a *ProcessorActor) TransferState {
		calls++
		if calls >= 3 {
			return NewTransferState(false, false)
		}
		return NewTransferState(true, false)
	}
	p := NewPump(transfer, NewTransferState(true, false), nil)
	result := p.Run(nil)
	assert.Equal(t, 3, calls)
	assert.False(t, result.completed)
	assert.Nil(t, result.failed)
}

func TestPumpReportsCompletion(t *testing.T) {
	transfer := func(a *ProcessorActor) TransferState {
		return NewTransferState(true, true)
	}
	p := NewPump(transfer, NewTransferState(true, false), nil)
	result := p.Run(nil)
	assert.True(t, result.completed)
}

func TestPumpConvertsTransferPanicToFailure(t *testing.T) {
	boom := errors.New("boom")
	transfer := func(a *ProcessorActor) TransferState {
		panic(boom)
	}
	p := NewPump(transfer, NewTransferState(true, false), nil)
	result := p.Run(nil)
	require.Error(t, result.failed)
	assert.ErrorIs(t, result.failed, boom)
}

func TestPumpReentryDuringTransferBecomesFailure(t *testing.T) {
	// Run's own defer/recover catches a reentrant call made from
	// within transfer and reports it as a transfer failure, rather
	// than letting the panic escape to the original caller.
	var p *Pump
	transfer := func(a *ProcessorActor) TransferState {
		p.Run(nil)
		return NewTransferState(false, false)
	}
	p = NewPump(transfer, NewTransferState(true, false), nil)
	result := p.Run(nil)
	require.Error(t, result.failed)
}
