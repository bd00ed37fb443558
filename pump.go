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

import "go.uber.org/zap"

// TransferFunc is a pure function of buffer state: it reads from
// InputBuffer, writes to OutputFanOut, and returns the next
// TransferState describing what it is waiting for. It
// is handed the owning actor so fan-in variants can reach secondary
// input buffers alongside the primary one.
type TransferFunc func(a *ProcessorActor) TransferState

// Pump is the single reentry point that drives the transfer function
// while its TransferState is executable, and reports completion so the
// actor can drive shutdown.
//
// Grounded on smux's shaperLoop/sendLoop shape: loop while there is
// work, then signal completion exactly once.
type Pump struct {
	log           *zap.Logger
	transfer      TransferFunc
	transferState TransferState
	running       bool // reentrancy guard: transfer must not be reentered
}

// NewPump builds a Pump around transfer, starting from initialState.
func NewPump(transfer TransferFunc, initialState TransferState, log *zap.Logger) *Pump {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pump{log: log, transfer: transfer, transferState: initialState}
}

// State returns the pump's current TransferState.
func (p *Pump) State() TransferState { return p.transferState }

// SetState overrides the current TransferState, for the actor to force
// a readiness recheck outside the normal transfer loop (e.g. on the
// RequestRecheckSignal Throttle sends once its limiter's next-allowed
// deadline passes).
func (p *Pump) SetState(s TransferState) { p.transferState = s }

// pumpResult is what Run reports back to the actor so it can sequence
// Flushing/shutdown without Pump reaching into actor internals.
type pumpResult struct {
	completed bool
	failed    error
}

// Run executes the transfer loop: while transferState.IsExecutable(),
// re-assign transferState <- transfer(a). A panic escaping
// transfer is treated as a non-fatal transfer failure with that cause.
func (p *Pump) Run(a *ProcessorActor) (result pumpResult) {
	if p.running {
		// Pump must not be reentered from within transfer.
		panic("processor: pump reentered")
	}
	p.running = true
	defer func() { p.running = false }()

	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = &transferPanic{recovered: r}
			}
			p.log.Error("transfer function failed", zap.Error(err))
			result = pumpResult{failed: err}
		}
	}()

	for p.transferState.IsExecutable() {
		p.transferState = p.transfer(a)
	}

	if p.transferState.IsCompleted() {
		return pumpResult{completed: true}
	}
	return pumpResult{}
}

type transferPanic struct {
	recovered any
}

func (e *transferPanic) Error() string {
	return "processor: transfer panicked"
}

func (e *transferPanic) Unwrap() error {
	if err, ok := e.recovered.(error); ok {
		return err
	}
	return nil
}
