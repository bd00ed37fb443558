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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpstream struct {
	requests []int64
	cancels  int
}

func (f *fakeUpstream) Request(n int64) { f.requests = append(f.requests, n) }
func (f *fakeUpstream) Cancel()         { f.cancels++ }

func TestNewInputBufferPrefetches(t *testing.T) {
	up := &fakeUpstream{}
	buf := NewInputBuffer(up, 16, 16, nil, nil)
	require.Len(t, up.requests, 1)
	assert.Equal(t, int64(16), up.requests[0])
	assert.True(t, buf.IsEmpty())
}

func TestInputBufferLowWaterBatchesRequest(t *testing.T) {
	up := &fakeUpstream{}
	buf := NewInputBuffer(up, 16, 16, nil, nil)

	for i := 0; i < 8; i++ {
		require.NoError(t, buf.Enqueue(i))
	}
	for i := 0; i < 7; i++ {
		_, ok := buf.Dequeue()
		require.True(t, ok)
	}
	assert.Len(t, up.requests, 1, "low water is 8, seven dequeues must not re-request yet")

	_, ok := buf.Dequeue()
	require.True(t, ok)
	require.Len(t, up.requests, 2)
	assert.Equal(t, int64(8), up.requests[1])
}

func TestInputBufferEnqueueAfterCompleteIsProtocolViolation(t *testing.T) {
	up := &fakeUpstream{}
	buf := NewInputBuffer(up, 4, 4, nil, nil)
	buf.Complete()
	err := buf.Enqueue("x")
	assert.ErrorIs(t, err, ErrProtocolViolation)
}

func TestInputBufferNeedsInput(t *testing.T) {
	up := &fakeUpstream{}
	buf := NewInputBuffer(up, 4, 4, nil, nil)

	state := buf.NeedsInput()
	assert.False(t, state.IsReady())
	assert.False(t, state.IsCompleted())

	require.NoError(t, buf.Enqueue("a"))
	state = buf.NeedsInput()
	assert.True(t, state.IsReady())

	buf.Dequeue()
	buf.Complete()
	state = buf.NeedsInput()
	assert.False(t, state.IsReady())
	assert.True(t, state.IsCompleted())
}

func TestInputBufferCancelDropsBufferedElements(t *testing.T) {
	up := &fakeUpstream{}
	buf := NewInputBuffer(up, 4, 4, nil, nil)
	require.NoError(t, buf.Enqueue("a"))
	require.NoError(t, buf.Enqueue("b"))

	buf.Cancel()
	assert.Equal(t, 1, up.cancels)
	assert.True(t, buf.IsEmpty())

	buf.Cancel()
	assert.Equal(t, 1, up.cancels, "cancel is idempotent")
}

func TestEmptyInputsIsAlwaysCompletedAndClosed(t *testing.T) {
	e := EmptyInputs{}
	assert.True(t, e.IsEmpty())
	assert.False(t, e.IsOpen())
	state := e.NeedsInput()
	assert.False(t, state.IsReady())
	assert.True(t, state.IsCompleted())

	_, ok := e.Dequeue()
	assert.False(t, ok)
	assert.ErrorIs(t, e.Enqueue("x"), ErrNotOpen)
}
