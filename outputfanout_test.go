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

type fakeSubscriber struct {
	subscription Subscription
	received     []any
	completed    bool
	err          error
}

func (f *fakeSubscriber) OnSubscribe(sub Subscription) { f.subscription = sub }
func (f *fakeSubscriber) OnNext(element any)           { f.received = append(f.received, element) }
func (f *fakeSubscriber) OnComplete()                  { f.completed = true }
func (f *fakeSubscriber) OnError(cause error)           { f.err = cause }

func newTestFanOut(initial, max int) *OutputFanOut {
	return NewOutputFanOut(initial, max, newMailbox(), nil, nil)
}

func TestOutputFanOutDeliversBufferedOnEnoughDemand(t *testing.T) {
	f := newTestFanOut(4, 4)
	sub := &fakeSubscriber{}
	id := f.RegisterSubscriber(sub).ID

	f.EnqueueOutputElement("a")
	assert.Empty(t, sub.received, "no demand yet")

	f.MoreRequested(id, 1)
	assert.Equal(t, []any{"a"}, sub.received)
}

func TestOutputFanOutLateSubscriberDuringFlushingNeverSeesOnNext(t *testing.T) {
	f := newTestFanOut(4, 4)
	f.EnqueueOutputElement("a")
	f.Complete()

	late := &fakeSubscriber{}
	f.RegisterSubscriber(late)
	assert.True(t, late.completed)
	assert.Empty(t, late.received, "a late subscriber during flushing must never observe onNext")
}

func TestOutputFanOutAbortSendsOnErrorToLiveSubscribers(t *testing.T) {
	f := newTestFanOut(4, 4)
	sub := &fakeSubscriber{}
	f.RegisterSubscriber(sub)

	cause := ErrIllegalState
	f.Abort(cause)
	assert.ErrorIs(t, sub.err, cause)
}

func TestOutputFanOutMultipleSubscribersIndependentCursors(t *testing.T) {
	f := newTestFanOut(8, 8)
	fast := &fakeSubscriber{}
	slow := &fakeSubscriber{}
	fastID := f.RegisterSubscriber(fast).ID
	slowID := f.RegisterSubscriber(slow).ID

	f.MoreRequested(fastID, 10)
	f.EnqueueOutputElement(1)
	f.EnqueueOutputElement(2)
	assert.Equal(t, []any{1, 2}, fast.received)
	assert.Empty(t, slow.received)

	f.MoreRequested(slowID, 10)
	assert.Equal(t, []any{1, 2}, slow.received)
}

func TestOutputFanOutGrowsCapacityUnderBacklog(t *testing.T) {
	f := newTestFanOut(2, 8)
	slow := &fakeSubscriber{}
	f.RegisterSubscriber(slow)

	for i := 0; i < 5; i++ {
		f.EnqueueOutputElement(i)
	}
	assert.GreaterOrEqual(t, f.capacity, 4)

	f.MoreRequested(slow.subscription.ID, 10)
	assert.Equal(t, []any{0, 1, 2, 3, 4}, slow.received)
}

func TestOutputFanOutMoreRequestedNonPositiveFailsSubscriber(t *testing.T) {
	f := newTestFanOut(4, 4)
	sub := &fakeSubscriber{}
	id := f.RegisterSubscriber(sub).ID

	f.MoreRequested(id, 0)
	assert.ErrorIs(t, sub.err, ErrNonPositiveDemand)
}

func TestOutputFanOutUnregisterReleasesBacklogOnceAllEvicted(t *testing.T) {
	f := newTestFanOut(4, 4)
	sub := &fakeSubscriber{}
	id := f.RegisterSubscriber(sub).ID

	f.EnqueueOutputElement("a")
	f.UnregisterSubscription(id)
	require.Equal(t, 0, f.liveCount())
	assert.Nil(t, f.at(0), "cancelling the only subscriber releases the slot it was holding")
	assert.True(t, f.downstreamClosed() == false, "downstreamClosed also requires producer completion/abort")

	f.Complete()
	assert.True(t, f.downstreamClosed())
}
