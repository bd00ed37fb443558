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
	"time"

	"github.com/stretchr/testify/require"
)

// chanSubscriber is a Subscriber whose callbacks push onto channels,
// so a test driving a ProcessorActor's own background goroutine can
// synchronize on delivery instead of racing a plain slice.
type chanSubscriber struct {
	next       chan any
	complete   chan struct{}
	errCh      chan error
	subscribed chan struct{}
	sub        Subscription
}

func newChanSubscriber() *chanSubscriber {
	return &chanSubscriber{
		next:       make(chan any, 64),
		complete:   make(chan struct{}, 1),
		errCh:      make(chan error, 1),
		subscribed: make(chan struct{}),
	}
}

func (c *chanSubscriber) OnSubscribe(sub Subscription) {
	c.sub = sub
	close(c.subscribed)
}
func (c *chanSubscriber) OnNext(element any)  { c.next <- element }
func (c *chanSubscriber) OnComplete()         { c.complete <- struct{}{} }
func (c *chanSubscriber) OnError(cause error) { c.errCh <- cause }

func requireSubscribed(t *testing.T, c *chanSubscriber) {
	t.Helper()
	select {
	case <-c.subscribed:
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for onSubscribe")
	}
}

type recordingUpstream struct {
	requests chan int64
	cancels  chan struct{}
}

func newRecordingUpstream() *recordingUpstream {
	return &recordingUpstream{requests: make(chan int64, 64), cancels: make(chan struct{}, 1)}
}

func (u *recordingUpstream) Request(n int64) { u.requests <- n }
func (u *recordingUpstream) Cancel()         { u.cancels <- struct{}{} }

const testTimeout = time.Second

func requireNext(t *testing.T, ch chan any) any {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for onNext")
		return nil
	}
}

func requireComplete(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for onComplete")
	}
}

// Scenario A: subscribe, upstream delivers N elements,
// upstream completes; subscriber sees exactly N onNext then onComplete.
func TestScenarioBasicRoundTrip(t *testing.T) {
	actor, publisher := NewProcessorActor(DefaultMaterializerSettings(), NewTransform(func(e any) (any, error) { return e, nil }), nil, nil)

	sub := newChanSubscriber()
	publisher.Subscribe(sub)
	requireSubscribed(t, sub)

	up := newRecordingUpstream()
	actor.OnSubscribe(up)

	sub.sub.Request(3)
	actor.OnNext("a")
	actor.OnNext("b")
	actor.OnNext("c")
	actor.OnComplete()

	require.Equal(t, "a", requireNext(t, sub.next))
	require.Equal(t, "b", requireNext(t, sub.next))
	require.Equal(t, "c", requireNext(t, sub.next))
	requireComplete(t, sub.complete)
}

// Scenario C: a subscriber that registers after elements
// have already been produced only observes elements from its own
// registration point forward.
func TestScenarioLateSubscriberOnlySeesNewElements(t *testing.T) {
	actor, publisher := NewProcessorActor(DefaultMaterializerSettings(), NewTransform(func(e any) (any, error) { return e, nil }), nil, nil)

	early := newChanSubscriber()
	publisher.Subscribe(early)
	requireSubscribed(t, early)
	up := newRecordingUpstream()
	actor.OnSubscribe(up)
	early.sub.Request(10)

	actor.OnNext(1)
	require.Equal(t, 1, requireNext(t, early.next))

	late := newChanSubscriber()
	publisher.Subscribe(late)
	requireSubscribed(t, late)
	late.sub.Request(10)

	actor.OnNext(2)
	require.Equal(t, 2, requireNext(t, early.next))
	require.Equal(t, 2, requireNext(t, late.next))

	select {
	case v := <-late.next:
		t.Fatalf("late subscriber must not see element produced before it registered, got %v", v)
	default:
	}
}

// Scenario F: a subscription arriving after the actor has
// begun flushing receives onComplete immediately and never onNext.
func TestScenarioSubscribeDuringFlushingNeverSeesOnNext(t *testing.T) {
	actor, publisher := NewProcessorActor(DefaultMaterializerSettings(), NewTransform(func(e any) (any, error) { return e, nil }), nil, nil)

	early := newChanSubscriber()
	publisher.Subscribe(early)
	requireSubscribed(t, early)
	up := newRecordingUpstream()
	actor.OnSubscribe(up)
	early.sub.Request(10)

	actor.OnNext("x")
	require.Equal(t, "x", requireNext(t, early.next))
	actor.OnComplete()
	requireComplete(t, early.complete)

	late := newChanSubscriber()
	publisher.Subscribe(late)
	requireComplete(t, late.complete)
	select {
	case v := <-late.next:
		t.Fatalf("late subscriber during flushing must never see onNext, got %v", v)
	default:
	}
}

// Scenario B: upstream completes before any subscriber has ever
// registered; the first subscriber to arrive afterward still gets
// onSubscribe followed immediately by onComplete, never onNext, even
// though the actor reached ShutDown with zero subscribers ever seen.
func TestScenarioEarlyUpstreamCompletionBeforeSubscribe(t *testing.T) {
	actor, publisher := NewProcessorActor(DefaultMaterializerSettings(), NewTransform(func(e any) (any, error) { return e, nil }), nil, nil)

	actor.OnComplete()

	select {
	case <-actor.Done():
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for actor to shut down with zero subscribers")
	}

	late := newChanSubscriber()
	publisher.Subscribe(late)
	requireSubscribed(t, late)
	requireComplete(t, late.complete)
	select {
	case v := <-late.next:
		t.Fatalf("subscriber arriving after early upstream completion must never see onNext, got %v", v)
	default:
	}
}

// Scenario D: one of two live subscribers cancels mid-stream; the
// other is unaffected and keeps receiving elements through to
// completion.
func TestScenarioMidStreamCancelSecondSubscriberContinues(t *testing.T) {
	actor, publisher := NewProcessorActor(DefaultMaterializerSettings(), NewTransform(func(e any) (any, error) { return e, nil }), nil, nil)

	first := newChanSubscriber()
	publisher.Subscribe(first)
	requireSubscribed(t, first)

	second := newChanSubscriber()
	publisher.Subscribe(second)
	requireSubscribed(t, second)

	up := newRecordingUpstream()
	actor.OnSubscribe(up)
	first.sub.Request(10)
	second.sub.Request(10)

	actor.OnNext("a")
	require.Equal(t, "a", requireNext(t, first.next))
	require.Equal(t, "a", requireNext(t, second.next))

	first.sub.Cancel()

	actor.OnNext("b")
	require.Equal(t, "b", requireNext(t, second.next))
	select {
	case v := <-first.next:
		t.Fatalf("cancelled subscriber must not receive further onNext, got %v", v)
	default:
	}

	actor.OnComplete()
	requireComplete(t, second.complete)
}

// Upstream failure propagates as onError to every live subscriber.
func TestUpstreamErrorPropagatesToSubscribers(t *testing.T) {
	actor, publisher := NewProcessorActor(DefaultMaterializerSettings(), NewTransform(func(e any) (any, error) { return e, nil }), nil, nil)

	sub := newChanSubscriber()
	publisher.Subscribe(sub)
	requireSubscribed(t, sub)
	up := newRecordingUpstream()
	actor.OnSubscribe(up)
	sub.sub.Request(1)

	boom := ErrIllegalState
	actor.OnError(boom)

	select {
	case err := <-sub.errCh:
		require.ErrorIs(t, err, boom)
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for onError")
	}
}

// Low-water batching issues request(n) upstream as elements drain,
// even with the Transform variant wired through a full actor.
func TestActorIssuesLowWaterRequestsUpstream(t *testing.T) {
	settings := MaterializerSettings{InitialInputBufferSize: 4, MaxInputBufferSize: 4, InitialFanOutBufferSize: 4, MaxFanOutBufferSize: 4}
	actor, publisher := NewProcessorActor(settings, NewTransform(func(e any) (any, error) { return e, nil }), nil, nil)

	sub := newChanSubscriber()
	publisher.Subscribe(sub)
	requireSubscribed(t, sub)
	up := newRecordingUpstream()
	actor.OnSubscribe(up)

	select {
	case n := <-up.requests:
		require.Equal(t, int64(4), n)
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for initial prefetch")
	}

	sub.sub.Request(4)
	actor.OnNext(1)
	actor.OnNext(2)

	select {
	case n := <-up.requests:
		require.Equal(t, int64(2), n, "low water of 4 is 2")
	case <-time.After(testTimeout):
		t.Fatal("timed out waiting for low-water request")
	}
}
