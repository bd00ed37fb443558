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
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// unboundedDemand is the saturating sentinel representing "unbounded"
// demand.
const unboundedDemand = int64(1) << 62

// SubscriptionID identifies one live or formerly-live downstream
// subscriber. Backed by a uuid so ids are never reused within a
// processor's lifetime even across heavy churn.
type SubscriptionID = uuid.UUID

// Subscriber is the downstream capability OutputFanOut delivers
// signals to: onSubscribe(subscription), onNext(e), onComplete(),
// onError(cause). Every subscriber gets onSubscribe first, then a
// per-subscriber stream of onNext calls terminated by at most one
// onComplete or onError.
type Subscriber interface {
	OnSubscribe(sub Subscription)
	OnNext(element any)
	OnComplete()
	OnError(cause error)
}

// Subscription is the identity + capability (request/cancel) a
// subscriber is handed via OnSubscribe. Requests and cancellations are
// routed back through the owning actor's mailbox, so they are
// serialized exactly like every other signal.
type Subscription struct {
	ID      SubscriptionID
	mailbox *mailbox
}

// Request asks for n more elements. A non-positive n fails this
// subscriber with a protocol error.
func (s Subscription) Request(n int64) {
	s.mailbox.send(RequestMoreSignal{ID: s.ID, N: n})
}

// Cancel unsubscribes. Idempotent.
func (s Subscription) Cancel() {
	s.mailbox.send(CancelSignal{ID: s.ID})
}

type fanOutSubscriber struct {
	id        SubscriptionID
	sub       Subscriber
	cursor    int64
	demand    int64
	cancelled bool
	completed bool // terminal signal already sent
}

// OutputFanOut is the set of per-subscriber cursors over a shared ring
// buffer, tracking per-subscriber demand, with a global "has-demand"
// readiness signal and eviction of cancelled subscribers.
//
// Grounded on smux's Session.streams map + streamLock for
// tracking/evicting live consumers, generalized from byte-stream
// objects to demand-tracking cursors.
type OutputFanOut struct {
	log     *zap.Logger
	metrics *Recorder
	mailbox *mailbox

	capacity    int // current physical ring length
	maxCapacity int

	elements []any // ring storage, slot = seq % capacity
	tail     int64 // next sequence number to be written

	subscribers map[SubscriptionID]*fanOutSubscriber
	order       []SubscriptionID // registration order, for deterministic fan-out

	producerComplete bool
	aborted          bool
	abortCause       error
}

// NewOutputFanOut constructs an OutputFanOut with the given initial
// and maximum ring capacities and no subscribers. mbox is the owning
// actor's mailbox, used to bind Request/Cancel on each Subscription
// handed out.
func NewOutputFanOut(initialCapacity, maxCapacity int, mbox *mailbox, log *zap.Logger, metrics *Recorder) *OutputFanOut {
	if log == nil {
		log = zap.NewNop()
	}
	return &OutputFanOut{
		log:         log,
		metrics:     metrics,
		mailbox:     mbox,
		capacity:    initialCapacity,
		maxCapacity: maxCapacity,
		elements:    make([]any, initialCapacity),
		subscribers: make(map[SubscriptionID]*fanOutSubscriber),
	}
}

func (f *OutputFanOut) minCursor() int64 {
	min := f.tail
	hasLive := false
	for _, s := range f.subscribers {
		if s.cancelled || s.completed {
			continue
		}
		hasLive = true
		if s.cursor < min {
			min = s.cursor
		}
	}
	if !hasLive {
		return f.tail
	}
	return min
}

func (f *OutputFanOut) liveCount() int {
	n := 0
	for _, s := range f.subscribers {
		if !s.cancelled && !s.completed {
			n++
		}
	}
	return n
}

// downstreamClosed reports whether there are no live subscribers and
// the producer side has completed or been aborted.
func (f *OutputFanOut) downstreamClosed() bool {
	return f.liveCount() == 0 && (f.producerComplete || f.aborted)
}

// DownstreamClosed is the exported form the ProcessorActor polls after
// each pump cycle to decide whether shutdown() can now run.
func (f *OutputFanOut) DownstreamClosed() bool { return f.downstreamClosed() }

// LiveSubscriberCount exposes the live-subscriber count for variants
// that need it.
func (f *OutputFanOut) LiveSubscriberCount() int { return f.liveCount() }

// RegisterSubscriber always delivers OnSubscribe first.
// If shutdown has already begun (Complete or Abort was called), the
// subscriber receives its terminal signal immediately and never an
// onNext, even if elements remain buffered for other, earlier
// subscribers — matching Scenario F (subscribe during flushing).
// Otherwise its cursor is set to the current tail, so it only ever
// observes elements produced from this point forward (Scenario C).
func (f *OutputFanOut) RegisterSubscriber(sub Subscriber) Subscription {
	id := uuid.New()
	subscription := Subscription{ID: id, mailbox: f.mailbox}
	sub.OnSubscribe(subscription)

	if f.aborted {
		sub.OnError(f.abortCause)
		return subscription
	}
	if f.producerComplete {
		sub.OnComplete()
		return subscription
	}

	f.subscribers[id] = &fanOutSubscriber{id: id, sub: sub, cursor: f.tail}
	f.order = append(f.order, id)
	f.metrics.setLiveSubscribers(f.liveCount())
	f.log.Debug("subscriber registered", zap.String("id", id.String()), zap.Int64("cursor", f.tail))
	return subscription
}

// MoreRequested adds n to the subscriber's demand (saturating) and
// immediately drains any backlog it is now eligible for. n must be
// positive; a non-positive n fails that subscriber with a protocol
// error.
func (f *OutputFanOut) MoreRequested(id SubscriptionID, n int64) {
	s, ok := f.subscribers[id]
	if !ok || s.cancelled || s.completed {
		return
	}
	if n <= 0 {
		f.failSubscriber(s, ErrNonPositiveDemand)
		return
	}
	s.demand = saturatingAdd(s.demand, n)
	f.drainSubscriber(s)
}

func saturatingAdd(a, b int64) int64 {
	sum := a + b
	if sum < a || sum > unboundedDemand {
		return unboundedDemand
	}
	return sum
}

// drainSubscriber pushes as much buffered backlog to s as its demand
// and the available tail allow, then completes it if the producer is
// done and it has caught up.
func (f *OutputFanOut) drainSubscriber(s *fanOutSubscriber) {
	for s.demand > 0 && s.cursor < f.tail {
		e := f.at(s.cursor)
		s.sub.OnNext(e)
		s.cursor++
		s.demand--
	}
	f.maybeCompleteSubscriber(s)
	f.releaseConsumed()
}

func (f *OutputFanOut) maybeCompleteSubscriber(s *fanOutSubscriber) {
	if s.completed || s.cancelled {
		return
	}
	if f.producerComplete && s.cursor == f.tail {
		s.sub.OnComplete()
		s.completed = true
		f.metrics.setLiveSubscribers(f.liveCount())
	}
}

// UnregisterSubscription marks id cancelled and drops its cursor; if
// it was the last live subscriber, downstreamClosed becomes true once
// the producer side has also completed or been aborted.
func (f *OutputFanOut) UnregisterSubscription(id SubscriptionID) {
	s, ok := f.subscribers[id]
	if !ok || s.cancelled {
		return
	}
	s.cancelled = true
	f.log.Debug("subscriber cancelled", zap.String("id", id.String()))
	f.metrics.setLiveSubscribers(f.liveCount())
	f.releaseConsumed()
}

func (f *OutputFanOut) failSubscriber(s *fanOutSubscriber, cause error) {
	if s.completed || s.cancelled {
		return
	}
	s.sub.OnError(cause)
	s.completed = true
	f.metrics.setLiveSubscribers(f.liveCount())
}

// EnqueueOutputElement appends element at the tail. Precondition:
// there exists at least one live subscriber with demand at the
// current tail cursor (callers should only invoke this when
// NeedsDemand().IsReady()). The element is immediately pushed to
// every such eligible subscriber.
func (f *OutputFanOut) EnqueueOutputElement(element any) {
	seq := f.tail
	f.ensureCapacity()
	f.set(seq, element)
	f.tail++

	for _, id := range f.order {
		s := f.subscribers[id]
		if s.cancelled || s.completed {
			continue
		}
		if s.cursor == seq && s.demand > 0 {
			s.sub.OnNext(element)
			s.cursor++
			s.demand--
		}
	}
	f.metrics.setFanOutOccupancy(int(f.tail - f.minCursor()))
	f.releaseConsumed()
}

// releaseConsumed drops elements below minCursor: they can never be
// needed again since every live subscriber has passed them.
func (f *OutputFanOut) releaseConsumed() {
	min := f.minCursor()
	base := f.tail - int64(len(f.elements))
	if base < 0 {
		base = 0
	}
	for seq := base; seq < min && seq < f.tail; seq++ {
		f.clearSlot(seq)
	}
	f.metrics.setFanOutOccupancy(int(f.tail - min))
}

// Complete initiates graceful shutdown: subscribers already drained
// to the tail receive onComplete now; the rest receive it as they
// catch up via subsequent MoreRequested-driven drains. No further
// enqueues are permitted after this.
func (f *OutputFanOut) Complete() {
	f.producerComplete = true
	for _, id := range f.order {
		f.maybeCompleteSubscriber(f.subscribers[id])
	}
}

// Abort sends onError(cause) to every live subscriber immediately and
// drops buffered elements.
func (f *OutputFanOut) Abort(cause error) {
	f.aborted = true
	f.abortCause = cause
	for _, id := range f.order {
		s := f.subscribers[id]
		if s.cancelled || s.completed {
			continue
		}
		s.sub.OnError(cause)
		s.completed = true
	}
	f.elements = make([]any, f.capacity)
	f.metrics.setLiveSubscribers(0)
	f.metrics.setFanOutOccupancy(0)
}

// NeedsDemand is ready iff the backlog held for the slowest live
// subscriber is below the maximum ring capacity and some live
// subscriber has demand >= 1 with cursor == tail; completed iff
// downstream is closed.
func (f *OutputFanOut) NeedsDemand() TransferState {
	if int(f.tail-f.minCursor()) >= f.maxCapacity {
		return TransferState{isReady: false, isCompleted: f.downstreamClosed()}
	}
	ready := false
	for _, s := range f.subscribers {
		if s.cancelled || s.completed {
			continue
		}
		if s.demand > 0 && s.cursor == f.tail {
			ready = true
			break
		}
	}
	return TransferState{isReady: ready, isCompleted: f.downstreamClosed()}
}

// NeedsDemandOrCancel is ready if any demand exists anywhere, or if
// downstream has already closed (so the pump can still observe
// completion even with zero outstanding demand).
func (f *OutputFanOut) NeedsDemandOrCancel() TransferState {
	base := f.NeedsDemand()
	if f.downstreamClosed() {
		return TransferState{isReady: true, isCompleted: true}
	}
	return base
}

func (f *OutputFanOut) ensureCapacity() {
	backlog := int(f.tail - f.minCursor())
	if backlog < f.capacity {
		return
	}
	newCap := f.capacity * 2
	if newCap > f.maxCapacity {
		newCap = f.maxCapacity
	}
	if newCap <= f.capacity {
		// Already at max: the caller violated the enqueue
		// precondition (no eligible subscriber to drain it below
		// capacity). Grow by one slot defensively rather than
		// silently overwrite unconsumed data.
		newCap = f.capacity + 1
	}
	fresh := make([]any, newCap)
	min := f.minCursor()
	for seq := min; seq < f.tail; seq++ {
		fresh[seq%int64(newCap)] = f.at(seq)
	}
	f.elements = fresh
	f.capacity = newCap
}

func (f *OutputFanOut) at(seq int64) any {
	return f.elements[seq%int64(f.capacity)]
}

func (f *OutputFanOut) set(seq int64, v any) {
	f.elements[seq%int64(f.capacity)] = v
}

func (f *OutputFanOut) clearSlot(seq int64) {
	f.elements[seq%int64(f.capacity)] = nil
}
