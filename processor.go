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
	"sync"

	"go.uber.org/zap"
)

// Signal is the tagged variant over the reactive-streams vocabulary
// this actor accepts: upstream-ingress, downstream-
// ingress, and materializer-ingress signals. Modeled as a closed
// interface with a marker method rather than dynamic dispatch on
// handler objects.
type Signal interface{ isSignal() }

// ExposedPublisherSignal is the materializer-ingress signal handing
// the actor the Publisher it must drive. It is always the first
// signal processed.
type ExposedPublisherSignal struct{ Publisher *Publisher }

// OnSubscribeSignal is delivered when the upstream publisher accepts
// this processor as its subscriber.
type OnSubscribeSignal struct{ Handle UpstreamHandle }

// OnNextSignal carries one upstream element.
type OnNextSignal struct{ Element any }

// OnCompleteSignal marks graceful upstream completion.
type OnCompleteSignal struct{}

// OnErrorSignal marks upstream failure.
type OnErrorSignal struct{ Cause error }

// SubscribePendingSignal tells the actor to drain the Publisher's
// pending-subscriber queue and register each one.
type SubscribePendingSignal struct{}

// RequestMoreSignal is downstream demand for subscription ID.
type RequestMoreSignal struct {
	ID SubscriptionID
	N  int64
}

// CancelSignal is a downstream cancellation of subscription ID.
type CancelSignal struct{ ID SubscriptionID }

// RequestRecheckSignal asks the actor to re-run the pump even though
// no new upstream/downstream signal arrived, for a Variant (Throttle)
// whose readiness depends on wall-clock time passing rather than on
// any external event.
type RequestRecheckSignal struct{}

// Secondary* signals are delivered by fan-in variants' secondary
// upstream adapters (see UpstreamSubscriber/SecondaryUpstreamSubscriber
// below), tagged with a small caller-chosen source id.
type SecondaryOnSubscribeSignal struct {
	Source int
	Handle UpstreamHandle
}
type SecondaryOnNextSignal struct {
	Source  int
	Element any
}
type SecondaryOnCompleteSignal struct{ Source int }
type SecondaryOnErrorSignal struct {
	Source int
	Cause  error
}

func (ExposedPublisherSignal) isSignal()     {}
func (OnSubscribeSignal) isSignal()          {}
func (OnNextSignal) isSignal()               {}
func (OnCompleteSignal) isSignal()           {}
func (OnErrorSignal) isSignal()              {}
func (SubscribePendingSignal) isSignal()     {}
func (RequestMoreSignal) isSignal()          {}
func (CancelSignal) isSignal()               {}
func (RequestRecheckSignal) isSignal()       {}
func (SecondaryOnSubscribeSignal) isSignal() {}
func (SecondaryOnNextSignal) isSignal()      {}
func (SecondaryOnCompleteSignal) isSignal()  {}
func (SecondaryOnErrorSignal) isSignal()     {}

// mailbox is the unbounded, mutex-guarded signal queue a single
// goroutine drains, the structural guarantee behind "one inbound
// signal at a time". A plain Go channel cannot be
// unbounded, so this pairs a growable slice with a 1-buffered wakeup
// channel, the standard idiom for an unbounded channel.
type mailbox struct {
	mu     sync.Mutex
	queue  []Signal
	notify chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{notify: make(chan struct{}, 1)}
}

// send enqueues s and wakes the draining goroutine, reporting whether
// it was actually queued. It returns false once the mailbox has been
// shut down, so a caller racing the actor's own teardown (Publisher.
// Subscribe is the one caller that checks this) knows to fall back to
// whatever terminal path replaces the dead mailbox.
func (m *mailbox) send(s Signal) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.queue = append(m.queue, s)
	m.mu.Unlock()
	select {
	case m.notify <- struct{}{}:
	default:
	}
	return true
}

func (m *mailbox) drain() []Signal {
	m.mu.Lock()
	q := m.queue
	m.queue = nil
	m.mu.Unlock()
	return q
}

func (m *mailbox) shutdown() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// SecondaryPublisher is the narrow capability a fan-in variant needs
// from a second upstream source: accept an UpstreamSubscriber. Any
// reactive-streams publisher exposing this shape (including another
// ProcessorActor's own Publisher, adapted) can serve as a secondary
// upstream for Merge/Zip/Concat.
type SecondaryPublisher interface {
	Subscribe(sub UpstreamSubscriber)
}

// UpstreamSubscriber is the shape the actor (or one of its secondary
// adapters) presents toward an upstream publisher: onSubscribe(handle),
// onNext(e), onComplete(), onError(cause).
type UpstreamSubscriber interface {
	OnSubscribe(h UpstreamHandle)
	OnNext(e any)
	OnComplete()
	OnError(cause error)
}

// Publisher is the downstream-facing handle exposed to the
// materializer via ExposedPublisher. Subscribe enqueues
// the subscriber onto a pending queue and wakes the actor with
// SubscribePending; the actor drains the queue from inside its own
// serialized loop, never touching the subscriber set concurrently.
//
// Once the actor reaches its terminal outcome it stops draining the
// mailbox entirely, so Subscribe also carries a one-way latch
// (terminated/terminalOutput) the actor sets on its way down: a
// subscriber arriving after that point is registered directly against
// the actor's final OutputFanOut rather than queued for a goroutine
// that has already exited.
type Publisher struct {
	mu             sync.Mutex
	pending        []Subscriber
	mbox           *mailbox
	terminated     bool
	terminalOutput *OutputFanOut
}

func newPublisher(mbox *mailbox) *Publisher {
	return &Publisher{mbox: mbox}
}

// Subscribe registers sub as a pending downstream subscriber. If the
// actor has already recorded a terminal outcome, sub instead goes
// straight to the final OutputFanOut, whose RegisterSubscriber always
// delivers onSubscribe followed by the matching onComplete/onError for
// a subscriber that arrives too late to see any element.
func (p *Publisher) Subscribe(sub Subscriber) {
	p.mu.Lock()
	if p.terminated {
		out := p.terminalOutput
		p.mu.Unlock()
		out.RegisterSubscriber(sub)
		return
	}
	p.pending = append(p.pending, sub)
	p.mu.Unlock()

	if p.mbox.send(SubscribePendingSignal{}) {
		return
	}

	// The mailbox closed between our terminated check and this send:
	// the actor always calls markTerminal before it shuts the mailbox
	// down (see ProcessorActor.fail/shutdown and run), so terminated is
	// now guaranteed set.
	p.mu.Lock()
	p.removePending(sub)
	out := p.terminalOutput
	p.mu.Unlock()
	out.RegisterSubscriber(sub)
}

func (p *Publisher) removePending(sub Subscriber) {
	for i, s := range p.pending {
		if s == sub {
			p.pending = append(p.pending[:i], p.pending[i+1:]...)
			return
		}
	}
}

func (p *Publisher) drainPending() []Subscriber {
	p.mu.Lock()
	out := p.pending
	p.pending = nil
	p.mu.Unlock()
	return out
}

// markTerminal latches the actor's final OutputFanOut once, the first
// time either fail or shutdown reaches ShutDown. Idempotent: only the
// first call (always the one that matters) sticks.
func (p *Publisher) markTerminal(output *OutputFanOut) {
	p.mu.Lock()
	if !p.terminated {
		p.terminated = true
		p.terminalOutput = output
	}
	p.mu.Unlock()
}

// actorState is the tagged lifecycle state.
type actorState int

const (
	stateWaitingExposedPublisher actorState = iota
	stateWaitingForUpstream
	stateRunning
	stateFlushing
	stateShutDown
)

func (s actorState) String() string {
	switch s {
	case stateWaitingExposedPublisher:
		return "WaitingExposedPublisher"
	case stateWaitingForUpstream:
		return "WaitingForUpstream"
	case stateRunning:
		return "Running"
	case stateFlushing:
		return "Flushing"
	case stateShutDown:
		return "ShutDown"
	default:
		return "Unknown"
	}
}

// ProcessorActor is the state machine that sequences lifecycle phases,
// owns the InputBuffer/OutputFanOut/Pump, routes inbound signals, and
// enforces the external reactive-streams protocol.
//
// Grounded on smux's Session: one struct owning all sub-state, a
// sync.Once-guarded once-only error/close notification generalized
// into fail()/shutdown(), and per-direction goroutines collapsed into
// one mailbox-draining goroutine since this actor has a single
// serialized protocol rather than smux's two independent directions.
type ProcessorActor struct {
	settings MaterializerSettings
	variant  Variant
	log      *zap.Logger
	metrics  *Recorder

	mbox  *mailbox
	state actorState

	publisher *Publisher
	input     Inputs
	output    *OutputFanOut
	pump      *Pump

	secondaries map[int]Inputs

	shuttingDown   bool
	shutdownReason error

	done chan struct{}
}

// NewProcessorActor constructs an actor around variant with settings,
// starts its mailbox-draining goroutine, and returns the actor plus
// the Publisher the materializer should hand downstream. The actor's
// own ExposedPublisherSignal is enqueued before NewProcessorActor
// returns, so it is always first — nothing else can reach the mailbox
// until the caller receives the returned values.
//
// settings is validated here: an invalid MaterializerSettings is a
// programmer error, so the error from Validate is turned into a panic
// at construction rather than returned as a runtime condition a
// caller should have to handle per-element.
func NewProcessorActor(settings MaterializerSettings, variant Variant, log *zap.Logger, metrics *Recorder) (*ProcessorActor, *Publisher) {
	if err := settings.Validate(); err != nil {
		panic(err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	mbox := newMailbox()
	publisher := newPublisher(mbox)

	a := &ProcessorActor{
		settings:    settings,
		variant:     variant,
		log:         log,
		metrics:     metrics,
		mbox:        mbox,
		state:       stateWaitingExposedPublisher,
		secondaries: make(map[int]Inputs),
		done:        make(chan struct{}),
	}
	a.output = NewOutputFanOut(settings.InitialFanOutBufferSize, settings.MaxFanOutBufferSize, mbox, log, metrics)

	mbox.send(ExposedPublisherSignal{Publisher: publisher})
	go a.run()
	return a, publisher
}

// Settings returns the MaterializerSettings this actor was built with.
func (a *ProcessorActor) Settings() MaterializerSettings { return a.settings }

// PrimaryInput returns the current primary Inputs (an *InputBuffer
// once OnSubscribe has arrived, or EmptyInputs before then / if
// upstream completed early).
func (a *ProcessorActor) PrimaryInput() Inputs { return a.input }

// SecondaryInput returns the Inputs registered under source, or
// EmptyInputs{} if none has been established yet (fan-in variants).
func (a *ProcessorActor) SecondaryInput(source int) Inputs {
	if in, ok := a.secondaries[source]; ok {
		return in
	}
	return EmptyInputs{}
}

// Output returns the actor's current OutputFanOut.
func (a *ProcessorActor) Output() *OutputFanOut { return a.output }

// ReplaceOutput swaps in a fresh OutputFanOut as the actor's current
// one. SplitWhen uses this to open a new output epoch without tearing
// the actor down: the replaced fan-out is left for its already-
// registered subscribers to drain via their own retained reference,
// while new subscriptions and the actor's own shutdown bookkeeping
// move to the replacement.
func (a *ProcessorActor) ReplaceOutput(out *OutputFanOut) { a.output = out }

// Pump returns the actor's Pump, or nil before Running is reached.
func (a *ProcessorActor) Pump() *Pump { return a.pump }

// RequestRecheck enqueues a RequestRecheckSignal. Safe to call from
// any goroutine (it only touches the mailbox), unlike Pump itself:
// Throttle's deferred rate-limiter wakeup uses this instead of
// mutating Pump state directly from a timer goroutine.
func (a *ProcessorActor) RequestRecheck() { a.mbox.send(RequestRecheckSignal{}) }

// Logger exposes the actor's logger to variants that want to log.
func (a *ProcessorActor) Logger() *zap.Logger { return a.log }

// SecondaryUpstreamSubscriber returns an UpstreamSubscriber that tags
// every signal it forwards with source, for fan-in variants' secondary
// subscriptions.
func (a *ProcessorActor) SecondaryUpstreamSubscriber(source int) UpstreamSubscriber {
	return &secondaryUpstreamSubscriber{actor: a, source: source}
}

type secondaryUpstreamSubscriber struct {
	actor  *ProcessorActor
	source int
}

func (s *secondaryUpstreamSubscriber) OnSubscribe(h UpstreamHandle) {
	s.actor.mbox.send(SecondaryOnSubscribeSignal{Source: s.source, Handle: h})
}
func (s *secondaryUpstreamSubscriber) OnNext(e any) {
	s.actor.mbox.send(SecondaryOnNextSignal{Source: s.source, Element: e})
}
func (s *secondaryUpstreamSubscriber) OnComplete() {
	s.actor.mbox.send(SecondaryOnCompleteSignal{Source: s.source})
}
func (s *secondaryUpstreamSubscriber) OnError(cause error) {
	s.actor.mbox.send(SecondaryOnErrorSignal{Source: s.source, Cause: cause})
}

// --- primary upstream-facing Subscriber methods ---
// These are exactly what the actor presents to whatever publisher it
// is subscribed to: no blocking, no reentrant calls, just enqueue and
// return.

func (a *ProcessorActor) OnSubscribe(h UpstreamHandle) { a.mbox.send(OnSubscribeSignal{Handle: h}) }
func (a *ProcessorActor) OnNext(e any)                 { a.mbox.send(OnNextSignal{Element: e}) }
func (a *ProcessorActor) OnComplete()                  { a.mbox.send(OnCompleteSignal{}) }
func (a *ProcessorActor) OnError(cause error)          { a.mbox.send(OnErrorSignal{Cause: cause}) }

// Done returns a channel closed once the actor reaches ShutDown and
// has finished processing, for tests/callers that want to wait.
func (a *ProcessorActor) Done() <-chan struct{} { return a.done }

// run is the single goroutine draining the mailbox: it
// processes one signal to completion before the next, never
// reentering the pump from within a transfer call.
func (a *ProcessorActor) run() {
	defer close(a.done)
	for {
		signals := a.mbox.drain()
		if len(signals) == 0 {
			if a.state == stateShutDown {
				return
			}
			<-a.mbox.notify
			continue
		}
		for _, s := range signals {
			a.dispatch(s)
			if a.state == stateShutDown {
				a.mbox.shutdown()
				return
			}
		}
	}
}

func (a *ProcessorActor) dispatch(s Signal) {
	a.metrics.observeSignal(signalKind(s))

	switch a.state {
	case stateWaitingExposedPublisher:
		a.handleWaitingExposedPublisher(s)
	case stateWaitingForUpstream:
		a.handleWaitingForUpstream(s)
	case stateRunning:
		a.handleRunning(s)
	case stateFlushing:
		a.handleFlushing(s)
	case stateShutDown:
		// No further signals are accepted.
	}
}

func signalKind(s Signal) string {
	switch s.(type) {
	case ExposedPublisherSignal:
		return "exposed_publisher"
	case OnSubscribeSignal:
		return "on_subscribe"
	case OnNextSignal:
		return "on_next"
	case OnCompleteSignal:
		return "on_complete"
	case OnErrorSignal:
		return "on_error"
	case SubscribePendingSignal:
		return "subscribe_pending"
	case RequestMoreSignal:
		return "request_more"
	case CancelSignal:
		return "cancel"
	case RequestRecheckSignal:
		return "request_recheck"
	case SecondaryOnSubscribeSignal:
		return "secondary_on_subscribe"
	case SecondaryOnNextSignal:
		return "secondary_on_next"
	case SecondaryOnCompleteSignal:
		return "secondary_on_complete"
	case SecondaryOnErrorSignal:
		return "secondary_on_error"
	default:
		return "unknown"
	}
}

func (a *ProcessorActor) handleWaitingExposedPublisher(s Signal) {
	ep, ok := s.(ExposedPublisherSignal)
	if !ok {
		// "The first signal the processor must receive is
		// ExposedPublisher; any other first signal is a protocol
		// violation".
		a.fail(ErrProtocolViolation)
		return
	}
	a.publisher = ep.Publisher
	a.input = EmptyInputs{}
	a.variant.PublisherExposed(a)
	a.state = stateWaitingForUpstream
}

func (a *ProcessorActor) handleWaitingForUpstream(s Signal) {
	switch sig := s.(type) {
	case OnSubscribeSignal:
		a.input = NewInputBuffer(sig.Handle, a.settings.InitialInputBufferSize, a.settings.MaxInputBufferSize, a.log, a.metrics)
		a.pump = NewPump(a.variant.Transfer, a.variant.InitialTransferState(a), a.log)
		a.state = stateRunning
		a.runPump()
	case OnCompleteSignal:
		a.input = EmptyInputs{}
		a.pump = NewPump(a.variant.Transfer, a.variant.InitialTransferState(a), a.log)
		a.state = stateRunning
		a.runPump()
	case OnErrorSignal:
		a.handleUpstreamError(sig.Cause)
	case SubscribePendingSignal:
		a.handleSubscribePending()
	case RequestMoreSignal:
		a.output.MoreRequested(sig.ID, sig.N)
	case CancelSignal:
		a.output.UnregisterSubscription(sig.ID)
	case SecondaryOnSubscribeSignal, SecondaryOnNextSignal, SecondaryOnCompleteSignal, SecondaryOnErrorSignal:
		a.handleSecondary(s)
	default:
		a.fail(ErrProtocolViolation)
	}
}

// handleUpstreamError gives the variant a chance to recover before
// aborting (Recover implements ErrorRecoverer; every other variant
// falls through to an unconditional fail).
func (a *ProcessorActor) handleUpstreamError(cause error) {
	if recoverer, ok := a.variant.(ErrorRecoverer); ok && recoverer.RecoverFromUpstreamError(cause) {
		a.enterFlushing()
		if a.pump == nil {
			a.pump = NewPump(a.variant.Transfer, NewTransferState(true, false), a.log)
		} else {
			a.pump.SetState(NewTransferState(true, false))
		}
		a.runPump()
		return
	}
	a.fail(cause)
}

func (a *ProcessorActor) handleRunning(s Signal) {
	switch sig := s.(type) {
	case OnNextSignal:
		if err := a.input.Enqueue(sig.Element); err != nil {
			a.fail(err)
			return
		}
		a.runPump()
	case OnCompleteSignal:
		a.input.Complete()
		a.enterFlushing()
		a.runPump()
	case OnErrorSignal:
		a.handleUpstreamError(sig.Cause)
	case SubscribePendingSignal:
		a.handleSubscribePending()
		a.runPump()
	case RequestMoreSignal:
		a.output.MoreRequested(sig.ID, sig.N)
		a.runPump()
	case CancelSignal:
		a.output.UnregisterSubscription(sig.ID)
		a.runPump()
	case SecondaryOnSubscribeSignal, SecondaryOnNextSignal, SecondaryOnCompleteSignal, SecondaryOnErrorSignal:
		a.handleSecondary(s)
		a.runPump()
	case RequestRecheckSignal:
		if a.pump != nil {
			a.pump.SetState(NewTransferState(true, false))
		}
		a.runPump()
	case OnSubscribeSignal:
		// Upstream only ever calls onSubscribe once; a second call
		// is a protocol violation.
		a.fail(ErrProtocolViolation)
	default:
		a.fail(ErrProtocolViolation)
	}
}

func (a *ProcessorActor) handleFlushing(s Signal) {
	switch sig := s.(type) {
	case OnSubscribeSignal:
		a.fail(ErrProtocolViolation)
	case SubscribePendingSignal:
		a.handleSubscribePending()
		a.runPump()
	case RequestMoreSignal:
		a.output.MoreRequested(sig.ID, sig.N)
		a.runPump()
	case CancelSignal:
		a.output.UnregisterSubscription(sig.ID)
		a.runPump()
	case RequestRecheckSignal:
		if a.pump != nil {
			a.pump.SetState(NewTransferState(true, false))
		}
		a.runPump()
	case SecondaryOnSubscribeSignal, SecondaryOnNextSignal, SecondaryOnCompleteSignal, SecondaryOnErrorSignal:
		a.handleSecondary(s)
		a.runPump()
	default:
		// "other: ignore".
	}
}

func (a *ProcessorActor) handleSubscribePending() {
	for _, sub := range a.publisher.drainPending() {
		a.output.RegisterSubscriber(sub)
	}
}

func (a *ProcessorActor) handleSecondary(s Signal) {
	switch sig := s.(type) {
	case SecondaryOnSubscribeSignal:
		a.secondaries[sig.Source] = NewInputBuffer(sig.Handle, a.settings.InitialInputBufferSize, a.settings.MaxInputBufferSize, a.log, a.metrics)
	case SecondaryOnNextSignal:
		if in, ok := a.secondaries[sig.Source]; ok {
			if err := in.Enqueue(sig.Element); err != nil {
				a.fail(err)
			}
		}
	case SecondaryOnCompleteSignal:
		if in, ok := a.secondaries[sig.Source]; ok {
			in.Complete()
		}
	case SecondaryOnErrorSignal:
		a.fail(sig.Cause)
	}
}

// runPump drives the Pump and sequences the Flushing/shutdown
// transitions that follow from its result.
//
// Pump.transferState only changes when transfer() itself runs, but
// every signal that can call runPump (a new element enqueued, demand
// granted, a subscriber cancelled) mutates buffer state out from under
// it first. Without recomputing readiness here, a pump that went
// not-ready on a previous cycle would never notice the buffers have
// since become ready again. InitialTransferState is a pure function of
// current buffer state under every variant (it is how each variant
// already derives "is there already something to do"), so it doubles
// as the recheck: calling it again here is always safe.
func (a *ProcessorActor) runPump() {
	if a.state == stateShutDown || a.pump == nil {
		return
	}
	a.pump.SetState(a.variant.InitialTransferState(a))
	result := a.pump.Run(a)
	if result.failed != nil {
		// "transfer() raises a non-fatal exception: treated as
		// upstream failure with that cause".
		a.fail(result.failed)
		return
	}
	if result.completed {
		a.enterFlushing()
		a.completeDownstream()
	}
	if a.state == stateFlushing && a.output.DownstreamClosed() {
		a.shutdown(a.shutdownReason == nil)
	}
}

// enterFlushing only flips the state: it must not touch the input
// buffer. A graceful upstream completion already called
// input.Complete(), which deliberately keeps buffered elements around
// so they keep draining through Transfer while Flushing; clearing them
// here would silently drop data a subscriber is still owed. Variants
// are responsible for cancelling their own input once DownstreamClosed
// is true (every variant's Transfer already does this).
func (a *ProcessorActor) enterFlushing() {
	if a.shuttingDown {
		return
	}
	a.shuttingDown = true
	a.state = stateFlushing
}

// completeDownstream asks OutputFanOut to complete once all buffered
// elements have drained.
func (a *ProcessorActor) completeDownstream() {
	a.output.Complete()
}

// fail is the ProcessorActor's failure path: record
// shutdownReason, abort downstream, cancel upstream, shut the exposed
// publisher, begin soft shutdown.
func (a *ProcessorActor) fail(cause error) {
	if a.state == stateShutDown {
		return
	}
	a.log.Warn("processor failing", zap.Error(cause), zap.String("state", a.state.String()))
	a.shutdownReason = cause
	a.output.Abort(cause)
	if a.input != nil {
		a.input.Cancel()
	}
	for _, in := range a.secondaries {
		in.Cancel()
	}
	a.metrics.observeTermination("error")
	if a.publisher != nil {
		a.publisher.markTerminal(a.output)
	}
	a.state = stateShutDown
}

// shutdown is the completion path: called once all
// subscribers have drained or been aborted. If completed, clears
// shutdownReason.
func (a *ProcessorActor) shutdown(completed bool) {
	if a.state == stateShutDown {
		return
	}
	if completed {
		a.shutdownReason = nil
		a.metrics.observeTermination("completed")
	} else {
		a.metrics.observeTermination("error")
	}
	a.log.Debug("processor shut down", zap.Bool("completed", completed))
	if a.publisher != nil {
		a.publisher.markTerminal(a.output)
	}
	a.state = stateShutDown
}
