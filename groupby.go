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

// KeyFunc computes the grouping key for an element.
type KeyFunc func(element any) any

// GroupedElement is what GroupBy emits: the original element tagged
// with its key, so synthetic per-key consumers can select their slice
// of the one shared OutputFanOut instead of each key getting its own
// buffer.
type GroupedElement struct {
	Key   any
	Value any
}

// GroupBy tags every element with its key and otherwise behaves like
// Transform: one input in, one tagged output out.
type GroupBy struct {
	BaseVariant
	keyOf KeyFunc
}

// NewGroupBy builds a GroupBy variant keyed by keyOf.
func NewGroupBy(keyOf KeyFunc) *GroupBy {
	return &GroupBy{keyOf: keyOf}
}

func (g *GroupBy) InitialTransferState(a *ProcessorActor) TransferState {
	return a.PrimaryInput().NeedsInput().And(a.Output().NeedsDemandOrCancel())
}

func (g *GroupBy) Transfer(a *ProcessorActor) TransferState {
	in := a.PrimaryInput()
	out := a.Output()

	if out.DownstreamClosed() {
		in.Cancel()
		return TransferState{isReady: true, isCompleted: true}
	}

	if element, ok := in.Dequeue(); ok {
		out.EnqueueOutputElement(GroupedElement{Key: g.keyOf(element), Value: element})
	}

	return in.NeedsInput().And(out.NeedsDemandOrCancel())
}

// KeyedSubscriber wraps a Subscriber so it only observes
// GroupedElements whose Key equals want, synthesizing a per-key
// downstream cursor over the one shared fan-out ring. Other keys'
// elements still advance the subscription's cursor (they are simply
// not forwarded), so demand must account for every element in the
// stream, not just the matching ones.
type KeyedSubscriber struct {
	Inner Subscriber
	Want  any
}

func (k *KeyedSubscriber) OnSubscribe(sub Subscription) { k.Inner.OnSubscribe(sub) }

func (k *KeyedSubscriber) OnNext(element any) {
	grouped, ok := element.(GroupedElement)
	if !ok || grouped.Key != k.Want {
		return
	}
	k.Inner.OnNext(grouped.Value)
}

func (k *KeyedSubscriber) OnComplete()         { k.Inner.OnComplete() }
func (k *KeyedSubscriber) OnError(cause error) { k.Inner.OnError(cause) }
