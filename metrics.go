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
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder wraps the Prometheus instruments a single ProcessorActor
// reports against. A nil *Recorder (or one built with a nil
// prometheus.Registerer) is a safe no-op, so embedding applications
// opt in to instrumentation instead of being forced into it.
type Recorder struct {
	inputOccupancy  prometheus.Gauge
	fanOutOccupancy prometheus.Gauge
	liveSubscribers prometheus.Gauge
	signalsTotal    *prometheus.CounterVec
	terminations    *prometheus.CounterVec
}

// NewRecorder builds a Recorder registered under the given label
// (e.g. the stage name) with reg. If reg is nil, the returned Recorder
// records nothing but is safe to call.
func NewRecorder(reg prometheus.Registerer, stage string) *Recorder {
	if reg == nil {
		return nil
	}
	labels := prometheus.Labels{"stage": stage}
	r := &Recorder{
		inputOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "processor_input_buffer_occupancy",
			Help:        "Current number of elements buffered from upstream.",
			ConstLabels: labels,
		}),
		fanOutOccupancy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "processor_fanout_buffer_occupancy",
			Help:        "Current number of elements pending in the shared downstream ring.",
			ConstLabels: labels,
		}),
		liveSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "processor_live_subscribers",
			Help:        "Current number of live (non-cancelled) downstream subscribers.",
			ConstLabels: labels,
		}),
		signalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "processor_signals_total",
			Help:        "Signals processed by the actor mailbox, by kind.",
			ConstLabels: labels,
		}, []string{"signal"}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "processor_terminations_total",
			Help:        "Terminal shutdowns, by reason.",
			ConstLabels: labels,
		}, []string{"reason"}),
	}
	reg.MustRegister(r.inputOccupancy, r.fanOutOccupancy, r.liveSubscribers, r.signalsTotal, r.terminations)
	return r
}

func (r *Recorder) setInputOccupancy(n int) {
	if r == nil {
		return
	}
	r.inputOccupancy.Set(float64(n))
}

func (r *Recorder) setFanOutOccupancy(n int) {
	if r == nil {
		return
	}
	r.fanOutOccupancy.Set(float64(n))
}

func (r *Recorder) setLiveSubscribers(n int) {
	if r == nil {
		return
	}
	r.liveSubscribers.Set(float64(n))
}

func (r *Recorder) observeSignal(kind string) {
	if r == nil {
		return
	}
	r.signalsTotal.WithLabelValues(kind).Inc()
}

func (r *Recorder) observeTermination(reason string) {
	if r == nil {
		return
	}
	r.terminations.WithLabelValues(reason).Inc()
}
