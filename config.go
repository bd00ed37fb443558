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

import "fmt"

// MaterializerSettings is the immutable configuration a ProcessorActor
// is constructed with. The first signal
// the processor must receive is ExposedPublisher; MaterializerSettings
// itself carries no signals, only sizing.
type MaterializerSettings struct {
	// InitialInputBufferSize is the prefetch issued upstream as soon
	// as the InputBuffer is constructed.
	InitialInputBufferSize int

	// MaxInputBufferSize is the hard cap on in-flight input elements.
	// Must be a power of two, >= InitialInputBufferSize.
	MaxInputBufferSize int

	// InitialFanOutBufferSize is the starting size of the shared
	// downstream ring.
	InitialFanOutBufferSize int

	// MaxFanOutBufferSize is the hard cap on the shared downstream
	// ring.
	MaxFanOutBufferSize int
}

// DefaultMaterializerSettings returns settings suitable for most
// one-to-one stages.
func DefaultMaterializerSettings() MaterializerSettings {
	return MaterializerSettings{
		InitialInputBufferSize:  16,
		MaxInputBufferSize:      16,
		InitialFanOutBufferSize: 16,
		MaxFanOutBufferSize:     16,
	}
}

// Validate checks the invariants a MaterializerSettings value must
// hold: positive sizes, a power-of-two MaxInputBufferSize, initial <= max.
func (s MaterializerSettings) Validate() error {
	if s.InitialInputBufferSize < 1 {
		return fmt.Errorf("processor: InitialInputBufferSize must be >= 1, got %d", s.InitialInputBufferSize)
	}
	if !isPowerOfTwo(s.MaxInputBufferSize) {
		return fmt.Errorf("processor: MaxInputBufferSize must be a power of two, got %d", s.MaxInputBufferSize)
	}
	if s.InitialInputBufferSize > s.MaxInputBufferSize {
		return fmt.Errorf("processor: InitialInputBufferSize (%d) exceeds MaxInputBufferSize (%d)", s.InitialInputBufferSize, s.MaxInputBufferSize)
	}
	if s.InitialFanOutBufferSize < 1 {
		return fmt.Errorf("processor: InitialFanOutBufferSize must be >= 1, got %d", s.InitialFanOutBufferSize)
	}
	if s.InitialFanOutBufferSize > s.MaxFanOutBufferSize {
		return fmt.Errorf("processor: InitialFanOutBufferSize (%d) exceeds MaxFanOutBufferSize (%d)", s.InitialFanOutBufferSize, s.MaxFanOutBufferSize)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
