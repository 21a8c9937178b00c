// Package decompose converts arbitrary items into the canonical byte slices
// the filters operate on.
package decompose

import "fmt"

// ByteSink is an append-only buffer. Single-writer, single-pass; no random
// access, matching the write-only discipline a Decomposer needs.
type ByteSink struct {
	buf []byte
}

func (s *ByteSink) PutBytes(p []byte) {
	s.buf = append(s.buf, p...)
}

func (s *ByteSink) IntoBytes() []byte {
	return s.buf
}

// Decomposer is a deterministic pure function from T into a ByteSink: equal
// inputs must yield byte-identical output.
type Decomposer[T any] func(value T, sink *ByteSink)

// Decomposable lets a type opt into self-decomposition, taking precedence
// over any user-supplied Decomposer. Modeled on encoding.BinaryMarshaler.
type Decomposable interface {
	AppendBytes(dst []byte) []byte
}

// Textify is the default Decomposer: a UTF-8 textual rendering via
// fmt.Sprintf, used when T implements neither Decomposable nor a
// caller-supplied Decomposer is given.
func Textify[T any](value T, sink *ByteSink) {
	sink.PutBytes([]byte(fmt.Sprintf("%v", value)))
}

// Pipeline resolves, once at construction, which strategy converts T to
// bytes: self-decomposable capability first, then a caller-supplied
// Decomposer, then Textify. Resolution happens via a single type assertion
// at construction time, never per-call reflection.
type Pipeline[T any] struct {
	decompose Decomposer[T]
}

// NewPipeline builds a Pipeline for T. custom may be nil, in which case
// Textify is used unless T is Decomposable.
func NewPipeline[T any](custom Decomposer[T]) *Pipeline[T] {
	var zero T
	if _, ok := any(zero).(Decomposable); ok {
		return &Pipeline[T]{decompose: func(value T, sink *ByteSink) {
			d := any(value).(Decomposable)
			sink.PutBytes(d.AppendBytes(nil))
		}}
	}
	if custom != nil {
		return &Pipeline[T]{decompose: custom}
	}
	return &Pipeline[T]{decompose: Textify[T]}
}

// Bytes runs the resolved decomposition strategy and returns the canonical
// byte slice for value.
func (p *Pipeline[T]) Bytes(value T) []byte {
	sink := &ByteSink{}
	p.decompose(value, sink)
	return sink.IntoBytes()
}
