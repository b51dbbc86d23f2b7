// Package stage defines the staged-pipeline engine's core abstraction: a
// Stage turns one input into zero or more outputs pushed through a
// Collector, and stages compose into a single Stage via Pipe2 and its
// fixed-arity variants.
package stage

// Stage processes one input value, pushing zero or more outputs to
// collector. A stage may fan out (push more than once) or filter (push
// zero times).
type Stage[In, Out any] interface {
	Process(data In, collector Collector[Out])
}

// Collector receives a stage's output values in order.
type Collector[T any] interface {
	Push(item T)
}

// CollectorFunc adapts a plain func(T) to a Collector, mirroring the
// blanket FnMut(T) impl in the original.
type CollectorFunc[T any] func(T)

func (f CollectorFunc[T]) Push(item T) { f(item) }

// sliceCollector accumulates pushed values into a slice; used internally
// wherever a stage's output needs to be materialized rather than streamed
// straight to the next stage.
type sliceCollector[T any] struct {
	items []T
}

func (c *sliceCollector[T]) Push(item T) { c.items = append(c.items, item) }

// FuncStage adapts a func(In) (Out, bool) — the common "maybe transform"
// shape — into a Stage: the output is pushed only when ok is true.
type FuncStage[In, Out any] func(In) (Out, bool)

func (f FuncStage[In, Out]) Process(data In, collector Collector[Out]) {
	if out, ok := f(data); ok {
		collector.Push(out)
	}
}

// Pipeline composes two stages: s1's output feeds s2 as input, element by
// element, with no intermediate buffering — a fan-out from s1 drives s2
// once per pushed element.
type Pipeline[In, Mid, Out any] struct {
	s1 Stage[In, Mid]
	s2 Stage[Mid, Out]
}

func (p *Pipeline[In, Mid, Out]) Process(data In, collector Collector[Out]) {
	p.s1.Process(data, CollectorFunc[Mid](func(mid Mid) {
		p.s2.Process(mid, collector)
	}))
}

// Pipe2 composes two stages into one, the Go stand-in for the original's
// variadic pipe! macro (Go generics can't express a variadic type-changing
// chain, so compositions of more than two stages nest Pipe2 calls, or use
// Pipe3/Pipe4/Pipe5 below).
func Pipe2[In, Mid, Out any](s1 Stage[In, Mid], s2 Stage[Mid, Out]) *Pipeline[In, Mid, Out] {
	return &Pipeline[In, Mid, Out]{s1: s1, s2: s2}
}

// Pipe3 composes three stages in sequence.
func Pipe3[A, B, C, D any](s1 Stage[A, B], s2 Stage[B, C], s3 Stage[C, D]) *Pipeline[A, C, D] {
	return Pipe2[A, C, D](Pipe2(s1, s2), s3)
}

// Pipe4 composes four stages in sequence.
func Pipe4[A, B, C, D, E any](s1 Stage[A, B], s2 Stage[B, C], s3 Stage[C, D], s4 Stage[D, E]) *Pipeline[A, D, E] {
	return Pipe2[A, D, E](Pipe3(s1, s2, s3), s4)
}

// Pipe5 composes five stages in sequence.
func Pipe5[A, B, C, D, E, F any](s1 Stage[A, B], s2 Stage[B, C], s3 Stage[C, D], s4 Stage[D, E], s5 Stage[E, F]) *Pipeline[A, E, F] {
	return Pipe2[A, E, F](Pipe4(s1, s2, s3, s4), s5)
}

// Run processes data through s and returns every pushed output, in order —
// a convenience for tests and for stages run outside the worker runtime.
func Run[In, Out any](s Stage[In, Out], data In) []Out {
	c := &sliceCollector[Out]{}
	s.Process(data, c)
	return c.items
}
