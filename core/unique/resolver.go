package unique

import "sync"

// Resolver maps inputs to unique outputs. It is safe for concurrent use.
type Resolver[In comparable, Out comparable] struct {
	transform func(In) Out
	mutate    func(Out) Out
	key       func(Out) Out

	mu         sync.Mutex
	seenInputs map[In]Out
	taken      map[Out]struct{}
}

// Option configures a Resolver.
type Option[Out comparable] func(*options[Out])

type options[Out comparable] struct {
	key func(Out) Out
}

// WithKey makes two outputs collide when key maps them to the same value,
// such as file names on a case-insensitive filesystem. The returned outputs
// keep their own spelling.
func WithKey[Out comparable](key func(Out) Out) Option[Out] {
	return func(o *options[Out]) { o.key = key }
}

// New creates a Resolver. transform derives a candidate key that might not be
// unique; mutate turns a taken candidate into the next one to try.
// A mutate function that never yields a free key loops forever.
func New[In comparable, Out comparable](transform func(In) Out, mutate func(Out) Out, opts ...Option[Out]) *Resolver[In, Out] {
	o := options[Out]{key: func(out Out) Out { return out }}
	for _, opt := range opts {
		opt(&o)
	}
	return &Resolver[In, Out]{
		transform:  transform,
		mutate:     mutate,
		key:        o.key,
		seenInputs: make(map[In]Out),
		taken:      make(map[Out]struct{}),
	}
}

// Resolve returns the unique key for in. The boolean is true only the first
// time a particular input is resolved.
func (r *Resolver[In, Out]) Resolve(in In) (Out, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if out, ok := r.seenInputs[in]; ok {
		return out, false
	}

	out := r.transform(in)
	for {
		if _, exists := r.taken[r.key(out)]; !exists {
			break
		}
		out = r.mutate(out)
	}

	r.taken[r.key(out)] = struct{}{}
	r.seenInputs[in] = out
	return out, true
}

// Len returns the number of distinct inputs resolved so far.
func (r *Resolver[In, Out]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seenInputs)
}
