package proxy

import "github.com/roach88/tagproxy/internal/value"

// EnumState is the lifecycle phase of an Enumerator.
type EnumState int

const (
	EnumInit EnumState = iota
	EnumNext
	EnumDestroyed
)

func (s EnumState) String() string {
	switch s {
	case EnumInit:
		return "init"
	case EnumNext:
		return "next"
	case EnumDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// keySource is what an Enumerator drives: init resets, next yields keys
// until exhausted, destroy releases iteration resources.
type keySource interface {
	init()
	next() (value.Value, bool)
	destroy()
}

// Enumerator is an external iterator over a proxy's keys. It moves
// Init -> Next -> Destroyed; exhaustion destroys it.
type Enumerator struct {
	state   EnumState
	src     keySource
	pending value.Value
	ready   bool
}

func newEnumerator(src keySource) *Enumerator {
	return &Enumerator{state: EnumInit, src: src}
}

// State returns the current phase.
func (e *Enumerator) State() EnumState { return e.state }

// HasNext reports whether another key is available, starting the
// iteration on first use.
func (e *Enumerator) HasNext() bool {
	switch e.state {
	case EnumDestroyed:
		return false
	case EnumInit:
		e.src.init()
		e.state = EnumNext
	}
	if e.ready {
		return true
	}
	v, ok := e.src.next()
	if !ok {
		e.Close()
		return false
	}
	e.pending, e.ready = v, true
	return true
}

// Next returns the next key, or false once exhausted.
func (e *Enumerator) Next() (value.Value, bool) {
	if !e.HasNext() {
		return nil, false
	}
	v := e.pending
	e.pending, e.ready = nil, false
	return v, true
}

// Close ends the iteration. It is safe to call more than once.
func (e *Enumerator) Close() {
	if e.state == EnumDestroyed {
		return
	}
	e.src.destroy()
	e.state = EnumDestroyed
	e.pending, e.ready = nil, false
}

// All drains the enumerator and returns every key.
func (e *Enumerator) All() []value.Value {
	var out []value.Value
	for {
		v, ok := e.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
