package proxy

import (
	"fmt"

	"github.com/roach88/tagproxy/internal/codec"
	"github.com/roach88/tagproxy/internal/deps"
	"github.com/roach88/tagproxy/internal/qf"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

// DebugProperty is the reserved control property present on every proxy.
const DebugProperty = "debug"

// ResolveFlags describe the access that triggered a resolve.
type ResolveFlags uint8

const (
	// ResolveAssigning marks a resolve triggered by an assignment. Such
	// resolves never define anything.
	ResolveAssigning ResolveFlags = 1 << iota
)

// Header is a property object over a tag store.
type Header struct {
	reg   *Registry
	store tag.Store
	props *propertyCache
}

// Get returns a property. "debug" reads the shared header debug level. Any
// other name is taken as a tag name or number: the first successful read
// decodes and caches it under the tag's canonical name.
func (h *Header) Get(name string) (value.Value, bool) {
	if name == DebugProperty {
		return value.Int(h.reg.header.Get()), true
	}
	v, ok := h.materialize(name)
	if h.reg.header.traces() {
		h.reg.logger.Debug("header get", "name", name, "found", ok)
	}
	return v, ok
}

// Set assigns a property. Only "debug" is writable; other assignments are
// accepted and ignored.
func (h *Header) Set(name string, v value.Value) error {
	if h.reg.header.traces() {
		h.reg.logger.Debug("header set", "name", name, "value", value.Format(v))
	}
	if name != DebugProperty {
		return nil
	}
	n, ok := v.(value.Int)
	if !ok {
		return fmt.Errorf("set %s: %w", name, ErrNotInteger)
	}
	h.reg.header.Set(int(n))
	return nil
}

// Resolve defines the property for name if the store carries it and
// reports whether the property now exists. Assignments and class-level
// objects never resolve.
func (h *Header) Resolve(name string, flags ResolveFlags) bool {
	if h.reg.header.tracesAll() {
		h.reg.logger.Debug("header resolve", "name", name, "assigning", flags&ResolveAssigning != 0)
	}
	if flags&ResolveAssigning != 0 || h.store == nil {
		return false
	}
	if name == DebugProperty {
		return true
	}
	_, ok := h.materialize(name)
	return ok
}

// Has reports whether name is already a defined property.
func (h *Header) Has(name string) bool {
	if name == DebugProperty {
		return true
	}
	if t, ok := tag.Value(name); ok {
		name = t.String()
	}
	_, ok := h.props.lookup(name)
	return ok
}

// Keys returns the defined tag properties in definition order.
func (h *Header) Keys() []string {
	return h.props.keys()
}

// Enumerate iterates the names of the properties defined so far.
func (h *Header) Enumerate() *Enumerator {
	if h.reg.header.tracesAll() {
		h.reg.logger.Debug("header enumerate", "cached", h.props.len())
	}
	return newEnumerator(&headerKeys{h: h})
}

// Sprintf expands a query format against the store.
func (h *Header) Sprintf(format string) (string, error) {
	if h.store == nil {
		return "", ErrClosed
	}
	return qf.Format(h.store, format)
}

// Origin returns the store's provenance string.
func (h *Header) Origin() string {
	if h.store == nil {
		return ""
	}
	return h.store.Origin()
}

// SetOrigin records a provenance string and returns the stored value.
func (h *Header) SetOrigin(origin string) string {
	if h.store == nil {
		return ""
	}
	h.store.SetOrigin(origin)
	return h.store.Origin()
}

// Deps builds a dependency set proxy from the store. NAME selects the
// header's provides-self entry; the dependency name tags select the full
// set of that type.
func (h *Header) Deps(t tag.Tag) (*Deps, error) {
	if h.store == nil {
		return nil, ErrClosed
	}
	var (
		set *deps.Set
		err error
	)
	if t == tag.Name {
		set, err = deps.This(h.store)
	} else {
		set, err = deps.New(h.store, t)
	}
	if err != nil {
		return nil, err
	}
	return h.reg.newDeps(set), nil
}

// Close releases the store reference. It is safe to call more than once.
func (h *Header) Close() error {
	if h.store == nil {
		return nil
	}
	id := h.store.ID()
	left := h.store.Free()
	h.store = nil
	h.reg.untrack(h)
	if h.reg.header.traces() {
		h.reg.logger.Debug("header proxy closed", "store", id, "refs", left)
	}
	return nil
}

// materialize returns the cached property for name or decodes it from the
// store. Unknown names, missing tags and undecodable entries are absent.
func (h *Header) materialize(name string) (value.Value, bool) {
	t, ok := tag.Value(name)
	if !ok {
		return nil, false
	}
	key := t.String()
	if v, ok := h.props.lookup(key); ok {
		return v, true
	}
	if h.store == nil {
		return nil, false
	}
	e, ok := h.store.Lookup(t)
	if !ok {
		return nil, false
	}
	v, err := codec.Decode(e)
	if err != nil {
		if h.reg.header.traces() {
			h.reg.logger.Debug("header decode failed", "tag", key, "error", err)
		}
		return nil, false
	}
	h.props.define(key, v)
	return v, true
}

type headerKeys struct {
	h    *Header
	keys []string
	i    int
}

func (k *headerKeys) init() {
	k.keys = k.h.props.keys()
	k.i = 0
}

func (k *headerKeys) next() (value.Value, bool) {
	if k.i >= len(k.keys) {
		return nil, false
	}
	name := k.keys[k.i]
	k.i++
	return value.String(name), true
}

func (k *headerKeys) destroy() {
	k.keys = nil
}
