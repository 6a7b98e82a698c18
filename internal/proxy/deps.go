package proxy

import (
	"fmt"
	"strconv"

	"github.com/roach88/tagproxy/internal/deps"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

// Deps property names.
const (
	PropLength    = "length"
	PropType      = "type"
	PropIx        = "ix"
	PropBuildTime = "buildtime"
	PropColor     = "color"
	PropNoPromote = "nopromote"
	PropN         = "N"
	PropEVR       = "EVR"
	PropF         = "F"
	PropDNEVR     = "DNEVR"
)

var readOnlyDepsProps = map[string]bool{
	PropLength: true,
	PropType:   true,
	PropN:      true,
	PropEVR:    true,
	PropF:      true,
	PropDNEVR:  true,
}

// Deps is a property object over a dependency set cursor.
type Deps struct {
	reg *Registry
	set *deps.Set
}

func (r *Registry) newDeps(set *deps.Set) *Deps {
	d := &Deps{reg: r, set: set}
	r.track(d)
	if r.deps.traces() {
		r.logger.Debug("deps proxy created", "type", set.Type(), "count", set.Count(), "header", set.HeaderID())
	}
	return d
}

// NewDeps builds a dependency set proxy from a host-supplied source:
//
//   - a *Header: tagN 0 or NAME selects the provides-self entry, a
//     dependency name tag the full set of that type;
//   - a keyword (string or value.String): cpuinfo, rpmlib, getconf, uname;
//   - a value.Array literal [N, EVR, F]: a one-entry set of type tagN,
//     REQUIRENAME when tagN is 0.
//
// Failure returns an error and no object.
func (r *Registry) NewDeps(src any, tagN tag.Tag) (*Deps, error) {
	switch src := src.(type) {
	case *Header:
		if tagN == 0 {
			tagN = tag.Name
		}
		return src.Deps(tagN)
	case string:
		return r.keywordDeps(src)
	case value.String:
		return r.keywordDeps(string(src))
	case value.Array:
		return r.LiteralDeps(src, tagN)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownSource, src)
}

func (r *Registry) keywordDeps(k string) (*Deps, error) {
	set, err := deps.Keyword(k)
	if err != nil {
		return nil, err
	}
	return r.newDeps(set), nil
}

// LiteralDeps builds a one-entry set from [N string, EVR string, F int].
func (r *Registry) LiteralDeps(lit value.Array, tagN tag.Tag) (*Deps, error) {
	if len(lit) != 3 {
		return nil, fmt.Errorf("%w: want 3 elements, got %d", ErrMalformedLiteral, len(lit))
	}
	n, ok := lit[0].(value.String)
	if !ok {
		return nil, fmt.Errorf("%w: name is %s", ErrMalformedLiteral, value.Format(lit[0]))
	}
	evr, ok := lit[1].(value.String)
	if !ok {
		return nil, fmt.Errorf("%w: evr is %s", ErrMalformedLiteral, value.Format(lit[1]))
	}
	f, ok := lit[2].(value.Int)
	if !ok || f < 0 || f > 0xffffffff {
		return nil, fmt.Errorf("%w: flags is %s", ErrMalformedLiteral, value.Format(lit[2]))
	}
	if tagN == 0 {
		tagN = tag.RequireName
	}
	set, err := deps.Single(tagN, string(n), string(evr), deps.Sense(f))
	if err != nil {
		return nil, err
	}
	return r.newDeps(set), nil
}

// Get returns a property. Entry-bound properties (N, EVR, F, DNEVR,
// color) are absent unless the cursor is on an entry. A decimal index
// resolves to [N, EVR, F] only when it equals the cursor position.
func (d *Deps) Get(name string) (value.Value, bool) {
	v, ok := d.get(name)
	if d.reg.deps.traces() {
		d.reg.logger.Debug("deps get", "name", name, "found", ok)
	}
	return v, ok
}

func (d *Deps) get(name string) (value.Value, bool) {
	s := d.set
	if s == nil {
		if name == DebugProperty {
			return value.Int(d.reg.deps.Get()), true
		}
		return nil, false
	}
	switch name {
	case DebugProperty:
		return value.Int(d.reg.deps.Get()), true
	case PropLength:
		return value.Int(s.Count()), true
	case PropType:
		return value.String(s.Type()), true
	case PropIx:
		return value.Int(s.Ix()), true
	case PropBuildTime:
		return value.Int(s.BuildTime()), true
	case PropNoPromote:
		if s.NoPromote() {
			return value.Int(1), true
		}
		return value.Int(0), true
	}

	cur, ok := s.Current()
	switch name {
	case PropN:
		return value.String(cur.N), ok
	case PropEVR:
		return value.String(cur.EVR), ok
	case PropF:
		return value.Int(cur.Flags), ok
	case PropColor:
		return value.Int(cur.Color), ok
	case PropDNEVR:
		dnevr, ok := s.DNEVR()
		return value.String(dnevr), ok
	}

	if i, err := strconv.Atoi(name); err == nil && ok && i == s.Ix() {
		return entryTriple(cur), true
	}
	return nil, false
}

func entryTriple(cur deps.Dependency) value.Array {
	return value.NewArray(value.String(cur.N), value.String(cur.EVR), value.Int(cur.Flags))
}

// Set assigns a property. debug, ix, buildtime, nopromote and color are
// writable; assigning ix seeks when it differs from the position. Derived
// properties reject assignment; unknown names are ignored.
func (d *Deps) Set(name string, v value.Value) error {
	if d.reg.deps.traces() {
		d.reg.logger.Debug("deps set", "name", name, "value", value.Format(v))
	}
	if d.set == nil && name != DebugProperty {
		return fmt.Errorf("set %s: %w", name, ErrClosed)
	}
	if readOnlyDepsProps[name] {
		return fmt.Errorf("set %s: %w", name, ErrReadOnly)
	}

	var n int64
	switch name {
	case DebugProperty, PropIx, PropBuildTime, PropColor, PropNoPromote:
		switch v := v.(type) {
		case value.Int:
			n = int64(v)
		case value.Bool:
			if name != PropNoPromote {
				return fmt.Errorf("set %s: %w", name, ErrNotInteger)
			}
			if v {
				n = 1
			}
		default:
			return fmt.Errorf("set %s: %w", name, ErrNotInteger)
		}
	default:
		return nil
	}

	switch name {
	case DebugProperty:
		d.reg.deps.Set(int(n))
	case PropIx:
		if int(n) != d.set.Ix() {
			d.set.SetIx(int(n))
		}
	case PropBuildTime:
		d.set.SetBuildTime(n)
	case PropNoPromote:
		d.set.SetNoPromote(n != 0)
	case PropColor:
		if !d.set.SetColor(uint32(n)) {
			return fmt.Errorf("set %s: %w: no current entry", name, ErrNotFound)
		}
	}
	return nil
}

// Resolve reports whether name resolves to a property. Decimal indexes
// resolve only when equal to the cursor position; assignments never
// resolve.
func (d *Deps) Resolve(name string, flags ResolveFlags) bool {
	if d.reg.deps.tracesAll() {
		d.reg.logger.Debug("deps resolve", "name", name, "ix", d.Ix())
	}
	if flags&ResolveAssigning != 0 {
		return false
	}
	_, ok := d.get(name)
	return ok
}

// Index returns [N, EVR, F] for i when i is the cursor position.
func (d *Deps) Index(i int) (value.Array, bool) {
	v, ok := d.get(strconv.Itoa(i))
	if !ok {
		return nil, false
	}
	return v.(value.Array), true
}

// Count returns the number of entries, zero once closed.
func (d *Deps) Count() int {
	if d.set == nil {
		return 0
	}
	return d.set.Count()
}

// Ix returns the cursor position.
func (d *Deps) Ix() int {
	if d.set == nil {
		return -1
	}
	return d.set.Ix()
}

// Seek positions the cursor on entry i and reports whether it is on an
// entry.
func (d *Deps) Seek(i int) bool {
	return d.set != nil && d.set.SetIx(i)
}

// Next advances the cursor.
func (d *Deps) Next() bool {
	return d.set != nil && d.set.Next()
}

// Init moves the cursor before the first entry.
func (d *Deps) Init() {
	if d.set != nil {
		d.set.Init()
	}
}

// Underlying returns the dependency set, nil once closed.
func (d *Deps) Underlying() *deps.Set { return d.set }

// Enumerate iterates the cursor from the start, yielding each position.
// Enumerating moves the cursor.
func (d *Deps) Enumerate() *Enumerator {
	if d.reg.deps.tracesAll() {
		d.reg.logger.Debug("deps enumerate", "count", d.Count())
	}
	return newEnumerator(&depsCursor{d: d})
}

// Close releases the set. It is safe to call more than once.
func (d *Deps) Close() error {
	if d.set == nil {
		return nil
	}
	if d.reg.deps.traces() {
		d.reg.logger.Debug("deps proxy closed", "type", d.set.Type())
	}
	d.reg.untrack(d)
	d.set = nil
	return nil
}

type depsCursor struct {
	d *Deps
}

func (c *depsCursor) init() { c.d.Init() }

func (c *depsCursor) next() (value.Value, bool) {
	if !c.d.Next() {
		return nil, false
	}
	return value.Int(c.d.Ix()), true
}

func (c *depsCursor) destroy() {}
