package deps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/tagproxy/internal/tag"
)

var (
	// ErrUnknownKeyword is returned by Keyword for names other than the
	// four synthetic sets.
	ErrUnknownKeyword = errors.New("unknown dependency keyword")

	// ErrNoDependencies is returned when a header lacks the requested
	// dependency name tag.
	ErrNoDependencies = errors.New("no dependencies of requested type")

	// ErrUnknownDependencyTag is returned for tags that do not name a
	// dependency type.
	ErrUnknownDependencyTag = errors.New("not a dependency name tag")
)

// Dependency is one entry of a set.
type Dependency struct {
	N     string
	EVR   string
	Flags Sense
	Color uint32
}

// DNEVR formats the dependency as "<kind> N[ op][ EVR]", where kind is the
// first letter of the set's type.
func (d Dependency) DNEVR(kind byte) string {
	var b strings.Builder
	b.WriteByte(kind)
	b.WriteByte(' ')
	b.WriteString(d.N)
	if op := d.Flags.Op(); op != "" {
		b.WriteByte(' ')
		b.WriteString(op)
	}
	if d.EVR != "" {
		b.WriteByte(' ')
		b.WriteString(d.EVR)
	}
	return b.String()
}

type kind struct {
	name     string
	version  tag.Tag
	flags    tag.Tag
	typeName string
}

var kinds = map[tag.Tag]kind{
	tag.ProvideName:  {name: "PROVIDENAME", version: tag.ProvideVersion, flags: tag.ProvideFlags, typeName: "Provides"},
	tag.RequireName:  {name: "REQUIRENAME", version: tag.RequireVersion, flags: tag.RequireFlags, typeName: "Requires"},
	tag.ConflictName: {name: "CONFLICTNAME", version: tag.ConflictVersion, flags: tag.ConflictFlags, typeName: "Conflicts"},
	tag.ObsoleteName: {name: "OBSOLETENAME", version: tag.ObsoleteVersion, flags: tag.ObsoleteFlags, typeName: "Obsoletes"},
}

// IsNameTag reports whether t selects a dependency type.
func IsNameTag(t tag.Tag) bool {
	_, ok := kinds[t]
	return ok
}

// Set is an ordered dependency sequence plus a cursor.
type Set struct {
	tagN    tag.Tag
	entries []Dependency

	ix        int
	exhausted bool

	headerID  string
	buildTime int64
	noPromote bool
}

func newSet(tagN tag.Tag, entries []Dependency) (*Set, error) {
	if _, ok := kinds[tagN]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDependencyTag, tagN)
	}
	return &Set{tagN: tagN, entries: entries, ix: -1}, nil
}

// Single builds a one-entry set of type tagN.
func Single(tagN tag.Tag, n, evr string, flags Sense) (*Set, error) {
	return newSet(tagN, []Dependency{{N: n, EVR: evr, Flags: flags}})
}

// Tag returns the name tag selecting the set's type.
func (s *Set) Tag() tag.Tag { return s.tagN }

// Type returns the set's category: Provides, Requires, Conflicts or
// Obsoletes.
func (s *Set) Type() string { return kinds[s.tagN].typeName }

// Count returns the number of entries.
func (s *Set) Count() int { return len(s.entries) }

// Ix returns the cursor position, -1 when not on an entry.
func (s *Set) Ix() int { return s.ix }

// Valid reports whether the cursor is on an entry.
func (s *Set) Valid() bool { return s.ix >= 0 && s.ix < len(s.entries) }

// Init moves the cursor before the first entry and clears exhaustion.
func (s *Set) Init() *Set {
	s.ix = -1
	s.exhausted = false
	return s
}

// Next advances the cursor. Once it runs off the end it keeps returning
// false until Init or SetIx.
func (s *Set) Next() bool {
	if s.exhausted {
		return false
	}
	s.ix++
	if s.Valid() {
		return true
	}
	s.ix = -1
	s.exhausted = true
	return false
}

// SetIx positions the cursor by placing it just before i and stepping once,
// so the entry at i becomes current. Out-of-range positions leave the
// cursor exhausted. It reports whether the cursor is on an entry.
func (s *Set) SetIx(i int) bool {
	s.exhausted = false
	s.ix = i - 1
	return s.Next()
}

// Current returns the entry under the cursor.
func (s *Set) Current() (Dependency, bool) {
	if !s.Valid() {
		return Dependency{}, false
	}
	return s.entries[s.ix], true
}

// DNEVR formats the entry under the cursor.
func (s *Set) DNEVR() (string, bool) {
	d, ok := s.Current()
	if !ok {
		return "", false
	}
	return d.DNEVR(s.Type()[0]), true
}

// SetColor sets the color of the entry under the cursor.
func (s *Set) SetColor(c uint32) bool {
	if !s.Valid() {
		return false
	}
	s.entries[s.ix].Color = c
	return true
}

func (s *Set) BuildTime() int64     { return s.buildTime }
func (s *Set) SetBuildTime(t int64) { s.buildTime = t }

func (s *Set) NoPromote() bool     { return s.noPromote }
func (s *Set) SetNoPromote(v bool) { s.noPromote = v }

// HeaderID identifies the header the set was built from, or "" for
// synthetic and literal sets. The set never holds the header itself.
func (s *Set) HeaderID() string { return s.headerID }

// Entries returns a copy of every entry in order.
func (s *Set) Entries() []Dependency {
	return append([]Dependency(nil), s.entries...)
}
