package deps

import (
	"fmt"

	"github.com/roach88/tagproxy/internal/codec"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

// New builds the full set of dependencies of type tagN carried by a header.
// Missing version or flag entries default to "" and SenseAny.
func New(s tag.Store, tagN tag.Tag) (*Set, error) {
	k, ok := kinds[tagN]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDependencyTag, tagN)
	}

	names := stringsOf(s, tagN)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDependencies, k.name)
	}
	versions := stringsOf(s, k.version)
	flags := intsOf(s, k.flags)
	colors := intsOf(s, tag.FileColors)

	entries := make([]Dependency, len(names))
	for i, n := range names {
		entries[i].N = n
		if i < len(versions) {
			entries[i].EVR = versions[i]
		}
		if i < len(flags) {
			entries[i].Flags = Sense(flags[i])
		}
		if i < len(colors) {
			entries[i].Color = uint32(colors[i])
		}
	}

	set, err := newSet(tagN, entries)
	if err != nil {
		return nil, err
	}
	set.headerID = s.ID()
	if bt := intsOf(s, tag.BuildTime); len(bt) > 0 {
		set.buildTime = bt[0]
	}
	return set, nil
}

// This builds the single provides-self dependency of a header:
// NAME = [EPOCH:]VERSION-RELEASE.
func This(s tag.Store) (*Set, error) {
	names := stringsOf(s, tag.Name)
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: header has no NAME", ErrNoDependencies)
	}

	evr := ""
	if v := stringsOf(s, tag.Version); len(v) > 0 {
		evr = v[0]
	}
	if r := stringsOf(s, tag.Release); len(r) > 0 {
		evr += "-" + r[0]
	}
	if e := intsOf(s, tag.Epoch); len(e) > 0 {
		evr = fmt.Sprintf("%d:%s", e[0], evr)
	}

	set, err := Single(tag.ProvideName, names[0], evr, SenseEqual)
	if err != nil {
		return nil, err
	}
	set.headerID = s.ID()
	if bt := intsOf(s, tag.BuildTime); len(bt) > 0 {
		set.buildTime = bt[0]
	}
	return set, nil
}

// stringsOf decodes a string or string array tag. Absent or undecodable
// tags yield nil.
func stringsOf(s tag.Store, t tag.Tag) []string {
	e, ok := s.Lookup(t)
	if !ok {
		return nil
	}
	v, err := codec.Decode(e)
	if err != nil {
		return nil
	}
	switch v := v.(type) {
	case value.String:
		return []string{string(v)}
	case value.Array:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			str, ok := elem.(value.String)
			if !ok {
				return nil
			}
			out = append(out, string(str))
		}
		return out
	}
	return nil
}

// intsOf decodes an integer array tag. Absent or undecodable tags yield nil.
func intsOf(s tag.Store, t tag.Tag) []int64 {
	e, ok := s.Lookup(t)
	if !ok {
		return nil
	}
	v, err := codec.Decode(e)
	if err != nil {
		return nil
	}
	arr, ok := v.(value.Array)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(arr))
	for _, elem := range arr {
		n, ok := elem.(value.Int)
		if !ok {
			return nil
		}
		out = append(out, int64(n))
	}
	return out
}
