package qf

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/tagproxy/internal/codec"
	"github.com/roach88/tagproxy/internal/deps"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

// Absent is rendered for tags the store does not carry.
const Absent = "(none)"

const notANumber = "(not a number)"

// formatters post-process one rendered element. Each receives the decoded
// element value.
var formatters = map[string]func(value.Value) string{
	"date": func(v value.Value) string {
		n, ok := v.(value.Int)
		if !ok {
			return notANumber
		}
		return time.Unix(int64(n), 0).UTC().Format("Mon Jan _2 15:04:05 2006")
	},
	"hex": func(v value.Value) string {
		n, ok := v.(value.Int)
		if !ok {
			return notANumber
		}
		return strconv.FormatUint(uint64(n), 16)
	},
	"octal": func(v value.Value) string {
		n, ok := v.(value.Int)
		if !ok {
			return notANumber
		}
		return strconv.FormatUint(uint64(n), 8)
	},
	"depflags": func(v value.Value) string {
		n, ok := v.(value.Int)
		if !ok {
			return notANumber
		}
		return deps.Sense(n).Op()
	},
	"shescape": func(v value.Value) string {
		return "'" + strings.ReplaceAll(plain(v), "'", `'\''`) + "'"
	},
}

// Format expands a query format against a store.
//
// Syntax: %[-][width]{TAG[:fmt]} expands a tag; %{#TAG} expands its element
// count; [ ... ] repeats its body once per element of the tags it names,
// with %{=TAG} pinned to the first element. Absent tags expand to "(none)".
// Backslash escapes (\n, \t, ...) and %% are recognized in literal text.
func Format(s tag.Store, format string) (string, error) {
	p := &parser{src: format}
	nodes, err := p.parse(false)
	if err != nil {
		return "", err
	}

	x := &expander{store: s, cache: make(map[tag.Tag]lookup)}
	var out strings.Builder
	if err := x.expand(&out, nodes, 0); err != nil {
		return "", err
	}
	return out.String(), nil
}

type lookup struct {
	elems []value.Value
	ok    bool
}

type expander struct {
	store tag.Store
	cache map[tag.Tag]lookup
}

// elements decodes a tag into its per-element values. Strings and Bin
// payloads count as a single element.
func (x *expander) elements(t tag.Tag) lookup {
	if l, ok := x.cache[t]; ok {
		return l
	}
	var l lookup
	if e, ok := x.store.Lookup(t); ok {
		if e.Type == tag.TypeBin {
			l = lookup{elems: []value.Value{value.String(hex.EncodeToString(e.Data))}, ok: true}
		} else if v, err := codec.Decode(e); err == nil {
			if arr, isArr := v.(value.Array); isArr {
				l = lookup{elems: arr, ok: true}
			} else {
				l = lookup{elems: []value.Value{v}, ok: true}
			}
		}
	}
	x.cache[t] = l
	return l
}

func (x *expander) expand(out *strings.Builder, nodes []node, elem int) error {
	for _, n := range nodes {
		switch n := n.(type) {
		case literal:
			out.WriteString(n.text)

		case tagRef:
			out.WriteString(x.render(n, elem))

		case iteration:
			count, err := x.iterations(n)
			if err != nil {
				return err
			}
			for i := 0; i < count; i++ {
				if err := x.expand(out, n.nodes, i); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// iterations returns how often an iteration body repeats: the element count
// shared by the tags it names. Single-element tags repeat alongside longer
// ones.
func (x *expander) iterations(it iteration) (int, error) {
	count := 0
	for _, n := range it.nodes {
		ref, ok := n.(tagRef)
		if !ok || ref.first || ref.count {
			continue
		}
		l := x.elements(ref.tag)
		if !l.ok {
			continue
		}
		c := len(l.elems)
		switch {
		case c == 1 || c == count:
		case count <= 1:
			count = c
		default:
			return 0, errorf(ref.pos, "array iterator used with different sized arrays (%s has %d, expected %d)", ref.tag, c, count)
		}
		if count == 0 {
			count = c
		}
	}
	return count, nil
}

func (x *expander) render(ref tagRef, elem int) string {
	l := x.elements(ref.tag)

	var s string
	switch {
	case ref.count:
		s = strconv.Itoa(len(l.elems))
	case !l.ok:
		s = Absent
	default:
		i := elem
		if ref.first || len(l.elems) == 1 {
			i = 0
		}
		if i >= len(l.elems) {
			s = Absent
		} else if ref.fmt != "" {
			s = formatters[ref.fmt](l.elems[i])
		} else {
			s = plain(l.elems[i])
		}
	}

	if ref.width > 0 {
		if ref.left {
			return fmt.Sprintf("%-*s", ref.width, s)
		}
		return fmt.Sprintf("%*s", ref.width, s)
	}
	return s
}

func plain(v value.Value) string {
	switch v := v.(type) {
	case value.String:
		return string(v)
	case value.Int:
		return strconv.FormatInt(int64(v), 10)
	}
	return value.Format(v)
}
