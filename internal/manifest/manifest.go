// Package manifest loads headers from YAML fixture documents.
//
// A document names an origin, an optional locale list and a tag map:
//
//	origin: /srv/bash-5.2-3.rpm
//	locales: [C, de]
//	tags:
//	  NAME: bash
//	  BUILDTIME: 1700000000
//	  REQUIRENAME: [glibc, ncurses]
//	  FILEMODES: {type: int16, value: [33261, 16877]}
//	  SUMMARY: {type: i18n_string, value: {C: The GNU shell, de: Die GNU-Shell}}
//	  SIGMD5: {type: bin, value: deadbeef}
//
// Bare scalars and lists infer their type: a string is String, an integer
// Int32, a list of strings StringArray and a list of integers Int32. I18N
// values map locale to text; the locale order is the document's locales
// list (C first by default) and is written to HEADERI18NTABLE.
package manifest

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tagproxy/internal/codec"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

// ErrInvalid is returned for documents that do not describe a header.
var ErrInvalid = errors.New("invalid header manifest")

// Document is the YAML form of a header.
type Document struct {
	Origin  string               `yaml:"origin,omitempty"`
	Locales []string             `yaml:"locales,omitempty"`
	Tags    map[string]yaml.Node `yaml:"tags"`
}

type typedValue struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

// Load reads a fixture file and builds its header.
func Load(path string) (*tag.Header, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	h, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if h.Origin() == "" {
		h.SetOrigin(path)
	}
	return h, nil
}

// Parse builds a header from a YAML document.
func Parse(data []byte) (*tag.Header, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc.Build()
}

// Build converts the document into a header.
func (d *Document) Build() (*tag.Header, error) {
	if len(d.Tags) == 0 {
		return nil, fmt.Errorf("%w: tags map is required and must be non-empty", ErrInvalid)
	}

	h := tag.New()
	h.SetOrigin(d.Origin)
	locales := d.Locales

	names := make([]string, 0, len(d.Tags))
	for name := range d.Tags {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t, ok := tag.Value(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown tag %q", ErrInvalid, name)
		}
		node := d.Tags[name]
		e, err := entryFor(t, &node, &locales)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
		if err := h.Put(e); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, name, err)
		}
	}

	if len(locales) > 0 {
		if _, ok := h.Raw(tag.HeaderI18NTable); !ok {
			e, err := codec.Encode(tag.TypeStringArray, value.Strings(locales...))
			if err != nil {
				return nil, fmt.Errorf("%w: locales: %v", ErrInvalid, err)
			}
			e.Tag = tag.HeaderI18NTable
			if err := h.Put(e); err != nil {
				return nil, err
			}
		}
	}
	return h, nil
}

func entryFor(t tag.Tag, node *yaml.Node, locales *[]string) (tag.Entry, error) {
	if node.Kind == yaml.MappingNode {
		var tv typedValue
		if err := node.Decode(&tv); err != nil {
			return tag.Entry{}, err
		}
		typ, err := tag.ParseType(tv.Type)
		if err != nil {
			return tag.Entry{}, err
		}
		return typedEntry(t, typ, &tv.Value, locales)
	}

	v, err := decodeNode(node)
	if err != nil {
		return tag.Entry{}, err
	}
	typ, err := inferType(v)
	if err != nil {
		return tag.Entry{}, err
	}
	e, err := codec.Encode(typ, v)
	if err != nil {
		return tag.Entry{}, err
	}
	e.Tag = t
	return e, nil
}

func typedEntry(t tag.Tag, typ tag.Type, node *yaml.Node, locales *[]string) (tag.Entry, error) {
	var (
		v   value.Value
		err error
	)
	switch {
	case typ == tag.TypeI18NString && node.Kind == yaml.MappingNode:
		var texts map[string]string
		if err := node.Decode(&texts); err != nil {
			return tag.Entry{}, err
		}
		v, err = translations(texts, locales)
	case typ == tag.TypeBin && node.Kind == yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return tag.Entry{}, err
		}
		var raw []byte
		raw, err = hex.DecodeString(s)
		if err == nil {
			return tag.Entry{Tag: t, Type: typ, Count: uint32(len(raw)), Data: raw}, nil
		}
	default:
		v, err = decodeNode(node)
	}
	if err != nil {
		return tag.Entry{}, err
	}

	e, err := codec.Encode(typ, v)
	if err != nil {
		return tag.Entry{}, err
	}
	e.Tag = t
	return e, nil
}

// translations orders I18N texts by the document's locale list, creating
// the list from the texts when the document has none. Locales without a
// text reuse the first locale's text.
func translations(texts map[string]string, locales *[]string) (value.Value, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("i18n value has no translations")
	}
	if len(*locales) == 0 {
		keys := make([]string, 0, len(texts))
		for k := range texts {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i] == "C" || keys[j] == "C" {
				return keys[i] == "C"
			}
			return keys[i] < keys[j]
		})
		*locales = keys
	}

	for loc := range texts {
		if !contains(*locales, loc) {
			return nil, fmt.Errorf("locale %q is not in the locale list", loc)
		}
	}

	out := make([]string, len(*locales))
	for i, loc := range *locales {
		s, ok := texts[loc]
		if !ok {
			s = texts[(*locales)[0]]
		}
		out[i] = s
	}
	return value.Strings(out...), nil
}

func decodeNode(node *yaml.Node) (value.Value, error) {
	var native any
	if err := node.Decode(&native); err != nil {
		return nil, err
	}
	return value.FromNative(native)
}

func inferType(v value.Value) (tag.Type, error) {
	switch v := v.(type) {
	case value.String:
		return tag.TypeString, nil
	case value.Int:
		return tag.TypeInt32, nil
	case value.Array:
		if len(v) == 0 {
			return 0, fmt.Errorf("empty list has no type")
		}
		switch v[0].(type) {
		case value.String:
			return tag.TypeStringArray, nil
		case value.Int:
			return tag.TypeInt32, nil
		}
	}
	return 0, fmt.Errorf("cannot infer a tag type for %s", value.Format(v))
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
