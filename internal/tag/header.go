package tag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Header is the in-memory tag store.
type Header struct {
	id      string
	entries map[Tag]Entry
	origin  string
	refs    int

	locales []language.Tag
}

// New creates an empty header holding one reference.
// The header ID is a time-sortable UUIDv7.
func New() *Header {
	return NewWithID(uuid.Must(uuid.NewV7()).String())
}

// NewWithID creates an empty header with a caller-chosen ID. Tests use it
// for deterministic IDs.
func NewWithID(id string) *Header {
	return &Header{
		id:      id,
		entries: make(map[Tag]Entry),
		refs:    1,
	}
}

// ID implements Store.
func (h *Header) ID() string {
	return h.id
}

// Put validates e and stores a private copy, replacing any previous entry
// for the same tag.
func (h *Header) Put(e Entry) error {
	if h.refs <= 0 {
		return fmt.Errorf("put %s: header already freed", e.Tag)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	h.entries[e.Tag] = e.Clone()
	return nil
}

// Delete removes a tag. It reports whether the tag was present.
func (h *Header) Delete(t Tag) bool {
	_, ok := h.entries[t]
	delete(h.entries, t)
	return ok
}

// Raw returns a copy of the stored entry without locale selection.
func (h *Header) Raw(t Tag) (Entry, bool) {
	e, ok := h.entries[t]
	if !ok {
		return Entry{}, false
	}
	return e.Clone(), true
}

// Lookup implements Store.
func (h *Header) Lookup(t Tag) (Entry, bool) {
	e, ok := h.entries[t]
	if !ok {
		return Entry{}, false
	}
	if e.Type == TypeI18NString {
		return h.selectLocale(e), true
	}
	return e.Clone(), true
}

// Tags implements Store.
func (h *Header) Tags() []Tag {
	tags := make([]Tag, 0, len(h.entries))
	for t := range h.entries {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Len returns the number of entries.
func (h *Header) Len() int {
	return len(h.entries)
}

// Origin implements Store.
func (h *Header) Origin() string {
	return h.origin
}

// SetOrigin implements Store.
func (h *Header) SetOrigin(origin string) {
	h.origin = origin
}

// Link implements Store.
func (h *Header) Link() Store {
	h.refs++
	return h
}

// Free implements Store. Dropping the last reference releases the entries.
func (h *Header) Free() int {
	if h.refs <= 0 {
		return 0
	}
	h.refs--
	if h.refs == 0 {
		h.entries = make(map[Tag]Entry)
	}
	return h.refs
}

// Refs returns the current reference count.
func (h *Header) Refs() int {
	return h.refs
}

// SetLocales sets the preferred locales used to pick I18N string
// translations, most preferred first.
func (h *Header) SetLocales(locales []language.Tag) {
	h.locales = append([]language.Tag(nil), locales...)
}

// selectLocale reduces an I18N entry to the translation matching the
// header's preferred locales. HEADERI18NTABLE lists the locale of each
// translation; without a table or preferences the first one wins.
func (h *Header) selectLocale(e Entry) Entry {
	translations := splitStrings(e.Data)
	idx := 0

	if table, ok := h.entries[HeaderI18NTable]; ok && len(h.locales) > 0 && table.Type == TypeStringArray {
		supported := make([]language.Tag, 0, table.Count)
		for _, loc := range splitStrings(table.Data) {
			supported = append(supported, ParseLocale(loc))
		}
		_, i, conf := language.NewMatcher(supported).Match(h.locales...)
		if conf != language.No && i < len(translations) {
			idx = i
		}
	}

	s := translations[idx]
	return Entry{
		Tag:   e.Tag,
		Type:  TypeI18NString,
		Count: 1,
		Data:  append([]byte(s), 0),
	}
}

// ParseLocale maps POSIX locale names ("C", "de_DE.UTF-8") to language tags.
func ParseLocale(loc string) language.Tag {
	if loc == "C" || loc == "POSIX" || loc == "" {
		return language.Und
	}
	if i := strings.IndexAny(loc, ".@"); i >= 0 {
		loc = loc[:i]
	}
	t, err := language.Parse(strings.ReplaceAll(loc, "_", "-"))
	if err != nil {
		return language.Und
	}
	return t
}
