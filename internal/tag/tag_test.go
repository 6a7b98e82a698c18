package tag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func stringEntry(t Tag, s string) Entry {
	return Entry{Tag: t, Type: TypeString, Count: 1, Data: append([]byte(s), 0)}
}

func stringsEntry(t Tag, typ Type, ss ...string) Entry {
	var data []byte
	for _, s := range ss {
		data = append(data, s...)
		data = append(data, 0)
	}
	return Entry{Tag: t, Type: typ, Count: uint32(len(ss)), Data: data}
}

func TestTagValue(t *testing.T) {
	tests := []struct {
		in   string
		want Tag
		ok   bool
	}{
		{"NAME", Name, true},
		{"name", Name, true},
		{"Providename", ProvideName, true},
		{"1000", Name, true},
		{"5000", Tag(5000), true},
		{"-1", 0, false},
		{"", 0, false},
		{"NOSUCHTAG", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Value(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "REQUIRENAME", RequireName.String())
	assert.Equal(t, "4242", Tag(4242).String())
	assert.True(t, Name.Named())
	assert.False(t, Tag(4242).Named())
}

func TestNamesAscending(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
}

func TestMustValuePanics(t *testing.T) {
	assert.Panics(t, func() { MustValue("bogus") })
	assert.Equal(t, Version, MustValue("version"))
}

func TestParseType(t *testing.T) {
	for typ := TypeNull; typ <= TypeI18NString; typ++ {
		got, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	_, err := ParseType("float")
	assert.Error(t, err)
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"string", stringEntry(Name, "foo"), false},
		{"empty string", stringEntry(Name, ""), false},
		{"string array", stringsEntry(BaseNames, TypeStringArray, "a", "b"), false},
		{"int32 array", Entry{Tag: Size, Type: TypeInt32, Count: 2, Data: make([]byte, 8)}, false},
		{"int32 short", Entry{Tag: Size, Type: TypeInt32, Count: 2, Data: make([]byte, 7)}, true},
		{"bin", Entry{Tag: SigMD5, Type: TypeBin, Count: 3, Data: []byte{1, 2, 3}}, false},
		{"zero count", Entry{Tag: Size, Type: TypeInt32}, true},
		{"null", Entry{Tag: Size, Type: TypeNull}, false},
		{"null with data", Entry{Tag: Size, Type: TypeNull, Count: 1}, true},
		{"unknown type", Entry{Tag: Size, Type: Type(42), Count: 1, Data: []byte{0}}, true},
		{"unterminated", Entry{Tag: Name, Type: TypeString, Count: 1, Data: []byte("foo")}, true},
		{"string count", stringsEntry(Name, TypeString, "a", "b"), true},
		{"array count mismatch", Entry{Tag: BaseNames, Type: TypeStringArray, Count: 3, Data: []byte("a\x00b\x00")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrMalformedEntry))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHeaderLookupCopies(t *testing.T) {
	h := NewWithID("h1")
	require.NoError(t, h.Put(stringEntry(Name, "foo")))

	e, ok := h.Lookup(Name)
	require.True(t, ok)
	e.Data[0] = 'X'

	again, _ := h.Lookup(Name)
	assert.Equal(t, []byte("foo\x00"), again.Data)
}

func TestHeaderPutRejectsMalformed(t *testing.T) {
	h := NewWithID("h1")
	err := h.Put(Entry{Tag: Size, Type: TypeInt32, Count: 1, Data: []byte{1}})
	assert.ErrorIs(t, err, ErrMalformedEntry)
	assert.Equal(t, 0, h.Len())
}

func TestHeaderTagsSorted(t *testing.T) {
	h := NewWithID("h1")
	require.NoError(t, h.Put(stringEntry(Version, "1.0")))
	require.NoError(t, h.Put(stringEntry(Name, "foo")))
	require.NoError(t, h.Put(stringEntry(Release, "1")))
	assert.Equal(t, []Tag{Name, Version, Release}, h.Tags())

	assert.True(t, h.Delete(Version))
	assert.False(t, h.Delete(Version))
	assert.Equal(t, []Tag{Name, Release}, h.Tags())
}

func TestHeaderRefcount(t *testing.T) {
	h := NewWithID("h1")
	require.NoError(t, h.Put(stringEntry(Name, "foo")))

	s := h.Link()
	assert.Equal(t, 2, h.Refs())
	assert.Equal(t, "h1", s.ID())

	assert.Equal(t, 1, h.Free())
	_, ok := h.Lookup(Name)
	assert.True(t, ok, "entries survive while a reference remains")

	assert.Equal(t, 0, h.Free())
	_, ok = h.Lookup(Name)
	assert.False(t, ok)
	assert.Equal(t, 0, h.Free())

	assert.Error(t, h.Put(stringEntry(Name, "bar")))
}

func TestHeaderOrigin(t *testing.T) {
	h := New()
	assert.NotEmpty(t, h.ID())
	assert.Empty(t, h.Origin())
	h.SetOrigin("/tmp/foo.rpm")
	assert.Equal(t, "/tmp/foo.rpm", h.Origin())
}

func TestHeaderI18NSelection(t *testing.T) {
	h := NewWithID("h1")
	require.NoError(t, h.Put(stringsEntry(HeaderI18NTable, TypeStringArray, "C", "de_DE.UTF-8")))
	require.NoError(t, h.Put(stringsEntry(Summary, TypeI18NString, "hello", "hallo")))

	e, ok := h.Lookup(Summary)
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.Count)
	assert.Equal(t, []byte("hello\x00"), e.Data, "no preference picks the first translation")

	h.SetLocales([]language.Tag{language.German})
	e, _ = h.Lookup(Summary)
	assert.Equal(t, []byte("hallo\x00"), e.Data)

	raw, _ := h.Raw(Summary)
	assert.Equal(t, uint32(2), raw.Count)
}

func TestParseLocale(t *testing.T) {
	assert.Equal(t, language.Und, ParseLocale("C"))
	assert.Equal(t, language.Und, ParseLocale("POSIX"))
	assert.Equal(t, language.MustParse("de-DE"), ParseLocale("de_DE.UTF-8"))
	assert.Equal(t, language.MustParse("sr"), ParseLocale("sr@latin"))
}
