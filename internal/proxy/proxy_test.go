package proxy

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/roach88/tagproxy/internal/codec"
	"github.com/roach88/tagproxy/internal/deps"
	"github.com/roach88/tagproxy/internal/qf"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

func put(t *testing.T, h *tag.Header, tg tag.Tag, typ tag.Type, v value.Value) {
	t.Helper()
	e, err := codec.Encode(typ, v)
	require.NoError(t, err)
	e.Tag = tg
	require.NoError(t, h.Put(e))
}

func fooHeader(t *testing.T) *tag.Header {
	t.Helper()
	h := tag.NewWithID("foo")
	put(t, h, tag.Name, tag.TypeString, value.String("foo"))
	put(t, h, tag.Version, tag.TypeString, value.String("1.0"))
	put(t, h, tag.Release, tag.TypeString, value.String("2"))
	put(t, h, tag.BaseNames, tag.TypeStringArray, value.Strings("a", "b"))
	put(t, h, tag.Size, tag.TypeInt32, value.Ints(4096))
	put(t, h, tag.RequireName, tag.TypeStringArray, value.Strings("bash", "glibc"))
	put(t, h, tag.RequireVersion, tag.TypeStringArray, value.Strings("4.0", "2.34"))
	put(t, h, tag.RequireFlags, tag.TypeInt32, value.Ints(
		int64(deps.SenseGreater|deps.SenseEqual), int64(deps.SenseGreater|deps.SenseEqual)))
	return h
}

func TestHeaderGetMaterializesAndCaches(t *testing.T) {
	r := NewRegistry()
	h := r.NewHeader(fooHeader(t))
	defer h.Close()

	assert.False(t, h.Has("NAME"))
	v, ok := h.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, value.String("foo"), v)
	assert.True(t, h.Has("NAME"))

	v, ok = h.Get("basenames")
	require.True(t, ok)
	assert.True(t, value.Equal(value.Strings("a", "b"), v))

	v, ok = h.Get("1009")
	require.True(t, ok)
	assert.True(t, value.Equal(value.Ints(4096), v))

	assert.Equal(t, []string{"NAME", "BASENAMES", "SIZE"}, h.Keys())
}

func TestHeaderMissingIsAbsent(t *testing.T) {
	r := NewRegistry()
	h := r.NewHeader(fooHeader(t))
	defer h.Close()

	for _, name := range []string{"LICENSE", "NOSUCHTAG", "", "99999", "-3"} {
		v, ok := h.Get(name)
		assert.False(t, ok, name)
		assert.Nil(t, v, name)
	}
	assert.Empty(t, h.Keys())
}

func TestHeaderUndecodableIsAbsent(t *testing.T) {
	s := tag.NewWithID("nulls")
	require.NoError(t, s.Put(tag.Entry{Tag: tag.Group, Type: tag.TypeNull}))

	h := NewRegistry().NewHeader(s)
	defer h.Close()
	_, ok := h.Get("GROUP")
	assert.False(t, ok)
	assert.False(t, h.Resolve("GROUP", 0))
}

func TestHeaderCacheIsSetOnce(t *testing.T) {
	s := fooHeader(t)
	h := NewRegistry().NewHeader(s)
	defer h.Close()

	v, _ := h.Get("NAME")
	require.Equal(t, value.String("foo"), v)

	put(t, s, tag.Name, tag.TypeString, value.String("changed"))
	v, _ = h.Get("NAME")
	assert.Equal(t, value.String("foo"), v)
}

func TestHeaderEnumerateCacheOnly(t *testing.T) {
	h := NewRegistry().NewHeader(fooHeader(t))
	defer h.Close()

	assert.Empty(t, h.Enumerate().All(), "nothing accessed yet")

	_, ok := h.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.String("NAME")}, h.Enumerate().All())

	require.True(t, h.Resolve("VERSION", 0))
	assert.Equal(t, []value.Value{value.String("NAME"), value.String("VERSION")}, h.Enumerate().All())
}

func TestHeaderSetOnlyDebug(t *testing.T) {
	r := NewRegistry()
	a := r.NewHeader(fooHeader(t))
	b := r.NewHeader(fooHeader(t))
	defer r.Close()

	require.NoError(t, a.Set("NAME", value.String("bar")))
	v, _ := a.Get("NAME")
	assert.Equal(t, value.String("foo"), v)

	require.NoError(t, a.Set("debug", value.Int(3)))
	v, _ = b.Get("debug")
	assert.Equal(t, value.Int(3), v, "debug level is shared by every header")
	assert.Equal(t, 3, r.HeaderDebug().Get())
	assert.Equal(t, 0, r.DepsDebug().Get(), "kinds have independent levels")

	err := a.Set("debug", value.String("loud"))
	assert.ErrorIs(t, err, ErrNotInteger)
}

func TestHeaderResolve(t *testing.T) {
	r := NewRegistry()
	h := r.NewHeader(fooHeader(t))
	defer h.Close()

	assert.False(t, h.Resolve("NAME", ResolveAssigning))
	assert.False(t, h.Has("NAME"))
	assert.True(t, h.Resolve("NAME", 0))
	assert.True(t, h.Has("NAME"))
	assert.False(t, h.Resolve("LICENSE", 0))
	assert.True(t, h.Resolve("debug", 0))
}

func TestHeaderClassObject(t *testing.T) {
	r := NewRegistry()
	c := r.HeaderClass()

	assert.False(t, c.Resolve("NAME", 0))
	_, ok := c.Get("NAME")
	assert.False(t, ok)
	v, ok := c.Get("debug")
	assert.True(t, ok)
	assert.Equal(t, value.Int(0), v)
	assert.Empty(t, c.Origin())

	_, err := c.Sprintf("%{NAME}")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = c.Deps(tag.Name)
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, c.Close())
}

func TestHeaderSprintf(t *testing.T) {
	h := NewRegistry().NewHeader(fooHeader(t))
	defer h.Close()

	out, err := h.Sprintf("%{NAME}-%{VERSION}-%{RELEASE}")
	require.NoError(t, err)
	assert.Equal(t, "foo-1.0-2", out)

	out, err = h.Sprintf("%{BOGUS}")
	assert.Empty(t, out)
	var fe *qf.FormatError
	assert.True(t, errors.As(err, &fe))
}

func TestHeaderOrigin(t *testing.T) {
	h := NewRegistry().EmptyHeader()
	defer h.Close()

	assert.Empty(t, h.Origin())
	assert.Equal(t, "/srv/foo.rpm", h.SetOrigin("/srv/foo.rpm"))
	assert.Equal(t, "/srv/foo.rpm", h.Origin())
}

func TestHeaderStoreRefcount(t *testing.T) {
	r := NewRegistry()
	s := fooHeader(t)

	a := r.NewHeader(s)
	b := r.NewHeader(s)
	assert.Equal(t, 3, s.Refs())
	assert.Equal(t, 2, r.Live())

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.Equal(t, 2, s.Refs())

	v, ok := b.Get("NAME")
	require.True(t, ok)
	assert.Equal(t, value.String("foo"), v)

	require.NoError(t, b.Close())
	assert.Equal(t, 1, s.Refs())
	assert.Equal(t, 0, r.Live())

	assert.Equal(t, 0, s.Free())
}

func TestEmptyHeaderOwnsStore(t *testing.T) {
	r := NewRegistry()
	h := r.EmptyHeader()
	assert.Equal(t, 1, r.Live())
	assert.Empty(t, h.Keys())
	require.NoError(t, r.Close())
	assert.Equal(t, 0, r.Live())
}

func TestRegistryLocales(t *testing.T) {
	s := tag.NewWithID("i18n")
	put(t, s, tag.HeaderI18NTable, tag.TypeStringArray, value.Strings("C", "fr"))
	put(t, s, tag.Summary, tag.TypeI18NString, value.Strings("hello", "bonjour"))

	h := NewRegistry(WithLocales(language.French)).NewHeader(s)
	defer h.Close()
	v, ok := h.Get("SUMMARY")
	require.True(t, ok)
	assert.Equal(t, value.String("bonjour"), v)
}

func TestDebugTracing(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := NewRegistry(WithLogger(logger))
	h := r.NewHeader(fooHeader(t))
	h.Get("NAME")
	assert.Empty(t, buf.String(), "level 0 is silent")

	r.HeaderDebug().Set(1)
	h.Get("NAME")
	h.Resolve("VERSION", 0)
	assert.Contains(t, buf.String(), "header get")
	assert.NotContains(t, buf.String(), "header resolve")

	r.HeaderDebug().Set(-1)
	h.Resolve("VERSION", 0)
	assert.Contains(t, buf.String(), "header resolve")

	h.Close()
	assert.Contains(t, buf.String(), "header proxy closed")
}
