package proxy

import (
	"errors"
	"io"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/roach88/tagproxy/internal/tag"
)

// Level is a diagnostic level shared by every proxy of one kind. Zero is
// silent; non-zero traces construction, teardown, get and set; negative
// levels also trace resolve and enumerate.
type Level struct {
	n int
}

func (l *Level) Get() int  { return l.n }
func (l *Level) Set(n int) { l.n = n }

func (l *Level) traces() bool    { return l.n != 0 }
func (l *Level) tracesAll() bool { return l.n < 0 }

// Registry creates proxies and owns the state they share: one debug level
// per proxy kind, the logger and the preferred locales. Close tears down
// every proxy still open.
type Registry struct {
	header Level
	deps   Level

	logger  *slog.Logger
	locales []language.Tag

	live        map[closer]struct{}
	headerClass *Header
}

type closer interface {
	Close() error
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithHeaderDebug sets the initial header debug level.
func WithHeaderDebug(n int) Option {
	return func(r *Registry) { r.header.Set(n) }
}

// WithDepsDebug sets the initial dependency set debug level.
func WithDepsDebug(n int) Option {
	return func(r *Registry) { r.deps.Set(n) }
}

// WithLocales sets the locales applied to headers created through the
// registry, most preferred first.
func WithLocales(locales ...language.Tag) Option {
	return func(r *Registry) { r.locales = append([]language.Tag(nil), locales...) }
}

// NewRegistry creates a registry with both debug levels at zero and a
// discarding logger unless overridden.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		live:   make(map[closer]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.headerClass = &Header{reg: r, props: newPropertyCache()}
	return r
}

// HeaderDebug returns the shared header debug level.
func (r *Registry) HeaderDebug() *Level { return &r.header }

// DepsDebug returns the shared dependency set debug level.
func (r *Registry) DepsDebug() *Level { return &r.deps }

// HeaderClass returns the class-level header object. It has no store:
// every tag lookup reports absent.
func (r *Registry) HeaderClass() *Header { return r.headerClass }

// Live returns the number of proxies created and not yet closed.
func (r *Registry) Live() int { return len(r.live) }

// Close closes every live proxy. The registry stays usable.
func (r *Registry) Close() error {
	open := make([]closer, 0, len(r.live))
	for c := range r.live {
		open = append(open, c)
	}
	var errs []error
	for _, c := range open {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewHeader wraps an existing store, taking a reference to it.
func (r *Registry) NewHeader(s tag.Store) *Header {
	if th, ok := s.(*tag.Header); ok && len(r.locales) > 0 {
		th.SetLocales(r.locales)
	}
	h := &Header{reg: r, store: s.Link(), props: newPropertyCache()}
	r.track(h)
	if r.header.traces() {
		r.logger.Debug("header proxy created", "store", s.ID())
	}
	return h
}

// EmptyHeader creates a proxy over a fresh, empty store it owns.
func (r *Registry) EmptyHeader() *Header {
	s := tag.New()
	h := r.NewHeader(s)
	s.Free()
	return h
}

func (r *Registry) track(c closer)   { r.live[c] = struct{}{} }
func (r *Registry) untrack(c closer) { delete(r.live, c) }
