package script

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tagproxy/internal/manifest"
	"github.com/roach88/tagproxy/internal/proxy"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

// target is the part of the proxy surface every proxy kind shares.
type target interface {
	Get(name string) (value.Value, bool)
	Set(name string, v value.Value) error
	Resolve(name string, flags proxy.ResolveFlags) bool
	Enumerate() *proxy.Enumerator
	Close() error
}

// Runner executes scenarios.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a runner. A nil logger discards proxy traces.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{logger: logger}
}

// Run executes a scenario with a discarding logger.
func Run(s *Scenario) (*Result, error) {
	return NewRunner(nil).Run(s)
}

type execution struct {
	reg     *proxy.Registry
	header  *proxy.Header
	proxies map[string]target
	result  *Result
}

// Run loads the scenario's header and executes every step. Errors are
// returned only when the scenario cannot start; step failures are recorded
// in the result.
func (r *Runner) Run(s *Scenario) (*Result, error) {
	h, err := loadHeader(s)
	if err != nil {
		return nil, err
	}

	locales := make([]language.Tag, 0, len(s.Locales))
	for _, loc := range s.Locales {
		locales = append(locales, tag.ParseLocale(loc))
	}
	reg := proxy.NewRegistry(
		proxy.WithLogger(r.logger),
		proxy.WithHeaderDebug(s.Debug.Header),
		proxy.WithDepsDebug(s.Debug.Deps),
		proxy.WithLocales(locales...),
	)
	defer reg.Close()

	x := &execution{
		reg:     reg,
		header:  reg.NewHeader(h),
		proxies: make(map[string]target),
		result:  NewResult(),
	}
	// The header proxy now holds the only reference.
	h.Free()
	x.proxies[HeaderTarget] = x.header

	for i := range s.Steps {
		x.step(int64(i+1), &s.Steps[i])
	}
	return x.result, nil
}

// loadHeader builds the fixture with a fixed ID so traces do not depend on
// generated UUIDs.
func loadHeader(s *Scenario) (*tag.Header, error) {
	var (
		loaded *tag.Header
		err    error
	)
	if s.Header != "" {
		loaded, err = manifest.Load(s.Header)
	} else {
		doc := manifest.Document{Origin: s.Name, Tags: s.Tags}
		loaded, err = doc.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load header: %w", err)
	}
	h, err := tag.UnmarshalWithID(tag.Marshal(loaded), s.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to load header: %w", err)
	}
	h.SetOrigin(loaded.Origin())
	return h, nil
}

func (x *execution) step(seq int64, st *Step) {
	on := st.On
	if on == "" {
		on = HeaderTarget
	}
	ev := TraceEvent{Seq: seq, Op: st.Op, On: on, Name: st.Name}

	res, present, err := x.exec(on, st)
	switch {
	case err != nil:
		ev.Error = err.Error()
	case !present:
		ev.Absent = true
	default:
		ev.Result = res
	}
	x.result.Trace = append(x.result.Trace, ev)
	x.check(ev, st)
}

// exec runs one step. present is false for lookups that found nothing;
// steps without a result report (nil, true, nil).
func (x *execution) exec(on string, st *Step) (value.Value, bool, error) {
	if st.Op == OpDeps {
		d, err := x.deps(on, st)
		if err != nil {
			return nil, true, err
		}
		x.proxies[st.As] = d
		return value.Int(d.Count()), true, nil
	}

	t, ok := x.proxies[on]
	if !ok {
		return nil, true, fmt.Errorf("no proxy named %q", on)
	}

	switch st.Op {
	case OpGet:
		v, ok := t.Get(st.Name)
		return v, ok, nil
	case OpSet:
		v, err := nodeValue(st.Value)
		if err != nil {
			return nil, true, err
		}
		return nil, true, t.Set(st.Name, v)
	case OpResolve:
		return value.Bool(t.Resolve(st.Name, 0)), true, nil
	case OpKeys:
		if h, ok := t.(*proxy.Header); ok {
			return value.Strings(h.Keys()...), true, nil
		}
		return value.NewArray(t.Enumerate().All()...), true, nil
	case OpClose:
		return nil, true, t.Close()
	}

	switch p := t.(type) {
	case *proxy.Header:
		return x.headerOp(p, st)
	case *proxy.Deps:
		return x.depsOp(p, st)
	}
	return nil, true, fmt.Errorf("%s: unsupported proxy %q", st.Op, on)
}

func (x *execution) headerOp(h *proxy.Header, st *Step) (value.Value, bool, error) {
	switch st.Op {
	case OpSprintf:
		s, err := h.Sprintf(st.Format)
		if err != nil {
			return nil, true, err
		}
		return value.String(s), true, nil
	case OpOrigin:
		return value.String(h.Origin()), true, nil
	case OpSetOrigin:
		v, err := nodeValue(st.Value)
		if err != nil {
			return nil, true, err
		}
		s, ok := v.(value.String)
		if !ok {
			return nil, true, fmt.Errorf("setorigin: origin must be a string, got %s", value.Format(v))
		}
		return value.String(h.SetOrigin(string(s))), true, nil
	}
	return nil, true, fmt.Errorf("%s is not a header operation", st.Op)
}

func (x *execution) depsOp(d *proxy.Deps, st *Step) (value.Value, bool, error) {
	switch st.Op {
	case OpSeek:
		return value.Bool(d.Seek(st.Index)), true, nil
	case OpNext:
		return value.Bool(d.Next()), true, nil
	case OpInit:
		d.Init()
		return nil, true, nil
	case OpIndex:
		v, ok := d.Index(st.Index)
		if !ok {
			return nil, false, nil
		}
		return v, true, nil
	case OpCount:
		return value.Int(d.Count()), true, nil
	}
	return nil, true, fmt.Errorf("%s is not a dependency set operation", st.Op)
}

func (x *execution) deps(on string, st *Step) (*proxy.Deps, error) {
	var tagN tag.Tag
	if st.Tag != "" {
		t, ok := tag.Value(st.Tag)
		if !ok {
			return nil, fmt.Errorf("deps: unknown tag %q", st.Tag)
		}
		tagN = t
	}

	if st.Source == nil {
		h, ok := x.proxies[on].(*proxy.Header)
		if !ok {
			return nil, fmt.Errorf("deps: %q is not a header proxy", on)
		}
		return x.reg.NewDeps(h, tagN)
	}

	src, err := nodeValue(st.Source)
	if err != nil {
		return nil, err
	}
	return x.reg.NewDeps(src, tagN)
}

// check compares an event against the step's expectation.
func (x *execution) check(ev TraceEvent, st *Step) {
	prefix := fmt.Sprintf("step %d (%s %s)", ev.Seq, ev.Op, ev.On)

	if st.Error != "" {
		if !strings.Contains(ev.Error, st.Error) {
			x.result.AddError(fmt.Sprintf("%s: expected error containing %q, got %q", prefix, st.Error, ev.Error))
		}
		return
	}
	if ev.Error != "" {
		x.result.AddError(fmt.Sprintf("%s: unexpected error: %s", prefix, ev.Error))
		return
	}

	switch {
	case st.Absent:
		if !ev.Absent {
			x.result.AddError(fmt.Sprintf("%s: expected absent, got %s", prefix, value.Format(ev.Result)))
		}
	case st.Expect != nil:
		want, err := nodeValue(st.Expect)
		if err != nil {
			x.result.AddError(fmt.Sprintf("%s: bad expect: %v", prefix, err))
			return
		}
		if ev.Absent {
			x.result.AddError(fmt.Sprintf("%s: expected %s, got absent", prefix, value.Format(want)))
			return
		}
		if !value.Equal(want, ev.Result) {
			x.result.AddError(fmt.Sprintf("%s: expected %s, got %s", prefix, value.Format(want), value.Format(ev.Result)))
		}
	}
}

func nodeValue(n *yaml.Node) (value.Value, error) {
	var native any
	if err := n.Decode(&native); err != nil {
		return nil, err
	}
	return value.FromNative(native)
}
