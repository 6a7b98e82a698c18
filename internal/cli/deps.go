package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tagproxy/internal/proxy"
	"github.com/roach88/tagproxy/internal/tag"
	"github.com/roach88/tagproxy/internal/value"
)

// DepsOptions holds flags for the deps command.
type DepsOptions struct {
	*RootOptions
	Type string
}

// DepEntry is one dependency in structured output.
type DepEntry struct {
	N     string `json:"N" cbor:"N"`
	EVR   string `json:"EVR" cbor:"EVR"`
	F     int64  `json:"F" cbor:"F"`
	DNEVR string `json:"DNEVR" cbor:"DNEVR"`
}

// DepsResult is the structured output of the deps command.
type DepsResult struct {
	Type    string     `json:"type" cbor:"type"`
	Entries []DepEntry `json:"entries" cbor:"entries"`
}

// NewDepsCommand creates the deps command.
func NewDepsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DepsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "deps <source>",
		Short: "Walk a dependency set",
		Long: `Walk a dependency set and print each entry.

<source> is a header reference (fixture, image or db:<id>) or one of the
system keywords cpuinfo, rpmlib, getconf and uname. For headers --type
picks the set (PROVIDENAME, REQUIRENAME, CONFLICTNAME, OBSOLETENAME);
without it the header's own name-version-release is shown.

Examples:
  tagproxy deps bash.yaml --type REQUIRENAME
  tagproxy deps rpmlib`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "dependency name tag")

	return cmd
}

func runDeps(opts *DepsOptions, src string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}

	reg := opts.registry()
	defer reg.Close()

	d, err := openDeps(opts, reg, src, cmd)
	if err != nil {
		return err
	}

	res := DepsResult{Entries: []DepEntry{}}
	if v, ok := d.Get(proxy.PropType); ok {
		res.Type = value.Format(v)
	}
	en := d.Enumerate()
	for en.HasNext() {
		en.Next()
		res.Entries = append(res.Entries, depEntry(d))
	}

	out := opts.formatter(cmd)
	if out.Structured() {
		return out.Success(res)
	}
	w := cmd.OutOrStdout()
	for _, e := range res.Entries {
		fmt.Fprintln(w, e.DNEVR)
	}
	return nil
}

func openDeps(opts *DepsOptions, reg *proxy.Registry, src string, cmd *cobra.Command) (*proxy.Deps, error) {
	if !isHeaderRef(src) {
		d, err := reg.NewDeps(src, 0)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "unknown dependency source", err)
		}
		return d, nil
	}

	var tagN tag.Tag
	if opts.Type != "" {
		t, ok := tag.Value(opts.Type)
		if !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown tag %q", opts.Type))
		}
		tagN = t
	}

	h, err := opts.loadHeader(cmd.Context(), src)
	if err != nil {
		return nil, err
	}
	px := reg.NewHeader(h)
	h.Free()

	d, err := reg.NewDeps(px, tagN)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build dependency set", err)
	}
	return d, nil
}

// isHeaderRef reports whether src names a header rather than a keyword.
func isHeaderRef(src string) bool {
	if strings.HasPrefix(src, dbPrefix) {
		return true
	}
	_, err := os.Stat(src)
	return !errors.Is(err, os.ErrNotExist)
}

func depEntry(d *proxy.Deps) DepEntry {
	var e DepEntry
	if v, ok := d.Get(proxy.PropN); ok {
		e.N = value.Format(v)
	}
	if v, ok := d.Get(proxy.PropEVR); ok {
		e.EVR = value.Format(v)
	}
	if v, ok := d.Get(proxy.PropF); ok {
		e.F = int64(v.(value.Int))
	}
	if v, ok := d.Get(proxy.PropDNEVR); ok {
		e.DNEVR = value.Format(v)
	}
	return e
}
