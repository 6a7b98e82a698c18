package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tagproxy/internal/value"
)

// DumpResult is the structured output of the dump command.
type DumpResult struct {
	Origin string         `json:"origin" cbor:"origin"`
	Tags   map[string]any `json:"tags" cbor:"tags"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <header>",
		Short: "Print every tag of a header",
		Long: `Print every tag of a header as read through a header proxy.

<header> is a YAML fixture, a binary header image or db:<id>. I18N
strings follow the configured locales. Tags whose type cannot be
represented are skipped.

Examples:
  tagproxy dump bash.yaml
  tagproxy dump --db headers.db db:0190f2a4-...
  tagproxy dump bash.hdr --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, args[0], cmd)
		},
	}
}

func runDump(opts *RootOptions, ref string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	h, err := opts.loadHeader(cmd.Context(), ref)
	if err != nil {
		return err
	}
	tags := h.Tags()

	reg := opts.registry()
	defer reg.Close()
	px := reg.NewHeader(h)
	h.Free()

	for _, t := range tags {
		px.Get(t.String())
	}

	out := opts.formatter(cmd)
	if out.Structured() {
		res := DumpResult{Origin: px.Origin(), Tags: make(map[string]any)}
		for _, name := range px.Keys() {
			v, _ := px.Get(name)
			res.Tags[name] = value.ToNative(v)
		}
		return out.Success(res)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# %s\n", px.Origin())
	for _, name := range px.Keys() {
		v, _ := px.Get(name)
		fmt.Fprintf(w, "%-20s %s\n", name, value.Format(v))
	}
	return nil
}
