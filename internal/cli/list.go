package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tagproxy/internal/store"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Name string
}

// ListedHeader is one row of list output.
type ListedHeader struct {
	ID     string `json:"id" cbor:"id"`
	Seq    int64  `json:"seq" cbor:"seq"`
	NEVR   string `json:"nevr" cbor:"nevr"`
	Origin string `json:"origin" cbor:"origin"`
	Digest string `json:"digest" cbor:"digest"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored headers",
		Long: `List the headers in the header database in import order.

Examples:
  tagproxy list --db headers.db
  tagproxy list --db headers.db --name bash --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "only headers with this NAME")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	var records []store.Record
	if opts.Name != "" {
		records, err = st.FindByName(cmd.Context(), opts.Name)
	} else {
		records, err = st.List(cmd.Context())
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list headers", err)
	}

	rows := make([]ListedHeader, len(records))
	for i, r := range records {
		rows[i] = ListedHeader{ID: r.ID, Seq: r.Seq, NEVR: r.NEVR, Origin: r.Origin, Digest: r.Digest}
	}

	out := opts.formatter(cmd)
	if out.Structured() {
		return out.Success(rows)
	}
	w := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(w, "No headers stored.")
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%4d  %s  %-24s %s\n", r.Seq, r.ID, r.NEVR, r.Origin)
	}
	return nil
}
