package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tagproxy/internal/qf"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	QueryFormat string
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <header>",
		Short: "Render a query format against a header",
		Long: `Expand a query format such as "%{NAME}-%{VERSION}\n" against a header.

Examples:
  tagproxy query bash.yaml --qf '%{NAME}-%{VERSION}-%{RELEASE}\n'
  tagproxy query bash.yaml --qf '[%{REQUIRENAME} %{REQUIREFLAGS:depflags} %{REQUIREVERSION}\n]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.QueryFormat, "qf", "", "query format (required)")
	_ = cmd.MarkFlagRequired("qf")

	return cmd
}

func runQuery(opts *QueryOptions, ref string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	h, err := opts.loadHeader(cmd.Context(), ref)
	if err != nil {
		return err
	}

	reg := opts.registry()
	defer reg.Close()
	px := reg.NewHeader(h)
	h.Free()

	s, err := px.Sprintf(opts.QueryFormat)
	if err != nil {
		var fe *qf.FormatError
		if errors.As(err, &fe) {
			return WrapExitError(ExitCommandError, "invalid query format", err)
		}
		return err
	}

	out := opts.formatter(cmd)
	if out.Structured() {
		return out.Success(map[string]string{"output": s})
	}
	fmt.Fprint(cmd.OutOrStdout(), s)
	return nil
}
