package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ImportedHeader reports one stored header.
type ImportedHeader struct {
	ID   string `json:"id" cbor:"id"`
	Path string `json:"path" cbor:"path"`
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixture>...",
		Short: "Store headers in the header database",
		Long: `Store YAML fixtures or binary header images in the header database.

Importing identical content twice returns the existing ID.

Examples:
  tagproxy import --db headers.db bash.yaml zsh.hdr`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args, cmd)
		},
	}
}

func runImport(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	if err := opts.prepare(cmd); err != nil {
		return err
	}
	st, err := opts.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := opts.formatter(cmd)
	imported := make([]ImportedHeader, 0, len(paths))
	for _, path := range paths {
		if _, ok := cutDBPrefix(path); ok {
			return NewExitError(ExitCommandError, fmt.Sprintf("%s is already in the database", path))
		}
		h, err := opts.loadHeader(cmd.Context(), path)
		if err != nil {
			return err
		}
		id, err := st.Put(cmd.Context(), h)
		h.Free()
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to store header", err)
		}
		out.VerboseLog("imported %s as %s", path, id)
		imported = append(imported, ImportedHeader{ID: id, Path: path})
	}

	if out.Structured() {
		return out.Success(imported)
	}
	w := cmd.OutOrStdout()
	for _, im := range imported {
		fmt.Fprintf(w, "%s  %s\n", im.ID, im.Path)
	}
	return nil
}
