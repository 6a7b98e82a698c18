package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/tagproxy/internal/manifest"
	"github.com/roach88/tagproxy/internal/store"
	"github.com/roach88/tagproxy/internal/tag"
)

// dbPrefix marks a header reference into the header database.
const dbPrefix = "db:"

// openStore opens the configured header database.
func (o *RootOptions) openStore() (*store.Store, error) {
	if o.DB == "" {
		return nil, NewExitError(ExitCommandError, "no header database: set --db or database in the config file")
	}
	st, err := store.Open(o.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// loadHeader resolves a header reference. "db:<id>" reads the header
// database, .yaml and .yml files are fixtures and anything else is read as
// a binary header image.
func (o *RootOptions) loadHeader(ctx context.Context, ref string) (*tag.Header, error) {
	if id, ok := cutDBPrefix(ref); ok {
		st, err := o.openStore()
		if err != nil {
			return nil, err
		}
		defer st.Close()

		h, err := st.Get(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("header %s not found", id))
		}
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read header", err)
		}
		return h, nil
	}

	switch strings.ToLower(filepath.Ext(ref)) {
	case ".yaml", ".yml":
		h, err := manifest.Load(ref)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load fixture", err)
		}
		return h, nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read header image", err)
	}
	h, err := tag.Unmarshal(data)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("%s is not a header image", ref), err)
	}
	h.SetOrigin(ref)
	return h, nil
}

func cutDBPrefix(ref string) (string, bool) {
	return strings.CutPrefix(ref, dbPrefix)
}
